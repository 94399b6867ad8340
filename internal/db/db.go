package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string, log *zap.SugaredLogger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database migrations applied")

	return db, nil
}

// Migrate creates the schema. Shared with the reset CLI, which drops
// everything first and then calls this.
func Migrate(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
            id SERIAL PRIMARY KEY,
            username TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            email TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'member',
            created_at TIMESTAMPTZ DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS sessions (
            token TEXT PRIMARY KEY,
            username TEXT NOT NULL REFERENCES accounts(username) ON DELETE CASCADE,
            created_at TIMESTAMPTZ DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS groups (
            id SERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            created_by TEXT NOT NULL,
            created_at TIMESTAMPTZ DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS group_members (
            group_id INT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
            username TEXT NOT NULL,
            is_admin BOOLEAN NOT NULL DEFAULT FALSE,
            PRIMARY KEY(group_id, username)
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id SERIAL PRIMARY KEY,
            sender TEXT NOT NULL,
            sender_id INT,
            body TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'sent',
            starred BOOLEAN NOT NULL DEFAULT FALSE,
            deleted_for TEXT[] NOT NULL DEFAULT '{}',
            recipient TEXT,
            group_id INT REFERENCES groups(id) ON DELETE CASCADE,
            created_at TIMESTAMPTZ DEFAULT NOW(),
            CHECK (recipient IS NULL OR group_id IS NULL)
        );`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Drop removes every table, dependents first.
func Drop(db *sqlx.DB) error {
	drops := []string{
		`DROP TABLE IF EXISTS messages;`,
		`DROP TABLE IF EXISTS group_members;`,
		`DROP TABLE IF EXISTS groups;`,
		`DROP TABLE IF EXISTS sessions;`,
		`DROP TABLE IF EXISTS accounts;`,
	}
	for _, d := range drops {
		if _, err := db.Exec(d); err != nil {
			return err
		}
	}
	return nil
}
