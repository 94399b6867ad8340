// Package session holds server-side login sessions: created at login,
// resolved on every authenticated request, destroyed at logout.
package session

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"schoolconnect/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// Store abstracts session persistence.
type Store interface {
	Create(ctx context.Context, username string) (models.Session, error)
	Resolve(ctx context.Context, token string) (models.Account, error)
	Destroy(ctx context.Context, token string) error
}

// DBStore is a sqlx-backed Store.
type DBStore struct {
	db *sqlx.DB
}

// NewStore constructs a DBStore.
func NewStore(db *sqlx.DB) *DBStore {
	return &DBStore{db: db}
}

// Create issues an opaque session token for the account.
func (s *DBStore) Create(ctx context.Context, username string) (models.Session, error) {
	var sess models.Session
	err := s.db.QueryRowxContext(ctx, `INSERT INTO sessions (token, username) VALUES ($1, $2)
        RETURNING token, username, created_at`, uuid.NewString(), username).
		StructScan(&sess)
	return sess, err
}

// Resolve maps a token to its account.
func (s *DBStore) Resolve(ctx context.Context, token string) (models.Account, error) {
	var account models.Account
	err := s.db.GetContext(ctx, &account, `SELECT a.id, a.username, a.password, a.email, a.role, a.created_at
        FROM sessions s INNER JOIN accounts a ON a.username = s.username WHERE s.token=$1`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ErrSessionNotFound
	}
	return account, err
}

// Destroy removes the session. Destroying an unknown token is a no-op.
func (s *DBStore) Destroy(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token=$1`, token)
	return err
}
