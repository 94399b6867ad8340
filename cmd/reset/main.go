// Command reset wipes the database and recreates the schema, optionally
// seeding an admin account so the global channel has a poster.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"schoolconnect/internal/db"
	"schoolconnect/internal/models"
)

func main() {
	adminUser := flag.String("admin", "", "seed an admin account with this handle")
	adminPass := flag.String("password", "", "password for the seeded admin account")
	flag.Parse()

	_ = godotenv.Load()
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set, create a .env file or export it")
	}

	database, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer database.Close()

	log.Println("dropping tables")
	if err := db.Drop(database); err != nil {
		log.Fatalf("failed to drop tables: %v", err)
	}

	log.Println("recreating schema")
	if err := db.Migrate(database); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	if *adminUser != "" {
		if *adminPass == "" {
			log.Fatal("-password is required when seeding an admin")
		}
		email := fmt.Sprintf("%s@schoolconnect.app", *adminUser)
		if _, err := database.Exec(`INSERT INTO accounts (username, password, email, role) VALUES ($1, $2, $3, $4)`,
			*adminUser, *adminPass, email, models.RoleAdmin); err != nil {
			log.Fatalf("failed to seed admin: %v", err)
		}
		log.Printf("seeded admin account %q", *adminUser)
	}

	log.Println("database reset complete")
}
