package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"schoolconnect/internal/models"
)

var (
	ErrUsernameTaken   = errors.New("username already taken")
	ErrAccountNotFound = errors.New("account not found")
)

// AccountRepository abstracts account persistence.
type AccountRepository interface {
	CreateAccount(ctx context.Context, username, password, role string) (models.Account, error)
	FindByCredentials(ctx context.Context, username, password string) (models.Account, error)
	FindByUsername(ctx context.Context, username string) (models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
}

// AccountRepo is a sqlx implementation of AccountRepository.
type AccountRepo struct {
	db *sqlx.DB
}

// NewAccountRepo constructs an AccountRepo.
func NewAccountRepo(db *sqlx.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// CreateAccount registers a new account. The contact address is derived
// from the handle. Duplicate handles yield ErrUsernameTaken.
func (r *AccountRepo) CreateAccount(ctx context.Context, username, password, role string) (models.Account, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM accounts WHERE username=$1)`, username); err != nil {
		return models.Account{}, err
	}
	if exists {
		return models.Account{}, ErrUsernameTaken
	}

	email := fmt.Sprintf("%s@schoolconnect.app", username)
	var account models.Account
	err := r.db.QueryRowxContext(ctx, `INSERT INTO accounts (username, password, email, role) VALUES ($1, $2, $3, $4)
        RETURNING id, username, password, email, role, created_at`, username, password, email, role).
		Scan(&account.ID, &account.Username, &account.Password, &account.Email, &account.Role, &account.CreatedAt)
	return account, err
}

// FindByCredentials matches handle and password verbatim.
func (r *AccountRepo) FindByCredentials(ctx context.Context, username, password string) (models.Account, error) {
	var account models.Account
	err := r.db.GetContext(ctx, &account, `SELECT id, username, password, email, role, created_at FROM accounts
        WHERE username=$1 AND password=$2`, username, password)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ErrAccountNotFound
	}
	return account, err
}

// FindByUsername fetches a single account by handle.
func (r *AccountRepo) FindByUsername(ctx context.Context, username string) (models.Account, error) {
	var account models.Account
	err := r.db.GetContext(ctx, &account, `SELECT id, username, password, email, role, created_at FROM accounts WHERE username=$1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ErrAccountNotFound
	}
	return account, err
}

// ListAccounts returns every account, for the contact panel.
func (r *AccountRepo) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.SelectContext(ctx, &accounts, `SELECT id, username, password, email, role, created_at FROM accounts ORDER BY username ASC`)
	return accounts, err
}
