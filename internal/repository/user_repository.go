package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/glpitrack/glpitrack/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// UserRepository defines the interface for user account storage.
type UserRepository interface {
	Create(email, passwordHash string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByID(id int) (*models.User, error)
}

// UserSQLRepository stores users in SQLite.
type UserSQLRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sqlx.DB) *UserSQLRepository {
	return &UserSQLRepository{db: db}
}

// Create inserts a new user account.
func (r *UserSQLRepository) Create(email, passwordHash string) (*models.User, error) {
	result, err := r.db.Exec(
		`INSERT INTO users (email, password_hash) VALUES (?, ?)`,
		email, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted ID: %w", err)
	}
	return r.GetByID(int(id))
}

// GetByEmail returns the user with the given email.
func (r *UserSQLRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Get(&user, `SELECT * FROM users WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// GetByID returns the user with the given ID.
func (r *UserSQLRepository) GetByID(id int) (*models.User, error) {
	var user models.User
	err := r.db.Get(&user, `SELECT * FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}
