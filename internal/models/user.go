package models

import "time"

// User is a tracker account. Authentication is local (email + password);
// GLPI credentials are stored separately per user.
type User struct {
	ID           int       `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
