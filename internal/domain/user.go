package domain

import "time"

// User represents a registered account. ID is the internal storage key;
// UserID is the public identifier handed to clients.
type User struct {
	ID           int64
	UserID       string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
