package model

import "time"

// User is a storefront account. Balance-based ordering is not wired to
// the order flow; the column exists for parity with the billing panel.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Balance      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
