package domain

import "time"

// User is an account that owns or is granted access to schedules.
type User struct {
	ID              string
	Email           string
	DisplayName     string
	ProfileImageURL string
	IsAdmin         bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Session is an authenticated session token issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
