package auth

import "time"

// Admin represents a dashboard administrator account.
type Admin struct {
	ID           int64
	Email        string
	Name         string
	Role         string
	PasswordHash string
	IsActive     bool
	LastLoginAt  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAdmin is the input for creating an admin account.
type NewAdmin struct {
	Email    string `validate:"required,email,max=254"`
	Name     string `validate:"required,max=120"`
	Role     string `validate:"required,oneof=superadmin admin operator"`
	Password string `validate:"required,min=8,max=72"`
}
