package user

import (
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the system (matches user_role enum)
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents an account (matches users table)
type User struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	Role          Role      `db:"role" json:"role"`
	CreditBalance int       `db:"credit_balance" json:"credit_balance"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// IsAdmin returns true if user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ListFilters controls admin user listing
type ListFilters struct {
	Email    string
	IsActive *bool
	Limit    int
	Offset   int
}
