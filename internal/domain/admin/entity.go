package admin

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role represents admin role
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleSupport    Role = "support"
)

// AdminUser represents an admin panel user
type AdminUser struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	Role         Role           `db:"role" json:"role"`
	Name         string         `db:"name" json:"name"`
	IsActive     bool           `db:"is_active" json:"is_active"`
	LastLoginAt  sql.NullTime   `db:"last_login_at" json:"last_login_at,omitempty"`
	LastLoginIP  sql.NullString `db:"last_login_ip" json:"last_login_ip,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// HasPermission checks if admin has a specific permission
func (a *AdminUser) HasPermission(perm Permission) bool {
	permissions, ok := RolePermissions[a.Role]
	if !ok {
		return false
	}
	for _, p := range permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// AuditLog represents an admin action log entry
type AuditLog struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	AdminID    uuid.NullUUID   `db:"admin_id" json:"admin_id,omitempty"`
	AdminEmail string          `db:"admin_email" json:"admin_email"`
	Action     string          `db:"action" json:"action"`
	EntityType string          `db:"entity_type" json:"entity_type"`
	EntityID   uuid.NullUUID   `db:"entity_id" json:"entity_id,omitempty"`
	OldValue   json.RawMessage `db:"old_value" json:"old_value,omitempty"`
	NewValue   json.RawMessage `db:"new_value" json:"new_value,omitempty"`
	Reason     sql.NullString  `db:"reason" json:"reason,omitempty"`
	IPAddress  sql.NullString  `db:"ip_address" json:"ip_address,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// DashboardStats for /admin/dashboard
type DashboardStats struct {
	Users       UserStats       `json:"users"`
	Credits     CreditStats     `json:"credits"`
	Payments    PaymentStats    `json:"payments"`
	Validations ValidationStats `json:"validations"`
}

type UserStats struct {
	Total       int `json:"total"`
	Active      int `json:"active"`
	NewToday    int `json:"new_today"`
	NewThisWeek int `json:"new_this_week"`
}

type CreditStats struct {
	TotalBalance     int `json:"total_balance"`
	IssuedToday      int `json:"issued_today"`
	SpentToday       int `json:"spent_today"`
	AdjustmentsToday int `json:"adjustments_today"`
}

type PaymentStats struct {
	PendingSessions int     `json:"pending_sessions"`
	PaidToday       int     `json:"paid_today"`
	RevenueToday    float64 `json:"revenue_today"`
	RevenueMonth    float64 `json:"revenue_month"`
}

type ValidationStats struct {
	Today    int `json:"today"`
	ThisWeek int `json:"this_week"`
}
