package admin

import (
	"time"

	"github.com/google/uuid"
)

// LoginRequest for POST /admin/auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginResponse after successful login
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	Admin       *AdminResponse `json:"admin"`
}

// AdminResponse represents admin in API
type AdminResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	IsActive    bool      `json:"is_active"`
	LastLoginAt *string   `json:"last_login_at,omitempty"`
	CreatedAt   string    `json:"created_at"`
}

// AdminResponseFromEntity converts entity to response
func AdminResponseFromEntity(a *AdminUser) *AdminResponse {
	resp := &AdminResponse{
		ID:        a.ID,
		Email:     a.Email,
		Role:      string(a.Role),
		Name:      a.Name,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}

	if a.LastLoginAt.Valid {
		s := a.LastLoginAt.Time.Format(time.RFC3339)
		resp.LastLoginAt = &s
	}

	if perms, ok := RolePermissions[a.Role]; ok {
		resp.Permissions = make([]string, len(perms))
		for i, p := range perms {
			resp.Permissions[i] = string(p)
		}
	}

	return resp
}

// CreateAdminRequest for POST /admin/admins
type CreateAdminRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,admin_role"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
}

// UpdateAdminRequest for PATCH /admin/admins/{id}
type UpdateAdminRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Role     *string `json:"role,omitempty" validate:"omitempty,admin_role"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// AdjustCreditsRequest for POST /admin/users/{id}/credits
type AdjustCreditsRequest struct {
	Action string `json:"action" validate:"required,adjust_action"`
	Amount int    `json:"amount" validate:"gte=0,lte=1000000"`
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// BulkCreditRequest for POST /admin/bulk-credit-management
type BulkCreditRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1,max=1000"`
	Action  string   `json:"action" validate:"required,adjust_action"`
	Amount  int      `json:"amount" validate:"gte=0,lte=1000000"`
	Reason  string   `json:"reason" validate:"required,min=3,max=500"`
}

// UpdateSettingsRequest for PUT /admin/settings
type UpdateSettingsRequest struct {
	WhatsappEnabled bool `json:"whatsapp_enabled"`
	TelegramEnabled bool `json:"telegram_enabled"`
	Version         int  `json:"version" validate:"gte=0"`
}

// UpdateUserStatusRequest for PATCH /admin/users/{id}/status
type UpdateUserStatusRequest struct {
	IsActive bool   `json:"is_active"`
	Reason   string `json:"reason,omitempty" validate:"max=500"`
}

// ExportRequest for POST /admin/reports/transactions
type ExportRequest struct {
	UserID   *string `json:"user_id,omitempty"`
	Action   *string `json:"action,omitempty" validate:"omitempty,adjust_action"`
	DateFrom *string `json:"date_from,omitempty"`
	DateTo   *string `json:"date_to,omitempty"`
}
