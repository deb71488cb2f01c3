package admin

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines admin data access
type Repository interface {
	// Admin users
	CreateAdmin(ctx context.Context, admin *AdminUser) error
	GetAdminByID(ctx context.Context, id uuid.UUID) (*AdminUser, error)
	GetAdminByEmail(ctx context.Context, email string) (*AdminUser, error)
	ListAdmins(ctx context.Context) ([]*AdminUser, error)
	UpdateAdmin(ctx context.Context, admin *AdminUser) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, ip string) error

	// Audit logs
	CreateAuditLog(ctx context.Context, entry *AuditLog) error
	ListAuditLogs(ctx context.Context, filter AuditFilter) ([]*AuditLog, int, error)

	// Analytics
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

// AuditFilter for filtering audit logs
type AuditFilter struct {
	AdminID    *uuid.UUID
	Action     *string
	EntityType *string
	Limit      int
	Offset     int
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates admin repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Admin users

func (r *repository) CreateAdmin(ctx context.Context, admin *AdminUser) error {
	query := `
		INSERT INTO admin_users (id, email, password_hash, role, name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		admin.ID,
		admin.Email,
		admin.PasswordHash,
		admin.Role,
		admin.Name,
		admin.IsActive,
		admin.CreatedAt,
		admin.UpdatedAt,
	)
	return err
}

func (r *repository) GetAdminByID(ctx context.Context, id uuid.UUID) (*AdminUser, error) {
	query := `SELECT * FROM admin_users WHERE id = $1`
	var admin AdminUser
	err := r.db.GetContext(ctx, &admin, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

func (r *repository) GetAdminByEmail(ctx context.Context, email string) (*AdminUser, error) {
	query := `SELECT * FROM admin_users WHERE email = $1`
	var admin AdminUser
	err := r.db.GetContext(ctx, &admin, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

func (r *repository) ListAdmins(ctx context.Context) ([]*AdminUser, error) {
	query := `SELECT * FROM admin_users ORDER BY created_at DESC`
	var admins []*AdminUser
	err := r.db.SelectContext(ctx, &admins, query)
	return admins, err
}

func (r *repository) UpdateAdmin(ctx context.Context, admin *AdminUser) error {
	query := `
		UPDATE admin_users SET
			name = $2, role = $3, is_active = $4, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		admin.ID,
		admin.Name,
		admin.Role,
		admin.IsActive,
	)
	return err
}

func (r *repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, ip string) error {
	query := `UPDATE admin_users SET last_login_at = NOW(), last_login_ip = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, ip)
	return err
}

// Audit logs

func (r *repository) CreateAuditLog(ctx context.Context, entry *AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, admin_id, admin_email, action, entity_type, entity_id, old_value, new_value, reason, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.AdminID,
		entry.AdminEmail,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.OldValue,
		entry.NewValue,
		entry.Reason,
		entry.IPAddress,
		entry.CreatedAt,
	)
	return err
}

func (r *repository) ListAuditLogs(ctx context.Context, filter AuditFilter) ([]*AuditLog, int, error) {
	where := ``
	args := []interface{}{}
	argNum := 1

	if filter.AdminID != nil {
		where += ` AND admin_id = $` + strconv.Itoa(argNum)
		args = append(args, *filter.AdminID)
		argNum++
	}
	if filter.Action != nil {
		where += ` AND action = $` + strconv.Itoa(argNum)
		args = append(args, *filter.Action)
		argNum++
	}
	if filter.EntityType != nil {
		where += ` AND entity_type = $` + strconv.Itoa(argNum)
		args = append(args, *filter.EntityType)
		argNum++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM audit_logs WHERE 1=1` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT * FROM audit_logs WHERE 1=1` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(argNum) +
		` OFFSET $` + strconv.Itoa(argNum+1)
	args = append(args, limit, offset)

	var logs []*AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// Analytics

func (r *repository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	// User stats
	r.db.GetContext(ctx, &stats.Users.Total, `SELECT COUNT(*) FROM users`)
	r.db.GetContext(ctx, &stats.Users.Active, `SELECT COUNT(*) FROM users WHERE is_active = true`)
	r.db.GetContext(ctx, &stats.Users.NewToday, `SELECT COUNT(*) FROM users WHERE created_at >= CURRENT_DATE`)
	r.db.GetContext(ctx, &stats.Users.NewThisWeek, `SELECT COUNT(*) FROM users WHERE created_at >= CURRENT_DATE - INTERVAL '7 days'`)

	// Credit stats
	r.db.GetContext(ctx, &stats.Credits.TotalBalance, `SELECT COALESCE(SUM(credit_balance), 0) FROM users`)
	r.db.GetContext(ctx, &stats.Credits.IssuedToday, `SELECT COALESCE(SUM(amount_delta), 0) FROM credit_transactions WHERE amount_delta > 0 AND created_at >= CURRENT_DATE`)
	r.db.GetContext(ctx, &stats.Credits.SpentToday, `SELECT COALESCE(-SUM(amount_delta), 0) FROM credit_transactions WHERE amount_delta < 0 AND created_at >= CURRENT_DATE`)
	r.db.GetContext(ctx, &stats.Credits.AdjustmentsToday, `SELECT COUNT(*) FROM credit_transactions WHERE actor_kind = 'admin' AND created_at >= CURRENT_DATE`)

	// Payment stats
	r.db.GetContext(ctx, &stats.Payments.PendingSessions, `SELECT COUNT(*) FROM payment_sessions WHERE status = 'pending'`)
	r.db.GetContext(ctx, &stats.Payments.PaidToday, `SELECT COUNT(*) FROM payment_sessions WHERE status = 'paid' AND completed_at >= CURRENT_DATE`)
	r.db.GetContext(ctx, &stats.Payments.RevenueToday, `SELECT COALESCE(SUM(amount), 0) FROM payment_sessions WHERE status = 'paid' AND completed_at >= CURRENT_DATE`)
	r.db.GetContext(ctx, &stats.Payments.RevenueMonth, `SELECT COALESCE(SUM(amount), 0) FROM payment_sessions WHERE status = 'paid' AND completed_at >= DATE_TRUNC('month', CURRENT_DATE)`)

	// Validation stats
	r.db.GetContext(ctx, &stats.Validations.Today, `SELECT COUNT(*) FROM credit_transactions WHERE related_entity_type = 'validation' AND amount_delta < 0 AND created_at >= CURRENT_DATE`)
	r.db.GetContext(ctx, &stats.Validations.ThisWeek, `SELECT COUNT(*) FROM credit_transactions WHERE related_entity_type = 'validation' AND amount_delta < 0 AND created_at >= CURRENT_DATE - INTERVAL '7 days'`)

	return stats, nil
}
