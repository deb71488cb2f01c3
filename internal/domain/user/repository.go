package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines user data access interface
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmails(ctx context.Context, emails []string) ([]User, error)
	List(ctx context.Context, filters ListFilters) ([]User, error)
	Count(ctx context.Context, filters ListFilters) (int, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateActive(ctx context.Context, id uuid.UUID, active bool) error
}

// repository implements Repository
type repository struct {
	db *sqlx.DB
}

// NewRepository creates new user repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Create creates a new user
func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, role, credit_balance, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.CreditBalance,
		user.IsActive,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrEmailAlreadyExists
		}
		return fmt.Errorf("user repository create: %w", err)
	}

	return nil
}

// GetByID returns user by ID
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		SELECT id, email, password_hash, role, credit_balance, is_active, created_at, updated_at
		FROM users WHERE id = $1
	`
	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// GetByEmail returns user by email
func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, password_hash, role, credit_balance, is_active, created_at, updated_at
		FROM users WHERE email = $1
	`
	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// GetByEmails returns all users whose email is in the given set.
// Used by bulk credit operations to resolve identifiers up front.
func (r *repository) GetByEmails(ctx context.Context, emails []string) ([]User, error) {
	if len(emails) == 0 {
		return []User{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, email, password_hash, role, credit_balance, is_active, created_at, updated_at
		FROM users WHERE email IN (?)
	`, emails)
	if err != nil {
		return nil, fmt.Errorf("user repository get by emails: %w", err)
	}

	users := make([]User, 0, len(emails))
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("user repository get by emails: %w", err)
	}

	return users, nil
}

// List returns users matching filters
func (r *repository) List(ctx context.Context, filters ListFilters) ([]User, error) {
	base := `
		SELECT id, email, password_hash, role, credit_balance, is_active, created_at, updated_at
		FROM users
		WHERE 1=1`
	args := make([]interface{}, 0, 4)
	idx := 1

	if filters.Email != "" {
		base += fmt.Sprintf(" AND email ILIKE $%d", idx)
		args = append(args, "%"+filters.Email+"%")
		idx++
	}
	if filters.IsActive != nil {
		base += fmt.Sprintf(" AND is_active = $%d", idx)
		args = append(args, *filters.IsActive)
		idx++
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	base += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filters.Offset)

	users := make([]User, 0)
	if err := r.db.SelectContext(ctx, &users, base, args...); err != nil {
		return nil, fmt.Errorf("user repository list: %w", err)
	}

	return users, nil
}

// Count returns total users matching filters
func (r *repository) Count(ctx context.Context, filters ListFilters) (int, error) {
	base := `SELECT COUNT(*) FROM users WHERE 1=1`
	args := make([]interface{}, 0, 2)
	idx := 1

	if filters.Email != "" {
		base += fmt.Sprintf(" AND email ILIKE $%d", idx)
		args = append(args, "%"+filters.Email+"%")
		idx++
	}
	if filters.IsActive != nil {
		base += fmt.Sprintf(" AND is_active = $%d", idx)
		args = append(args, *filters.IsActive)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, base, args...); err != nil {
		return 0, fmt.Errorf("user repository count: %w", err)
	}

	return count, nil
}

// UpdatePassword updates user password
func (r *repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("user repository update password: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdateActive toggles account activation
func (r *repository) UpdateActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1
	`, id, active)
	if err != nil {
		return fmt.Errorf("user repository update active: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}
