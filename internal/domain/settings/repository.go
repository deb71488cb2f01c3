package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const settingsRowID = 1

// Repository defines settings data access
type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, upd Update, updatedBy uuid.UUID) (*Settings, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context) (*Settings, error) {
	var s Settings
	err := r.db.GetContext(ctx, &s, `
		SELECT id, whatsapp_enabled, telegram_enabled, version, updated_by, updated_at
		FROM platform_settings WHERE id = $1
	`, settingsRowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("settings repository get: %w", err)
	}

	return &s, nil
}

// Update applies new toggle values with an optimistic version check.
// A stale version means someone else wrote first; the caller should
// re-read and retry.
func (r *repository) Update(ctx context.Context, upd Update, updatedBy uuid.UUID) (*Settings, error) {
	var s Settings
	err := r.db.GetContext(ctx, &s, `
		UPDATE platform_settings
		SET whatsapp_enabled = $2,
		    telegram_enabled = $3,
		    version = version + 1,
		    updated_by = $4,
		    updated_at = NOW()
		WHERE id = $1 AND version = $5
		RETURNING id, whatsapp_enabled, telegram_enabled, version, updated_by, updated_at
	`, settingsRowID, upd.WhatsappEnabled, upd.TelegramEnabled, updatedBy, upd.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("settings repository update: %w", err)
	}

	return &s, nil
}
