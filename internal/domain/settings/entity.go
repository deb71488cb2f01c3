package settings

import (
	"time"

	"github.com/google/uuid"
)

// Settings is the platform configuration row. A single versioned row
// holds the channel toggles; every update bumps the version.
type Settings struct {
	ID              int        `db:"id" json:"-"`
	WhatsappEnabled bool       `db:"whatsapp_enabled" json:"whatsapp_enabled"`
	TelegramEnabled bool       `db:"telegram_enabled" json:"telegram_enabled"`
	Version         int        `db:"version" json:"version"`
	UpdatedBy       *uuid.UUID `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// ChannelEnabled reports whether a validation channel is switched on.
func (s *Settings) ChannelEnabled(channel string) bool {
	switch channel {
	case "whatsapp":
		return s.WhatsappEnabled
	case "telegram":
		return s.TelegramEnabled
	default:
		return false
	}
}

// Update carries the new toggle values plus the version the caller read.
type Update struct {
	WhatsappEnabled bool
	TelegramEnabled bool
	Version         int
}
