package validation

import "time"

// Result is one validation answer returned to the caller. Cached hits
// do not consume a credit.
type Result struct {
	PhoneNumber string    `json:"phone_number"`
	Channel     string    `json:"channel"`
	Registered  bool      `json:"registered"`
	DisplayName string    `json:"display_name,omitempty"`
	LastSeen    string    `json:"last_seen,omitempty"`
	Cached      bool      `json:"cached"`
	CheckedAt   time.Time `json:"checked_at"`
	Balance     int       `json:"balance"`
}
