package settings

import "errors"

var (
	ErrNotFound        = errors.New("settings row not found")
	ErrVersionConflict = errors.New("settings version conflict")
)
