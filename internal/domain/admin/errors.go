package admin

import "errors"

var (
	ErrAdminNotFound      = errors.New("admin not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminInactive      = errors.New("admin account is inactive")
	ErrEmailTaken         = errors.New("email already in use")
	ErrCannotManageRole   = errors.New("cannot manage admin with equal or higher role")
)
