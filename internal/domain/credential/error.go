package credential

import "errors"

var (
	ErrPasswordRequired    = errors.New("password required")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrNewPasswordRequired = errors.New("new password required")
	ErrPasswordTooLong     = errors.New("password exceeds 72 bytes")
	ErrRoleNotFound        = errors.New("role not found")
)
