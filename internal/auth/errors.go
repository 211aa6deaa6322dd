package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingCredentials = errors.New("employee id and password are required")
	ErrLoginLocked        = errors.New("too many failed login attempts")
	ErrInvalidReason      = errors.New("invalid logout reason")
)
