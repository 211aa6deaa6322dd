package employees

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrEmpIDImmutable   = errors.New("employee id cannot be changed")
	ErrSelfDeletion     = errors.New("cannot deactivate own account")
	ErrEmpIDTaken       = errors.New("employee id already exists")
	ErrEmailTaken       = errors.New("email already registered")
	ErrNothingToUpdate  = errors.New("no updatable fields provided")
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrInvalidValue     = errors.New("invalid field value")
)
