package domain

import "errors"

// Sentinel errors raised at the point of detection and translated to HTTP
// status codes at the boundary.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// the response never reveals which one failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrRoleNotFound       = errors.New("user role not found")
	ErrAdminRegistration  = errors.New("cannot register a user with admin role")
	ErrTodoNotFound       = errors.New("todo task not found")
	// ErrNotTodoOwner is distinct from a missing privilege even though both
	// surface as a generic 403.
	ErrNotTodoOwner = errors.New("todo belongs to another user")
	ErrEmptyIDSet   = errors.New("no todo ids provided")
	// ErrInvalidInput wraps field-level validation failures detected past the
	// binding layer.
	ErrInvalidInput = errors.New("invalid input")
)
