package identity

import "errors"

// Expected failure modes of the identity module. Handlers map these to
// HTTP statuses; anything else is treated as an internal error.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminExists        = errors.New("admin already exists")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidUserID      = errors.New("invalid user id")
)
