package service

import (
	"errors"
	"fmt"

	"github.com/habit-tracker/pkg/crypto"
)

// Error kinds. Handlers recover these at the request boundary and turn them
// into a notice plus a redirect; anything else is an unexpected failure.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrAuth       = errors.New("authentication failed")
	ErrForbidden  = errors.New("not allowed")
	ErrNotFound   = errors.New("not found")
)

var (
	ErrMissingCredentials = fmt.Errorf("%w: username and password are required", ErrValidation)
	ErrPasswordTooLong    = fmt.Errorf("%w: password exceeds %d bytes", ErrValidation, crypto.MaxPasswordBytes)
	ErrUsernameTaken      = fmt.Errorf("%w: username already taken", ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrAuth)
	ErrNotAuthenticated   = fmt.Errorf("%w: no active session", ErrAuth)
	ErrHabitNotFound      = fmt.Errorf("%w: habit not found", ErrNotFound)
	ErrNotHabitOwner      = fmt.Errorf("%w: habit belongs to another user", ErrForbidden)
)
