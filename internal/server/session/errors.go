package session

import (
	"errors"
	"fmt"
)

// Session manager errors. Handlers map them to status codes with errors.Is.
var (
	// ErrNotFound unknown phone number, refresh token or session
	ErrNotFound = errors.New("not found")

	// ErrBadCredentials password mismatch
	ErrBadCredentials = errors.New("phone number or password is incorrect")

	// ErrPermissionDenied deactivated account or foreign session
	ErrPermissionDenied = errors.New("permission denied")

	// ErrExpired token or refresh token is past its expiry
	ErrExpired = errors.New("token expired")

	// ErrInvalidSignature token could not be verified
	ErrInvalidSignature = errors.New("invalid token")

	// ErrConflict duplicate phone number on registration
	ErrConflict = errors.New("already exists")

	// ErrRevoked session was logged out; errors.Is(ErrRevoked, ErrPermissionDenied) holds
	ErrRevoked = fmt.Errorf("%w: session revoked", ErrPermissionDenied)
)
