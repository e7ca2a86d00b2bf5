// Package apperr defines the error kinds shared across stores, repositories
// and the HTTP layer. Kinds are matched with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalid          = errors.New("invalid input")
	ErrTransport        = errors.New("store unavailable")
	ErrForbidden        = errors.New("forbidden")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNoProfile        = errors.New("profile not set")
)

// Transport wraps a backend failure so callers can match ErrTransport while
// the original cause stays reachable through errors.Is / errors.As.
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}

// Invalid wraps a validation failure.
func Invalid(msg string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrInvalid, msg)
	}
	return fmt.Errorf("%w: %s: %v", ErrInvalid, msg, err)
}

// Kind returns a short label for metrics and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalid):
		return "invalid"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrNoProfile):
		return "no_profile"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "internal"
	}
}
