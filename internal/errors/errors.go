package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the portfolio client core
var (
	// ErrDecode - the access-token payload could not be decoded or is
	// missing required claims. Fatal to the current login attempt.
	ErrDecode = errors.New("malformed access token")

	// ErrStorage - secure-storage I/O failure. Callers log it and continue
	// as if no token was stored; never surfaced as a user-facing failure.
	ErrStorage = errors.New("secure storage failure")

	// ErrAuthentication - token exchange, refresh or revocation failure.
	// Surfaced as "session expired": the held session is cleared and the
	// user must log in again.
	ErrAuthentication = errors.New("authentication failed")

	// ErrConfiguration - identity-provider endpoints not yet resolved.
	// Indicates a setup bug, not a transient condition.
	ErrConfiguration = errors.New("service configuration not resolved")

	// ErrRequestFailed - generic backend REST failure, surfaced per call
	// site; the core never retries.
	ErrRequestFailed = errors.New("request failed")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
