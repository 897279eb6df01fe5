package auth

import apperrors "github.com/fundfolio/go-portfolio-client/internal/errors"

// Sentinels re-exported from the shared taxonomy so callers can match on
// the auth package alone.
var (
	// ErrAuthentication - token exchange, refresh or revocation failed.
	// Callers must treat this as "session is no longer valid", not retry.
	ErrAuthentication = apperrors.ErrAuthentication

	// ErrConfiguration - identity-provider endpoints not resolved yet.
	ErrConfiguration = apperrors.ErrConfiguration
)
