// Package tokenstore persists the offline refresh token outside process
// memory so a session can be resumed silently after restart. Losing the
// stored token only degrades to "user must log in again".
package tokenstore

// Store holds at most one offline token under a fixed key.
type Store interface {
	Save(token string) error

	// Retrieve returns the stored token. ok is false when no token has ever
	// been stored; absence is not an error.
	Retrieve() (token string, ok bool, err error)

	Remove() error
}
