package auth

import "sync"

// Holder is the single-writer cell for the active Authentication. It is read
// by many components but written only by the session manager's callers and
// the keeper, always as a whole-value replace.
type Holder struct {
	mu   sync.RWMutex
	auth *Authentication
}

func NewHolder() *Holder {
	return &Holder{}
}

// Get returns the current Authentication, or nil when logged out.
func (h *Holder) Get() *Authentication {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.auth
}

// Replace installs a new Authentication, discarding the previous one.
func (h *Holder) Replace(authentication *Authentication) {
	h.mu.Lock()
	h.auth = authentication
	h.mu.Unlock()
}

// Clear drops the held Authentication.
func (h *Holder) Clear() {
	h.Replace(nil)
}

// AccessToken returns the current bearer token, or empty when logged out.
// Shaped as a token provider for the live data source.
func (h *Holder) AccessToken() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.auth == nil {
		return ""
	}
	return h.auth.AccessToken
}
