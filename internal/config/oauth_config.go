package config

import "time"

type OAuthConfig interface {
	GetIssuerURL() string
	GetClientID() string
	GetRedirectURI() string
	GetScopes() []string
	GetDemoLoginURL() string
	GetStandardIdpHint() string
	GetStrongIdpHint() string
	GetAnonymousClientID() string
	GetAnonymousUsername() string
	GetAnonymousPassword() string
	GetRefreshSlack() time.Duration
	GetRefreshInterval() time.Duration
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

// GetIssuerURL returns the identity provider's issuer URL, the base for
// OIDC endpoint discovery.
func (OAuth) GetIssuerURL() string {
	return GetEnv("ISSUER_URL", "http://localhost:8080/auth/realms/portfolio")
}

func (OAuth) GetClientID() string {
	return GetEnv("CLIENT_ID", "portfolio-app")
}

// GetRedirectURI returns the app-specific deep link the identity provider
// redirects to after authorization.
func (OAuth) GetRedirectURI() string {
	return GetEnv("REDIRECT_URI", "portfolioapp://oauth/callback")
}

func (OAuth) GetScopes() []string {
	return []string{"openid", "profile", "offline_access"}
}

// GetDemoLoginURL returns the separately configured fixed URL used for demo
// logins instead of the authorization endpoint.
func (OAuth) GetDemoLoginURL() string {
	return GetEnv("DEMO_LOGIN_URL", "http://localhost:8080/auth/realms/portfolio-demo/demo-login")
}

func (OAuth) GetStandardIdpHint() string {
	return GetEnv("IDP_HINT_STANDARD", "standard-login")
}

func (OAuth) GetStrongIdpHint() string {
	return GetEnv("IDP_HINT_STRONG", "strong-login")
}

func (OAuth) GetAnonymousClientID() string {
	return GetEnv("ANON_CLIENT_ID", "portfolio-anonymous")
}

func (OAuth) GetAnonymousUsername() string {
	return GetEnv("ANON_USERNAME", "anonymous")
}

func (OAuth) GetAnonymousPassword() string {
	return GetEnv("ANON_PASSWORD", "")
}

// GetRefreshSlack is the early-refresh margin before access-token expiry.
// Refreshing this far ahead avoids issuing a request with a token that
// expires mid-flight.
func (OAuth) GetRefreshSlack() time.Duration {
	return 60 * time.Second
}

// GetRefreshInterval is the session keeper's tick period.
func (OAuth) GetRefreshInterval() time.Duration {
	return 20 * time.Second
}
