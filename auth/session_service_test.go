package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/fundfolio/go-portfolio-client/auth"
	"github.com/fundfolio/go-portfolio-client/internal/config"
	apperrors "github.com/fundfolio/go-portfolio-client/internal/errors"
	"github.com/fundfolio/go-portfolio-client/tokenstore/storefake"
)

// fakeIdP is an httptest-backed identity provider exposing token and
// revocation endpoints.
type fakeIdP struct {
	srv *httptest.Server

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiresIn    int
	failTokens   bool
	revokeStatus int
	tokenForms   []url.Values
	revokeForms  []url.Values
}

type tokenEndpointResponse struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()

	idp := &fakeIdP{
		accessToken:  mintAccessToken(t, "u1", []string{"customer"}),
		refreshToken: "r1",
		expiresIn:    3600,
		revokeStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		idp.mu.Lock()
		defer idp.mu.Unlock()
		idp.tokenForms = append(idp.tokenForms, r.PostForm)

		w.Header().Set("Content-Type", "application/json")
		if idp.failTokens {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		_ = json.NewEncoder(w).Encode(tokenEndpointResponse{
			AccessToken:  idp.accessToken,
			RefreshToken: idp.refreshToken,
			TokenType:    "bearer",
			ExpiresIn:    idp.expiresIn,
		})
	})
	mux.HandleFunc("/revoke", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		idp.mu.Lock()
		defer idp.mu.Unlock()
		idp.revokeForms = append(idp.revokeForms, r.PostForm)
		w.WriteHeader(idp.revokeStatus)
	})

	idp.srv = httptest.NewServer(mux)
	t.Cleanup(idp.srv.Close)
	return idp
}

func (idp *fakeIdP) serviceConfiguration() *auth.ServiceConfiguration {
	return &auth.ServiceConfiguration{
		AuthorizationEndpoint: idp.srv.URL + "/auth",
		TokenEndpoint:         idp.srv.URL + "/token",
		RevocationEndpoint:    idp.srv.URL + "/revoke",
	}
}

func (idp *fakeIdP) lastTokenForm(t *testing.T) url.Values {
	t.Helper()
	idp.mu.Lock()
	defer idp.mu.Unlock()
	require.NotEmpty(t, idp.tokenForms)
	return idp.tokenForms[len(idp.tokenForms)-1]
}

func mintAccessToken(t *testing.T, subject string, realmRoles []string) string {
	t.Helper()
	roles := make([]any, 0, len(realmRoles))
	for _, r := range realmRoles {
		roles = append(roles, r)
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": subject,
		"realm_access": map[string]any{
			"roles": roles,
		},
		"resource_access": map[string]any{
			"account": map[string]any{
				"roles": []any{"view-profile"},
			},
		},
	}).SignedString([]byte("idp-signing-key"))
	require.NoError(t, err)
	return signed
}

func newTestService(t *testing.T, idp *fakeIdP, store *storefake.FakeStore, options ...auth.SessionServiceOption) *auth.SessionService {
	t.Helper()
	options = append([]auth.SessionServiceOption{auth.WithServiceConfiguration(idp.serviceConfiguration())}, options...)
	service, err := auth.NewSessionService(config.OAuth{}, store, options...)
	require.NoError(t, err)
	return service
}

func TestAuthorizationURL(t *testing.T) {
	idp := newFakeIdP(t)
	service := newTestService(t, idp, storefake.NewFakeStore())

	rawURL, err := service.AuthorizationURL(false, false)
	require.NoError(t, err)

	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	require.Equal(t, "/auth", parsed.Path)

	query := parsed.Query()
	require.Equal(t, "code", query.Get("response_type"))
	require.Equal(t, "portfolio-app", query.Get("client_id"))
	require.Equal(t, "openid profile offline_access", query.Get("scope"))
	require.Equal(t, "portfolioapp://oauth/callback", query.Get("redirect_uri"))
	require.Equal(t, "standard-login", query.Get("kc_idp_hint"))
	require.NotEmpty(t, query.Get("state"))
}

func TestAuthorizationURLStrongAuth(t *testing.T) {
	idp := newFakeIdP(t)
	service := newTestService(t, idp, storefake.NewFakeStore())

	rawURL, err := service.AuthorizationURL(true, false)
	require.NoError(t, err)

	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	require.Equal(t, "strong-login", parsed.Query().Get("kc_idp_hint"))
}

func TestAuthorizationURLDemoLogin(t *testing.T) {
	idp := newFakeIdP(t)
	service := newTestService(t, idp, storefake.NewFakeStore())

	rawURL, err := service.AuthorizationURL(false, true)
	require.NoError(t, err)
	require.Equal(t, config.OAuth{}.GetDemoLoginURL(), rawURL)
}

func TestOperationsFailFastWithoutConfiguration(t *testing.T) {
	service, err := auth.NewSessionService(config.OAuth{}, storefake.NewFakeStore())
	require.NoError(t, err)

	_, err = service.AuthorizationURL(false, false)
	require.ErrorIs(t, err, apperrors.ErrConfiguration)

	_, err = service.Exchange(context.Background(), "code123")
	require.ErrorIs(t, err, apperrors.ErrConfiguration)

	_, err = service.Refresh(context.Background(), "r1")
	require.ErrorIs(t, err, apperrors.ErrConfiguration)

	_, err = service.AnonymousLogin(context.Background())
	require.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestExchange(t *testing.T) {
	idp := newFakeIdP(t)
	store := storefake.NewFakeStore()
	service := newTestService(t, idp, store)

	authentication, err := service.Exchange(context.Background(), "code123")
	require.NoError(t, err)

	require.Equal(t, "u1", authentication.UserID)
	require.Equal(t, "r1", authentication.RefreshToken)
	require.Equal(t, []string{"customer"}, authentication.RealmRoles)
	require.Equal(t, []string{"view-profile"}, authentication.ResourceRoles)
	require.WithinDuration(t, time.Now().Add(3600*time.Second), authentication.ExpiresAt, 10*time.Second)
	require.Equal(t, auth.Authenticated, service.State())

	form := idp.lastTokenForm(t)
	require.Equal(t, "authorization_code", form.Get("grant_type"))
	require.Equal(t, "code123", form.Get("code"))

	stored, ok, err := store.Retrieve()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "r1", stored)
}

func TestExchangeWithoutRefreshTokenFails(t *testing.T) {
	idp := newFakeIdP(t)
	idp.refreshToken = ""
	service := newTestService(t, idp, storefake.NewFakeStore())

	_, err := service.Exchange(context.Background(), "code123")
	require.ErrorIs(t, err, apperrors.ErrAuthentication)
	require.Equal(t, auth.LoggedOut, service.State())
}

func TestExchangeErrorResponse(t *testing.T) {
	idp := newFakeIdP(t)
	idp.failTokens = true
	service := newTestService(t, idp, storefake.NewFakeStore())

	_, err := service.Exchange(context.Background(), "code123")
	require.ErrorIs(t, err, apperrors.ErrAuthentication)
	require.Equal(t, auth.LoggedOut, service.State())
}

func TestExchangeUndecodableAccessToken(t *testing.T) {
	idp := newFakeIdP(t)
	idp.accessToken = "not-a-jwt"
	service := newTestService(t, idp, storefake.NewFakeStore())

	_, err := service.Exchange(context.Background(), "code123")
	require.ErrorIs(t, err, apperrors.ErrDecode)
	require.Equal(t, auth.LoggedOut, service.State())
}

func TestRefresh(t *testing.T) {
	idp := newFakeIdP(t)
	idp.refreshToken = "r2"
	store := storefake.NewFakeStore()
	service := newTestService(t, idp, store)

	authentication, err := service.Refresh(context.Background(), "r1")
	require.NoError(t, err)
	require.Equal(t, "r2", authentication.RefreshToken)
	require.Equal(t, auth.Authenticated, service.State())

	form := idp.lastTokenForm(t)
	require.Equal(t, "refresh_token", form.Get("grant_type"))
	require.Equal(t, "r1", form.Get("refresh_token"))

	stored, ok, err := store.Retrieve()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "r2", stored)
}

func TestRefreshKeepsUnrotatedToken(t *testing.T) {
	idp := newFakeIdP(t)
	idp.refreshToken = "" // provider does not rotate refresh tokens
	store := storefake.NewFakeStore()
	service := newTestService(t, idp, store)

	authentication, err := service.Refresh(context.Background(), "r1")
	require.NoError(t, err)
	require.Equal(t, "r1", authentication.RefreshToken)

	stored, ok, err := store.Retrieve()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "r1", stored)
}

func TestRefreshFailure(t *testing.T) {
	idp := newFakeIdP(t)
	idp.failTokens = true
	service := newTestService(t, idp, storefake.NewFakeStore())

	_, err := service.Refresh(context.Background(), "r1")
	require.ErrorIs(t, err, apperrors.ErrAuthentication)
	require.Equal(t, auth.LoggedOut, service.State())
}

func TestNeedsRefresh(t *testing.T) {
	idp := newFakeIdP(t)
	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	current := base
	service := newTestService(t, idp, storefake.NewFakeStore(),
		auth.WithNowTime(func() time.Time { return current }))

	authentication := &auth.Authentication{ExpiresAt: base.Add(3600 * time.Second)}

	require.False(t, service.NeedsRefresh(authentication), "fresh token should not need refresh")

	current = base.Add(3539 * time.Second)
	require.False(t, service.NeedsRefresh(authentication), "outside the slack window")

	current = base.Add(3540 * time.Second)
	require.True(t, service.NeedsRefresh(authentication), "inside the 60s slack window")

	current = base.Add(4000 * time.Second)
	require.True(t, service.NeedsRefresh(authentication), "already expired")

	require.False(t, service.NeedsRefresh(nil))
}

func TestAnonymousLogin(t *testing.T) {
	idp := newFakeIdP(t)
	idp.accessToken = mintAccessToken(t, "svc-anonymous", nil)
	store := storefake.NewFakeStore()
	service := newTestService(t, idp, store)

	authentication, err := service.AnonymousLogin(context.Background())
	require.NoError(t, err)
	require.Equal(t, "svc-anonymous", authentication.UserID)

	form := idp.lastTokenForm(t)
	require.Equal(t, "password", form.Get("grant_type"))
	require.Equal(t, "anonymous", form.Get("username"))

	// The anonymous credential is service-level and never persisted.
	_, ok, err := store.Retrieve()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLogout(t *testing.T) {
	idp := newFakeIdP(t)
	store := storefake.NewFakeStore()
	service := newTestService(t, idp, store)

	require.NoError(t, store.Save("r1"))
	require.NoError(t, service.Logout(context.Background(), "r1"))

	idp.mu.Lock()
	require.Len(t, idp.revokeForms, 1)
	require.Equal(t, "r1", idp.revokeForms[0].Get("token"))
	require.Equal(t, "refresh_token", idp.revokeForms[0].Get("token_type_hint"))
	idp.mu.Unlock()

	_, ok, err := store.Retrieve()
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, auth.LoggedOut, service.State())
}

func TestLogoutClearsLocalStateWhenRevocationFails(t *testing.T) {
	idp := newFakeIdP(t)
	idp.revokeStatus = http.StatusInternalServerError
	store := storefake.NewFakeStore()
	service := newTestService(t, idp, store)

	require.NoError(t, store.Save("r1"))
	require.NoError(t, service.Logout(context.Background(), "r1"))

	_, ok, err := store.Retrieve()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRestore(t *testing.T) {
	idp := newFakeIdP(t)
	store := storefake.NewFakeStore()
	service := newTestService(t, idp, store)

	require.NoError(t, store.Save("r1"))

	authentication, err := service.Restore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, authentication)
	require.Equal(t, "u1", authentication.UserID)
}

func TestRestoreWithoutStoredToken(t *testing.T) {
	idp := newFakeIdP(t)
	service := newTestService(t, idp, storefake.NewFakeStore())

	authentication, err := service.Restore(context.Background())
	require.NoError(t, err)
	require.Nil(t, authentication)
}

func TestRestoreDiscardsStaleToken(t *testing.T) {
	idp := newFakeIdP(t)
	idp.failTokens = true
	store := storefake.NewFakeStore()
	service := newTestService(t, idp, store)

	require.NoError(t, store.Save("stale"))

	authentication, err := service.Restore(context.Background())
	require.NoError(t, err)
	require.Nil(t, authentication)

	_, ok, err := store.Retrieve()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRestoreToleratesStorageFailure(t *testing.T) {
	idp := newFakeIdP(t)
	store := storefake.NewFakeStore()
	store.Err = apperrors.ErrStorage
	service := newTestService(t, idp, store)

	authentication, err := service.Restore(context.Background())
	require.NoError(t, err)
	require.Nil(t, authentication)
}

type discoveryConfig struct {
	config.OAuth
	issuerURL string
}

func (c discoveryConfig) GetIssuerURL() string {
	return c.issuerURL
}

func TestResolveConfiguration(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/protocol/openid-connect/auth",
			"token_endpoint":         srv.URL + "/protocol/openid-connect/token",
			"revocation_endpoint":    srv.URL + "/protocol/openid-connect/revoke",
			"jwks_uri":               srv.URL + "/protocol/openid-connect/certs",
		})
	})

	service, err := auth.NewSessionService(discoveryConfig{issuerURL: srv.URL}, storefake.NewFakeStore())
	require.NoError(t, err)

	_, err = service.AuthorizationURL(false, false)
	require.ErrorIs(t, err, apperrors.ErrConfiguration)

	require.NoError(t, service.ResolveConfiguration(context.Background()))

	rawURL, err := service.AuthorizationURL(false, false)
	require.NoError(t, err)

	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	require.Equal(t, "/protocol/openid-connect/auth", parsed.Path)
}

func TestResolveConfigurationUnreachableIssuer(t *testing.T) {
	service, err := auth.NewSessionService(discoveryConfig{issuerURL: "http://127.0.0.1:1/nowhere"}, storefake.NewFakeStore())
	require.NoError(t, err)

	err = service.ResolveConfiguration(context.Background())
	require.ErrorIs(t, err, apperrors.ErrConfiguration)
}
