// Package auth manages the OAuth2 session lifecycle against the identity
// provider: authorization-code login, refresh, anonymous login, logout and
// the offline-token round trip through secure storage.
package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/fundfolio/go-portfolio-client/internal/config"
	apperrors "github.com/fundfolio/go-portfolio-client/internal/errors"
	"github.com/fundfolio/go-portfolio-client/token"
	"github.com/fundfolio/go-portfolio-client/tokenstore"
)

// SessionService orchestrates the session lifecycle:
// LoggedOut -> Authenticating -> Authenticated -> (Refreshing -> Authenticated | LoggedOut).
type SessionService struct {
	config     config.OAuthConfig
	store      tokenstore.Store
	httpClient *http.Client
	log        zerolog.Logger
	nowTime    func() time.Time

	mu         sync.Mutex
	serviceCfg *ServiceConfiguration
	state      State
}

// SessionServiceOption modifies the SessionService instance.
type SessionServiceOption func(*SessionService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SessionServiceOption {
	return func(s *SessionService) {
		s.nowTime = nowFunc
	}
}

// WithHTTPClient sets the HTTP client used for token and revocation calls.
func WithHTTPClient(client *http.Client) SessionServiceOption {
	return func(s *SessionService) {
		s.httpClient = client
	}
}

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) SessionServiceOption {
	return func(s *SessionService) {
		s.log = log
	}
}

// WithServiceConfiguration sets static identity-provider endpoints, skipping
// discovery. Used when the endpoints are preconfigured, and in tests.
func WithServiceConfiguration(sc *ServiceConfiguration) SessionServiceOption {
	return func(s *SessionService) {
		s.serviceCfg = sc
	}
}

// NewSessionService initializes a new SessionService with required
// dependencies. Optional configuration can be provided via options.
func NewSessionService(cfg config.OAuthConfig, store tokenstore.Store, options ...SessionServiceOption) (*SessionService, error) {
	if cfg == nil {
		return nil, apperrors.Wrapf(ErrConfiguration, "[NewSessionService] config is required")
	}
	if store == nil {
		return nil, apperrors.Wrapf(ErrConfiguration, "[NewSessionService] token store is required")
	}

	service := &SessionService{
		config:     cfg,
		store:      store,
		httpClient: http.DefaultClient,
		log:        zerolog.Nop(),
		nowTime:    time.Now,
		state:      LoggedOut,
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// State returns the current point in the session lifecycle.
func (s *SessionService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SessionService) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// AuthorizationURL builds the identity provider's authorization endpoint URL
// for the browser redirect. strongAuth selects the strong-authentication
// identity-provider hint. A demo login bypasses the authorization endpoint
// entirely and uses the separately configured demo URL.
func (s *SessionService) AuthorizationURL(strongAuth, demoLogin bool) (string, error) {
	if demoLogin {
		return s.config.GetDemoLoginURL(), nil
	}

	sc, err := s.serviceConfiguration()
	if err != nil {
		return "", err
	}

	endpoint, err := url.Parse(sc.AuthorizationEndpoint)
	if err != nil {
		return "", apperrors.Wrapf(ErrConfiguration, "[AuthorizationURL] authorization endpoint (%v)", err)
	}

	idpHint := s.config.GetStandardIdpHint()
	if strongAuth {
		idpHint = s.config.GetStrongIdpHint()
	}

	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", s.config.GetClientID())
	query.Set("scope", strings.Join(s.config.GetScopes(), " "))
	query.Set("redirect_uri", s.config.GetRedirectURI())
	query.Set("kc_idp_hint", idpHint)
	query.Set("state", uuid.New().String())
	endpoint.RawQuery = query.Encode()

	return endpoint.String(), nil
}

// Exchange completes the authorization-code flow: the code is exchanged for
// tokens, the access token is decoded, and the refresh token is persisted to
// secure storage before the Authentication is returned.
func (s *SessionService) Exchange(ctx context.Context, code string) (*Authentication, error) {
	sc, err := s.serviceConfiguration()
	if err != nil {
		return nil, err
	}

	s.setState(Authenticating)

	oauthToken, err := s.oauth2Config(sc).Exchange(s.httpContext(ctx), code)
	if err != nil {
		s.setState(LoggedOut)
		return nil, apperrors.Wrapf(ErrAuthentication, "[Exchange] code exchange (%v)", err)
	}

	authentication, err := s.buildAuthentication(oauthToken, "", true)
	if err != nil {
		s.setState(LoggedOut)
		return nil, apperrors.Wrapf(err, "[Exchange]")
	}

	s.setState(Authenticated)
	return authentication, nil
}

// Refresh exchanges a refresh token for a new Authentication. On failure the
// session is no longer valid; callers must force a re-login rather than
// retry.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*Authentication, error) {
	sc, err := s.serviceConfiguration()
	if err != nil {
		return nil, err
	}

	s.setState(Refreshing)

	source := s.oauth2Config(sc).TokenSource(s.httpContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	oauthToken, err := source.Token()
	if err != nil {
		s.setState(LoggedOut)
		return nil, apperrors.Wrapf(ErrAuthentication, "[Refresh] refresh grant (%v)", err)
	}

	// Identity providers that do not rotate refresh tokens omit the field.
	authentication, err := s.buildAuthentication(oauthToken, refreshToken, true)
	if err != nil {
		s.setState(LoggedOut)
		return nil, apperrors.Wrapf(err, "[Refresh]")
	}

	s.setState(Authenticated)
	return authentication, nil
}

// NeedsRefresh reports whether the access token is within the early-refresh
// slack window before expiry.
func (s *SessionService) NeedsRefresh(authentication *Authentication) bool {
	if authentication == nil {
		return false
	}
	return !s.nowTime().Before(authentication.ExpiresAt.Add(-s.config.GetRefreshSlack()))
}

// AnonymousLogin obtains a service-level credential for endpoints that do not
// require a logged-in user, via the password grant on the anonymous client.
// The result is independent from the user session and never persisted.
func (s *SessionService) AnonymousLogin(ctx context.Context) (*Authentication, error) {
	sc, err := s.serviceConfiguration()
	if err != nil {
		return nil, err
	}

	cfg := oauth2.Config{
		ClientID: s.config.GetAnonymousClientID(),
		Endpoint: oauth2.Endpoint{TokenURL: sc.TokenEndpoint},
		Scopes:   s.config.GetScopes(),
	}
	oauthToken, err := cfg.PasswordCredentialsToken(s.httpContext(ctx), s.config.GetAnonymousUsername(), s.config.GetAnonymousPassword())
	if err != nil {
		return nil, apperrors.Wrapf(ErrAuthentication, "[AnonymousLogin] password grant (%v)", err)
	}

	return s.buildAuthentication(oauthToken, "", false)
}

// Logout revokes the token at the identity provider and clears the stored
// offline token. Revocation failures are logged but never block local
// logout; local state is always cleared.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	if sc, err := s.serviceConfiguration(); err == nil && sc.RevocationEndpoint != "" {
		if err := s.revoke(ctx, sc, refreshToken); err != nil {
			s.log.Warn().Err(err).Msg("token revocation failed, clearing local session anyway")
		}
	}

	if err := s.store.Remove(); err != nil {
		s.log.Warn().Err(err).Msg("failed to remove stored offline token")
	}

	s.setState(LoggedOut)
	return nil
}

// Restore attempts a silent re-login from the persisted offline token at
// process start. Every failure path degrades to "proceed without
// auto-login": a nil Authentication with nil error.
func (s *SessionService) Restore(ctx context.Context) (*Authentication, error) {
	stored, ok, err := s.store.Retrieve()
	if err != nil {
		s.log.Warn().Err(err).Msg("offline token retrieval failed, proceeding without auto-login")
		return nil, nil
	}
	if !ok {
		return nil, nil
	}

	authentication, err := s.Refresh(ctx, stored)
	if err != nil {
		s.log.Info().Err(err).Msg("silent re-login failed, discarding stored token")
		if removeErr := s.store.Remove(); removeErr != nil {
			s.log.Warn().Err(removeErr).Msg("failed to remove stale offline token")
		}
		return nil, nil
	}
	return authentication, nil
}

func (s *SessionService) revoke(ctx context.Context, sc *ServiceConfiguration, refreshToken string) error {
	form := url.Values{}
	form.Set("token", refreshToken)
	form.Set("token_type_hint", "refresh_token")
	form.Set("client_id", s.config.GetClientID())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sc.RevocationEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return apperrors.Wrapf(ErrAuthentication, "[revoke] request (%v)", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrapf(ErrAuthentication, "[revoke] call (%v)", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return apperrors.Wrapf(ErrAuthentication, "[revoke] status %d", resp.StatusCode)
	}
	return nil
}

// buildAuthentication decodes the access token, derives the expiry and, for
// user sessions, persists the refresh token before the Authentication is
// handed out. previousRefreshToken covers providers that do not rotate.
func (s *SessionService) buildAuthentication(oauthToken *oauth2.Token, previousRefreshToken string, persist bool) (*Authentication, error) {
	refreshToken := oauthToken.RefreshToken
	if refreshToken == "" {
		refreshToken = previousRefreshToken
	}

	if oauthToken.AccessToken == "" || (persist && refreshToken == "") {
		return nil, apperrors.Wrapf(ErrAuthentication, "[buildAuthentication] token endpoint returned no usable tokens")
	}

	claims, err := token.Decode(oauthToken.AccessToken)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[buildAuthentication] access token decode")
	}

	if persist {
		// The write happens before the Authentication becomes active so a
		// restart can still resume the session silently.
		if err := s.store.Save(refreshToken); err != nil {
			s.log.Warn().Err(err).Msg("failed to persist offline token")
		}
	}

	return &Authentication{
		AccessToken:   oauthToken.AccessToken,
		RefreshToken:  refreshToken,
		UserID:        claims.Subject,
		RealmRoles:    claims.RealmRoles,
		ResourceRoles: claims.ResourceRoles,
		ExpiresAt:     oauthToken.Expiry,
	}, nil
}

func (s *SessionService) oauth2Config(sc *ServiceConfiguration) *oauth2.Config {
	return &oauth2.Config{
		ClientID:    s.config.GetClientID(),
		RedirectURL: s.config.GetRedirectURI(),
		Scopes:      s.config.GetScopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL:  sc.AuthorizationEndpoint,
			TokenURL: sc.TokenEndpoint,
		},
	}
}

// httpContext routes the oauth2 library's calls through the configured HTTP
// client.
func (s *SessionService) httpContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}
