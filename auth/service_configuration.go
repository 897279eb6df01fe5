package auth

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"

	apperrors "github.com/fundfolio/go-portfolio-client/internal/errors"
)

// ServiceConfiguration is the set of identity-provider endpoint URLs the
// session manager needs. It is resolved once via OIDC discovery; operations
// invoked before resolution fail fast with ErrConfiguration.
type ServiceConfiguration struct {
	AuthorizationEndpoint string
	TokenEndpoint         string
	RevocationEndpoint    string
}

// ResolveConfiguration discovers the identity provider's endpoints from its
// issuer URL.
func (s *SessionService) ResolveConfiguration(ctx context.Context) error {
	provider, err := oidc.NewProvider(ctx, s.config.GetIssuerURL())
	if err != nil {
		return apperrors.Wrapf(ErrConfiguration, "[ResolveConfiguration] discovery (%v)", err)
	}

	var extra struct {
		RevocationEndpoint string `json:"revocation_endpoint"`
	}
	if err := provider.Claims(&extra); err != nil {
		return apperrors.Wrapf(ErrConfiguration, "[ResolveConfiguration] provider claims (%v)", err)
	}

	endpoint := provider.Endpoint()
	s.mu.Lock()
	s.serviceCfg = &ServiceConfiguration{
		AuthorizationEndpoint: endpoint.AuthURL,
		TokenEndpoint:         endpoint.TokenURL,
		RevocationEndpoint:    extra.RevocationEndpoint,
	}
	s.mu.Unlock()
	return nil
}

// serviceConfiguration returns the resolved endpoints or fails fast.
func (s *SessionService) serviceConfiguration() (*ServiceConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.serviceCfg == nil {
		return nil, apperrors.Wrapf(ErrConfiguration, "[serviceConfiguration] endpoints not resolved")
	}
	return s.serviceCfg, nil
}
