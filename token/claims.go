// Package token decodes access tokens issued by the identity provider into
// the identity claims the client cares about. Signature verification is the
// backend's job; the client only reads the payload.
package token

import (
	jwtlib "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/fundfolio/go-portfolio-client/internal/errors"
	"github.com/fundfolio/go-portfolio-client/internal/utils"
)

// Claims holds the identity information extracted from an access token.
type Claims struct {
	Subject       string   // "sub" - stable user identifier
	RealmRoles    []string // realm_access.roles
	ResourceRoles []string // resource_access.account.roles
}

// Decode parses the payload segment of a three-part access token and extracts
// the subject and role claims. The signature is not verified - the token was
// received from the trusted identity provider over TLS.
func Decode(accessToken string) (*Claims, error) {
	unverified, _, err := jwtlib.NewParser().ParseUnverified(accessToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrDecode, "[Decode] parse (%v)", err)
	}

	mapClaims, ok := unverified.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrDecode, "[Decode] claims extraction")
	}

	sub, _ := mapClaims["sub"].(string)
	if sub == "" {
		return nil, apperrors.Wrapf(apperrors.ErrDecode, "[Decode] missing sub claim")
	}

	realmRoles, err := rolesAt(mapClaims, "realm_access")
	if err != nil {
		return nil, err
	}

	resourceAccess, ok := mapClaims["resource_access"].(map[string]any)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrDecode, "[Decode] missing resource_access claim")
	}
	resourceRoles, err := rolesAt(resourceAccess, "account")
	if err != nil {
		return nil, err
	}

	return &Claims{
		Subject:       sub,
		RealmRoles:    realmRoles,
		ResourceRoles: resourceRoles,
	}, nil
}

// rolesAt pulls the "roles" array out of a nested claim object such as
// realm_access or resource_access.account.
func rolesAt(container map[string]any, key string) ([]string, error) {
	access, ok := container[key].(map[string]any)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrDecode, "[Decode] missing %s claim", key)
	}
	rawRoles, ok := access["roles"].([]any)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrDecode, "[Decode] missing %s roles", key)
	}
	return utils.ToStringSlice(rawRoles), nil
}
