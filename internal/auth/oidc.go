// Package auth provides the bearer token verifiers accepted by the API.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/titto/titto-backend/pkg/middleware"
)

// OIDCVerifier validates ID tokens issued by an OpenID Connect provider (Keycloak).
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the provider at issuer.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// KeycloakIssuer joins a Keycloak base URL and realm. An empty realm means
// baseURL already is the issuer.
func KeycloakIssuer(baseURL, realm string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	if realm == "" {
		return baseURL
	}
	return baseURL + "/realms/" + realm
}

func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}
