// Package api provides chi HTTP handlers for the content engine. Handlers
// are thin: they parse, call the service, and render; all lifecycle rules
// live in the service.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/jwtauth"
	"github.com/zala-app/content-engine/pkg/zalacontent"
)

// ErrNoIdentity indicates the request carried no verified token claims.
var ErrNoIdentity = errors.New("no verified identity in request context")

// NewTokenAuth creates the JWT verifier used by the router. Tokens are
// HS256-signed with the given secret.
func NewTokenAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

// Verifier returns middleware that parses and verifies a bearer token and
// stores the result in the request context. Requests without a token pass
// through; handlers that need an identity reject them via IdentityProvider.
func Verifier(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return jwtauth.Verifier(ja)
}

// Authenticator is middleware that rejects requests whose token failed
// verification.
var Authenticator = jwtauth.Authenticator

// JWTIdentityProvider resolves the caller identity from verified jwtauth
// claims on the request context.
type JWTIdentityProvider struct{}

// NewJWTIdentityProvider creates an identity provider backed by jwtauth.
func NewJWTIdentityProvider() *JWTIdentityProvider {
	return &JWTIdentityProvider{}
}

// Identity returns the caller described by the token claims. The caller id
// is taken from the "callerId" claim, falling back to the standard "sub".
func (p *JWTIdentityProvider) Identity(ctx context.Context) (zalacontent.Identity, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return zalacontent.Identity{}, ErrNoIdentity
	}

	ident := zalacontent.Identity{
		CallerID:    claimString(claims, "callerId", "sub"),
		DisplayName: claimString(claims, "displayName", "name"),
		Email:       claimString(claims, "email"),
	}
	if ident.CallerID == "" {
		return zalacontent.Identity{}, ErrNoIdentity
	}
	return ident, nil
}

func claimString(claims map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := claims[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
