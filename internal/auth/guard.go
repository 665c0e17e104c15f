// Package auth resolves caller credentials against a static API key allow-list.
//
// Keys are compared as plain strings. There is no hashing, expiry or rate
// limiting; the guard identifies callers, it is not a security boundary.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Header names inspected by the guard
const (
	HeaderAPIKey        = "X-API-Key"
	HeaderAuthorization = "Authorization"
)

// ErrUnauthorized is the root of every credential failure
var ErrUnauthorized = errors.New("unauthorized")

var (
	// ErrAuthenticationRequired means no credential header was supplied
	ErrAuthenticationRequired = fmt.Errorf("%w: authentication required", ErrUnauthorized)
	// ErrMalformedAuthorization means Authorization was not of the form "Bearer <token>"
	ErrMalformedAuthorization = fmt.Errorf("%w: malformed authorization header", ErrUnauthorized)
	// ErrInvalidKey means the supplied key is not in the allow-list
	ErrInvalidKey = fmt.Errorf("%w: invalid key", ErrUnauthorized)
)

// Guard validates API keys against an allow-list of key -> identity
type Guard struct {
	keys map[string]string
}

// NewGuard creates a Guard over a copy of the given allow-list
func NewGuard(keys map[string]string) *Guard {
	g := &Guard{keys: make(map[string]string, len(keys))}
	for k, v := range keys {
		g.keys[k] = v
	}
	return g
}

// Authenticate extracts a key from the request headers and returns the
// identity it maps to. X-API-Key wins over Authorization when both are set.
// A present but malformed Authorization header fails rather than falling
// through to "authentication required".
func (g *Guard) Authenticate(h http.Header) (string, error) {
	key, err := extractKey(h)
	if err != nil {
		return "", err
	}

	identity, ok := g.keys[key]
	if !ok {
		return "", ErrInvalidKey
	}
	return identity, nil
}

func extractKey(h http.Header) (string, error) {
	// A present X-API-Key is authoritative, even when empty
	if vals, ok := h[http.CanonicalHeaderKey(HeaderAPIKey)]; ok && len(vals) > 0 {
		return vals[0], nil
	}

	authz := h.Get(HeaderAuthorization)
	if authz == "" {
		return "", ErrAuthenticationRequired
	}

	parts := strings.Split(authz, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrMalformedAuthorization
	}
	return parts[1], nil
}

// Reason returns a short label for a credential failure, used for metrics
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrAuthenticationRequired):
		return "missing"
	case errors.Is(err, ErrMalformedAuthorization):
		return "malformed"
	case errors.Is(err, ErrInvalidKey):
		return "invalid_key"
	default:
		return "unknown"
	}
}

type contextKey struct{}

// ContextWithIdentity stores the authenticated identity in ctx
func ContextWithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// IdentityFromContext returns the authenticated identity, if any
func IdentityFromContext(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(contextKey{}).(string)
	return identity, ok
}
