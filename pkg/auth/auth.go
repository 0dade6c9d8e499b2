// Package auth resolves session tokens to usernames.
package auth

import (
	"context"
	"net/http"
	"strings"
)

// Resolver maps an opaque session token to the username it belongs to.
//
// ok is false when the token is unknown, malformed or expired. Callers
// must reject the request before doing any other work.
type Resolver interface {
	UsernameFor(ctx context.Context, token string) (username string, ok bool)
}

// TokenQueryParam is the query parameter accepted when no Authorization
// header is present (browser downloads and the HTML listing).
const TokenQueryParam = "token"

// ExtractToken returns the session token of r: a Bearer Authorization
// header first, then the token query parameter.
func ExtractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get(TokenQueryParam)
}
