package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shelfy/internal/logging"
	"github.com/Skotchmaster/shelfy/internal/tokens"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"

	bearerPrefix = "bearer "
)

type TokenParser interface {
	Parse(token string) (*tokens.Claims, error)
}

// Authenticator resolves the bearer credential of each request into an
// Identity. It never rejects a request; authorization decides later.
type Authenticator struct {
	Tokens TokenParser
	// SkipPrefixes are request paths that are never inspected.
	SkipPrefixes []string
}

func NewAuthenticator(parser TokenParser, skip ...string) *Authenticator {
	return &Authenticator{Tokens: parser, SkipPrefixes: skip}
}

func (a *Authenticator) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()
		if ctx.Value(filteredKey{}) != nil || a.skipped(req.URL.Path) {
			return next(c)
		}
		ctx = context.WithValue(ctx, filteredKey{}, true)

		if raw := ExtractToken(req); raw != "" {
			if id, ok := a.identify(raw); ok {
				ctx = IntoContext(ctx, id)
			} else {
				logging.FromContext(ctx).Debug("auth_token_rejected", "path", req.URL.Path)
			}
		}

		c.SetRequest(req.WithContext(ctx))
		return next(c)
	}
}

func (a *Authenticator) identify(raw string) (Identity, bool) {
	claims, err := a.Tokens.Parse(raw)
	if err != nil || claims.IsRefresh() {
		return Identity{}, false
	}
	roles := claims.Roles
	if roles == nil {
		roles = []string{}
	}
	return Identity{Username: claims.Subject, Roles: roles}, true
}

func (a *Authenticator) skipped(path string) bool {
	for _, p := range a.SkipPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// ExtractToken prefers "Authorization: Bearer <token>" and falls back to the
// access-token cookie.
func ExtractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get(echo.HeaderAuthorization))
	if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		if token := strings.TrimSpace(header[len(bearerPrefix):]); token != "" {
			return token
		}
	}
	if ck, err := r.Cookie(AccessCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	return ""
}
