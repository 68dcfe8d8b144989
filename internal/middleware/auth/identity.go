package auth

import (
	"context"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shelfy/internal/tokens"
)

// Identity is the request-scoped principal installed by the filter.
type Identity struct {
	Username string
	Roles    []string
}

// HasRole accepts either the bare role ("ADMIN") or the authority form
// ("ROLE_ADMIN").
func (i Identity) HasRole(role string) bool {
	authority := role
	if !strings.HasPrefix(role, tokens.RolePrefix) {
		authority = tokens.RolePrefix + role
	}
	return slices.Contains(i.Roles, authority)
}

type identityKey struct{}
type filteredKey struct{}

func IntoContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, &id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	v, ok := ctx.Value(identityKey{}).(*Identity)
	if !ok || v == nil {
		return Identity{}, false
	}
	return *v, true
}

// Current returns the identity attached to the echo request, if any.
func Current(c echo.Context) (Identity, bool) {
	return FromContext(c.Request().Context())
}
