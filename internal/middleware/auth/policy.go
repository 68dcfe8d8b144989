package auth

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

type Access int

const (
	Public Access = iota
	Authenticated
	RoleRestricted
)

// Rule matches a route template. Pattern "/products*" matches every route
// that starts with "/products"; without a trailing "*" the match is exact.
// Empty Methods matches any method.
type Rule struct {
	Methods []string
	Pattern string
	Access  Access
	Role    string
}

func (r Rule) matches(method, route string) bool {
	if len(r.Methods) > 0 && !slices.Contains(r.Methods, method) {
		return false
	}
	if prefix, ok := strings.CutSuffix(r.Pattern, "*"); ok {
		return strings.HasPrefix(route, prefix)
	}
	return route == r.Pattern
}

func (r Rule) Authorize(id Identity, present bool) error {
	switch r.Access {
	case Public:
		return nil
	case Authenticated:
		if !present {
			return ErrUnauthorized
		}
		return nil
	default:
		if !present {
			return ErrUnauthorized
		}
		if !id.HasRole(r.Role) {
			return ErrForbidden
		}
		return nil
	}
}

// Policy is an ordered rule table; the first matching rule decides and
// Fallback applies when nothing matches.
type Policy struct {
	Rules    []Rule
	Fallback Rule
}

func (p *Policy) RuleFor(method, route string) Rule {
	for _, r := range p.Rules {
		if r.matches(method, route) {
			return r
		}
	}
	return p.Fallback
}

func (p *Policy) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		route := c.Path()
		if route == "" {
			route = c.Request().URL.Path
		}
		rule := p.RuleFor(c.Request().Method, route)
		id, ok := Current(c)

		switch err := rule.Authorize(id, ok); {
		case errors.Is(err, ErrUnauthorized):
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		case errors.Is(err, ErrForbidden):
			return echo.NewHTTPError(http.StatusForbidden, "forbidden")
		}
		return next(c)
	}
}
