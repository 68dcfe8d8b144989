package tokens

import (
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const TypeRefresh = "refresh"

// Claims is the decoded payload of either token kind. Access tokens carry
// Roles, refresh tokens carry Type == TypeRefresh and a JTI; nothing else
// tells them apart, so callers must check IsRefresh where it matters.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	Type  string   `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) IsRefresh() bool {
	return c != nil && c.Type == TypeRefresh
}

type accessClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// RolePrefix turns a stored role name into the authority carried in tokens.
const RolePrefix = "ROLE_"

// Authorities maps stored role names ("ADMIN") to token authorities
// ("ROLE_ADMIN"), dropping blanks and duplicates.
func Authorities(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if !strings.HasPrefix(r, RolePrefix) {
			r = RolePrefix + r
		}
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return out
}
