package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/shelfy/internal/middleware/auth"
)

const AdminRole = "ADMIN"

// NewPolicy is the route rule table. Order matters: the first match wins.
func NewPolicy() *auth.Policy {
	get := []string{http.MethodGet}
	write := []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

	return &auth.Policy{
		Rules: []auth.Rule{
			{Methods: []string{http.MethodPost}, Pattern: "/auth/*", Access: auth.Public},
			{Methods: get, Pattern: "/auth/me", Access: auth.Public},
			{Methods: get, Pattern: "/products*", Access: auth.Public},
			{Methods: get, Pattern: "/health/*", Access: auth.Public},
			{Methods: get, Pattern: "/metrics", Access: auth.Public},
			{Methods: write, Pattern: "/products*", Access: auth.RoleRestricted, Role: AdminRole},
		},
		Fallback: auth.Rule{Access: auth.Authenticated},
	}
}
