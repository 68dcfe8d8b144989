package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shelfy/internal/tokens"
)

func newTokens(t *testing.T) *tokens.Service {
	t.Helper()
	svc, err := tokens.NewService(tokens.Config{
		Secret:     []byte(strings.Repeat("s", 32)),
		Issuer:     "shelfy-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	return svc
}

func testPolicy() *Policy {
	mutating := []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}
	return &Policy{
		Rules: []Rule{
			{Methods: []string{http.MethodPost}, Pattern: "/auth/*", Access: Public},
			{Methods: []string{http.MethodGet}, Pattern: "/products*", Access: Public},
			{Methods: mutating, Pattern: "/products*", Access: RoleRestricted, Role: "ADMIN"},
		},
		Fallback: Rule{Access: Authenticated},
	}
}

func newEcho(t *testing.T, svc *tokens.Service) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Use(NewAuthenticator(svc, "/auth/login").Middleware)
	e.Use(testPolicy().Middleware)

	whoami := func(c echo.Context) error {
		id, ok := Current(c)
		if !ok {
			return c.String(http.StatusOK, "anonymous")
		}
		return c.String(http.StatusOK, id.Username+":"+strings.Join(id.Roles, ","))
	}
	e.GET("/products", whoami)
	e.DELETE("/products/:id", whoami)
	e.POST("/auth/login", whoami)
	e.GET("/orders", whoami)
	return e
}

func do(e *echo.Echo, method, path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+token) }
}

func TestFilterAndPolicy(t *testing.T) {
	svc := newTokens(t)
	e := newEcho(t, svc)

	admin, err := svc.GenerateAccessToken("alice", []string{"ROLE_ADMIN"})
	require.NoError(t, err)
	user, err := svc.GenerateAccessToken("bob", []string{"ROLE_USER"})
	require.NoError(t, err)
	refresh, err := svc.GenerateRefreshToken("alice")
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		mutate func(*http.Request)
		status int
		body   string
	}{
		{"public get anonymous", http.MethodGet, "/products", nil, http.StatusOK, "anonymous"},
		{"public get with identity", http.MethodGet, "/products", bearer(admin.Token), http.StatusOK, "alice:ROLE_ADMIN"},
		{"garbage token stays anonymous", http.MethodGet, "/products", bearer("garbage"), http.StatusOK, "anonymous"},
		{"admin delete", http.MethodDelete, "/products/5", bearer(admin.Token), http.StatusOK, "alice:ROLE_ADMIN"},
		{"delete without token", http.MethodDelete, "/products/5", nil, http.StatusUnauthorized, ""},
		{"delete as user", http.MethodDelete, "/products/5", bearer(user.Token), http.StatusForbidden, ""},
		{"refresh token as bearer", http.MethodDelete, "/products/5", bearer(refresh.Token), http.StatusUnauthorized, ""},
		{"fallback requires auth", http.MethodGet, "/orders", nil, http.StatusUnauthorized, ""},
		{"fallback with user", http.MethodGet, "/orders", bearer(user.Token), http.StatusOK, "bob:ROLE_USER"},
		{"cookie credential", http.MethodGet, "/orders", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: AccessCookie, Value: user.Token})
		}, http.StatusOK, "bob:ROLE_USER"},
		{"login path is not filtered", http.MethodPost, "/auth/login", bearer(admin.Token), http.StatusOK, "anonymous"},
		{"unknown route", http.MethodGet, "/nope", nil, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, tt.method, tt.path, tt.mutate)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractToken(req))

	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", ExtractToken(req))

	req.Header.Set(echo.HeaderAuthorization, "bearer from-header")
	assert.Equal(t, "from-header", ExtractToken(req))

	req.Header.Set(echo.HeaderAuthorization, "Basic dXNlcjpwYXNz")
	assert.Equal(t, "from-cookie", ExtractToken(req))
}

func TestFilter_RunsOncePerRequest(t *testing.T) {
	parser := &countingParser{inner: newTokens(t)}
	tok, err := parser.inner.GenerateAccessToken("alice", nil)
	require.NoError(t, err)

	a := NewAuthenticator(parser)
	var seen Identity
	h := a.Middleware(a.Middleware(func(c echo.Context) error {
		seen, _ = Current(c)
		return nil
	}))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	require.NoError(t, h(e.NewContext(req, httptest.NewRecorder())))

	assert.Equal(t, 1, parser.calls)
	assert.Equal(t, "alice", seen.Username)
	assert.Empty(t, seen.Roles)
}

type countingParser struct {
	inner *tokens.Service
	calls int
}

func (p *countingParser) Parse(token string) (*tokens.Claims, error) {
	p.calls++
	return p.inner.Parse(token)
}

func TestIdentity_HasRole(t *testing.T) {
	id := Identity{Username: "alice", Roles: []string{"ROLE_ADMIN"}}
	assert.True(t, id.HasRole("ADMIN"))
	assert.True(t, id.HasRole("ROLE_ADMIN"))
	assert.False(t, id.HasRole("USER"))
}

func TestPolicy_FirstMatchWins(t *testing.T) {
	p := &Policy{
		Rules: []Rule{
			{Pattern: "/auth/me", Access: Public},
			{Pattern: "/auth/*", Access: Authenticated},
		},
		Fallback: Rule{Access: RoleRestricted, Role: "ADMIN"},
	}
	assert.Equal(t, Public, p.RuleFor(http.MethodGet, "/auth/me").Access)
	assert.Equal(t, Authenticated, p.RuleFor(http.MethodGet, "/auth/other").Access)
	assert.Equal(t, RoleRestricted, p.RuleFor(http.MethodGet, "/elsewhere").Access)
}
