package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shelfy/internal/config"
	"github.com/Skotchmaster/shelfy/internal/logging"
	"github.com/Skotchmaster/shelfy/internal/middleware/auth"
	"github.com/Skotchmaster/shelfy/internal/service"
	"github.com/Skotchmaster/shelfy/internal/transport"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	Delivery     string
	CookieSecure bool
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	sess, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return h.deliver(c, sess)
}

// Refresh takes the refresh token from the JSON body and falls back to the
// refresh cookie.
func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("refresh_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	raw := req.RefreshToken
	if raw == "" {
		if ck, err := c.Cookie(auth.RefreshCookie); err == nil {
			raw = ck.Value
		}
	}
	if raw == "" {
		l.Warn("refresh_error", "status", 401, "reason", "no refresh token")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	sess, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return h.deliver(c, sess)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()

	raw := auth.ExtractToken(c.Request())
	if raw == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	me, err := h.Svc.Me(ctx, raw)
	if err != nil {
		logging.FromContext(ctx).Warn("me_error", "status", 401, "handler", "auth_me")
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(http.StatusOK, me)
}

// LogOut always succeeds. A failure to record the refresh token as used is
// logged and the cookies are cleared anyway.
func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	raw := ""
	if ck, err := c.Cookie(auth.RefreshCookie); err == nil {
		raw = ck.Value
	} else {
		var req transport.RefreshRequest
		if err := c.Bind(&req); err == nil {
			raw = req.RefreshToken
		}
	}
	if err := h.Svc.LogOut(ctx, raw); err != nil {
		l.Error("logout_error", "reason", "cannot revoke refresh token", "error", err)
	}

	c.SetCookie(DeleteCookie(auth.AccessCookie, "/", h.CookieSecure))
	c.SetCookie(DeleteCookie(auth.RefreshCookie, "/", h.CookieSecure))

	l.Info("logout_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) deliver(c echo.Context, sess *service.Session) error {
	delivery := h.Delivery
	if delivery == "" {
		delivery = config.DeliveryCookie
	}

	if delivery == config.DeliveryCookie || delivery == config.DeliveryBoth {
		c.SetCookie(CreateCookie(auth.AccessCookie, sess.Access.Token, "/", sess.Access.ExpiresAt, h.CookieSecure))
		c.SetCookie(CreateCookie(auth.RefreshCookie, sess.Refresh.Token, "/", sess.Refresh.ExpiresAt, h.CookieSecure))
	}
	if delivery == config.DeliveryCookie {
		return c.JSON(http.StatusOK, transport.MeResponse{Username: sess.Username, Roles: sess.Roles})
	}
	return c.JSON(http.StatusOK, transport.TokenPair{
		AccessToken:      sess.Access.Token,
		RefreshToken:     sess.Refresh.Token,
		TokenType:        "Bearer",
		AccessExpiresAt:  sess.Access.ExpiresAt,
		RefreshExpiresAt: sess.Refresh.ExpiresAt,
	})
}
