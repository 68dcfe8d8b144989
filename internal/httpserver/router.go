package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shelfy/internal/metrics"
	"github.com/Skotchmaster/shelfy/internal/middleware/auth"
)

const loginPath = "/auth/login"

type Deps struct {
	AuthHandler    *AuthHTTP
	CatalogHandler *CatalogHTTP
	Tokens         auth.TokenParser
	Metrics        *metrics.Metrics
	// Ready reports whether backing stores answer; nil means always ready.
	Ready func(ctx context.Context) error
}

// Register installs the auth middleware and every route. Recovery, request
// ids and logging are expected to be on e already.
func Register(e *echo.Echo, d *Deps) {
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	e.Use(auth.NewAuthenticator(d.Tokens, loginPath).Middleware)
	e.Use(NewPolicy().Middleware)

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	a := e.Group("/auth")
	a.POST("/login", d.AuthHandler.Login)
	a.POST("/refresh", d.AuthHandler.Refresh)
	a.POST("/logout", d.AuthHandler.LogOut)
	a.GET("/me", d.AuthHandler.Me)

	products := e.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("/brands", d.CatalogHandler.Brands)
	products.GET("/fulltext", d.CatalogHandler.FullText)
	products.GET("/:id", d.CatalogHandler.GetProduct)
	products.POST("", d.CatalogHandler.CreateProducts)
	products.PUT("/:id", d.CatalogHandler.UpdateProduct)
	products.PATCH("/:id/recommendation", d.CatalogHandler.SetRecommendation)
	products.DELETE("/:id", d.CatalogHandler.DeleteProduct)
}
