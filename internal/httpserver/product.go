package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shelfy/internal/logging"
	"github.com/Skotchmaster/shelfy/internal/repo"
	"github.com/Skotchmaster/shelfy/internal/service"
	"github.com/Skotchmaster/shelfy/internal/transport"
	"github.com/Skotchmaster/shelfy/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		l.Warn("get_product_error", "status", 400, "reason", "id is not a positive integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a positive integer")
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return productError(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	f, err := parseFilter(c)
	if err != nil {
		l.Warn("get_products_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	page := util.ParseIntDefault(c.QueryParam("page"), 0)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	res, err := h.Svc.ListProducts(ctx, f, page, size)
	if err != nil {
		return productError(l, "get_products_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	f, err := parseFilter(c)
	if err != nil {
		l.Warn("search_products_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	items, err := h.Svc.SearchProducts(ctx, f)
	if err != nil {
		return productError(l, "search_products_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) Brands(c echo.Context) error {
	ctx := c.Request().Context()
	brands, err := h.Svc.Brands(ctx)
	if err != nil {
		return productError(logging.FromContext(ctx).With("handler", "product.brands"), "brands_error", err)
	}
	return c.JSON(http.StatusOK, brands)
}

func (h *CatalogHTTP) FullText(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.fulltext")

	page := util.ParseIntDefault(c.QueryParam("page"), 0)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	res, err := h.Svc.FullText(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		return productError(l, "fulltext_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CatalogHTTP) CreateProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req []transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	created, err := h.Svc.CreateProducts(ctx, req)
	if err != nil {
		return productError(l, "product_create_error", err)
	}

	l.Info("product_create_success", "count", len(created))
	return c.JSON(http.StatusCreated, created)
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		l.Warn("product_update_error", "status", 400, "reason", "id is not a positive integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a positive integer")
	}
	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_update_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.UpdateProduct(ctx, id, req)
	if err != nil {
		return productError(l, "product_update_error", err)
	}

	l.Info("product_update_success", "product_id", id)
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) SetRecommendation(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.recommendation")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		l.Warn("product_recommend_error", "status", 400, "reason", "id is not a positive integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a positive integer")
	}
	var req transport.RecommendationRequest
	if err := c.Bind(&req); err != nil || req.Recommended == nil {
		l.Warn("product_recommend_error", "status", 400, "reason", "recommended is required")
		return echo.NewHTTPError(http.StatusBadRequest, "recommended is required")
	}

	prod, err := h.Svc.SetRecommended(ctx, id, *req.Recommended)
	if err != nil {
		return productError(l, "product_recommend_error", err)
	}
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		l.Warn("product_delete_error", "status", 400, "reason", "id is not a positive integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a positive integer")
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return productError(l, "product_delete_error", err)
	}

	l.Info("product_delete_success", "product_id", id)
	return c.NoContent(http.StatusOK)
}

func parseFilter(c echo.Context) (repo.ProductFilter, error) {
	q := c.QueryParams()
	f := repo.ProductFilter{Name: q.Get("name")}
	for _, b := range q["brand"] {
		if b != "" {
			f.Brands = append(f.Brands, b)
		}
	}

	var err error
	if f.PriceMin, err = util.ParseFloatPtr(q.Get("priceMin")); err != nil {
		return f, err
	}
	if f.PriceMax, err = util.ParseFloatPtr(q.Get("priceMax")); err != nil {
		return f, err
	}
	if f.Recommended, err = util.ParseBoolPtr(q.Get("recommended")); err != nil {
		return f, err
	}
	if f.Sort, err = util.ParseSort(q["sort"]); err != nil {
		return f, err
	}
	return f, nil
}

func productError(l *slog.Logger, event string, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "reason", "product not found")
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSearchDisabled):
		l.Warn(event, "status", 503, "reason", "search is not configured")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	default:
		l.Error(event, "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
