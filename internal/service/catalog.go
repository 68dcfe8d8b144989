package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shelfy/internal/events"
	"github.com/Skotchmaster/shelfy/internal/logging"
	"github.com/Skotchmaster/shelfy/internal/models"
	"github.com/Skotchmaster/shelfy/internal/repo"
	"github.com/Skotchmaster/shelfy/internal/search"
	"github.com/Skotchmaster/shelfy/internal/transport"
	"github.com/Skotchmaster/shelfy/internal/util"
)

// CatalogService fronts the product repository. Index and Search are nil when
// Elasticsearch is not configured.
type CatalogService struct {
	Repo   *repo.GormRepo
	Index  search.Indexer
	Search search.Searcher
	Events *events.Emitter
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// ListProducts returns one 0-based page of the filtered catalog.
func (s *CatalogService) ListProducts(ctx context.Context, f repo.ProductFilter, page, size int) (*transport.ProductPage, error) {
	if page < 0 {
		page = 0
	}
	offset, limit := util.Calculate(page, size)
	total, items, err := s.Repo.FindProducts(ctx, f, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return newPage(items, page, limit, total), nil
}

func (s *CatalogService) SearchProducts(ctx context.Context, f repo.ProductFilter) ([]models.Product, error) {
	items, err := s.Repo.SearchProducts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return items, nil
}

func (s *CatalogService) Brands(ctx context.Context) ([]string, error) {
	brands, err := s.Repo.Brands(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	return brands, nil
}

func (s *CatalogService) FullText(ctx context.Context, query string, page, size int) (*transport.ProductPage, error) {
	if s.Search == nil {
		return nil, ErrSearchDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: q must not be blank", ErrValidation)
	}
	if page < 0 {
		page = 0
	}
	offset, limit := util.Calculate(page, size)
	total, items, err := s.Search.Search(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("fulltext: %w", err)
	}
	return newPage(items, page, limit, total), nil
}

// CreateProducts validates the whole batch before writing any of it.
func (s *CatalogService) CreateProducts(ctx context.Context, reqs []transport.ProductRequest) ([]models.Product, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: at least one product is required", ErrValidation)
	}
	products := make([]models.Product, 0, len(reqs))
	for i, r := range reqs {
		if err := validateProduct(r); err != nil {
			return nil, fmt.Errorf("product %d: %w", i, err)
		}
		products = append(products, r.Model())
	}

	if err := s.Repo.CreateProducts(ctx, products); err != nil {
		return nil, fmt.Errorf("create products: %w", err)
	}

	l := logging.FromContext(ctx).With("svc", "catalog.create")
	for _, p := range products {
		s.index(ctx, l, p)
		s.Events.Product(ctx, l, events.ProductEvent{Type: events.ProductCreated, ProductID: p.ID, Name: p.Name, Brand: p.Brand})
	}
	return products, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, req transport.ProductRequest) (*models.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}
	p, err := s.Repo.UpdateProduct(ctx, id, req.Model())
	if err != nil {
		return nil, notFound(err)
	}

	l := logging.FromContext(ctx).With("svc", "catalog.update")
	s.index(ctx, l, *p)
	s.Events.Product(ctx, l, events.ProductEvent{Type: events.ProductUpdated, ProductID: p.ID, Name: p.Name, Brand: p.Brand})
	return p, nil
}

func (s *CatalogService) SetRecommended(ctx context.Context, id int64, recommended bool) (*models.Product, error) {
	p, err := s.Repo.SetRecommended(ctx, id, recommended)
	if err != nil {
		return nil, notFound(err)
	}

	l := logging.FromContext(ctx).With("svc", "catalog.recommend")
	s.index(ctx, l, *p)
	s.Events.Product(ctx, l, events.ProductEvent{
		Type:        events.ProductRecommendationChanged,
		ProductID:   p.ID,
		Recommended: &p.Recommended,
	})
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return notFound(err)
	}

	l := logging.FromContext(ctx).With("svc", "catalog.delete")
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			l.Error("search_index_error", "product_id", id, "error", err)
		}
	}
	s.Events.Product(ctx, l, events.ProductEvent{Type: events.ProductDeleted, ProductID: id})
	return nil
}

func (s *CatalogService) index(ctx context.Context, l *slog.Logger, p models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		l.Error("search_index_error", "product_id", p.ID, "error", err)
	}
}

func validateProduct(r transport.ProductRequest) error {
	var problems []string
	for field, v := range map[string]string{
		"name":     r.Name,
		"brand":    r.Brand,
		"unit":     r.Unit,
		"imageUrl": r.ImageURL,
	} {
		if strings.TrimSpace(v) == "" {
			problems = append(problems, field+" must not be blank")
		}
	}
	switch {
	case r.DefaultPrice == nil:
		problems = append(problems, "defaultPrice is required")
	case *r.DefaultPrice < 0:
		problems = append(problems, "defaultPrice must not be negative")
	}
	if len(problems) == 0 {
		return nil
	}
	slices.Sort(problems)
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func newPage(items []models.Product, page, limit int, total int64) *transport.ProductPage {
	if items == nil {
		items = []models.Product{}
	}
	totalPages, hasPrev, hasNext := util.Meta(page, limit, total)
	return &transport.ProductPage{
		Data: items,
		Meta: transport.PageMeta{
			Page:       page,
			Size:       limit,
			Total:      total,
			TotalPages: totalPages,
			HasPrev:    hasPrev,
			HasNext:    hasNext,
		},
	}
}
