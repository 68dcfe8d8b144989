package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shelfy/internal/db/dbtest"
	"github.com/Skotchmaster/shelfy/internal/events"
	"github.com/Skotchmaster/shelfy/internal/models"
	"github.com/Skotchmaster/shelfy/internal/repo"
	"github.com/Skotchmaster/shelfy/internal/transport"
)

type memIndex struct {
	mu      sync.Mutex
	docs    map[int64]models.Product
	err     error
	results []models.Product
}

func (m *memIndex) IndexProduct(_ context.Context, p models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.docs == nil {
		m.docs = map[int64]models.Product{}
	}
	m.docs[p.ID] = p
	return nil
}

func (m *memIndex) DeleteProduct(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return m.err
}

func (m *memIndex) Search(_ context.Context, _ string, from, size int) (int64, []models.Product, error) {
	if m.err != nil {
		return 0, nil, m.err
	}
	total := int64(len(m.results))
	if from >= len(m.results) {
		return total, nil, nil
	}
	end := min(from+size, len(m.results))
	return total, m.results[from:end], nil
}

func price(v float64) *float64 { return &v }

func milk() transport.ProductRequest {
	return transport.ProductRequest{
		Name: "Whole Milk", Brand: "Farmhouse", Unit: "1 l",
		DefaultPrice: price(1.29), ImageURL: "https://img.example/milk.png", Active: true,
	}
}

func newCatalog(t *testing.T) (*CatalogService, *memIndex, *events.Recorder) {
	t.Helper()
	idx := &memIndex{}
	rec := &events.Recorder{}
	return &CatalogService{
		Repo:   repo.New(dbtest.New(t)),
		Index:  idx,
		Search: idx,
		Events: &events.Emitter{Pub: rec, ProductTopic: "product_events", UserTopic: "user_events"},
	}, idx, rec
}

func TestCatalog_CreateGetUpdateDelete(t *testing.T) {
	svc, idx, rec := newCatalog(t)
	ctx := context.Background()

	bread := milk()
	bread.Name, bread.Brand, bread.Unit = "Rye Bread", "Bakery", "500 g"

	created, err := svc.CreateProducts(ctx, []transport.ProductRequest{milk(), bread})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotZero(t, created[0].ID)
	assert.Len(t, idx.docs, 2)

	got, err := svc.GetProduct(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Whole Milk", got.Name)

	upd := milk()
	upd.DefaultPrice = price(1.49)
	upd.Recommended = true
	p, err := svc.UpdateProduct(ctx, created[0].ID, upd)
	require.NoError(t, err)
	assert.Equal(t, 1.49, p.DefaultPrice)
	assert.True(t, idx.docs[p.ID].Recommended)

	p, err = svc.SetRecommended(ctx, created[1].ID, true)
	require.NoError(t, err)
	assert.True(t, p.Recommended)

	require.NoError(t, svc.DeleteProduct(ctx, created[1].ID))
	_, err = svc.GetProduct(ctx, created[1].ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, idx.docs, 1)

	var types []string
	for _, r := range rec.Events() {
		assert.Equal(t, "product_events", r.Topic)
		types = append(types, r.Event.(events.ProductEvent).Type)
	}
	assert.Equal(t, []string{
		events.ProductCreated, events.ProductCreated,
		events.ProductUpdated,
		events.ProductRecommendationChanged,
		events.ProductDeleted,
	}, types)
}

func TestCatalog_NotFound(t *testing.T) {
	svc, _, _ := newCatalog(t)
	ctx := context.Background()

	_, err := svc.GetProduct(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.UpdateProduct(ctx, 404, milk())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.SetRecommended(ctx, 404, true)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteProduct(ctx, 404), ErrNotFound)
}

func TestCatalog_Validation(t *testing.T) {
	svc, _, rec := newCatalog(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*transport.ProductRequest)
		want   string
	}{
		{"blank name", func(r *transport.ProductRequest) { r.Name = "  " }, "name must not be blank"},
		{"blank brand", func(r *transport.ProductRequest) { r.Brand = "" }, "brand must not be blank"},
		{"blank unit", func(r *transport.ProductRequest) { r.Unit = "" }, "unit must not be blank"},
		{"blank image", func(r *transport.ProductRequest) { r.ImageURL = "" }, "imageUrl must not be blank"},
		{"missing price", func(r *transport.ProductRequest) { r.DefaultPrice = nil }, "defaultPrice is required"},
		{"negative price", func(r *transport.ProductRequest) { r.DefaultPrice = price(-1) }, "defaultPrice must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := milk()
			tt.mutate(&req)
			_, err := svc.CreateProducts(ctx, []transport.ProductRequest{milk(), req})
			require.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := svc.CreateProducts(ctx, nil)
	assert.ErrorIs(t, err, ErrValidation)

	page, err := svc.ListProducts(ctx, repo.ProductFilter{}, 0, 20)
	require.NoError(t, err)
	assert.Zero(t, page.Meta.Total, "a rejected batch writes nothing")
	assert.Empty(t, rec.Events())
}

func TestCatalog_ListAndSearch(t *testing.T) {
	svc, _, _ := newCatalog(t)
	ctx := context.Background()

	reqs := make([]transport.ProductRequest, 0, 5)
	for _, brand := range []string{"Farmhouse", "Farmhouse", "Oatly", "Bakery", "Bakery"} {
		r := milk()
		r.Brand = brand
		reqs = append(reqs, r)
	}
	_, err := svc.CreateProducts(ctx, reqs)
	require.NoError(t, err)

	page, err := svc.ListProducts(ctx, repo.ProductFilter{}, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, transport.PageMeta{Page: 1, Size: 2, Total: 5, TotalPages: 3, HasPrev: true, HasNext: true}, page.Meta)

	page, err = svc.ListProducts(ctx, repo.ProductFilter{}, 9, 2)
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)

	items, err := svc.SearchProducts(ctx, repo.ProductFilter{Brands: []string{"Oatly", "Bakery"}})
	require.NoError(t, err)
	assert.Len(t, items, 3)

	brands, err := svc.Brands(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bakery", "Farmhouse", "Oatly"}, brands)
}

func TestCatalog_FullText(t *testing.T) {
	svc, idx, _ := newCatalog(t)
	ctx := context.Background()

	idx.results = []models.Product{{ID: 1, Name: "Whole Milk"}, {ID: 2, Name: "Oat Milk"}}
	page, err := svc.FullText(ctx, "milk", 0, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Meta.Total)
	assert.Len(t, page.Data, 1)
	assert.True(t, page.Meta.HasNext)

	_, err = svc.FullText(ctx, "   ", 0, 10)
	assert.ErrorIs(t, err, ErrValidation)

	svc.Search = nil
	_, err = svc.FullText(ctx, "milk", 0, 10)
	assert.ErrorIs(t, err, ErrSearchDisabled)
}

func TestCatalog_IndexFailureDoesNotFailWrite(t *testing.T) {
	svc, idx, _ := newCatalog(t)
	idx.err = errors.New("cluster red")

	created, err := svc.CreateProducts(context.Background(), []transport.ProductRequest{milk()})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProduct(context.Background(), created[0].ID))
}
