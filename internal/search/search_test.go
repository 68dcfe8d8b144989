package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shelfy/internal/models"
)

type call struct {
	Method string
	Path   string
	Body   string
}

type fakeES struct {
	mu     sync.Mutex
	calls  []call
	status int
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, call{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	status := f.status
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/":
		_, _ = io.WriteString(w, `{"name":"fake","cluster_name":"test","version":{"number":"9.0.0","build_flavor":"default"},"tagline":"You Know, for Search"}`)
	case status != 0:
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{}`)
	case r.URL.Path == "/products/_search":
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":7},"hits":[
			{"_source":{"id":3,"name":"Butter","brand":"Alpine","defaultPrice":2.99}},
			{"_source":{"id":9,"name":"Buttermilk","brand":"Alpine","defaultPrice":1.19}}]}}`)
	default:
		_, _ = io.WriteString(w, `{"result":"ok"}`)
	}
}

func (f *fakeES) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newIndex(t *testing.T) (*ESIndex, *fakeES) {
	t.Helper()
	fake := &fakeES{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	idx, err := Connect(context.Background(), Options{URL: srv.URL, Index: "products"})
	require.NoError(t, err)
	return idx, fake
}

func TestIndexProduct_PutsDocumentByID(t *testing.T) {
	idx, fake := newIndex(t)

	err := idx.IndexProduct(context.Background(), models.Product{ID: 3, Name: "Butter", Brand: "Alpine"})
	require.NoError(t, err)

	c := fake.last()
	assert.Equal(t, http.MethodPut, c.Method)
	assert.Equal(t, "/products/_doc/3", c.Path)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(c.Body), &doc))
	assert.Equal(t, "Butter", doc["name"])
}

func TestDeleteProduct_IgnoresMissingDocument(t *testing.T) {
	idx, fake := newIndex(t)

	require.NoError(t, idx.DeleteProduct(context.Background(), 3))
	c := fake.last()
	assert.Equal(t, http.MethodDelete, c.Method)
	assert.Equal(t, "/products/_doc/3", c.Path)

	fake.mu.Lock()
	fake.status = http.StatusNotFound
	fake.mu.Unlock()
	require.NoError(t, idx.DeleteProduct(context.Background(), 3))

	fake.mu.Lock()
	fake.status = http.StatusInternalServerError
	fake.mu.Unlock()
	require.Error(t, idx.DeleteProduct(context.Background(), 3))
}

func TestSearch_DecodesHits(t *testing.T) {
	idx, fake := newIndex(t)

	total, items, err := idx.Search(context.Background(), "buter", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
	require.Len(t, items, 2)
	assert.Equal(t, int64(3), items[0].ID)
	assert.Equal(t, "Buttermilk", items[1].Name)

	c := fake.last()
	assert.Equal(t, "/products/_search", c.Path)
	var q map[string]any
	require.NoError(t, json.Unmarshal([]byte(c.Body), &q))
	mm := q["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "buter", mm["query"])
	assert.Equal(t, "AUTO", mm["fuzziness"])
}

func TestSearch_ErrorStatus(t *testing.T) {
	idx, fake := newIndex(t)
	fake.mu.Lock()
	fake.status = http.StatusBadRequest
	fake.mu.Unlock()

	_, _, err := idx.Search(context.Background(), "x", 0, 10)
	require.Error(t, err)
}
