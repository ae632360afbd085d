package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/shopfront/internal/catalog"
	"github.com/HerbHall/shopfront/internal/fakestore"
	"github.com/HerbHall/shopfront/internal/favorites"
	"github.com/HerbHall/shopfront/internal/metrics"
	"github.com/HerbHall/shopfront/internal/server"
	"github.com/HerbHall/shopfront/internal/store"
	"github.com/HerbHall/shopfront/internal/testutil"
	"github.com/HerbHall/shopfront/internal/version"
	"github.com/HerbHall/shopfront/pkg/models"
)

type staticSource struct{}

func (staticSource) GetAllProducts(context.Context) ([]models.Product, error) {
	return testutil.Catalog(), nil
}

func (staticSource) GetProductByID(_ context.Context, id int) (*models.Product, error) {
	for _, p := range testutil.Catalog() {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (staticSource) GetCategories(context.Context) ([]string, error) {
	return models.DefaultCategories(), nil
}

var _ fakestore.Source = staticSource{}

type routeFunc func(*http.ServeMux)

func (f routeFunc) RegisterRoutes(mux *http.ServeMux) { f(mux) }

func newTestServer(t *testing.T, opts ...server.Option) (http.Handler, *favorites.Store) {
	t.Helper()
	logger := testutil.Logger()
	m := metrics.New()
	favs := favorites.New(context.Background(), store.NewMemoryKV(), logger, favorites.WithMetrics(m))
	base := []server.Option{
		server.WithRoutes(
			catalog.NewHandler(staticSource{}, favs, logger),
			favorites.NewHandler(favs, logger),
		),
		server.WithMetricsHandler(m.Handler()),
		server.WithCORSOrigins([]string{"http://localhost:3000"}),
	}
	srv := server.New("127.0.0.1:0", logger, append(base, opts...)...)
	return srv.Handler(), favs
}

func get(h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)

	rec := get(h, "/api/v1/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, version.Short(), rec.Header().Get(version.Header))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "shopfront", body["service"])
}

func TestRequestID(t *testing.T) {
	h, _ := newTestServer(t)

	rec := get(h, "/api/v1/health")
	_, err := uuid.Parse(rec.Header().Get(server.RequestIDHeader))
	assert.NoError(t, err, "generated id")

	id := uuid.NewString()
	rec = get(h, "/api/v1/health", server.RequestIDHeader, id)
	assert.Equal(t, id, rec.Header().Get(server.RequestIDHeader), "valid id is echoed")

	rec = get(h, "/api/v1/health", server.RequestIDHeader, "not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(server.RequestIDHeader))
}

func TestRequestIDReachesUpstream(t *testing.T) {
	seen := make(chan string, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get(server.RequestIDHeader)
		_ = json.NewEncoder(w).Encode(testutil.Catalog()[0])
	}))
	t.Cleanup(upstream.Close)

	logger := testutil.Logger()
	client := fakestore.NewClient(upstream.URL, fakestore.WithLogger(logger))
	srv := server.New("127.0.0.1:0", logger,
		server.WithRoutes(catalog.NewHandler(client, nil, logger)),
	)

	id := uuid.NewString()
	rec := get(srv.Handler(), "/api/v1/products/1", server.RequestIDHeader, id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, <-seen)
}

func TestUnknownAPIRoute(t *testing.T) {
	h, _ := newTestServer(t)

	rec := get(h, "/api/v1/nope")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var p server.Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Equal(t, server.ProblemTypeNotFound, p.Type)
}

func TestProductsAndFavoritesWiring(t *testing.T) {
	h, favs := newTestServer(t)
	favs.AddToFavorites(context.Background(), testutil.Catalog()[2])

	rec := get(h, "/api/v1/products?favorites=true")
	require.Equal(t, http.StatusOK, rec.Code)
	var list catalog.ListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Equal(t, []int{3}, testutil.IDs(list.Items))
	assert.Equal(t, "Showing 1-1 of 1 product from favorites", list.CountText)

	rec = get(h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shopfront_favorites_count 1")
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/favorites", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	h, _ := newTestServer(t, server.WithRateLimit(1, 2))

	assert.Equal(t, http.StatusOK, get(h, "/api/v1/health").Code)
	assert.Equal(t, http.StatusOK, get(h, "/api/v1/health").Code)

	rec := get(h, "/api/v1/health")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestPanicRecovery(t *testing.T) {
	h, _ := newTestServer(t, server.WithRoutes(routeFunc(func(mux *http.ServeMux) {
		mux.HandleFunc("GET /api/v1/boom", func(http.ResponseWriter, *http.Request) {
			panic("boom")
		})
	})))

	rec := get(h, "/api/v1/boom")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var p server.Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Equal(t, server.ProblemTypeInternal, p.Type)
}
