package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ristore-api/internal/app"
	"github.com/noah-isme/ristore-api/internal/auth"
	"github.com/noah-isme/ristore-api/internal/catalog"
	"github.com/noah-isme/ristore-api/internal/config"
	"github.com/noah-isme/ristore-api/internal/health"
	"github.com/noah-isme/ristore-api/internal/payment"
	"github.com/noah-isme/ristore-api/internal/pricing"
	"github.com/noah-isme/ristore-api/internal/ratelimit"
)

type memoryStore struct {
	mu       sync.Mutex
	products []catalog.Product
}

func (s *memoryStore) CountProducts(context.Context, catalog.Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.products)), nil
}

func (s *memoryStore) ListProducts(_ context.Context, params catalog.ListParams) ([]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if params.Page.Offset >= len(s.products) {
		return nil, nil
	}
	end := min(params.Page.Offset+params.Page.Limit, len(s.products))
	return append([]catalog.Product(nil), s.products[params.Page.Offset:end]...), nil
}

func (s *memoryStore) GetProductBySlug(_ context.Context, slug string) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return catalog.Product{}, catalog.ErrNotFound
}

func (s *memoryStore) ListRelated(context.Context, string, string, int) ([]catalog.Product, error) {
	return nil, nil
}

func (s *memoryStore) ListCategories(context.Context) ([]catalog.Category, error) {
	return []catalog.Category{{ID: "c1", Name: "Rings", Slug: "rings", ProductCount: 1}}, nil
}

func (s *memoryStore) CreateProduct(_ context.Context, p catalog.NewProduct) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product := catalog.Product{ID: "new", Title: p.Title, Slug: p.Slug, Price: p.Price, Image: p.Image, CreatedAt: time.Now()}
	s.products = append(s.products, product)
	return product, nil
}

func (s *memoryStore) UnitPrices(_ context.Context, ids []string) (pricing.PriceTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	table := pricing.PriceTable{}
	for _, id := range ids {
		for _, p := range s.products {
			if p.ID == id || p.Slug == id {
				table[id] = p.Price
			}
		}
	}
	return table, nil
}

type upChecker struct{}

func (upChecker) PingDB(context.Context, time.Duration) error    { return nil }
func (upChecker) PingRedis(context.Context, time.Duration) error { return nil }

type testServer struct {
	handler  http.Handler
	verifier *auth.Verifier
}

func newTestServer(t *testing.T, paymentMax int) testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		AppEnv:                 "test",
		JWTSecret:              "test-secret",
		JWTIssuer:              "ristore",
		JWTAudience:            "ristore-api",
		PaymentProvider:        "stub",
		RazorpayKeySecret:      "callback-secret",
		MinSettlementMinor:     10000,
		CatalogDefaultLimit:    20,
		CatalogMaxLimit:        100,
		IdempotencyTTL:         time.Minute,
		RateLimitStrategy:      "sliding",
		RateLimitPaymentMax:    paymentMax,
		RateLimitPaymentWindow: time.Minute,
		HTTPBodyLimitBytes:     1 << 16,
		SecurityHeadersEnabled: true,
		Pricing: pricing.Policy{
			BaseCurrency:          "USD",
			SettlementCurrency:    "INR",
			TaxRate:               decimal.RequireFromString("0.08"),
			FreeShippingThreshold: 13000,
			FlatShipping:          999,
			FXRate:                decimal.NewFromInt(83),
			DefaultUnitPrice:      9999,
			UnknownProduct:        pricing.RejectUnknown,
		},
	}
	deps := app.Dependencies{
		Redis:     rdb,
		Validator: catalog.NewValidator(),
		Limiter:   ratelimit.SlidingWindow{Client: rdb, Prefix: "rl:"},
		Gateway:   payment.Stub{},
	}
	products := &memoryStore{products: []catalog.Product{{
		ID: "p1", Title: "Gold Ring", Slug: "gold-ring", Price: 5000, Image: "https://cdn.example.com/ring.jpg",
	}}}

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Store:        products,
		Validator:    deps.Validator,
		DefaultLimit: cfg.CatalogDefaultLimit,
		MaxLimit:     cfg.CatalogMaxLimit,
	})
	require.NoError(t, err)
	paymentService, err := payment.NewService(payment.ServiceConfig{
		Gateway:       deps.Gateway,
		Prices:        products,
		Policy:        cfg.Pricing,
		MinSettlement: cfg.MinSettlementMinor,
		Timeout:       time.Second,
		Secret:        cfg.RazorpayKeySecret,
		Validator:     deps.Validator,
	})
	require.NoError(t, err)

	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	return testServer{
		verifier: verifier,
		handler: newRouter(routerConfig{
			cfg:      cfg,
			logger:   zerolog.Nop(),
			deps:     deps,
			catalog:  catalog.NewHandler(catalog.HandlerConfig{Service: catalogService}),
			payment:  payment.NewHandler(paymentService),
			verifier: verifier,
			health:   health.Handler{Checker: upChecker{}},
		}),
	}
}

func (s testServer) do(method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:4321"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func TestRouterServesCatalog(t *testing.T) {
	srv := newTestServer(t, 10)

	rr := srv.do(http.MethodGet, "/products", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "1", rr.Header().Get("X-Total-Count"))
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = srv.do(http.MethodGet, "/products/gold-ring", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"relatedProducts"`)

	rr = srv.do(http.MethodGet, "/categories", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = srv.do(http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), `"NOT_FOUND"`)
}

func TestRouterAdminRequiresAdminRole(t *testing.T) {
	srv := newTestServer(t, 10)
	body := `{"title":"Silver Hoops","price":42.5,"image":"https://cdn.example.com/hoops.jpg"}`

	rr := srv.do(http.MethodPost, "/admin/products", body, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	customer, err := srv.verifier.Issue("user-1", []string{"customer"}, time.Minute)
	require.NoError(t, err)
	rr = srv.do(http.MethodPost, "/admin/products", body, http.Header{"Authorization": {"Bearer " + customer}})
	require.Equal(t, http.StatusForbidden, rr.Code)

	admin, err := srv.verifier.Issue("admin-1", []string{"admin"}, time.Minute)
	require.NoError(t, err)
	rr = srv.do(http.MethodPost, "/admin/products", body, http.Header{"Authorization": {"Bearer " + admin}})
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), `"slug":"silver-hoops"`)
}

func TestRouterPaymentCreateOrderIsIdempotent(t *testing.T) {
	srv := newTestServer(t, 10)
	body := `{"items":[{"id":"p1","quantity":2}],"currency":"INR"}`
	key := http.Header{"Idempotency-Key": {"cart-42"}}

	rr := srv.do(http.MethodPost, "/payment/create-order", body, key)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	require.Contains(t, rr.Body.String(), `"amount":979317`)

	rr = srv.do(http.MethodPost, "/payment/create-order", body, key)
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "IDEMPOTENT_REPLAY")
}

func TestRouterPaymentRateLimited(t *testing.T) {
	srv := newTestServer(t, 2)
	body := `{"gatewayOrderId":"order_1","gatewayPaymentId":"pay_1","signature":"00"}`

	for i := 0; i < 2; i++ {
		rr := srv.do(http.MethodPost, "/payment/verify", body, nil)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	}
	rr := srv.do(http.MethodPost, "/payment/verify", body, nil)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Contains(t, rr.Body.String(), "RATE_LIMITED")
}
