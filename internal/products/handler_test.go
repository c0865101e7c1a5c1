package products

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valeevte/PriceOptimizer/internal/logger"
	"github.com/valeevte/PriceOptimizer/internal/pricing"
)

func newTestRouter(t *testing.T) (*gin.Engine, *MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := NewMemoryStore(fixedClock)
	svc := pricing.NewService(store, pricing.Options{
		Rand:           pricing.NewRand(3),
		Clock:          fixedClock,
		SeedDays:       30,
		BackfillOnRead: true,
	})
	log := logger.Nop().WithComponent("http")
	return NewRouter(NewHandler(svc, log), log), store
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createViaAPI(t *testing.T, r http.Handler, sku string) pricing.Product {
	t.Helper()
	w := do(r, http.MethodPost, "/api/products", `{"name":"Fitbit Versa 3","sku":"`+sku+`","category":"Wearables","price":"169.99"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[pricing.Product](t, w)
}

func TestCreateAndGetProduct(t *testing.T) {
	r, _ := newTestRouter(t)

	p := createViaAPI(t, r, "FITBIT-V3")
	assert.Equal(t, "169.99", p.CurrentPrice.String())
	assert.NotNil(t, p.OptimalPrice)
	assert.NotEqual(t, pricing.StatusUnknown, p.Status)

	w := do(r, http.MethodGet, "/api/products/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[pricing.Product](t, w)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "FITBIT-V3", got.SKU)

	w = do(r, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]pricing.ProductWithQuotes](t, w)
	require.Len(t, list, 1)
	assert.Len(t, list[0].CompetitorPrices, 3)
}

func TestCreateProductValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	cases := map[string]string{
		"missing fields":  `{"name":"x"}`,
		"zero price":      `{"name":"x","sku":"y","category":"z","price":0}`,
		"negative price":  `{"name":"x","sku":"y","category":"z","price":"-5"}`,
		"blank name":      `{"name":"  ","sku":"y","category":"z","price":5}`,
		"malformed":       `{`,
		"price too large": `{"name":"x","sku":"y","category":"z","price":"184467440737095516.17"}`,
		"exponent price":  `{"name":"x","sku":"y","category":"z","price":1e20}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/products", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	createViaAPI(t, r, "DUP")
	w := do(r, http.MethodPost, "/api/products", `{"name":"a","sku":"DUP","category":"b","price":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductNotFoundAndBadID(t *testing.T) {
	r, _ := newTestRouter(t)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/products/42", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/api/products/42", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/optimize-prices/42", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/products/42/history", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/products/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/products/0", "").Code)
}

func TestUpdateProductAndPrice(t *testing.T) {
	r, store := newTestRouter(t)
	p := createViaAPI(t, r, "FITBIT-V3")

	w := do(r, http.MethodPut, "/api/products/1", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPut, "/api/products/1", `{"name":"Fitbit Versa 4"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Fitbit Versa 4", decode[pricing.Product](t, w).Name)

	w = do(r, http.MethodPatch, "/api/products/1/price", `{"price":"150.00"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[pricing.Product](t, w)
	assert.Equal(t, "150.00", got.CurrentPrice.String())

	quotes, err := store.LatestCompetitorQuotes(t.Context(), p.ID)
	require.NoError(t, err)
	prices := make([]pricing.Price, 0, len(quotes))
	for _, q := range quotes {
		prices = append(prices, q.Price)
	}
	assert.Equal(t, *pricing.ComputeOptimalPrice(got.CurrentPrice, prices), *got.OptimalPrice)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPatch, "/api/products/1/price", `{"price":0}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPatch, "/api/products/1/price", `{}`).Code)

	w = do(r, http.MethodPatch, "/api/products/1/price", `{"price":"184467440737095516.17"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodGet, "/api/products/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "150.00", decode[pricing.Product](t, w).CurrentPrice.String())
}

func TestPriceHistoryEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	createViaAPI(t, r, "FITBIT-V3")

	w := do(r, http.MethodGet, "/api/products/1/history?days=7", "")
	require.Equal(t, http.StatusOK, w.Code)
	series := decode[pricing.ChartSeries](t, w)
	require.Len(t, series.Labels, 8)
	assert.Equal(t, "Mar 3", series.Labels[0])
	assert.Equal(t, "Mar 10", series.Labels[7])
	assert.Len(t, series.Series, 4)
	assert.Len(t, series.Series[pricing.SourceYourPrice], 8)

	w = do(r, http.MethodGet, "/api/products/1/history?days=365", "")
	require.Equal(t, http.StatusOK, w.Code)
	series = decode[pricing.ChartSeries](t, w)
	require.Len(t, series.Labels, 366)
	assert.Equal(t, "Mar 11, 2023", series.Labels[0])
	assert.Equal(t, "Mar 10, 2024", series.Labels[365])
	assert.Len(t, series.Series[pricing.SourceYourPrice], 366)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/products/1/history?days=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/products/1/history?days=x", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/products/1/history?days=366", "").Code)

	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/products/1/history/seed?days=3", "").Code)
}

func TestCatalogEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/competitor-data", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	createViaAPI(t, r, "FITBIT-V3")

	w = do(r, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["Wearables"]`, w.Body.String())

	w = do(r, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[pricing.Stats](t, w)
	assert.Equal(t, 1, st.TotalProducts)

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/optimize-prices", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/optimize-prices/1", "").Code)

	w = do(r, http.MethodPost, "/api/competitor-data/refresh", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	quotes := decode[[]pricing.CompetitorQuote](t, w)
	assert.Len(t, quotes, 3)

	assert.Equal(t, http.StatusOK, do(r, http.MethodDelete, "/api/products/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/products/1", "").Code)
}

func TestRequestIDAndOpsEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))

	w = do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := pricing.NewService(NewMemoryStore(fixedClock), pricing.Options{Clock: fixedClock})
	log := logger.Nop().WithComponent("http")
	r := NewRouter(NewHandler(svc, log), log, RateLimit(0.001, 2))

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/healthz", "").Code)
}
