package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/cache"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/domain"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/events"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/metrics"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/service"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/store/memory"
)

// newTestAPI builds a full API over the seeded in-memory store so handler
// tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	registry := prometheus.NewRegistry()
	svc := service.New(repo, cache.NoopProductCache{}, events.NoopPublisher{}, metrics.NewSaleMetrics(registry), zap.NewNop())
	auth := NewAuthManager("test-secret-key-with-32-characters", time.Hour, repo, zap.NewNop())

	return New(svc, auth, "*", zap.NewNop(), promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}

func tokenFor(t *testing.T, api *API, username, password string) string {
	t.Helper()
	resp, err := api.auth.Login(context.Background(), domain.LoginRequest{Username: username, Password: password})
	require.NoError(t, err)
	return resp.AccessToken
}

func sellerToken(t *testing.T, api *API) string {
	return tokenFor(t, api, "seller", "seller123")
}

func managerToken(t *testing.T, api *API) string {
	return tokenFor(t, api, "manager", "manager123")
}

func do(t *testing.T, api *API, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload == nil {
		body = bytes.NewReader(nil)
	} else {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), "body: %s", rec.Body.String())
	return out
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := do(t, api, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, true, body["ok"])
}

func TestHandleLogin(t *testing.T) {
	api := newTestAPI(t)

	rec := do(t, api, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Username: "seller", Password: "seller123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[domain.LoginResponse](t, rec)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, domain.RoleSeller, resp.Role)

	rec = do(t, api, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Username: "seller", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)

	rec := do(t, api, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, api, http.MethodGet, "/api/v1/products", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestManagerRoutesForbidSeller(t *testing.T) {
	api := newTestAPI(t)
	token := sellerToken(t, api)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/sales/pending"},
		{http.MethodPost, "/api/v1/sales/any/approve"},
		{http.MethodGet, "/api/v1/sales/any/profit"},
		{http.MethodPost, "/api/v1/products"},
		{http.MethodPost, "/api/v1/customers"},
		{http.MethodGet, "/api/v1/users/sellers"},
		{http.MethodPost, "/api/v1/debt-ledger/any/reversal"},
	} {
		rec := do(t, api, tc.method, tc.path, token, map[string]any{})
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestListAndGetProducts(t *testing.T) {
	api := newTestAPI(t)
	token := sellerToken(t, api)

	rec := do(t, api, http.MethodGet, "/api/v1/products?in_stock=true", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[struct {
		Products []domain.Product `json:"products"`
	}](t, rec)
	assert.Len(t, list.Products, 4)

	rec = do(t, api, http.MethodGet, "/api/v1/products/PRD-TEA", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[struct {
		Product domain.Product `json:"product"`
	}](t, rec)
	assert.EqualValues(t, 63, got.Product.TotalPieces)

	rec = do(t, api, http.MethodGet, "/api/v1/products/PRD-NOPE", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody[map[string]any](t, rec)["code"])
}

func TestCreateSaleCommitsAndReplays(t *testing.T) {
	api := newTestAPI(t)
	token := sellerToken(t, api)
	req := map[string]any{
		"items":           []map[string]any{{"product_id": "PRD-TEA", "quantity": 15}},
		"payment_method":  "cash",
		"payment_amount":  120000,
		"idempotency_key": "till-1-0001",
	}

	rec := do(t, api, http.MethodPost, "/api/v1/sales", token, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decodeBody[domain.SaleResult](t, rec)
	assert.Equal(t, domain.SaleStatusFinal, first.Sale.Status)
	require.Len(t, first.Sale.Items, 1)
	assert.EqualValues(t, 1, first.Sale.Items[0].PackagesSold)
	assert.EqualValues(t, 3, first.Sale.Items[0].PiecesSold)

	rec = do(t, api, http.MethodPost, "/api/v1/sales", token, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := decodeBody[domain.SaleResult](t, rec)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Sale.ID, second.Sale.ID)

	rec = do(t, api, http.MethodGet, "/api/v1/sales/"+first.Sale.ID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateSaleErrorMapping(t *testing.T) {
	api := newTestAPI(t)
	token := sellerToken(t, api)

	cases := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{
			name:   "out of stock",
			body:   map[string]any{"items": []map[string]any{{"product_id": "PRD-SOAP", "quantity": 1}}, "payment_method": "cash", "payment_amount": 4000},
			status: http.StatusConflict,
			code:   "out_of_stock",
		},
		{
			name:   "insufficient stock",
			body:   map[string]any{"items": []map[string]any{{"product_id": "PRD-RICE", "quantity": 13}}, "payment_method": "cash", "payment_amount": 13 * 52000},
			status: http.StatusConflict,
			code:   "insufficient_stock",
		},
		{
			name:   "payment required",
			body:   map[string]any{"items": []map[string]any{{"product_id": "PRD-TEA", "quantity": 1}}, "payment_method": "cash"},
			status: http.StatusUnprocessableEntity,
			code:   "payment_required",
		},
		{
			name:   "walk-in debt",
			body:   map[string]any{"items": []map[string]any{{"product_id": "PRD-TEA", "quantity": 1}}, "payment_method": "cash", "payment_amount": 1000},
			status: http.StatusBadRequest,
			code:   "customer_required",
		},
		{
			name:   "unknown customer",
			body:   map[string]any{"customer_id": "CUS-NOPE", "items": []map[string]any{{"product_id": "PRD-TEA", "quantity": 1}}, "payment_method": "cash", "payment_amount": 8000},
			status: http.StatusNotFound,
			code:   "not_found",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, api, http.MethodPost, "/api/v1/sales", token, tc.body)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, decodeBody[map[string]any](t, rec)["code"])
		})
	}
}

func TestCreateSaleStockErrorNamesProduct(t *testing.T) {
	api := newTestAPI(t)

	rec := do(t, api, http.MethodPost, "/api/v1/sales", sellerToken(t, api), map[string]any{
		"items":          []map[string]any{{"product_id": "PRD-SOAP", "quantity": 1}},
		"payment_method": "cash",
		"payment_amount": 4000,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "PRD-SOAP", decodeBody[map[string]any](t, rec)["product_id"])
}

func TestCreateSaleValidation(t *testing.T) {
	api := newTestAPI(t)
	token := sellerToken(t, api)

	rec := do(t, api, http.MethodPost, "/api/v1/sales", token, map[string]any{"items": []any{}, "payment_method": "cash"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[map[string]any](t, rec)["error"], "items")

	rec = do(t, api, http.MethodPost, "/api/v1/sales", token, map[string]any{
		"items":          []map[string]any{{"product_id": "PRD-TEA", "quantity": 0}},
		"payment_method": "cash",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[map[string]any](t, rec)["error"], "items[0].quantity")

	rec = do(t, api, http.MethodPost, "/api/v1/sales", token, map[string]any{
		"items":          []map[string]any{{"product_id": "PRD-TEA", "quantity": 1}},
		"payment_method": "cash",
		"discount":       100,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, api, http.MethodPost, "/api/v1/sales", token, map[string]any{
		"items":          []map[string]any{{"product_id": "PRD-TEA", "quantity": 1}},
		"payment_method": "cash",
		"excess_action":  "donate",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPromotedSaleApprovalFlow(t *testing.T) {
	api := newTestAPI(t)
	seller := sellerToken(t, api)
	manager := managerToken(t, api)

	rec := do(t, api, http.MethodPost, "/api/v1/sales", seller, map[string]any{
		"customer_id":    "CUS-REGULAR",
		"items":          []map[string]any{{"product_id": "PRD-TEA", "quantity": 10}},
		"payment_method": "cash",
		"payment_amount": 40000,
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	created := decodeBody[domain.SaleResult](t, rec)
	assert.True(t, created.Promoted)
	assert.Equal(t, "debt_limit_exceeded", created.PromotionReason)
	assert.Equal(t, domain.SaleStatusPending, created.Sale.Status)

	rec = do(t, api, http.MethodGet, "/api/v1/sales/pending", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decodeBody[struct {
		Sales []domain.Sale `json:"sales"`
	}](t, rec)
	require.Len(t, pending.Sales, 1)
	assert.Equal(t, created.Sale.ID, pending.Sales[0].ID)

	rec = do(t, api, http.MethodPost, "/api/v1/sales/"+created.Sale.ID+"/approve", manager, map[string]any{"approved": true, "note": "known customer"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decided := decodeBody[domain.SaleResult](t, rec)
	assert.Equal(t, domain.SaleStatusApproved, decided.Sale.Status)
	require.NotNil(t, decided.LedgerEntry)
	assert.EqualValues(t, -40000, decided.LedgerEntry.Amount)
	assert.EqualValues(t, 40000, decided.LedgerEntry.BalanceAfter)

	rec = do(t, api, http.MethodPost, "/api/v1/sales/"+created.Sale.ID+"/approve", manager, map[string]any{"approved": false})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_decided", decodeBody[map[string]any](t, rec)["code"])

	rec = do(t, api, http.MethodGet, "/api/v1/products/PRD-TEA", seller, nil)
	got := decodeBody[struct {
		Product domain.Product `json:"product"`
	}](t, rec)
	assert.EqualValues(t, 53, got.Product.TotalPieces)
}

func TestDecideSaleRequiresApprovedFlag(t *testing.T) {
	api := newTestAPI(t)

	rec := do(t, api, http.MethodPost, "/api/v1/sales/any/approve", managerToken(t, api), map[string]any{"note": "?"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[map[string]any](t, rec)["error"], "approved")
}

func TestSaleProfitForManager(t *testing.T) {
	api := newTestAPI(t)
	seller := sellerToken(t, api)

	rec := do(t, api, http.MethodPost, "/api/v1/sales", seller, map[string]any{
		"items":          []map[string]any{{"product_id": "PRD-SUGAR", "quantity": 2}},
		"payment_method": "cash",
		"payment_amount": 26000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sale := decodeBody[domain.SaleResult](t, rec).Sale

	rec = do(t, api, http.MethodGet, "/api/v1/sales/"+sale.ID+"/profit", managerToken(t, api), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	profit := decodeBody[domain.SaleProfit](t, rec)
	assert.EqualValues(t, 26000, profit.Revenue)
	assert.EqualValues(t, 18000, profit.Cost)
	assert.EqualValues(t, 8000, profit.Profit)
}

func TestDebtPaymentHistoryAndReversal(t *testing.T) {
	api := newTestAPI(t)
	seller := sellerToken(t, api)
	manager := managerToken(t, api)

	rec := do(t, api, http.MethodPost, "/api/v1/customers/CUS-RETAIL/debt-payments", seller, map[string]any{"amount": 5000})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	payment := decodeBody[struct {
		Entry domain.DebtLedgerEntry `json:"entry"`
	}](t, rec).Entry
	assert.EqualValues(t, 15000, payment.BalanceAfter)

	rec = do(t, api, http.MethodPost, "/api/v1/customers/CUS-RETAIL/debt-payments", seller, map[string]any{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, api, http.MethodPost, "/api/v1/debt-ledger/"+payment.ID+"/reversal", manager, map[string]any{"reason": "wrong customer"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, api, http.MethodPost, "/api/v1/debt-ledger/"+payment.ID+"/reversal", manager, map[string]any{"reason": "again"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, api, http.MethodGet, "/api/v1/customers/CUS-RETAIL/debt-history?limit=10", seller, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decodeBody[struct {
		Entries []domain.DebtLedgerEntry `json:"entries"`
	}](t, rec).Entries
	require.Len(t, history, 3)
	assert.Equal(t, domain.LedgerTypeReversal, history[2].TransactionType)
	assert.EqualValues(t, 20000, history[2].BalanceAfter)
}

func TestCustomersEndpoints(t *testing.T) {
	api := newTestAPI(t)
	manager := managerToken(t, api)

	rec := do(t, api, http.MethodPost, "/api/v1/customers", manager, map[string]any{
		"name":          "Dilshod",
		"customer_type": "retail",
		"debt_limit":    100000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[struct {
		Customer domain.Customer `json:"customer"`
	}](t, rec).Customer
	require.NotNil(t, created.DebtLimit)
	assert.EqualValues(t, 100000, *created.DebtLimit)

	rec = do(t, api, http.MethodPost, "/api/v1/customers", manager, map[string]any{"name": "X", "customer_type": "vip"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, api, http.MethodGet, "/api/v1/customers/"+created.ID, sellerToken(t, api), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, api, http.MethodGet, "/api/v1/customers", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[struct {
		Customers []domain.Customer `json:"customers"`
	}](t, rec).Customers
	assert.Len(t, list, 4)
}

func TestCreateProductRejectsZeroPackaging(t *testing.T) {
	api := newTestAPI(t)

	rec := do(t, api, http.MethodPost, "/api/v1/products", managerToken(t, api), map[string]any{
		"name":               "Broken",
		"pieces_per_package": 0,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_configuration", decodeBody[map[string]any](t, rec)["code"])
}

func TestCreateProductRejectsOutOfRangeValues(t *testing.T) {
	api := newTestAPI(t)

	rec := do(t, api, http.MethodPost, "/api/v1/products", managerToken(t, api), map[string]any{
		"name":               "Pricey",
		"pieces_per_package": 4,
		"packages_in_stock":  1,
		"regular_price":      int64(1) << 62,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "regular_price: must be at most 1000000000000")

	rec = do(t, api, http.MethodPost, "/api/v1/products", managerToken(t, api), map[string]any{
		"name":               "Huge",
		"pieces_per_package": 4,
		"packages_in_stock":  int64(1)<<62 + 1,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "packages_in_stock: must be at most 1000000000")
}

func TestSellerAccounts(t *testing.T) {
	api := newTestAPI(t)
	manager := managerToken(t, api)

	rec := do(t, api, http.MethodPost, "/api/v1/users/sellers", manager, domain.SellerCreateRequest{Username: "kassir2", Password: "pass1234"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, api, http.MethodPost, "/api/v1/users/sellers", manager, domain.SellerCreateRequest{Username: "kassir2", Password: "pass1234"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, api, http.MethodGet, "/api/v1/users/sellers", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sellers := decodeBody[struct {
		Sellers []domain.SellerUser `json:"sellers"`
	}](t, rec).Sellers
	names := make([]string, 0, len(sellers))
	for _, s := range sellers {
		names = append(names, s.Username)
	}
	assert.Equal(t, []string{"kassir2", "seller"}, names)

	token := tokenFor(t, api, "kassir2", "pass1234")
	rec = do(t, api, http.MethodGet, "/api/v1/products", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpointExposesSaleCounters(t *testing.T) {
	api := newTestAPI(t)

	rec := do(t, api, http.MethodPost, "/api/v1/sales", sellerToken(t, api), map[string]any{
		"items":          []map[string]any{{"product_id": "PRD-TEA", "quantity": 1}},
		"payment_method": "cash",
		"payment_amount": 8000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, api, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `sales_created_total{status="final"} 1`), rec.Body.String())
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	api := newTestAPI(t)

	rec := do(t, api, http.MethodGet, "/api/v1/nothing-here", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
