package v1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestcom/internal/domain/documents"
	"gestcom/internal/domain/reports"
	"gestcom/internal/domain/settings"
	"gestcom/internal/infrastructure/cache"
	v1 "gestcom/internal/infrastructure/http/v1"
	"gestcom/internal/infrastructure/numerator"
	"gestcom/internal/infrastructure/storage/memory"
	"gestcom/pkg/logger"
)

const invoiceBody = `{
	"date": "2024-09-02",
	"partyId": "CLI-001",
	"invoice": {"paymentMethod": "cib"},
	"lines": [
		{"productId": "P-100", "quantity": 5, "unitPrice": "45.500", "discount": 0, "discountType": "percentage"},
		{"productId": "P-200", "quantity": 50, "unitPrice": "35", "discount": 10}
	]
}`

type apiFixture struct {
	t      *testing.T
	server http.Handler
	store  *memory.DocumentStore
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()

	conditions, err := settings.NewConditionEvaluator()
	require.NoError(t, err)
	settingsSvc := settings.NewService(cache.NewSettingsRepository(memory.NewSettingsStore(), time.Minute), conditions)

	store := memory.NewDocumentStore()
	docs := documents.NewService(documents.ServiceConfig{
		Repo:      store,
		Numerator: numerator.New(memory.NewSequencer()),
		Rates:     settingsSvc,
	})
	history := memory.NewHistoryLog()
	documents.RecordHistory(docs.Hooks(), history.Record)

	router := v1.NewRouter(v1.RouterConfig{
		Logger:      logger.Nop(),
		Documents:   docs,
		Settings:    settingsSvc,
		Reports:     reports.NewService(store),
		History:     history,
		Idempotency: cache.NewIdempotencyStore(time.Hour),
		Storage:     "memory",
		Version:     "test",
	})
	return &apiFixture{t: t, server: router, store: store}
}

func (f *apiFixture) do(method, path, body string, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	f.t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestCreateInvoice(t *testing.T) {
	api := newAPI(t)

	rec, body := api.do(http.MethodPost, "/api/v1/documents/invoice", invoiceBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, "FAC2024-0001", body["id"])
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "0.19", body["vatRate"])

	tot := body["totals"].(map[string]any)
	assert.Equal(t, "1802.500", tot["subtotal"])
	assert.Equal(t, "342.475", tot["vat"])
	assert.Equal(t, "1.000", tot["fiscalStamp"])
	assert.Equal(t, "2145.975", tot["total"])
	assert.Contains(t, tot["display"].(map[string]any)["total"], "TND")

	lines := body["lines"].([]any)
	require.Len(t, lines, 2)
	second := lines[1].(map[string]any)
	assert.Equal(t, "175.000", second["discountAmount"])
	assert.Equal(t, "percentage", second["discountType"])

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestDocumentLifecycle(t *testing.T) {
	api := newAPI(t)

	rec, _ := api.do(http.MethodPost, "/api/v1/documents/FAC", invoiceBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, got := api.do(http.MethodGet, "/api/v1/documents/invoices/FAC2024-0001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, got["version"])

	update := `{"date":"2024-09-02","partyId":"CLI-001","status":"completed","version":1,
		"lines":[{"productId":"P-100","quantity":2,"unitPrice":"100"}]}`
	rec, got = api.do(http.MethodPut, "/api/v1/documents/invoice/FAC2024-0001", update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 2, got["version"])
	assert.Equal(t, "239.000", got["totals"].(map[string]any)["total"])

	rec, got = api.do(http.MethodPut, "/api/v1/documents/invoice/FAC2024-0001", update)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONCURRENT_MODIFICATION", got["code"])

	rec, got = api.do(http.MethodGet, "/api/v1/documents/invoice?status=completed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, got["totalCount"])

	rec, got = api.do(http.MethodDelete, "/api/v1/documents/invoice/FAC2024-0001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, got["deleted"])

	rec, got = api.do(http.MethodDelete, "/api/v1/documents/invoice/FAC2024-0001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, got["deleted"])

	rec, got = api.do(http.MethodGet, "/api/v1/documents/invoice/FAC2024-0001", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", got["code"])

	// Deleted references are never reissued.
	rec, got = api.do(http.MethodPost, "/api/v1/documents/invoice", invoiceBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "FAC2024-0002", got["id"])
}

func TestPreviewAndNextSequenceDoNotReserve(t *testing.T) {
	api := newAPI(t)

	rec, got := api.do(http.MethodPost, "/api/v1/documents/quote/preview", invoiceBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, got["id"])
	assert.Equal(t, "2144.975", got["totals"].(map[string]any)["total"])

	for i := 0; i < 2; i++ {
		rec, got = api.do(http.MethodGet, "/api/v1/documents/quote/next-sequence?date=2024-06-01", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "DEV2024-0001", got["reference"])
		assert.EqualValues(t, 1, got["sequence"])
	}
	assert.Equal(t, 0, api.store.Count(documents.KindQuote))
}

func TestErrors(t *testing.T) {
	api := newAPI(t)

	rec, got := api.do(http.MethodPost, "/api/v1/documents/bogus", invoiceBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNKNOWN_DOCUMENT_TYPE", got["code"])

	bad := `{"date":"2024-09-02","partyId":"CLI-001","lines":[{"productId":"P","quantity":0,"unitPrice":"10"}]}`
	rec, got = api.do(http.MethodPost, "/api/v1/documents/invoice", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", got["code"])

	lossy := `{"date":"2024-09-02","partyId":"CLI-001","lines":[{"productId":"P","quantity":1.23456,"unitPrice":"10"}]}`
	rec, got = api.do(http.MethodPost, "/api/v1/documents/invoice", lossy)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", got["code"])
	assert.Equal(t, "quantity", got["details"].(map[string]any)["field"])

	rec, got = api.do(http.MethodPost, "/api/v1/documents/invoice", `{"lines": [`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", got["code"])

	// The rejected invoice did not consume a reference.
	rec, got = api.do(http.MethodPost, "/api/v1/documents/invoice", invoiceBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "FAC2024-0001", got["id"])
}

func TestIdempotentCreate(t *testing.T) {
	api := newAPI(t)

	rec1, first := api.do(http.MethodPost, "/api/v1/documents/invoice", invoiceBody, "X-Idempotency-Key", "form-42")
	require.Equal(t, http.StatusCreated, rec1.Code)

	rec2, second := api.do(http.MethodPost, "/api/v1/documents/invoice", invoiceBody, "X-Idempotency-Key", "form-42")
	require.Equal(t, http.StatusCreated, rec2.Code)
	assert.Equal(t, "true", rec2.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, first["id"], second["id"])
	assert.Equal(t, 1, api.store.Count(documents.KindInvoice))

	rec3, got := api.do(http.MethodPost, "/api/v1/documents/invoice", `{"partyId":"X"}`, "X-Idempotency-Key", "form-42")
	assert.Equal(t, http.StatusConflict, rec3.Code)
	assert.Equal(t, "IDEMPOTENCY_CONFLICT", got["code"])
}

func TestTotalsEndpoints(t *testing.T) {
	api := newAPI(t)

	rec, got := api.do(http.MethodPost, "/api/v1/totals/line",
		`{"quantity": 2, "unitPrice": "100", "discount": "15", "discountType": "amount", "vatRate": "0.19"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "200.000", got["grossAmount"])
	assert.Equal(t, "185.000", got["netAmount"])
	assert.Equal(t, "35.150", got["vatAmount"])
	assert.Equal(t, "220.150", got["total"])

	rec, got = api.do(http.MethodPost, "/api/v1/totals/line", `{"quantity": 1, "unitPrice": "10", "discount": 120}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", got["code"])

	rec, got = api.do(http.MethodPost, "/api/v1/totals/document", `{"kind": "invoice",
		"lines": [{"quantity": 5, "unitPrice": "45.5"}, {"quantity": 50, "unitPrice": "35", "discount": 10}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2145.975", got["totals"].(map[string]any)["total"])
	assert.Len(t, got["lines"], 2)
}

func TestSettingsAndReports(t *testing.T) {
	api := newAPI(t)

	rec, got := api.do(http.MethodPost, "/api/v1/settings/vat-rates",
		`{"name": "Réduit", "rate": "0.07", "active": true, "effectiveFrom": "2024-01-01T00:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, got["id"])

	rec, got = api.do(http.MethodGet, "/api/v1/settings/resolve?date=2024-09-02", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0.07", got["vatRate"])
	assert.Equal(t, "1.000", got["fiscalStamp"])

	rec, _ = api.do(http.MethodPost, "/api/v1/settings/discount-rules",
		`{"name": "Bulk", "type": "quantity", "discountPercent": "5", "active": true, "condition": "quantity >= 100.0"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, got = api.do(http.MethodPost, "/api/v1/settings/discount-rules/match",
		`{"clientType": "retail", "quantity": 120, "amount": "1000"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, got["rules"], 1)
	assert.Equal(t, "50.000", got["best"].(map[string]any)["discount"])

	rec, _ = api.do(http.MethodPost, "/api/v1/documents/invoice", invoiceBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, got = api.do(http.MethodGet, "/api/v1/reports/sales?from=2024-09-01&to=2024-09-02", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := got["summary"].(map[string]any)
	// 1802.5 at 7% plus the stamp
	assert.Equal(t, "1929.675", summary["totalSales"])
	assert.Equal(t, "1929.675", summary["netSales"])

	rec, _ = api.do(http.MethodGet, "/api/v1/reports/sales?from=2024-09-03&to=2024-09-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductMargins(t *testing.T) {
	api := newAPI(t)

	rec, got := api.do(http.MethodPost, "/api/v1/settings/margins",
		`{"category": "Quincaillerie", "minMargin": "10", "targetMargin": "25", "maxMargin": "40"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, got["id"])

	rec, got = api.do(http.MethodPost, "/api/v1/settings/margins",
		`{"category": "Peinture", "minMargin": "30", "targetMargin": "20", "maxMargin": "40"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", got["code"])

	rec, _ = api.do(http.MethodGet, "/api/v1/settings/margins", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Quincaillerie", items[0]["category"])

	rec, got = api.do(http.MethodPost, "/api/v1/settings/margins/check",
		`{"category": "quincaillerie", "cost": "80", "price": "100"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "25.000", got["marginPercent"])
	assert.Equal(t, true, got["within"])
	assert.Equal(t, "100.000", got["targetPrice"])

	rec, _ = api.do(http.MethodPost, "/api/v1/settings/margins/check",
		`{"category": "Électricité", "cost": "80", "price": "100"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	api := newAPI(t)

	rec, got := api.do(http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", got["status"])

	rec, got = api.do(http.MethodGet, "/health/info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "memory", got["storage"])
}

func TestDocumentHistory(t *testing.T) {
	api := newAPI(t)

	rec, _ := api.do(http.MethodPost, "/api/v1/documents/invoice", invoiceBody, "X-Idempotency-Key", "form-42")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, _ = api.do(http.MethodDelete, "/api/v1/documents/invoice/FAC2024-0001", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.do(http.MethodGet, "/api/v1/documents/invoice/FAC2024-0001/history", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "delete", entries[0]["action"])
	assert.Equal(t, "create", entries[1]["action"])
	assert.Equal(t, "2145.975", entries[1]["total"])
	assert.Equal(t, "form-42", entries[1]["metadata"].(map[string]any)["idempotency_key"])

	rec, body := api.do(http.MethodGet, "/api/v1/documents/invoice/FAC2024-0099/history", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", body["code"])
}
