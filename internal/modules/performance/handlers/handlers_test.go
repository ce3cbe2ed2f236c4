package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthmax/insight/internal/modules/performance"
)

func newTestRouter() chi.Router {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	service := performance.NewService(nil, nil, log)
	handler := NewHandler(service, log)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func postXIRR(t *testing.T, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/performance/xirr", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var envelope map[string]interface{}
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	}
	return rec, envelope
}

func TestHandleComputeXIRR(t *testing.T) {
	rec, envelope := postXIRR(t, `{
		"cash_flows": [
			{"date": "2023-01-01", "amount": -10000},
			{"date": "2024-01-01", "amount": 15000}
		]
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	data, ok := envelope["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["available"])
	assert.InDelta(t, 0.50, data["xirr"].(float64), 0.01)
	assert.InDelta(t, 50.0, data["xirr_pct"].(float64), 1.0)

	metadata, ok := envelope["metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, metadata["timestamp"])
}

func TestHandleComputeXIRR_InsufficientFlows(t *testing.T) {
	// Outflows only cannot produce a rate; the endpoint reports
	// unavailability instead of failing.
	rec, envelope := postXIRR(t, `{
		"cash_flows": [
			{"date": "2023-01-01", "amount": -10000},
			{"date": "2023-06-01", "amount": -5000}
		]
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	data, ok := envelope["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, data["available"])
	assert.NotEmpty(t, data["reason"])
}

func TestHandleComputeXIRR_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"cash_flows": [`},
		{"bad date", `{"cash_flows": [{"date": "01/01/2023", "amount": -100}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := postXIRR(t, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRollingReturns_InvalidWindow(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/portfolios/p1/performance/rolling?window=zero", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
