package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/damon-houk/currency-converter/internal/application/service"
	"github.com/damon-houk/currency-converter/internal/domain/entity"
	domain "github.com/damon-houk/currency-converter/internal/domain/service"
	"github.com/damon-houk/currency-converter/internal/infrastructure/api"
	"github.com/damon-houk/currency-converter/internal/infrastructure/cache"
	"github.com/damon-houk/currency-converter/internal/infrastructure/db"
	"github.com/damon-houk/currency-converter/internal/infrastructure/handler"
	"github.com/damon-houk/currency-converter/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestServer creates a test server backed by an in-memory store and the given rate endpoint
func setupTestServer(t *testing.T, ratesHandler http.HandlerFunc) *httptest.Server {
	t.Helper()

	rates := httptest.NewServer(ratesHandler)
	t.Cleanup(rates.Close)

	store, err := db.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := logger.NewJSONLogger(&bytes.Buffer{}, logger.DebugLevel)
	provider := api.NewFallbackRateProvider([]domain.RateSource{
		api.NewHTTPRateSource(rates.URL, rates.Client(), 1, log),
	}, nil, log)

	svc := service.NewConverterService(provider, db.NewBadgerHistoryRepository(store, log), db.NewBadgerRateSnapshotRepository(store, log), log)
	svc.Initialize(context.Background())

	server := httptest.NewServer(handler.NewRouter(svc, log))
	t.Cleanup(server.Close)

	return server
}

func liveRates(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"base":"USD","date":"2024-03-01","rates":{"USD":1,"EUR":0.9,"GBP":0.8}}`))
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return resp
}

func TestConvertEndpoint(t *testing.T) {
	server := setupTestServer(t, liveRates)

	t.Run("Numeric amount", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/convert", `{"amount":100,"from":"USD","to":"EUR"}`)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

		var body handler.ConversionResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.InDelta(t, 90.0, body.ConvertedAmount, 1e-9)
		assert.InDelta(t, 0.9, body.EffectiveRate, 1e-12)
		assert.Equal(t, "90.00 EUR", body.Display.Headline)
		assert.Equal(t, entity.StatusLive, body.Rates.Freshness.Status)
		assert.NotEmpty(t, body.HistoryID)
	})

	t.Run("String amount", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/convert", `{"amount":"50","from":"eur","to":"gbp"}`)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body handler.ConversionResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "EUR", body.From)
		assert.InDelta(t, 50/0.9*0.8, body.ConvertedAmount, 1e-9)
	})

	errorCases := []struct {
		name    string
		body    string
		message string
	}{
		{"Zero amount", `{"amount":0,"from":"USD","to":"EUR"}`, "Enter an amount to convert"},
		{"Missing amount", `{"from":"USD","to":"EUR"}`, "Enter an amount to convert"},
		{"Non-numeric amount", `{"amount":"abc","from":"USD","to":"EUR"}`, "Enter an amount to convert"},
		{"Unknown currency", `{"amount":10,"from":"XYZ","to":"EUR"}`, "Currency not supported"},
		{"Bad JSON", `{"amount":`, "Invalid request body"},
		{"Amount too large", `{"amount":"1.7e308","from":"GBP","to":"USD"}`, "Enter an amount to convert"},
		{"Amount of the wrong type", `{"amount":true,"from":"USD","to":"EUR"}`, "Invalid request body"},
	}

	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, server.URL+"/convert", tc.body)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body handler.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.message, body.Error)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestSwapEndpoint(t *testing.T) {
	server := setupTestServer(t, liveRates)

	resp := postJSON(t, server.URL+"/swap", `{"amount":"100","from":"USD","to":"EUR"}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body handler.ConversionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "EUR", body.From)
	assert.Equal(t, "USD", body.To)
	assert.Equal(t, 90.0, body.Amount)
	assert.InDelta(t, 100.0, body.ConvertedAmount, 1e-9)
}

func TestRatesEndpoints(t *testing.T) {
	server := setupTestServer(t, liveRates)

	resp, err := http.Get(server.URL + "/rates")
	require.NoError(t, err)
	defer resp.Body.Close()

	var rates handler.RatesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rates))
	assert.Equal(t, "USD", rates.Base)
	assert.Equal(t, 0.9, rates.Rates["EUR"])
	assert.Equal(t, entity.StatusLive, rates.Status.Freshness.Status)
	assert.Equal(t, "2024-03-01", rates.Status.RatesDate)

	resp2, err := http.Post(server.URL+"/rates/refresh", "application/json", nil)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	resp3, err := http.Get(server.URL + "/currencies")
	require.NoError(t, err)
	defer resp3.Body.Close()

	var currencies handler.CurrenciesResponse
	require.NoError(t, json.NewDecoder(resp3.Body).Decode(&currencies))
	assert.Equal(t, []string{"EUR", "GBP", "USD"}, currencies.Currencies)
}

func TestRefreshBypassesRateCache(t *testing.T) {
	var hits int32
	rates := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		liveRates(w, r)
	}))
	defer rates.Close()

	store, err := db.Open("")
	require.NoError(t, err)
	defer store.Close()

	log := logger.NewJSONLogger(&bytes.Buffer{}, logger.DebugLevel)
	provider := api.NewFallbackRateProvider([]domain.RateSource{
		api.NewHTTPRateSource(rates.URL, rates.Client(), 1, log),
	}, cache.NewExchangeRateCache(1024*1024, time.Hour), log)

	svc := service.NewConverterService(provider, db.NewBadgerHistoryRepository(store, log), nil, log)
	svc.Initialize(context.Background())
	// a scheduled refresh inside the TTL is served from the cache
	svc.Refresh(context.Background())
	require.Equal(t, int32(1), atomic.LoadInt32(&hits))

	server := httptest.NewServer(handler.NewRouter(svc, log))
	defer server.Close()

	resp, err := http.Post(server.URL+"/rates/refresh", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestOfflineMode(t *testing.T) {
	server := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	resp, err := http.Post(server.URL+"/rates/refresh", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rates handler.RatesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rates))
	assert.True(t, rates.Status.Degraded)
	assert.Equal(t, entity.StatusOffline, rates.Status.Freshness.Status)
	assert.Equal(t, api.StaticSourceName, rates.Status.Source)

	// the static snapshot still converts
	resp2 := postJSON(t, server.URL+"/convert", `{"amount":100,"from":"USD","to":"EUR"}`)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var body handler.ConversionResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&body))
	assert.InDelta(t, 85.0, body.ConvertedAmount, 1e-9)
	assert.Equal(t, "Using offline rates. Connect to internet for live rates.", body.RateInfo.Status)
}

func TestHistoryEndpoints(t *testing.T) {
	server := setupTestServer(t, liveRates)

	for _, amount := range []string{"1", "2", "3"} {
		resp := postJSON(t, server.URL+"/convert", `{"amount":"`+amount+`","from":"USD","to":"EUR"}`)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := http.Get(server.URL + "/history")
	require.NoError(t, err)
	defer resp.Body.Close()

	var history handler.HistoryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	require.Equal(t, 3, history.Count)
	assert.Equal(t, 1.0, history.Entries[0].FromAmount)
	assert.Equal(t, 3.0, history.Entries[2].FromAmount)
	assert.Contains(t, history.Entries[0].Display, "1 USD -> 0.90 EUR @ 0.9000")

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/history", nil)
	require.NoError(t, err)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp2.StatusCode)

	resp3, err := http.Get(server.URL + "/history")
	require.NoError(t, err)
	defer resp3.Body.Close()

	var cleared handler.HistoryResponse
	require.NoError(t, json.NewDecoder(resp3.Body).Decode(&cleared))
	assert.Equal(t, 0, cleared.Count)
	assert.Empty(t, cleared.Entries)
}
