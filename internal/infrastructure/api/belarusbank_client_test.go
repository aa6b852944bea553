// internal/infrastructure/api/belarusbank_client_test.go
package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/damon-houk/notion-rate-sync/internal/domain/entity"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBankServer(t *testing.T, status int, body string) (*httptest.Server, *int) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, kursExchangePath, r.URL.Path)
		assert.Equal(t, "Минск", r.URL.Query().Get("city"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newTestBankClient(url, quote string) *BelarusbankClient {
	return NewBelarusbankClient(
		BelarusbankConfig{BaseURL: url, Quote: quote},
		nil,
		logger.NewJSONLogger(nil, logger.ErrorLevel),
	)
}

func TestBelarusbankFetchRates(t *testing.T) {
	server, calls := newBankServer(t, http.StatusOK, `[
		{
			"USD_in": "3.2000", "USD_out": "3.2500",
			"EUR_in": 3.45, "EUR_out": "3.51",
			"RUB_in": "3.4000",
			"GBP_in": "",
			"CNY_in": "4,3",
			"PLN_in": "abc",
			"filial_id": "1"
		},
		{"USD_in": "9.9999"}
	]`)

	client := newTestBankClient(server.URL, "in")
	rates, err := client.FetchRates(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, *calls)
	assert.Equal(t, map[entity.CurrencyCode]float64{
		"USD": 3.2,
		"EUR": 3.45,
		"RUB": 0.034,
		"CNY": 0.43,
	}, rates)
}

func TestBelarusbankSellQuote(t *testing.T) {
	server, _ := newBankServer(t, http.StatusOK, `[{"USD_in": "3.20", "USD_out": "3.141592"}]`)

	client := newTestBankClient(server.URL, "out")
	rates, err := client.FetchRates(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3.1416, rates["USD"])
}

func TestBelarusbankMalformedResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"Empty array", http.StatusOK, `[]`},
		{"Object instead of array", http.StatusOK, `{"error": "maintenance"}`},
		{"Branch without rate fields", http.StatusOK, `[{"error": "maintenance"}]`},
		{"Only unparseable rates", http.StatusOK, `[{"USD_in": "", "EUR_in": "n/a"}]`},
		{"Not JSON", http.StatusOK, `<html>502</html>`},
		{"Server error", http.StatusBadGateway, `bad gateway`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newBankServer(t, tt.status, tt.body)

			client := newTestBankClient(server.URL, "in")
			rates, err := client.FetchRates(context.Background())

			assert.Error(t, err)
			assert.Nil(t, rates)
		})
	}
}

func TestBelarusbankTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`[{"USD_in": "3.2"}]`))
	}))
	defer server.Close()

	client := NewBelarusbankClient(
		BelarusbankConfig{BaseURL: server.URL},
		&http.Client{Timeout: 20 * time.Millisecond},
		logger.NewJSONLogger(nil, logger.ErrorLevel),
	)

	_, err := client.FetchRates(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute request")
}

func TestBelarusbankPing(t *testing.T) {
	server, _ := newBankServer(t, http.StatusOK, `[{"USD_in": "3.2"}]`)
	assert.NoError(t, newTestBankClient(server.URL, "in").Ping(context.Background()))

	empty, _ := newBankServer(t, http.StatusOK, `[]`)
	assert.ErrorIs(t, newTestBankClient(empty.URL, "in").Ping(context.Background()), errMalformedBankResponse)
}
