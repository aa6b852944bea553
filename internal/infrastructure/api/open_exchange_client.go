package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/damon-houk/notion-rate-sync/internal/domain/entity"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/logger"
)

const (
	openExchangeBaseURL = "https://open.er-api.com"
	latestUSDPath       = "/v6/latest/USD"
	openExchangeService = "open_exchange"
	referenceCurrency   = entity.CurrencyCode("USD")
)

// errNoReferenceRate is returned when neither the table nor the config knows BYN per USD
var errNoReferenceRate = errors.New("no USD reference rate: table has no BYN entry and none is configured")

// openExchangeResponse is the subset of the latest-rates payload we read.
// Rates stay untyped so a single malformed entry does not fail the decode.
type openExchangeResponse struct {
	Result   string                 `json:"result"`
	BaseCode string                 `json:"base_code"`
	Rates    map[string]interface{} `json:"rates"`
}

// OpenExchangeClient fetches a USD-based rate table and converts it to
// local units per foreign unit via the USD cross-rate
type OpenExchangeClient struct {
	baseURL          string
	usdReferenceRate float64
	httpClient       *http.Client
	logger           logger.Logger
}

// NewOpenExchangeClient creates a new client. usdReferenceRate is the BYN per
// USD rate used when the fetched table has no BYN entry; 0 disables it.
func NewOpenExchangeClient(baseURL string, usdReferenceRate float64, httpClient *http.Client, log logger.Logger) *OpenExchangeClient {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 15 * time.Second,
		}
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if baseURL == "" {
		baseURL = openExchangeBaseURL
	}

	return &OpenExchangeClient{
		baseURL:          baseURL,
		usdReferenceRate: usdReferenceRate,
		httpClient:       httpClient,
		logger:           log.WithField("provider", openExchangeService),
	}
}

// FetchRates returns BYN per 1 unit for every currency in the table,
// computed as (BYN per USD) / (currency per USD)
func (c *OpenExchangeClient) FetchRates(ctx context.Context) (map[entity.CurrencyCode]float64, error) {
	var resp openExchangeResponse
	if err := doJSON(ctx, c.httpClient, openExchangeService, http.MethodGet, c.baseURL+latestUSDPath, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch USD rate table: %w", err)
	}

	if resp.Result != "success" {
		return nil, fmt.Errorf("USD rate table request was not successful: result %q", resp.Result)
	}
	if len(resp.Rates) == 0 {
		return nil, errors.New("USD rate table is empty")
	}

	localPerUSD, err := c.localPerUSD(resp.Rates)
	if err != nil {
		return nil, err
	}

	rates := make(map[entity.CurrencyCode]float64, len(resp.Rates))
	skipped := 0

	for field, raw := range resp.Rates {
		code, err := entity.ParseCurrencyCode(field)
		if err != nil || code.IsLocal() {
			continue
		}

		foreignPerUSD, ok := parseRate(raw)
		if !ok {
			skipped++
			continue
		}

		rates[code] = entity.CrossRate(localPerUSD, foreignPerUSD)
	}
	rates[referenceCurrency] = entity.RoundRate(localPerUSD)

	c.logger.Debug("Computed cross rates from USD table", map[string]interface{}{
		"rates":       len(rates),
		"skipped":     skipped,
		"byn_per_usd": localPerUSD,
	})

	return rates, nil
}

func (c *OpenExchangeClient) localPerUSD(table map[string]interface{}) (float64, error) {
	if raw, ok := table[string(entity.LocalCurrency)]; ok {
		if rate, ok := parseRate(raw); ok {
			return rate, nil
		}
	}

	if c.usdReferenceRate > 0 {
		c.logger.Warn("USD table has no BYN rate, using configured reference rate", map[string]interface{}{
			"byn_per_usd": c.usdReferenceRate,
		})
		return c.usdReferenceRate, nil
	}

	return 0, errNoReferenceRate
}
