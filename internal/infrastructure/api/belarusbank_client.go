package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/damon-houk/notion-rate-sync/internal/domain/entity"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/logger"
)

const (
	belarusbankBaseURL = "https://belarusbank.by"
	kursExchangePath   = "/api/kursExchange"
	belarusbankService = "belarusbank"
	defaultBankCity    = "Минск"
	defaultBankQuote   = "in"
	defaultBankTimeout = 15 * time.Second
)

// errMalformedBankResponse is returned when the response is not a non-empty array
var errMalformedBankResponse = errors.New("malformed response from Belarusbank: expected a non-empty array")

// errNoBankRates is returned when the branch carries none of the known rate fields
var errNoBankRates = errors.New("Belarusbank response has no recognized rate fields")

// belarusbankScales lists how many units each quote covers; the bank quotes
// some currencies per 10 or 100 units
var belarusbankScales = map[entity.CurrencyCode]float64{
	"USD": 1,
	"EUR": 1,
	"GBP": 1,
	"RUB": 100,
	"CNY": 10,
	"PLN": 10,
	"UAH": 100,
}

// BelarusbankConfig configures the Belarusbank client
type BelarusbankConfig struct {
	BaseURL string
	City    string
	// Quote selects the buy ("in") or sell ("out") side of the bank's quotes
	Quote string
}

// BelarusbankClient fetches the bank's full rate table in one request
type BelarusbankClient struct {
	baseURL    string
	city       string
	quote      string
	httpClient *http.Client
	logger     logger.Logger
}

// NewBelarusbankClient creates a new Belarusbank API client
func NewBelarusbankClient(cfg BelarusbankConfig, httpClient *http.Client, log logger.Logger) *BelarusbankClient {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: defaultBankTimeout,
		}
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = belarusbankBaseURL
	}
	if cfg.City == "" {
		cfg.City = defaultBankCity
	}
	if cfg.Quote == "" {
		cfg.Quote = defaultBankQuote
	}

	return &BelarusbankClient{
		baseURL:    cfg.BaseURL,
		city:       cfg.City,
		quote:      cfg.Quote,
		httpClient: httpClient,
		logger:     log.WithField("provider", belarusbankService),
	}
}

// FetchRates returns BYN per 1 unit for every recognized currency in the
// bank's response. Missing or non-numeric fields are left out; a response
// with no usable field at all is an error so the cache keeps its rates.
func (c *BelarusbankClient) FetchRates(ctx context.Context) (map[entity.CurrencyCode]float64, error) {
	branches, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	branch := branches[0]
	rates := make(map[entity.CurrencyCode]float64, len(belarusbankScales))

	for code, scale := range belarusbankScales {
		field := fmt.Sprintf("%s_%s", code, c.quote)
		raw, ok := branch[field]
		if !ok {
			continue
		}

		rate, ok := parseRate(raw)
		if !ok {
			c.logger.Warn("Skipping unparseable bank rate", map[string]interface{}{
				"currency": code,
				"field":    field,
				"value":    raw,
			})
			continue
		}

		rates[code] = entity.RoundRate(rate / scale)
	}

	if len(rates) == 0 {
		return nil, errNoBankRates
	}

	c.logger.Debug("Parsed Belarusbank rates", map[string]interface{}{
		"rates": len(rates),
		"quote": c.quote,
	})

	return rates, nil
}

// Ping checks that the API answers with a usable rate table
func (c *BelarusbankClient) Ping(ctx context.Context) error {
	_, err := c.fetch(ctx)
	return err
}

func (c *BelarusbankClient) fetch(ctx context.Context) ([]map[string]interface{}, error) {
	query := url.Values{}
	query.Set("city", c.city)
	reqURL := c.baseURL + kursExchangePath + "?" + query.Encode()

	var branches []map[string]interface{}
	if err := doJSON(ctx, c.httpClient, belarusbankService, http.MethodGet, reqURL, nil, nil, &branches); err != nil {
		return nil, fmt.Errorf("failed to fetch Belarusbank rates: %w", err)
	}

	if len(branches) == 0 {
		return nil, errMalformedBankResponse
	}

	return branches, nil
}
