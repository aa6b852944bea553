package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/damon-houk/notion-rate-sync/internal/config"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/api"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/db"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotionServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"object":"error","status":401,"code":"unauthorized","message":"API token is invalid."}`))
			return
		}
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"object":"database","id":"db-1","properties":{}}`))
		default:
			_, _ = w.Write([]byte(`{"object":"list","results":[],"has_more":false,"next_cursor":null}`))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestConfig(notionURL, bankURL, dataDir string) *config.Config {
	return &config.Config{
		Notion: config.NotionConfig{
			Token:            "secret",
			DatabaseID:       "db-1",
			APIVersion:       "2022-06-28",
			BaseURL:          notionURL + "/v1",
			CurrencyProperty: "ID_money",
			RateProperty:     "Money_rate",
			Timeout:          time.Second,
		},
		Bank: config.BankConfig{
			BaseURL: bankURL,
			City:    "Минск",
			Quote:   "in",
			Timeout: time.Second,
		},
		Sync: config.SyncConfig{
			UpdateFrequency: 1,
			ErrorCooldown:   time.Minute,
		},
		Log:    config.LogConfig{Level: "error"},
		Server: config.ServerConfig{DataDir: dataDir},
	}
}

func testLogger() logger.Logger {
	return logger.NewJSONLogger(io.Discard, logger.ErrorLevel)
}

func TestCheckConnectivity(t *testing.T) {
	bank := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"USD_in":"3.20"}]`))
	}))
	defer bank.Close()

	unreachable := httptest.NewServer(http.NotFoundHandler())
	unreachableURL := unreachable.URL
	unreachable.Close()

	tests := []struct {
		name      string
		notion    int
		bankURL   string
		expectErr bool
	}{
		{
			name:    "Both reachable",
			notion:  http.StatusOK,
			bankURL: bank.URL,
		},
		{
			name:      "Notion rejects the token",
			notion:    http.StatusUnauthorized,
			bankURL:   bank.URL,
			expectErr: true,
		},
		{
			name:    "Bank unreachable only warns",
			notion:  http.StatusOK,
			bankURL: unreachableURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notion := newTestNotionServer(t, tt.notion)
			cfg := newTestConfig(notion.URL, tt.bankURL, t.TempDir())

			store := api.NewNotionClient(api.NotionConfig{
				BaseURL:    cfg.Notion.BaseURL,
				Token:      cfg.Notion.Token,
				APIVersion: cfg.Notion.APIVersion,
				DatabaseID: cfg.Notion.DatabaseID,
			}, &http.Client{Timeout: time.Second}, testLogger())
			bankClient := api.NewBelarusbankClient(api.BelarusbankConfig{
				BaseURL: cfg.Bank.BaseURL,
				City:    cfg.Bank.City,
				Quote:   cfg.Bank.Quote,
			}, &http.Client{Timeout: time.Second}, testLogger())

			err := checkConnectivity(context.Background(), testLogger(), store, bankClient)

			if tt.expectErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "notion database is not reachable")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRunStartupFailureReleasesJournal(t *testing.T) {
	notion := newTestNotionServer(t, http.StatusUnauthorized)
	dataDir := t.TempDir()
	cfg := newTestConfig(notion.URL, notion.URL, dataDir)

	err := run(context.Background(), cfg, testLogger())
	require.Error(t, err)

	// The journal directory must not be left locked by the failed start
	badgerDB, err := db.OpenBadger(dataDir)
	require.NoError(t, err)
	assert.NoError(t, badgerDB.Close())
}

func TestRunRejectsInvalidSchedule(t *testing.T) {
	notion := newTestNotionServer(t, http.StatusOK)
	dataDir := t.TempDir()
	cfg := newTestConfig(notion.URL, notion.URL, dataDir)
	cfg.Sync.Schedule = "not a cron spec"

	err := run(context.Background(), cfg, testLogger())
	require.Error(t, err)

	badgerDB, err := db.OpenBadger(dataDir)
	require.NoError(t, err)
	assert.NoError(t, badgerDB.Close())
}

func TestRunClosesJournalOnShutdown(t *testing.T) {
	notion := newTestNotionServer(t, http.StatusOK)
	dataDir := t.TempDir()
	cfg := newTestConfig(notion.URL, notion.URL, dataDir)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := run(ctx, cfg, testLogger())
	require.NoError(t, err)

	badgerDB, err := db.OpenBadger(dataDir)
	require.NoError(t, err)
	defer badgerDB.Close()

	runs, err := db.NewBadgerSyncRunRepository(badgerDB).ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
