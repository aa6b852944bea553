package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/logger"
	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotionClient(url string) *NotionClient {
	return NewNotionClient(NotionConfig{
		BaseURL:          url,
		Token:            "secret_abc",
		DatabaseID:       "db-1",
		CurrencyProperty: "ID_money",
		RateProperty:     "Money_rate",
	}, nil, logger.NewJSONLogger(nil, logger.ErrorLevel))
}

// queryBody is the part of a database query request the tests inspect
type queryBody struct {
	PageSize    int    `json:"page_size"`
	StartCursor string `json:"start_cursor"`
}

func assertNotionHeaders(t *testing.T, r *http.Request) {
	assert.Equal(t, "Bearer secret_abc", r.Header.Get("Authorization"))
	assert.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))
}

func TestNotionQueryAllPaginates(t *testing.T) {
	var cursors []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assertNotionHeaders(t, r)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/databases/db-1/query", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req queryBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 100, req.PageSize)
		cursors = append(cursors, req.StartCursor)

		w.Header().Set("Content-Type", "application/json")
		if req.StartCursor == "" {
			w.Write([]byte(`{
				"results": [
					{"id": "a", "properties": {"ID_money": {"type": "number", "number": 145}}},
					{"id": "b", "properties": {"ID_money": {"type": "select", "select": {"name": "EUR"}}}}
				],
				"has_more": true,
				"next_cursor": "page-2"
			}`))
			return
		}
		w.Write([]byte(`{
			"results": [
				{"id": "c", "properties": {"ID_money": {"type": "rich_text", "rich_text": [{"plain_text": "usd"}, {"plain_text": "ignored"}]}}},
				{"id": "d", "properties": {"ID_money": {"type": "formula", "formula": {"type": "string", "string": "GBP"}}}},
				{"id": "e", "properties": {"Other": {"type": "number", "number": 1}}},
				{"id": "f", "properties": {"ID_money": {"type": "number", "number": null}}}
			],
			"has_more": false,
			"next_cursor": null
		}`))
	}))
	defer server.Close()

	records, err := newTestNotionClient(server.URL).QueryAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"", "page-2"}, cursors)
	require.Len(t, records, 6)

	assert.Equal(t, "a", records[0].ID)
	require.NotNil(t, records[0].Currency.Number)
	assert.Equal(t, 145.0, *records[0].Currency.Number)

	require.NotNil(t, records[1].Currency.Label)
	assert.Equal(t, "EUR", *records[1].Currency.Label)

	require.NotNil(t, records[2].Currency.Text)
	assert.Equal(t, "usd", *records[2].Currency.Text)

	require.NotNil(t, records[3].Currency.Text)
	assert.Equal(t, "GBP", *records[3].Currency.Text)
	assert.Equal(t, "formula", records[3].Currency.RawType)

	assert.Equal(t, "", records[4].Currency.RawType)
	assert.Nil(t, records[4].Currency.Number)

	assert.Equal(t, "number", records[5].Currency.RawType)
	assert.Nil(t, records[5].Currency.Number)
}

func TestNotionQueryAllError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"object":"error","status":401,"code":"unauthorized","message":"API token is invalid."}`))
	}))
	defer server.Close()

	records, err := newTestNotionClient(server.URL).QueryAll(context.Background())

	assert.Nil(t, records)
	var apiErr *notionapi.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, err.Error(), "failed to query database")
}

func TestNotionQueryAllMissingCursor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [], "has_more": true, "next_cursor": null}`))
	}))
	defer server.Close()

	_, err := newTestNotionClient(server.URL).QueryAll(context.Background())
	assert.Error(t, err)
}

func TestNotionUpdateRate(t *testing.T) {
	var body map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assertNotionHeaders(t, r)
		assert.Equal(t, http.MethodPatch, r.Method)

		if r.URL.Path == "/pages/missing" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"object":"error","status":404,"code":"object_not_found","message":"Could not find page."}`))
			return
		}
		assert.Equal(t, "/pages/page-1", r.URL.Path)

		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &body))
		w.Write([]byte(`{"object": "page"}`))
	}))
	defer server.Close()

	client := newTestNotionClient(server.URL)

	require.NoError(t, client.UpdateRate(context.Background(), "page-1", 3.2))
	assert.Equal(t, map[string]interface{}{
		"Money_rate": map[string]interface{}{"number": 3.2},
	}, body["properties"])

	err := client.UpdateRate(context.Background(), "missing", 3.2)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to update page missing")
}

func TestNotionPing(t *testing.T) {
	var paths []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPost {
			var req queryBody
			json.NewDecoder(r.Body).Decode(&req)
			assert.Equal(t, 1, req.PageSize)
			w.Write([]byte(`{"results": [], "has_more": false}`))
			return
		}
		w.Write([]byte(`{"object": "database"}`))
	}))
	defer server.Close()

	require.NoError(t, newTestNotionClient(server.URL).Ping(context.Background()))
	assert.Equal(t, []string{"GET /databases/db-1", "POST /databases/db-1/query"}, paths)
}

func TestNotionBaseURLKeepsPathPrefix(t *testing.T) {
	var path string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{"results": [], "has_more": false, "next_cursor": null}`))
	}))
	defer server.Close()

	_, err := newTestNotionClient(server.URL + "/notion/v1").QueryAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "/notion/v1/databases/db-1/query", path)
}

func TestNotionCurrencyPropertyEmptyValues(t *testing.T) {
	client := newTestNotionClient("")

	prop := client.currencyProperty(notionapi.Page{
		ID: "p",
		Properties: notionapi.Properties{
			"ID_money": &notionapi.SelectProperty{Type: "select"},
		},
	})
	assert.Equal(t, "select", prop.RawType)
	assert.Nil(t, prop.Label)

	prop = client.currencyProperty(notionapi.Page{
		ID: "p",
		Properties: notionapi.Properties{
			"ID_money": &notionapi.FormulaProperty{
				Type:    "formula",
				Formula: notionapi.Formula{Type: "number", Number: 145},
			},
		},
	})
	require.NotNil(t, prop.Number)
	assert.Equal(t, 145.0, *prop.Number)
}
