package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/damon-houk/notion-rate-sync/internal/domain/entity"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/logger"
	"github.com/jomei/notionapi"
)

const (
	notionBaseURL    = "https://api.notion.com/v1"
	notionAPIVersion = "2022-06-28"
	notionService    = "notion"
	notionPageSize   = 100
	// notionAPIPath is the version prefix the notionapi client puts on every path
	notionAPIPath = "/v1"
)

// NotionConfig configures the Notion client
type NotionConfig struct {
	BaseURL          string
	Token            string
	APIVersion       string
	DatabaseID       string
	CurrencyProperty string
	RateProperty     string
}

// NotionClient reads records from a Notion database and writes rates back
type NotionClient struct {
	cfg    NotionConfig
	client *notionapi.Client
	logger logger.Logger
}

// NewNotionClient creates a new Notion API client. A BaseURL other than the
// public API redirects every request to it.
func NewNotionClient(cfg NotionConfig, httpClient *http.Client, log logger.Logger) *NotionClient {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = notionAPIVersion
	}
	if cfg.BaseURL != "" && cfg.BaseURL != notionBaseURL {
		httpClient = withBaseURL(httpClient, cfg.BaseURL)
	}

	client := notionapi.NewClient(
		notionapi.Token(cfg.Token),
		notionapi.WithHTTPClient(httpClient),
		notionapi.WithVersion(cfg.APIVersion),
	)

	return &NotionClient{
		cfg:    cfg,
		client: client,
		logger: log.WithField("store", notionService),
	}
}

// QueryAll pages through the database and returns every record. All pages
// are read before anything is returned.
func (c *NotionClient) QueryAll(ctx context.Context) ([]entity.Record, error) {
	c.logger.Info("Querying database", map[string]interface{}{
		"database_id": c.cfg.DatabaseID,
	})

	var records []entity.Record
	var cursor notionapi.Cursor
	pages := 0

	for {
		resp, err := c.queryPage(ctx, cursor, notionPageSize)
		if err != nil {
			return nil, err
		}
		pages++

		for _, page := range resp.Results {
			if page.ID == "" {
				continue
			}
			records = append(records, entity.Record{
				ID:       string(page.ID),
				Currency: c.currencyProperty(page),
			})
		}

		if !resp.HasMore {
			break
		}
		if resp.NextCursor == "" {
			return nil, errors.New("notion reported more results without a next cursor")
		}
		cursor = resp.NextCursor
	}

	c.logger.Info("Database query complete", map[string]interface{}{
		"records": len(records),
		"pages":   pages,
	})

	return records, nil
}

// UpdateRate writes rate into the configured number property of a page
func (c *NotionClient) UpdateRate(ctx context.Context, id string, rate float64) error {
	req := &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			c.cfg.RateProperty: &notionapi.NumberProperty{Number: rate},
		},
	}

	if _, err := c.client.Page.Update(ctx, notionapi.PageID(id), req); err != nil {
		return fmt.Errorf("failed to update page %s: %w", id, err)
	}

	c.logger.Debug("Page rate updated", map[string]interface{}{
		"page_id": id,
		"rate":    rate,
	})

	return nil
}

// Ping checks that the database exists and can be queried with the token
func (c *NotionClient) Ping(ctx context.Context) error {
	if _, err := c.client.Database.Get(ctx, notionapi.DatabaseID(c.cfg.DatabaseID)); err != nil {
		return fmt.Errorf("database is not accessible: %w", err)
	}
	if _, err := c.queryPage(ctx, "", 1); err != nil {
		return fmt.Errorf("database cannot be queried: %w", err)
	}
	return nil
}

func (c *NotionClient) queryPage(ctx context.Context, cursor notionapi.Cursor, pageSize int) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := c.client.Database.Query(ctx, notionapi.DatabaseID(c.cfg.DatabaseID), &notionapi.DatabaseQueryRequest{
		StartCursor: cursor,
		PageSize:    pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}
	return resp, nil
}

// currencyProperty decodes the configured currency property into its
// store-independent form. Empty values (a null number or select) are
// treated as absent so the extractor never sees them.
func (c *NotionClient) currencyProperty(page notionapi.Page) entity.CurrencyProperty {
	prop, ok := page.Properties[c.cfg.CurrencyProperty]
	if !ok || prop == nil {
		return entity.CurrencyProperty{}
	}

	result := entity.CurrencyProperty{RawType: string(prop.GetType())}

	switch p := prop.(type) {
	case *notionapi.NumberProperty:
		result.Number = nonZero(p.Number)
	case *notionapi.SelectProperty:
		result.Label = nonEmpty(p.Select.Name)
	case *notionapi.StatusProperty:
		result.Label = nonEmpty(p.Status.Name)
	case *notionapi.RichTextProperty:
		result.Text = firstPlainText(p.RichText)
	case *notionapi.TitleProperty:
		result.Text = firstPlainText(p.Title)
	case *notionapi.FormulaProperty:
		switch string(p.Formula.Type) {
		case "string":
			result.Text = nonEmpty(p.Formula.String)
		case "number":
			result.Number = nonZero(p.Formula.Number)
		}
	default:
		c.logger.Debug("Currency property has an unsupported type", map[string]interface{}{
			"page_id": string(page.ID),
			"type":    result.RawType,
		})
	}

	return result
}

func firstPlainText(texts []notionapi.RichText) *string {
	if len(texts) == 0 {
		return nil
	}
	return nonEmpty(texts[0].PlainText)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nonZero maps Notion's null number (decoded as 0) to absent; 0 is not a
// currency id
func nonZero(n float64) *float64 {
	if n == 0 {
		return nil
	}
	return &n
}

// withBaseURL returns a copy of client whose requests go to baseURL instead
// of the public API host
func withBaseURL(client *http.Client, baseURL string) *http.Client {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return client
	}

	next := client.Transport
	if next == nil {
		next = http.DefaultTransport
	}

	redirected := *client
	redirected.Transport = &baseURLTransport{base: base, next: next}
	return &redirected
}

type baseURLTransport struct {
	base *url.URL
	next http.RoundTripper
}

func (t *baseURLTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = t.base.Scheme
	out.URL.Host = t.base.Host
	out.URL.Path = strings.TrimSuffix(t.base.Path, "/") + strings.TrimPrefix(req.URL.Path, notionAPIPath)
	out.URL.RawPath = ""
	out.Host = t.base.Host
	return t.next.RoundTrip(out)
}
