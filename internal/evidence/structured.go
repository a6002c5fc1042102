package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stockscan/internal/model"
)

// Structured source defaults.
const (
	// DefaultStructuredTimeout bounds one market-data query.
	DefaultStructuredTimeout = 30 * time.Second

	// structuredBodyLimit caps the response size read from the backend.
	structuredBodyLimit int64 = 2 * 1024 * 1024
)

// MarketDataClient fetches structured company data from an HTTP JSON
// backend keyed by market code. The fetch is a plain GET and therefore
// safely retryable. It implements StructuredSource.
type MarketDataClient struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

// MarketDataOption configures a MarketDataClient.
type MarketDataOption func(*MarketDataClient)

// WithMarketDataHTTPClient replaces the HTTP client.
func WithMarketDataHTTPClient(client *http.Client) MarketDataOption {
	return func(c *MarketDataClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithMarketDataLogger sets a custom logger.
func WithMarketDataLogger(logger *slog.Logger) MarketDataOption {
	return func(c *MarketDataClient) {
		c.logger = logger
	}
}

// NewMarketDataClient creates a client for the backend at baseURL
// authenticated by token. An empty token makes every fetch fail with
// ErrSourceUnavailable, which the resolver records as a structured-data
// gap rather than a run failure.
func NewMarketDataClient(baseURL, token string, opts ...MarketDataOption) *MarketDataClient {
	c := &MarketDataClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: DefaultStructuredTimeout},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// companyData is the backend response shape: one rendered text block per
// structured evidence field. Empty blocks are omitted from the bundle.
type companyData struct {
	BasicInfo  string `json:"basic_info"`
	Daily      string `json:"daily_metrics"`
	Financials string `json:"financial_indicators"`
}

// FetchStructured queries the backend for the market code and renders
// the response into one evidence item per populated field.
func (c *MarketDataClient) FetchStructured(ctx context.Context, code string) ([]model.EvidenceItem, error) {
	if c.token == "" {
		return nil, fmt.Errorf("%w: no market data token configured", ErrSourceUnavailable)
	}
	if code == "" {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, ErrNoCode)
	}

	endpoint := fmt.Sprintf("%s/company?code=%s", c.baseURL, url.QueryEscape(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	c.logger.Debug("fetching structured data", "code", code)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort cleanup

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: backend returned %s", ErrSourceUnavailable, resp.Status)
	}

	var data companyData
	if err := json.NewDecoder(io.LimitReader(resp.Body, structuredBodyLimit)).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	fetched := c.now()
	items := make([]model.EvidenceItem, 0, 3)
	for _, block := range []struct {
		key     string
		payload string
	}{
		{model.FieldBasicInfo, data.BasicInfo},
		{model.FieldDailyMetrics, data.Daily},
		{model.FieldFinancials, data.Financials},
	} {
		if strings.TrimSpace(block.payload) == "" {
			continue
		}
		items = append(items, model.EvidenceItem{
			Source:    model.SourceStructured,
			Key:       block.key,
			Payload:   block.payload,
			FetchedAt: fetched,
		})
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: backend returned no data for %s", ErrSourceUnavailable, code)
	}
	return items, nil
}
