// Package metabase provides a client for the Metabase query and card APIs.
package metabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/logging"
)

// DefaultTimeout is the maximum time to wait for a Metabase response.
const DefaultTimeout = 60 * time.Second

// SessionHeader carries the Metabase session token.
const SessionHeader = "X-Metabase-Session"

// queryStatusFailed is the dataset status Metabase reports for a query it
// accepted but could not run.
const queryStatusFailed = "failed"

// Config holds the connection settings of a Metabase instance.
type Config struct {
	BaseURL    string
	Session    string
	DatabaseID int64
	Timeout    time.Duration // 0 uses DefaultTimeout
	HTTPClient *http.Client  // Optional, overrides Timeout
}

// Client provides access to a Metabase instance. Every method issues exactly
// one request and never retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	session    string
	databaseID int64
	logger     *zap.Logger
}

// NewClient creates a new Metabase client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("metabase base URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid metabase base URL: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		session:    cfg.Session,
		databaseID: cfg.DatabaseID,
		logger:     logger.Named("metabase"),
	}, nil
}

// DatabaseID returns the Metabase database queries run against.
func (c *Client) DatabaseID() int64 {
	return c.databaseID
}

// RunNativeQuery executes sql as an ad-hoc native query.
// Metabase answers 200 or 202 for an executed query; any other status, or a
// response whose status is "failed", yields an *APIError carrying the body.
func (c *Client) RunNativeQuery(ctx context.Context, sql string) (*DatasetResponse, error) {
	body, status, err := c.post(ctx, NewNativeQuery(c.databaseID, sql), "api", "dataset")
	if err != nil {
		return nil, err
	}

	// POST /api/dataset answers 202 Accepted for queries it ran, including
	// ones that failed in the database; those carry status "failed" in the
	// body and are handled below. Any other status is a rejection.
	if status != http.StatusOK && status != http.StatusAccepted {
		c.logger.Warn("Metabase rejected query",
			zap.Int("status", status),
			zap.String("body", logging.TruncateString(string(body), 500)))
		return nil, &APIError{StatusCode: status, Body: string(body)}
	}

	var resp DatasetResponse
	if err := decodeJSON(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse dataset response: %w", err)
	}

	if resp.Status == queryStatusFailed {
		c.logger.Warn("Metabase query failed",
			zap.Int("status", status),
			zap.String("error", logging.TruncateString(resp.Error, 500)))
		return nil, &APIError{StatusCode: status, Body: string(body)}
	}

	c.logger.Debug("Metabase query completed",
		zap.Int("columns", len(resp.Data.Cols)),
		zap.Int("rows", len(resp.Data.Rows)))

	return &resp, nil
}

// CreateCard creates a saved question. The created card is returned as
// decoded JSON so callers can forward it unchanged. Any status other than
// 200 yields an *APIError carrying the body.
func (c *Client) CreateCard(ctx context.Context, card *CardPayload) (map[string]any, error) {
	body, status, err := c.post(ctx, card, "api", "card")
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		c.logger.Warn("Metabase rejected card",
			zap.Int("status", status),
			zap.String("name", card.Name),
			zap.String("body", logging.TruncateString(string(body), 500)))
		return nil, &APIError{StatusCode: status, Body: string(body)}
	}

	var created map[string]any
	if err := decodeJSON(body, &created); err != nil {
		return nil, fmt.Errorf("failed to parse card response: %w", err)
	}

	c.logger.Info("Created Metabase card",
		zap.String("name", card.Name),
		zap.Any("id", created["id"]))

	return created, nil
}

// Health calls GET /api/health. It does not require a session.
func (c *Client) Health(ctx context.Context) error {
	endpoint, err := buildURL(c.baseURL, "api", "health")
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call metabase: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// post sends payload as JSON and returns the raw response body and status.
// Errors are only returned for failures to build, send or read the request.
func (c *Client) post(ctx context.Context, payload any, pathSegments ...string) ([]byte, int, error) {
	endpoint, err := buildURL(c.baseURL, pathSegments...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build URL: %w", err)
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(SessionHeader, c.session)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Calling Metabase", zap.String("url", endpoint))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to call metabase: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

// decodeJSON decodes body keeping numbers as json.Number so row values are
// forwarded exactly as Metabase sent them.
func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

// buildURL constructs a URL by parsing the base and joining path segments.
func buildURL(baseURL string, pathSegments ...string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	segments := append([]string{u.Path}, pathSegments...)
	u.Path = path.Join(segments...)

	return u.String(), nil
}
