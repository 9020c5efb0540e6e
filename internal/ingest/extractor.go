// internal/ingest/extractor.go
package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
)

// Extractor turns an uploaded document into a purchase order. It reports
// how many upstream attempts were made.
type Extractor interface {
	Extract(ctx context.Context, fileName string, content []byte) (*purchaseorder.PurchaseOrder, int, error)
}

// StatusError is an unexpected HTTP status from the extraction service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("extractor returned status %d: %s", e.Code, e.Body)
}

type extractRequest struct {
	Model    string `json:"model,omitempty"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// ClientConfig configures the extraction service client.
type ClientConfig struct {
	URL        string
	APIKey     string
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

// Client calls the extraction service over HTTP. Network errors, 429 and
// 5xx responses are retried with exponential backoff.
type Client struct {
	url             string
	apiKey          string
	model           string
	maxRetries      int
	httpClient      *http.Client
	initialInterval time.Duration
	logger          *zap.Logger
}

func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Client{
		url:             cfg.URL,
		apiKey:          cfg.APIKey,
		model:           cfg.Model,
		maxRetries:      cfg.MaxRetries,
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		initialInterval: backoff.DefaultInitialInterval,
		logger:          logger,
	}
}

func (c *Client) Extract(ctx context.Context, fileName string, content []byte) (*purchaseorder.PurchaseOrder, int, error) {
	body, err := json.Marshal(extractRequest{
		Model:    c.model,
		Filename: fileName,
		Content:  base64.StdEncoding.EncodeToString(content),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode extract request: %w", err)
	}

	attempts := 0
	operation := func() (*purchaseorder.PurchaseOrder, error) {
		attempts++
		return c.post(ctx, body)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	po, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Warn("extraction attempt failed",
				zap.String("file_name", fileName),
				zap.Int("attempt", attempts),
				zap.Duration("retry_in", next),
				zap.Error(err))
		}),
	)
	if err != nil {
		return nil, attempts, err
	}
	return po, attempts, nil
}

func (c *Client) post(ctx context.Context, body []byte) (*purchaseorder.PurchaseOrder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	var po purchaseorder.PurchaseOrder
	if err := json.NewDecoder(resp.Body).Decode(&po); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to decode extracted purchase order: %w", err))
	}
	return &po, nil
}
