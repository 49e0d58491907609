package platformapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/traysync/backend/internal/domain"
)

// Client talks to the store's admin REST API. It covers the mutation
// half of a sync run, so a run can collect through the browser but
// write through the API when a token is available.
type Client struct {
	httpClient  *http.Client
	token       string
	baseURL     string
	rateLimiter *rate.Limiter
	log         *zap.Logger
}

var _ domain.ProductWriter = (*Client)(nil)

// NewClient creates an admin API client. interval spaces successive
// mutations; the platform throttles bursts of writes.
func NewClient(baseURL, token string, interval time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		token:       token,
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Every(interval), 1),
		log:         logger,
	}
}

type mutationEnvelope struct {
	Data *domain.ProductPayload `json:"data"`
}

type mutationResponse struct {
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
}

// CreateProduct registers a new product through the API.
func (c *Client) CreateProduct(ctx context.Context, payload *domain.ProductPayload) (bool, string, error) {
	endpoint := fmt.Sprintf("%s/admin/api/products", c.baseURL)
	return c.mutate(ctx, http.MethodPost, endpoint, payload)
}

// UpdateProduct overwrites an existing product identified by its
// platform id or edit reference.
func (c *Client) UpdateProduct(ctx context.Context, identity string, payload *domain.ProductPayload) (bool, string, error) {
	if identity == "" {
		return false, "", fmt.Errorf("%w: empty product identity", domain.ErrMutationRejected)
	}
	endpoint := fmt.Sprintf("%s/admin/api/products/%s", c.baseURL, extractProductID(identity))
	return c.mutate(ctx, http.MethodPut, endpoint, payload)
}

// mutate sends one write with retry on transient failures. Client
// errors other than 429 are terminal; retrying them re-sends an
// identical rejected payload.
func (c *Client) mutate(ctx context.Context, method, endpoint string, payload *domain.ProductPayload) (bool, string, error) {
	body, err := json.Marshal(mutationEnvelope{Data: payload})
	if err != nil {
		return false, "", fmt.Errorf("encode payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return false, "", fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := c.doRequest(ctx, method, endpoint, body)
		if err != nil {
			c.log.Warn("mutation request failed",
				zap.String("endpoint", endpoint), zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			c.log.Debug("mutation accepted",
				zap.String("method", method), zap.String("endpoint", endpoint), zap.String("sku", payload.SKU))
			return true, responseMessage(respBody), nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			c.log.Warn("mutation throttled or failed upstream",
				zap.String("endpoint", endpoint), zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt))
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody, 200))
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		default:
			msg := responseMessage(respBody)
			if msg == "" {
				msg = truncate(respBody, 200)
			}
			return false, msg, fmt.Errorf("%w: status %d: %s", domain.ErrMutationRejected, resp.StatusCode, msg)
		}
	}
	return false, "", lastErr
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMutationRejected, err)
	}
	return resp, nil
}

func responseMessage(body []byte) string {
	var parsed mutationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	return parsed.Message
}

// extractProductID pulls a numeric product id from an edit reference
// like "products/edit/12345" so callers can pass either form.
func extractProductID(identity string) string {
	trimmed := strings.Trim(identity, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if idx := strings.IndexAny(trimmed, "?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}

func truncate(body []byte, max int) string {
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max]
	}
	return s
}
