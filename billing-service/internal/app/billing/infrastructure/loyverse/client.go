package loyverse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bodegaclick/pkg/logger"
	"bodegaclick/pkg/metrics"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	pageLimit       = 250
	maxErrorBodyLen = 512
)

// Options tune the transport. Zero values fall back to defaults.
type Options struct {
	Timeout    time.Duration
	RateLimit  float64 // requests per second
	Burst      int
	MaxRetries uint64
	RetryBase  time.Duration
}

// Client talks to the remote POS catalog API. Every call waits on a shared
// token bucket; idempotent calls are retried with exponential backoff on
// transport errors, 5xx and 429.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries uint64
	retryBase  time.Duration
}

func NewClient(baseURL, token string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 500 * time.Millisecond
	}

	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Burst),
		maxRetries: opts.MaxRetries,
		retryBase:  opts.RetryBase,
	}
}

// ListItems returns one page of items. An empty cursor starts from the top.
func (c *Client) ListItems(ctx context.Context, cursor string) (*ItemsPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(pageLimit))
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	body, err := c.do(ctx, http.MethodGet, "/items?"+query.Encode(), nil, "items.list", true)
	if err != nil {
		return nil, err
	}

	var page ItemsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: items page: %v", ErrInvalidRemoteData, err)
	}
	return &page, nil
}

// ListCategories follows the cursor and returns every category.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var (
		all    []Category
		cursor string
	)
	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(pageLimit))
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		body, err := c.do(ctx, http.MethodGet, "/categories?"+query.Encode(), nil, "categories.list", true)
		if err != nil {
			return nil, err
		}

		var page categoriesPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("%w: categories page: %v", ErrInvalidRemoteData, err)
		}
		all = append(all, page.Categories...)

		if page.Cursor == "" {
			return all, nil
		}
		cursor = page.Cursor
	}
}

// GetItem returns the item document exactly as the API sent it.
func (c *Client) GetItem(ctx context.Context, itemID string) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, "/items/"+url.PathEscape(itemID), nil, "items.get", true)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: item %s is not valid JSON", ErrInvalidRemoteData, itemID)
	}
	return body, nil
}

// SaveItem posts a full item document. The API replaces the item, so the
// document must be complete.
func (c *Client) SaveItem(ctx context.Context, item json.RawMessage) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/items", item, "items.save", true)
}

// UpdateItemPrice sets the price of every variant of an item.
//
// The API has no partial update and no concurrency token, so this is a
// read-modify-write: a change made remotely between GetItem and SaveItem is
// overwritten.
func (c *Client) UpdateItemPrice(ctx context.Context, itemID string, price decimal.Decimal) error {
	raw, err := c.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to read item %s: %w", itemID, err)
	}

	patched, err := PatchItemPrice(raw, price)
	if err != nil {
		return fmt.Errorf("failed to patch item %s: %w", itemID, err)
	}

	if _, err := c.SaveItem(ctx, patched); err != nil {
		return fmt.Errorf("failed to save item %s: %w", itemID, err)
	}
	return nil
}

// CreateWebhook registers a subscription. It is not retried: a lost answer
// would otherwise create duplicates.
func (c *Client) CreateWebhook(ctx context.Context, targetURL, eventType string) (*Webhook, error) {
	payload, err := json.Marshal(map[string]string{
		"url":    targetURL,
		"type":   eventType,
		"status": "ENABLED",
	})
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodPost, "/webhooks", payload, "webhooks.create", false)
	if err != nil {
		return nil, err
	}

	var hook Webhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, fmt.Errorf("%w: webhook: %v", ErrInvalidRemoteData, err)
	}
	if hook.ID == "" {
		return nil, fmt.Errorf("%w: webhook without id", ErrInvalidRemoteData)
	}
	return &hook, nil
}

func (c *Client) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	var (
		all    []Webhook
		cursor string
	)
	for {
		path := "/webhooks"
		if cursor != "" {
			path += "?cursor=" + url.QueryEscape(cursor)
		}

		body, err := c.do(ctx, http.MethodGet, path, nil, "webhooks.list", true)
		if err != nil {
			return nil, err
		}

		var page webhooksPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("%w: webhooks page: %v", ErrInvalidRemoteData, err)
		}
		all = append(all, page.Webhooks...)

		if page.Cursor == "" {
			return all, nil
		}
		cursor = page.Cursor
	}
}

func (c *Client) DeleteWebhook(ctx context.Context, webhookID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/webhooks/"+url.PathEscape(webhookID), nil, "webhooks.delete", true)
	return err
}

// PostTestDelivery sends an unsigned payload straight to a webhook target,
// marked with X-Test-Webhook. It returns the target's status code.
func (c *Client) PostTestDelivery(ctx context.Context, targetURL string, payload []byte) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Webhook", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, endpoint string, retryable bool) ([]byte, error) {
	maxRetries := c.maxRetries
	if !retryable {
		maxRetries = 0
	}
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(c.retryBase))

	var result []byte
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			metrics.RecordRemoteRetry(endpoint)
		}

		body, err := c.send(ctx, method, path, payload, endpoint)
		if err == nil {
			result = body
			return nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			return err
		}
		if ctx.Err() != nil {
			return err
		}

		logger.Warn().
			Err(err).
			Str("endpoint", endpoint).
			Int("attempt", attempt).
			Msg("Remote call failed, will retry")
		return retry.RetryableError(err)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	timer := metrics.NewRemoteTimer(endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		timer.Done("error")
		return nil, fmt.Errorf("%w: %s: %v", ErrRemoteUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		timer.Done("error")
		return nil, fmt.Errorf("%w: %s: failed to read response: %v", ErrRemoteUnavailable, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		timer.Done("error")
		if len(body) > maxErrorBodyLen {
			body = body[:maxErrorBodyLen]
		}
		return nil, &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	timer.Done("ok")
	return body, nil
}
