package stock

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmehra2102/order-submission-service/pkg/retry"
)

const (
	DefaultMaxAttempts = 2
	DefaultBackoff     = 100 * time.Millisecond
)

var ErrExhausted = errors.New("stock: attempts exhausted")

// Query is the request body of POST /stock.
type Query struct {
	SKU string `json:"sku"`
}

// Result carries the SKU and its availability. AvailableQty is nil when the
// stock service could not be reached within the retry budget.
type Result struct {
	SKU          string `json:"sku"`
	AvailableQty *int   `json:"availableQty"`
}

func (r Result) OK() bool { return r.AvailableQty != nil }

type Client struct {
	log     *slog.Logger
	http    *http.Client
	baseURL string
	policy  retry.Policy
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

func WithRetry(maxAttempts int, backoff time.Duration) Option {
	return func(c *Client) { c.policy = retry.Policy{MaxAttempts: maxAttempts, Backoff: backoff} }
}

func NewClient(log *slog.Logger, baseURL string, opts ...Option) *Client {
	c := &Client{
		log:     log,
		http:    &http.Client{Timeout: 5 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		policy:  retry.Policy{MaxAttempts: DefaultMaxAttempts, Backoff: DefaultBackoff},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.policy.MaxAttempts < 1 {
		c.policy.MaxAttempts = 1
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Check asks the stock service for the availability of sku. Failures never
// surface as an error: once every attempt has failed the result comes back
// with AvailableQty unset.
func (c *Client) Check(ctx context.Context, sku string) Result {
	var got Result
	err := c.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		r, err := c.post(ctx, sku)
		if err != nil {
			c.log.WarnContext(ctx, "stock query failed", "sku", sku, "attempt", attempt, "err", err)
			return err
		}
		got = r
		return nil
	})
	if err != nil {
		c.log.ErrorContext(ctx, "stock query gave up", "sku", sku, "attempts", c.policy.MaxAttempts, "err", fmt.Errorf("%w: %w", ErrExhausted, err))
		return Result{SKU: sku}
	}
	if got.SKU == "" {
		got.SKU = sku
	}
	return got
}

func (c *Client) post(ctx context.Context, sku string) (Result, error) {
	body, err := json.Marshal(Query{SKU: sku})
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/stock", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{}, fmt.Errorf("stock service returned %d", resp.StatusCode)
	}

	var r Result
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Result{}, fmt.Errorf("decode stock response: %w", err)
	}
	if r.AvailableQty == nil {
		zero := 0
		r.AvailableQty = &zero
	}
	return r, nil
}
