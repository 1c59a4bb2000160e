// Package client calls a running prediction API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kilianp07/metrotraffic/core/model"
)

const (
	DefaultStatusTimeout  = 5 * time.Second
	DefaultPredictTimeout = 10 * time.Second
	DefaultStatusTTL      = 30 * time.Second
)

// ErrUnexpectedResponse is returned when a 2xx reply lacks the prediction.
var ErrUnexpectedResponse = errors.New("unexpected response from API")

// APIError carries a non-2xx reply.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API Error: %d - %s", e.Status, e.Detail)
}

// Info is the service description returned by GET /.
type Info struct {
	Message     string `json:"message"`
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Version     string `json:"version"`
}

// Client talks to the prediction API. Status results are cached for
// DefaultStatusTTL.
type Client struct {
	baseURL        string
	http           *http.Client
	statusTimeout  time.Duration
	predictTimeout time.Duration
	statusTTL      time.Duration
	now            func() time.Time

	mu        sync.Mutex
	checkedAt time.Time
	info      Info
	statusErr error
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithTimeouts overrides the status and predict timeouts.
func WithTimeouts(status, predict time.Duration) Option {
	return func(c *Client) {
		c.statusTimeout = status
		c.predictTimeout = predict
	}
}

// WithStatusTTL overrides how long a status check is reused.
func WithStatusTTL(d time.Duration) Option { return func(c *Client) { c.statusTTL = d } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &http.Client{},
		statusTimeout:  DefaultStatusTimeout,
		predictTimeout: DefaultPredictTimeout,
		statusTTL:      DefaultStatusTTL,
		now:            time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Status reports whether the API answers GET / with 200. A result younger
// than the status TTL is reused.
func (c *Client) Status(ctx context.Context) (Info, error) {
	c.mu.Lock()
	if !c.checkedAt.IsZero() && c.now().Sub(c.checkedAt) < c.statusTTL {
		info, err := c.info, c.statusErr
		c.mu.Unlock()
		return info, err
	}
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Refresh checks the API regardless of the cache.
func (c *Client) Refresh(ctx context.Context) (Info, error) {
	info, err := c.fetchStatus(ctx)
	c.mu.Lock()
	c.checkedAt = c.now()
	c.info, c.statusErr = info, err
	c.mu.Unlock()
	return info, err
}

func (c *Client) fetchStatus(ctx context.Context) (Info, error) {
	ctx, cancel := context.WithTimeout(ctx, c.statusTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return Info{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Info{}, fmt.Errorf("API unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return Info{}, &APIError{Status: resp.StatusCode, Detail: readDetail(resp.Body)}
	}
	var info Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return info, nil
}

type predictReply struct {
	Volume       *int   `json:"predicted_traffic_volume"`
	ModelVersion string `json:"model_version"`
}

// Predict posts f to /predict.
func (c *Client) Predict(ctx context.Context, f model.Features) (model.Prediction, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return model.Prediction{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.predictTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return model.Prediction{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return model.Prediction{}, fmt.Errorf("request timed out after %s: %w", c.predictTimeout, err)
		}
		return model.Prediction{}, fmt.Errorf("cannot connect to API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.Prediction{}, &APIError{Status: resp.StatusCode, Detail: readDetail(resp.Body)}
	}
	var reply predictReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return model.Prediction{}, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	if reply.Volume == nil {
		return model.Prediction{}, ErrUnexpectedResponse
	}
	return model.Prediction{
		RequestID:    resp.Header.Get("X-Request-ID"),
		Volume:       *reply.Volume,
		Raw:          float64(*reply.Volume),
		ModelVersion: reply.ModelVersion,
		Timestamp:    c.now(),
	}, nil
}

// readDetail extracts the "detail" field of an error body, falling back to
// the raw text.
func readDetail(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 1<<16))
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	return strings.TrimSpace(string(data))
}
