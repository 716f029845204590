// Package lemonade is a minimal client for the Lemonade server's management
// REST surface (/api/v1 plus the bare-base /live probe).
package lemonade

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"lemonade-panel/internal/config"
)

const (
	// apiPrefix is prepended to every endpoint except the liveness probe.
	apiPrefix = "/api/v1"

	// maxResponseBytes caps how much of a response body is buffered.
	maxResponseBytes = 5 * 1024 * 1024
)

// Response is the outcome of one logical request: the final candidate's
// answer, whatever its status. Callers must check StatusCode themselves.
type Response struct {
	StatusCode int
	Body       []byte
	URL        string // candidate URL that served the request
}

// OK reports whether the response carries a non-error status.
func (r *Response) OK() bool {
	return r.StatusCode < 400
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Client issues requests against an ordered list of base URL candidates.
//
// A transport failure or an HTTP error status on a non-final candidate moves
// on to the next one; the final candidate's outcome is always surfaced, so a
// caller either gets its response (error status included) or its transport
// error. At most one response is returned per call.
type Client struct {
	candidates []string
	http       *http.Client

	timeout       time.Duration
	pullTimeout   time.Duration
	deleteTimeout time.Duration

	logger  *slog.Logger
	metrics *Metrics
}

// NewClient constructs a client from validated configuration.
// Fallback candidates are resolved once here, not per request.
func NewClient(cfg config.Config, logger *slog.Logger, metrics *Metrics) *Client {
	candidates := []string{strings.TrimRight(cfg.BaseURL, "/")}
	if cfg.Features().Fallback {
		candidates = BaseCandidates(cfg.BaseURL, cfg.DockerHostAlias)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		candidates: candidates,
		http: &http.Client{
			// No client-level timeout - each attempt carries its own context.
			Transport: http.DefaultTransport,
		},
		timeout:       cfg.Timeout,
		pullTimeout:   cfg.PullTimeout,
		deleteTimeout: cfg.DeleteTimeout,
		logger:        logger,
		metrics:       metrics,
	}
}

// Candidates returns the resolved base URL candidates in try order.
func (c *Client) Candidates() []string {
	out := make([]string, len(c.candidates))
	copy(out, c.candidates)
	return out
}

// Health fetches GET /api/v1/health.
func (c *Client) Health(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "health", apiPrefix+"/health", nil, c.timeout)
}

// Stats fetches GET /api/v1/stats.
func (c *Client) Stats(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "stats", apiPrefix+"/stats", nil, c.timeout)
}

// SystemInfo fetches GET /api/v1/system-info.
func (c *Client) SystemInfo(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "system-info", apiPrefix+"/system-info", nil, c.timeout)
}

// Models fetches GET /api/v1/models. With showAll it asks for the full
// catalog rather than only installed models.
func (c *Client) Models(ctx context.Context, showAll bool) (*Response, error) {
	path := apiPrefix + "/models"
	if showAll {
		path += "?show_all=true"
	}
	return c.do(ctx, http.MethodGet, "models", path, nil, c.timeout)
}

// Live fetches the liveness probe at the bare base, outside /api/v1.
func (c *Client) Live(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "live", "/live", nil, c.timeout)
}

type modelRequest struct {
	ModelName string `json:"model_name"`
}

// Pull asks the server to download a model. Downloads are slow, so this
// uses the long pull timeout.
func (c *Client) Pull(ctx context.Context, model string) (*Response, error) {
	return c.do(ctx, http.MethodPost, "pull", apiPrefix+"/pull", modelRequest{ModelName: model}, c.pullTimeout)
}

// Delete asks the server to remove an installed model.
func (c *Client) Delete(ctx context.Context, model string) (*Response, error) {
	return c.do(ctx, http.MethodPost, "delete", apiPrefix+"/delete", modelRequest{ModelName: model}, c.deleteTimeout)
}

// Get issues a GET for an arbitrary suffix under /api/v1. Unknown panel
// commands pass through here verbatim, unvalidated.
func (c *Client) Get(ctx context.Context, suffix string) (*Response, error) {
	suffix = strings.TrimPrefix(suffix, "/")
	return c.do(ctx, http.MethodGet, endpointLabel(suffix), apiPrefix+"/"+suffix, nil, c.timeout)
}

// do walks the candidate list. Each attempt is independent: a fresh request
// with its own deadline on the shared connection pool.
func (c *Client) do(ctx context.Context, method, endpoint, path string, payload any, timeout time.Duration) (*Response, error) {
	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = b
	}

	start := time.Now()
	var lastErr error
	for i, base := range c.candidates {
		final := i == len(c.candidates)-1

		resp, err := c.attempt(ctx, method, base+path, body, timeout)
		if err != nil {
			lastErr = err
			if final || ctx.Err() != nil {
				c.metrics.RecordRequest(endpoint, "transport_error", time.Since(start))
				return nil, err
			}
			c.logger.Debug("candidate unreachable, trying next", "url", base+path, "err", err)
			c.metrics.RecordFallback()
			continue
		}

		if resp.StatusCode >= 400 && !final {
			// A wrong host can answer with 4xx/5xx too, so an error status
			// on a non-final candidate is also fallback-worthy.
			c.logger.Debug("candidate returned error status, trying next", "url", base+path, "status", resp.StatusCode)
			c.metrics.RecordFallback()
			continue
		}

		status := "ok"
		if resp.StatusCode >= 400 {
			status = "http_error"
		}
		c.metrics.RecordRequest(endpoint, status, time.Since(start))
		return resp, nil
	}

	// Unreachable with >= 1 candidate, but keep the compiler honest.
	return nil, lastErr
}

// attempt issues a single request against one candidate URL.
func (c *Client) attempt(ctx context.Context, method, url string, body []byte, timeout time.Duration) (*Response, error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(actx, method, url, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.ContentLength = int64(len(body))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := readBodyWithLimit(resp.Body, maxResponseBytes)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: b, URL: url}, nil
}

// endpointLabel reduces a path suffix to a metrics label: first segment,
// query stripped.
func endpointLabel(suffix string) string {
	if i := strings.IndexAny(suffix, "/?"); i >= 0 {
		suffix = suffix[:i]
	}
	if suffix == "" {
		return "unknown"
	}
	return suffix
}

// readBodyWithLimit reads up to maxBytes from the reader, truncating longer
// bodies rather than failing.
func readBodyWithLimit(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	buf := &bytes.Buffer{}
	if _, err := io.CopyN(buf, r, maxBytes+1); err != nil && err != io.EOF {
		return nil, err
	}
	b := buf.Bytes()
	if int64(len(b)) > maxBytes {
		return b[:maxBytes], nil
	}
	return b, nil
}
