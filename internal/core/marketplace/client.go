// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package marketplace is the client of the classifieds partner API.

Every call is paced by a token-bucket limiter, carries a timeout and is traced.
Failures are classified into the application error framework:

  - transport errors, 429 and 5xx answers: [apperr.UpstreamUnavailable] (retry later);
  - other 4xx answers: [apperr.UpstreamRejected], carrying the upstream message.

The insufficient-balance rejection is recognised with [IsInsufficientBalance].
*/
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/taibuivan/autolist/internal/platform/apperr"
	"github.com/taibuivan/autolist/internal/platform/config"
	"github.com/taibuivan/autolist/internal/platform/tracing"
)

// Service is the name used in error messages.
const Service = "Marketplace"

// maxResponseBody caps every answer read from the API.
const maxResponseBody = 8 << 20

// Client talks to the partner API.
//
// Thread-safety: Client is safe for concurrent use.
type Client struct {
	cfg     config.Marketplace
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient builds a client from configuration.
func NewClient(cfg config.Marketplace, logger *slog.Logger) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Config returns the marketplace configuration the client was built with.
func (c *Client) Config() config.Marketplace { return c.cfg }

// IsInsufficientBalance reports whether err is the rejection sent when the
// account cannot pay for a new advert.
func IsInsufficientBalance(err error) bool {
	ae := apperr.As(err)
	if ae == nil || ae.Code != apperr.CodeUpstreamRejected {
		return false
	}
	return strings.Contains(strings.ToLower(ae.Message), "insufficient balance")
}

// # Transport

// request is one API call.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

// do sends req and returns the raw answer body of a 2xx response.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	ctx, span := tracing.StartSpan(ctx, "marketplace."+req.op,
		attribute.String("http.method", req.method),
		attribute.String("marketplace.path", req.path),
	)
	body, err := c.send(ctx, req)
	tracing.End(span, err)
	return body, err
}

func (c *Client) send(ctx context.Context, req request) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperr.UpstreamUnavailable(Service, err)
	}

	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, req.body)
	if err != nil {
		return nil, fmt.Errorf("marketplace: build %s request: %w", req.op, err)
	}
	httpReq.SetBasicAuth(c.cfg.Token, "")
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("marketplace_request_failed",
			slog.String("op", req.op),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err),
		)
		return nil, apperr.UpstreamUnavailable(Service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, apperr.UpstreamUnavailable(Service, fmt.Errorf("read %s answer: %w", req.op, err))
	}

	c.logger.Debug("marketplace_request",
		slog.String("op", req.op),
		slog.String("method", req.method),
		slog.String("path", req.path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, apperr.UpstreamUnavailable(Service, fmt.Errorf("%s: status %d: %s", req.op, resp.StatusCode, snippet(body)))
	default:
		return nil, apperr.UpstreamRejected(Service, resp.StatusCode, snippet(body))
	}
}

// doJSON sends payload as JSON (when non-nil) and decodes the answer into out (when non-nil).
func (c *Client) doJSON(ctx context.Context, op, method, path string, query url.Values, payload, out any) error {
	req := request{op: op, method: method, path: path, query: query}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marketplace: encode %s payload: %w", op, err)
		}
		req.body = bytes.NewReader(data)
		req.contentType = "application/json"
	}

	body, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.UpstreamUnavailable(Service, fmt.Errorf("decode %s answer: %w", op, err))
	}
	return nil
}

// snippet shortens an error body for messages and logs, cutting on a rune boundary.
func snippet(body []byte) string {
	const limit = 500
	text := strings.TrimSpace(string(body))
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
