// Package backend is the client for the academic REST backend.
//
// Every endpoint answers with an Envelope. Calls take an explicit
// session.Session whose bearer token is attached to the request; there is
// no ambient authentication state.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	appLog "campuscal/internal/log"
	"campuscal/internal/metrics"
	"campuscal/internal/session"
)

const maxBodyBytes = 8 << 20

// Options configures a Client.
type Options struct {
	// BaseURL includes the API prefix, e.g. "http://localhost:8080/api".
	BaseURL string
	// Timeout bounds each request, including shared GETs. Zero means 15
	// seconds.
	Timeout time.Duration
	// CacheDir enables the on-disk fallback cache for GET responses.
	CacheDir string
	Metrics  *metrics.Metrics
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	cache   *diskCache
	metrics *metrics.Metrics
	group   singleflight.Group
}

// New creates a new backend Client.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: timeout,
		http:    hc,
		cache:   newDiskCache(opts.CacheDir),
		metrics: opts.Metrics,
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func identityOf(s session.Session) string {
	return fmt.Sprintf("%d:%s", s.User.ID, s.User.Role)
}

// get fetches path for the session and decodes the envelope. Identical
// concurrent calls share one request.
func get[T any](ctx context.Context, c *Client, s session.Session, endpoint, path string) (T, error) {
	var zero T
	if s.Token == "" {
		return zero, ErrUnauthorized
	}

	// The shared fetch outlives any single caller; each caller still
	// stops waiting when its own ctx is done.
	identity := identityOf(s)
	ch := c.group.DoChan(identity+" "+path, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.fetch(fctx, endpoint, path, s.Token, identity)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res = <-ch:
	}
	if res.Shared {
		c.metrics.RecordSingleflightDedup(endpoint)
	}
	if res.Err != nil {
		return zero, res.Err
	}
	return Decode[T](http.MethodGet, path, http.StatusOK, res.Val.([]byte)).Unwrap()
}

// send issues a write (or an unauthenticated call when token is empty)
// and decodes the envelope.
func send[T any](ctx context.Context, c *Client, token, method, endpoint, path string, in any) (T, error) {
	var zero T

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return zero, err
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return zero, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordBackendRequest(endpoint, "error", time.Since(start).Seconds())
		appLog.Error("backend unreachable", err, "method", method, "backend", redactURL(c.baseURL+path), "path", path)
		return zero, &RequestError{Method: method, Path: path, Message: "backend unreachable", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.metrics.RecordBackendRequest(endpoint, "error", time.Since(start).Seconds())
		return zero, &RequestError{Method: method, Path: path, StatusCode: resp.StatusCode, Err: err}
	}

	if err := statusError(method, path, resp.StatusCode, data); err != nil {
		c.metrics.RecordBackendRequest(endpoint, statusLabel(err), time.Since(start).Seconds())
		return zero, err
	}

	res := Decode[T](method, path, resp.StatusCode, data)
	if !res.Ok() {
		c.metrics.RecordBackendRequest(endpoint, "error", time.Since(start).Seconds())
		return zero, res.Err()
	}
	c.metrics.RecordBackendRequest(endpoint, "success", time.Since(start).Seconds())
	appLog.Debug("backend call", "method", method, "path", path, "status", resp.StatusCode)
	return res.Value(), nil
}

// fetch performs a GET honoring ETag and Last-Modified. The last good
// body is kept on disk and served when the backend is unreachable or
// failing; it is never served for 401/403/404.
func (c *Client) fetch(ctx context.Context, endpoint, path, token, identity string) ([]byte, error) {
	url := c.baseURL + path
	meta, cachedBody := c.cache.load(identity, url)

	req, err := c.newRequest(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	if len(cachedBody) > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		// Network error; if we have a cached body, fall back to it.
		if len(cachedBody) > 0 && ctx.Err() == nil {
			appLog.Error("backend network error, using cached body", err, "backend", redactURL(url), "path", path)
			c.metrics.RecordCacheFallback("network")
			c.metrics.RecordBackendRequest(endpoint, "cached", time.Since(start).Seconds())
			return cachedBody, nil
		}
		c.metrics.RecordBackendRequest(endpoint, "error", time.Since(start).Seconds())
		appLog.Error("backend unreachable", err, "backend", redactURL(url), "path", path)
		return nil, &RequestError{Method: http.MethodGet, Path: path, Message: "backend unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.metrics.RecordBackendRequest(endpoint, "error", time.Since(start).Seconds())
		return nil, &RequestError{Method: http.MethodGet, Path: path, StatusCode: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotModified:
		if len(cachedBody) == 0 {
			return nil, &RequestError{Method: http.MethodGet, Path: path, StatusCode: resp.StatusCode, Message: "not modified but no cached body"}
		}
		c.metrics.RecordCacheFallback("not_modified")
		c.metrics.RecordBackendRequest(endpoint, "cached", time.Since(start).Seconds())
		return cachedBody, nil

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if Decode[json.RawMessage](http.MethodGet, path, resp.StatusCode, body).Ok() {
			newMeta := cacheEntry{
				URL:          url,
				ETag:         resp.Header.Get("ETag"),
				LastModified: resp.Header.Get("Last-Modified"),
			}
			if err := c.cache.save(identity, newMeta, body); err != nil {
				// Log but still return the freshly fetched body.
				appLog.Error("backend cache save failed", err, "path", path)
			}
		}
		c.metrics.RecordBackendRequest(endpoint, "success", time.Since(start).Seconds())
		appLog.Debug("backend fetch", "path", path, "status", resp.StatusCode)
		return body, nil

	case resp.StatusCode >= 500 && len(cachedBody) > 0:
		appLog.Error("backend non-OK, using cached body", errors.New(resp.Status), "backend", redactURL(url), "path", path, "status", resp.StatusCode)
		c.metrics.RecordCacheFallback("status")
		c.metrics.RecordBackendRequest(endpoint, "cached", time.Since(start).Seconds())
		return cachedBody, nil

	default:
		err := statusError(http.MethodGet, path, resp.StatusCode, body)
		c.metrics.RecordBackendRequest(endpoint, statusLabel(err), time.Since(start).Seconds())
		return nil, err
	}
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// statusError maps a non-2xx status to the error taxonomy. It returns nil
// for 2xx.
func statusError(method, path string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	msg := envelopeMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	re := &RequestError{Method: method, Path: path, StatusCode: status, Message: msg}
	switch status {
	case http.StatusUnauthorized:
		re.Err = ErrUnauthorized
	case http.StatusForbidden:
		re.Err = ErrForbidden
	case http.StatusNotFound:
		re.Err = ErrNotFound
	default:
		re.Err = errors.New(msg)
	}
	return re
}

func statusLabel(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// envelopeMessage extracts the message of an error envelope, if any.
func envelopeMessage(body []byte) string {
	var env struct {
		Message string `json:"message"`
	}
	if len(body) == 0 || json.Unmarshal(body, &env) != nil {
		return ""
	}
	return env.Message
}
