package atalogics

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/atalogics/pkg/auth"
	"github.com/matzehuels/atalogics/pkg/buildinfo"
	"github.com/matzehuels/atalogics/pkg/cache"
	"github.com/matzehuels/atalogics/pkg/config"
	"github.com/matzehuels/atalogics/pkg/errors"
	"github.com/matzehuels/atalogics/pkg/httputil"
	"github.com/matzehuels/atalogics/pkg/observability"
)

const (
	// maxSends bounds the sends of one logical call: the first attempt and
	// one retry after a token refresh.
	maxSends = 2

	// GET requests are idempotent, so transport failures are retried.
	getAttempts   = 3
	getRetryDelay = 200 * time.Millisecond
)

// Dispatcher sends API requests with authentication, the single
// refresh-and-retry on rejection, and read-through caching.
type Dispatcher struct {
	cfg         config.Config
	version     int
	doer        httputil.Doer
	auth        *auth.Authenticator
	cache       *cache.Layer
	refresh     func(context.Context) error
	autoRefresh bool
	logger      *log.Logger
}

type outcomeKind int

const (
	outcomeOK outcomeKind = iota
	outcomeAuthFailed
	outcomeFailed
)

// outcome is the result of one send.
type outcome struct {
	kind   outcomeKind
	resp   *Response
	status int
	err    error
}

// Execute performs method on path (relative to the versioned API root).
// body is JSON-encoded unless nil.
func (d *Dispatcher) Execute(ctx context.Context, method, path string, body any, opts ...CallOption) (*Response, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.cacheKey != "" {
		if resp, ok := d.lookup(ctx, o); ok {
			return resp, nil
		}
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "encode request body")
	}

	requestID := uuid.NewString()
	var out outcome
	for send := 1; send <= maxSends; send++ {
		out = d.send(ctx, method, path, payload, requestID)
		if out.kind != outcomeAuthFailed || !d.autoRefresh || send == maxSends {
			break
		}
		d.logger.Debug("request rejected, refreshing token", "method", method, "path", path, "status", out.status)
		observability.Auth().OnAuthRetry(ctx, method, path, out.status)
		if err := d.refresh(ctx); err != nil {
			return nil, err
		}
	}

	if out.kind != outcomeOK {
		return nil, out.err
	}

	if o.cacheKey != "" {
		if err := d.cache.Put(ctx, o.cacheKey, out.resp.Code, out.resp.Body, o.ttl); err != nil {
			d.logger.Warn("cache write failed", "key", d.cache.Key(o.cacheKey), "err", err)
		}
	}
	return out.resp, nil
}

// lookup returns a fresh cached response. Store failures, corrupt entries
// and expired entries count as misses.
func (d *Dispatcher) lookup(ctx context.Context, o callOptions) (*Response, bool) {
	key := d.cache.Key(o.cacheKey)
	entry, hit, err := d.cache.Get(ctx, o.cacheKey)
	switch {
	case err != nil && stderrors.Is(err, cache.ErrCorrupted):
		d.logger.Warn("discarding corrupt cache entry", "key", key, "err", err)
		hit = false
	case err != nil:
		d.logger.Warn("cache lookup failed", "key", key, "err", err)
		hit = false
	case !hit:
		d.logger.Debug("cache miss", "key", key)
	}

	if hit {
		var pred cache.ExpiryFunc
		if o.expired != nil {
			pred = func(e cache.Entry) bool { return o.expired(fromEntry(e)) }
		}
		if d.cache.IsExpired(entry, pred) {
			d.logger.Debug("cached response expired", "key", key)
			hit = false
		}
	}

	if !hit {
		observability.Cache().OnCacheMiss(ctx, d.cache.Name())
		return nil, false
	}
	d.logger.Debug("cache hit", "key", key)
	observability.Cache().OnCacheHit(ctx, d.cache.Name())
	resp := fromEntry(entry)
	resp.Cached = true
	return resp, true
}

// send performs one HTTP exchange and classifies it.
func (d *Dispatcher) send(ctx context.Context, method, path string, payload []byte, requestID string) outcome {
	target := d.cfg.APIURL(d.version) + path
	host := hostOf(target)

	attempts := 1
	if method == http.MethodGet {
		attempts = getAttempts
	}

	observability.HTTP().OnRequest(ctx, method, host, path)
	start := time.Now()

	var resp *http.Response
	err := httputil.Retry(ctx, attempts, getRetryDelay, func() error {
		req, err := d.newRequest(ctx, method, target, payload, requestID)
		if err != nil {
			return err
		}
		r, err := d.doer.Do(req)
		if err != nil {
			return httputil.Retryable(err)
		}
		resp = r
		return nil
	})
	if err != nil {
		observability.HTTP().OnError(ctx, method, host, path, err)
		return outcome{kind: outcomeFailed, err: errors.Wrap(errors.ErrCodeNetwork, err, "%s %s", method, path)}
	}

	data, err := httputil.ReadBody(resp)
	if err != nil {
		observability.HTTP().OnError(ctx, method, host, path, err)
		return outcome{kind: outcomeFailed, err: errors.Wrap(errors.ErrCodeNetwork, err, "%s %s", method, path)}
	}
	observability.HTTP().OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))
	d.logger.Debug("response", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)

	return classify(method, path, resp.StatusCode, data)
}

func (d *Dispatcher) newRequest(ctx context.Context, method, target string, payload []byte, requestID string) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set("X-Request-Id", requestID)
	if h := d.auth.Header(); h != "" {
		req.Header.Set("Authorization", h)
	}
	return req, nil
}

// classify maps a status code to an outcome.
func classify(method, path string, status int, data []byte) outcome {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return outcome{
			kind:   outcomeAuthFailed,
			status: status,
			err:    errors.FromResponse(errors.ErrCodeAuthenticationFailed, method, path, status, data),
		}
	case http.StatusInternalServerError:
		return outcome{
			kind:   outcomeFailed,
			status: status,
			err:    errors.FromResponse(errors.ErrCodeAPI, method, path, status, data),
		}
	case http.StatusOK, http.StatusCreated, http.StatusBadRequest, http.StatusNotFound:
		return outcome{
			kind:   outcomeOK,
			status: status,
			resp:   &Response{Code: status, Body: normalizeBody(data)},
		}
	default:
		return outcome{
			kind:   outcomeFailed,
			status: status,
			err:    errors.FromResponse(errors.ErrCodeGeneric, method, path, status, data),
		}
	}
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return b, nil
	case []byte:
		return b, nil
	default:
		return json.Marshal(body)
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
