package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
)

// CacheBustParam is the query parameter stamped on every request.
const CacheBustParam = "_t"

var noCacheHeaders = map[string]string{
	"Cache-Control": "no-cache, no-store, must-revalidate",
	"Pragma":        "no-cache",
	"Expires":       "0",
}

func defaultHeaders() map[string]string {
	h := map[string]string{"Content-Type": "application/json"}
	for k, v := range noCacheHeaders {
		h[k] = v
	}
	return h
}

// FailureReporter receives every classified failure after it is logged.
type FailureReporter interface {
	Report(ctx context.Context, err *ClassifiedError)
}

// Options configures a Client.
type Options struct {
	// BaseURL is prepended to relative paths. Empty means callers pass absolute URLs.
	BaseURL string
	// Timeout of zero leaves the transport default in place.
	Timeout time.Duration
	// Jar holds credentials sent with every call. Nil uses an in-memory jar.
	Jar      http.CookieJar
	Messages *Catalog
	Reporter FailureReporter
	Now      func() time.Time
}

// Client performs API calls and classifies every failure into a ClassifiedError.
// A Client is safe for concurrent use.
type Client struct {
	http      *resty.Client
	classify  classifier
	reporter  FailureReporter
	log       Logger
	now       func() time.Time
	lastStamp atomic.Int64
}

// New builds a Client from opts.
func New(opts Options, log Logger) *Client {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Messages == nil {
		opts.Messages = DefaultCatalog()
	}

	c := &Client{
		classify: classifier{messages: opts.Messages},
		reporter: opts.Reporter,
		log:      ensureLogger(log),
		now:      opts.Now,
	}
	c.http = httpclient.NewRestyClientWithOptions(httpclient.Options{
		BaseURL: opts.BaseURL,
		Timeout: opts.Timeout,
		Jar:     opts.Jar,
		Headers: defaultHeaders(),
	})
	c.http.OnBeforeRequest(c.stampRequest)
	return c
}

// Request describes a single API call.
type Request struct {
	Method  string
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    any
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query map[string]string) (httpclient.Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (httpclient.Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (httpclient.Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (httpclient.Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (httpclient.Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// Do performs r. Any non-2xx response or transport failure is returned as a
// *ClassifiedError; nothing is retried.
func (c *Client) Do(ctx context.Context, r Request) (httpclient.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	method := strings.ToUpper(strings.TrimSpace(r.Method))
	if method == "" {
		method = http.MethodGet
	}

	req := c.http.R().SetContext(ctx)
	if len(r.Query) > 0 {
		req.SetQueryParams(r.Query)
	}
	if len(r.Headers) > 0 {
		req.SetHeaders(r.Headers)
	}
	if r.Body != nil {
		req.SetBody(r.Body)
	}

	resp, err := req.Execute(method, r.Path)
	target := requestURL(req.URL, r.Path)

	if resp == nil || resp.RawResponse == nil || isTransportFailure(resp, err) {
		ce := c.classify.network(err)
		ce.Method, ce.URL = method, target
		c.fail(ctx, ce, networkRule, nil, nil)
		return nil, ce
	}
	if err == nil && resp.IsSuccess() {
		return httpclient.Wrap(resp), nil
	}

	ce, rl := c.classify.status(resp.StatusCode(), resp.Body(), resp.Header())
	ce.Method, ce.URL = method, target
	if err != nil {
		// status received but the body read failed; keep both reachable
		ce.Original = errors.Join(ce.Original, err)
	}
	c.fail(ctx, ce, rl, resp.Body(), resp.Header())
	return nil, ce
}

// isTransportFailure reports whether err arrived with a response whose status
// alone would hide it: a successful status, or a cancelled or expired context.
func isTransportFailure(resp *resty.Response, err error) bool {
	if err == nil {
		return false
	}
	return resp.IsSuccess() ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// stampRequest merges the cache-busting timestamp and forces no-cache headers.
func (c *Client) stampRequest(_ *resty.Client, req *resty.Request) error {
	req.SetQueryParam(CacheBustParam, strconv.FormatInt(c.nextStamp(), 10))
	req.SetHeaders(noCacheHeaders)
	return nil
}

// nextStamp returns the current epoch milliseconds, never lower than a previously issued stamp.
func (c *Client) nextStamp() int64 {
	now := c.now().UnixMilli()
	for {
		last := c.lastStamp.Load()
		if now <= last {
			return last
		}
		if c.lastStamp.CompareAndSwap(last, now) {
			return now
		}
	}
}

func (c *Client) fail(ctx context.Context, ce *ClassifiedError, r rule, body []byte, header http.Header) {
	fields := map[string]any{
		"kind":    string(ce.Kind),
		"method":  ce.Method,
		"url":     ce.URL,
		"message": ce.Message,
	}
	if ce.StatusCode > 0 {
		fields["status"] = ce.StatusCode
	}
	if ce.Kind == KindNetwork && ce.Original != nil {
		fields["error"] = ce.Original.Error()
	}
	if snippet := bodySnippet(body, header); snippet != "" {
		fields["body"] = snippet
	}

	if r.level == levelWarn {
		c.log.WarnObj(r.logMsg, "api_error", fields)
	} else {
		c.log.ErrorObj(r.logMsg, "api_error", fields)
	}

	if c.reporter != nil {
		c.reporter.Report(ctx, ce)
	}
}

// requestURL returns the resolved URL without its query string.
func requestURL(resolved, path string) string {
	raw := resolved
	if raw == "" {
		raw = path
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	return u.String()
}
