package httpclient

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Options configures the shared resty base client.
type Options struct {
	BaseURL string
	// Timeout of zero leaves the transport default in place.
	Timeout time.Duration
	Jar     http.CookieJar
	Headers map[string]string
}

// NewRestyClientWithOptions builds a resty.Client with base URL, cookie jar and default headers applied.
func NewRestyClientWithOptions(opts Options) *resty.Client {
	return newRestyBaseClient(opts)
}

// newRestyBaseClient creates a new resty.Client from opts.
func newRestyBaseClient(opts Options) *resty.Client {
	c := resty.New()
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		c.SetBaseURL(strings.TrimRight(base, "/"))
	}
	if opts.Jar != nil {
		c.SetCookieJar(opts.Jar)
	}
	if len(opts.Headers) > 0 {
		c.SetHeaders(opts.Headers)
	}
	return c
}

// Wrap adapts a resty.Response to the Response interface.
func Wrap(resp *resty.Response) Response {
	return &restyResponseAdapter{resp: resp}
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte        { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header { return r.resp.Header() }
