package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kbukum/samuelizer/resilience"
)

// Client sends Requests to one remote service.
type Client struct {
	http    *http.Client
	base    string
	cfg     Config
	limiter *resilience.RateLimiter
}

// New builds a Client. BaseURL, when set, must parse as a URL.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL != "" {
		if _, err := url.Parse(cfg.BaseURL); err != nil {
			return nil, fmt.Errorf("httpclient: base url: %w", err)
		}
	}
	c := &Client{
		http: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
			Timeout:   cfg.timeout(),
		},
		base: strings.TrimRight(cfg.BaseURL, "/"),
		cfg:  cfg,
	}
	if cfg.RateLimiter != nil {
		c.limiter = resilience.NewRateLimiter(*cfg.RateLimiter)
	}
	return c, nil
}

// Do sends req, retrying transient failures when the client has a retry
// policy. For non-2xx replies the read Response comes back together with
// the classified *Error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	attempt := func() (*Response, error) { return c.send(ctx, req) }
	if c.cfg.Retry == nil {
		return attempt()
	}
	return resilience.Retry(ctx, *c.cfg.Retry, attempt)
}

func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{Kind: KindTimeout, Err: err}
		}
	}
	hreq, err := c.build(ctx, req)
	if err != nil {
		return nil, &Error{Kind: KindRejected, Err: err}
	}
	hresp, err := c.http.Do(hreq)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer hresp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, transportError(ctx, fmt.Errorf("read body: %w", err))
	}
	resp := &Response{StatusCode: hresp.StatusCode, Headers: make(map[string]string, len(hresp.Header)), Body: body}
	for k := range hresp.Header {
		resp.Headers[k] = hresp.Header.Get(k)
	}
	if e := statusError(hresp.StatusCode, body); e != nil {
		return resp, e
	}
	return resp, nil
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	target := req.Path
	if c.base != "" && !strings.Contains(target, "://") {
		target = c.base + "/" + strings.TrimLeft(target, "/")
	}
	body, contentType, err := encode(req.Body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}
	for k, v := range c.cfg.Headers {
		hreq.Header.Set(k, v)
	}
	switch {
	case contentType == "":
	case isMultipart(req.Body):
		// a fresh boundary per encode, so it always wins
		hreq.Header.Set("Content-Type", contentType)
	case hreq.Header.Get("Content-Type") == "":
		hreq.Header.Set("Content-Type", contentType)
	}
	c.cfg.Auth.apply(hreq)
	return hreq, nil
}

func isMultipart(body any) bool {
	_, ok := body.(*MultipartBody)
	return ok
}

// encode turns a Request body into a reader and its content type.
func encode(body any) (io.Reader, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case *MultipartBody:
		return v.encode()
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// Download streams a GET of path into w and returns the bytes written. It
// runs once even when the client has a retry policy, since w may already
// hold part of the body.
func (c *Client) Download(ctx context.Context, path string, w io.Writer) (int64, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, &Error{Kind: KindTimeout, Err: err}
		}
	}
	hreq, err := c.build(ctx, Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return 0, &Error{Kind: KindRejected, Err: err}
	}
	hresp, err := c.streaming().Do(hreq)
	if err != nil {
		return 0, transportError(ctx, err)
	}
	defer hresp.Body.Close() //nolint:errcheck

	if hresp.StatusCode < 200 || hresp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(hresp.Body, 4<<10))
		return 0, statusError(hresp.StatusCode, body)
	}
	n, err := io.Copy(w, hresp.Body)
	if err != nil {
		return n, transportError(ctx, fmt.Errorf("read body: %w", err))
	}
	return n, nil
}

// streaming drops the whole-request timeout; a large download is bounded
// by ctx instead.
func (c *Client) streaming() *http.Client {
	hc := *c.http
	hc.Timeout = 0
	return &hc
}
