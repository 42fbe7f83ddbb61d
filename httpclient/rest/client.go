package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kbukum/samuelizer/httpclient"
)

// Client exchanges JSON documents over an httpclient.Client, inheriting
// its auth, retry, rate limiting and timeout.
type Client struct {
	http *httpclient.Client
}

// New builds a client that sends and accepts application/json unless the
// config already sets those headers.
func New(cfg httpclient.Config) (*Client, error) {
	headers := make(map[string]string, len(cfg.Headers)+2)
	headers["Content-Type"] = "application/json"
	headers["Accept"] = "application/json"
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	cfg.Headers = headers

	c, err := httpclient.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{http: c}, nil
}

// HTTP exposes the transport for multipart uploads that bypass JSON.
func (c *Client) HTTP() *httpclient.Client { return c.http }

// Get decodes the JSON body of GET path into T.
func Get[T any](ctx context.Context, c *Client, path string) (T, error) {
	return do[T](ctx, c, http.MethodGet, path, nil)
}

// Post sends body as JSON and decodes the reply into T.
func Post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return do[T](ctx, c, http.MethodPost, path, body)
}

func do[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var out T
	resp, err := c.http.Do(ctx, httpclient.Request{Method: method, Path: path, Body: body})
	if err != nil {
		return out, err
	}
	if len(resp.Body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, fmt.Errorf("rest: decode %s %s: %w", method, path, err)
	}
	return out, nil
}
