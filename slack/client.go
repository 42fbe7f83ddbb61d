// Package slack downloads channel history from the Slack Web API so a
// conversation can be summarized like a transcript.
//
// Every list method pages with Slack's next_cursor until the cursor comes
// back empty. Mentions of the form <@U123> are rewritten to @name through
// a UserCache.
package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/httpclient"
	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/resilience"
)

// ServiceName labels Slack in errors and logs.
const ServiceName = "slack"

// Client calls the Slack Web API with one token.
type Client struct {
	cfg   Config
	http  *httpclient.Client
	users *UserCache
	log   *logger.Logger
}

// New builds a Client. A nil users cache keeps names in memory only.
func New(cfg Config, users *UserCache, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if cfg.Token == "" {
		return nil, errors.InvalidInput("slack.token", "a Slack token is required (set SLACK_TOKEN or --token)")
	}
	if log == nil {
		log = logger.Nop()
	}
	hc, err := httpclient.New(httpclient.Config{
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		Auth:        httpclient.BearerAuth(cfg.Token),
		Retry:       httpclient.RetryConfigFrom(cfg.Retry),
		RateLimiter: &resilience.RateLimiterConfig{Name: ServiceName, Rate: cfg.RequestsPerSecond, Burst: 1},
	})
	if err != nil {
		return nil, errors.InvalidInput("slack.base_url", err.Error())
	}
	if users == nil {
		users = NewUserCache(nil)
	}
	return &Client{cfg: cfg, http: hc, users: users, log: log.WithComponent(ServiceName)}, nil
}

// envelope is the part of every Web API reply this package reads.
type envelope struct {
	OK       bool      `json:"ok"`
	Error    string    `json:"error"`
	Messages []Message `json:"messages"`
	Channels []Channel `json:"channels"`
	User     *User     `json:"user"`
	Metadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

// call runs one GET against a Web API method.
func (c *Client) call(ctx context.Context, method string, params url.Values) (*envelope, error) {
	path := method
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	resp, err := c.http.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, httpclient.ToAppError(ServiceName, err)
	}
	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, errors.ExternalServiceError(ServiceName, fmt.Errorf("decode %s: %w", method, err))
	}
	if !env.OK {
		return nil, apiError(method, params, env.Error)
	}
	return &env, nil
}

// pages calls method once per cursor and hands each reply to fn.
func (c *Client) pages(ctx context.Context, method string, params url.Values, fn func(*envelope)) error {
	params.Set("limit", fmt.Sprint(c.cfg.PageSize))
	for page := 1; ; page++ {
		env, err := c.call(ctx, method, params)
		if err != nil {
			return err
		}
		fn(env)
		c.log.Debug("fetched page", logger.Fields("method", method, "page", page))
		if env.Metadata.NextCursor == "" {
			return nil
		}
		params.Set("cursor", env.Metadata.NextCursor)
	}
}

// apiError maps the error string of an ok:false reply.
func apiError(method string, params url.Values, code string) error {
	cause := fmt.Errorf("%s: %s", method, code)
	switch code {
	case "not_authed", "invalid_auth", "token_revoked", "token_expired", "account_inactive", "missing_scope":
		return errors.Unauthorized("slack rejected the token: " + code).WithCause(cause)
	case "channel_not_found":
		return errors.NotFound("channel", params.Get("channel")).WithCause(cause)
	case "user_not_found":
		return errors.NotFound("user", params.Get("user")).WithCause(cause)
	case "ratelimited":
		return errors.RateLimited().WithCause(cause)
	default:
		return errors.ExternalServiceError(ServiceName, cause)
	}
}
