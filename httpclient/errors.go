package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	apperrors "github.com/kbukum/samuelizer/errors"
)

// Kind says what went wrong with a call.
type Kind string

const (
	KindTimeout    Kind = "timeout"
	KindConnection Kind = "connection"
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "not_found"
	KindRateLimit  Kind = "rate_limit"
	KindRejected   Kind = "rejected" // any other 4xx, or a request that could not be built
	KindServer     Kind = "server"
)

// retryable lists the kinds worth another attempt.
var retryable = map[Kind]bool{
	KindTimeout:    true,
	KindConnection: true,
	KindRateLimit:  true,
	KindServer:     true,
}

// Error is a failed call. StatusCode is zero when no response arrived.
type Error struct {
	Kind       Kind
	StatusCode int
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode > 0:
		return fmt.Sprintf("httpclient: %s: HTTP %d", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("httpclient: %s: %v", e.Kind, e.Err)
	default:
		return "httpclient: " + string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether repeating the call may succeed.
func (e *Error) Retryable() bool {
	return retryable[e.Kind]
}

// statusError classifies a completed response; 2xx yields nil.
func statusError(status int, body []byte) *Error {
	var kind Kind
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusTooManyRequests:
		kind = KindRateLimit
	case status >= 500:
		kind = KindServer
	default:
		kind = KindRejected
	}
	return &Error{Kind: kind, StatusCode: status, Body: body}
}

// transportError classifies a failure that produced no response.
func transportError(ctx context.Context, err error) *Error {
	var t interface{ Timeout() bool }
	if ctx.Err() != nil || (errors.As(err, &t) && t.Timeout()) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindConnection, Err: err}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsNotFound is shorthand for Is(err, KindNotFound).
func IsNotFound(err error) bool { return Is(err, KindNotFound) }

// IsRetryable reports whether err is a transient *Error.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}

// ToAppError maps a transport error from service into the application error
// model. The original error stays reachable through Unwrap, and errors that
// are already AppErrors pass through unchanged.
func ToAppError(service string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	var e *Error
	if !errors.As(err, &e) {
		return apperrors.ExternalServiceError(service, err)
	}
	switch e.Kind {
	case KindTimeout:
		return apperrors.Timeout(service).WithCause(err)
	case KindConnection:
		return apperrors.ConnectionFailed(service).WithCause(err)
	case KindAuth:
		return apperrors.Unauthorized(service + " rejected the credentials").WithCause(err)
	case KindRateLimit:
		return apperrors.RateLimited().WithCause(err)
	case KindNotFound:
		return apperrors.NotFound(service, "resource").WithCause(err)
	case KindRejected:
		return apperrors.InvalidInput("request", bodyMessage(e)).WithCause(err)
	default:
		return apperrors.ExternalServiceError(service, err)
	}
}

// maxBodyMessage caps a raw error body quoted in messages, in bytes.
const maxBodyMessage = 300

// bodyMessage pulls the provider's own explanation out of an error body.
// OpenAI-style APIs send {"error":{"message":...}}; FastAPI sidecars send
// {"detail":...} and simpler ones {"error":"..."}. Anything else is
// returned raw, truncated.
func bodyMessage(e *Error) string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	var envelope struct {
		Error  json.RawMessage `json:"error"`
		Detail string          `json:"detail"`
	}
	if json.Unmarshal(e.Body, &envelope) == nil {
		var nested struct {
			Message string `json:"message"`
		}
		var flat string
		switch {
		case json.Unmarshal(envelope.Error, &nested) == nil && nested.Message != "":
			return nested.Message
		case json.Unmarshal(envelope.Error, &flat) == nil && flat != "":
			return flat
		case envelope.Detail != "":
			return envelope.Detail
		}
	}
	msg := string(e.Body)
	if len(msg) > maxBodyMessage {
		cut := maxBodyMessage
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}
