package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"unicode/utf8"

	apperrors "github.com/kbukum/samuelizer/errors"
)

func TestStatusError(t *testing.T) {
	tests := []struct {
		status int
		kind   Kind
		retry  bool
	}{
		{400, KindRejected, false},
		{401, KindAuth, false},
		{403, KindAuth, false},
		{404, KindNotFound, false},
		{413, KindRejected, false},
		{429, KindRateLimit, true},
		{500, KindServer, true},
		{503, KindServer, true},
	}
	for _, tt := range tests {
		e := statusError(tt.status, nil)
		if e == nil {
			t.Fatalf("statusError(%d) = nil", tt.status)
		}
		if e.Kind != tt.kind || e.Retryable() != tt.retry {
			t.Errorf("statusError(%d) = %s retryable=%v, want %s retryable=%v",
				tt.status, e.Kind, e.Retryable(), tt.kind, tt.retry)
		}
	}
	for _, ok := range []int{200, 201, 204} {
		if e := statusError(ok, nil); e != nil {
			t.Errorf("statusError(%d) = %v, want nil", ok, e)
		}
	}
}

func TestTransportError(t *testing.T) {
	refused := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	if e := transportError(context.Background(), refused); e.Kind != KindConnection || !e.Retryable() {
		t.Errorf("dial failure = %+v", e)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if e := transportError(ctx, refused); e.Kind != KindTimeout {
		t.Errorf("done context should read as timeout, got %s", e.Kind)
	}
	if !errors.Is(transportError(ctx, refused), refused) {
		t.Error("expected the cause to stay reachable")
	}
}

func TestError_Message(t *testing.T) {
	if got := statusError(404, nil).Error(); got != "httpclient: not_found: HTTP 404" {
		t.Errorf("got %q", got)
	}
	e := &Error{Kind: KindConnection, Err: errors.New("connection refused")}
	if got := e.Error(); got != "httpclient: connection: connection refused" {
		t.Errorf("got %q", got)
	}
}

func TestIs(t *testing.T) {
	wrapped := fmt.Errorf("transcribe: %w", statusError(401, nil))
	if !Is(wrapped, KindAuth) || Is(wrapped, KindServer) {
		t.Error("Is should see through wrapping and match only the kind")
	}
	if !IsNotFound(statusError(404, nil)) {
		t.Error("IsNotFound")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("a plain error is not retryable")
	}
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		err  error
		code apperrors.ErrorCode
	}{
		{&Error{Kind: KindTimeout, Err: errors.New("slow")}, apperrors.ErrCodeTimeout},
		{&Error{Kind: KindConnection, Err: errors.New("refused")}, apperrors.ErrCodeConnectionFailed},
		{statusError(401, nil), apperrors.ErrCodeUnauthorized},
		{statusError(429, nil), apperrors.ErrCodeRateLimited},
		{statusError(404, nil), apperrors.ErrCodeNotFound},
		{statusError(400, []byte(`{"error":"bad file"}`)), apperrors.ErrCodeInvalidInput},
		{statusError(502, nil), apperrors.ErrCodeExternalService},
		{fmt.Errorf("plain"), apperrors.ErrCodeExternalService},
	}
	for _, tt := range tests {
		got := ToAppError("openai", tt.err)
		if !apperrors.HasCode(got, tt.code) {
			t.Errorf("ToAppError(%v) = %v, want code %s", tt.err, got, tt.code)
		}
	}

	if ToAppError("openai", nil) != nil {
		t.Error("expected nil for nil error")
	}
	already := apperrors.Timeout("x")
	if ToAppError("openai", already) != error(already) {
		t.Error("expected AppError to pass through")
	}
}

func TestBodyMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"error":{"message":"Invalid file format.","type":"invalid_request_error"}}`, "Invalid file format."},
		{`{"error":"bad file"}`, "bad file"},
		{`{"detail":"num_speakers must be positive"}`, "num_speakers must be positive"},
		{`upstream said no`, "upstream said no"},
		{``, "HTTP 400"},
	}
	for _, tt := range tests {
		if got := bodyMessage(statusError(400, []byte(tt.body))); got != tt.want {
			t.Errorf("bodyMessage(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestBodyMessage_TruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("a", maxBodyMessage-1) + strings.Repeat("é", 10)
	got := bodyMessage(statusError(502, []byte(body)))
	if !utf8.ValidString(got) {
		t.Fatalf("truncated message is not valid UTF-8: %q", got[len(got)-4:])
	}
	if len(got) > maxBodyMessage || len(got) != maxBodyMessage-1 {
		t.Errorf("len = %d, want %d", len(got), maxBodyMessage-1)
	}
}
