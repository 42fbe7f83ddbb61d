package httpclient

import (
	"net/http"
	"testing"
)

func newAuthRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "http://localhost/v1/audio/transcriptions", nil)
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestBearerAuth(t *testing.T) {
	req := newAuthRequest(t)
	BearerAuth("sk-test").apply(req)
	if got := req.Header.Get("Authorization"); got != "Bearer sk-test" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestHeaderAuth(t *testing.T) {
	req := newAuthRequest(t)
	HeaderAuth("X-API-Key", "sidecar").apply(req)
	if got := req.Header.Get("X-API-Key"); got != "sidecar" {
		t.Errorf("X-API-Key = %q", got)
	}
	if got := req.Header.Get("Authorization"); got != "" {
		t.Errorf("Authorization should be unset, got %q", got)
	}
}

func TestAuthEmptyTokenSendsNothing(t *testing.T) {
	for name, auth := range map[string]*AuthConfig{
		"nil":          nil,
		"empty bearer": BearerAuth(""),
		"empty header": HeaderAuth("X-API-Key", ""),
	} {
		t.Run(name, func(t *testing.T) {
			req := newAuthRequest(t)
			auth.apply(req)
			if len(req.Header) != 0 {
				t.Errorf("headers = %v, want none", req.Header)
			}
		})
	}
}

func TestAuthDefaultHeader(t *testing.T) {
	req := newAuthRequest(t)
	(&AuthConfig{Token: "raw"}).apply(req)
	if got := req.Header.Get("Authorization"); got != "raw" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestAuthStringMasksToken(t *testing.T) {
	tests := []struct {
		auth *AuthConfig
		want string
	}{
		{nil, "none"},
		{BearerAuth(""), "none"},
		{BearerAuth("sk-secret"), "Authorization: Bearer ****"},
		{HeaderAuth("X-API-Key", "k"), "X-API-Key: ****"},
	}
	for _, tt := range tests {
		if got := tt.auth.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
