package httpclient

import "net/http"

// AuthConfig attaches a credential header to outgoing requests.
// A nil config or an empty token leaves the request untouched, so an
// unconfigured key surfaces as the upstream's 401 instead of a local panic.
type AuthConfig struct {
	// Header is the header name. Defaults to Authorization.
	Header string
	// Scheme prefixes the token, e.g. "Bearer". Empty sends the raw token.
	Scheme string
	Token  string
}

// BearerAuth sends "Authorization: Bearer <token>", the scheme used by the
// OpenAI-compatible transcription and chat endpoints.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Header: "Authorization", Scheme: "Bearer", Token: token}
}

// HeaderAuth sends the raw token under a custom header. Local sidecars
// fronted by a proxy typically expect X-API-Key.
func HeaderAuth(header, token string) *AuthConfig {
	return &AuthConfig{Header: header, Token: token}
}

// String masks the token so configs can be logged.
func (a *AuthConfig) String() string {
	if a == nil || a.Token == "" {
		return "none"
	}
	name := a.Header
	if name == "" {
		name = "Authorization"
	}
	if a.Scheme != "" {
		return name + ": " + a.Scheme + " ****"
	}
	return name + ": ****"
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil || a.Token == "" {
		return
	}
	name := a.Header
	if name == "" {
		name = "Authorization"
	}
	value := a.Token
	if a.Scheme != "" {
		value = a.Scheme + " " + a.Token
	}
	req.Header.Set(name, value)
}
