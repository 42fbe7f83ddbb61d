// Package httpclient is the HTTP transport used by samuelizer's remote
// adapters: a configurable client with authentication, bounded retry,
// rate limiting and multipart uploads.
//
// Every failure is an *Error with a Kind. Auth, not-found and other 4xx
// kinds are terminal; rate limits, 5xx, timeouts and connection failures
// are retried when the client has a retry policy. Retried requests
// re-encode their body, so file uploads resend the full payload.
//
//	client, _ := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.openai.com/v1",
//	    Timeout: 120 * time.Second,
//	    Auth:    httpclient.BearerAuth(apiKey),
//	    Retry:   httpclient.DefaultRetryConfig(),
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/audio/transcriptions",
//	    Body:   &httpclient.MultipartBody{...},
//	})
//
// The rest subpackage layers typed JSON helpers on top.
package httpclient
