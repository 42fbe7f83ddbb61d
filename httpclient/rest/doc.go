// Package rest adds typed JSON calls on top of httpclient for the
// chat-completion adapters:
//
//	client, _ := rest.New(httpclient.Config{
//	    BaseURL: "https://api.openai.com/v1",
//	    Auth:    httpclient.BearerAuth(apiKey),
//	    Retry:   httpclient.DefaultRetryConfig(),
//	})
//
//	reply, err := rest.Post[chatResponse](ctx, client, "/chat/completions", req)
package rest
