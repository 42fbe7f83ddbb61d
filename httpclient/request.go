package httpclient

// Request is one call. Path is appended to the client's BaseURL unless it
// already carries a scheme.
//
// Body is encoded by type: *MultipartBody as form data, []byte as is, a
// string as text/plain and anything else as JSON.
type Request struct {
	Method string
	Path   string
	Body   any
}

// Response is a fully read reply. Headers keep the first value of each.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}
