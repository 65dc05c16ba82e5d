package webclient

import (
	"errors"
	"mime"
	"net/http"
	"time"
)

// ErrBodyTooLarge is returned when a response body exceeds Config.MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// Request is one outgoing exchange. Headers may be nil; only a dispatcher
// sending a JSON body sets Content-Type.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

// Response is returned for every status code.
type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	FetchedAt  time.Time

	// Elapsed is the time from sending the request to reading the last
	// body byte.
	Elapsed time.Duration
}

// MediaType is the response's Content-Type without parameters, lower-cased,
// or "" when absent or malformed.
func (r *Response) MediaType() string {
	if r == nil || r.Headers == nil {
		return ""
	}
	mt, _, err := mime.ParseMediaType(r.Headers.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}
