package dispatch

import (
	"fmt"
	"net/http"

	"github.com/raysh454/formfetch/internal/webclient"
)

// BuildRequest turns field values into request options. The method is always
// set. Non-empty data on a body-bearing method is parsed as JSON and sent
// re-serialized compactly, with a JSON content type; other methods ignore
// data without parsing it.
func BuildRequest(v Variant, method, url, data string) (*webclient.Request, error) {
	req := &webclient.Request{Method: method, URL: url}
	if data == "" || !v.BearsBody(method) {
		return req, nil
	}

	body, err := formatJSON([]byte(data), "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	req.Headers = http.Header{"Content-Type": {"application/json"}}
	req.Body = body
	return req, nil
}

// Render renders resp with v. Non-2xx statuses render like any other.
func Render(v Variant, resp *webclient.Response) (string, error) {
	return v.Render(resp)
}

// RenderError is the text written for a failed dispatch.
func RenderError(err error) string {
	return "Error: " + err.Error()
}
