package webclient

import "context"

// WebClient performs one HTTP exchange. Implementations return the response
// for every status code; only transport failures are errors.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	Close() error
}
