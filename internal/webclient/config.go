package webclient

import "time"

type Client string

const (
	ClientNetHTTP  Client = "nethttp"
	ClientChromedp Client = "chromedp"
)

// Config selects and tunes a WebClient backend.
type Config struct {
	Client Client `mapstructure:"backend"`

	// Timeout bounds a whole exchange. Zero means no timeout.
	Timeout time.Duration `mapstructure:"timeout"`

	// Headless controls whether the chromedp backend hides the browser window.
	Headless bool `mapstructure:"headless"`

	// IdleAfter is how long the chromedp backend waits for the origin page's
	// network to go quiet before issuing fetch().
	IdleAfter time.Duration `mapstructure:"idle_after"`

	// MaxBodyBytes caps a response body. Zero means no cap.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// DefaultConfig returns the nethttp backend with no timeout and a 10 MiB
// body cap.
func DefaultConfig() Config {
	return Config{
		Client:       ClientNetHTTP,
		Headless:     true,
		IdleAfter:    500 * time.Millisecond,
		MaxBodyBytes: 10 << 20,
	}
}
