package server

import (
	"time"

	"github.com/raysh454/formfetch/internal/dispatch"
	"github.com/raysh454/formfetch/internal/history"
	"github.com/raysh454/formfetch/internal/logging"
	"github.com/raysh454/formfetch/internal/webclient"
)

type Config struct {
	// ListenAddr is the HTTP listen address for the API server.
	ListenAddr string

	// AllowedOrigins for CORS. Empty means any origin.
	AllowedOrigins []string

	// Variant is used when a request names none.
	Variant dispatch.Variant

	// Timeout bounds each dispatch. Zero means none.
	Timeout time.Duration

	// Ordering applies to websocket sessions, whose dispatches share one target.
	Ordering dispatch.Ordering

	// Client performs the requests. Required.
	Client webclient.WebClient

	// History records finished dispatches when set.
	History *history.Store

	Logger logging.Logger
}
