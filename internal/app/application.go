package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raysh454/formfetch/internal/dispatch"
	"github.com/raysh454/formfetch/internal/history"
	"github.com/raysh454/formfetch/internal/logging"
	"github.com/raysh454/formfetch/internal/server"
	"github.com/raysh454/formfetch/internal/webclient"
)

// Application is the global runtime state container.
// It holds config and the core services that are shared across commands
// (webclient, history, logger). Pass Application into code that needs
// access to the global state rather than using package-level variables.
type Application struct {
	Config *Config
	Logger logging.Logger

	Client  webclient.WebClient
	History *history.Store

	variant  dispatch.Variant
	ordering dispatch.Ordering
}

// NewApplication validates cfg and builds the webclient and, when enabled,
// the history store.
func NewApplication(cfg *Config, logger logging.Logger) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	variant, err := dispatch.ParseVariant(cfg.Variant)
	if err != nil {
		return nil, err
	}
	ordering, err := dispatch.ParseOrdering(cfg.Ordering)
	if err != nil {
		return nil, err
	}

	client, err := webclient.NewWebClient(cfg.WebClient, logger)
	if err != nil {
		return nil, fmt.Errorf("creating webclient: %w", err)
	}

	a := &Application{
		Config:   cfg,
		Logger:   logger,
		Client:   client,
		variant:  variant,
		ordering: ordering,
	}

	if cfg.History {
		root, err := expandPath(cfg.StorageRoot)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("expanding storage root path: %w", err)
		}
		store, err := history.Open(filepath.Join(root, "history.db"), logger)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("opening history: %w", err)
		}
		a.History = store
	}

	logger.Debug("application ready",
		logging.Field{Key: "backend", Value: string(cfg.WebClient.Client)},
		logging.Field{Key: "variant", Value: variant.Name},
		logging.Field{Key: "ordering", Value: ordering.String()},
		logging.Field{Key: "history", Value: a.History != nil})
	return a, nil
}

// Variant returns the configured variant.
func (a *Application) Variant() dispatch.Variant {
	return a.variant
}

// DispatchOptions are the dispatcher options implied by the config.
func (a *Application) DispatchOptions() []dispatch.Option {
	opts := []dispatch.Option{
		dispatch.WithVariant(a.variant),
		dispatch.WithTimeout(a.Config.Timeout),
		dispatch.WithOrdering(a.ordering),
	}
	if a.History != nil {
		opts = append(opts, dispatch.WithObserver(a.History.Observer()))
	}
	return opts
}

// NewDispatcher returns a dispatcher over bindings using the shared client.
func (a *Application) NewDispatcher(bindings dispatch.Bindings, extra ...dispatch.Option) *dispatch.Dispatcher {
	return dispatch.New(a.Client, bindings, a.Logger, append(a.DispatchOptions(), extra...)...)
}

// NewServer builds the API server over the application's services.
func (a *Application) NewServer() (*server.Server, error) {
	return server.NewServer(server.Config{
		ListenAddr:     a.Config.Server.ListenAddr,
		AllowedOrigins: a.Config.Server.AllowedOrigins,
		Variant:        a.variant,
		Timeout:        a.Config.Timeout,
		Ordering:       a.ordering,
		Client:         a.Client,
		History:        a.History,
		Logger:         a.Logger,
	})
}

// Close releases the webclient and history store.
func (a *Application) Close() error {
	if a == nil {
		return errors.New("application is nil")
	}
	var errs []error
	if a.History != nil {
		errs = append(errs, a.History.Close())
	}
	if a.Client != nil {
		errs = append(errs, a.Client.Close())
	}
	return errors.Join(errs...)
}

func expandPath(p string) (string, error) {
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
