package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/raysh454/formfetch/internal/logging"
)

func newServeCmd(st *state) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dispatch API (REST, WebSocket and Swagger UI)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				st.cfg.Server.ListenAddr = listen
			}

			a, err := st.application()
			if err != nil {
				return err
			}
			defer a.Close()

			srv, err := a.NewServer()
			if err != nil {
				return err
			}
			httpSrv := srv.HTTPServer()

			errCh := make(chan error, 1)
			go func() {
				st.logger.Info("api listening", logging.Field{Key: "addr", Value: httpSrv.Addr})
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("serve: %w", err)
			case <-cmd.Context().Done():
				st.logger.Info("shutting down")
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return httpSrv.Shutdown(ctx)
			}
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config, :8081)")
	return cmd
}
