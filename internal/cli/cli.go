// Package cli builds the formfetch command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raysh454/formfetch/internal/app"
	"github.com/raysh454/formfetch/internal/logging"
)

// state is filled by the root command before any subcommand runs.
type state struct {
	configPath string
	logFormat  string

	cfg    *app.Config
	logger logging.Logger
}

// NewRootCmd returns the formfetch root command. It holds no package-level
// state, so tests may build as many as they like.
func NewRootCmd() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:           "formfetch",
		Short:         "formfetch sends the request described by a URL/Data/Response field triple and writes back the reply.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(st.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-format") {
				cfg.LogFormat = st.logFormat
			}
			logger, err := logging.New(cfg.LogFormat, "formfetch", cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			st.cfg = cfg
			st.logger = logger
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Usage()
		},
	}

	root.PersistentFlags().StringVarP(&st.configPath, "config", "c", "", "Config file (YAML, JSON or TOML)")
	root.PersistentFlags().StringVar(&st.logFormat, "log-format", "json", "Log format: json, zap or none")

	root.AddCommand(
		newSendCmd(st),
		newBrowseCmd(st),
		newServeCmd(st),
		newTestbedCmd(st),
		newBackendsCmd(st),
	)
	return root
}

// application builds the shared services from the loaded config.
func (st *state) application() (*app.Application, error) {
	a, err := app.NewApplication(st.cfg, st.logger)
	if err != nil {
		return nil, fmt.Errorf("starting formfetch: %w", err)
	}
	return a, nil
}
