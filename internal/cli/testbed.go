package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raysh454/formfetch/internal/testbed"
)

func newTestbedCmd(st *state) *cobra.Command {
	var (
		port    int
		root    string
		uploads string
		wasmDir string
	)

	cmd := &cobra.Command{
		Use:   "testbed",
		Short: "Serve the sample form page with echo, upload and delete endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := st.cfg.Testbed
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("root") {
				cfg.DocumentRoot = root
			}
			if cmd.Flags().Changed("uploads") {
				cfg.UploadsDir = uploads
			}
			if cmd.Flags().Changed("wasm") {
				cfg.WasmDir = wasmDir
			}
			if cfg.Port < 1 || cfg.Port > 65535 {
				return fmt.Errorf("invalid port %d", cfg.Port)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "testbed on http://localhost:%d/\n", cfg.Port)
			return testbed.New(cfg, st.logger).Start(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port (default from config, 8080)")
	cmd.Flags().StringVar(&root, "root", "", "Document root")
	cmd.Flags().StringVar(&uploads, "uploads", "", "Upload directory")
	cmd.Flags().StringVar(&wasmDir, "wasm", "", "Directory holding formfetch.wasm and wasm_exec.js, served under /wasm/")
	return cmd
}
