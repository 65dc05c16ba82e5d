package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/raysh454/formfetch/internal/dispatch"
	"github.com/raysh454/formfetch/internal/fields"
	"github.com/raysh454/formfetch/internal/webclient"
)

func newSendCmd(st *state) *cobra.Command {
	var (
		url     string
		data    string
		variant string
		backend string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send METHOD",
		Short: "Send one request and print the rendered reply",
		Long: `Send one request with METHOD to --url, attaching --data as a JSON body
when the variant allows it for METHOD. The rendered reply, or an
"Error: ..." line, is printed to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(url) == "" {
				return fmt.Errorf("missing required --url")
			}
			if cmd.Flags().Changed("variant") {
				st.cfg.Variant = variant
			}
			if cmd.Flags().Changed("backend") {
				st.cfg.WebClient.Client = webclient.Client(backend)
			}
			if cmd.Flags().Changed("timeout") {
				st.cfg.Timeout = timeout
			}

			a, err := st.application()
			if err != nil {
				return err
			}
			defer a.Close()

			method := args[0]
			bindings := dispatch.Bindings{}
			bindings.Set(method, dispatch.Binding{
				URL:      fields.Static(url),
				Data:     fields.Static(data),
				Response: fields.WriterSink(cmd.OutOrStdout()),
				Target:   "stdout",
			})

			task, err := a.NewDispatcher(bindings).Dispatch(cmd.Context(), method)
			if err != nil {
				return err
			}
			res, err := task.Wait(cmd.Context())
			if err != nil {
				return err
			}
			if res.Err != nil {
				return fmt.Errorf("%s %s: %w", task.Method, url, res.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "", "Request URL (required)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON data for body-bearing methods")
	cmd.Flags().StringVar(&variant, "variant", "", "Variant: json or text (default from config)")
	cmd.Flags().StringVar(&backend, "backend", "", "WebClient backend (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-dispatch timeout, e.g. 5s")
	return cmd
}
