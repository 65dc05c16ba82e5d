package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raysh454/formfetch/internal/webclient"
)

func newBackendsCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the available WebClient backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range webclient.ListBackends() {
				marker := " "
				if name == string(st.cfg.WebClient.Client) {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
			}
			return nil
		},
	}
}
