package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/raysh454/formfetch/internal/browser"
	"github.com/raysh454/formfetch/internal/dispatch"
)

func newBrowseCmd(st *state) *cobra.Command {
	var (
		url     string
		data    string
		headful bool
		list    bool
	)

	cmd := &cobra.Command{
		Use:   "browse PAGE_URL [METHOD]",
		Short: "Drive the field triples of a live page in Chrome",
		Long: `Open PAGE_URL in Chrome, bind its <method>Url/<method>Data/<method>Response
elements and dispatch METHOD against them. --url and --data are typed into
the page first. The response element's text is printed afterwards.
With --list the discovered triples are printed instead.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !list && len(args) != 2 {
				return errors.New("METHOD is required unless --list is set")
			}
			ctx := cmd.Context()

			page, err := browser.Open(ctx, args[0], st.logger,
				browser.WithHeadless(!headful),
				browser.WithIdleAfter(st.cfg.WebClient.IdleAfter))
			if err != nil {
				return err
			}
			defer page.Close()

			triples, err := page.Triples(ctx)
			if err != nil {
				return err
			}
			if list {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "METHOD\tURL\tDATA\tRESPONSE")
				for _, t := range triples {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Method, t.URLID, orDash(t.DataID), orDash(t.ResponseID))
				}
				return tw.Flush()
			}

			method := strings.ToUpper(strings.TrimSpace(args[1]))
			triple, ok := findTriple(triples, method)
			if !ok {
				return fmt.Errorf("%w: no %sUrl element on %s", dispatch.ErrConfigurationMissing, strings.ToLower(method), args[0])
			}
			if cmd.Flags().Changed("url") {
				if err := page.Element(triple.URLID).SetValue(ctx, url); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("data") {
				if triple.DataID == "" {
					return fmt.Errorf("page has no data element for %s", method)
				}
				if err := page.Element(triple.DataID).SetValue(ctx, data); err != nil {
					return err
				}
			}

			bindings, err := page.Bindings(ctx)
			if err != nil {
				return err
			}

			a, err := st.application()
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := a.NewDispatcher(bindings).Dispatch(ctx, method)
			if err != nil {
				return err
			}
			res, err := task.Wait(ctx)
			if err != nil {
				return err
			}

			text, err := page.Element(triple.ResponseID).Text(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			if res.Err != nil {
				return fmt.Errorf("%s: %w", method, res.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "", "Value typed into the URL element first")
	cmd.Flags().StringVarP(&data, "data", "d", "", "Value typed into the data element first")
	cmd.Flags().BoolVar(&headful, "headful", false, "Show the browser window")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "List the page's field triples and exit")
	return cmd
}

func findTriple(triples []browser.Triple, method string) (browser.Triple, bool) {
	for _, t := range triples {
		if t.Method == method {
			return t, true
		}
	}
	return browser.Triple{}, false
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
