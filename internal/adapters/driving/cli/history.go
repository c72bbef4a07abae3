package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHistoryCommand(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List processed orders and introductions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, logger, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()
			defer logger.Sync()

			entries, err := client.History().List(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no history yet")
				return nil
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tNUMBER\tSTATUS\tQTY\tUPDATED\tTSD")
			for _, e := range entries {
				tsd := ""
				if e.TSDCreated {
					tsd = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
					e.OrderID, e.Kind, e.DocumentNumber, e.Status,
					e.Quantity, e.UpdatedAt.Format("2006-01-02 15:04"), tsd)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many entries, newest first")

	return cmd
}
