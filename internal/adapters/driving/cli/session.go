package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSessionCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and control the cached portal session",
	}
	cmd.AddCommand(newSessionInfoCommand(opts), newSessionRefreshCommand(opts))
	return cmd
}

func newSessionInfoCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the state of the session cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, logger, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()
			defer logger.Sync()

			info := client.SessionInfo()
			out := cmd.OutOrStdout()
			if !info.HasSession {
				fmt.Fprintln(out, "no session cached yet")
			} else {
				freshness := "stale"
				if info.Fresh {
					freshness = "fresh"
				}
				fmt.Fprintf(out, "session %s, issued %s (age %s)\n",
					freshness, info.IssuedAt.Format("15:04:05"), info.Age.Round(time.Second))
			}
			fmt.Fprintf(out, "refreshes: %d ok, %d failed\n", info.Refreshes, info.Failures)
			if !info.LastSuccess.IsZero() {
				fmt.Fprintf(out, "last success: %s\n", info.LastSuccess.Format("15:04:05"))
			}
			if info.LastError != nil {
				fmt.Fprintf(out, "last failure: %v\n", info.LastError)
			}
			return nil
		},
	}
}

func newSessionRefreshCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Ask the cache to rebuild its session now",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, logger, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()
			defer logger.Sync()

			client.TriggerSessionRefresh()
			fmt.Fprintln(cmd.OutOrStdout(), "refresh requested")
			return nil
		},
	}
}
