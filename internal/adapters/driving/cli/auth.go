package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuthCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Refresh the portal's CRPT tokens",
		Long: `Fetches the pending authentication challenges, signs the ones the
portal requires an answer for and submits the signatures. Run this when
order submissions start failing with authorization errors.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, logger, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()
			defer logger.Sync()

			result, err := client.Auth().RefreshTokens(cmd.Context())
			if err != nil {
				return err
			}
			if result.Answered == 0 && result.Skipped == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no auth challenges pending")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "answered %d challenges, %d needed no answer\n",
				result.Answered, result.Skipped)
			return nil
		},
	}
}
