package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(opts *options) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "status <order-id>",
		Short: "Show the portal status of a codes order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, logger, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()
			defer logger.Sync()

			orderID := args[0]
			if wait {
				order, err := client.WaitReleased(cmd.Context(), orderID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "order %s: %s\n", orderID, order.Status)
				return nil
			}

			order, err := client.Order(cmd.Context(), orderID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s: %s\n", orderID, order.Status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the order is released")

	return cmd
}
