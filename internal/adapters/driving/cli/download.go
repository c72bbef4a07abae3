package cli

import (
	"github.com/spf13/cobra"
)

func newDownloadCommand(opts *options) *cobra.Command {
	var (
		fileType string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "download <order-id>",
		Short: "Download the codes file of a released order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, logger, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()
			defer logger.Sync()

			return saveCodesFile(cmd, client, args[0], fileType, output)
		},
	}

	cmd.Flags().StringVar(&fileType, "type", "pdf", "codes file format, pdf or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path, defaults to <order-id>-codes.<type>")

	return cmd
}
