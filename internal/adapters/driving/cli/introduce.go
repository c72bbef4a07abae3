package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	konturapi "github.com/kirillbelykh/kontur-api"
)

func newIntroduceCommand(opts *options) *cobra.Command {
	var (
		number         string
		producerINN    string
		productionDate string
		expirationType string
		expirationDate string
		batchNumber    string
		tsd            bool
		sourceOrder    string
		gtins          []string
	)

	cmd := &cobra.Command{
		Use:   "introduce",
		Short: "Create and send an introduction-into-circulation document",
		Long: `Creates an introduction-into-circulation document for codes that were
printed and applied, fills in the production details and hands the
document over: to the file flow by default, or to a warehouse data
terminal with --tsd. Dates are calendar days (2006-01-02); the portal
timezone offset is added automatically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, logger, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()
			defer logger.Sync()

			prodDate, err := portalDate(productionDate)
			if err != nil {
				return konturapi.ConfigError(fmt.Sprintf("production date: %v", err))
			}
			expDate := ""
			if expirationDate != "" {
				expDate, err = portalDate(expirationDate)
				if err != nil {
					return konturapi.ConfigError(fmt.Sprintf("expiration date: %v", err))
				}
			}

			rows, err := resolveRows(client, gtins)
			if err != nil {
				return err
			}

			fillingMethod := konturapi.FillingMethodFile
			if tsd {
				fillingMethod = konturapi.FillingMethodTSD
			}

			result, err := client.Circulation().Run(cmd.Context(), konturapi.IntroductionRequest{
				Production: konturapi.IntroductionProduction{
					DocumentNumber: number,
					ProducerINN:    producerINN,
					ProductionDate: prodDate,
					ExpirationType: expirationType,
					ExpirationDate: expDate,
					BatchNumber:    batchNumber,
					FillingMethod:  fillingMethod,
				},
				Rows:          rows,
				SourceOrderID: sourceOrder,
			})
			if err != nil {
				return err
			}

			destination := "file flow"
			if result.SentToTSD {
				destination = "warehouse terminal"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "introduction %s sent to the %s\n",
				result.DocumentID, destination)
			return nil
		},
	}

	cmd.Flags().StringVarP(&number, "number", "n", "", "document number for the introduction")
	cmd.Flags().StringVar(&producerINN, "producer-inn", "", "producer INN")
	cmd.Flags().StringVar(&productionDate, "date", "", "production date, defaults to today")
	cmd.Flags().StringVar(&expirationType, "expiration-type", "", "portal expiration type tag")
	cmd.Flags().StringVar(&expirationDate, "expiration-date", "", "expiration date")
	cmd.Flags().StringVar(&batchNumber, "batch-number", "", "production batch number")
	cmd.Flags().BoolVar(&tsd, "tsd", false, "hand over to a warehouse data terminal")
	cmd.Flags().StringVar(&sourceOrder, "source-order", "", "codes order these labels came from")
	cmd.Flags().StringArrayVar(&gtins, "gtin", nil, "product row by GTIN, repeatable")

	return cmd
}

// portalDate renders a YYYY-MM-DD day (or today) the way the portal
// wants dates.
func portalDate(day string) (string, error) {
	if day == "" {
		return konturapi.FormatPortalDate(time.Now()), nil
	}
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return "", err
	}
	return konturapi.FormatPortalDate(t), nil
}

// resolveRows turns --gtin flags into introduction rows via the catalog.
func resolveRows(client *konturapi.Client, gtins []string) ([]konturapi.IntroductionPosition, error) {
	if len(gtins) == 0 {
		return nil, nil
	}
	catalog := client.Catalog()
	if catalog == nil {
		return nil, konturapi.ConfigError("catalog_file is required to resolve rows")
	}
	rows := make([]konturapi.IntroductionPosition, 0, len(gtins))
	for _, gtin := range gtins {
		product, err := catalog.Lookup(gtin)
		if err != nil {
			return nil, konturapi.ConfigError(fmt.Sprintf("gtin %s: %v", gtin, err))
		}
		rows = append(rows, konturapi.IntroductionPosition{
			Name:      product.Name,
			GTIN:      product.GTIN,
			TNVEDCode: product.TNVEDCode,
		})
	}
	return rows, nil
}
