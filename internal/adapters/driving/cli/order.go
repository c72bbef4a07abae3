package cli

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	konturapi "github.com/kirillbelykh/kontur-api"
)

func newOrderCommand(opts *options) *cobra.Command {
	var (
		number     string
		comment    string
		gtins      []string
		products   []string
		quantities []int
		multistep  bool
		batchFile  string
		download   string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "order",
		Short: "Create, sign, submit and watch a codes order",
		Long: `Creates a codes order, waits until the portal has it ready, signs the
documents the portal wants signed and submits the signatures, then
polls until the codes are released. Positions are resolved through the
product catalog: name products with --product or --gtin and pair each
with a --qty.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, logger, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()
			defer logger.Sync()

			if batchFile != "" {
				return runOrderBatch(cmd.Context(), cmd, client, batchFile)
			}

			positions, err := resolvePositions(client, gtins, products, quantities)
			if err != nil {
				return err
			}

			result, err := client.Orders().Run(cmd.Context(), konturapi.OrderRequest{
				DocumentNumber: number,
				Comment:        comment,
				Positions:      positions,
				Multistep:      multistep,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s released, %d documents signed\n",
				result.OrderID, result.Signed)

			if download != "" {
				return saveCodesFile(cmd, client, result.OrderID, download, output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&number, "number", "n", "", "document number for the order")
	cmd.Flags().StringVar(&comment, "comment", "", "free-text comment")
	cmd.Flags().StringArrayVar(&gtins, "gtin", nil, "position by GTIN, repeatable")
	cmd.Flags().StringArrayVar(&products, "product", nil, "position by catalog product name, repeatable")
	cmd.Flags().IntSliceVar(&quantities, "qty", nil, "quantity per position, in flag order")
	cmd.Flags().BoolVar(&multistep, "multistep", false, "assemble the order the way the portal frontend does")
	cmd.Flags().StringVar(&batchFile, "batch", "", "YAML file with multiple orders to run")
	cmd.Flags().StringVar(&download, "download", "", "download the codes file after release (pdf or csv)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "where to write the downloaded file")

	return cmd
}

// resolvePositions turns --gtin and --product flags into order positions
// using the nomenclature catalog. GTIN flags come first, then products;
// quantities pair up in that order.
func resolvePositions(client *konturapi.Client, gtins, products []string, quantities []int) ([]konturapi.Position, error) {
	total := len(gtins) + len(products)
	if total == 0 {
		return nil, konturapi.ConfigError("at least one --gtin or --product is required")
	}
	if len(quantities) != total {
		return nil, konturapi.ConfigError(
			fmt.Sprintf("got %d positions but %d --qty values", total, len(quantities)))
	}
	catalog := client.Catalog()
	if catalog == nil {
		return nil, konturapi.ConfigError("catalog_file is required to resolve positions")
	}

	positions := make([]konturapi.Position, 0, total)
	next := 0
	for _, gtin := range gtins {
		product, err := catalog.Lookup(gtin)
		if err != nil {
			return nil, konturapi.ConfigError(fmt.Sprintf("gtin %s: %v", gtin, err))
		}
		positions = append(positions, product.Position(quantities[next]))
		next++
	}
	for _, name := range products {
		product, err := catalog.FindByName(name)
		if err != nil {
			return nil, konturapi.ConfigError(fmt.Sprintf("product %q: %v", name, err))
		}
		positions = append(positions, product.Position(quantities[next]))
		next++
	}
	return positions, nil
}

// batchOrder is one order in a --batch file.
type batchOrder struct {
	Number    string `yaml:"number"`
	Comment   string `yaml:"comment"`
	GTIN      string `yaml:"gtin"`
	Product   string `yaml:"product"`
	Quantity  int    `yaml:"quantity"`
	Multistep bool   `yaml:"multistep"`
}

// runOrderBatch runs every order of a batch file, at most cfg workers
// at a time. Failures are collected; good orders keep going.
func runOrderBatch(ctx context.Context, cmd *cobra.Command, client *konturapi.Client, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return konturapi.ConfigError(fmt.Sprintf("read batch file %s: %v", path, err))
	}
	var batch struct {
		Orders []batchOrder `yaml:"orders"`
	}
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return konturapi.ConfigError(fmt.Sprintf("parse batch file %s: %v", path, err))
	}
	if len(batch.Orders) == 0 {
		return konturapi.ConfigError(fmt.Sprintf("batch file %s lists no orders", path))
	}

	workers := client.Workers()
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result *multierror.Error
	)
	for _, order := range batch.Orders {
		order := order
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			err := runBatchOrder(ctx, cmd, client, order)
			if err != nil {
				mu.Lock()
				result = multierror.Append(result, fmt.Errorf("order %s: %w", order.Number, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return result.ErrorOrNil()
}

func runBatchOrder(ctx context.Context, cmd *cobra.Command, client *konturapi.Client, order batchOrder) error {
	var (
		gtins    []string
		products []string
	)
	if order.GTIN != "" {
		gtins = append(gtins, order.GTIN)
	}
	if order.Product != "" {
		products = append(products, order.Product)
	}
	quantities := make([]int, len(gtins)+len(products))
	for i := range quantities {
		quantities[i] = order.Quantity
	}
	positions, err := resolvePositions(client, gtins, products, quantities)
	if err != nil {
		return err
	}

	result, err := client.Orders().Run(ctx, konturapi.OrderRequest{
		DocumentNumber: order.Number,
		Comment:        order.Comment,
		Positions:      positions,
		Multistep:      order.Multistep,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "order %s released, %d documents signed\n",
		result.OrderID, result.Signed)
	return nil
}

// saveCodesFile downloads the label file of a released order.
func saveCodesFile(cmd *cobra.Command, client *konturapi.Client, orderID, fileType, output string) error {
	data, err := client.DownloadCodes(cmd.Context(), orderID, fileType)
	if err != nil {
		return err
	}
	if output == "" {
		output = fmt.Sprintf("%s-codes.%s", orderID, fileType)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "codes file written to %s (%d bytes)\n", output, len(data))
	return nil
}
