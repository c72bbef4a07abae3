// Package cli implements the operator command line over the portal
// automation client. Every command builds a client from the config file
// plus KONTUR_* environment overrides, runs one workflow and exits with
// a code that tells scripts which failure class occurred.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	konturapi "github.com/kirillbelykh/kontur-api"
)

type options struct {
	configFile string
	verbose    bool
}

// NewRootCommand returns the root of the cobra command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "kontur-api",
		Short: "Automates codes orders on the Kontur marking portal",
		Long: `kontur-api drives the mk.kontur.ru marking portal through its private
REST API: it creates codes orders, signs the portal's payloads with a
CryptoPro certificate, submits them, waits for release and downloads
the label files. Sessions ride on harvested browser cookies and are
refreshed in the background.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "path to the YAML config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newOrderCommand(opts),
		newIntroduceCommand(opts),
		newAuthCommand(opts),
		newStatusCommand(opts),
		newDownloadCommand(opts),
		newHistoryCommand(opts),
		newSessionCommand(opts),
		newVersionCommand(),
	)

	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		var appErr *konturapi.AppError
		if errors.As(err, &appErr) {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appErr.Code.Title(), err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return ExitCode(err)
	}
	return 0
}

// ExitCode maps an error to the process exit code scripts key on.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var appErr *konturapi.AppError
	if errors.As(err, &appErr) {
		return appErr.Code.ExitCode()
	}
	return 1
}

// loadConfig reads the config file when one was given, then overlays
// environment variables. Env wins.
func (o *options) loadConfig() (konturapi.Config, error) {
	var cfg konturapi.Config
	if o.configFile != "" {
		loaded, err := konturapi.LoadConfig(o.configFile)
		if err != nil {
			return cfg, konturapi.ConfigError(err.Error())
		}
		cfg = loaded
	}
	if err := cfg.FromEnv(); err != nil {
		return cfg, konturapi.ConfigError(err.Error())
	}
	return cfg, nil
}

func (o *options) buildLogger() (*zap.Logger, error) {
	if o.verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// client builds the portal client. Callers own Close.
func (o *options) client() (*konturapi.Client, *zap.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := o.buildLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	client, err := konturapi.New(cfg, konturapi.WithLogger(logger))
	if err != nil {
		logger.Sync()
		return nil, nil, err
	}
	return client, logger, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "kontur-api", konturapi.Version)
		},
	}
}
