// Package main provides the PharmaVoz operator CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pharmavoz/backend/config"
	"github.com/pharmavoz/backend/internal/app"
	"github.com/pharmavoz/backend/internal/observability"
)

// cli carries state shared by all subcommands
type cli struct {
	tenant     string
	outputJSON bool

	logger   zerolog.Logger
	services *app.App
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}

	root := &cobra.Command{
		Use:   "pharmavoz",
		Short: "Operator tools for PharmaVoz catalogs and rates",
		Long: `pharmavoz manages the data behind the price assistant.

Use it to:
- Import a tenant catalog from a .csv or .xlsx file
- Ask a price question the way a customer would
- Set or inspect the exchange rate of a tenant

Configuration is read like the server does: config.yaml, .env and PHARMAVOZ_* variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			c.logger = observability.NewLogger(observability.LogConfig{
				Level:       cfg.Log.Level,
				Format:      "console",
				Output:      cmd.ErrOrStderr(),
				ServiceName: "pharmavoz-cli",
			})

			c.services, err = app.Open(cmd.Context(), cfg, c.logger)
			if err != nil {
				return fmt.Errorf("open services: %w", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&c.tenant, "tenant", "t", "", "tenant (pharmacy) identifier")
	root.PersistentFlags().BoolVar(&c.outputJSON, "json", false, "output in JSON format")
	_ = root.MarkPersistentFlagRequired("tenant")

	root.AddCommand(c.newImportCmd())
	root.AddCommand(c.newQueryCmd())
	root.AddCommand(c.newRateCmd())

	return root, c
}

// close runs after every command, including failed ones
func (c *cli) close() {
	if c.services == nil {
		return
	}
	if err := c.services.Close(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to close services")
	}
	c.services = nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root, c := newRootCmd()
	err := root.ExecuteContext(ctx)
	c.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
