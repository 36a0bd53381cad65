package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pharmavoz/backend/internal/domain"
)

func (c *cli) newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the tenant catalog with a spreadsheet",
		Long: `Import reads a .csv, .xlsx, .xlsm or .xltx file and replaces the whole catalog
of the tenant. Column positions and the CSV delimiter come from the catalog section
of the configuration. A file without products leaves the current catalog untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer f.Close()

			summary, err := c.services.Catalog.ImportFile(cmd.Context(), c.tenant, filepath.Base(path), f)
			if err != nil {
				return err
			}

			if c.outputJSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d products for %s (%d rows read, %d skipped, %d duplicates)\n",
				summary.Products, summary.TenantID, summary.RowsReceived, summary.RowsSkipped, summary.Duplicates)
			return nil
		},
	}
}

func (c *cli) newQueryCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "query QUESTION...",
		Short: "Ask a price question",
		Example: `  pharmavoz query --tenant farmacia-centro "¿cuánto cuesta el paracetamol?"
  pharmavoz query -t farmacia-centro --verbose amoxicilina`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			result, err := c.services.Pricing.QuotePrice(cmd.Context(), c.tenant, question, verbose)
			if err != nil {
				return err
			}

			if c.outputJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}

			out := cmd.OutOrStdout()
			if !result.Match.Matched {
				fmt.Fprintln(out, result.NotFoundText)
				return nil
			}
			fmt.Fprintln(out, result.Quote.SpeechText)
			fmt.Fprintf(out, "%s | score %.1f | %s\n",
				result.Match.Entry.DisplayName, result.Match.Score, result.Quote.DisplayPriceLocal)
			return nil
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "include stock in the answer")
	return cmd
}

func (c *cli) newRateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Manage the tenant exchange rate",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set VALUE",
		Short: "Set the exchange rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(strings.Replace(args[0], ",", ".", 1), 64)
			if err != nil {
				return fmt.Errorf("%w: %q", domain.ErrInvalidRate, args[0])
			}

			if err := c.services.Rates.SetRate(cmd.Context(), c.tenant, domain.ExchangeRate(value)); err != nil {
				return err
			}
			return c.printRate(cmd.OutOrStdout(), value)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the exchange rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := c.services.Rates.GetRate(cmd.Context(), c.tenant)
			if err != nil {
				return err
			}
			return c.printRate(cmd.OutOrStdout(), float64(rate))
		},
	})

	return cmd
}

func (c *cli) printRate(w io.Writer, rate float64) error {
	if c.outputJSON {
		return writeJSON(w, map[string]any{"tenant": c.tenant, "rate": rate})
	}
	_, err := fmt.Fprintf(w, "%s: %s\n", c.tenant, strconv.FormatFloat(rate, 'f', -1, 64))
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
