package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/edgarflat/internal/pipeline"
)

var tickerFilter string

// tickersCmd lists SEC tickers and their CIKs
var tickersCmd = &cobra.Command{
	Use:   "tickers",
	Short: "List SEC tickers and CIKs",
	Long: `List the SEC ticker reference, sorted by symbol. The list is cached for
cache.ticker_ttl.

Example:
  edgarflat tickers --filter AA`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		tickers, err := a.fetcher.Tickers(ctx)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TICKER\tCIK")
		for _, t := range pipeline.FilterTickers(tickers, tickerFilter) {
			fmt.Fprintf(tw, "%s\t%s\n", t.Symbol, t.CIK)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(tickersCmd)
	tickersCmd.Flags().StringVar(&tickerFilter, "filter", "", "only tickers starting with this prefix")
}
