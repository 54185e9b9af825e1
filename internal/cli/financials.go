package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ppiankov/edgarflat/internal/model"
)

var (
	financialsUser string
	financialsAll  bool
	exportUser     string
	exportOut      string
)

// financialsCmd prints the user's joined view
var financialsCmd = &cobra.Command{
	Use:   "financials",
	Short: "Show the user's financials",
	Long: `Show the joined financials view for the company the user last processed.
Only labelled accounts are shown unless --all is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.lookupUser(ctx, financialsUser)
		if err != nil {
			return err
		}
		rows, err := a.pipeline.Financials(ctx, user, financialsAll)
		if err != nil {
			return err
		}
		return printFinancials(os.Stdout, rows)
	},
}

// exportCmd copies the user's CSV export
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the user's CSV export",
	Long: `Copy the CSV written by the user's last run to --out, or to stdout when
--out is not given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.lookupUser(ctx, exportUser)
		if err != nil {
			return err
		}
		src, err := os.Open(a.pipeline.ExportPath(user))
		if err != nil {
			if os.IsNotExist(err) {
				return model.ErrNoDataYet
			}
			return fmt.Errorf("open export: %w", err)
		}
		defer func() { _ = src.Close() }()

		if exportOut == "" {
			_, err = io.Copy(os.Stdout, src)
			return err
		}
		if err := copyToFile(exportOut, src); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", exportOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(financialsCmd, exportCmd)

	financialsCmd.Flags().StringVar(&financialsUser, "user", "", "user id")
	financialsCmd.Flags().BoolVar(&financialsAll, "all", false, "include accounts without a label")

	exportCmd.Flags().StringVar(&exportUser, "user", "", "user id")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "destination file (default stdout)")
}

func copyToFile(path string, src io.Reader) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	_, err = io.Copy(f, src)
	return err
}

// printFinancials renders rows as an aligned table with formatted values
func printFinancials(w io.Writer, rows []model.ViewRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tEND\tFY\tFP\tFORM\tUNITS\tVALUE")
	for _, r := range rows {
		fy := ""
		if r.FY.Valid {
			fy = fmt.Sprint(r.FY.Int64)
		}
		val := ""
		if r.Val.Valid {
			val = formatNumber(r.Val.Decimal)
		}
		account := r.Account.String
		if !r.Account.Valid {
			account = r.AccountID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			account, r.End.String, fy, r.FP.String, r.Form.String, r.Units, val)
	}
	return tw.Flush()
}

// formatNumber groups the integer part in thousands: 1234567.5 -> 1,234,567.5
func formatNumber(d decimal.Decimal) string {
	return humanize.BigCommaf(d.BigFloat())
}
