package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	processUser    string
	processTimeout time.Duration
	processJSON    bool
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process <cik>",
	Short: "Fetch a company's facts and rebuild the user's tables",
	Long: `Process downloads the companyfacts document for one company and:
- Replaces RawFinancials_<user> with one row per filed observation
- Replaces AccountAttributes_<user> with each concept's label and description
- Rewrites the user's CSV export from the joined view

The CIK may be given with or without leading zeros or a "CIK" prefix.

Example:
  edgarflat process 320193 --user 42
  edgarflat process CIK0000789019 --user 42 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&processUser, "user", "", "user id the run acts for")
	processCmd.Flags().DurationVar(&processTimeout, "timeout", 5*time.Minute, "overall run timeout")
	processCmd.Flags().BoolVar(&processJSON, "json", false, "print the run summary as JSON")
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.lookupUser(ctx, processUser)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Processing CIK %s for user %s\n", args[0], user.ID)
		fmt.Fprintf(os.Stderr, "User-Agent: %s\n\n", user.UserAgent())
	}

	summary, err := a.pipeline.Process(ctx, args[0], user)
	if err != nil {
		return err
	}

	if processJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Printf("✓ %s (CIK %010d)\n", summary.EntityName, summary.CIK)
	fmt.Printf("  Facts:     %d rows\n", summary.FactRows)
	fmt.Printf("  Accounts:  %d rows\n", summary.AttributeRows)
	fmt.Printf("  Skipped:   %d concepts\n", summary.Skipped)
	fmt.Printf("  Export:    %s\n", summary.ExportPath)
	if verbose {
		for _, s := range summary.SkippedConcepts {
			fmt.Fprintf(os.Stderr, "  - %s (%s): %s\n", s.Concept, s.Stage, s.Reason)
		}
	}
	return nil
}
