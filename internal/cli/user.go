package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/edgarflat/internal/model"
)

var (
	userFirstName string
	userLastName  string
	userEmail     string
)

// userCmd represents the user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage the users pipeline runs act for",
	Long: `Users own their financials tables and supply the name and email sent to SEC
as User-Agent.

Example:
  edgarflat user add 42 --first Jane --last Doe --email jane@example.com
  edgarflat user list`,
}

var userAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Create or update a user (id: lower-case letters, digits, _)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		u := model.User{ID: args[0], FirstName: userFirstName, LastName: userLastName, Email: userEmail}
		if err := a.store.SaveUser(ctx, u); err != nil {
			return err
		}
		fmt.Printf("✓ Saved user %s (User-Agent: %s)\n", u.ID, u.UserAgent())
		return nil
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a user and their recent runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := a.store.User(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ID:     %s\n", u.ID)
		fmt.Printf("Name:   %s %s\n", u.FirstName, u.LastName)
		fmt.Printf("Email:  %s\n", u.Email)
		fmt.Printf("Export: %s\n", a.pipeline.ExportPath(u))

		runs, err := a.store.Runs(ctx, u.ID, 10)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return nil
		}
		fmt.Println()
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "FINISHED\tCIK\tENTITY\tFACTS\tACCOUNTS\tSKIPPED")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%010d\t%s\t%d\t%d\t%d\n",
				r.FinishedAt.Format("2006-01-02 15:04:05"), r.CIK, r.EntityName, r.FactRows, r.AttributeRows, r.Skipped)
		}
		return tw.Flush()
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		users, err := a.store.Users(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tEMAIL")
		for _, u := range users {
			fmt.Fprintf(tw, "%s\t%s %s\t%s\n", u.ID, u.FirstName, u.LastName, u.Email)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd, userShowCmd, userListCmd)

	userAddCmd.Flags().StringVar(&userFirstName, "first", "", "first name")
	userAddCmd.Flags().StringVar(&userLastName, "last", "", "last name")
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "contact email (required by SEC)")
	_ = userAddCmd.MarkFlagRequired("email")
}
