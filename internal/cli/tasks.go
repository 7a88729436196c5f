package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hiace/internal/core"
)

func newAutomationsCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "automations",
		Short: "Run or preview recurring charges",
	}
	cmd.AddCommand(newAutomationsRunCommand(root))
	cmd.AddCommand(newAutomationsDraftCommand(root))
	return cmd
}

func newAutomationsRunCommand(root *RootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Book due automations on today's entry",
		Long: `Book every due automation on today's entry, creating a normal day with
zero revenue when none exists. Automations already on the entry are skipped.

With --dry-run the due items are listed and weekly and monthly tasks are
still stamped as triggered, exactly as a trigger from the API would.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), root, func(app *App) error {
				now := root.now()
				out := cmd.OutOrStdout()
				if dryRun {
					items := app.Automations.TriggerDueAutomations(cmd.Context(), now)
					return printExpenseItems(out, items, app.Ledger.Settings().Currency)
				}
				n, err := app.Automations.ApplyDueAutomations(cmd.Context(), now)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(out, "%d automated expense(s) booked on %s\n", n, core.DateOf(now))
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list due items without booking them")
	return cmd
}

func newAutomationsDraftCommand(root *RootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "List the daily automations proposed for a new entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := core.DateOf(root.now())
			if date != "" {
				parsed, err := core.ParseDate(date)
				if err != nil {
					return err
				}
				d = parsed
			}
			return withApp(cmd.Context(), root, func(app *App) error {
				items := app.Automations.DraftDailyExpenses(cmd.Context(), d)
				return printExpenseItems(cmd.OutOrStdout(), items, app.Ledger.Settings().Currency)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "entry date, YYYY-MM-DD (default today)")
	return cmd
}

func printExpenseItems(w io.Writer, items []core.ExpenseItem, currency string) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No automations due")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tAMOUNT\tCOMMENT")
	total := core.SumExpenses(items)
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", it.Category, core.FormatAmount(it.Amount, currency), it.Comment)
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t\n", core.FormatAmount(total, currency))
	return tw.Flush()
}

func newObjectivesCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "objectives",
		Short: "Manage objective deadlines",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Mark overdue objectives late and create due reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), root, func(app *App) error {
				res := app.Objectives.ReconcileObjectives(cmd.Context(), root.now())
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%d objective(s) marked late, %d reminder(s) created\n",
					res.MarkedLate, res.Notified)
				return err
			})
		},
	})
	return cmd
}
