package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hiace/internal/core"
	"hiace/internal/report"
)

type reportOptions struct {
	month  string
	days   int
	all    bool
	format string
}

func newReportCommand(root *RootOptions) *cobra.Command {
	opts := &reportOptions{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the activity summary of a period",
		Long: `Print the activity summary of a period: day counts, revenue, expenses,
breakdowns, best and worst day, and the current debt, cash and objective state.

Defaults to the current month.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := report.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			period, err := opts.period(root.now())
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), root, func(app *App) error {
				r := report.New(app.Ledger.Snapshot(), period)
				return report.Render(cmd.OutOrStdout(), format, r)
			})
		},
	}

	cmd.Flags().StringVar(&opts.month, "month", "", "month to report, YYYY-MM")
	cmd.Flags().IntVar(&opts.days, "days", 0, "report the last N days instead of a month")
	cmd.Flags().BoolVar(&opts.all, "all", false, "report every entry")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format (text|json|yaml)")
	cmd.MarkFlagsMutuallyExclusive("month", "days", "all")

	return cmd
}

func (o *reportOptions) period(now time.Time) (core.Period, error) {
	switch {
	case o.all:
		return core.AllTime(), nil
	case o.days != 0:
		if o.days < 0 {
			return core.Period{}, fmt.Errorf("invalid --days %d: must be positive", o.days)
		}
		return core.TrailingDays(now, o.days), nil
	case strings.TrimSpace(o.month) != "":
		t, err := time.Parse("2006-01", strings.TrimSpace(o.month))
		if err != nil {
			return core.Period{}, fmt.Errorf("invalid --month %q: want YYYY-MM", o.month)
		}
		return core.MonthPeriod(t.Year(), int(t.Month())), nil
	default:
		return core.MonthPeriod(now.Year(), int(now.Month())), nil
	}
}
