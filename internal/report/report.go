// Package report renders period summaries for the command line.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"hiace/internal/core"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json or yaml, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown report format %q: must be text, json or yaml", s)
	}
}

// Report is a summary together with the vehicle it describes.
type Report struct {
	Settings core.Settings      `json:"settings" yaml:"settings"`
	Summary  core.PeriodSummary `json:"summary" yaml:"summary"`
}

// New summarizes data over period.
func New(data core.AppData, period core.Period) Report {
	return Report{
		Settings: data.Settings,
		Summary:  core.Summarize(data, period),
	}
}

// Render writes r to w in the given format.
func Render(w io.Writer, format Format, r Report) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}
		return enc.Close()
	case FormatText, "":
		return renderText(w, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

const labelWidth = 20

func renderText(w io.Writer, r Report) error {
	s := r.Summary
	cur := r.Settings.Currency
	var b strings.Builder
	row := func(label, value string) {
		fmt.Fprintf(&b, "  %-*s%s\n", labelWidth, label, value)
	}

	b.WriteString(periodHeader(s.Period))
	b.WriteByte('\n')
	if vehicle := vehicleLine(r.Settings); vehicle != "" {
		fmt.Fprintf(&b, "Vehicle: %s\n", vehicle)
	}

	b.WriteString("\nDays\n")
	row("Normal", fmt.Sprint(s.NormalDays))
	row("Maintenance", fmt.Sprint(s.MaintenanceDays))
	row("Inactive", fmt.Sprint(s.InactiveDays))

	b.WriteString("\nTotals\n")
	row("Gross revenue", core.FormatAmount(s.GrossRevenue, cur))
	row("Expenses", core.FormatAmount(s.TotalExpenses, cur))
	row("Breakdowns", core.FormatAmount(s.TotalBreakdown, cur))
	row("Net revenue", core.FormatAmount(s.NetRevenue, cur))
	row("Fuel", core.FormatAmount(s.FuelLiters, "L"))

	categories := func(title string, items []core.CategoryAmount) {
		fmt.Fprintf(&b, "\n%s\n", title)
		if len(items) == 0 {
			b.WriteString("  (none)\n")
			return
		}
		for _, c := range items {
			row(c.Name, fmt.Sprintf("%s (%d)", core.FormatAmount(c.Amount, cur), c.Count))
		}
	}
	categories("Expenses by category", s.ExpensesByCategory)
	categories("Breakdowns by category", s.BreakdownsByCategory)

	b.WriteByte('\n')
	day := func(label string, d *core.DayResult) {
		if d == nil {
			fmt.Fprintf(&b, "%-*s-\n", labelWidth+2, label)
			return
		}
		fmt.Fprintf(&b, "%-*s%s  %s\n", labelWidth+2, label, d.Date, core.FormatAmount(d.NetRevenue, cur))
	}
	day("Best day", s.BestDay)
	day("Worst day", s.WorstDay)

	b.WriteString("\nPosition\n")
	row("Cash balance", core.FormatAmount(s.CashBalance, cur))
	row("Outstanding debt", core.FormatAmount(s.OutstandingDebt, cur))
	row("Provisional debts", core.FormatAmount(s.ProvisionalTotal, cur))
	row("Active automations", fmt.Sprint(s.ActiveAutomations))
	row("Objectives", fmt.Sprintf("%d pending, %d late, %d done", s.PendingObjectives, s.LateObjectives, s.DoneObjectives))

	_, err := io.WriteString(w, b.String())
	return err
}

func periodHeader(p core.Period) string {
	switch {
	case p.From.IsZero() && p.To.IsZero():
		return "Report " + p.Label
	case p.From.IsZero():
		return fmt.Sprintf("Report %s (until %s)", p.Label, p.To)
	case p.To.IsZero():
		return fmt.Sprintf("Report %s (from %s)", p.Label, p.From)
	default:
		return fmt.Sprintf("Report %s (%s .. %s)", p.Label, p.From, p.To)
	}
}

func vehicleLine(s core.Settings) string {
	return strings.TrimSpace(s.VehicleName + " " + s.VehiclePlate)
}
