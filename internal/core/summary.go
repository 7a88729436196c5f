package core

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"name" yaml:"name"`
	Count  int             `json:"count" yaml:"count"`
	Amount decimal.Decimal `json:"amount" yaml:"amount"`
}

// DayResult identifies a single day in a summary.
type DayResult struct {
	Date       Date            `json:"date" yaml:"date"`
	NetRevenue decimal.Decimal `json:"netRevenue" yaml:"netRevenue"`
}

// Period is an inclusive date range. A zero bound is open.
type Period struct {
	Label string `json:"label" yaml:"label"`
	From  Date   `json:"from,omitzero" yaml:"from,omitempty"`
	To    Date   `json:"to,omitzero" yaml:"to,omitempty"`
}

// PeriodSummary is the overview of a period of activity.
type PeriodSummary struct {
	Period          Period `json:"period" yaml:"period"`
	NormalDays      int    `json:"normalDays" yaml:"normalDays"`
	MaintenanceDays int    `json:"maintenanceDays" yaml:"maintenanceDays"`
	InactiveDays    int    `json:"inactiveDays" yaml:"inactiveDays"`

	GrossRevenue   decimal.Decimal `json:"grossRevenue" yaml:"grossRevenue"`
	TotalExpenses  decimal.Decimal `json:"totalExpenses" yaml:"totalExpenses"`
	TotalBreakdown decimal.Decimal `json:"totalBreakdowns" yaml:"totalBreakdowns"`
	NetRevenue     decimal.Decimal `json:"netRevenue" yaml:"netRevenue"`
	FuelLiters     decimal.Decimal `json:"fuelLiters" yaml:"fuelLiters"`

	ExpensesByCategory   []CategoryAmount `json:"expensesByCategory" yaml:"expensesByCategory"`
	BreakdownsByCategory []CategoryAmount `json:"breakdownsByCategory" yaml:"breakdownsByCategory"`

	BestDay  *DayResult `json:"bestDay,omitempty" yaml:"bestDay,omitempty"`
	WorstDay *DayResult `json:"worstDay,omitempty" yaml:"worstDay,omitempty"`

	OutstandingDebt   decimal.Decimal `json:"outstandingDebt" yaml:"outstandingDebt"`
	ProvisionalTotal  decimal.Decimal `json:"provisionalTotal" yaml:"provisionalTotal"`
	CashBalance       decimal.Decimal `json:"cashBalance" yaml:"cashBalance"`
	ActiveAutomations int             `json:"activeAutomations" yaml:"activeAutomations"`
	PendingObjectives int             `json:"pendingObjectives" yaml:"pendingObjectives"`
	LateObjectives    int             `json:"lateObjectives" yaml:"lateObjectives"`
	DoneObjectives    int             `json:"doneObjectives" yaml:"doneObjectives"`
}

// FuelCategory is the expense category whose liters are totalled.
const FuelCategory = "carburant"

// MonthPeriod covers one calendar month.
func MonthPeriod(year, month int) Period {
	from := NewDate(year, month, 1)
	return Period{
		Label: from.Format("2006-01"),
		From:  from,
		To:    DateOf(from.AddDate(0, 1, -1)),
	}
}

// TrailingDays covers the n days ending on the date of now.
func TrailingDays(now time.Time, n int) Period {
	if n < 1 {
		n = 1
	}
	to := DateOf(now)
	return Period{
		Label: "last " + strconv.Itoa(n) + " days",
		From:  to.AddDays(-(n - 1)),
		To:    to,
	}
}

// AllTime covers every entry.
func AllTime() Period {
	return Period{Label: "all time"}
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d Date) bool {
	if !p.From.IsZero() && d.Before(p.From.Time) {
		return false
	}
	if !p.To.IsZero() && d.After(p.To.Time) {
		return false
	}
	return true
}

// Summarize aggregates the entries of a period. Debt, automation and
// objective figures describe the current state, not the period.
func Summarize(data AppData, period Period) PeriodSummary {
	s := PeriodSummary{
		Period:           period,
		GrossRevenue:     decimal.Zero,
		TotalExpenses:    decimal.Zero,
		TotalBreakdown:   decimal.Zero,
		NetRevenue:       decimal.Zero,
		FuelLiters:       decimal.Zero,
		OutstandingDebt:  decimal.Zero,
		ProvisionalTotal: decimal.Zero,
		CashBalance:      data.CashBalance,
	}

	expenses := map[string]*CategoryAmount{}
	breakdowns := map[string]*CategoryAmount{}

	for _, e := range data.DailyEntries {
		if !period.Contains(e.Date) {
			continue
		}
		switch e.DayType {
		case DayMaintenance:
			s.MaintenanceDays++
		case DayInactive:
			s.InactiveDays++
		default:
			s.NormalDays++
			s.GrossRevenue = s.GrossRevenue.Add(e.Revenue)
			day := &DayResult{Date: e.Date, NetRevenue: e.NetRevenue}
			if s.BestDay == nil || e.NetRevenue.GreaterThan(s.BestDay.NetRevenue) {
				s.BestDay = day
			}
			if s.WorstDay == nil || e.NetRevenue.LessThan(s.WorstDay.NetRevenue) {
				s.WorstDay = day
			}
		}
		s.NetRevenue = s.NetRevenue.Add(e.NetRevenue)

		for _, x := range e.Expenses {
			s.TotalExpenses = s.TotalExpenses.Add(x.Amount)
			accumulate(expenses, x.Category, x.Amount)
			if x.Category == FuelCategory {
				s.FuelLiters = s.FuelLiters.Add(x.Liters)
			}
		}
		for _, b := range e.Breakdowns {
			s.TotalBreakdown = s.TotalBreakdown.Add(b.Amount)
			accumulate(breakdowns, b.Category, b.Amount)
		}
	}
	s.ExpensesByCategory = sortedCategories(expenses)
	s.BreakdownsByCategory = sortedCategories(breakdowns)

	for _, d := range data.Debts {
		if d.Status != DebtPaid {
			s.OutstandingDebt = s.OutstandingDebt.Add(d.RemainingAmount)
		}
	}
	for _, p := range data.ProvisionalDebts {
		if p.Status == ProvisionalPending {
			s.ProvisionalTotal = s.ProvisionalTotal.Add(p.Amount)
		}
	}
	for _, a := range data.Automations {
		if a.IsActive {
			s.ActiveAutomations++
		}
	}
	for _, o := range data.Objectives {
		switch o.Status {
		case ObjectiveDone:
			s.DoneObjectives++
		case ObjectiveLate:
			s.LateObjectives++
		default:
			s.PendingObjectives++
		}
	}
	return s
}

func accumulate(m map[string]*CategoryAmount, name string, amount decimal.Decimal) {
	c, ok := m[name]
	if !ok {
		c = &CategoryAmount{Name: name, Amount: decimal.Zero}
		m[name] = c
	}
	c.Count++
	c.Amount = c.Amount.Add(amount)
}

// sortedCategories orders by amount descending, then name.
func sortedCategories(m map[string]*CategoryAmount) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(m))
	for _, c := range m {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Amount.Cmp(out[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}
