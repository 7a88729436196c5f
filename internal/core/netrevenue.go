package core

import "github.com/shopspring/decimal"

// ComputeNetRevenue derives the net result of a day:
//
//	normal:      revenue - expenses - breakdowns
//	maintenance: -(expenses + breakdowns)
//	inactive:    0
//
// Every path that creates or mutates a DailyEntry goes through this function.
// Unknown day types are treated as normal.
func ComputeNetRevenue(dayType DayType, revenue decimal.Decimal, expenses []ExpenseItem, breakdowns []BreakdownItem) decimal.Decimal {
	costs := SumExpenses(expenses).Add(SumBreakdowns(breakdowns))
	switch dayType {
	case DayInactive:
		return decimal.Zero
	case DayMaintenance:
		return costs.Neg()
	default:
		return revenue.Sub(costs)
	}
}

func SumExpenses(items []ExpenseItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}

func SumBreakdowns(items []BreakdownItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}

// Recompute stores the derived net revenue for the entry's current contents.
func (e *DailyEntry) Recompute() {
	e.NetRevenue = ComputeNetRevenue(e.DayType, e.Revenue, e.Expenses, e.Breakdowns)
}
