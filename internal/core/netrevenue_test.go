package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestComputeNetRevenue(t *testing.T) {
	expenses := []ExpenseItem{{Amount: dec(5000)}}
	cases := []struct {
		name       string
		dayType    DayType
		revenue    decimal.Decimal
		expenses   []ExpenseItem
		breakdowns []BreakdownItem
		want       decimal.Decimal
	}{
		{"normal", DayNormal, dec(35000), expenses, nil, dec(30000)},
		{"maintenance ignores revenue", DayMaintenance, dec(10000), []ExpenseItem{{Amount: dec(2000)}}, []BreakdownItem{{Amount: dec(1000)}}, dec(-3000)},
		{"inactive", DayInactive, dec(35000), expenses, []BreakdownItem{{Amount: dec(700)}}, dec(0)},
		{"normal with loss", DayNormal, dec(1000), expenses, []BreakdownItem{{Amount: dec(500)}}, dec(-4500)},
		{"unknown day type behaves as normal", "holiday", dec(100), nil, nil, dec(100)},
		{"empty", DayNormal, decimal.Zero, nil, nil, decimal.Zero},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeNetRevenue(tc.dayType, tc.revenue, tc.expenses, tc.breakdowns)
			if !got.Equal(tc.want) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestComputeNetRevenueCostIdentity(t *testing.T) {
	// normal(r) - maintenance == r for any costs
	expenses := []ExpenseItem{{Amount: dec(1200)}, {Amount: dec(800)}}
	breakdowns := []BreakdownItem{{Amount: dec(3000)}}
	for _, r := range []int64{0, 1, 5000, 123456} {
		normal := ComputeNetRevenue(DayNormal, dec(r), expenses, breakdowns)
		maint := ComputeNetRevenue(DayMaintenance, dec(r), expenses, breakdowns)
		if !normal.Sub(maint).Equal(dec(r)) {
			t.Fatalf("revenue %d: normal %s maintenance %s", r, normal, maint)
		}
	}
}

func TestRecompute(t *testing.T) {
	e := DailyEntry{DayType: DayNormal, Revenue: dec(100), Expenses: []ExpenseItem{{Amount: dec(30)}}, NetRevenue: dec(999)}
	e.Recompute()
	if !e.NetRevenue.Equal(dec(70)) {
		t.Fatalf("expected 70, got %s", e.NetRevenue)
	}
}
