package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"hiace/internal/core"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func entry(date core.Date, dayType core.DayType, revenue int64, expenses []core.ExpenseItem, breakdowns []core.BreakdownItem) core.DailyEntry {
	e := core.DailyEntry{
		ID:         core.NewID(),
		Date:       date,
		DayType:    dayType,
		Revenue:    dec(revenue),
		Expenses:   expenses,
		Breakdowns: breakdowns,
	}
	e.Recompute()
	return e
}

func march2024() core.AppData {
	data := core.NewAppData()
	data.Settings.VehiclePlate = "AB 123 CD"
	data.CashBalance = dec(100000)
	data.DailyEntries = []core.DailyEntry{
		entry(core.NewDate(2024, 3, 5), core.DayMaintenance, 0, nil,
			[]core.BreakdownItem{{Category: "pneu", Amount: dec(2000)}}),
		entry(core.NewDate(2024, 3, 4), core.DayNormal, 10000,
			[]core.ExpenseItem{{Category: "peage", Amount: dec(1000)}}, nil),
		entry(core.NewDate(2024, 3, 2), core.DayNormal, 20000,
			[]core.ExpenseItem{
				{Category: core.FuelCategory, Amount: dec(5000), Liters: dec(20)},
				{Category: "peage", Amount: dec(500)},
			}, nil),
		entry(core.NewDate(2024, 2, 28), core.DayNormal, 99999, nil, nil),
	}
	data.Debts = []core.Debt{
		{ID: "d1", Amount: dec(5000), RemainingAmount: dec(4000), Status: core.DebtPartial},
		{ID: "d2", Amount: dec(3000), RemainingAmount: dec(0), Status: core.DebtPaid},
	}
	data.ProvisionalDebts = []core.ProvisionalDebt{
		{ID: "p1", Amount: dec(1000), Status: core.ProvisionalPending},
		{ID: "p2", Amount: dec(800), Status: core.ProvisionalConfirmed},
	}
	data.Automations = []core.AutomationTask{
		{ID: "a1", IsActive: true, Frequency: core.Daily},
		{ID: "a2", IsActive: false, Frequency: core.Weekly},
	}
	data.Objectives = []core.Objective{{ID: "o1", Status: core.ObjectivePending}}
	return data
}

func TestRenderText_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatText, New(march2024(), core.MonthPeriod(2024, 3))))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "month_text", buf.Bytes())
}

func TestRenderText_EmptyPeriod(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatText, New(core.NewAppData(), core.AllTime())))

	out := buf.String()
	assert.Contains(t, out, "Report all time\n")
	assert.Contains(t, out, "Expenses by category\n  (none)\n")
	assert.Contains(t, out, "Best day              -\n")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatJSON, New(march2024(), core.MonthPeriod(2024, 3))))

	var got struct {
		Summary struct {
			NetRevenue float64 `json:"netRevenue"`
			Period     struct {
				From string `json:"from"`
			} `json:"period"`
			BestDay struct {
				Date string `json:"date"`
			} `json:"bestDay"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 21500.0, got.Summary.NetRevenue)
	assert.Equal(t, "2024-03-01", got.Summary.Period.From)
	assert.Equal(t, "2024-03-02", got.Summary.BestDay.Date)
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatYAML, New(march2024(), core.MonthPeriod(2024, 3))))

	var got struct {
		Settings struct {
			VehiclePlate string `yaml:"vehiclePlate"`
		} `yaml:"settings"`
		Summary struct {
			NormalDays int    `yaml:"normalDays"`
			NetRevenue string `yaml:"netRevenue"`
		} `yaml:"summary"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "AB 123 CD", got.Settings.VehiclePlate)
	assert.Equal(t, 2, got.Summary.NormalDays)
	assert.Equal(t, "21500", got.Summary.NetRevenue)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"TEXT", FormatText, false},
		{"json", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
