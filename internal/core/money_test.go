package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0", "0", true},
		{" 2.50 ", "2.5", true},
		{"35 000", "35000", true},
		{"-1", "0", false},
		{"+1", "0", false},
		{"abc", "0", false},
		{"1.2.3", "0", false},
		{".", "0", false},
		{"", "0", false},
	}
	for _, tc := range cases {
		got, err := ParseDecimal(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseAmountFallsBackToZero(t *testing.T) {
	for _, in := range []string{"", "abc", "-5", "12a"} {
		if got := ParseAmount(in); !got.IsZero() {
			t.Fatalf("%q expected 0, got %s", in, got)
		}
	}
	if got := ParseAmount("35000"); !got.Equal(decimal.NewFromInt(35000)) {
		t.Fatalf("expected 35000, got %s", got)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "0 Fr"},
		{"999", "999 Fr"},
		{"30000", "30 000 Fr"},
		{"-30000", "-30 000 Fr"},
		{"1234567", "1 234 567 Fr"},
		{"1234.5", "1 234,50 Fr"},
	}
	for _, tc := range cases {
		if got := FormatAmount(decimal.RequireFromString(tc.in), "Fr"); got != tc.want {
			t.Fatalf("%s expected %q, got %q", tc.in, tc.want, got)
		}
	}
	if got := FormatAmount(decimal.NewFromInt(5), ""); got != "5" {
		t.Fatalf("expected bare number, got %q", got)
	}
}
