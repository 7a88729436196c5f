package core

import "testing"

func TestDeriveDebtStatus(t *testing.T) {
	cases := []struct {
		amount, remaining int64
		want              DebtStatus
	}{
		{100, 100, DebtPending},
		{100, 40, DebtPartial},
		{100, 0, DebtPaid},
		{100, -5, DebtPaid},
	}
	for _, tc := range cases {
		if got := DeriveDebtStatus(dec(tc.amount), dec(tc.remaining)); got != tc.want {
			t.Fatalf("%d/%d expected %s, got %s", tc.remaining, tc.amount, tc.want, got)
		}
	}
}

func TestDebtApplyPayment(t *testing.T) {
	d := Debt{Amount: dec(100), RemainingAmount: dec(100), Status: DebtPending}
	d.ApplyPayment(dec(30))
	if !d.RemainingAmount.Equal(dec(70)) || d.Status != DebtPartial {
		t.Fatalf("unexpected debt after partial payment %+v", d)
	}
	d.ApplyPayment(dec(500))
	if !d.RemainingAmount.IsZero() || d.Status != DebtPaid {
		t.Fatalf("overpayment should clamp to paid, got %+v", d)
	}
}

func TestDebtClampRemaining(t *testing.T) {
	d := Debt{Amount: dec(100), RemainingAmount: dec(150), Status: DebtPending}
	d.ClampRemaining()
	if !d.RemainingAmount.Equal(dec(100)) {
		t.Fatalf("expected clamp to amount, got %s", d.RemainingAmount)
	}
	d.Status = DebtPaid
	d.ClampRemaining()
	if !d.RemainingAmount.IsZero() {
		t.Fatalf("paid debt keeps a balance: %s", d.RemainingAmount)
	}
}
