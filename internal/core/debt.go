package core

import "github.com/shopspring/decimal"

// DeriveDebtStatus maps an outstanding balance to the status it implies.
// The ledger never applies it on its own: debt status is user-set, and this
// helper is the opt-in path for callers that want it derived.
func DeriveDebtStatus(amount, remaining decimal.Decimal) DebtStatus {
	switch {
	case !remaining.IsPositive():
		return DebtPaid
	case remaining.LessThan(amount):
		return DebtPartial
	default:
		return DebtPending
	}
}

// ClampRemaining bounds RemainingAmount to [0, Amount]. A paid debt has
// nothing outstanding.
func (d *Debt) ClampRemaining() {
	if d.Status == DebtPaid || d.RemainingAmount.IsNegative() {
		d.RemainingAmount = decimal.Zero
	}
	if d.RemainingAmount.GreaterThan(d.Amount) {
		d.RemainingAmount = d.Amount
	}
}

// ApplyPayment reduces the outstanding balance by amount, clamps it and
// derives the resulting status.
func (d *Debt) ApplyPayment(amount decimal.Decimal) {
	d.RemainingAmount = d.RemainingAmount.Sub(amount)
	d.ClampRemaining()
	d.Status = DeriveDebtStatus(d.Amount, d.RemainingAmount)
}
