package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"hiace/internal/core"
)

// Debts

func (s *Server) handleListDebts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"debts": s.ledger.Debts()})
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	debt := req.debt(s.now())
	if err := debt.Validate(); err != nil {
		ValidationError(err).Write(w)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"debt": s.ledger.AddDebt(r.Context(), debt)})
}

func (s *Server) handleUpdateDebt(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	current, ok := findDebt(s.ledger.Debts(), id)
	if !ok {
		NotFoundError("debt").Write(w)
		return
	}
	var req debtPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	patch := req.patch()
	if merged := patch.Apply(current); merged.Status == core.DebtPaid && !merged.RemainingAmount.IsZero() {
		settled := decimal.Zero
		patch.RemainingAmount = &settled
	}
	if err := patch.Apply(current).Validate(); err != nil {
		ValidationError(err).Write(w)
		return
	}
	updated, ok := s.ledger.UpdateDebt(r.Context(), id, patch)
	if !ok {
		NotFoundError("debt").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"debt": updated})
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	if !s.ledger.DeleteDebt(r.Context(), idParam(r)) {
		NotFoundError("debt").Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePayDebt(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if !req.Amount.IsPositive() {
		ValidationError(core.ErrInvalidAmount).Write(w)
		return
	}
	debt, ok := s.ledger.PayDebt(r.Context(), idParam(r), req.Amount.Decimal, req.FromCash)
	if !ok {
		NotFoundError("debt").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"debt":        debt,
		"cashBalance": s.ledger.CashBalance(),
	})
}

func findDebt(debts []core.Debt, id string) (core.Debt, bool) {
	for _, d := range debts {
		if d.ID == id {
			return d, true
		}
	}
	return core.Debt{}, false
}

// Provisional debts

func (s *Server) handleListProvisionalDebts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"provisionalDebts": s.ledger.ProvisionalDebts()})
}

func (s *Server) handleCreateProvisionalDebt(w http.ResponseWriter, r *http.Request) {
	var req provisionalDebtRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p := req.provisionalDebt(s.now())
	if err := p.Validate(); err != nil {
		ValidationError(err).Write(w)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"provisionalDebt": s.ledger.AddProvisionalDebt(r.Context(), p)})
}

func (s *Server) handleUpdateProvisionalDebt(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	current, ok := findProvisionalDebt(s.ledger.ProvisionalDebts(), id)
	if !ok {
		NotFoundError("provisional debt").Write(w)
		return
	}
	var req provisionalDebtPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	patch := req.patch()
	if err := patch.Apply(current).Validate(); err != nil {
		ValidationError(err).Write(w)
		return
	}
	updated, ok := s.ledger.UpdateProvisionalDebt(r.Context(), id, patch)
	if !ok {
		NotFoundError("provisional debt").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"provisionalDebt": updated})
}

func (s *Server) handleDeleteProvisionalDebt(w http.ResponseWriter, r *http.Request) {
	if !s.ledger.DeleteProvisionalDebt(r.Context(), idParam(r)) {
		NotFoundError("provisional debt").Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConfirmProvisionalDebt(w http.ResponseWriter, r *http.Request) {
	p, ok := s.ledger.ConfirmProvisionalDebt(r.Context(), idParam(r))
	if !ok {
		NotFoundError("provisional debt").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"provisionalDebt": p})
}

func findProvisionalDebt(items []core.ProvisionalDebt, id string) (core.ProvisionalDebt, bool) {
	for _, p := range items {
		if p.ID == id {
			return p, true
		}
	}
	return core.ProvisionalDebt{}, false
}
