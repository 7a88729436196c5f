package http

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"hiace/internal/core"
	"hiace/internal/log"
)

func (s *Server) handleLedger(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Snapshot())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriod(r.URL.Query(), s.now())
	if err != nil {
		InvalidParameterError(err.Error()).Write(w)
		return
	}
	summary, err := s.summary(period)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Summary failed",
			log.FieldOperation, log.OpRead,
			log.FieldError, err)
		InternalServerError("summary unavailable").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": s.ledger.UpdateSettings(r.Context(), req.patch())})
}

// Cash

func (s *Server) handleGetCash(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cashBalance": s.ledger.CashBalance()})
}

// handleSetCash overwrites the balance. Any value, including negative, is
// accepted as a manual correction.
func (s *Server) handleSetCash(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cashBalance": s.ledger.UpdateCashBalance(r.Context(), req.Amount)})
}

func (s *Server) handleAddCash(w http.ResponseWriter, r *http.Request) {
	s.adjustCash(w, r, s.ledger.AddToCash)
}

func (s *Server) handleRemoveCash(w http.ResponseWriter, r *http.Request) {
	s.adjustCash(w, r, s.ledger.RemoveFromCash)
}

func (s *Server) adjustCash(w http.ResponseWriter, r *http.Request, apply func(context.Context, decimal.Decimal) decimal.Decimal) {
	var req cashRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if !req.Amount.IsPositive() {
		ValidationError(core.ErrInvalidAmount).Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cashBalance": apply(r.Context(), req.Amount.Decimal)})
}

// Notifications

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	items := s.ledger.Notifications()
	if r.URL.Query().Get("unread") == "true" {
		unread := make([]core.Notification, 0, len(items))
		for _, n := range items {
			if !n.Read {
				unread = append(unread, n)
			}
		}
		items = unread
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": items})
}

func (s *Server) handleReadNotification(w http.ResponseWriter, r *http.Request) {
	if !s.ledger.MarkNotificationRead(r.Context(), idParam(r)) {
		NotFoundError("notification").Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	if !s.ledger.DeleteNotification(r.Context(), idParam(r)) {
		NotFoundError("notification").Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cleared": s.ledger.ClearNotifications(r.Context())})
}
