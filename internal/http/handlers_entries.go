package http

import (
	"net/http"

	"hiace/internal/core"
	"hiace/internal/log"
)

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries := s.ledger.DailyEntries()
	if q := r.URL.Query(); q.Get("year") != "" || q.Get("month") != "" || q.Get("days") != "" {
		period, err := ParsePeriod(q, s.now())
		if err != nil {
			InvalidParameterError(err.Error()).Write(w)
			return
		}
		filtered := make([]core.DailyEntry, 0, len(entries))
		for _, e := range entries {
			if period.Contains(e.Date) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.ledger.DailyEntry(idParam(r))
	if !ok {
		NotFoundError("entry").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	entry := req.entry()
	if err := entry.Validate(); err != nil {
		ValidationError(err).Write(w)
		return
	}

	created := s.ledger.AddDailyEntry(r.Context(), entry)
	writeJSON(w, http.StatusCreated, map[string]any{
		"entry":       created,
		"cashBalance": s.ledger.CashBalance(),
	})
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	current, ok := s.ledger.DailyEntry(id)
	if !ok {
		NotFoundError("entry").Write(w)
		return
	}
	var req entryPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	patch := req.patch()
	if err := patch.Apply(current).Validate(); err != nil {
		ValidationError(err).Write(w)
		return
	}

	updated, ok := s.ledger.UpdateDailyEntry(r.Context(), id, patch)
	if !ok {
		NotFoundError("entry").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entry":       updated,
		"cashBalance": s.ledger.CashBalance(),
	})
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if !s.ledger.DeleteDailyEntry(r.Context(), idParam(r)) {
		NotFoundError("entry").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cashBalance": s.ledger.CashBalance()})
}

// handleDraftEntry proposes a new entry for a date with the active daily
// automations pre-filled. Nothing is stored.
func (s *Server) handleDraftEntry(w http.ResponseWriter, r *http.Request) {
	date, err := ParseDateParam(r.URL.Query(), "date", s.now())
	if err != nil {
		InvalidParameterError(err.Error()).Write(w)
		return
	}
	items := s.automations.DraftDailyExpenses(r.Context(), date)
	if items == nil {
		items = []core.ExpenseItem{}
	}
	draft := core.DailyEntry{
		Date:       date,
		DayType:    core.DayNormal,
		Expenses:   items,
		Breakdowns: []core.BreakdownItem{},
	}
	draft.Recompute()

	_, exists := s.ledger.EntryForDate(date)
	log.FromContext(r.Context()).DebugContext(r.Context(), "Draft entry prepared",
		log.FieldEntryDate, date.String(),
		log.FieldCount, len(items))
	writeJSON(w, http.StatusOK, map[string]any{
		"entry":  draft,
		"exists": exists,
	})
}
