package http

import (
	"net/http"

	"hiace/internal/core"
)

// Automations

func (s *Server) handleListAutomations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"automations": s.ledger.Automations()})
}

func (s *Server) handleCreateAutomation(w http.ResponseWriter, r *http.Request) {
	var req automationRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	task := req.automation()
	if err := task.Validate(); err != nil {
		ValidationError(err).Write(w)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"automation": s.ledger.AddAutomation(r.Context(), task)})
}

func (s *Server) handleUpdateAutomation(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	var current core.AutomationTask
	found := false
	for _, a := range s.ledger.Automations() {
		if a.ID == id {
			current, found = a, true
			break
		}
	}
	if !found {
		NotFoundError("automation").Write(w)
		return
	}
	var req automationPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	patch := req.patch()
	if err := patch.Apply(current).Validate(); err != nil {
		ValidationError(err).Write(w)
		return
	}
	updated, ok := s.ledger.UpdateAutomation(r.Context(), id, patch)
	if !ok {
		NotFoundError("automation").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"automation": updated})
}

func (s *Server) handleDeleteAutomation(w http.ResponseWriter, r *http.Request) {
	if !s.ledger.DeleteAutomation(r.Context(), idParam(r)) {
		NotFoundError("automation").Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleAutomation(w http.ResponseWriter, r *http.Request) {
	task, ok := s.ledger.ToggleAutomation(r.Context(), idParam(r))
	if !ok {
		NotFoundError("automation").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"automation": task})
}

// handleTriggerAutomations runs the due automations. With ?apply=true the
// items are booked on today's entry, otherwise they are only returned.
func (s *Server) handleTriggerAutomations(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	if r.URL.Query().Get("apply") == "true" {
		booked, err := s.automations.ApplyDueAutomations(r.Context(), now)
		if err != nil {
			InternalServerError(err.Error()).Write(w)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"booked":      booked,
			"cashBalance": s.ledger.CashBalance(),
		})
		return
	}

	items := s.automations.TriggerDueAutomations(r.Context(), now)
	if items == nil {
		items = []core.ExpenseItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Objectives

func (s *Server) handleListObjectives(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"objectives": s.ledger.Objectives()})
}

func (s *Server) handleCreateObjective(w http.ResponseWriter, r *http.Request) {
	var req objectiveRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	o := req.objective()
	if err := o.Validate(); err != nil {
		ValidationError(err).Write(w)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"objective": s.ledger.AddObjective(r.Context(), o)})
}

func (s *Server) handleUpdateObjective(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	var current core.Objective
	found := false
	for _, o := range s.ledger.Objectives() {
		if o.ID == id {
			current, found = o, true
			break
		}
	}
	if !found {
		NotFoundError("objective").Write(w)
		return
	}
	var req objectivePatchRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	patch := req.patch()
	if err := patch.Apply(current).Validate(); err != nil {
		ValidationError(err).Write(w)
		return
	}
	updated, ok := s.ledger.UpdateObjective(r.Context(), id, patch)
	if !ok {
		NotFoundError("objective").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"objective": updated})
}

func (s *Server) handleDeleteObjective(w http.ResponseWriter, r *http.Request) {
	if !s.ledger.DeleteObjective(r.Context(), idParam(r)) {
		NotFoundError("objective").Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReconcileObjectives(w http.ResponseWriter, r *http.Request) {
	res := s.objectives.ReconcileObjectives(r.Context(), s.now())
	writeJSON(w, http.StatusOK, res)
}
