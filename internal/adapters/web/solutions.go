package web

import (
	"net/http"

	"garage-backend/internal/app"
	"garage-backend/internal/core"
)

func (h *Handler) createSolution(w http.ResponseWriter, r *http.Request) {
	issueID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req app.CreateSolutionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	solution, err := h.svc.CreateSolution(r.Context(), issueID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, solution)
}

func (h *Handler) getSolution(w http.ResponseWriter, r *http.Request) {
	issueID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	solution, err := h.svc.GetSolutionByIssue(r.Context(), issueID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, solution)
}

func (h *Handler) updateSolution(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req app.UpdateSolutionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	solution, err := h.svc.UpdateSolution(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, solution)
}

func (h *Handler) deleteSolution(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteSolution(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addLineItem(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var input core.LineItemInput
	if !decodeJSON(w, r, &input) {
		return
	}

	solution, err := h.svc.AddLineItem(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, solution)
}

func (h *Handler) updateLineItem(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := urlID(w, r, "lineID")
	if !ok {
		return
	}
	var req struct {
		QuantityUsed int `json:"quantity_used"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	solution, err := h.svc.UpdateLineItem(r.Context(), id, lineID, req.QuantityUsed)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, solution)
}

func (h *Handler) removeLineItem(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := urlID(w, r, "lineID")
	if !ok {
		return
	}

	solution, err := h.svc.RemoveLineItem(r.Context(), id, lineID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, solution)
}

func (h *Handler) assignMechanic(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	mechanicID, ok := urlID(w, r, "mechanicID")
	if !ok {
		return
	}

	if err := h.svc.AssignMechanic(r.Context(), id, mechanicID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"detail": "Mechanic assigned."})
}

func (h *Handler) unassignMechanic(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	mechanicID, ok := urlID(w, r, "mechanicID")
	if !ok {
		return
	}

	if err := h.svc.UnassignMechanic(r.Context(), id, mechanicID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
