package web

import (
	"net/http"
	"strconv"

	"garage-backend/internal/app"
	"garage-backend/internal/core"
)

// ── Vehicles ──────────────────────────────────────────────────────────────────

// listVehicles returns all vehicles, or a single customer's fleet when the
// customer_id query parameter is present.
func (h *Handler) listVehicles(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		customerID, err := strconv.Atoi(raw)
		if err != nil || customerID <= 0 {
			writeError(w, r, "invalid customer_id parameter", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		vehicles, err := h.svc.ListVehiclesByCustomer(r.Context(), customerID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, vehicles)
		return
	}

	vehicles, err := h.svc.ListVehicles(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, vehicles)
}

func (h *Handler) createVehicle(w http.ResponseWriter, r *http.Request) {
	var input core.VehicleInput
	if !decodeJSON(w, r, &input) {
		return
	}

	vehicle, err := h.svc.CreateVehicle(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, vehicle)
}

func (h *Handler) getVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	vehicle, err := h.svc.GetVehicle(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, vehicle)
}

func (h *Handler) updateVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var input core.VehicleInput
	if !decodeJSON(w, r, &input) {
		return
	}

	vehicle, err := h.svc.UpdateVehicle(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, vehicle)
}

func (h *Handler) deleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteVehicle(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Issues ────────────────────────────────────────────────────────────────────

func (h *Handler) listIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := h.svc.ListIssues(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, issues)
}

func (h *Handler) reportIssue(w http.ResponseWriter, r *http.Request) {
	var req app.ReportIssueRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	issue, err := h.svc.ReportIssue(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, issue)
}

func (h *Handler) getIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	issue, err := h.svc.GetIssue(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, issue)
}

func (h *Handler) updateIssueStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status core.IssueStatus `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	issue, err := h.svc.UpdateIssueStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, issue)
}

func (h *Handler) deleteIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteIssue(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
