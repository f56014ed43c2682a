package web

import (
	"net/http"

	"garage-backend/internal/app"
)

// compileQuotation handles POST /api/issues/{id}/quotation. The declared
// labor shares must sum to the recorded labor cost after rounding; line
// pricing comes from current inventory unit prices.
func (h *Handler) compileQuotation(w http.ResponseWriter, r *http.Request) {
	issueID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req app.CompileQuotationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	quotation, err := h.svc.CompileQuotation(r.Context(), issueID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, quotation)
}

func (h *Handler) getQuotation(w http.ResponseWriter, r *http.Request) {
	issueID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	quotation, err := h.svc.GetQuotationByIssue(r.Context(), issueID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, quotation)
}

func (h *Handler) listQuotations(w http.ResponseWriter, r *http.Request) {
	quotations, err := h.svc.ListQuotations(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, quotations)
}

func (h *Handler) markQuotationPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	quotation, err := h.svc.MarkQuotationPaid(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, quotation)
}
