package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"garage-backend/internal/core"
)

type errorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code"`
	RequestID string         `json:"request_id,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorDetail(w, r, message, code, status, nil)
}

func writeErrorDetail(w http.ResponseWriter, r *http.Request, message, code string, status int, detail map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
		Detail:    detail,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONStatus writes a JSON response with an explicit status code.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps the core error taxonomy onto HTTP statuses.
// Validation problems are 400, labor mismatches 422 (with both totals so the
// caller can correct the input), conflicts and stock shortfalls 409, and the
// not-found family 404.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stockErr    *core.InsufficientStockError
		qtyErr      *core.InvalidQuantityError
		laborErr    *core.LaborMismatchError
		mechanicErr *core.InvalidMechanicError
		validErr    *core.ValidationError
	)

	switch {
	case errors.As(err, &stockErr):
		writeErrorDetail(w, r, stockErr.Error(), "INSUFFICIENT_STOCK", http.StatusConflict, map[string]any{
			"item_id":   stockErr.ItemID,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.As(err, &laborErr):
		writeErrorDetail(w, r, laborErr.Error(), "LABOR_MISMATCH", http.StatusUnprocessableEntity, map[string]any{
			"declared_labor_total": laborErr.Declared.StringFixed(2),
			"recorded_labor_cost":  laborErr.Recorded.StringFixed(2),
		})
	case errors.As(err, &mechanicErr):
		writeErrorDetail(w, r, mechanicErr.Error(), "INVALID_MECHANIC", http.StatusNotFound, map[string]any{
			"mechanic_id": mechanicErr.MechanicID,
		})
	case errors.As(err, &qtyErr):
		writeError(w, r, qtyErr.Error(), "INVALID_QUANTITY", http.StatusBadRequest)
	case errors.As(err, &validErr):
		writeError(w, r, validErr.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
	case errors.Is(err, core.ErrMissingLaborShares):
		writeError(w, r, err.Error(), "MISSING_LABOR_SHARES", http.StatusBadRequest)
	case errors.Is(err, core.ErrAlreadyQuoted):
		writeError(w, r, err.Error(), "ALREADY_QUOTED", http.StatusConflict)
	case errors.Is(err, core.ErrSolutionExists):
		writeError(w, r, err.Error(), "SOLUTION_EXISTS", http.StatusConflict)
	case errors.Is(err, core.ErrNoSolution):
		writeError(w, r, err.Error(), "NO_SOLUTION", http.StatusNotFound)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrInvalidOTP), errors.Is(err, core.ErrExpiredOTP):
		writeError(w, r, err.Error(), "INVALID_OTP", http.StatusBadRequest)
	case errors.Is(err, core.ErrRoleNotAllowed):
		writeError(w, r, err.Error(), "ROLE_NOT_ALLOWED", http.StatusForbidden)
	case errors.Is(err, core.ErrInvalidCredentials):
		writeError(w, r, "invalid credentials", "UNAUTHORIZED", http.StatusUnauthorized)
	default:
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
