package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"garage-backend/internal/app"
	"garage-backend/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string, log *logrus.Logger) http.Handler {
	h := &Handler{svc: svc, jwtSecret: jwtSecret}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	r.Get("/api/health", h.health)

	// ── Auth (public) ────────────────────────────────────────────────────────
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)
	r.Post("/api/auth/password-reset-request", h.passwordResetRequest)
	r.Post("/api/auth/password-reset-confirm", h.passwordResetConfirm)

	// ── Protected API ────────────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Get("/api/auth/me", h.me)
		r.Patch("/api/auth/profile", h.updateProfile)
		r.Post("/api/auth/update-password", h.updatePassword)

		// Users (admin only except the mechanics listing)
		r.Get("/api/users/mechanics", h.listMechanics)
		r.Group(func(r chi.Router) {
			r.Use(h.RequireRole())
			r.Get("/api/users", h.listUsers)
			r.Post("/api/users", h.createUser)
			r.Get("/api/users/{id}", h.getUser)
			r.Delete("/api/users/{id}", h.deactivateUser)
		})

		// Vehicles & issues
		r.Get("/api/vehicles", h.listVehicles)
		r.Post("/api/vehicles", h.createVehicle)
		r.Get("/api/vehicles/{id}", h.getVehicle)
		r.Put("/api/vehicles/{id}", h.updateVehicle)
		r.Delete("/api/vehicles/{id}", h.deleteVehicle)
		r.Get("/api/issues", h.listIssues)
		r.Post("/api/issues", h.reportIssue)
		r.Get("/api/issues/{id}", h.getIssue)
		r.Patch("/api/issues/{id}/status", h.updateIssueStatus)
		r.Delete("/api/issues/{id}", h.deleteIssue)

		// Inventory (storekeepers)
		r.Get("/api/inventory", h.listItems)
		r.Get("/api/inventory/{id}", h.getItem)
		r.Group(func(r chi.Router) {
			r.Use(h.RequireRole(core.RoleStorekeeper))
			r.Post("/api/inventory", h.createItem)
			r.Put("/api/inventory/{id}", h.updateItem)
			r.Delete("/api/inventory/{id}", h.deleteItem)
		})

		// Solutions (mechanics)
		r.Get("/api/issues/{id}/solution", h.getSolution)
		r.Group(func(r chi.Router) {
			r.Use(h.RequireRole(core.RoleMechanic))
			r.Post("/api/issues/{id}/solution", h.createSolution)
			r.Put("/api/solutions/{id}", h.updateSolution)
			r.Delete("/api/solutions/{id}", h.deleteSolution)
			r.Post("/api/solutions/{id}/items", h.addLineItem)
			r.Patch("/api/solutions/{id}/items/{lineID}", h.updateLineItem)
			r.Delete("/api/solutions/{id}/items/{lineID}", h.removeLineItem)
			r.Post("/api/solutions/{id}/mechanics/{mechanicID}", h.assignMechanic)
			r.Delete("/api/solutions/{id}/mechanics/{mechanicID}", h.unassignMechanic)
		})

		// Quotations (cashiers)
		r.Get("/api/issues/{id}/quotation", h.getQuotation)
		r.Get("/api/quotations", h.listQuotations)
		r.Group(func(r chi.Router) {
			r.Use(h.RequireRole(core.RoleCashier))
			r.Post("/api/issues/{id}/quotation", h.compileQuotation)
			r.Post("/api/quotations/{id}/pay", h.markQuotationPaid)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// urlID extracts a numeric URL parameter; writes a 400 and returns false on garbage.
func urlID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid "+name+" parameter", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body into v and writes an appropriate error
// response on failure. Returns HTTP 413 when the body exceeds the size limit;
// HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
