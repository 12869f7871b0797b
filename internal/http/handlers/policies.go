package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/assurtech/autocover/internal/core"
	"github.com/assurtech/autocover/internal/middleware"
	"github.com/assurtech/autocover/pkg/problem"
)

type PolicyHandler struct {
	Svc core.PolicyService
	Log *slog.Logger
}

func NewPolicyHandler(svc core.PolicyService, log *slog.Logger) *PolicyHandler {
	return &PolicyHandler{Svc: svc, Log: log}
}

func (h *PolicyHandler) Mount(r chi.Router) {
	r.Route("/policies", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Post("/quote", h.Quote)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Get("/by-number/{number}", h.GetByNumber)
		r.Put("/{id}", h.Update)
	})
}

// Create validates, prices and persists a policy.
// 201: JSON; 400: malformed body; 422: violations; 500: internal error.
func (h *PolicyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var policy core.AutoPolicy
	if err := json.NewDecoder(r.Body).Decode(&policy); err != nil {
		problem.Write(w, http.StatusBadRequest, "Malformed Body", "Request body is not valid JSON.")
		return
	}
	policy.TenantID = middleware.TenantID(r.Context())

	created, err := h.Svc.Create(r.Context(), policy)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to create policy")
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		h.Log.Error("failed to encode policy", "policy_id", created.ID, "err", err)
	}
}

// Quote runs the full pricing pipeline without persisting anything.
// 200: JSON quote; 400: malformed body; 422: violations.
func (h *PolicyHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var policy core.AutoPolicy
	if err := json.NewDecoder(r.Body).Decode(&policy); err != nil {
		problem.Write(w, http.StatusBadRequest, "Malformed Body", "Request body is not valid JSON.")
		return
	}
	tenantID := middleware.TenantID(r.Context())
	policy.TenantID = tenantID

	quote, err := h.Svc.Quote(r.Context(), policy, tenantID)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to quote policy")
		return
	}

	if err := json.NewEncoder(w).Encode(quote); err != nil {
		h.Log.Error("failed to encode quote", "err", err)
	}
}

// Update revalidates against the stored policy and reprices.
// 200: JSON; 404: not found; 422: violations.
func (h *PolicyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var policy core.AutoPolicy
	if err := json.NewDecoder(r.Body).Decode(&policy); err != nil {
		problem.Write(w, http.StatusBadRequest, "Malformed Body", "Request body is not valid JSON.")
		return
	}
	policy.ID = chi.URLParam(r, "id")
	policy.TenantID = middleware.TenantID(r.Context())

	updated, err := h.Svc.Update(r.Context(), policy)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to update policy")
		return
	}

	if err := json.NewEncoder(w).Encode(updated); err != nil {
		h.Log.Error("failed to encode policy", "policy_id", updated.ID, "err", err)
	}
}

func (h *PolicyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	policy, err := h.Svc.Get(r.Context(), id, middleware.TenantID(r.Context()))
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to get policy")
		return
	}

	if err := json.NewEncoder(w).Encode(policy); err != nil {
		h.Log.Error("failed to encode policy", "policy_id", id, "err", err)
	}
}

func (h *PolicyHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	policy, err := h.Svc.GetByNumber(r.Context(), number, middleware.TenantID(r.Context()))
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to get policy")
		return
	}

	if err := json.NewEncoder(w).Encode(policy); err != nil {
		h.Log.Error("failed to encode policy", "policy_number", number, "err", err)
	}
}

// List returns policies with optional filtering and pagination.
func (h *PolicyHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := core.PolicyFilter{
		VehicleID: r.URL.Query().Get("vehicle_id"),
		DriverID:  r.URL.Query().Get("driver_id"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = core.PolicyStatus(status)
	}

	limit, offset := pagination(r)
	policies, err := h.Svc.List(r.Context(), middleware.TenantID(r.Context()), filter, limit, offset)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to list policies")
		return
	}

	if policies == nil {
		policies = []core.AutoPolicy{}
	}

	response := map[string]interface{}{
		"items":  policies,
		"limit":  limit,
		"offset": offset,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.Log.Error("failed to encode policies", "err", err)
	}
}
