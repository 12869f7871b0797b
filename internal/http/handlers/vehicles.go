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

type VehicleHandler struct {
	Svc core.VehicleService
	Log *slog.Logger
}

func NewVehicleHandler(svc core.VehicleService, log *slog.Logger) *VehicleHandler {
	return &VehicleHandler{Svc: svc, Log: log}
}

func (h *VehicleHandler) Mount(r chi.Router) {
	r.Route("/vehicles", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
	})
}

// Create registers a vehicle after validation.
// 201: JSON; 400: malformed body; 422: violations.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var vehicle core.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&vehicle); err != nil {
		problem.Write(w, http.StatusBadRequest, "Malformed Body", "Request body is not valid JSON.")
		return
	}
	vehicle.TenantID = middleware.TenantID(r.Context())

	created, err := h.Svc.Create(r.Context(), vehicle)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to create vehicle")
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		h.Log.Error("failed to encode vehicle", "vehicle_id", created.ID, "err", err)
	}
}

func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var vehicle core.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&vehicle); err != nil {
		problem.Write(w, http.StatusBadRequest, "Malformed Body", "Request body is not valid JSON.")
		return
	}
	vehicle.ID = chi.URLParam(r, "id")
	vehicle.TenantID = middleware.TenantID(r.Context())

	updated, err := h.Svc.Update(r.Context(), vehicle)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to update vehicle")
		return
	}

	if err := json.NewEncoder(w).Encode(updated); err != nil {
		h.Log.Error("failed to encode vehicle", "vehicle_id", updated.ID, "err", err)
	}
}

func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	vehicle, err := h.Svc.Get(r.Context(), id, middleware.TenantID(r.Context()))
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to get vehicle")
		return
	}

	if err := json.NewEncoder(w).Encode(vehicle); err != nil {
		h.Log.Error("failed to encode vehicle", "vehicle_id", id, "err", err)
	}
}

func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := core.VehicleFilter{
		CategoryID: r.URL.Query().Get("category_id"),
		OwnerID:    r.URL.Query().Get("owner_id"),
	}

	limit, offset := pagination(r)
	vehicles, err := h.Svc.List(r.Context(), middleware.TenantID(r.Context()), filter, limit, offset)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to list vehicles")
		return
	}

	if vehicles == nil {
		vehicles = []core.Vehicle{}
	}

	response := map[string]interface{}{
		"items":  vehicles,
		"limit":  limit,
		"offset": offset,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.Log.Error("failed to encode vehicles", "err", err)
	}
}
