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

type DriverHandler struct {
	Svc core.DriverService
	Log *slog.Logger
}

func NewDriverHandler(svc core.DriverService, log *slog.Logger) *DriverHandler {
	return &DriverHandler{Svc: svc, Log: log}
}

func (h *DriverHandler) Mount(r chi.Router) {
	r.Route("/drivers", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
	})
}

// Create registers a driver after validation.
// 201: JSON; 400: malformed body; 422: violations.
func (h *DriverHandler) Create(w http.ResponseWriter, r *http.Request) {
	var driver core.Driver
	if err := json.NewDecoder(r.Body).Decode(&driver); err != nil {
		problem.Write(w, http.StatusBadRequest, "Malformed Body", "Request body is not valid JSON.")
		return
	}
	driver.TenantID = middleware.TenantID(r.Context())

	created, err := h.Svc.Create(r.Context(), driver)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to create driver")
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		h.Log.Error("failed to encode driver", "driver_id", created.ID, "err", err)
	}
}

func (h *DriverHandler) Update(w http.ResponseWriter, r *http.Request) {
	var driver core.Driver
	if err := json.NewDecoder(r.Body).Decode(&driver); err != nil {
		problem.Write(w, http.StatusBadRequest, "Malformed Body", "Request body is not valid JSON.")
		return
	}
	driver.ID = chi.URLParam(r, "id")
	driver.TenantID = middleware.TenantID(r.Context())

	updated, err := h.Svc.Update(r.Context(), driver)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to update driver")
		return
	}

	if err := json.NewEncoder(w).Encode(updated); err != nil {
		h.Log.Error("failed to encode driver", "driver_id", updated.ID, "err", err)
	}
}

func (h *DriverHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	driver, err := h.Svc.Get(r.Context(), id, middleware.TenantID(r.Context()))
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to get driver")
		return
	}

	if err := json.NewEncoder(w).Encode(driver); err != nil {
		h.Log.Error("failed to encode driver", "driver_id", id, "err", err)
	}
}

func (h *DriverHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := core.DriverFilter{
		CustomerID: r.URL.Query().Get("customer_id"),
	}

	limit, offset := pagination(r)
	drivers, err := h.Svc.List(r.Context(), middleware.TenantID(r.Context()), filter, limit, offset)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to list drivers")
		return
	}

	if drivers == nil {
		drivers = []core.Driver{}
	}

	response := map[string]interface{}{
		"items":  drivers,
		"limit":  limit,
		"offset": offset,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.Log.Error("failed to encode drivers", "err", err)
	}
}
