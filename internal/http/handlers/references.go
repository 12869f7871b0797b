package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/assurtech/autocover/internal/core"
	"github.com/assurtech/autocover/internal/middleware"
)

type ReferenceHandler struct {
	Refs core.ReferenceRepo
	Log  *slog.Logger
}

func NewReferenceHandler(refs core.ReferenceRepo, log *slog.Logger) *ReferenceHandler {
	return &ReferenceHandler{Refs: refs, Log: log}
}

func (h *ReferenceHandler) Mount(r chi.Router) {
	r.Get("/references/{kind}", h.List)
}

// List returns the reference items of one kind for the caller's tenant.
func (h *ReferenceHandler) List(w http.ResponseWriter, r *http.Request) {
	kind := core.ReferenceKind(chi.URLParam(r, "kind"))

	items, err := h.Refs.List(r.Context(), kind, middleware.TenantID(r.Context()))
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to list references")
		return
	}

	if items == nil {
		items = []core.ReferenceItem{}
	}
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"items": items}); err != nil {
		h.Log.Error("failed to encode references", "err", err)
	}
}
