package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/assurtech/autocover/internal/core"
	"github.com/assurtech/autocover/pkg/problem"
)

type BonusMalusHandler struct {
	Log *slog.Logger
}

func NewBonusMalusHandler(log *slog.Logger) *BonusMalusHandler {
	return &BonusMalusHandler{Log: log}
}

func (h *BonusMalusHandler) Mount(r chi.Router) {
	r.Post("/bonus-malus/simulate", h.Simulate)
}

type simulateRequest struct {
	CurrentCoefficient decimal.Decimal `json:"current_coefficient"`
	ClaimCount         int             `json:"claim_count"`
}

type simulateResponse struct {
	CurrentCoefficient string `json:"current_coefficient"`
	ClaimCount         int    `json:"claim_count"`
	NewCoefficient     string `json:"new_coefficient"`
}

// Simulate applies one renewal step to a coefficient without touching
// any policy. 200: JSON; 400: malformed body or out-of-range input.
func (h *BonusMalusHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, http.StatusBadRequest, "Malformed Body", "Request body is not valid JSON.")
		return
	}

	current, err := core.NewCoefficient(req.CurrentCoefficient)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Coefficient out of range")
		return
	}

	next, err := core.CalculateNewCoefficient(current, req.ClaimCount)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to simulate bonus-malus")
		return
	}

	resp := simulateResponse{
		CurrentCoefficient: current.String(),
		ClaimCount:         req.ClaimCount,
		NewCoefficient:     next.String(),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.Log.Error("failed to encode simulation", "err", err)
	}
}
