package handler

import (
	"net/http"

	"github.com/freeeve/secret-toaster/internal/repository"
)

// RoundHandler handles round-related read endpoints.
type RoundHandler struct {
	roundRepo repository.RoundRepository
}

// NewRoundHandler creates a RoundHandler.
func NewRoundHandler(roundRepo repository.RoundRepository) *RoundHandler {
	return &RoundHandler{roundRepo: roundRepo}
}

// ListRounds handles GET /api/v1/games/{id}/rounds
func (h *RoundHandler) ListRounds(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	rounds, err := h.roundRepo.ListRounds(r.Context(), gameID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rounds == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, rounds)
}

// CurrentRound handles GET /api/v1/games/{id}/rounds/current
func (h *RoundHandler) CurrentRound(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	round, err := h.roundRepo.CurrentRound(r.Context(), gameID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if round == nil {
		writeError(w, http.StatusNotFound, "no active round")
		return
	}
	writeJSON(w, http.StatusOK, round)
}

// RoundOrders handles GET /api/v1/games/{id}/rounds/{roundId}/orders
func (h *RoundHandler) RoundOrders(w http.ResponseWriter, r *http.Request) {
	roundID := r.PathValue("roundId")
	orders, err := h.roundRepo.OrdersByRound(r.Context(), roundID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if orders == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// EventsByGame handles GET /api/v1/games/{id}/events
func (h *RoundHandler) EventsByGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	events, err := h.roundRepo.EventsByGame(r.Context(), gameID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, events)
}
