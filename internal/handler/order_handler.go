package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/secret-toaster/internal/auth"
	"github.com/freeeve/secret-toaster/internal/service"
)

// OrderHandler handles order submission, ready, and draw-vote endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
	roundSvc *service.RoundService
	hub      *Hub
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService, roundSvc *service.RoundService, hub *Hub) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc, roundSvc: roundSvc, hub: hub}
}

// SubmitOrders handles POST /api/v1/games/{id}/orders
func (h *OrderHandler) SubmitOrders(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	var req service.OrderSubmission
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	orders, err := h.orderSvc.SubmitOrders(r.Context(), gameID, userID, req.Orders)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrNotInGame) || errors.Is(err, service.ErrNoActiveRound) {
			status = http.StatusBadRequest
		} else if errors.Is(err, service.ErrInvalidOrder) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// MarkReady handles POST /api/v1/games/{id}/orders/ready
func (h *OrderHandler) MarkReady(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	readyCount, totalPlayers, err := h.orderSvc.MarkReady(r.Context(), gameID, userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrNotInGame) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	h.hub.BroadcastToGame(gameID, WSEvent{
		Type:   EventPlayerReady,
		GameID: gameID,
		Data: map[string]any{
			"ready_count":   readyCount,
			"total_players": totalPlayers,
		},
	})

	// If every active player is ready, trigger early resolution. Use a
	// detached context since the request context is cancelled on return.
	if int(readyCount) >= totalPlayers {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := h.roundSvc.ResolveRoundEarly(ctx, gameID); err != nil {
				log.Error().Err(err).Str("gameId", gameID).Msg("Early resolution failed")
			}
		}()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ready_count":   readyCount,
		"total_players": totalPlayers,
		"all_ready":     int(readyCount) >= totalPlayers,
	})
}

// UnmarkReady handles DELETE /api/v1/games/{id}/orders/ready
func (h *OrderHandler) UnmarkReady(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	if err := h.orderSvc.UnmarkReady(r.Context(), gameID, userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrNotInGame) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "unmarked"})
}

// VoteForDraw handles POST /api/v1/games/{id}/draw/vote
func (h *OrderHandler) VoteForDraw(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	count, nickname, err := h.orderSvc.VoteForDraw(r.Context(), gameID, userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrNotInGame) {
			status = http.StatusForbidden
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "voted",
		"nickname":        nickname,
		"draw_vote_count": count,
	})
}

// RemoveDrawVote handles DELETE /api/v1/games/{id}/draw/vote
func (h *OrderHandler) RemoveDrawVote(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	if err := h.orderSvc.RemoveDrawVote(r.Context(), gameID, userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrNotInGame) {
			status = http.StatusForbidden
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
