package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/secret-toaster/internal/auth"
	"github.com/freeeve/secret-toaster/internal/service"
)

// GameHandler handles game lobby and lifecycle endpoints.
type GameHandler struct {
	gameSvc  *service.GameService
	orderSvc *service.OrderService
	roundSvc *service.RoundService
	wsHub    *Hub
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(gameSvc *service.GameService, orderSvc *service.OrderService, roundSvc *service.RoundService, wsHub *Hub) *GameHandler {
	return &GameHandler{gameSvc: gameSvc, orderSvc: orderSvc, roundSvc: roundSvc, wsHub: wsHub}
}

// CreateGame handles POST /api/v1/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var req struct {
		Name          string `json:"name"`
		Nickname      string `json:"nickname"`
		Alliance      string `json:"alliance,omitempty"`
		RoundDuration string `json:"round_duration,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Nickname == "" {
		writeError(w, http.StatusBadRequest, "nickname is required")
		return
	}

	game, err := h.gameSvc.CreateGame(r.Context(), req.Name, userID, req.Nickname, req.Alliance, req.RoundDuration)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

// ListGames handles GET /api/v1/games
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	filter := r.URL.Query().Get("filter")
	games, err := h.gameSvc.ListGames(r.Context(), userID, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if games == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// GetGame handles GET /api/v1/games/{id}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	game, err := h.gameSvc.GetGame(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, service.ErrGameNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if game.Status == "active" {
		if count, err := h.orderSvc.ReadyCount(r.Context(), gameID); err == nil {
			game.ReadyCount = int(count)
		}
		if count, err := h.orderSvc.DrawVoteCount(r.Context(), gameID); err == nil {
			game.DrawVoteCount = int(count)
		}
	}

	writeJSON(w, http.StatusOK, game)
}

// DeleteGame handles DELETE /api/v1/games/{id}
func (h *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	if err := h.gameSvc.DeleteGame(r.Context(), gameID, userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrGameNotLobby) {
			status = http.StatusBadRequest
		} else if errors.Is(err, service.ErrNotCreator) {
			status = http.StatusForbidden
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ArchiveGame handles POST /api/v1/games/{id}/archive
func (h *GameHandler) ArchiveGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	game, err := h.gameSvc.ArchiveGame(r.Context(), gameID, userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrGameNotActive) {
			status = http.StatusBadRequest
		} else if errors.Is(err, service.ErrNotCreator) {
			status = http.StatusForbidden
		}
		writeError(w, status, err.Error())
		return
	}

	if err := h.roundSvc.CleanupArchivedGame(r.Context(), gameID, "archived"); err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Failed to cleanup archived game")
	}

	writeJSON(w, http.StatusOK, game)
}

// JoinGame handles POST /api/v1/games/{id}/join
func (h *GameHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	var req struct {
		Nickname string `json:"nickname"`
		Alliance string `json:"alliance,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Nickname == "" {
		writeError(w, http.StatusBadRequest, "nickname is required")
		return
	}

	if err := h.gameSvc.JoinGame(r.Context(), gameID, userID, req.Nickname, req.Alliance); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrGameFull) || errors.Is(err, service.ErrGameNotLobby) || errors.Is(err, service.ErrAlreadyJoined) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

// SetAlliance handles PATCH /api/v1/games/{id}/alliance
func (h *GameHandler) SetAlliance(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	var req struct {
		Alliance string `json:"alliance"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.gameSvc.SetAlliance(r.Context(), gameID, userID, req.Alliance); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrGameNotLobby) || errors.Is(err, service.ErrNotInGame) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	h.wsHub.BroadcastToGame(gameID, WSEvent{
		Type:   EventAllianceChanged,
		GameID: gameID,
		Data:   map[string]string{"user_id": userID, "alliance": req.Alliance},
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// StartGame handles POST /api/v1/games/{id}/start
func (h *GameHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	seed, err := service.RandomSeed()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to mint seed")
		return
	}

	game, err := h.gameSvc.StartGame(r.Context(), gameID, userID, seed)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrNotCreator) || errors.Is(err, service.ErrNotEnough) || errors.Is(err, service.ErrGameNotLobby) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	h.wsHub.BroadcastToGame(gameID, WSEvent{
		Type:   EventGameStarted,
		GameID: gameID,
		Data:   map[string]string{"status": game.Status},
	})

	writeJSON(w, http.StatusOK, game)
}
