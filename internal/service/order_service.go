package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/secret-toaster/internal/model"
	"github.com/freeeve/secret-toaster/internal/repository"
	"github.com/freeeve/secret-toaster/pkg/toaster"
)

var (
	ErrNoActiveRound  = errors.New("no active round")
	ErrNotKnightOwner = errors.New("you do not control this knight")
	ErrInvalidOrder   = errors.New("invalid order")
)

// OrderSubmission is the request payload for submitting orders.
type OrderSubmission struct {
	Orders []OrderInput `json:"orders"`
}

// OrderInput represents a single order from the client.
type OrderInput struct {
	KnightName  string `json:"knight_name"`
	OrderNumber int    `json:"order_number"`
	ActionType  string `json:"action_type"`
	From        int    `json:"from_hex_id"`
	To          int    `json:"to_hex_id"`
	Troops      int    `json:"troop_count,omitempty"`
}

// OrderService handles order submission, readiness, and draw voting against
// the live Redis-cached GameState.
type OrderService struct {
	gameRepo    repository.GameRepository
	roundRepo   repository.RoundRepository
	cache       repository.GameCache
	broadcaster Broadcaster
}

// NewOrderService creates an OrderService.
func NewOrderService(gameRepo repository.GameRepository, roundRepo repository.RoundRepository, cache repository.GameCache, broadcaster Broadcaster) *OrderService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &OrderService{gameRepo: gameRepo, roundRepo: roundRepo, cache: cache, broadcaster: broadcaster}
}

// GameRepo returns the game repository for use by handlers.
func (s *OrderService) GameRepo() repository.GameRepository {
	return s.gameRepo
}

// SubmitOrders validates each input against the live GameState in order,
// installing accepted orders into the caller's queue slot by slot, and
// writes the updated state back to the cache.
func (s *OrderService) SubmitOrders(ctx context.Context, gameID, userID string, inputs []OrderInput) ([]model.Order, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}

	nickname := nicknameFor(game, userID)
	if nickname == "" {
		return nil, ErrNotInGame
	}

	round, err := s.roundRepo.CurrentRound(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if round == nil {
		return nil, ErrNoActiveRound
	}

	state, err := s.loadState(ctx, gameID, round)
	if err != nil {
		return nil, err
	}

	for _, in := range inputs {
		order, err := toEngineOrder(in, nickname)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidOrder, err)
		}
		next, err := toaster.SubmitOrder(state, order)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidOrder, err)
		}
		state = next
	}

	newStateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	if err := s.cache.SetGameState(ctx, gameID, newStateJSON); err != nil {
		return nil, fmt.Errorf("cache state: %w", err)
	}

	player := state.Players[nickname]
	ordersJSON, err := json.Marshal(player.Orders)
	if err != nil {
		return nil, fmt.Errorf("marshal player orders: %w", err)
	}
	if err := s.cache.SetOrders(ctx, gameID, nickname, ordersJSON); err != nil {
		return nil, fmt.Errorf("cache orders: %w", err)
	}

	return queuedOrdersToModel(round.ID, nickname, player.Orders), nil
}

// MarkReady marks the caller's player ready in the live GameState and the
// Redis ready-set used for fast quorum counting, returning the resulting
// ready count and the number of active players in the game.
func (s *OrderService) MarkReady(ctx context.Context, gameID, userID string) (int64, int, error) {
	return s.setReady(ctx, gameID, userID, true)
}

// UnmarkReady clears the caller's ready flag, e.g. when resubmitting orders.
func (s *OrderService) UnmarkReady(ctx context.Context, gameID, userID string) error {
	_, _, err := s.setReady(ctx, gameID, userID, false)
	return err
}

func (s *OrderService) setReady(ctx context.Context, gameID, userID string, ready bool) (int64, int, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return 0, 0, err
	}
	if game == nil {
		return 0, 0, ErrGameNotFound
	}

	nickname := nicknameFor(game, userID)
	if nickname == "" {
		return 0, 0, ErrNotInGame
	}

	round, err := s.roundRepo.CurrentRound(ctx, gameID)
	if err != nil {
		return 0, 0, err
	}
	if round == nil {
		return 0, 0, ErrNoActiveRound
	}

	state, err := s.loadState(ctx, gameID, round)
	if err != nil {
		return 0, 0, err
	}

	next := toaster.SetReady(state, nickname, ready)
	newStateJSON, err := json.Marshal(next)
	if err != nil {
		return 0, 0, fmt.Errorf("marshal state: %w", err)
	}
	if err := s.cache.SetGameState(ctx, gameID, newStateJSON); err != nil {
		return 0, 0, fmt.Errorf("cache state: %w", err)
	}

	if ready {
		if err := s.cache.MarkReady(ctx, gameID, nickname); err != nil {
			return 0, 0, fmt.Errorf("mark ready: %w", err)
		}
	} else {
		if err := s.cache.UnmarkReady(ctx, gameID, nickname); err != nil {
			return 0, 0, fmt.Errorf("unmark ready: %w", err)
		}
	}

	readyCount, err := s.cache.ReadyCount(ctx, gameID)
	if err != nil {
		return 0, 0, fmt.Errorf("ready count: %w", err)
	}

	return readyCount, len(game.Players), nil
}

// ReadyCount returns the current number of ready players for a game.
func (s *OrderService) ReadyCount(ctx context.Context, gameID string) (int64, error) {
	return s.cache.ReadyCount(ctx, gameID)
}

// DrawVoteCount returns the current number of draw votes for a game.
func (s *OrderService) DrawVoteCount(ctx context.Context, gameID string) (int64, error) {
	return s.cache.DrawVoteCount(ctx, gameID)
}

// VoteForDraw records a player's draw vote. If every active player has now
// voted, the game ends as a draw: status moves to completed and its Redis
// data is released.
func (s *OrderService) VoteForDraw(ctx context.Context, gameID, userID string) (int64, string, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return 0, "", err
	}
	if game == nil {
		return 0, "", ErrGameNotFound
	}
	nickname := nicknameFor(game, userID)
	if nickname == "" {
		return 0, "", ErrNotInGame
	}
	if err := s.cache.AddDrawVote(ctx, gameID, nickname); err != nil {
		return 0, "", fmt.Errorf("add draw vote: %w", err)
	}

	count, err := s.cache.DrawVoteCount(ctx, gameID)
	if err != nil {
		return 0, "", fmt.Errorf("draw vote count: %w", err)
	}

	activeCount := s.activePlayerCount(ctx, gameID, game)

	s.broadcaster.BroadcastGameEvent(gameID, "draw_vote", map[string]any{
		"nickname":        nickname,
		"draw_vote_count": count,
		"active_count":    activeCount,
	})

	if int(count) >= activeCount {
		log.Info().Str("gameId", gameID).Msg("All active players voted for draw, ending game")
		if err := s.gameRepo.SetStatus(ctx, gameID, "completed"); err != nil {
			return count, nickname, fmt.Errorf("set status (draw): %w", err)
		}
		s.broadcaster.BroadcastGameEvent(gameID, "game_ended", map[string]any{"reason": "draw"})
		if err := s.cache.DeleteGameData(ctx, gameID, nicknamesOf(game)); err != nil {
			return count, nickname, fmt.Errorf("delete game data: %w", err)
		}
	}

	return count, nickname, nil
}

// activePlayerCount counts players still Active in the live GameState,
// falling back to every joined player if the state can't be read.
func (s *OrderService) activePlayerCount(ctx context.Context, gameID string, game *model.Game) int {
	stateJSON, err := s.cache.GetGameState(ctx, gameID)
	if err != nil || stateJSON == nil {
		return len(game.Players)
	}
	var state toaster.GameState
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return len(game.Players)
	}
	count := 0
	for _, p := range state.Players {
		if p.Active {
			count++
		}
	}
	return count
}

// RemoveDrawVote retracts a player's draw vote.
func (s *OrderService) RemoveDrawVote(ctx context.Context, gameID, userID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	nickname := nicknameFor(game, userID)
	if nickname == "" {
		return ErrNotInGame
	}
	return s.cache.RemoveDrawVote(ctx, gameID, nickname)
}

// GetOrders returns the persisted orders for a round from Postgres.
func (s *OrderService) GetOrders(ctx context.Context, roundID string) ([]model.Order, error) {
	return s.roundRepo.OrdersByRound(ctx, roundID)
}

// loadState fetches the live GameState from Redis, falling back to the
// round's state_before snapshot if the cache entry is missing.
func (s *OrderService) loadState(ctx context.Context, gameID string, round *model.Round) (*toaster.GameState, error) {
	stateJSON, err := s.cache.GetGameState(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("get cached state: %w", err)
	}
	if stateJSON == nil {
		stateJSON = round.StateBefore
	}
	var state toaster.GameState
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &state, nil
}

func nicknameFor(game *model.Game, userID string) string {
	for _, p := range game.Players {
		if p.UserID == userID {
			return p.Nickname
		}
	}
	return ""
}

func queuedOrdersToModel(roundID, nickname string, orders [3]*toaster.Order) []model.Order {
	var out []model.Order
	for _, o := range orders {
		if o == nil {
			continue
		}
		out = append(out, model.Order{
			RoundID:     roundID,
			Nickname:    nickname,
			KnightName:  o.KnightName,
			OrderNumber: o.OrderNumber,
			ActionType:  o.Type.String(),
			FromHexID:   o.From,
			ToHexID:     o.To,
			TroopCount:  o.Troops,
		})
	}
	return out
}

func toEngineOrder(in OrderInput, nickname string) (toaster.Order, error) {
	actionType, ok := toaster.ParseOrderType(in.ActionType)
	if !ok {
		return toaster.Order{}, fmt.Errorf("unknown action type %q", in.ActionType)
	}
	return toaster.Order{
		OrderNumber:   in.OrderNumber,
		KnightName:    in.KnightName,
		OwnerNickname: nickname,
		Type:          actionType,
		From:          in.From,
		To:            in.To,
		Troops:        in.Troops,
	}, nil
}
