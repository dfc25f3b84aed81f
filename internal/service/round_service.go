package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/secret-toaster/internal/model"
	"github.com/freeeve/secret-toaster/internal/repository"
	"github.com/freeeve/secret-toaster/pkg/toaster"
)

// RoundService orchestrates round resolution: loading the live GameState,
// running execute_round, and persisting the result.
type RoundService struct {
	gameRepo    repository.GameRepository
	roundRepo   repository.RoundRepository
	cache       repository.GameCache
	broadcaster Broadcaster

	// gameLocks prevents concurrent round resolution for the same game. The
	// Redis keyspace listener and the stale-round poller can both fire at
	// once; without locking, both would resolve the same round and create
	// duplicate next rounds.
	gameLocks sync.Map
}

// NewRoundService creates a RoundService.
func NewRoundService(
	gameRepo repository.GameRepository,
	roundRepo repository.RoundRepository,
	cache repository.GameCache,
	broadcaster Broadcaster,
) *RoundService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &RoundService{
		gameRepo:    gameRepo,
		roundRepo:   roundRepo,
		cache:       cache,
		broadcaster: broadcaster,
	}
}

// RecoverActiveGames rehydrates Redis state for all active games from
// Postgres. Called on server startup to restore timers and game state lost
// during a restart.
func (s *RoundService) RecoverActiveGames(ctx context.Context) error {
	games, err := s.gameRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active games: %w", err)
	}
	if len(games) == 0 {
		log.Info().Msg("No active games to recover")
		return nil
	}

	log.Info().Int("count", len(games)).Msg("Recovering active games after restart")

	for _, game := range games {
		round, err := s.roundRepo.CurrentRound(ctx, game.ID)
		if err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to get current round during recovery")
			continue
		}
		if round == nil {
			log.Warn().Str("gameId", game.ID).Msg("Active game has no current round, skipping")
			continue
		}

		if err := s.cache.SetGameState(ctx, game.ID, round.StateBefore); err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore game state")
			continue
		}

		if time.Now().Before(round.Deadline) {
			if err := s.cache.SetTimer(ctx, game.ID, round.Deadline); err != nil {
				log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore timer")
			}
		}

		log.Info().Str("gameId", game.ID).Int("round", round.RoundNumber).
			Time("deadline", round.Deadline).Str("deadlineIn", humanize.Time(round.Deadline)).
			Msg("Recovered game state")
	}

	return nil
}

// ResolveRound resolves the current round once its deadline has passed.
func (s *RoundService) ResolveRound(ctx context.Context, gameID string) error {
	return s.resolveRoundInternal(ctx, gameID, false)
}

// ResolveRoundEarly resolves the current round immediately because every
// active player has marked ready before the deadline.
func (s *RoundService) ResolveRoundEarly(ctx context.Context, gameID string) error {
	return s.resolveRoundInternal(ctx, gameID, true)
}

func (s *RoundService) gameLock(gameID string) *sync.Mutex {
	v, _ := s.gameLocks.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (s *RoundService) resolveRoundInternal(ctx context.Context, gameID string, early bool) error {
	// Per-game lock prevents concurrent resolution from the keyspace
	// listener and the poller racing, or from an early-resolution call
	// racing with timer expiry.
	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil || game == nil {
		return fmt.Errorf("find game: %w", err)
	}
	if game.Status != "active" {
		log.Info().Str("gameId", gameID).Str("status", game.Status).Msg("Skipping resolution for non-active game")
		return nil
	}

	round, err := s.roundRepo.CurrentRound(ctx, gameID)
	if err != nil || round == nil {
		return fmt.Errorf("get current round: %w", err)
	}

	if !early && time.Now().Before(round.Deadline) {
		log.Debug().Str("gameId", gameID).Time("deadline", round.Deadline).Msg("Round deadline not yet reached, skipping")
		return nil
	}

	log.Info().Str("gameId", gameID).Str("roundId", round.ID).
		Bool("early", early).Int("roundNumber", round.RoundNumber).
		Msg("Resolving round")

	stateJSON, err := s.cache.GetGameState(ctx, gameID)
	if err != nil {
		return fmt.Errorf("get cached state: %w", err)
	}
	if stateJSON == nil {
		stateJSON = round.StateBefore
	}

	var state toaster.GameState
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return fmt.Errorf("unmarshal state: %w", err)
	}

	// At the deadline, players who never marked ready are auto-readied so
	// the round still executes with whatever they queued (or nothing).
	// execute_round itself has no notion of a deadline; forcing readiness
	// here is the host's only lever for a round that must not stall forever.
	if !early {
		for _, p := range state.Players {
			if p.Active && !p.Ready {
				p.Ready = true
				log.Info().Str("gameId", gameID).Str("nickname", p.Nickname).Msg("Auto-readied player at deadline")
			}
		}
	}

	seed, err := RandomSeed()
	if err != nil {
		return fmt.Errorf("mint round seed: %w", err)
	}

	next, events, executed := toaster.ExecuteRound(&state, seed)
	if !executed {
		log.Debug().Str("gameId", gameID).Msg("Not every active player is ready, round not executed")
		return nil
	}

	return s.commitRound(ctx, game, round, next, events)
}

// commitRound persists the resolved round's state and event log to
// Postgres, updates the Redis cache, clears round-scoped keys, and only
// then broadcasts — commit-before-broadcast, so a client never observes an
// event for a round that failed to persist.
func (s *RoundService) commitRound(ctx context.Context, game *model.Game, round *model.Round, next *toaster.GameState, events []toaster.Event) error {
	stateAfterJSON, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal state after: %w", err)
	}
	if err := s.roundRepo.ResolveRound(ctx, round.ID, stateAfterJSON); err != nil {
		return fmt.Errorf("resolve round: %w", err)
	}

	modelEvents := eventsToModel(game.ID, round.RoundNumber, events)
	if err := s.roundRepo.SaveEvents(ctx, modelEvents); err != nil {
		return fmt.Errorf("save events: %w", err)
	}

	modelOrders := ordersFromEvents(round.ID, events)
	if len(modelOrders) > 0 {
		if err := s.roundRepo.SaveOrders(ctx, modelOrders); err != nil {
			return fmt.Errorf("save orders: %w", err)
		}
	}

	deadline := time.Now().Add(parseDuration(game.RoundDuration))
	newStateJSON, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal new state: %w", err)
	}
	if _, err := s.roundRepo.CreateRound(ctx, game.ID, next.Round, newStateJSON, deadline); err != nil {
		return fmt.Errorf("create next round: %w", err)
	}

	nicknames := nicknamesOf(game)
	if err := s.cache.ClearRoundData(ctx, game.ID, nicknames); err != nil {
		return fmt.Errorf("clear round data: %w", err)
	}
	if err := s.cache.SetGameState(ctx, game.ID, newStateJSON); err != nil {
		return fmt.Errorf("set new state: %w", err)
	}
	if err := s.cache.SetTimer(ctx, game.ID, deadline); err != nil {
		return fmt.Errorf("set timer: %w", err)
	}

	log.Info().Str("gameId", game.ID).Int("round", next.Round).
		Time("deadline", deadline).Int("eventCount", len(events)).
		Msg("Round resolved, game advanced")

	for _, ev := range events {
		s.broadcaster.BroadcastGameEvent(game.ID, string(ev.Type), ev)
	}
	s.broadcaster.BroadcastGameEvent(game.ID, "round_advanced", map[string]any{
		"round":    next.Round,
		"deadline": deadline.Format(time.RFC3339),
	})

	return nil
}

// CleanupArchivedGame broadcasts the game_ended event and clears cached
// game data for a game the host has archived or drawn.
func (s *RoundService) CleanupArchivedGame(ctx context.Context, gameID, reason string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil || game == nil {
		return fmt.Errorf("find game: %w", err)
	}
	s.broadcaster.BroadcastGameEvent(gameID, "game_ended", map[string]any{
		"reason": reason,
	})
	return s.cache.DeleteGameData(ctx, gameID, nicknamesOf(game))
}

func nicknamesOf(game *model.Game) []string {
	var names []string
	for _, p := range game.Players {
		names = append(names, p.Nickname)
	}
	return names
}

func eventsToModel(gameID string, round int, events []toaster.Event) []model.Event {
	var out []model.Event
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		out = append(out, model.Event{
			GameID:   gameID,
			Round:    round,
			LogIndex: ev.Index,
			Type:     string(ev.Type),
			Data:     data,
		})
	}
	return out
}

// ordersFromEvents extracts the orders actually dispatched during a round
// from its OrderIssued events — the executor's own record of what ran, in
// the order it ran, rather than a re-derived snapshot of the (by then
// cleared) player order queues.
func ordersFromEvents(roundID string, events []toaster.Event) []model.Order {
	var out []model.Order
	for _, ev := range events {
		if ev.Type != toaster.EventOrderIssued || ev.OrderIssued == nil {
			continue
		}
		o := ev.OrderIssued.Order
		out = append(out, model.Order{
			RoundID:     roundID,
			Nickname:    ev.OrderIssued.Player,
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

// RandomSeed mints a fresh round seed from the OS entropy source. The core
// is deterministic given a seed; minting that seed is host policy, not a
// core concern, so crypto/rand is used here rather than a package-level
// math/rand call.
func RandomSeed() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}
