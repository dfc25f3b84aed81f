package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/freeeve/secret-toaster/internal/model"
	"github.com/freeeve/secret-toaster/internal/repository"
	"github.com/freeeve/secret-toaster/pkg/toaster"
)

var (
	ErrGameNotFound  = errors.New("game not found")
	ErrGameNotLobby  = errors.New("game is not in lobby status")
	ErrGameFull      = errors.New("game already has the maximum number of players")
	ErrNotEnough     = errors.New("need at least two players to start")
	ErrNotCreator    = errors.New("only the creator can start the game")
	ErrGameNotActive = errors.New("game is not active")
	ErrAlreadyJoined = errors.New("already joined this game")
	ErrNotInGame     = errors.New("you are not in this game")
)

// GameService handles game lifecycle operations: lobby creation, joining,
// starting, and ending.
type GameService struct {
	gameRepo             repository.GameRepository
	roundRepo            repository.RoundRepository
	userRepo             repository.UserRepository
	cache                repository.GameCache
	defaultRoundDuration string
}

// NewGameService creates a GameService. defaultRoundDuration is the
// Postgres interval string (e.g. "24 hours") used for CreateGame calls
// that don't specify their own round duration; pass "" to fall back to
// "24 hours".
func NewGameService(gameRepo repository.GameRepository, roundRepo repository.RoundRepository, userRepo repository.UserRepository, cache repository.GameCache, defaultRoundDuration string) *GameService {
	if defaultRoundDuration == "" {
		defaultRoundDuration = "24 hours"
	}
	return &GameService{gameRepo: gameRepo, roundRepo: roundRepo, userRepo: userRepo, cache: cache, defaultRoundDuration: defaultRoundDuration}
}

// CreateGame creates a new game in lobby status. The creator auto-joins
// under the given nickname and alliance tag.
func (s *GameService) CreateGame(ctx context.Context, name, creatorID, nickname, alliance, roundDuration string) (*model.Game, error) {
	roundDuration = toPgInterval(roundDuration, s.defaultRoundDuration)

	game, err := s.gameRepo.Create(ctx, name, creatorID, roundDuration)
	if err != nil {
		return nil, err
	}

	if err := s.gameRepo.JoinGame(ctx, game.ID, creatorID, nickname, alliance); err != nil {
		return nil, err
	}

	return s.gameRepo.FindByID(ctx, game.ID)
}

// JoinGame adds a player to a lobby under a chosen nickname and alliance.
func (s *GameService) JoinGame(ctx context.Context, gameID, userID, nickname, alliance string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "lobby" {
		return ErrGameNotLobby
	}

	for _, p := range game.Players {
		if p.UserID == userID {
			return ErrAlreadyJoined
		}
	}

	count, err := s.gameRepo.PlayerCount(ctx, gameID)
	if err != nil {
		return err
	}
	if count >= len(toaster.KeepIndices) {
		return ErrGameFull
	}

	return s.gameRepo.JoinGame(ctx, gameID, userID, nickname, alliance)
}

// SetAlliance changes a player's declared alliance while still in the lobby.
func (s *GameService) SetAlliance(ctx context.Context, gameID, userID, alliance string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "lobby" {
		return ErrGameNotLobby
	}
	found := false
	for _, p := range game.Players {
		if p.UserID == userID {
			found = true
			break
		}
	}
	if !found {
		return ErrNotInGame
	}
	return s.gameRepo.SetAlliance(ctx, gameID, userID, alliance)
}

// StartGame places every lobby player's knight on a free keep, builds the
// board, and creates the first round.
func (s *GameService) StartGame(ctx context.Context, gameID, userID string, seed uint64) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != "lobby" {
		return nil, ErrGameNotLobby
	}
	if game.CreatorID != userID {
		return nil, ErrNotCreator
	}
	if len(game.Players) < 2 {
		return nil, ErrNotEnough
	}

	rng := toaster.NewSeededRNG(seed)
	state := toaster.NewGameState()
	for _, p := range game.Players {
		state, err = toaster.AddPlayer(state, p.Nickname, p.Alliance, rng)
		if err != nil {
			return nil, fmt.Errorf("place knight for %s: %w", p.Nickname, err)
		}
	}

	if err := s.gameRepo.Start(ctx, gameID); err != nil {
		return nil, err
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal initial state: %w", err)
	}

	deadline := time.Now().Add(parseDuration(game.RoundDuration))
	if _, err := s.roundRepo.CreateRound(ctx, gameID, state.Round, stateJSON, deadline); err != nil {
		return nil, err
	}
	if err := s.cache.SetGameState(ctx, gameID, stateJSON); err != nil {
		return nil, err
	}
	if err := s.cache.SetTimer(ctx, gameID, deadline); err != nil {
		return nil, err
	}

	return s.gameRepo.FindByID(ctx, gameID)
}

// GetGame returns a game by ID.
func (s *GameService) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// DeleteGame removes a lobby game. Only the game creator can delete a game.
func (s *GameService) DeleteGame(ctx context.Context, gameID, userID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "lobby" {
		return ErrGameNotLobby
	}
	if game.CreatorID != userID {
		return ErrNotCreator
	}
	return s.gameRepo.Delete(ctx, gameID)
}

// ArchiveGame ends an active game without declaring a victor. Victory
// conditions are left undefined by the engine; archiving is the only
// host-driven way to close out a game short of a draw vote.
func (s *GameService) ArchiveGame(ctx context.Context, gameID, userID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != "active" {
		return nil, ErrGameNotActive
	}
	if game.CreatorID != userID {
		return nil, ErrNotCreator
	}
	if err := s.gameRepo.SetStatus(ctx, gameID, "archived"); err != nil {
		return nil, err
	}
	return s.gameRepo.FindByID(ctx, gameID)
}

// ListGames returns open games, games the user is in, or finished games.
func (s *GameService) ListGames(ctx context.Context, userID string, filter string) ([]model.Game, error) {
	switch filter {
	case "my":
		return s.gameRepo.ListByUser(ctx, userID)
	case "finished":
		return s.gameRepo.ListFinished(ctx)
	default:
		return s.gameRepo.ListOpen(ctx)
	}
}

// toPgInterval converts Go-style duration strings (e.g. "5m", "1h") to
// PostgreSQL interval format (e.g. "5 minutes", "60 minutes"). Returns
// defaultVal if input is empty.
func toPgInterval(s, defaultVal string) string {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%d seconds", totalSeconds)
	}
	return fmt.Sprintf("%d minutes", totalSeconds/60)
}

// parseDuration converts Postgres interval strings like "24:00:00" or Go
// duration strings like "5m" to time.Duration.
func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err == nil {
		return d
	}
	parts := strings.Split(s, ":")
	if len(parts) == 3 {
		h, e1 := strconv.Atoi(parts[0])
		m, e2 := strconv.Atoi(parts[1])
		sec, e3 := strconv.Atoi(parts[2])
		if e1 == nil && e2 == nil && e3 == nil {
			return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
		}
	}
	return 24 * time.Hour
}
