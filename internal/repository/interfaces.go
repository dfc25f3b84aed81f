package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/freeeve/secret-toaster/internal/model"
)

// UserRepository defines user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error)
	Upsert(ctx context.Context, provider, providerID, nickname, avatarURL string) (*model.User, error)
	UpdateNickname(ctx context.Context, id, nickname string) error
}

// GameRepository defines game and player data operations.
type GameRepository interface {
	Create(ctx context.Context, name, creatorID, roundDuration string) (*model.Game, error)
	FindByID(ctx context.Context, id string) (*model.Game, error)
	ListOpen(ctx context.Context) ([]model.Game, error)
	ListByUser(ctx context.Context, userID string) ([]model.Game, error)
	ListFinished(ctx context.Context) ([]model.Game, error)
	JoinGame(ctx context.Context, gameID, userID, nickname, alliance string) error
	ListPlayers(ctx context.Context, gameID string) ([]model.GamePlayer, error)
	PlayerCount(ctx context.Context, gameID string) (int, error)
	SetAlliance(ctx context.Context, gameID, userID, alliance string) error
	Start(ctx context.Context, gameID string) error
	ListActive(ctx context.Context) ([]model.Game, error)
	SetStatus(ctx context.Context, gameID, status string) error
	Delete(ctx context.Context, gameID string) error
}

// RoundRepository defines round, order, and event data operations.
type RoundRepository interface {
	CreateRound(ctx context.Context, gameID string, roundNumber int, stateBefore json.RawMessage, deadline time.Time) (*model.Round, error)
	CurrentRound(ctx context.Context, gameID string) (*model.Round, error)
	ListRounds(ctx context.Context, gameID string) ([]model.Round, error)
	ResolveRound(ctx context.Context, roundID string, stateAfter json.RawMessage) error
	SaveOrders(ctx context.Context, orders []model.Order) error
	OrdersByRound(ctx context.Context, roundID string) ([]model.Order, error)
	ListExpired(ctx context.Context) ([]model.Round, error)
	SaveEvents(ctx context.Context, events []model.Event) error
	EventsByGame(ctx context.Context, gameID string) ([]model.Event, error)
}

// MessageRepository defines message data operations.
type MessageRepository interface {
	Create(ctx context.Context, gameID, senderID, recipientID, content, roundID string) (*model.Message, error)
	ListByGame(ctx context.Context, gameID, userID string) ([]model.Message, error)
}

// GameCache defines live game state operations (Redis).
type GameCache interface {
	SetGameState(ctx context.Context, gameID string, state json.RawMessage) error
	GetGameState(ctx context.Context, gameID string) (json.RawMessage, error)
	SetOrders(ctx context.Context, gameID, nickname string, orders json.RawMessage) error
	GetOrders(ctx context.Context, gameID, nickname string) (json.RawMessage, error)
	GetAllOrders(ctx context.Context, gameID string, nicknames []string) (map[string]json.RawMessage, error)
	MarkReady(ctx context.Context, gameID, nickname string) error
	UnmarkReady(ctx context.Context, gameID, nickname string) error
	ReadyCount(ctx context.Context, gameID string) (int64, error)
	ReadyNicknames(ctx context.Context, gameID string) ([]string, error)
	SetTimer(ctx context.Context, gameID string, deadline time.Time) error
	ClearTimer(ctx context.Context, gameID string) error
	AddDrawVote(ctx context.Context, gameID, nickname string) error
	RemoveDrawVote(ctx context.Context, gameID, nickname string) error
	DrawVoteCount(ctx context.Context, gameID string) (int64, error)
	DrawVoteNicknames(ctx context.Context, gameID string) ([]string, error)
	ClearRoundData(ctx context.Context, gameID string, nicknames []string) error
	DeleteGameData(ctx context.Context, gameID string, nicknames []string) error
}
