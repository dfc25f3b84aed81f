package model

import (
	"encoding/json"
	"time"
)

// User represents a registered player account.
type User struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ProviderID  string    `json:"provider_id"`
	Nickname    string    `json:"nickname"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Game represents one Secret Toaster match.
type Game struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	CreatorID     string       `json:"creator_id"`
	Status        string       `json:"status"` // lobby, active, completed, archived
	RoundDuration string       `json:"round_duration"`
	CreatedAt     time.Time    `json:"created_at"`
	StartedAt     *time.Time   `json:"started_at,omitempty"`
	FinishedAt    *time.Time   `json:"finished_at,omitempty"`
	Players       []GamePlayer `json:"players,omitempty"`
	ReadyCount    int          `json:"ready_count,omitempty"`
	DrawVoteCount int          `json:"draw_vote_count,omitempty"`
}

// GamePlayer represents a user's membership in a game under a nickname.
type GamePlayer struct {
	GameID   string    `json:"game_id"`
	UserID   string    `json:"user_id"`
	Nickname string    `json:"nickname"`
	Alliance string    `json:"alliance,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}

// Round persists one round's before/after state snapshots, mirroring the
// engine's own round counter.
type Round struct {
	ID          string          `json:"id"`
	GameID      string          `json:"game_id"`
	RoundNumber int             `json:"round_number"`
	StateBefore json.RawMessage `json:"state_before"`
	StateAfter  json.RawMessage `json:"state_after,omitempty"`
	Deadline    time.Time       `json:"deadline"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Order represents a wire-shape order submitted by a player for a round,
// ready for conversion to toaster.Order at the service boundary.
type Order struct {
	ID          string    `json:"id"`
	RoundID     string    `json:"round_id"`
	Nickname    string    `json:"nickname"`
	KnightName  string    `json:"knight_name"`
	OrderNumber int       `json:"order_number"`
	ActionType  string    `json:"action_type"`
	FromHexID   int       `json:"from_hex_id"`
	ToHexID     int       `json:"to_hex_id"`
	TroopCount  int       `json:"troop_count,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Event is the persisted, host-facing shape of a toaster.Event.
type Event struct {
	ID        string          `json:"id"`
	GameID    string          `json:"game_id"`
	Round     int             `json:"round"`
	LogIndex  int             `json:"log_index"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// Message represents an in-game chat message.
type Message struct {
	ID          string    `json:"id"`
	GameID      string    `json:"game_id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id,omitempty"` // empty = public broadcast
	Content     string    `json:"content"`
	RoundID     string    `json:"round_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
