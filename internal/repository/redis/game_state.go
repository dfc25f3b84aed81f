package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key patterns for Redis game state.
func stateKey(gameID string) string             { return "game:" + gameID + ":state" }
func ordersKey(gameID, nickname string) string  { return "game:" + gameID + ":orders:" + nickname }
func readyKey(gameID string) string             { return "game:" + gameID + ":ready" }
func timerKey(gameID string) string             { return "game:" + gameID + ":timer" }
func drawVoteKey(gameID string) string          { return "game:" + gameID + ":draw_votes" }

// SetGameState stores the live game state JSON.
func (c *Client) SetGameState(ctx context.Context, gameID string, state json.RawMessage) error {
	return c.rdb.Set(ctx, stateKey(gameID), []byte(state), 0).Err()
}

// GetGameState retrieves the live game state JSON.
func (c *Client) GetGameState(ctx context.Context, gameID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, stateKey(gameID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game state: %w", err)
	}
	return json.RawMessage(data), nil
}

// SetOrders stores a player's queued orders for the current round.
func (c *Client) SetOrders(ctx context.Context, gameID, nickname string, orders json.RawMessage) error {
	return c.rdb.Set(ctx, ordersKey(gameID, nickname), []byte(orders), 0).Err()
}

// GetOrders retrieves a player's submitted orders.
func (c *Client) GetOrders(ctx context.Context, gameID, nickname string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, ordersKey(gameID, nickname)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get orders: %w", err)
	}
	return json.RawMessage(data), nil
}

// GetAllOrders retrieves orders from all players that have submitted.
func (c *Client) GetAllOrders(ctx context.Context, gameID string, nicknames []string) (map[string]json.RawMessage, error) {
	result := make(map[string]json.RawMessage)
	for _, nickname := range nicknames {
		data, err := c.GetOrders(ctx, gameID, nickname)
		if err != nil {
			return nil, err
		}
		if data != nil {
			result[nickname] = data
		}
	}
	return result, nil
}

// MarkReady adds a player to the ready set for the game.
func (c *Client) MarkReady(ctx context.Context, gameID, nickname string) error {
	return c.rdb.SAdd(ctx, readyKey(gameID), nickname).Err()
}

// UnmarkReady removes a player from the ready set.
func (c *Client) UnmarkReady(ctx context.Context, gameID, nickname string) error {
	return c.rdb.SRem(ctx, readyKey(gameID), nickname).Err()
}

// ReadyCount returns how many players have marked ready.
func (c *Client) ReadyCount(ctx context.Context, gameID string) (int64, error) {
	return c.rdb.SCard(ctx, readyKey(gameID)).Result()
}

// ReadyNicknames returns the set of players that have marked ready.
func (c *Client) ReadyNicknames(ctx context.Context, gameID string) ([]string, error) {
	return c.rdb.SMembers(ctx, readyKey(gameID)).Result()
}

// roundGracePeriod is the extra time after the displayed deadline before
// round resolution triggers, giving players a few seconds of leeway.
const roundGracePeriod = 5 * time.Second

// SetTimer creates a timer key with a TTL. When the key expires,
// Redis keyspace notifications trigger round resolution.
// The TTL includes a grace period so the key expires slightly after the displayed deadline.
func (c *Client) SetTimer(ctx context.Context, gameID string, deadline time.Time) error {
	ttl := time.Until(deadline) + roundGracePeriod
	if ttl <= 0 {
		ttl = time.Second
	}
	return c.rdb.Set(ctx, timerKey(gameID), deadline.Unix(), ttl).Err()
}

// ClearTimer removes the timer for a game.
func (c *Client) ClearTimer(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, timerKey(gameID)).Err()
}

// AddDrawVote adds a player to the draw vote set.
func (c *Client) AddDrawVote(ctx context.Context, gameID, nickname string) error {
	return c.rdb.SAdd(ctx, drawVoteKey(gameID), nickname).Err()
}

// RemoveDrawVote removes a player from the draw vote set.
func (c *Client) RemoveDrawVote(ctx context.Context, gameID, nickname string) error {
	return c.rdb.SRem(ctx, drawVoteKey(gameID), nickname).Err()
}

// DrawVoteCount returns how many players have voted for a draw.
func (c *Client) DrawVoteCount(ctx context.Context, gameID string) (int64, error) {
	return c.rdb.SCard(ctx, drawVoteKey(gameID)).Result()
}

// DrawVoteNicknames returns the set of players that have voted for a draw.
func (c *Client) DrawVoteNicknames(ctx context.Context, gameID string) ([]string, error) {
	return c.rdb.SMembers(ctx, drawVoteKey(gameID)).Result()
}

// ClearRoundData removes all orders, ready status, and timer for a game.
// Called after round resolution to prepare for the next round.
func (c *Client) ClearRoundData(ctx context.Context, gameID string, nicknames []string) error {
	keys := []string{readyKey(gameID), timerKey(gameID), drawVoteKey(gameID)}
	for _, nickname := range nicknames {
		keys = append(keys, ordersKey(gameID, nickname))
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// DeleteGameData removes all Redis data for a game (on game end).
func (c *Client) DeleteGameData(ctx context.Context, gameID string, nicknames []string) error {
	keys := []string{stateKey(gameID), readyKey(gameID), timerKey(gameID), drawVoteKey(gameID)}
	for _, nickname := range nicknames {
		keys = append(keys, ordersKey(gameID, nickname))
	}
	return c.rdb.Del(ctx, keys...).Err()
}
