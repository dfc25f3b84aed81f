//go:build integration

package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/freeeve/secret-toaster/internal/testutil"
)

var testRDB *goredis.Client

func setup(t *testing.T) *Client {
	t.Helper()
	if testRDB == nil {
		testRDB = testutil.SetupRedis(t)
	}
	testutil.CleanupRedis(t, testRDB)
	return &Client{rdb: testRDB}
}

func TestGameStateRoundTrip(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-1"

	state := json.RawMessage(`{"round":1,"hexes":[{"id":55,"owner":"alice"}]}`)

	if err := c.SetGameState(ctx, gameID, state); err != nil {
		t.Fatalf("set game state: %v", err)
	}

	got, err := c.GetGameState(ctx, gameID)
	if err != nil {
		t.Fatalf("get game state: %v", err)
	}
	if got == nil {
		t.Fatal("expected non-nil state")
	}

	var fetched map[string]any
	json.Unmarshal(got, &fetched)
	if fetched["round"].(float64) != 1 {
		t.Fatalf("state round-trip failed: %s", string(got))
	}
}

func TestGameStateNotFound(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	got, err := c.GetGameState(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("get missing state: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil for missing game state")
	}
}

func TestOrdersSetAndGet(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-2"

	aliceOrders := json.RawMessage(`[{"type":"move","from":23,"to":24}]`)
	bobOrders := json.RawMessage(`[{"type":"attack","from":26,"to":27}]`)

	c.SetOrders(ctx, gameID, "alice", aliceOrders)
	c.SetOrders(ctx, gameID, "bob", bobOrders)

	got, err := c.GetOrders(ctx, gameID, "alice")
	if err != nil {
		t.Fatalf("get orders: %v", err)
	}
	if string(got) != string(aliceOrders) {
		t.Fatalf("expected %s, got %s", aliceOrders, got)
	}

	missing, err := c.GetOrders(ctx, gameID, "carol")
	if err != nil {
		t.Fatalf("get missing orders: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for player with no orders")
	}
}

func TestGetAllOrders(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-3"

	c.SetOrders(ctx, gameID, "alice", json.RawMessage(`[{"type":"move"}]`))
	c.SetOrders(ctx, gameID, "bob", json.RawMessage(`[{"type":"fortify"}]`))

	nicknames := []string{"alice", "bob", "carol"}
	all, err := c.GetAllOrders(ctx, gameID, nicknames)
	if err != nil {
		t.Fatalf("get all orders: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 players with orders, got %d", len(all))
	}
	if _, ok := all["alice"]; !ok {
		t.Fatal("expected alice in results")
	}
	if _, ok := all["bob"]; !ok {
		t.Fatal("expected bob in results")
	}
	if _, ok := all["carol"]; ok {
		t.Fatal("did not expect carol in results")
	}
}

func TestReadySetOperations(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-4"

	count, _ := c.ReadyCount(ctx, gameID)
	if count != 0 {
		t.Fatalf("expected 0 ready, got %d", count)
	}

	c.MarkReady(ctx, gameID, "alice")
	c.MarkReady(ctx, gameID, "bob")

	count, _ = c.ReadyCount(ctx, gameID)
	if count != 2 {
		t.Fatalf("expected 2 ready, got %d", count)
	}

	nicknames, _ := c.ReadyNicknames(ctx, gameID)
	if len(nicknames) != 2 {
		t.Fatalf("expected 2 ready nicknames, got %d", len(nicknames))
	}

	c.MarkReady(ctx, gameID, "alice")
	count, _ = c.ReadyCount(ctx, gameID)
	if count != 2 {
		t.Fatalf("expected 2 ready after duplicate, got %d", count)
	}

	c.UnmarkReady(ctx, gameID, "alice")
	count, _ = c.ReadyCount(ctx, gameID)
	if count != 1 {
		t.Fatalf("expected 1 ready after unmark, got %d", count)
	}
}

func TestTimerWithTTL(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-5"

	deadline := time.Now().Add(10 * time.Second)
	if err := c.SetTimer(ctx, gameID, deadline); err != nil {
		t.Fatalf("set timer: %v", err)
	}

	ttl := testRDB.TTL(ctx, timerKey(gameID)).Val()
	if ttl <= 0 || ttl > 16*time.Second {
		t.Fatalf("expected TTL ~15s (10s + grace), got %v", ttl)
	}

	c.ClearTimer(ctx, gameID)
	exists := testRDB.Exists(ctx, timerKey(gameID)).Val()
	if exists != 0 {
		t.Fatal("expected timer key to be deleted")
	}
}

func TestTimerPastDeadline(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-5b"

	deadline := time.Now().Add(-5 * time.Second)
	if err := c.SetTimer(ctx, gameID, deadline); err != nil {
		t.Fatalf("set timer past deadline: %v", err)
	}

	ttl := testRDB.TTL(ctx, timerKey(gameID)).Val()
	if ttl <= 0 || ttl > 2*time.Second {
		t.Fatalf("expected TTL ~1s for past deadline, got %v", ttl)
	}
}

func TestDrawVoteOperations(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-5c"

	c.AddDrawVote(ctx, gameID, "alice")
	c.AddDrawVote(ctx, gameID, "bob")

	count, _ := c.DrawVoteCount(ctx, gameID)
	if count != 2 {
		t.Fatalf("expected 2 draw votes, got %d", count)
	}

	c.RemoveDrawVote(ctx, gameID, "alice")
	nicknames, _ := c.DrawVoteNicknames(ctx, gameID)
	if len(nicknames) != 1 || nicknames[0] != "bob" {
		t.Fatalf("expected only bob remaining, got %v", nicknames)
	}
}

func TestClearRoundData(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-6"
	nicknames := []string{"alice", "bob"}

	c.SetGameState(ctx, gameID, json.RawMessage(`{"round":1}`))
	c.SetOrders(ctx, gameID, "alice", json.RawMessage(`[]`))
	c.SetOrders(ctx, gameID, "bob", json.RawMessage(`[]`))
	c.MarkReady(ctx, gameID, "alice")
	c.SetTimer(ctx, gameID, time.Now().Add(10*time.Second))

	if err := c.ClearRoundData(ctx, gameID, nicknames); err != nil {
		t.Fatalf("clear round data: %v", err)
	}

	alice, _ := c.GetOrders(ctx, gameID, "alice")
	if alice != nil {
		t.Fatal("expected alice orders cleared")
	}
	count, _ := c.ReadyCount(ctx, gameID)
	if count != 0 {
		t.Fatal("expected ready cleared")
	}
	exists := testRDB.Exists(ctx, timerKey(gameID)).Val()
	if exists != 0 {
		t.Fatal("expected timer cleared")
	}

	state, _ := c.GetGameState(ctx, gameID)
	if state == nil {
		t.Fatal("expected game state to survive ClearRoundData")
	}
}

func TestDeleteGameData(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-7"
	nicknames := []string{"alice", "bob"}

	c.SetGameState(ctx, gameID, json.RawMessage(`{"round":1}`))
	c.SetOrders(ctx, gameID, "alice", json.RawMessage(`[]`))
	c.MarkReady(ctx, gameID, "alice")
	c.SetTimer(ctx, gameID, time.Now().Add(10*time.Second))

	if err := c.DeleteGameData(ctx, gameID, nicknames); err != nil {
		t.Fatalf("delete game data: %v", err)
	}

	state, _ := c.GetGameState(ctx, gameID)
	if state != nil {
		t.Fatal("expected game state deleted")
	}
	alice, _ := c.GetOrders(ctx, gameID, "alice")
	if alice != nil {
		t.Fatal("expected orders deleted")
	}
	count, _ := c.ReadyCount(ctx, gameID)
	if count != 0 {
		t.Fatal("expected ready deleted")
	}
}
