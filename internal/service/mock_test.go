package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/freeeve/secret-toaster/internal/model"
)

// mockGameRepo implements repository.GameRepository for testing.
type mockGameRepo struct {
	games   map[string]*model.Game
	players map[string][]model.GamePlayer
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{
		games:   make(map[string]*model.Game),
		players: make(map[string][]model.GamePlayer),
	}
}

func (m *mockGameRepo) Create(_ context.Context, name, creatorID, roundDuration string) (*model.Game, error) {
	g := &model.Game{
		ID:            fmt.Sprintf("game-%d", len(m.games)+1),
		Name:          name,
		CreatorID:     creatorID,
		Status:        "lobby",
		RoundDuration: roundDuration,
		CreatedAt:     time.Now(),
	}
	m.games[g.ID] = g
	return g, nil
}

func (m *mockGameRepo) FindByID(_ context.Context, id string) (*model.Game, error) {
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	cp.Players = m.players[id]
	return &cp, nil
}

func (m *mockGameRepo) ListOpen(_ context.Context) ([]model.Game, error) {
	var result []model.Game
	for _, g := range m.games {
		if g.Status == "lobby" {
			cp := *g
			cp.Players = m.players[g.ID]
			result = append(result, cp)
		}
	}
	return result, nil
}

func (m *mockGameRepo) ListByUser(_ context.Context, userID string) ([]model.Game, error) {
	seen := make(map[string]bool)
	var result []model.Game
	for gameID, players := range m.players {
		for _, p := range players {
			if p.UserID == userID && !seen[gameID] {
				if g, ok := m.games[gameID]; ok {
					cp := *g
					cp.Players = m.players[gameID]
					result = append(result, cp)
					seen[gameID] = true
				}
			}
		}
	}
	return result, nil
}

func (m *mockGameRepo) ListFinished(_ context.Context) ([]model.Game, error) {
	var result []model.Game
	for _, g := range m.games {
		if g.Status == "completed" || g.Status == "archived" {
			cp := *g
			cp.Players = m.players[g.ID]
			result = append(result, cp)
		}
	}
	return result, nil
}

func (m *mockGameRepo) JoinGame(_ context.Context, gameID, userID, nickname, alliance string) error {
	m.players[gameID] = append(m.players[gameID], model.GamePlayer{
		GameID:   gameID,
		UserID:   userID,
		Nickname: nickname,
		Alliance: alliance,
		JoinedAt: time.Now(),
	})
	return nil
}

func (m *mockGameRepo) ListPlayers(_ context.Context, gameID string) ([]model.GamePlayer, error) {
	return m.players[gameID], nil
}

func (m *mockGameRepo) PlayerCount(_ context.Context, gameID string) (int, error) {
	return len(m.players[gameID]), nil
}

func (m *mockGameRepo) SetAlliance(_ context.Context, gameID, userID, alliance string) error {
	players := m.players[gameID]
	for i, p := range players {
		if p.UserID == userID {
			players[i].Alliance = alliance
			return nil
		}
	}
	return fmt.Errorf("player not found")
}

func (m *mockGameRepo) Start(_ context.Context, gameID string) error {
	if g, ok := m.games[gameID]; ok {
		g.Status = "active"
		now := time.Now()
		g.StartedAt = &now
	}
	return nil
}

func (m *mockGameRepo) ListActive(_ context.Context) ([]model.Game, error) {
	var result []model.Game
	for _, g := range m.games {
		if g.Status == "active" {
			cp := *g
			cp.Players = m.players[g.ID]
			result = append(result, cp)
		}
	}
	return result, nil
}

func (m *mockGameRepo) SetStatus(_ context.Context, gameID, status string) error {
	if g, ok := m.games[gameID]; ok {
		g.Status = status
		if status == "completed" || status == "archived" {
			now := time.Now()
			g.FinishedAt = &now
		}
	}
	return nil
}

func (m *mockGameRepo) Delete(_ context.Context, gameID string) error {
	delete(m.games, gameID)
	delete(m.players, gameID)
	return nil
}

// mockUserRepo implements repository.UserRepository for testing.
type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (m *mockUserRepo) FindByProviderID(_ context.Context, provider, providerID string) (*model.User, error) {
	for _, u := range m.users {
		if u.Provider == provider && u.ProviderID == providerID {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Upsert(_ context.Context, provider, providerID, nickname, avatarURL string) (*model.User, error) {
	for _, u := range m.users {
		if u.Provider == provider && u.ProviderID == providerID {
			u.Nickname = nickname
			return u, nil
		}
	}
	m.seq++
	u := &model.User{
		ID:         fmt.Sprintf("user-%d", m.seq),
		Provider:   provider,
		ProviderID: providerID,
		Nickname:   nickname,
		AvatarURL:  avatarURL,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserRepo) UpdateNickname(_ context.Context, id, nickname string) error {
	if u, ok := m.users[id]; ok {
		u.Nickname = nickname
	}
	return nil
}

// mockRoundRepo implements repository.RoundRepository for testing.
type mockRoundRepo struct {
	rounds map[string]*model.Round
	orders map[string][]model.Order
	events map[string][]model.Event
	seq    int
}

func newMockRoundRepo() *mockRoundRepo {
	return &mockRoundRepo{
		rounds: make(map[string]*model.Round),
		orders: make(map[string][]model.Order),
		events: make(map[string][]model.Event),
	}
}

func (m *mockRoundRepo) CreateRound(_ context.Context, gameID string, roundNumber int, stateBefore json.RawMessage, deadline time.Time) (*model.Round, error) {
	m.seq++
	r := &model.Round{
		ID:          fmt.Sprintf("round-%d", m.seq),
		GameID:      gameID,
		RoundNumber: roundNumber,
		StateBefore: stateBefore,
		Deadline:    deadline,
		CreatedAt:   time.Now(),
	}
	m.rounds[r.ID] = r
	return r, nil
}

func (m *mockRoundRepo) CurrentRound(_ context.Context, gameID string) (*model.Round, error) {
	for _, r := range m.rounds {
		if r.GameID == gameID && r.ResolvedAt == nil {
			return r, nil
		}
	}
	return nil, nil
}

func (m *mockRoundRepo) ListRounds(_ context.Context, gameID string) ([]model.Round, error) {
	var result []model.Round
	for _, r := range m.rounds {
		if r.GameID == gameID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockRoundRepo) ResolveRound(_ context.Context, roundID string, stateAfter json.RawMessage) error {
	if r, ok := m.rounds[roundID]; ok {
		r.StateAfter = stateAfter
		now := time.Now()
		r.ResolvedAt = &now
	}
	return nil
}

func (m *mockRoundRepo) SaveOrders(_ context.Context, orders []model.Order) error {
	for _, o := range orders {
		m.orders[o.RoundID] = append(m.orders[o.RoundID], o)
	}
	return nil
}

func (m *mockRoundRepo) OrdersByRound(_ context.Context, roundID string) ([]model.Order, error) {
	return m.orders[roundID], nil
}

func (m *mockRoundRepo) ListExpired(_ context.Context) ([]model.Round, error) {
	var result []model.Round
	now := time.Now()
	for _, r := range m.rounds {
		if r.ResolvedAt == nil && now.After(r.Deadline) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockRoundRepo) SaveEvents(_ context.Context, events []model.Event) error {
	for _, ev := range events {
		m.events[ev.GameID] = append(m.events[ev.GameID], ev)
	}
	return nil
}

func (m *mockRoundRepo) EventsByGame(_ context.Context, gameID string) ([]model.Event, error) {
	return m.events[gameID], nil
}

// mockCache implements repository.GameCache for testing.
type mockCache struct {
	states    map[string]json.RawMessage
	orders    map[string]json.RawMessage // key: "gameID:nickname"
	ready     map[string]map[string]bool // gameID -> set of nicknames
	timers    map[string]time.Time
	drawVotes map[string]map[string]bool // gameID -> set of nicknames
}

func newMockCache() *mockCache {
	return &mockCache{
		states:    make(map[string]json.RawMessage),
		orders:    make(map[string]json.RawMessage),
		ready:     make(map[string]map[string]bool),
		timers:    make(map[string]time.Time),
		drawVotes: make(map[string]map[string]bool),
	}
}

func (c *mockCache) SetGameState(_ context.Context, gameID string, state json.RawMessage) error {
	c.states[gameID] = state
	return nil
}

func (c *mockCache) GetGameState(_ context.Context, gameID string) (json.RawMessage, error) {
	return c.states[gameID], nil
}

func (c *mockCache) SetOrders(_ context.Context, gameID, nickname string, orders json.RawMessage) error {
	c.orders[gameID+":"+nickname] = orders
	return nil
}

func (c *mockCache) GetOrders(_ context.Context, gameID, nickname string) (json.RawMessage, error) {
	return c.orders[gameID+":"+nickname], nil
}

func (c *mockCache) GetAllOrders(_ context.Context, gameID string, nicknames []string) (map[string]json.RawMessage, error) {
	result := make(map[string]json.RawMessage)
	for _, nickname := range nicknames {
		if data, ok := c.orders[gameID+":"+nickname]; ok {
			result[nickname] = data
		}
	}
	return result, nil
}

func (c *mockCache) MarkReady(_ context.Context, gameID, nickname string) error {
	if c.ready[gameID] == nil {
		c.ready[gameID] = make(map[string]bool)
	}
	c.ready[gameID][nickname] = true
	return nil
}

func (c *mockCache) UnmarkReady(_ context.Context, gameID, nickname string) error {
	if c.ready[gameID] != nil {
		delete(c.ready[gameID], nickname)
	}
	return nil
}

func (c *mockCache) ReadyCount(_ context.Context, gameID string) (int64, error) {
	return int64(len(c.ready[gameID])), nil
}

func (c *mockCache) ReadyNicknames(_ context.Context, gameID string) ([]string, error) {
	var result []string
	for nickname := range c.ready[gameID] {
		result = append(result, nickname)
	}
	return result, nil
}

func (c *mockCache) SetTimer(_ context.Context, gameID string, deadline time.Time) error {
	c.timers[gameID] = deadline
	return nil
}

func (c *mockCache) ClearTimer(_ context.Context, gameID string) error {
	delete(c.timers, gameID)
	return nil
}

func (c *mockCache) AddDrawVote(_ context.Context, gameID, nickname string) error {
	if c.drawVotes[gameID] == nil {
		c.drawVotes[gameID] = make(map[string]bool)
	}
	c.drawVotes[gameID][nickname] = true
	return nil
}

func (c *mockCache) RemoveDrawVote(_ context.Context, gameID, nickname string) error {
	if c.drawVotes[gameID] != nil {
		delete(c.drawVotes[gameID], nickname)
	}
	return nil
}

func (c *mockCache) DrawVoteCount(_ context.Context, gameID string) (int64, error) {
	return int64(len(c.drawVotes[gameID])), nil
}

func (c *mockCache) DrawVoteNicknames(_ context.Context, gameID string) ([]string, error) {
	var result []string
	for nickname := range c.drawVotes[gameID] {
		result = append(result, nickname)
	}
	return result, nil
}

func (c *mockCache) ClearRoundData(_ context.Context, gameID string, nicknames []string) error {
	delete(c.ready, gameID)
	delete(c.timers, gameID)
	for _, nickname := range nicknames {
		delete(c.orders, gameID+":"+nickname)
	}
	return nil
}

func (c *mockCache) DeleteGameData(_ context.Context, gameID string, nicknames []string) error {
	delete(c.states, gameID)
	delete(c.ready, gameID)
	delete(c.timers, gameID)
	delete(c.drawVotes, gameID)
	for _, nickname := range nicknames {
		delete(c.orders, gameID+":"+nickname)
	}
	return nil
}
