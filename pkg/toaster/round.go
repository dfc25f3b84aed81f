package toaster

import (
	"sort"
	"strconv"
)

// SubmitOrder validates order against state and, if accepted, returns a new
// state with the order installed in the owning player's queue (overwriting
// any existing orders at slots numbered higher than this one). On
// rejection it returns the original state's RejectionCode and leaves state
// untouched.
func SubmitOrder(state *GameState, order Order) (*GameState, error) {
	accepted, err := ValidateOrder(order, state)
	if err != nil {
		return state, err
	}

	next := state.Clone()
	player := next.Players[accepted.OwnerNickname]
	SetOrder(next, player, &accepted)
	return next, nil
}

// SetReady returns a new state with the named player's ready flag set.
func SetReady(state *GameState, nickname string, ready bool) *GameState {
	next := state.Clone()
	if p, ok := next.Players[nickname]; ok {
		p.Ready = ready
	}
	return next
}

// sortedPlayers lists every player in a stable (nickname-sorted) order,
// because the scheduling draw in ExecuteRound indexes into this same list
// and must do so deterministically regardless of Go's randomized map
// iteration order.
func sortedPlayers(state *GameState) []*Player {
	names := make([]string, 0, len(state.Players))
	for name := range state.Players {
		names = append(names, name)
	}
	sort.Strings(names)

	players := make([]*Player, 0, len(names))
	for _, name := range names {
		players = append(players, state.Players[name])
	}
	return players
}

func allActiveReady(players []*Player) bool {
	for _, p := range players {
		if p.Active && !p.Ready {
			return false
		}
	}
	return true
}

func anyOrdersQueued(players []*Player) bool {
	for _, p := range players {
		if p.OrderCount() > 0 {
			return true
		}
	}
	return false
}

func popLowestOrder(p *Player) *Order {
	for i, o := range p.Orders {
		if o != nil {
			p.Orders[i] = nil
			return o
		}
	}
	return nil
}

// ExecuteRound gates on every active player being ready. If the gate fails
// it returns the state unchanged, no events, and executed=false. Otherwise
// it deterministically interleaves every queued order across players using
// a seeded draw, dispatches each to its mutator, then advances the round
// counter. The same (state, seed) pair always yields the same events and
// resulting state.
func ExecuteRound(state *GameState, seed uint64) (*GameState, []Event, bool) {
	return executeRoundWithRNG(state, NewSeededRNG(seed))
}

// executeRoundWithRNG is ExecuteRound's implementation, parameterized over
// an RNG rather than a seed so tests can inject an exact scripted draw
// sequence (e.g. the literal float sequence in a worked scenario) instead
// of reverse-engineering a seed that happens to produce it.
func executeRoundWithRNG(state *GameState, rng RNG) (*GameState, []Event, bool) {
	players := sortedPlayers(state)
	if !allActiveReady(players) {
		return state, nil, false
	}

	next := state.Clone()
	nextPlayers := sortedPlayers(next)

	roll := dieFromRNG(rng)

	var events []Event

	for anyOrdersQueued(nextPlayers) {
		i := int(rng.Float64() * float64(len(nextPlayers)))
		if i >= len(nextPlayers) {
			i = len(nextPlayers) - 1
		}
		player := nextPlayers[i]

		order := popLowestOrder(player)
		if order == nil {
			continue
		}

		// SubmitOrder validates troop sufficiency against a snapshot taken
		// at submission time, not against what's actually left once earlier
		// orders in this same round have already spent it (e.g. two orders
		// from knights sharing a hex after a Promote). Re-check against the
		// live state right before dispatch and drop the order rather than
		// let a mutator push a troop count negative.
		if !sufficientTroopsForDispatch(next, order) {
			continue
		}

		events = append(events, Event{
			Round: next.Round,
			Type:  EventOrderIssued,
			OrderIssued: &OrderIssuedData{
				Player: player.Nickname,
				Order:  *order,
			},
		})

		var dispatched []Event
		switch order.Type {
		case OrderMove:
			dispatched = applyMove(next, *order)
		case OrderAttack:
			dispatched = applyAttack(next, *order, roll)
		case OrderFortify:
			dispatched = applyFortify(next, *order)
		case OrderPromote:
			dispatched = applyPromote(next, *order, newKnightName(next, player.Nickname))
		}
		events = append(events, dispatched...)
	}

	for _, p := range nextPlayers {
		p.Ready = false
		p.Orders = [3]*Order{}
	}
	for _, k := range next.Knights {
		k.ProjectedPositions = [3]int{k.Location, k.Location, k.Location}
	}

	fromRound := next.Round
	next.Round++
	events = append(events, Event{
		Round: next.Round,
		Type:  EventRoundAdvanced,
		RoundAdvanced: &RoundAdvancedData{
			FromRound: fromRound,
			ToRound:   next.Round,
		},
	})

	for idx := range events {
		events[idx].Index = next.EventLogIndex
		next.EventLogIndex++
	}

	return next, events, true
}

// sufficientTroopsForDispatch reports whether order.From still holds enough
// of the owner's troops to pay for order, checked against the live state at
// dispatch time rather than the snapshot ValidateOrder saw at submission.
// Fortify never spends troops, so it always passes.
func sufficientTroopsForDispatch(state *GameState, order *Order) bool {
	hex := state.Hexes[order.From]
	troops := 0
	if hex != nil {
		troops = hex.Troops[order.OwnerNickname]
	}

	switch order.Type {
	case OrderMove, OrderAttack:
		return troops >= order.Troops
	case OrderPromote:
		return troops >= promoteTroopCost
	default:
		return true
	}
}

// newKnightName derives a stable, deterministic name for a knight minted by
// a Promote order, scoped by owner and given the first unused numeric
// suffix so repeated promotions by the same player never collide.
func newKnightName(state *GameState, owner string) string {
	base := owner + "-knight"
	name := base
	suffix := 1
	for {
		if _, exists := state.Knights[name]; !exists {
			return name
		}
		suffix++
		name = base + "-" + strconv.Itoa(suffix)
	}
}
