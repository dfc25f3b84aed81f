package toaster

// OrderType tags the four kinds of order a player can queue.
type OrderType int

const (
	OrderMove OrderType = iota
	OrderAttack
	OrderFortify
	OrderPromote
)

func (t OrderType) String() string {
	switch t {
	case OrderMove:
		return "move"
	case OrderAttack:
		return "attack"
	case OrderFortify:
		return "fortify"
	case OrderPromote:
		return "promote"
	default:
		return "unknown"
	}
}

// ParseOrderType maps a wire action_type string to an OrderType.
func ParseOrderType(s string) (OrderType, bool) {
	switch s {
	case "move":
		return OrderMove, true
	case "attack":
		return OrderAttack, true
	case "fortify":
		return OrderFortify, true
	case "promote":
		return OrderPromote, true
	default:
		return 0, false
	}
}

// Order is a single queued action. OrderNumber is 1..3; KnightName and
// OwnerNickname identify the actor; From/To are hex indices; Troops is only
// meaningful for Move and Attack.
type Order struct {
	OrderNumber   int
	KnightName    string
	OwnerNickname string
	Type          OrderType
	From          int
	To            int
	Troops        int
}

// ProjectPositions computes, for every knight owned by player, the hex it
// would occupy after order slots 1, 2, and 3 execute in numeric order. A
// slot with no order for that knight — because the slot is empty or holds
// another knight's order — inherits the prior slot's position. This is a
// pure function of the player's current location and queued orders; it is
// never itself a stored, independently-mutated field.
func ProjectPositions(state *GameState, player *Player) map[string][3]int {
	result := make(map[string][3]int, len(player.Knights))

	for _, knightName := range player.Knights {
		knight, ok := state.Knights[knightName]
		if !ok {
			continue
		}
		pos := knight.Location
		var projected [3]int
		for slot := 0; slot < 3; slot++ {
			order := player.Orders[slot]
			if order != nil && order.KnightName == knightName {
				pos = order.To
			}
			projected[slot] = pos
		}
		result[knightName] = projected
	}

	return result
}

// RefreshKnightProjections recomputes and stores ProjectedPositions on every
// knight owned by player, deriving it from the player's current order
// queue. Callers must invoke this after any change to a player's orders so
// the stored projection never drifts from its derivation.
func RefreshKnightProjections(state *GameState, player *Player) {
	for knightName, projected := range ProjectPositions(state, player) {
		if k, ok := state.Knights[knightName]; ok {
			k.ProjectedPositions = projected
		}
	}
}

// SetOrder installs order at its OrderNumber slot, discarding any existing
// orders at higher slot numbers (the overwrite rule: setting slot n removes
// slots > n), then refreshes projections for the owning player.
func SetOrder(state *GameState, player *Player, order *Order) {
	slot := order.OrderNumber - 1
	player.Orders[slot] = order
	for i := slot + 1; i < 3; i++ {
		player.Orders[i] = nil
	}
	RefreshKnightProjections(state, player)
}
