package toaster

// RejectionCode is a typed reason an order was refused. The validator
// returns the first code whose check fails; check order is normative.
type RejectionCode string

const (
	CodeInvalidOrderNumber        RejectionCode = "INVALID_ORDER_NUMBER"
	CodePlayerNotFound            RejectionCode = "PLAYER_NOT_FOUND"
	CodeKnightNotFound            RejectionCode = "KNIGHT_NOT_FOUND"
	CodeKnightNotOwned            RejectionCode = "KNIGHT_NOT_OWNED"
	CodeKnightDead                RejectionCode = "KNIGHT_DEAD"
	CodeHexNotFound               RejectionCode = "HEX_NOT_FOUND"
	CodeFromMismatch              RejectionCode = "FROM_MISMATCH"
	CodeFortifyDestinationInvalid RejectionCode = "FORTIFY_DESTINATION_INVALID"
	CodePromoteDestinationInvalid RejectionCode = "PROMOTE_DESTINATION_INVALID"
	CodePromoteInsufficientTroops RejectionCode = "PROMOTE_INSUFFICIENT_TROOPS"
	CodeNotNeighbor               RejectionCode = "NOT_NEIGHBOR"
	CodeInvalidTroopCount         RejectionCode = "INVALID_TROOP_COUNT"
	CodeInsufficientTroops        RejectionCode = "INSUFFICIENT_TROOPS"
	CodeAttackTargetNotEnemy      RejectionCode = "ATTACK_TARGET_NOT_ENEMY"
)

// promoteTroopThreshold is the troop count a hex must hold, owned by the
// promoting player, before a Promote order is accepted.
const promoteTroopThreshold = 100

// fortifyTroopBonus is how many troops a Fortify order adds to its hex.
const fortifyTroopBonus = 200

// promoteTroopCost is how many troops a Promote order removes from its hex.
const promoteTroopCost = 100

// RejectionError wraps a RejectionCode so ValidateOrder can be used with
// ordinary Go error handling while callers that need the code can still
// recover it via errors.As or a direct type assertion.
type RejectionError struct {
	Code RejectionCode
}

func (e *RejectionError) Error() string {
	return string(e.Code)
}

func reject(code RejectionCode) (Order, error) {
	return Order{}, &RejectionError{Code: code}
}

// ValidateOrder runs the ordered check chain from the rules table against
// order and state, returning the accepted order unchanged or the first
// failing RejectionCode. It performs no mutation.
func ValidateOrder(order Order, state *GameState) (Order, error) {
	if order.OrderNumber < 1 || order.OrderNumber > 3 {
		return reject(CodeInvalidOrderNumber)
	}

	if _, ok := state.Players[order.OwnerNickname]; !ok {
		return reject(CodePlayerNotFound)
	}

	knight, ok := state.Knights[order.KnightName]
	if !ok {
		return reject(CodeKnightNotFound)
	}
	if knight.Owner != order.OwnerNickname {
		return reject(CodeKnightNotOwned)
	}
	if !knight.Alive {
		return reject(CodeKnightDead)
	}

	if _, ok := state.Board.HexAt(order.From); !ok {
		return reject(CodeHexNotFound)
	}
	if _, ok := state.Board.HexAt(order.To); !ok {
		return reject(CodeHexNotFound)
	}

	projected := knight.Location
	if order.OrderNumber > 1 {
		projected = knight.ProjectedPositions[order.OrderNumber-2]
	}
	if order.From != projected {
		return reject(CodeFromMismatch)
	}

	switch order.Type {
	case OrderFortify:
		if order.To != order.From {
			return reject(CodeFortifyDestinationInvalid)
		}
		return order, nil

	case OrderPromote:
		if order.To != order.From {
			return reject(CodePromoteDestinationInvalid)
		}
		if troopsOf(state, order.From, order.OwnerNickname) < promoteTroopThreshold {
			return reject(CodePromoteInsufficientTroops)
		}
		return order, nil

	case OrderMove, OrderAttack:
		if !state.Board.IsNeighbor(order.From, order.To) {
			return reject(CodeNotNeighbor)
		}
		if order.Troops <= 0 {
			return reject(CodeInvalidTroopCount)
		}
		if troopsOf(state, order.From, order.OwnerNickname) < order.Troops {
			return reject(CodeInsufficientTroops)
		}
		if order.Type == OrderAttack {
			dest := state.Hexes[order.To]
			if dest != nil && dest.Owner != "" && dest.Owner == order.OwnerNickname {
				return reject(CodeAttackTargetNotEnemy)
			}
		}
		return order, nil

	default:
		return reject(CodeHexNotFound)
	}
}

func troopsOf(state *GameState, hex int, nickname string) int {
	hs := state.Hexes[hex]
	if hs == nil || hs.Troops == nil {
		return 0
	}
	return hs.Troops[nickname]
}
