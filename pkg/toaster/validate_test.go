package toaster

import (
	"errors"
	"testing"
)

// newTestState builds a board with two players, Alice and Bob, each with
// one knight on a keep, and some troops pre-placed for validator tests.
func newTestState(t *testing.T) *GameState {
	t.Helper()
	state := NewGameState()
	state.Status = StatusActive

	state.Players["alice"] = &Player{Nickname: "alice", Active: true}
	state.Players["bob"] = &Player{Nickname: "bob", Active: true}

	state.Knights["alice-knight"] = &Knight{
		Name: "alice-knight", Owner: "alice", Location: 23, Alive: true,
		ProjectedPositions: [3]int{23, 23, 23},
	}
	state.Players["alice"].Knights = []string{"alice-knight"}

	state.Knights["bob-knight"] = &Knight{
		Name: "bob-knight", Owner: "bob", Location: 26, Alive: true,
		ProjectedPositions: [3]int{26, 26, 26},
	}
	state.Players["bob"].Knights = []string{"bob-knight"}

	state.Hexes[23] = &HexState{Owner: "alice", Troops: map[string]int{"alice": 150}}
	state.Hexes[26] = &HexState{Owner: "bob", Troops: map[string]int{"bob": 150}}

	return state
}

func rejectionCode(t *testing.T, err error) RejectionCode {
	t.Helper()
	var re *RejectionError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RejectionError, got %T: %v", err, err)
	}
	return re.Code
}

func TestValidateOrder_InvalidOrderNumber(t *testing.T) {
	state := newTestState(t)
	order := Order{OrderNumber: 4, KnightName: "alice-knight", OwnerNickname: "alice", Type: OrderMove, From: 23, To: 22, Troops: 1}
	_, err := ValidateOrder(order, state)
	if code := rejectionCode(t, err); code != CodeInvalidOrderNumber {
		t.Errorf("got %s, want %s", code, CodeInvalidOrderNumber)
	}
}

func TestValidateOrder_NotNeighbor(t *testing.T) {
	state := newTestState(t)
	order := Order{OrderNumber: 1, KnightName: "alice-knight", OwnerNickname: "alice", Type: OrderMove, From: 23, To: 55, Troops: 1}
	_, err := ValidateOrder(order, state)
	if code := rejectionCode(t, err); code != CodeNotNeighbor {
		t.Errorf("got %s, want %s", code, CodeNotNeighbor)
	}
}

func TestValidateOrder_FortifyDestinationInvalid(t *testing.T) {
	state := newTestState(t)
	order := Order{OrderNumber: 1, KnightName: "alice-knight", OwnerNickname: "alice", Type: OrderFortify, From: 23, To: 22}
	_, err := ValidateOrder(order, state)
	if code := rejectionCode(t, err); code != CodeFortifyDestinationInvalid {
		t.Errorf("got %s, want %s", code, CodeFortifyDestinationInvalid)
	}
}

func TestValidateOrder_PromoteInsufficientTroops(t *testing.T) {
	state := newTestState(t)
	state.Hexes[23].Troops["alice"] = 99
	order := Order{OrderNumber: 1, KnightName: "alice-knight", OwnerNickname: "alice", Type: OrderPromote, From: 23, To: 23}
	_, err := ValidateOrder(order, state)
	if code := rejectionCode(t, err); code != CodePromoteInsufficientTroops {
		t.Errorf("got %s, want %s", code, CodePromoteInsufficientTroops)
	}
}

func TestValidateOrder_AttackTargetNotEnemy(t *testing.T) {
	state := newTestState(t)
	board := state.Board
	var neighbor int
	for _, n := range board.Hexes[23].Neighbors {
		if n != NoNeighbor {
			neighbor = n
			break
		}
	}
	state.Hexes[neighbor] = &HexState{Owner: "alice", Troops: map[string]int{"alice": 10}}
	order := Order{OrderNumber: 1, KnightName: "alice-knight", OwnerNickname: "alice", Type: OrderAttack, From: 23, To: neighbor, Troops: 1}
	_, err := ValidateOrder(order, state)
	if code := rejectionCode(t, err); code != CodeAttackTargetNotEnemy {
		t.Errorf("got %s, want %s", code, CodeAttackTargetNotEnemy)
	}
}

func TestValidateOrder_FromMismatch(t *testing.T) {
	state := newTestState(t)
	order := Order{OrderNumber: 1, KnightName: "alice-knight", OwnerNickname: "alice", Type: OrderMove, From: 22, To: 23, Troops: 1}
	_, err := ValidateOrder(order, state)
	if code := rejectionCode(t, err); code != CodeFromMismatch {
		t.Errorf("got %s, want %s", code, CodeFromMismatch)
	}
}

func TestValidateOrder_KnightDead(t *testing.T) {
	state := newTestState(t)
	state.Knights["alice-knight"].Alive = false
	var neighbor int
	for _, n := range state.Board.Hexes[23].Neighbors {
		if n != NoNeighbor {
			neighbor = n
			break
		}
	}
	order := Order{OrderNumber: 1, KnightName: "alice-knight", OwnerNickname: "alice", Type: OrderMove, From: 23, To: neighbor, Troops: 1}
	_, err := ValidateOrder(order, state)
	if code := rejectionCode(t, err); code != CodeKnightDead {
		t.Errorf("got %s, want %s", code, CodeKnightDead)
	}
}

func TestValidateOrder_KnightNotOwned(t *testing.T) {
	state := newTestState(t)
	order := Order{OrderNumber: 1, KnightName: "bob-knight", OwnerNickname: "alice", Type: OrderFortify, From: 26, To: 26}
	_, err := ValidateOrder(order, state)
	if code := rejectionCode(t, err); code != CodeKnightNotOwned {
		t.Errorf("got %s, want %s", code, CodeKnightNotOwned)
	}
}

func TestValidateOrder_InsufficientTroops(t *testing.T) {
	state := newTestState(t)
	var neighbor int
	for _, n := range state.Board.Hexes[23].Neighbors {
		if n != NoNeighbor {
			neighbor = n
			break
		}
	}
	order := Order{OrderNumber: 1, KnightName: "alice-knight", OwnerNickname: "alice", Type: OrderMove, From: 23, To: neighbor, Troops: 9999}
	_, err := ValidateOrder(order, state)
	if code := rejectionCode(t, err); code != CodeInsufficientTroops {
		t.Errorf("got %s, want %s", code, CodeInsufficientTroops)
	}
}

func TestValidateOrder_Accepts(t *testing.T) {
	state := newTestState(t)
	var neighbor int
	for _, n := range state.Board.Hexes[23].Neighbors {
		if n != NoNeighbor {
			neighbor = n
			break
		}
	}
	order := Order{OrderNumber: 1, KnightName: "alice-knight", OwnerNickname: "alice", Type: OrderMove, From: 23, To: neighbor, Troops: 10}
	accepted, err := ValidateOrder(order, state)
	if err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	if accepted != order {
		t.Errorf("expected order echoed back unchanged, got %+v", accepted)
	}
}

func TestSubmitOrder_OverwriteSemantics(t *testing.T) {
	state := newTestState(t)
	var n1 int
	for _, n := range state.Board.Hexes[23].Neighbors {
		if n != NoNeighbor {
			n1 = n
			break
		}
	}

	state, err := SubmitOrder(state, Order{OrderNumber: 1, KnightName: "alice-knight", OwnerNickname: "alice", Type: OrderMove, From: 23, To: n1, Troops: 1})
	if err != nil {
		t.Fatalf("slot 1 submit failed: %v", err)
	}
	state, err = SubmitOrder(state, Order{OrderNumber: 2, KnightName: "alice-knight", OwnerNickname: "alice", Type: OrderFortify, From: n1, To: n1})
	if err != nil {
		t.Fatalf("slot 2 submit failed: %v", err)
	}
	state, err = SubmitOrder(state, Order{OrderNumber: 3, KnightName: "alice-knight", OwnerNickname: "alice", Type: OrderFortify, From: n1, To: n1})
	if err != nil {
		t.Fatalf("slot 3 submit failed: %v", err)
	}

	alice := state.Players["alice"]
	if alice.OrderCount() != 3 {
		t.Fatalf("expected 3 queued orders, got %d", alice.OrderCount())
	}

	// Re-setting slot 1 should clear slots 2 and 3.
	state, err = SubmitOrder(state, Order{OrderNumber: 1, KnightName: "alice-knight", OwnerNickname: "alice", Type: OrderMove, From: 23, To: n1, Troops: 1})
	if err != nil {
		t.Fatalf("re-submit slot 1 failed: %v", err)
	}
	alice = state.Players["alice"]
	if alice.OrderCount() != 1 {
		t.Fatalf("expected overwrite to clear slots > 1, got %d orders", alice.OrderCount())
	}
	if alice.Orders[1] != nil || alice.Orders[2] != nil {
		t.Error("slots 2 and 3 should be nil after re-setting slot 1")
	}
}

func TestSubmitOrder_QueueBound(t *testing.T) {
	state := newTestState(t)
	for i := 1; i <= 3; i++ {
		var err error
		state, err = SubmitOrder(state, Order{OrderNumber: i, KnightName: "alice-knight", OwnerNickname: "alice", Type: OrderFortify, From: 23, To: 23})
		if err != nil {
			t.Fatalf("slot %d submit failed: %v", i, err)
		}
	}
	alice := state.Players["alice"]
	if alice.OrderCount() > 3 {
		t.Fatalf("queue exceeded bound: %d", alice.OrderCount())
	}
	seen := map[int]bool{}
	for _, o := range alice.Orders {
		if o == nil {
			continue
		}
		if seen[o.OrderNumber] {
			t.Fatalf("duplicate order_number %d in queue", o.OrderNumber)
		}
		seen[o.OrderNumber] = true
	}
}
