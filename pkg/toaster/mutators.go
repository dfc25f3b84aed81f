package toaster

// applyMove moves k troops from order.From to order.To for the order's
// owner. The mover takes ownership of the destination only when it is
// unowned or the mover is left as its sole occupant; an owned hex that
// still holds the owner's troops keeps its owner.
func applyMove(state *GameState, order Order) []Event {
	ensureHex(state, order.From)
	ensureHex(state, order.To)

	from := state.Hexes[order.From]
	to := state.Hexes[order.To]

	from.Troops[order.OwnerNickname] -= order.Troops
	to.Troops[order.OwnerNickname] += order.Troops

	var events []Event
	if to.Owner == "" || to.SoleOccupant(order.OwnerNickname) {
		if to.Owner != order.OwnerNickname {
			prevOwner := to.Owner
			to.Owner = order.OwnerNickname
			events = append(events, Event{
				Round: state.Round,
				Type:  EventHexCaptured,
				HexCaptured: &HexCapturedData{
					Hex:       order.To,
					FromOwner: prevOwner,
					ToOwner:   order.OwnerNickname,
				},
			})
		}
	}

	if knight, ok := state.Knights[order.KnightName]; ok {
		knight.Location = order.To
	}

	return events
}

// applyAttack runs the Battle Resolver against the defending stack on
// order.To (when there is one) and applies the result: remaining troops,
// new owner, and eliminated knights.
func applyAttack(state *GameState, order Order, roll DieSource) []Event {
	ensureHex(state, order.From)
	ensureHex(state, order.To)

	from := state.Hexes[order.From]
	to := state.Hexes[order.To]

	from.Troops[order.OwnerNickname] -= order.Troops

	defenderNickname := to.Owner
	defenderTroops := 0
	if defenderNickname != "" {
		defenderTroops = to.Troops[defenderNickname]
	}

	var events []Event

	if defenderNickname == "" || defenderNickname == order.OwnerNickname || defenderTroops == 0 {
		// Nothing to fight: an unopposed or already-friendly hex simply
		// receives the attacking troops, same as a Move.
		to.Troops[order.OwnerNickname] += order.Troops
		if to.Owner == "" {
			prevOwner := to.Owner
			to.Owner = order.OwnerNickname
			events = append(events, Event{
				Round: state.Round,
				Type:  EventHexCaptured,
				HexCaptured: &HexCapturedData{
					Hex:       order.To,
					FromOwner: prevOwner,
					ToOwner:   order.OwnerNickname,
				},
			})
		}
		if knight, ok := state.Knights[order.KnightName]; ok {
			knight.Location = order.To
		}
		return events
	}

	attackerAlliance := state.AllianceSize(playerAlliance(state, order.OwnerNickname))
	defenderAlliance := state.AllianceSize(playerAlliance(state, defenderNickname))

	attackerKnights := knightsOfOwnerOnHex(state, order.To, order.OwnerNickname)
	defenderKnights := knightsOfOwnerOnHex(state, order.To, defenderNickname)

	result := ResolveBattle(BattleInputs{
		Hex:                  order.To,
		AttackerNickname:     order.OwnerNickname,
		DefenderNickname:     defenderNickname,
		AttackerTroops:       order.Troops,
		DefenderTroops:       defenderTroops,
		AttackerAllianceSize: attackerAlliance,
		DefenderAllianceSize: defenderAlliance,
		AttackerKnights:      attackerKnights,
		DefenderKnights:      defenderKnights,
	}, roll)

	to.Troops[order.OwnerNickname] = result.AttackerTroopsRemaining
	to.Troops[defenderNickname] = result.DefenderTroopsRemaining

	prevOwner := to.Owner
	to.Owner = result.Winner

	events = append(events, Event{
		Round: state.Round,
		Type:  EventBattleFought,
		BattleFought: &BattleFoughtData{
			Hex:                 order.To,
			Attacker:            order.OwnerNickname,
			Defender:            defenderNickname,
			Winner:              result.Winner,
			AttackerTroopsStart: order.Troops,
			DefenderTroopsStart: defenderTroops,
			AttackerTroopsEnd:   result.AttackerTroopsRemaining,
			DefenderTroopsEnd:   result.DefenderTroopsRemaining,
			EliminatedKnights:   result.EliminatedKnights,
			Rounds:              result.Rounds,
		},
	})

	for _, name := range result.EliminatedKnights {
		if k, ok := state.Knights[name]; ok {
			k.Alive = false
		}
		events = append(events, Event{
			Round:            state.Round,
			Type:             EventKnightEliminated,
			KnightEliminated: &KnightEliminatedData{Name: name},
		})
	}

	if prevOwner != result.Winner {
		events = append(events, Event{
			Round: state.Round,
			Type:  EventHexCaptured,
			HexCaptured: &HexCapturedData{
				Hex:       order.To,
				FromOwner: prevOwner,
				ToOwner:   result.Winner,
			},
		})
	}

	if result.Winner == order.OwnerNickname {
		if knight, ok := state.Knights[order.KnightName]; ok {
			knight.Location = order.To
		}
	}

	return events
}

// applyFortify adds the fortify bonus to the acting player's troop count on
// hex, regardless of current ownership.
func applyFortify(state *GameState, order Order) []Event {
	ensureHex(state, order.From)
	state.Hexes[order.From].Troops[order.OwnerNickname] += fortifyTroopBonus
	return nil
}

// applyPromote spends the promotion cost and creates a new living knight
// for the acting player on hex.
func applyPromote(state *GameState, order Order, newKnightName string) []Event {
	ensureHex(state, order.From)
	hex := state.Hexes[order.From]
	hex.Troops[order.OwnerNickname] -= promoteTroopCost

	knight := &Knight{
		Name:               newKnightName,
		Owner:              order.OwnerNickname,
		Location:           order.From,
		Alive:              true,
		ProjectedPositions: [3]int{order.From, order.From, order.From},
	}
	state.Knights[newKnightName] = knight

	if player, ok := state.Players[order.OwnerNickname]; ok {
		player.Knights = append(player.Knights, newKnightName)
	}

	return nil
}

func ensureHex(state *GameState, index int) {
	if state.Hexes[index] == nil {
		state.Hexes[index] = &HexState{Troops: make(map[string]int)}
	}
	if state.Hexes[index].Troops == nil {
		state.Hexes[index].Troops = make(map[string]int)
	}
}

func playerAlliance(state *GameState, nickname string) string {
	if p, ok := state.Players[nickname]; ok {
		return p.Alliance
	}
	return ""
}

func knightsOfOwnerOnHex(state *GameState, hex int, owner string) []string {
	var names []string
	for name, k := range state.Knights {
		if k.Alive && k.Location == hex && k.Owner == owner {
			names = append(names, name)
		}
	}
	return names
}
