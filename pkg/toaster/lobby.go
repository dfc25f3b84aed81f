package toaster

import "sort"

// AddPlayer creates a new active player with the given nickname and
// alliance (alliance may be empty), places one knight for them on a
// randomly chosen free keep, and returns the resulting state. It is an
// error to add a nickname that already exists or to add a player once
// every keep already hosts a knight.
func AddPlayer(state *GameState, nickname, alliance string, rng RNG) (*GameState, error) {
	if _, exists := state.Players[nickname]; exists {
		return state, errPlayerExists
	}

	keep, ok := freeKeep(state, rng)
	if !ok {
		return state, errNoFreeKeep
	}

	next := state.Clone()

	knightName := nickname + "-knight"
	next.Knights[knightName] = &Knight{
		Name:               knightName,
		Owner:              nickname,
		Location:           keep,
		Alive:              true,
		ProjectedPositions: [3]int{keep, keep, keep},
	}

	next.Players[nickname] = &Player{
		Nickname: nickname,
		Alliance: alliance,
		Knights:  []string{knightName},
		Active:   true,
	}

	if alliance != "" {
		next.Alliances[alliance] = append(next.Alliances[alliance], nickname)
	}

	ensureHex(next, keep)
	if next.Hexes[keep].Owner == "" {
		next.Hexes[keep].Owner = nickname
	}

	return next, nil
}

func freeKeep(state *GameState, rng RNG) (int, bool) {
	var free []int
	for _, k := range KeepIndices {
		occupied := false
		for _, knight := range state.Knights {
			if knight.Alive && knight.Location == k {
				occupied = true
				break
			}
		}
		if !occupied {
			free = append(free, k)
		}
	}
	if len(free) == 0 {
		return 0, false
	}
	sort.Ints(free)
	return free[rng.Intn(len(free))], true
}

type lobbyError string

func (e lobbyError) Error() string { return string(e) }

const (
	errPlayerExists lobbyError = "toaster: player already exists"
	errNoFreeKeep   lobbyError = "toaster: no free keep available"
)
