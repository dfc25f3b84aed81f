package toaster

// DieSource produces a uniform integer in [1,6]. Production code derives it
// from the Executor's seeded RNG stream; tests script an exact sequence.
// The source must not leak state between unrelated battles.
type DieSource func() int

const (
	sideAttacker = "attacker"
	sideDefender = "defender"
)

// BattleInputs describes one contested hex at the moment combat begins.
type BattleInputs struct {
	Hex                 int
	AttackerNickname    string
	DefenderNickname    string
	AttackerTroops      int
	DefenderTroops      int
	AttackerAllianceSize int
	DefenderAllianceSize int
	AttackerKnights     []string
	DefenderKnights     []string
}

// BattleResult is the outcome of resolving a battle to completion: one side
// reaches zero troops on the hex.
type BattleResult struct {
	Winner                string // AttackerNickname or DefenderNickname
	AttackerTroopsRemaining int
	DefenderTroopsRemaining int
	EliminatedKnights     []string
	Rounds                []BattleRound
}

// ResolveBattle runs the combat loop from the rules table until one side's
// troop count on the hex reaches zero: both sides roll, add their alliance
// bonus, and the loser (ties go to the defender) loses one troop. It never
// errors — a battle with 0 troops on both sides trivially resolves to a
// defender win with no rounds.
func ResolveBattle(in BattleInputs, roll DieSource) BattleResult {
	attackerTroops := in.AttackerTroops
	defenderTroops := in.DefenderTroops

	var rounds []BattleRound

	for attackerTroops > 0 && defenderTroops > 0 {
		attackerRoll := roll()
		defenderRoll := roll()

		attackerScore := attackerRoll + in.AttackerAllianceSize
		defenderScore := defenderRoll + in.DefenderAllianceSize

		loser := sideAttacker
		if defenderScore < attackerScore {
			loser = sideDefender
		}

		if loser == sideAttacker {
			attackerTroops--
		} else {
			defenderTroops--
		}

		rounds = append(rounds, BattleRound{
			AttackerRoll:        attackerRoll,
			DefenderRoll:        defenderRoll,
			AttackerScore:       attackerScore,
			DefenderScore:       defenderScore,
			Loser:               loser,
			AttackerTroopsAfter: attackerTroops,
			DefenderTroopsAfter: defenderTroops,
		})
	}

	result := BattleResult{
		AttackerTroopsRemaining: attackerTroops,
		DefenderTroopsRemaining: defenderTroops,
		Rounds:                  rounds,
	}

	if attackerTroops > 0 {
		result.Winner = in.AttackerNickname
		result.EliminatedKnights = append(result.EliminatedKnights, in.DefenderKnights...)
	} else {
		result.Winner = in.DefenderNickname
		result.EliminatedKnights = append(result.EliminatedKnights, in.AttackerKnights...)
	}

	return result
}
