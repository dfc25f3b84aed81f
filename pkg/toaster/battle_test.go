package toaster

import "testing"

// TestResolveBattle_TieGoesToDefender is scenario S3: attackerTroops=1,
// defenderTroops=1, alliance sizes 1/1, rolls (3,3) -> tie -> attacker loses.
func TestResolveBattle_TieGoesToDefender(t *testing.T) {
	result := ResolveBattle(BattleInputs{
		AttackerNickname:     "alice",
		DefenderNickname:     "bob",
		AttackerTroops:       1,
		DefenderTroops:       1,
		AttackerAllianceSize: 1,
		DefenderAllianceSize: 1,
		AttackerKnights:      []string{"alice-knight"},
		DefenderKnights:      []string{"bob-knight"},
	}, ScriptedDieSource(3, 3))

	if len(result.Rounds) != 1 {
		t.Fatalf("expected 1 round, got %d", len(result.Rounds))
	}
	if result.Rounds[0].Loser != sideAttacker {
		t.Errorf("expected attacker to lose the tie, got %s", result.Rounds[0].Loser)
	}
	if result.AttackerTroopsRemaining != 0 {
		t.Errorf("expected attacker troops remaining 0, got %d", result.AttackerTroopsRemaining)
	}
	if result.Winner != "bob" {
		t.Errorf("expected defender bob to win, got %s", result.Winner)
	}
	if len(result.EliminatedKnights) != 1 || result.EliminatedKnights[0] != "alice-knight" {
		t.Errorf("expected alice-knight eliminated, got %v", result.EliminatedKnights)
	}
}

// TestResolveBattle_AllianceBonusDecides is scenario S4.
func TestResolveBattle_AllianceBonusDecides(t *testing.T) {
	result := ResolveBattle(BattleInputs{
		AttackerNickname:     "alice",
		DefenderNickname:     "bob",
		AttackerTroops:       1,
		DefenderTroops:       1,
		AttackerAllianceSize: 3,
		DefenderAllianceSize: 1,
		AttackerKnights:      []string{"alice-knight"},
		DefenderKnights:      []string{"bob-knight"},
	}, ScriptedDieSource(1, 2))

	if result.Winner != "alice" {
		t.Fatalf("expected attacker alice to win, got %s", result.Winner)
	}
	if len(result.Rounds) != 1 {
		t.Fatalf("expected 1 round, got %d", len(result.Rounds))
	}
	if result.Rounds[0].AttackerScore != 4 || result.Rounds[0].DefenderScore != 3 {
		t.Errorf("got scores attacker=%d defender=%d, want 4/3", result.Rounds[0].AttackerScore, result.Rounds[0].DefenderScore)
	}
	if len(result.EliminatedKnights) != 1 || result.EliminatedKnights[0] != "bob-knight" {
		t.Errorf("expected bob-knight eliminated, got %v", result.EliminatedKnights)
	}
}

// TestResolveBattle_FullWipeout is scenario S5.
func TestResolveBattle_FullWipeout(t *testing.T) {
	result := ResolveBattle(BattleInputs{
		AttackerNickname:     "alice",
		DefenderNickname:     "bob",
		AttackerTroops:       3,
		DefenderTroops:       2,
		AttackerAllianceSize: 2,
		DefenderAllianceSize: 1,
		DefenderKnights:      []string{"bob-knight-1", "bob-knight-2"},
	}, ScriptedDieSource(6, 1, 5, 1))

	if result.Winner != "alice" {
		t.Fatalf("expected attacker alice to win, got %s", result.Winner)
	}
	if result.DefenderTroopsRemaining != 0 {
		t.Errorf("expected defender troops remaining 0, got %d", result.DefenderTroopsRemaining)
	}
	if len(result.EliminatedKnights) != 2 {
		t.Errorf("expected both defender knights eliminated, got %v", result.EliminatedKnights)
	}
}

func TestResolveBattle_BothZeroTroops(t *testing.T) {
	result := ResolveBattle(BattleInputs{
		AttackerNickname: "alice",
		DefenderNickname: "bob",
	}, func() int { t.Fatal("die source should not be called"); return 0 })

	if result.Winner != "bob" {
		t.Errorf("expected trivial defender win, got %s", result.Winner)
	}
	if len(result.Rounds) != 0 {
		t.Errorf("expected no rounds, got %d", len(result.Rounds))
	}
}
