package toaster

import "testing"

func TestBuildBoard_Dimensions(t *testing.T) {
	b := BuildBoard()
	if len(b.Hexes) != BoardSize {
		t.Fatalf("expected %d hexes, got %d", BoardSize, len(b.Hexes))
	}

	keeps := 0
	for _, h := range b.Hexes {
		if h.Type == HexKeep {
			keeps++
		}
	}
	if keeps != len(KeepIndices) {
		t.Errorf("expected %d keeps, got %d", len(KeepIndices), keeps)
	}

	for _, k := range KeepIndices {
		if b.Hexes[k].Type != HexKeep {
			t.Errorf("hex %d: expected keep, got %s", k, b.Hexes[k].Type)
		}
	}

	if b.Hexes[CastleIndex].Type != HexCastle {
		t.Errorf("hex %d: expected castle, got %s", CastleIndex, b.Hexes[CastleIndex].Type)
	}

	for _, o := range LandOverrides {
		got := b.Hexes[o].Type
		if got != HexLand && got != HexKeep && got != HexCastle {
			t.Errorf("hex %d: expected land override to hold, got %s", o, got)
		}
	}
}

func TestBuildBoard_NeighborSymmetry(t *testing.T) {
	b := BuildBoard()
	for _, hex := range b.Hexes {
		for _, n := range hex.Neighbors {
			if n == NoNeighbor {
				continue
			}
			if !b.IsNeighbor(n, hex.Index) {
				t.Errorf("hex %d lists %d as neighbor, but %d does not list %d back", hex.Index, n, n, hex.Index)
			}
		}
	}
}

func TestBuildBoard_Deterministic(t *testing.T) {
	a := BuildBoard()
	b := BuildBoard()
	if *a != *b {
		t.Error("BuildBoard should be referentially transparent")
	}
}

func TestHexIndexFormula(t *testing.T) {
	idx, ok := hexIndex(3, 2)
	if !ok || idx != 3+10*2 {
		t.Errorf("hexIndex(3,2) = %d, %v; want %d, true", idx, ok, 3+10*2)
	}
}

func TestBuildBoard_EdgesHaveAbsentNeighbors(t *testing.T) {
	b := BuildBoard()
	// Hex (0,0) -> index 0, even row: offsets (1,-1)(1,0)(1,1)(0,1)(-1,0)(0,-1)
	// only (1,0) and (0,1) and (1,1) land in bounds.
	hex0 := b.Hexes[0]
	absent := 0
	for _, n := range hex0.Neighbors {
		if n == NoNeighbor {
			absent++
		}
	}
	if absent == 0 {
		t.Error("corner hex 0 should have at least one absent neighbor")
	}
}
