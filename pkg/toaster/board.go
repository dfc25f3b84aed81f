// Package toaster implements the rules core for Secret Toaster: board
// topology, order validation, battle resolution, and round execution over a
// value-typed game state. The package has no side effects and no
// dependencies outside the standard library — callers own persistence,
// transport, and presentation.
package toaster

// Board dimensions. Hex index = x + BoardWidth*y.
const (
	BoardWidth  = 10
	BoardHeight = 11
	BoardSize   = BoardWidth * BoardHeight
)

// CastleIndex is the single special objective hex.
const CastleIndex = 55

// KeepIndices are the six fixed home hexes where players are placed.
var KeepIndices = [6]int{23, 26, 52, 58, 83, 86}

// LandOverrides are hexes forced to HexLand regardless of the keep/castle
// neighbor promotion pass, unless already KEEP or CASTLE.
var LandOverrides = [6]int{35, 46, 75, 63, 43, 66}

// HexType classifies a hex's fixed terrain kind.
type HexType int

const (
	HexBlank HexType = iota
	HexLand
	HexKeep
	HexCastle
)

func (t HexType) String() string {
	switch t {
	case HexBlank:
		return "blank"
	case HexLand:
		return "land"
	case HexKeep:
		return "keep"
	case HexCastle:
		return "castle"
	default:
		return "unknown"
	}
}

// NoNeighbor marks an absent neighbor slot (board edge).
const NoNeighbor = -1

// Hex is one immutable grid cell. Neighbors holds up to six adjacent hex
// indices in a fixed directional order; NoNeighbor marks an edge.
type Hex struct {
	Index     int
	Type      HexType
	Neighbors [6]int
}

// Board is the fixed 110-hex grid. It is built once and never mutated.
type Board struct {
	Hexes [BoardSize]Hex
}

// HexAt returns the hex at index, or false if index is out of range.
func (b *Board) HexAt(index int) (Hex, bool) {
	if index < 0 || index >= BoardSize {
		return Hex{}, false
	}
	return b.Hexes[index], true
}

// IsNeighbor reports whether to is adjacent to from on the board.
func (b *Board) IsNeighbor(from, to int) bool {
	hex, ok := b.HexAt(from)
	if !ok {
		return false
	}
	for _, n := range hex.Neighbors {
		if n == to {
			return true
		}
	}
	return false
}

func hexIndex(x, y int) (int, bool) {
	if x < 0 || x >= BoardWidth || y < 0 || y >= BoardHeight {
		return 0, false
	}
	return x + BoardWidth*y, true
}

// oddRowOffsets and evenRowOffsets give the six (dx,dy) neighbor offsets for
// a hex at (x,y), keyed by the row's parity.
var oddRowOffsets = [6][2]int{
	{0, -1}, {1, 0}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

var evenRowOffsets = [6][2]int{
	{1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 0}, {0, -1},
}

// BuildBoard constructs the canonical board. It takes no input and is
// referentially transparent: every call returns an equivalent board.
func BuildBoard() *Board {
	b := &Board{}

	for y := 0; y < BoardHeight; y++ {
		for x := 0; x < BoardWidth; x++ {
			idx, _ := hexIndex(x, y)
			b.Hexes[idx] = Hex{Index: idx, Type: HexBlank}

			offsets := evenRowOffsets
			if y%2 == 1 {
				offsets = oddRowOffsets
			}
			for i, off := range offsets {
				nx, ny := x+off[0], y+off[1]
				if nIdx, ok := hexIndex(nx, ny); ok {
					b.Hexes[idx].Neighbors[i] = nIdx
				} else {
					b.Hexes[idx].Neighbors[i] = NoNeighbor
				}
			}
		}
	}

	for _, k := range KeepIndices {
		b.Hexes[k].Type = HexKeep
	}
	b.Hexes[CastleIndex].Type = HexCastle

	for i := range b.Hexes {
		if b.Hexes[i].Type != HexKeep && b.Hexes[i].Type != HexCastle {
			continue
		}
		for _, n := range b.Hexes[i].Neighbors {
			if n == NoNeighbor {
				continue
			}
			if b.Hexes[n].Type == HexBlank {
				b.Hexes[n].Type = HexLand
			}
		}
	}

	for _, o := range LandOverrides {
		if b.Hexes[o].Type == HexKeep || b.Hexes[o].Type == HexCastle {
			continue
		}
		b.Hexes[o].Type = HexLand
	}

	return b
}
