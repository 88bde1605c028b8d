package engine

import "slices"

type HexID string

const (
	HexCenter    HexID = "center"
	HexNorth     HexID = "north"
	HexNorthEast HexID = "northEast"
	HexSouthEast HexID = "southEast"
	HexSouth     HexID = "south"
	HexSouthWest HexID = "southWest"
	HexNorthWest HexID = "northWest"
)

// Hexes lists the board in table order: center first, then the ring clockwise from north.
var Hexes = []HexID{
	HexCenter,
	HexNorth,
	HexNorthEast,
	HexSouthEast,
	HexSouth,
	HexSouthWest,
	HexNorthWest,
}

// Adjacency is the move legality table. Each entry is the set of hexes a ship
// on that hex may sail to.
var Adjacency = map[HexID][]HexID{
	HexCenter:    {HexNorth, HexNorthEast, HexSouthEast, HexSouth, HexSouthWest, HexNorthWest},
	HexNorth:     {HexCenter, HexNorthEast, HexNorthWest},
	HexNorthEast: {HexCenter, HexNorth, HexSouthEast},
	HexSouthEast: {HexCenter, HexNorthEast, HexSouth},
	HexSouth:     {HexCenter, HexSouthEast, HexSouthWest},
	HexSouthWest: {HexCenter, HexSouth, HexNorthWest},
	HexNorthWest: {HexCenter, HexSouthWest, HexNorth},
}

// LegalMoves returns a fresh copy of the adjacency entry for h (nil for unknown hexes).
func LegalMoves(h HexID) []HexID {
	moves, ok := Adjacency[h]
	if !ok {
		return nil
	}
	return slices.Clone(moves)
}

func IsAdjacent(from, to HexID) bool {
	return slices.Contains(Adjacency[from], to)
}

func ParseHex(s string) (HexID, bool) {
	h := HexID(s)
	if _, ok := Adjacency[h]; !ok {
		return "", false
	}
	return h, true
}
