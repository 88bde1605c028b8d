package engine

import (
	"fmt"
	"maps"
	"slices"
)

const (
	PlayerPurple PlayerID = "playerPurple"
	PlayerYellow PlayerID = "playerYellow"
	PlayerRed    PlayerID = "playerRed"
	PlayerGreen  PlayerID = "playerGreen"
)

func DefaultRules() Rules {
	return Rules{
		Slots: []PlayerID{PlayerPurple, PlayerYellow, PlayerRed, PlayerGreen},
		Homes: map[PlayerID]HexID{
			PlayerPurple: HexNorthWest,
			PlayerYellow: HexNorthEast,
			PlayerRed:    HexSouthEast,
			PlayerGreen:  HexSouthWest,
		},
	}
}

// NewRules keeps the first n default slots.
func NewRules(n int) (Rules, error) {
	r := DefaultRules()
	if n < 1 || n > len(r.Slots) {
		return Rules{}, fmt.Errorf("player count must be between 1 and %d, got %d", len(r.Slots), n)
	}
	r.Slots = r.Slots[:n]
	return r, nil
}

func NewState(rules Rules) State {
	return State{
		Status:         StatusEmpty,
		AvailableSlots: slices.Clone(rules.Slots),
		Players:        map[PlayerID]PlayerState{},
		Rules:          rules,
	}
}

// Clone returns a deep copy; snapshots handed to other goroutines must not share
// maps or slices with the live state.
func (s State) Clone() State {
	c := s
	c.AvailableSlots = slices.Clone(s.AvailableSlots)
	if c.AvailableSlots == nil {
		c.AvailableSlots = []PlayerID{}
	}
	c.Players = make(map[PlayerID]PlayerState, len(s.Players))
	for id, ps := range s.Players {
		c.Players[id] = PlayerState{Location: ps.Location, AllowedMoves: slices.Clone(ps.AllowedMoves)}
	}
	c.Rules = Rules{Slots: slices.Clone(s.Rules.Slots), Homes: maps.Clone(s.Rules.Homes)}
	return c
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
