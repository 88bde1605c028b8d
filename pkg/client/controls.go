package client

import (
	"slices"

	"github.com/DoyleJ11/hexboard-backend/pkg/types"
)

// Controls says which actions a player's UI should offer for a snapshot.
type Controls struct {
	CanEnroll   bool
	CanStart    bool
	MoveTargets []string
}

func ControlsFor(snap types.Snapshot, player string) Controls {
	_, enrolled := snap.Players[player]

	var c Controls
	switch snap.Status {
	case types.StatusEmpty, types.StatusLobby:
		c.CanEnroll = !enrolled && slices.Contains(snap.AvailableSlots, player)
	}
	switch snap.Status {
	case types.StatusLobby, types.StatusFull:
		c.CanStart = enrolled && snap.SessionOwner == player
	}
	if snap.Status == types.StatusStarted && enrolled {
		c.MoveTargets = slices.Clone(snap.Players[player].AllowedMoves)
	}
	return c
}
