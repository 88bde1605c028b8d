package ws

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/DoyleJ11/hexboard-backend/internal/engine"
	"github.com/DoyleJ11/hexboard-backend/internal/session"
	"github.com/DoyleJ11/hexboard-backend/pkg/types"
)

var errBadJSON = errors.New("bad json")
var errUnknownAction = errors.New("unknown action")
var errMissingDestination = errors.New("move needs a destination")

func decode(data []byte) (engine.Command, error) {
	var cm types.ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil {
		return engine.Command{}, errBadJSON
	}
	return toEngineCommand(cm)
}

func toEngineCommand(m types.ClientMessage) (engine.Command, error) {
	player := engine.PlayerID(m.PlayerID)

	switch m.Action {
	case types.ActionInquire:
		return engine.Command{Type: engine.CmdInquire, PlayerID: player}, nil
	case types.ActionEnroll:
		return engine.Command{Type: engine.CmdEnroll, PlayerID: player}, nil
	case types.ActionStart:
		return engine.Command{Type: engine.CmdStart, PlayerID: player}, nil
	case types.ActionMove:
		dest, err := parseDestination(m.Details)
		if err != nil {
			return engine.Command{}, err
		}
		return engine.Command{Type: engine.CmdMove, PlayerID: player, Destination: dest}, nil
	default:
		return engine.Command{}, errUnknownAction
	}
}

// parseDestination accepts either "center" or {"destination":"center"} and
// rejects hexes that are not on the board.
func parseDestination(raw json.RawMessage) (engine.HexID, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errMissingDestination
	}

	var dest string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &dest); err != nil {
			return "", errBadJSON
		}
	} else {
		var d types.MoveDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return "", errBadJSON
		}
		dest = d.Destination
	}
	if dest == "" {
		return "", errMissingDestination
	}
	h, ok := engine.ParseHex(dest)
	if !ok {
		return "", engine.ErrUnknownHex
	}
	return h, nil
}

// ToWire converts an actor snapshot into the broadcast JSON shape.
func ToWire(snap session.Snapshot) types.Snapshot {
	s := snap.State
	out := types.Snapshot{
		Version:        snap.Version,
		Status:         string(s.Status),
		SessionOwner:   string(s.SessionOwner),
		AvailableSlots: make([]string, 0, len(s.AvailableSlots)),
		Players:        make(map[string]types.PlayerStatus, len(s.Players)),
	}
	for _, id := range s.AvailableSlots {
		out.AvailableSlots = append(out.AvailableSlots, string(id))
	}
	for id, ps := range s.Players {
		moves := make([]string, 0, len(ps.AllowedMoves))
		for _, h := range ps.AllowedMoves {
			moves = append(moves, string(h))
		}
		out.Players[string(id)] = types.PlayerStatus{Location: string(ps.Location), AllowedMoves: moves}
	}
	return out
}

func encode(ob session.Outbound) ([]byte, error) {
	if ob.Err != nil {
		return errorPayload(ob.Err), nil
	}
	if ob.Snapshot == nil {
		return nil, errors.New("outbound carries neither snapshot nor error")
	}
	return json.Marshal(ToWire(*ob.Snapshot))
}

func errorPayload(err error) []byte {
	b, _ := json.Marshal(types.ErrorMessage{Error: err.Error()})
	return b
}
