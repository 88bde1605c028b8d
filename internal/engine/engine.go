package engine

import (
	"errors"
	"slices"
)

var ErrSessionFull = errors.New("session is full")
var ErrSessionStarted = errors.New("session already started")
var ErrNotStarted = errors.New("session not started")
var ErrInvalidPlayer = errors.New("invalid player id")
var ErrAlreadyEnrolled = errors.New("player already enrolled")
var ErrUnknownPlayer = errors.New("player not enrolled")
var ErrNotOwner = errors.New("only the session owner can start")
var ErrNoPlayers = errors.New("no players enrolled")
var ErrUnknownHex = errors.New("unknown hex")
var ErrIllegalMove = errors.New("illegal move")
var ErrUnsupportedCommand = errors.New("unsupported command")

type PlayerID string

type Status string

const (
	StatusEmpty   Status = "empty"
	StatusLobby   Status = "lobby"
	StatusFull    Status = "full"
	StatusStarted Status = "started"
)

type PlayerState struct {
	Location     HexID
	AllowedMoves []HexID
}

type State struct {
	Status         Status
	SessionOwner   PlayerID
	AvailableSlots []PlayerID
	Players        map[PlayerID]PlayerState
	Rules          Rules
}

type Rules struct {
	Slots []PlayerID
	Homes map[PlayerID]HexID
}

type CommandType string

const (
	CmdInquire CommandType = "inquire"
	CmdEnroll  CommandType = "enroll"
	CmdStart   CommandType = "start"
	CmdMove    CommandType = "move"
)

/*
	CmdInquire -> (no events, caller gets the current snapshot)
	CmdEnroll  -> EvtPlayerEnrolled [-> EvtOwnerAssigned if first]
	CmdStart   -> EvtSessionStarted
	CmdMove    -> EvtPlayerMoved
*/

type Command struct {
	Type        CommandType
	PlayerID    PlayerID
	Destination HexID
}

type EventType string

const (
	EvtPlayerEnrolled EventType = "PlayerEnrolled"
	EvtOwnerAssigned  EventType = "OwnerAssigned"
	EvtSessionStarted EventType = "SessionStarted"
	EvtPlayerMoved    EventType = "PlayerMoved"
)

type Event struct {
	Type     EventType
	PlayerID PlayerID
	From     HexID
	To       HexID
}

// Apply validates cmd against s and returns the resulting events and state.
// s is never mutated; on error the returned state is s itself.
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdInquire:
		return nil, s, nil

	case CmdEnroll:
		if s.Status == StatusStarted {
			return nil, s, ErrSessionStarted
		}
		if len(s.AvailableSlots) == 0 {
			return nil, s, ErrSessionFull
		}
		if _, ok := s.Players[cmd.PlayerID]; ok {
			return nil, s, ErrAlreadyEnrolled
		}
		if !slices.Contains(s.AvailableSlots, cmd.PlayerID) {
			return nil, s, ErrInvalidPlayer
		}

		home := s.Rules.home(cmd.PlayerID)
		events := []Event{
			{Type: EvtPlayerEnrolled, PlayerID: cmd.PlayerID, To: home},
		}
		if s.SessionOwner == "" {
			events = append(events, Event{Type: EvtOwnerAssigned, PlayerID: cmd.PlayerID})
		}
		return events, apply(s.Clone(), events), nil

	case CmdStart:
		if s.Status == StatusStarted {
			return nil, s, ErrSessionStarted
		}
		if len(s.Players) == 0 {
			return nil, s, ErrNoPlayers
		}
		if cmd.PlayerID != s.SessionOwner {
			return nil, s, ErrNotOwner
		}

		events := []Event{{Type: EvtSessionStarted, PlayerID: cmd.PlayerID}}
		return events, apply(s.Clone(), events), nil

	case CmdMove:
		if s.Status != StatusStarted {
			return nil, s, ErrNotStarted
		}
		ps, ok := s.Players[cmd.PlayerID]
		if !ok {
			return nil, s, ErrUnknownPlayer
		}
		if _, ok := Adjacency[cmd.Destination]; !ok {
			return nil, s, ErrUnknownHex
		}
		if !slices.Contains(ps.AllowedMoves, cmd.Destination) {
			return nil, s, ErrIllegalMove
		}

		events := []Event{
			{Type: EvtPlayerMoved, PlayerID: cmd.PlayerID, From: ps.Location, To: cmd.Destination},
		}
		return events, apply(s.Clone(), events), nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// Reduce rebuilds a session from its event log.
func Reduce(rules Rules, events []Event) State {
	return apply(NewState(rules), events)
}

// apply folds events into s in place. Apply and Reduce share it so a replayed
// log always lands on the same state the live session had.
func apply(s State, events []Event) State {
	for _, event := range events {
		switch event.Type {
		case EvtPlayerEnrolled:
			s.AvailableSlots = slices.DeleteFunc(s.AvailableSlots, func(id PlayerID) bool {
				return id == event.PlayerID
			})
			s.Players[event.PlayerID] = PlayerState{
				Location:     event.To,
				AllowedMoves: LegalMoves(event.To),
			}
			s.Status = deriveStatus(s)

		case EvtOwnerAssigned:
			s.SessionOwner = event.PlayerID

		case EvtSessionStarted:
			s.AvailableSlots = []PlayerID{}
			s.Status = StatusStarted

		case EvtPlayerMoved:
			s.Players[event.PlayerID] = PlayerState{
				Location:     event.To,
				AllowedMoves: LegalMoves(event.To),
			}
		}
	}
	return s
}

func deriveStatus(s State) Status {
	switch {
	case s.Status == StatusStarted:
		return StatusStarted
	case len(s.Players) == 0:
		return StatusEmpty
	case len(s.AvailableSlots) == 0:
		return StatusFull
	default:
		return StatusLobby
	}
}

func (r Rules) home(id PlayerID) HexID {
	if h, ok := r.Homes[id]; ok {
		return h
	}
	return HexCenter
}
