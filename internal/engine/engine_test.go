package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustApply(t *testing.T, s State, cmd Command) State {
	t.Helper()
	_, next, err := Apply(s, cmd)
	require.NoError(t, err, "apply %+v", cmd)
	return next
}

func enrolled(t *testing.T, ids ...PlayerID) State {
	t.Helper()
	s := NewState(DefaultRules())
	for _, id := range ids {
		s = mustApply(t, s, Command{Type: CmdEnroll, PlayerID: id})
	}
	return s
}

func started(t *testing.T, ids ...PlayerID) State {
	t.Helper()
	s := enrolled(t, ids...)
	return mustApply(t, s, Command{Type: CmdStart, PlayerID: ids[0]})
}

func TestEnroll_FirstPlayerBecomesOwnerAndOpensLobby(t *testing.T) {
	s := NewState(DefaultRules())
	require.Equal(t, StatusEmpty, s.Status)

	events, next, err := Apply(s, Command{Type: CmdEnroll, PlayerID: PlayerRed})
	require.NoError(t, err)

	assert.True(t, ContainsEvent(events, EvtPlayerEnrolled))
	assert.True(t, ContainsEvent(events, EvtOwnerAssigned))
	assert.Equal(t, StatusLobby, next.Status)
	assert.Equal(t, PlayerRed, next.SessionOwner)
	assert.NotContains(t, next.AvailableSlots, PlayerRed)
	assert.Equal(t, HexSouthEast, next.Players[PlayerRed].Location)
	assert.Equal(t, Adjacency[HexSouthEast], next.Players[PlayerRed].AllowedMoves)

	// second enrollment keeps the owner
	events, next, err = Apply(next, Command{Type: CmdEnroll, PlayerID: PlayerGreen})
	require.NoError(t, err)
	assert.False(t, ContainsEvent(events, EvtOwnerAssigned))
	assert.Equal(t, PlayerRed, next.SessionOwner)
}

func TestEnroll_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		setup   func(t *testing.T) State
		player  PlayerID
		wantErr error
	}{
		{
			name:    "unknown slot id",
			setup:   func(t *testing.T) State { return NewState(DefaultRules()) },
			player:  "playerBlue",
			wantErr: ErrInvalidPlayer,
		},
		{
			name:    "empty id",
			setup:   func(t *testing.T) State { return NewState(DefaultRules()) },
			player:  "",
			wantErr: ErrInvalidPlayer,
		},
		{
			name:    "same player twice",
			setup:   func(t *testing.T) State { return enrolled(t, PlayerPurple) },
			player:  PlayerPurple,
			wantErr: ErrAlreadyEnrolled,
		},
		{
			name: "no slots left",
			setup: func(t *testing.T) State {
				return enrolled(t, PlayerPurple, PlayerYellow, PlayerRed, PlayerGreen)
			},
			player:  PlayerPurple,
			wantErr: ErrSessionFull,
		},
		{
			name:    "session started",
			setup:   func(t *testing.T) State { return started(t, PlayerPurple) },
			player:  PlayerYellow,
			wantErr: ErrSessionStarted,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.setup(t)
			events, next, err := Apply(s, Command{Type: CmdEnroll, PlayerID: tc.player})
			require.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, events)
			assert.Equal(t, s, next)
		})
	}
}

func TestEnroll_FullExactlyWhenSlotsEmpty(t *testing.T) {
	s := NewState(DefaultRules())
	for i, id := range DefaultRules().Slots {
		s = mustApply(t, s, Command{Type: CmdEnroll, PlayerID: id})
		if i < len(DefaultRules().Slots)-1 {
			assert.Equal(t, StatusLobby, s.Status, "after %d enrollments", i+1)
			assert.NotEmpty(t, s.AvailableSlots)
		}
	}
	assert.Equal(t, StatusFull, s.Status)
	assert.Empty(t, s.AvailableSlots)
}

func TestEnroll_SmallerTable(t *testing.T) {
	rules, err := NewRules(2)
	require.NoError(t, err)

	s := NewState(rules)
	s = mustApply(t, s, Command{Type: CmdEnroll, PlayerID: PlayerPurple})
	s = mustApply(t, s, Command{Type: CmdEnroll, PlayerID: PlayerYellow})
	assert.Equal(t, StatusFull, s.Status)

	_, _, err = Apply(s, Command{Type: CmdEnroll, PlayerID: PlayerRed})
	assert.ErrorIs(t, err, ErrSessionFull)
}

func TestNewRules_RejectsOutOfRange(t *testing.T) {
	_, err := NewRules(0)
	assert.Error(t, err)
	_, err = NewRules(5)
	assert.Error(t, err)
}

func TestStart(t *testing.T) {
	t.Run("owner starts and slots freeze", func(t *testing.T) {
		s := enrolled(t, PlayerPurple, PlayerYellow)
		events, next, err := Apply(s, Command{Type: CmdStart, PlayerID: PlayerPurple})
		require.NoError(t, err)
		assert.True(t, ContainsEvent(events, EvtSessionStarted))
		assert.Equal(t, StatusStarted, next.Status)
		assert.Empty(t, next.AvailableSlots)
		assert.Len(t, next.Players, 2)
	})

	t.Run("full session can start", func(t *testing.T) {
		s := enrolled(t, PlayerPurple, PlayerYellow, PlayerRed, PlayerGreen)
		next := mustApply(t, s, Command{Type: CmdStart, PlayerID: PlayerPurple})
		assert.Equal(t, StatusStarted, next.Status)
	})

	t.Run("non owner rejected", func(t *testing.T) {
		s := enrolled(t, PlayerPurple, PlayerYellow)
		_, _, err := Apply(s, Command{Type: CmdStart, PlayerID: PlayerYellow})
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("empty session rejected", func(t *testing.T) {
		_, _, err := Apply(NewState(DefaultRules()), Command{Type: CmdStart, PlayerID: PlayerPurple})
		assert.ErrorIs(t, err, ErrNoPlayers)
	})

	t.Run("second start rejected", func(t *testing.T) {
		s := started(t, PlayerPurple)
		_, _, err := Apply(s, Command{Type: CmdStart, PlayerID: PlayerPurple})
		assert.ErrorIs(t, err, ErrSessionStarted)
	})
}

// Every ordered pair of hexes: move succeeds iff the destination is adjacent.
func TestMove_LegalIffAdjacent(t *testing.T) {
	for _, from := range Hexes {
		for _, to := range Hexes {
			s := started(t, PlayerPurple)
			s.Players[PlayerPurple] = PlayerState{Location: from, AllowedMoves: LegalMoves(from)}

			_, next, err := Apply(s, Command{Type: CmdMove, PlayerID: PlayerPurple, Destination: to})
			if IsAdjacent(from, to) {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, next.Players[PlayerPurple].Location)
				assert.Equal(t, Adjacency[to], next.Players[PlayerPurple].AllowedMoves)
			} else {
				require.ErrorIs(t, err, ErrIllegalMove, "%s -> %s", from, to)
				assert.Equal(t, from, next.Players[PlayerPurple].Location)
			}
		}
	}
}

func TestMove_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		setup   func(t *testing.T) State
		cmd     Command
		wantErr error
	}{
		{
			name:    "before start",
			setup:   func(t *testing.T) State { return enrolled(t, PlayerPurple) },
			cmd:     Command{Type: CmdMove, PlayerID: PlayerPurple, Destination: HexCenter},
			wantErr: ErrNotStarted,
		},
		{
			name:    "player not enrolled",
			setup:   func(t *testing.T) State { return started(t, PlayerPurple) },
			cmd:     Command{Type: CmdMove, PlayerID: PlayerYellow, Destination: HexCenter},
			wantErr: ErrUnknownPlayer,
		},
		{
			name:    "off the board",
			setup:   func(t *testing.T) State { return started(t, PlayerPurple) },
			cmd:     Command{Type: CmdMove, PlayerID: PlayerPurple, Destination: "atlantis"},
			wantErr: ErrUnknownHex,
		},
		{
			name:    "staying put",
			setup:   func(t *testing.T) State { return started(t, PlayerPurple) },
			cmd:     Command{Type: CmdMove, PlayerID: PlayerPurple, Destination: HexNorthWest},
			wantErr: ErrIllegalMove,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Apply(tc.setup(t), tc.cmd)
			if err == nil || !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestAllowedMovesTracksLocation(t *testing.T) {
	s := started(t, PlayerPurple, PlayerYellow)
	path := []HexID{HexCenter, HexSouth, HexSouthWest, HexNorthWest, HexNorth}
	for _, hex := range path {
		s = mustApply(t, s, Command{Type: CmdMove, PlayerID: PlayerPurple, Destination: hex})
		for id, ps := range s.Players {
			assert.Equal(t, Adjacency[ps.Location], ps.AllowedMoves, "player %s", id)
		}
	}
	assert.Equal(t, HexNorth, s.Players[PlayerPurple].Location)
	assert.Equal(t, HexNorthEast, s.Players[PlayerYellow].Location)
}

func TestInquire_NoEventsNoChange(t *testing.T) {
	s := enrolled(t, PlayerPurple)
	events, next, err := Apply(s, Command{Type: CmdInquire})
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, s, next)
}

func TestUnsupportedCommand(t *testing.T) {
	_, _, err := Apply(NewState(DefaultRules()), Command{Type: "teleport"})
	assert.ErrorIs(t, err, ErrUnsupportedCommand)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	s := started(t, PlayerPurple, PlayerYellow)
	before := s.Clone()

	_ = mustApply(t, s, Command{Type: CmdMove, PlayerID: PlayerPurple, Destination: HexCenter})
	assert.Equal(t, before, s)

	lobby := enrolled(t, PlayerPurple)
	lobbyBefore := lobby.Clone()
	_ = mustApply(t, lobby, Command{Type: CmdEnroll, PlayerID: PlayerRed})
	assert.Equal(t, lobbyBefore, lobby)
}

func TestReduce_MatchesLiveState(t *testing.T) {
	rules := DefaultRules()
	s := NewState(rules)
	var log []Event

	cmds := []Command{
		{Type: CmdEnroll, PlayerID: PlayerYellow},
		{Type: CmdEnroll, PlayerID: PlayerGreen},
		{Type: CmdStart, PlayerID: PlayerYellow},
		{Type: CmdMove, PlayerID: PlayerYellow, Destination: HexCenter},
		{Type: CmdMove, PlayerID: PlayerGreen, Destination: HexSouth},
		{Type: CmdMove, PlayerID: PlayerYellow, Destination: HexNorth},
	}
	for _, cmd := range cmds {
		events, next, err := Apply(s, cmd)
		require.NoError(t, err)
		log = append(log, events...)
		s = next
	}

	assert.Equal(t, s, Reduce(rules, log))
}

func TestReduce_EmptyLog(t *testing.T) {
	assert.Equal(t, NewState(DefaultRules()), Reduce(DefaultRules(), nil))
}
