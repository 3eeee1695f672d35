package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playroomlab/tictactoe-rooms-backend/internal/apperror"
)

func TestNewRoom(t *testing.T) {
	t.Run("Creator always gets X and the room waits", func(t *testing.T) {
		// Given: a creator
		creator := NewPlayer("conn-1", "alice", "")

		// When: a room is created
		room := NewRoom("ABC123", creator)

		// Then: creator holds X, X opens, and the room is waiting
		assert.Equal(t, SymbolX, creator.Symbol)
		assert.Equal(t, SymbolX, room.CurrentTurn)
		assert.True(t, room.IsWaiting())
		assert.Len(t, room.Players, 1)
	})
}

func TestRoom_AddPlayer(t *testing.T) {
	t.Run("Joiner gets the remaining symbol and the room activates", func(t *testing.T) {
		// Given: a waiting room with one player
		room := NewRoom("ABC123", NewPlayer("conn-1", "alice", ""))
		joiner := NewPlayer("conn-2", "bob", "")

		// When: a second player joins
		err := room.AddPlayer(joiner)

		// Then: joiner holds O and the room is active
		require.NoError(t, err)
		assert.Equal(t, SymbolO, joiner.Symbol)
		assert.True(t, room.IsActive())
	})

	t.Run("Third join attempt fails with ErrRoomFull", func(t *testing.T) {
		// Given: a full room
		room := NewRoom("ABC123", NewPlayer("conn-1", "alice", ""))
		require.NoError(t, room.AddPlayer(NewPlayer("conn-2", "bob", "")))

		// When: a third player tries to join
		err := room.AddPlayer(NewPlayer("conn-3", "carol", ""))

		// Then: the join is rejected
		require.Error(t, err)
		assert.ErrorIs(t, err, apperror.ErrRoomFull)
		assert.Len(t, room.Players, 2)
	})

	t.Run("Two players can never share a symbol", func(t *testing.T) {
		// Given: a waiting room
		room := NewRoom("ABC123", NewPlayer("conn-1", "alice", ""))

		// When: the second player joins
		require.NoError(t, room.AddPlayer(NewPlayer("conn-2", "bob", "")))

		// Then: the symbols differ
		assert.NotEqual(t, room.Players[0].Symbol, room.Players[1].Symbol)
	})
}

func TestRoom_ApplyMove(t *testing.T) {
	newActiveRoom := func(t *testing.T) *Room {
		t.Helper()

		room := NewRoom("ABC123", NewPlayer("conn-1", "alice", ""))
		require.NoError(t, room.AddPlayer(NewPlayer("conn-2", "bob", "")))

		return room
	}

	t.Run("Valid move writes the symbol and flips the turn", func(t *testing.T) {
		// Given: an active room with X to move
		room := newActiveRoom(t)

		// When: X plays cell 4
		err := room.ApplyMove(SymbolX, 4)

		// Then: the cell holds X and O is on turn
		require.NoError(t, err)
		assert.Equal(t, SymbolX, room.Board[4])
		assert.Equal(t, SymbolO, room.CurrentTurn)
	})

	t.Run("Move into an occupied cell fails without mutation", func(t *testing.T) {
		// Given: cell 0 already holds X
		room := newActiveRoom(t)
		require.NoError(t, room.ApplyMove(SymbolX, 0))

		// When: O plays cell 0
		err := room.ApplyMove(SymbolO, 0)

		// Then: ErrCellOccupied, board unchanged, still O's turn
		assert.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, SymbolX, room.Board[0])
		assert.Equal(t, SymbolO, room.CurrentTurn)
	})

	t.Run("Out-of-turn move fails", func(t *testing.T) {
		// Given: an active room with X to move
		room := newActiveRoom(t)

		// When: O plays first
		err := room.ApplyMove(SymbolO, 0)

		// Then: ErrNotYourTurn and the board stays empty
		assert.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, EmptyCell, room.Board[0])
	})

	t.Run("Out-of-range cell fails", func(t *testing.T) {
		// Given: an active room
		room := newActiveRoom(t)

		// When: X plays cell 9
		err := room.ApplyMove(SymbolX, 9)

		// Then: ErrInvalidCell
		assert.ErrorIs(t, err, apperror.ErrInvalidCell)
	})

	t.Run("Moves are rejected while the room is waiting", func(t *testing.T) {
		// Given: a room with a single player
		room := NewRoom("ABC123", NewPlayer("conn-1", "alice", ""))

		// When: X tries to move
		err := room.ApplyMove(SymbolX, 0)

		// Then: ErrRoomNotActive
		assert.ErrorIs(t, err, apperror.ErrRoomNotActive)
	})

	t.Run("Completing a line wins the round", func(t *testing.T) {
		// Given: X holds cells 0 and 1
		room := newActiveRoom(t)
		require.NoError(t, room.ApplyMove(SymbolX, 0))
		require.NoError(t, room.ApplyMove(SymbolO, 3))
		require.NoError(t, room.ApplyMove(SymbolX, 1))
		require.NoError(t, room.ApplyMove(SymbolO, 4))

		// When: X plays cell 2 completing the top row
		err := room.ApplyMove(SymbolX, 2)

		// Then: X is the winner and the round is over
		require.NoError(t, err)
		assert.Equal(t, SymbolX, room.Winner)
		assert.False(t, room.IsDraw)
		assert.True(t, room.IsRoundOver())
	})

	t.Run("Moves after round end fail with ErrRoundAlreadyOver", func(t *testing.T) {
		// Given: a won round
		room := newActiveRoom(t)
		room.Board = [9]string{SymbolX, SymbolX, EmptyCell, SymbolO, SymbolO, EmptyCell, EmptyCell, EmptyCell, EmptyCell}
		require.NoError(t, room.ApplyMove(SymbolX, 2))
		require.True(t, room.IsRoundOver())

		// When: O tries to play
		err := room.ApplyMove(SymbolO, 5)

		// Then: ErrRoundAlreadyOver
		assert.ErrorIs(t, err, apperror.ErrRoundAlreadyOver)
	})

	t.Run("Full board with no line is a draw", func(t *testing.T) {
		// Given: a board one move from a draw
		room := newActiveRoom(t)
		room.Board = [9]string{
			SymbolX, SymbolO, SymbolX,
			SymbolX, SymbolO, SymbolO,
			SymbolO, SymbolX, EmptyCell,
		}

		// When: X fills the last cell
		err := room.ApplyMove(SymbolX, 8)

		// Then: a draw is recorded and no winner is set
		require.NoError(t, err)
		assert.True(t, room.IsDraw)
		assert.Empty(t, room.Winner)
		assert.True(t, room.IsRoundOver())
	})
}

func TestRoom_DetermineRoundResult(t *testing.T) {
	t.Run("Detects every winning line", func(t *testing.T) {
		for _, combo := range WinCombos {
			// Given: a board with the combo held by O
			room := &Room{}
			for _, cell := range combo {
				room.Board[cell] = SymbolO
			}

			// When: the board is scanned
			result := room.DetermineRoundResult()

			// Then: O wins
			assert.Equal(t, SymbolO, result, "combo %v", combo)
		}
	})

	t.Run("Returns empty while the round is ongoing", func(t *testing.T) {
		// Given: a sparse board
		room := &Room{}
		room.Board[0] = SymbolX
		room.Board[4] = SymbolO

		// When: the board is scanned
		result := room.DetermineRoundResult()

		// Then: no result yet
		assert.Empty(t, result)
	})
}

func TestRoom_ReadyAndReset(t *testing.T) {
	newFinishedRoom := func(t *testing.T) *Room {
		t.Helper()

		room := NewRoom("ABC123", NewPlayer("conn-1", "alice", ""))
		require.NoError(t, room.AddPlayer(NewPlayer("conn-2", "bob", "")))
		room.Board = [9]string{SymbolX, SymbolX, EmptyCell, SymbolO, SymbolO, EmptyCell, EmptyCell, EmptyCell, EmptyCell}
		require.NoError(t, room.ApplyMove(SymbolX, 2))

		return room
	}

	t.Run("One ready signal does not reset the board", func(t *testing.T) {
		// Given: a finished round
		room := newFinishedRoom(t)

		// When: only one player signals ready
		count := room.MarkReady("conn-1")

		// Then: the board keeps its state
		assert.Equal(t, 1, count)
		assert.False(t, room.BothReady())
		assert.True(t, room.IsRoundOver())
	})

	t.Run("Ready is idempotent per player", func(t *testing.T) {
		// Given: a finished round
		room := newFinishedRoom(t)

		// When: the same player signals twice
		room.MarkReady("conn-1")
		count := room.MarkReady("conn-1")

		// Then: still a single ready
		assert.Equal(t, 1, count)
		assert.False(t, room.BothReady())
	})

	t.Run("Ready from a stranger is ignored", func(t *testing.T) {
		// Given: a finished round
		room := newFinishedRoom(t)

		// When: an unknown connection signals ready
		count := room.MarkReady("conn-99")

		// Then: nothing is recorded
		assert.Equal(t, 0, count)
	})

	t.Run("Reset clears the board and hands the turn to X", func(t *testing.T) {
		// Given: both players ready after a finished round
		room := newFinishedRoom(t)
		room.MarkReady("conn-1")
		room.MarkReady("conn-2")
		require.True(t, room.BothReady())

		// When: the round resets
		room.ResetRound()

		// Then: clean board, X on turn, active again, ready cleared
		assert.Equal(t, [9]string{}, room.Board)
		assert.Empty(t, room.Winner)
		assert.False(t, room.IsDraw)
		assert.Equal(t, SymbolX, room.CurrentTurn)
		assert.True(t, room.IsActive())
		assert.Empty(t, room.Ready)
	})
}

func TestRoom_Snapshot(t *testing.T) {
	t.Run("Snapshot copies players and session", func(t *testing.T) {
		// Given: an active room with a session
		room := NewRoom("ABC123", NewPlayer("conn-1", "alice", ""))
		require.NoError(t, room.AddPlayer(NewPlayer("conn-2", "bob", "")))
		room.Session = &GameSession{ID: "s-1", Player1Name: "alice", Player2Name: "bob"}

		// When: a snapshot is taken and mutated
		snapshot := room.Snapshot()
		snapshot.Players[0].Name = "mallory"
		snapshot.Session.Player1Wins = 99

		// Then: the room is untouched
		assert.Equal(t, "alice", room.Players[0].Name)
		assert.Zero(t, room.Session.Player1Wins)
	})
}

func TestSanitizePlayerName(t *testing.T) {
	t.Run("Trims whitespace and caps length at 50", func(t *testing.T) {
		// Given: a padded, overlong name
		long := " x"
		for len(long) < 60 {
			long += "a"
		}

		// When: sanitized
		name := SanitizePlayerName(long)

		// Then: trimmed and capped
		assert.Len(t, name, 50)
		assert.NotContains(t, name, " ")
	})
}
