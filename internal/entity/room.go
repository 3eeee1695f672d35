package entity

import (
	"fmt"
	"sync"
	"time"

	"github.com/playroomlab/tictactoe-rooms-backend/internal/apperror"
)

const (
	StatusWaiting   = "waiting"
	StatusActive    = "active"
	StatusRoundEnd  = "round_end"
	StatusAbandoned = "abandoned"

	SymbolX = "X"
	SymbolO = "O"

	ResultDraw = "-"

	EmptyCell = ""

	MaxPlayers = 2
)

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Room - authoritative per-room state. All mutation happens under the
// room's own mutex; the registry and coordinator lock it around every
// read-validate-write sequence so two near-simultaneous moves can never
// both pass validation.
type Room struct {
	Code        string
	Players     []*Player
	Board       [9]string
	CurrentTurn string
	Winner      string
	IsDraw      bool
	Status      string
	Ready       map[string]struct{}
	Session     *GameSession
	CreatedAt   time.Time
	AbandonedAt time.Time

	mu sync.Mutex
}

// NewRoom - creates a room with the creator in the X slot.
func NewRoom(code string, creator *Player) *Room {
	creator.Symbol = SymbolX

	return &Room{
		Code:        code,
		Players:     []*Player{creator},
		CurrentTurn: SymbolX,
		Status:      StatusWaiting,
		Ready:       make(map[string]struct{}),
		CreatedAt:   time.Now(),
	}
}

func (that *Room) Lock()   { that.mu.Lock() }
func (that *Room) Unlock() { that.mu.Unlock() }

func (that *Room) IsWaiting() bool   { return that.Status == StatusWaiting }
func (that *Room) IsActive() bool    { return that.Status == StatusActive }
func (that *Room) IsRoundOver() bool { return that.Status == StatusRoundEnd }
func (that *Room) IsAbandoned() bool { return that.Status == StatusAbandoned }

// AddPlayer - binds the second player and activates the room. The joiner
// gets whichever symbol is left.
func (that *Room) AddPlayer(joiner *Player) error {
	if len(that.Players) >= MaxPlayers {
		return fmt.Errorf("%w: room %s", apperror.ErrRoomFull, that.Code)
	}

	joiner.Symbol = SymbolO
	if len(that.Players) == 1 && that.Players[0].Symbol == SymbolO {
		joiner.Symbol = SymbolX
	}

	that.Players = append(that.Players, joiner)

	if len(that.Players) == MaxPlayers {
		that.Status = StatusActive
	}

	return nil
}

func (that *Room) PlayerByID(id string) *Player {
	for _, player := range that.Players {
		if player.ID == id {
			return player
		}
	}
	return nil
}

func (that *Room) PlayerBySlot(name, symbol string) *Player {
	for _, player := range that.Players {
		if player.Name == name && player.Symbol == symbol {
			return player
		}
	}
	return nil
}

func (that *Room) Opponent(id string) *Player {
	for _, player := range that.Players {
		if player.ID != id {
			return player
		}
	}
	return nil
}

// ApplyMove - validates and applies a single move. On a terminal board the
// room enters round-end; otherwise the turn flips.
func (that *Room) ApplyMove(symbol string, cell int) error {
	if that.IsRoundOver() {
		return apperror.ErrRoundAlreadyOver
	}

	if !that.IsActive() {
		return fmt.Errorf("%w: room %s", apperror.ErrRoomNotActive, that.Code)
	}

	if cell < 0 || cell >= len(that.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that.Board[cell] != EmptyCell {
		return apperror.ErrCellOccupied
	}

	if that.CurrentTurn != symbol {
		return apperror.ErrNotYourTurn
	}

	that.Board[cell] = symbol

	switch result := that.DetermineRoundResult(); result {
	case SymbolX, SymbolO:
		that.Winner = result
		that.Status = StatusRoundEnd
	case ResultDraw:
		that.IsDraw = true
		that.Status = StatusRoundEnd
	default:
		that.CurrentTurn = toggleSymbol(symbol)
	}

	return nil
}

// DetermineRoundResult - rescans the whole board: a winning symbol,
// ResultDraw on a full board, or empty while the round continues.
// The scan is always done from scratch so the authoritative state can
// never drift from what the board actually holds.
func (that *Room) DetermineRoundResult() string {
	for _, combo := range WinCombos {
		a, b, c := that.Board[combo[0]], that.Board[combo[1]], that.Board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	for _, cell := range that.Board {
		if cell == EmptyCell {
			return ""
		}
	}

	return ResultDraw
}

// MarkReady - records a player's ready signal for the next round.
// Idempotent per player.
func (that *Room) MarkReady(playerID string) int {
	if that.PlayerByID(playerID) != nil {
		that.Ready[playerID] = struct{}{}
	}
	return len(that.Ready)
}

func (that *Room) BothReady() bool {
	return len(that.Players) == MaxPlayers && len(that.Ready) == MaxPlayers
}

// ResetRound - clears the board for the next round. Only callable once both
// players signaled ready; X always opens.
func (that *Room) ResetRound() {
	that.Board = [9]string{}
	that.Winner = ""
	that.IsDraw = false
	that.CurrentTurn = SymbolX
	that.Ready = make(map[string]struct{})
	that.Status = StatusActive
}

// Abandon - marks the room terminal after a disconnect. The registry tears
// it down on its next cleanup pass.
func (that *Room) Abandon() {
	that.Status = StatusAbandoned
	that.AbandonedAt = time.Now()
}

func toggleSymbol(symbol string) string {
	if symbol == SymbolX {
		return SymbolO
	}
	return SymbolX
}

// Snapshot - value copy of everything a broadcast needs, taken under the
// room lock so both connections always see identical state.
type RoomSnapshot struct {
	Code        string
	Players     []Player
	Board       [9]string
	CurrentTurn string
	Winner      string
	IsDraw      bool
	IsActive    bool
	Session     *GameSession
}

func (that *Room) Snapshot() RoomSnapshot {
	players := make([]Player, 0, len(that.Players))
	for _, player := range that.Players {
		players = append(players, *player)
	}

	var session *GameSession
	if that.Session != nil {
		sessionCopy := *that.Session
		session = &sessionCopy
	}

	return RoomSnapshot{
		Code:        that.Code,
		Players:     players,
		Board:       that.Board,
		CurrentTurn: that.CurrentTurn,
		Winner:      that.Winner,
		IsDraw:      that.IsDraw,
		IsActive:    that.IsActive(),
		Session:     session,
	}
}
