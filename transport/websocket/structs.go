package websocket

import (
	"encoding/json"
	"time"

	"github.com/playroomlab/tictactoe-rooms-backend/internal/entity"
)

// Inbound event names. Requests carrying an id get an ack back under the
// same action and id; the rest are fire-and-forget.
const (
	actionCreateRoom       = "create_room"
	actionJoinRoom         = "join_room"
	actionJoinExistingRoom = "join_existing_room"
	actionMakeMove         = "make_move"
	actionPlayerReady      = "player_ready"
	actionNewRound         = "new_round"
	actionSendMessage      = "send_message"
)

// Outbound broadcast event names.
const (
	actionGameReady          = "game_ready"
	actionMoveMade           = "move_made"
	actionNewRoundStarted    = "new_round_started"
	actionPlayerReadyStatus  = "player_ready_status"
	actionPlayerDisconnected = "player_disconnected"
	actionNewMessage         = "new_message"
)

// Message - a single event on the wire.
type Message struct {
	Action  string          `json:"action"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type CreateRoomRequest struct {
	PlayerName string `json:"playerName"`
	Token      string `json:"token,omitempty"`
}

type JoinRoomRequest struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
	Token      string `json:"token,omitempty"`
}

type JoinExistingRoomRequest struct {
	RoomCode     string `json:"roomCode"`
	PlayerName   string `json:"playerName"`
	PlayerSymbol string `json:"playerSymbol"`
	Token        string `json:"token,omitempty"`
}

type MakeMoveRequest struct {
	RoomCode  string `json:"roomCode"`
	CellIndex int    `json:"cellIndex"`
}

type RoomRequest struct {
	RoomCode string `json:"roomCode"`
}

type SendMessageRequest struct {
	RoomCode   string `json:"roomCode"`
	Message    string `json:"message"`
	PlayerName string `json:"playerName"`
}

// AckPayload - acknowledgment returned to the requesting connection only.
type AckPayload struct {
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	RoomCode     string `json:"roomCode,omitempty"`
	PlayerSymbol string `json:"playerSymbol,omitempty"`
}

// GameState - the board as clients consume it: empty cells are null.
type GameState struct {
	Board       [9]*string `json:"board"`
	CurrentTurn string     `json:"currentTurn"`
	Winner      *string    `json:"winner"`
	IsDraw      bool       `json:"isDraw"`
	IsActive    bool       `json:"isActive"`
}

type GameReadyPayload struct {
	Players     []entity.Player     `json:"players"`
	GameState   GameState           `json:"gameState"`
	GameSession *entity.GameSession `json:"gameSession,omitempty"`
}

type MoveMadePayload struct {
	Position    int                 `json:"position"`
	Player      string              `json:"player"`
	GameState   GameState           `json:"gameState"`
	GameSession *entity.GameSession `json:"gameSession,omitempty"`
}

type NewRoundStartedPayload struct {
	GameState   GameState           `json:"gameState"`
	Players     []entity.Player     `json:"players"`
	GameSession *entity.GameSession `json:"gameSession,omitempty"`
}

type ReadyStatusPayload struct {
	ReadyCount   int    `json:"readyCount"`
	TotalPlayers int    `json:"totalPlayers"`
	PlayerReady  string `json:"playerReady"`
}

type ChatMessagePayload struct {
	ID         string    `json:"id"`
	PlayerName string    `json:"playerName"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// newGameState - maps the authoritative snapshot to the wire shape.
func newGameState(snapshot entity.RoomSnapshot) GameState {
	state := GameState{
		CurrentTurn: snapshot.CurrentTurn,
		IsDraw:      snapshot.IsDraw,
		IsActive:    snapshot.IsActive,
	}

	for i := range snapshot.Board {
		if snapshot.Board[i] != entity.EmptyCell {
			cell := snapshot.Board[i]
			state.Board[i] = &cell
		}
	}

	if snapshot.Winner != "" {
		winner := snapshot.Winner
		state.Winner = &winner
	}

	return state
}
