package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/playroomlab/tictactoe-rooms-backend/internal/entity"
)

func (that *Server) handleCreateRoom(ctx context.Context, c *client, msg *Message) error {
	log := that.logger.With("method", "handleCreateRoom", "connID", c.id)

	var req CreateRoomRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if strings.TrimSpace(req.PlayerName) == "" {
		return that.ack(c, msg, AckPayload{Error: "player name is required"})
	}

	userID := that.resolveUserID(ctx, req.Token)

	snapshot, err := that.coordinator.CreateRoom(ctx, c.id, req.PlayerName, userID)
	if err != nil {
		log.Error("failed to create room", "error", err)
		return that.ack(c, msg, AckPayload{Error: errorTag(err)})
	}

	that.bindRoom(c, snapshot.Code)

	log.Info("room created", "roomCode", snapshot.Code)

	return that.ack(c, msg, AckPayload{
		Success:      true,
		RoomCode:     snapshot.Code,
		PlayerSymbol: entity.SymbolX,
	})
}

func (that *Server) handleJoinRoom(ctx context.Context, c *client, msg *Message) error {
	log := that.logger.With("method", "handleJoinRoom", "connID", c.id)

	var req JoinRoomRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if strings.TrimSpace(req.PlayerName) == "" {
		return that.ack(c, msg, AckPayload{Error: "player name is required"})
	}

	roomCode := strings.ToUpper(strings.TrimSpace(req.RoomCode))
	userID := that.resolveUserID(ctx, req.Token)

	snapshot, err := that.coordinator.JoinRoom(ctx, c.id, roomCode, req.PlayerName, userID)
	if err != nil {
		log.Error("failed to join room", "roomCode", roomCode, "error", err)
		return that.ack(c, msg, AckPayload{Error: errorTag(err)})
	}

	that.bindRoom(c, snapshot.Code)

	symbol := ""
	if player := snapshotPlayer(snapshot, c.id); player != nil {
		symbol = player.Symbol
	}

	if err = that.ack(c, msg, AckPayload{Success: true, RoomCode: snapshot.Code, PlayerSymbol: symbol}); err != nil {
		return err
	}

	that.broadcastGameReady(snapshot)

	log.Info("player joined room", "roomCode", snapshot.Code, "symbol", symbol)

	return nil
}

// handleJoinExistingRoom - re-attaches a game-page connection to the slot it
// negotiated through create_room/join_room.
func (that *Server) handleJoinExistingRoom(ctx context.Context, c *client, msg *Message) error {
	log := that.logger.With("method", "handleJoinExistingRoom", "connID", c.id)

	var req JoinExistingRoomRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	roomCode := strings.ToUpper(strings.TrimSpace(req.RoomCode))
	userID := that.resolveUserID(ctx, req.Token)

	snapshot, err := that.coordinator.RejoinRoom(ctx, c.id, roomCode, req.PlayerName, req.PlayerSymbol, userID)
	if err != nil {
		log.Error("failed to rejoin room", "roomCode", roomCode, "error", err)
		return that.ack(c, msg, AckPayload{Error: errorTag(err)})
	}

	that.bindRoom(c, snapshot.Code)

	if err = that.ack(c, msg, AckPayload{Success: true}); err != nil {
		return err
	}

	that.broadcastGameReady(snapshot)

	return nil
}

func (that *Server) handleMakeMove(ctx context.Context, c *client, msg *Message) error {
	log := that.logger.With("method", "handleMakeMove", "connID", c.id)

	var req MakeMoveRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	roomCode := strings.ToUpper(strings.TrimSpace(req.RoomCode))

	result, err := that.coordinator.ApplyMove(ctx, c.id, roomCode, req.CellIndex)
	if err != nil {
		// validation failures go back to the requester only, never broadcast
		log.Debug("move rejected", "roomCode", roomCode, "cell", req.CellIndex, "error", err)
		return that.ack(c, msg, AckPayload{Error: errorTag(err)})
	}

	if err = that.ack(c, msg, AckPayload{Success: true}); err != nil {
		return err
	}

	payload := MoveMadePayload{
		Position:  result.Position,
		Player:    result.Symbol,
		GameState: newGameState(result.Room),
	}
	if result.RoundOver {
		payload.GameSession = result.Room.Session
	}

	that.broadcast(result.Room.Players, actionMoveMade, payload)

	return nil
}

// handlePlayerReady - the ready flow; also serves new_round, a legacy alias
// for older clients. Fire-and-forget, so rejections are only logged.
func (that *Server) handlePlayerReady(ctx context.Context, c *client, msg *Message) error {
	log := that.logger.With("method", "handlePlayerReady", "connID", c.id)

	var req RoomRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	roomCode := strings.ToUpper(strings.TrimSpace(req.RoomCode))

	result, err := that.coordinator.MarkReady(ctx, c.id, roomCode)
	if err != nil {
		log.Debug("ready signal rejected", "roomCode", roomCode, "error", err)
		return nil
	}

	that.broadcast(result.Room.Players, actionPlayerReadyStatus, ReadyStatusPayload{
		ReadyCount:   result.ReadyCount,
		TotalPlayers: result.TotalPlayers,
		PlayerReady:  result.PlayerName,
	})

	if result.RoundStarted {
		that.broadcast(result.Room.Players, actionNewRoundStarted, NewRoundStartedPayload{
			GameState:   newGameState(result.Room),
			Players:     result.Room.Players,
			GameSession: result.Room.Session,
		})

		log.Info("new round started", "roomCode", roomCode)
	}

	return nil
}

// handleSendMessage - chat side-channel. Messages are never stored
// server-side; they get an id and timestamp and fan out to the room.
func (that *Server) handleSendMessage(ctx context.Context, c *client, msg *Message) error {
	var req SendMessageRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if strings.TrimSpace(req.Message) == "" {
		return nil
	}

	roomCode := strings.ToUpper(strings.TrimSpace(req.RoomCode))

	snapshot, err := that.coordinator.Room(ctx, roomCode)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}

	that.broadcast(snapshot.Players, actionNewMessage, ChatMessagePayload{
		ID:         uuid.NewString(),
		PlayerName: req.PlayerName,
		Message:    req.Message,
		Timestamp:  time.Now(),
	})

	return nil
}

// broadcastGameReady - announces readiness once both slots are filled.
func (that *Server) broadcastGameReady(snapshot entity.RoomSnapshot) {
	if len(snapshot.Players) < entity.MaxPlayers {
		return
	}

	that.broadcast(snapshot.Players, actionGameReady, GameReadyPayload{
		Players:     snapshot.Players,
		GameState:   newGameState(snapshot),
		GameSession: snapshot.Session,
	})
}

func snapshotPlayer(snapshot entity.RoomSnapshot, id string) *entity.Player {
	for i := range snapshot.Players {
		if snapshot.Players[i].ID == id {
			return &snapshot.Players[i]
		}
	}
	return nil
}
