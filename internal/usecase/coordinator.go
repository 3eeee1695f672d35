package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playroomlab/tictactoe-rooms-backend/internal/apperror"
	"github.com/playroomlab/tictactoe-rooms-backend/internal/entity"
)

type roomRegistry interface {
	CreateRoom(creator *entity.Player) (*entity.Room, error)
	Get(code string) (*entity.Room, error)
	JoinRoom(code string, joiner *entity.Player) (*entity.Room, error)
	Remove(code string)
}

type sessionBridge interface {
	StartSession(ctx context.Context, roomCode string, players []entity.Player) (*entity.GameSession, error)
	RecordRoundResult(ctx context.Context, sessionID, result string) (*entity.GameSession, error)
}

// RoomCoordinator - orchestrates room operations. Every operation locks the
// room for its whole read-validate-write sequence, which gives the same
// per-room serialization a single-threaded event loop would.
type RoomCoordinator struct {
	logger *slog.Logger

	registry roomRegistry
	sessions sessionBridge
}

func NewRoomCoordinator(logger *slog.Logger, registry roomRegistry, sessions sessionBridge) *RoomCoordinator {
	return &RoomCoordinator{
		logger: logger.With("component", "coordinator"),

		registry: registry,
		sessions: sessions,
	}
}

// MoveResult - outcome of a successfully applied move.
type MoveResult struct {
	Position  int
	Symbol    string
	RoundOver bool
	Room      entity.RoomSnapshot
}

// ReadyResult - outcome of a ready signal.
type ReadyResult struct {
	ReadyCount   int
	TotalPlayers int
	PlayerName   string
	RoundStarted bool
	Room         entity.RoomSnapshot
}

// DisconnectResult - what the transport must do after a disconnect.
type DisconnectResult struct {
	Removed        bool
	NotifyPlayerID string
}

// CreateRoom - allocates a room with the caller in the X slot.
func (that *RoomCoordinator) CreateRoom(_ context.Context, connID, playerName, userID string) (entity.RoomSnapshot, error) {
	creator := entity.NewPlayer(connID, playerName, userID)

	room, err := that.registry.CreateRoom(creator)
	if err != nil {
		return entity.RoomSnapshot{}, fmt.Errorf("failed to create room: %w", err)
	}

	room.Lock()
	defer room.Unlock()

	return room.Snapshot(), nil
}

// JoinRoom - binds the caller into the remaining slot and starts the
// persisted session once both slots are filled.
func (that *RoomCoordinator) JoinRoom(ctx context.Context, connID, roomCode, playerName, userID string) (entity.RoomSnapshot, error) {
	joiner := entity.NewPlayer(connID, playerName, userID)

	room, err := that.registry.JoinRoom(roomCode, joiner)
	if err != nil {
		return entity.RoomSnapshot{}, fmt.Errorf("failed to join room: %w", err)
	}

	room.Lock()
	defer room.Unlock()

	that.ensureSession(ctx, room)

	return room.Snapshot(), nil
}

// RejoinRoom - re-attaches a connection that already negotiated a slot via
// create/join. Matching on name+symbol is unambiguous because symbols are
// unique per room. An unknown slot falls back to a fresh join attempt.
func (that *RoomCoordinator) RejoinRoom(ctx context.Context, connID, roomCode, playerName, playerSymbol, userID string) (entity.RoomSnapshot, error) {
	room, err := that.registry.Get(roomCode)
	if err != nil {
		return entity.RoomSnapshot{}, fmt.Errorf("failed to get room: %w", err)
	}

	playerName = entity.SanitizePlayerName(playerName)

	room.Lock()
	defer room.Unlock()

	player := room.PlayerBySlot(playerName, playerSymbol)
	if player == nil {
		joiner := entity.NewPlayer(connID, playerName, userID)
		if err = room.AddPlayer(joiner); err != nil {
			return entity.RoomSnapshot{}, fmt.Errorf("failed to join room: %w", err)
		}
	} else {
		player.ID = connID
		if userID != "" {
			player.UserID = userID
		}
	}

	that.ensureSession(ctx, room)

	return room.Snapshot(), nil
}

// Room - snapshot of a room's current state.
func (that *RoomCoordinator) Room(_ context.Context, roomCode string) (entity.RoomSnapshot, error) {
	room, err := that.registry.Get(roomCode)
	if err != nil {
		return entity.RoomSnapshot{}, fmt.Errorf("failed to get room: %w", err)
	}

	room.Lock()
	defer room.Unlock()

	return room.Snapshot(), nil
}

// ApplyMove - applies one move for the player bound to connID. A round that
// concludes here is recorded through the session bridge before the result
// is returned; a bridge failure only leaves the stats stale.
func (that *RoomCoordinator) ApplyMove(ctx context.Context, connID, roomCode string, cell int) (MoveResult, error) {
	log := that.logger.With("method", "ApplyMove", "roomCode", roomCode)

	room, err := that.registry.Get(roomCode)
	if err != nil {
		return MoveResult{}, fmt.Errorf("failed to get room: %w", err)
	}

	room.Lock()
	defer room.Unlock()

	player := room.PlayerByID(connID)
	if player == nil {
		return MoveResult{}, apperror.ErrNotInRoom
	}

	if err = room.ApplyMove(player.Symbol, cell); err != nil {
		return MoveResult{}, fmt.Errorf("failed to apply move: %w", err)
	}

	if room.IsRoundOver() {
		that.recordRound(ctx, log, room)
	}

	return MoveResult{
		Position:  cell,
		Symbol:    player.Symbol,
		RoundOver: room.IsRoundOver(),
		Room:      room.Snapshot(),
	}, nil
}

// MarkReady - records a ready signal; when the second one lands, the board
// resets and a new round starts.
func (that *RoomCoordinator) MarkReady(_ context.Context, connID, roomCode string) (ReadyResult, error) {
	room, err := that.registry.Get(roomCode)
	if err != nil {
		return ReadyResult{}, fmt.Errorf("failed to get room: %w", err)
	}

	room.Lock()
	defer room.Unlock()

	player := room.PlayerByID(connID)
	if player == nil {
		return ReadyResult{}, apperror.ErrNotInRoom
	}

	if !room.IsRoundOver() {
		return ReadyResult{}, fmt.Errorf("%w: room %s", apperror.ErrRoomNotActive, roomCode)
	}

	count := room.MarkReady(connID)

	result := ReadyResult{
		ReadyCount:   count,
		TotalPlayers: entity.MaxPlayers,
		PlayerName:   player.Name,
	}

	if room.BothReady() {
		room.ResetRound()
		result.RoundStarted = true
	}

	result.Room = room.Snapshot()

	return result, nil
}

// Disconnect - handles a dropped connection. The first disconnect abandons
// the room and names the opponent to notify; once no live slot remains the
// room is removed outright. A connection whose slot was already rebound is
// a no-op.
func (that *RoomCoordinator) Disconnect(_ context.Context, connID, roomCode string) (DisconnectResult, error) {
	room, err := that.registry.Get(roomCode)
	if err != nil {
		return DisconnectResult{}, nil //nolint:nilerr // room already gone, nothing to clean up
	}

	room.Lock()

	player := room.PlayerByID(connID)
	if player == nil {
		room.Unlock()
		return DisconnectResult{}, nil
	}

	if room.IsAbandoned() || len(room.Players) < entity.MaxPlayers {
		room.Unlock()
		that.registry.Remove(roomCode)

		return DisconnectResult{Removed: true}, nil
	}

	room.Abandon()
	opponent := room.Opponent(connID)
	room.Unlock()

	result := DisconnectResult{}
	if opponent != nil {
		result.NotifyPlayerID = opponent.ID
	}

	that.logger.Info("room abandoned after disconnect", "roomCode", roomCode, "playerName", player.Name)

	return result, nil
}

// ensureSession - starts the persisted session once two slots are filled.
// Must be called with the room lock held.
func (that *RoomCoordinator) ensureSession(ctx context.Context, room *entity.Room) {
	if room.Session != nil || len(room.Players) < entity.MaxPlayers {
		return
	}

	snapshot := room.Snapshot()

	session, err := that.sessions.StartSession(ctx, room.Code, snapshot.Players)
	if err != nil {
		that.logger.Warn("failed to start game session, continuing without stats", "roomCode", room.Code, "error", err)
		return
	}

	room.Session = session
}

// recordRound - records a concluded round exactly once. Must be called with
// the room lock held, which also blocks further room events until the
// bridge call resolves.
func (that *RoomCoordinator) recordRound(ctx context.Context, log *slog.Logger, room *entity.Room) {
	if room.Session == nil {
		return
	}

	result := room.Winner
	if room.IsDraw {
		result = entity.ResultDraw
	}

	session, err := that.sessions.RecordRoundResult(ctx, room.Session.ID, result)
	if err != nil {
		log.Warn("failed to record round result, stats remain stale", "error", err)
		return
	}

	room.Session = session
}
