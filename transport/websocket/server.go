package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/playroomlab/tictactoe-rooms-backend/internal/apperror"
	"github.com/playroomlab/tictactoe-rooms-backend/internal/entity"
	"github.com/playroomlab/tictactoe-rooms-backend/internal/usecase"
)

type coordinator interface {
	CreateRoom(ctx context.Context, connID, playerName, userID string) (entity.RoomSnapshot, error)
	JoinRoom(ctx context.Context, connID, roomCode, playerName, userID string) (entity.RoomSnapshot, error)
	RejoinRoom(ctx context.Context, connID, roomCode, playerName, playerSymbol, userID string) (entity.RoomSnapshot, error)
	Room(ctx context.Context, roomCode string) (entity.RoomSnapshot, error)

	ApplyMove(ctx context.Context, connID, roomCode string, cell int) (usecase.MoveResult, error)
	MarkReady(ctx context.Context, connID, roomCode string) (usecase.ReadyResult, error)
	Disconnect(ctx context.Context, connID, roomCode string) (usecase.DisconnectResult, error)
}

type identityResolver interface {
	Resolve(ctx context.Context, token string) (*entity.User, error)
}

// client - one live connection and its room binding. Writes are serialized
// through the client's own mutex because broadcasts and acks can race.
type client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex

	roomCode string
}

type Server struct {
	logger      *slog.Logger
	coordinator coordinator
	identity    identityResolver
	upgrader    websocket.Upgrader

	clients map[string]*client
	mu      sync.RWMutex

	handlers map[string]func(ctx context.Context, c *client, msg *Message) error
}

func New(logger *slog.Logger, coordinator coordinator, identity identityResolver) *Server {
	server := &Server{
		logger:      logger.With("component", "websocket"),
		coordinator: coordinator,
		identity:    identity,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},

		clients:  make(map[string]*client),
		handlers: make(map[string]func(context.Context, *client, *Message) error),
	}

	server.handlers[actionCreateRoom] = server.handleCreateRoom
	server.handlers[actionJoinRoom] = server.handleJoinRoom
	server.handlers[actionJoinExistingRoom] = server.handleJoinExistingRoom
	server.handlers[actionMakeMove] = server.handleMakeMove
	server.handlers[actionPlayerReady] = server.handlePlayerReady
	server.handlers[actionNewRound] = server.handlePlayerReady // legacy alias, same ready flow
	server.handlers[actionSendMessage] = server.handleSendMessage

	return server
}

// Handler - the /ws endpoint, exposed separately so tests can mount it.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(r.Context(), w, r)
	})

	return mux
}

// Start - starts the WebSocket server and shuts it down when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveConnection - upgrades the connection and runs its read loop. Each
// connection gets its own id, which doubles as the player id for any slot
// the connection binds to.
func (that *Server) serveConnection(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveConnection")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
	}

	that.mu.Lock()
	that.clients[c.id] = c
	that.mu.Unlock()

	log.Info("WebSocket connection established", "connID", c.id)

	that.readLoop(ctx, c)
	that.handleDisconnect(ctx, c)
}

func (that *Server) readLoop(ctx context.Context, c *client) {
	log := that.logger.With("method", "readLoop", "connID", c.id)

	for {
		_, reqBody, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("connection closed unexpectedly", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			continue
		}

		if err = handler(ctx, c, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// handleDisconnect - tears the connection's room binding down and notifies
// the remaining participant.
func (that *Server) handleDisconnect(ctx context.Context, c *client) {
	log := that.logger.With("method", "handleDisconnect", "connID", c.id)

	that.mu.Lock()
	delete(that.clients, c.id)
	roomCode := c.roomCode
	that.mu.Unlock()

	_ = c.conn.Close()

	if roomCode == "" {
		return
	}

	result, err := that.coordinator.Disconnect(ctx, c.id, roomCode)
	if err != nil {
		log.Error("failed to handle disconnect", "roomCode", roomCode, "error", err)
		return
	}

	if result.NotifyPlayerID != "" {
		that.sendToPlayer(result.NotifyPlayerID, actionPlayerDisconnected, struct{}{})
	}

	log.Info("connection closed", "roomCode", roomCode, "roomRemoved", result.Removed)
}

func (that *Server) bindRoom(c *client, roomCode string) {
	that.mu.Lock()
	c.roomCode = roomCode
	that.mu.Unlock()
}

// resolveUserID - resolves an optional token to an account id. Resolution
// failures degrade to anonymous play.
func (that *Server) resolveUserID(ctx context.Context, token string) string {
	if token == "" {
		return ""
	}

	user, err := that.identity.Resolve(ctx, token)
	if err != nil {
		that.logger.Debug("token resolution failed, playing anonymously", "error", err)
		return ""
	}

	return user.ID
}

func (that *Server) send(c *client, message Message) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err = c.conn.WriteMessage(websocket.TextMessage, body); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// ack - acknowledgment back to the requesting connection, never broadcast.
func (that *Server) ack(c *client, msg *Message, payload AckPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal ack: %w", err)
	}

	return that.send(c, Message{Action: msg.Action, ID: msg.ID, Payload: body})
}

func (that *Server) sendToPlayer(playerID, action string, payload any) {
	that.mu.RLock()
	c, ok := that.clients[playerID]
	that.mu.RUnlock()

	if !ok {
		that.logger.Debug("connection not found for player", "playerID", playerID, "action", action)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		that.logger.Error("failed to marshal payload", "action", action, "error", err)
		return
	}

	if err = that.send(c, Message{Action: action, Payload: body}); err != nil {
		that.logger.Error("failed to send event", "action", action, "playerID", playerID, "error", err)
	}
}

// broadcast - sends the same payload to every player in the snapshot, so
// neither connection ever sees newer state than the other for one event.
func (that *Server) broadcast(players []entity.Player, action string, payload any) {
	for _, player := range players {
		that.sendToPlayer(player.ID, action, payload)
	}
}

// errorTag - stable error names for ack payloads.
func errorTag(err error) string {
	switch {
	case errors.Is(err, apperror.ErrRoomNotFound):
		return "RoomNotFound"
	case errors.Is(err, apperror.ErrRoomFull):
		return "RoomFull"
	case errors.Is(err, apperror.ErrRoomCreationFailed):
		return "RoomCreationFailed"
	case errors.Is(err, apperror.ErrNotYourTurn):
		return "OutOfTurn"
	case errors.Is(err, apperror.ErrCellOccupied):
		return "CellOccupied"
	case errors.Is(err, apperror.ErrRoundAlreadyOver):
		return "RoundAlreadyOver"
	case errors.Is(err, apperror.ErrInvalidCell):
		return "InvalidCell"
	case errors.Is(err, apperror.ErrRoomNotActive), errors.Is(err, apperror.ErrNotInRoom):
		return "InvalidRoom"
	default:
		return "InternalError"
	}
}
