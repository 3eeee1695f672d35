package registry

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/playroomlab/tictactoe-rooms-backend/internal/apperror"
	"github.com/playroomlab/tictactoe-rooms-backend/internal/entity"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	maxCodeAttempts = 10
)

// Options - lifecycle knobs for the registry's cleanup pass.
type Options struct {
	WaitingTTL      time.Duration
	AbandonedGrace  time.Duration
	CleanupInterval time.Duration
}

// Registry - process-wide map of room code to room. The registry mutex
// guards only the map itself; per-room state is guarded by the room's own
// lock, which the registry takes for join and rebind.
type Registry struct {
	logger *slog.Logger
	opts   Options

	rooms map[string]*entity.Room
	mu    sync.RWMutex

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(logger *slog.Logger, opts Options) *Registry {
	registry := &Registry{
		logger: logger.With("component", "registry"),
		opts:   opts,
		rooms:  make(map[string]*entity.Room),
		stopCh: make(chan struct{}),
	}

	if opts.CleanupInterval > 0 {
		registry.wg.Add(1)
		go registry.cleanupLoop()
	}

	return registry
}

// CreateRoom - allocates a unique code and creates a room with the creator
// in the X slot. Retries on code collision; exhaustion is transient and the
// caller may retry.
func (that *Registry) CreateRoom(creator *entity.Player) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate room code: %w", err)
		}

		if _, exists := that.rooms[code]; exists {
			continue
		}

		room := entity.NewRoom(code, creator)
		that.rooms[code] = room

		that.logger.Info("room created", "roomCode", code, "playerName", creator.Name)

		return room, nil
	}

	return nil, apperror.ErrRoomCreationFailed
}

// Get - looks up a room by code.
func (that *Registry) Get(code string) (*entity.Room, error) {
	that.mu.RLock()
	room, exists := that.rooms[code]
	that.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, code)
	}

	return room, nil
}

// JoinRoom - binds the joiner into the remaining slot and activates the
// room. An abandoned room still counts as full until cleanup removes it.
func (that *Registry) JoinRoom(code string, joiner *entity.Player) (*entity.Room, error) {
	room, err := that.Get(code)
	if err != nil {
		return nil, err
	}

	room.Lock()
	defer room.Unlock()

	if err = room.AddPlayer(joiner); err != nil {
		return nil, err
	}

	that.logger.Info("player joined room", "roomCode", code, "playerName", joiner.Name, "symbol", joiner.Symbol)

	return room, nil
}

// Remove - deletes a room; no-op for unknown codes.
func (that *Registry) Remove(code string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, exists := that.rooms[code]; exists {
		delete(that.rooms, code)
		that.logger.Info("room removed", "roomCode", code)
	}
}

// Len - number of live rooms.
func (that *Registry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}

// Stop - stops the cleanup loop and waits for it to drain.
func (that *Registry) Stop() {
	that.stopOnce.Do(func() {
		close(that.stopCh)
	})
	that.wg.Wait()
}

func (that *Registry) cleanupLoop() {
	defer that.wg.Done()

	ticker := time.NewTicker(that.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-that.stopCh:
			return
		case <-ticker.C:
			that.CleanupPass()
		}
	}
}

// CleanupPass - evicts rooms stuck waiting past the TTL and abandoned rooms
// past the grace period.
func (that *Registry) CleanupPass() {
	now := time.Now()

	that.mu.Lock()
	defer that.mu.Unlock()

	for code, room := range that.rooms {
		room.Lock()
		stale := room.IsWaiting() && that.opts.WaitingTTL > 0 && now.Sub(room.CreatedAt) > that.opts.WaitingTTL
		abandoned := room.IsAbandoned() && now.Sub(room.AbandonedAt) > that.opts.AbandonedGrace
		room.Unlock()

		if stale || abandoned {
			delete(that.rooms, code)
			that.logger.Info("room evicted", "roomCode", code, "abandoned", abandoned)
		}
	}
}

// generateCode - 6 uppercase alphanumeric characters from crypto/rand.
func generateCode() (string, error) {
	code := make([]byte, codeLength)

	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		code[i] = codeAlphabet[n.Int64()]
	}

	return string(code), nil
}
