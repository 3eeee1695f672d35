package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/playroomlab/tictactoe-rooms-backend/internal/entity"
)

// bridgeTimeout caps the time a room stays blocked on a persistence call.
const bridgeTimeout = 3 * time.Second

type SessionService interface {
	StartSession(ctx context.Context, roomCode string, players []entity.Player) (*entity.GameSession, error)
	RecordRoundResult(ctx context.Context, sessionID, result string) (*entity.GameSession, error)
}

type sessionRepo interface {
	CreateOrUpdate(ctx context.Context, session *entity.GameSession) error
	GetByID(ctx context.Context, id string) (*entity.GameSession, error)
}

type sessionService struct {
	sessionRepo sessionRepo
}

func NewSessionService(sessionRepo sessionRepo) SessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
	}
}

// StartSession - creates the persisted aggregate for a freshly paired room.
// Player1 is the X slot.
func (that *sessionService) StartSession(ctx context.Context, roomCode string, players []entity.Player) (*entity.GameSession, error) {
	ctx, cancel := context.WithTimeout(ctx, bridgeTimeout)
	defer cancel()

	now := time.Now()
	session := &entity.GameSession{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, player := range players {
		if player.Symbol == entity.SymbolX {
			session.Player1Name = player.Name
			session.Player1ID = player.UserID
		} else {
			session.Player2Name = player.Name
			session.Player2ID = player.UserID
		}
	}

	if err := that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session for room %s: %w", roomCode, err)
	}

	return session, nil
}

// RecordRoundResult - applies one concluded round to the aggregate and
// persists it. Called exactly once per round.
func (that *sessionService) RecordRoundResult(ctx context.Context, sessionID, result string) (*entity.GameSession, error) {
	ctx, cancel := context.WithTimeout(ctx, bridgeTimeout)
	defer cancel()

	session, err := that.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session.RecordRound(result)

	if err = that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	return session, nil
}
