package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/playroomlab/tictactoe-rooms-backend/internal/entity"
)

var ErrInvalidToken = errors.New("invalid token")

// IdentityService - resolves an optional client token to a persisted
// account. A failed resolution never blocks play; callers fall back to an
// anonymous player.
type IdentityService interface {
	Resolve(ctx context.Context, token string) (*entity.User, error)
}

type userRepo interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

type identityService struct {
	secretKey string
	userRepo  userRepo
}

func NewIdentityService(secretKey string, userRepo userRepo) IdentityService {
	return &identityService{
		secretKey: secretKey,
		userRepo:  userRepo,
	}
}

func (that *identityService) Resolve(ctx context.Context, tokenString string) (*entity.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, token.Header["alg"])
		}
		return []byte(that.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return nil, fmt.Errorf("%w: missing email claim", ErrInvalidToken)
	}

	user, err := that.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}
