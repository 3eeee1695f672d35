package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playroomlab/tictactoe-rooms-backend/internal/apperror"
	"github.com/playroomlab/tictactoe-rooms-backend/internal/entity"
	"github.com/playroomlab/tictactoe-rooms-backend/testing/suite"
)

func TestUserRepository(t *testing.T) {
	ctx, st := suite.NewSQLite(t)

	repo := NewUserRepository(st.Connection)

	t.Run("Saved user is found by email", func(t *testing.T) {
		// Given: a saved account
		user := &entity.User{ID: "user-1", Email: "alice@example.com", Name: "alice"}
		require.NoError(t, repo.Save(ctx, user))

		// When: it is looked up by email
		got, err := repo.FindByEmail(ctx, "alice@example.com")

		// Then: the same account comes back
		require.NoError(t, err)
		assert.Equal(t, user, got)
	})

	t.Run("Unknown email yields ErrNotFound", func(t *testing.T) {
		// When: looking up an email nobody registered
		_, err := repo.FindByEmail(ctx, "nobody@example.com")

		// Then: the sentinel comes back
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("Duplicate email is rejected", func(t *testing.T) {
		// Given: a saved account
		require.NoError(t, repo.Save(ctx, &entity.User{ID: "user-2", Email: "bob@example.com", Name: "bob"}))

		// When: another account claims the same email
		err := repo.Save(ctx, &entity.User{ID: "user-3", Email: "bob@example.com", Name: "bobby"})

		// Then: the unique constraint fires
		assert.Error(t, err)
	})
}
