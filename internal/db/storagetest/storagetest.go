// Package storagetest holds the behaviour every credential store must show,
// run against each implementation from its own package tests.
package storagetest

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/walletauth/internal/db/storage"
	"github.com/patric-chuzhbe/walletauth/internal/models"
	"github.com/patric-chuzhbe/walletauth/internal/user"
)

func newUser(email string) *user.User {
	return &user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "$2a$12$opaquehashvalueopaquehashvalueopaquehashvalueopaqu",
	}
}

// Run exercises store against the storage.Storage contract.
func Run(t *testing.T, store storage.Storage) {
	ctx := context.Background()

	t.Run("create_and_get", func(t *testing.T) {
		usr := newUser("create@example.com")

		id, err := store.CreateUser(ctx, usr)
		require.NoError(t, err)
		assert.Equal(t, usr.ID, id)

		byEmail, err := store.GetUserByEmail(ctx, "create@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, byEmail.ID)
		assert.Equal(t, usr.PasswordHash, byEmail.PasswordHash)
		assert.False(t, byEmail.CreatedAt.IsZero())

		byID, err := store.GetUserByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "create@example.com", byID.Email)
	})

	t.Run("duplicate_email", func(t *testing.T) {
		_, err := store.CreateUser(ctx, newUser("dup@example.com"))
		require.NoError(t, err)

		_, err = store.CreateUser(ctx, newUser("dup@example.com"))
		assert.ErrorIs(t, err, models.ErrUserExists)
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := store.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, models.ErrUserNotFound)

		_, err = store.GetUserByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})

	t.Run("concurrent_duplicate_registration", func(t *testing.T) {
		const attempts = 8

		var wg sync.WaitGroup
		errs := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = store.CreateUser(ctx, newUser("race@example.com"))
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, models.ErrUserExists)
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}
