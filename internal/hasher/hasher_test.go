package hasher

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	h, err := New(bcrypt.MinCost, 2)
	require.NoError(t, err)

	ctx := context.Background()

	hash, err := h.Hash(ctx, "password1")
	require.NoError(t, err)

	assert.NotEqual(t, "password1", hash)
	assert.NotContains(t, hash, "password1")

	assert.NoError(t, h.Compare(ctx, hash, "password1"))
	assert.ErrorIs(t, h.Compare(ctx, hash, "password2"), ErrMismatch)
	assert.ErrorIs(t, h.Compare(ctx, hash, "Password1"), ErrMismatch)
}

func TestHashesAreSalted(t *testing.T) {
	h, err := New(bcrypt.MinCost, 1)
	require.NoError(t, err)

	first, err := h.Hash(context.Background(), "password1")
	require.NoError(t, err)
	second, err := h.Hash(context.Background(), "password1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCostIsApplied(t *testing.T) {
	h, err := New(bcrypt.MinCost+1, 1)
	require.NoError(t, err)

	hash, err := h.Hash(context.Background(), "password1")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
}

func TestMalformedHash(t *testing.T) {
	h, err := New(bcrypt.MinCost, 1)
	require.NoError(t, err)

	err = h.Compare(context.Background(), "not-a-hash", "password1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatch)
}

func TestLongPasswordUsesFirst72Bytes(t *testing.T) {
	h, err := New(bcrypt.MinCost, 1)
	require.NoError(t, err)
	ctx := context.Background()

	prefix := strings.Repeat("a", MaxPasswordBytes)

	hash, err := h.Hash(ctx, prefix+"tail-one")
	require.NoError(t, err)

	assert.NoError(t, h.Compare(ctx, hash, prefix+"tail-one"))
	assert.NoError(t, h.Compare(ctx, hash, prefix+"another-tail"))
	assert.ErrorIs(t, h.Compare(ctx, hash, "b"+prefix[1:]+"tail-one"), ErrMismatch)
}

func TestHashRespectsContextWhenSaturated(t *testing.T) {
	h, err := New(bcrypt.MinCost, 1)
	require.NoError(t, err)

	require.NoError(t, h.slots.Acquire(context.Background(), 1))
	defer h.slots.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = h.Hash(ctx, "password1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
