package sqlitedb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/walletauth/internal/db/storagetest"
)

func TestSQLiteDB(t *testing.T) {
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)

	storagetest.Run(t, db)

	assert.NoError(t, db.Close())
}

func TestMigrationsAreIdempotent(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "users.db")

	db, err := New(context.Background(), fileName)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = New(context.Background(), fileName)
	require.NoError(t, err)
	assert.NoError(t, db.Close())
}

func TestNewFailsForMissingDirectory(t *testing.T) {
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "missing", "users.db"))
	assert.Error(t, err)
	assert.Nil(t, db)
}
