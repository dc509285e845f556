// Package memorystorage keeps users in process memory. Data is lost on
// restart; it backs tests and local runs without a database.
package memorystorage

import (
	"context"
	"sync"
	"time"

	"github.com/patric-chuzhbe/walletauth/internal/models"
	"github.com/patric-chuzhbe/walletauth/internal/user"
)

type MemoryStorage struct {
	mu      sync.RWMutex
	byID    map[string]*user.User
	byEmail map[string]*user.User
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		byID:    map[string]*user.User{},
		byEmail: map[string]*user.User{},
	}, nil
}

// CreateUser checks and inserts under one lock, so of two concurrent
// registrations of the same email exactly one succeeds.
func (theStorage *MemoryStorage) CreateUser(ctx context.Context, usr *user.User) (string, error) {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	if _, exists := theStorage.byEmail[usr.Email]; exists {
		return "", models.ErrUserExists
	}

	usr.CreatedAt = time.Now().UTC()
	stored := *usr
	theStorage.byID[stored.ID] = &stored
	theStorage.byEmail[stored.Email] = &stored

	return stored.ID, nil
}

func (theStorage *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	return copyOrNotFound(theStorage.byEmail[email])
}

func (theStorage *MemoryStorage) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	return copyOrNotFound(theStorage.byID[userID])
}

// Count returns the number of stored users.
func (theStorage *MemoryStorage) Count() int {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	return len(theStorage.byID)
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func copyOrNotFound(usr *user.User) (*user.User, error) {
	if usr == nil {
		return nil, models.ErrUserNotFound
	}
	result := *usr

	return &result, nil
}
