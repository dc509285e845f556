// Package storage declares the contract every credential store implements.
package storage

import (
	"context"

	"github.com/patric-chuzhbe/walletauth/internal/user"
)

// Storage persists users. Implementations enforce email uniqueness
// themselves: CreateUser returns models.ErrUserExists when the email is
// already taken, even if the caller checked beforehand.
type Storage interface {
	// CreateUser inserts usr atomically and returns its ID.
	CreateUser(ctx context.Context, usr *user.User) (string, error)

	// GetUserByEmail returns models.ErrUserNotFound when nothing matches.
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)

	// GetUserByID returns models.ErrUserNotFound when nothing matches.
	GetUserByID(ctx context.Context, userID string) (*user.User, error)

	Ping(ctx context.Context) error

	Close() error
}
