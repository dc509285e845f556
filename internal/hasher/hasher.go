// Package hasher wraps bcrypt behind a small interface and bounds the
// number of hashes computed at once, so a burst of logins queues for CPU
// instead of starving every other request.
//
// Cost 12 takes roughly 100-300ms per hash on commodity hardware. Raising
// it slows brute force and every register/login request alike.
package hasher

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// MaxPasswordBytes is the longest input bcrypt accepts. Longer passwords
// are cut to this length before hashing and comparing.
const MaxPasswordBytes = 72

// ErrMismatch is returned by Compare when the password does not match.
var ErrMismatch = errors.New("password does not match hash")

// Bcrypt hashes and verifies passwords.
type Bcrypt struct {
	cost  int
	slots *semaphore.Weighted

	// dummyHash is compared against when no stored hash exists, so both
	// login failure paths spend the same time.
	dummyHash []byte
}

// New creates a Bcrypt hasher with the given cost that computes at most
// maxConcurrent hashes at a time.
func New(cost int, maxConcurrent int) (*Bcrypt, error) {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	dummyHash, err := bcrypt.GenerateFromPassword([]byte("placeholder-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("in internal/hasher/hasher.go/New(): error while `bcrypt.GenerateFromPassword()` calling: %w", err)
	}

	return &Bcrypt{
		cost:      cost,
		slots:     semaphore.NewWeighted(int64(maxConcurrent)),
		dummyHash: dummyHash,
	}, nil
}

// Hash returns the bcrypt hash of password.
func (b *Bcrypt) Hash(ctx context.Context, password string) (string, error) {
	if err := b.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer b.slots.Release(1)

	hash, err := bcrypt.GenerateFromPassword(truncate(password), b.cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Compare checks password against hash in constant time. It returns
// ErrMismatch on a wrong password and any other error for a malformed hash.
func (b *Bcrypt) Compare(ctx context.Context, hash, password string) error {
	if err := b.slots.Acquire(ctx, 1); err != nil {
		return err
	}
	defer b.slots.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), truncate(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}

	return err
}

// CompareDummy burns the same work as Compare against a fixed hash. It is
// called when the user does not exist.
func (b *Bcrypt) CompareDummy(ctx context.Context, password string) {
	if err := b.slots.Acquire(ctx, 1); err != nil {
		return
	}
	defer b.slots.Release(1)

	_ = bcrypt.CompareHashAndPassword(b.dummyHash, truncate(password))
}

func truncate(password string) []byte {
	if len(password) > MaxPasswordBytes {
		return []byte(password[:MaxPasswordBytes])
	}

	return []byte(password)
}
