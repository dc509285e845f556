// Package service implements registration and login on top of a
// credential store, a password hasher and a session token issuer.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/patric-chuzhbe/walletauth/internal/hasher"
	"github.com/patric-chuzhbe/walletauth/internal/models"
	"github.com/patric-chuzhbe/walletauth/internal/user"
)

type userKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	GetUserByID(ctx context.Context, userID string) (*user.User, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	userKeeper
	pinger
}

type passwordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Compare(ctx context.Context, hash, password string) error
	CompareDummy(ctx context.Context, password string)
}

type tokenIssuer interface {
	BuildJWTString(userID, email string) (string, error)
}

// ErrInvalidInput is returned when the credentials fail shape validation.
var ErrInvalidInput = errors.New("invalid input")

// ErrConflict is returned when the email is already registered.
var ErrConflict = models.ErrUserExists

// ErrInvalidCredentials covers both an unknown email and a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUnauthorized is returned when a session refers to a user that no longer exists.
var ErrUnauthorized = errors.New("unauthorized")

type Service struct {
	db       storage
	hasher   passwordHasher
	tokens   tokenIssuer
	validate *validator.Validate
}

func New(
	db storage,
	hasher passwordHasher,
	tokens tokenIssuer,
) *Service {
	return &Service{
		db:       db,
		hasher:   hasher,
		tokens:   tokens,
		validate: validator.New(),
	}
}

// Validate checks the shape of credentials: a syntactically valid email and
// a password of at least 8 characters. Longer passwords are accepted; the
// hasher only looks at their first 72 bytes.
func (s *Service) Validate(credentials *models.Credentials) error {
	if err := s.validate.Struct(credentials); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return nil
}

// Register creates a user. The lookup before the insert only saves a hash
// computation for the common case; the store's uniqueness check decides races.
func (s *Service) Register(ctx context.Context, credentials models.Credentials) (string, error) {
	if err := s.Validate(&credentials); err != nil {
		return "", err
	}

	email := user.NormalizeEmail(credentials.Email)

	_, err := s.db.GetUserByEmail(ctx, email)
	if err == nil {
		return "", ErrConflict
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return "", fmt.Errorf("in internal/service/service.go/Register(): error while `s.db.GetUserByEmail()` calling: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, credentials.Password)
	if err != nil {
		return "", fmt.Errorf("in internal/service/service.go/Register(): error while `s.hasher.Hash()` calling: %w", err)
	}

	userID, err := s.db.CreateUser(ctx, &user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	})
	if errors.Is(err, models.ErrUserExists) {
		return "", ErrConflict
	}
	if err != nil {
		return "", fmt.Errorf("in internal/service/service.go/Register(): error while `s.db.CreateUser()` calling: %w", err)
	}

	return userID, nil
}

// Login verifies credentials and returns a signed session token. Unknown
// emails still pay for a hash comparison so both failures look alike.
func (s *Service) Login(ctx context.Context, credentials models.Credentials) (string, error) {
	if err := s.Validate(&credentials); err != nil {
		return "", err
	}

	usr, err := s.db.GetUserByEmail(ctx, user.NormalizeEmail(credentials.Email))
	if errors.Is(err, models.ErrUserNotFound) {
		s.hasher.CompareDummy(ctx, credentials.Password)
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("in internal/service/service.go/Login(): error while `s.db.GetUserByEmail()` calling: %w", err)
	}

	err = s.hasher.Compare(ctx, usr.PasswordHash, credentials.Password)
	if errors.Is(err, hasher.ErrMismatch) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("in internal/service/service.go/Login(): error while `s.hasher.Compare()` calling: %w", err)
	}

	token, err := s.tokens.BuildJWTString(usr.ID, usr.Email)
	if err != nil {
		return "", fmt.Errorf("in internal/service/service.go/Login(): error while `s.tokens.BuildJWTString()` calling: %w", err)
	}

	return token, nil
}

// CurrentUser returns the account a verified session points to.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*user.User, error) {
	usr, err := s.db.GetUserByID(ctx, userID)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("in internal/service/service.go/CurrentUser(): error while `s.db.GetUserByID()` calling: %w", err)
	}

	return usr, nil
}

// Ping reports whether the credential store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
