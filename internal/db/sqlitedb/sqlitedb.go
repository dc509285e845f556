// Package sqlitedb keeps users in a single SQLite file. It is meant for
// development and single-instance deployments where running PostgreSQL is
// not worth it.
package sqlitedb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/patric-chuzhbe/walletauth/internal/models"
	"github.com/patric-chuzhbe/walletauth/internal/user"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteDB is a SQLite-backed user store.
type SQLiteDB struct {
	database *sql.DB
}

// New opens (creating if needed) the database file and applies migrations.
func New(ctx context.Context, fileName string) (*SQLiteDB, error) {
	database, err := sql.Open(
		"sqlite3",
		fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", fileName),
	)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/sqlitedb/sqlitedb.go/New(): error while `sql.Open()` calling: %w", err)
	}

	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, errors.Join(
			fmt.Errorf("in internal/db/sqlitedb/sqlitedb.go/New(): error while `goose.SetDialect()` calling: %w", err),
			database.Close(),
		)
	}

	if err := goose.UpContext(ctx, database, "migrations"); err != nil {
		return nil, errors.Join(
			fmt.Errorf("in internal/db/sqlitedb/sqlitedb.go/New(): error while `goose.UpContext()` calling: %w", err),
			database.Close(),
		)
	}

	return &SQLiteDB{database: database}, nil
}

// CreateUser inserts a new user row; the UNIQUE constraint on email turns a
// duplicate into models.ErrUserExists.
func (db *SQLiteDB) CreateUser(ctx context.Context, usr *user.User) (string, error) {
	usr.CreatedAt = time.Now().UTC()

	_, err := db.database.ExecContext(
		ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		usr.ID,
		usr.Email,
		usr.PasswordHash,
		usr.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return "", models.ErrUserExists
		}
		return "", err
	}

	return usr.ID, nil
}

func (db *SQLiteDB) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return db.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email)
}

func (db *SQLiteDB) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	return db.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, userID)
}

func (db *SQLiteDB) getUser(ctx context.Context, query string, arg string) (*user.User, error) {
	usr := &user.User{}
	err := db.database.QueryRowContext(ctx, query, arg).
		Scan(&usr.ID, &usr.Email, &usr.PasswordHash, &usr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}

	return usr, nil
}

func (db *SQLiteDB) Ping(ctx context.Context) error {
	return db.database.PingContext(ctx)
}

func (db *SQLiteDB) Close() error {
	return db.database.Close()
}
