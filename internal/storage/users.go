package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"budgetwise/internal/models"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const userColumns = "id, username, email, password_hash, created_at"

// CreateUser creates a new user with the given username, email and password hash.
func (db *DB) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	var id int64
	err := db.conn.QueryRowContext(ctx,
		db.rebind("INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?) RETURNING id"),
		username, email, passwordHash, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		if dup := duplicateUserError(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return db.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return db.getUser(ctx, "id", id)
}

// GetUserByUsername retrieves a user by username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.getUser(ctx, "username", username)
}

// GetUserByEmail retrieves a user by email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.getUser(ctx, "email", email)
}

func (db *DB) getUser(ctx context.Context, column string, value any) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		db.rebind("SELECT "+userColumns+" FROM users WHERE "+column+" = ?"),
		value,
	)

	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// DeleteUser removes a user. Their expenses are removed by the cascading
// foreign key.
func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, db.rebind("DELETE FROM users WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// duplicateUserError maps a unique-constraint violation on users to
// ErrDuplicateEmail or ErrDuplicateUsername. It returns nil for other errors.
func duplicateUserError(err error) error {
	if !isUniqueViolation(err) {
		return nil
	}
	if strings.Contains(err.Error(), "email") {
		return ErrDuplicateEmail
	}
	return ErrDuplicateUsername
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		if liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		if liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
			return true
		}
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
