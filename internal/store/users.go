package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/najdeno/internal/model"
)

// CreateUser creates a new user account.
func CreateUser(ctx context.Context, db *sql.DB, email, displayName, photoURL, passwordHash string) (*model.User, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (email, display_name, photo_url, password_hash) VALUES (?, ?, ?, ?)`,
		email, displayName, photoURL, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return getUser(ctx, db, id)
}

// getUser returns a user by ID.
func getUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u := &model.User{}
	var photoURL sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, email, display_name, photo_url, password_hash, created_at, deleted_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &photoURL, &u.PasswordHash, &u.CreatedAt, &u.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	u.PhotoURL = photoURL.String
	return u, nil
}

// GetUserByEmail returns the active user for an email address.
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*model.User, error) {
	u := &model.User{}
	var photoURL sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, email, display_name, photo_url, password_hash, created_at, deleted_at
		 FROM users WHERE email = ? AND deleted_at IS NULL`, email,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &photoURL, &u.PasswordHash, &u.CreatedAt, &u.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	u.PhotoURL = photoURL.String
	return u, nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, email, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE email = ? AND deleted_at IS NULL`,
		passwordHash, email,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}
