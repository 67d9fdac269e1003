package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/najdeno/internal/model"
)

// Errors the claim handler needs to distinguish.
var (
	ErrItemNotFound  = errors.New("item not found")
	ErrItemRecovered = errors.New("item already recovered")
)

// RecoverItem records a recovery claim and transitions the item to recovered,
// atomically. The claims table carries UNIQUE(item_id), so even two
// submissions racing past the status check cannot both persist: the loser
// gets ErrItemRecovered. Recovered is terminal; nothing moves an item out
// of it.
func RecoverItem(ctx context.Context, db *sql.DB, claim *model.Claim) (*model.Claim, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status, title string
	err = tx.QueryRowContext(ctx,
		`SELECT status, title FROM items WHERE id = ? AND deleted_at IS NULL`,
		claim.ItemID,
	).Scan(&status, &title)
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checking item status: %w", err)
	}

	if !model.Claimable(status) {
		return nil, ErrItemRecovered
	}

	// INSERT OR IGNORE + RowsAffected instead of parsing constraint errors:
	// zero rows means a concurrent claim won the unique index.
	result, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO claims (item_id, user_email, recovered_location, recovered_date, title, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		claim.ItemID, claim.UserEmail, claim.RecoveredLocation, claim.RecoveredDate,
		title, model.ClaimStatusRecovered,
	)
	if err != nil {
		return nil, fmt.Errorf("creating claim: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking claim insert: %w", err)
	}
	if affected == 0 {
		return nil, ErrItemRecovered
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting claim id: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.ItemStatusRecovered, claim.ItemID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing claim: %w", err)
	}

	return GetClaim(ctx, db, id)
}

// GetClaim returns a claim by ID.
func GetClaim(ctx context.Context, db *sql.DB, id int64) (*model.Claim, error) {
	c := &model.Claim{}
	err := db.QueryRowContext(ctx,
		`SELECT id, item_id, user_email, recovered_location, recovered_date, title, status, created_at
		 FROM claims WHERE id = ?`, id,
	).Scan(&c.ID, &c.ItemID, &c.UserEmail, &c.RecoveredLocation, &c.RecoveredDate,
		&c.Title, &c.Status, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting claim: %w", err)
	}
	return c, nil
}

// GetClaimByItem returns the claim for an item, if one exists.
func GetClaimByItem(ctx context.Context, db *sql.DB, itemID int64) (*model.Claim, error) {
	c := &model.Claim{}
	err := db.QueryRowContext(ctx,
		`SELECT id, item_id, user_email, recovered_location, recovered_date, title, status, created_at
		 FROM claims WHERE item_id = ?`, itemID,
	).Scan(&c.ID, &c.ItemID, &c.UserEmail, &c.RecoveredLocation, &c.RecoveredDate,
		&c.Title, &c.Status, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting claim by item: %w", err)
	}
	return c, nil
}

// ListClaimsByUser returns a user's claims, newest first.
func ListClaimsByUser(ctx context.Context, db *sql.DB, email string) ([]model.Claim, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, user_email, recovered_location, recovered_date, title, status, created_at
		 FROM claims WHERE user_email = ? ORDER BY created_at DESC, id DESC`, email,
	)
	if err != nil {
		return nil, fmt.Errorf("listing claims: %w", err)
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		var c model.Claim
		if err := rows.Scan(&c.ID, &c.ItemID, &c.UserEmail, &c.RecoveredLocation,
			&c.RecoveredDate, &c.Title, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}
