package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/najdeno/internal/model"
)

// ItemFilter narrows an item listing. Zero-valued fields are ignored.
type ItemFilter struct {
	PostType     string // "lost" or "found"
	Category     string
	Query        string // substring match over title, description, location
	ContactEmail string // reporter's email, for "my items"
}

// CreateItem creates a new item report. The report's initial status equals
// its post type.
func CreateItem(ctx context.Context, db *sql.DB, item *model.Item) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (post_type, title, description, category, location, date,
		                    thumbnail, contact_name, contact_email, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.PostType, item.Title, item.Description, item.Category, item.Location,
		item.Date, item.Thumbnail, item.ContactName, item.ContactEmail, item.PostType,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item := &model.Item{}
	var description, location, thumbnail, photoMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, post_type, title, description, category, location, date, thumbnail,
		        contact_name, contact_email, status, photo_mime, created_at, updated_at, deleted_at
		 FROM items WHERE id = ?`, id,
	).Scan(&item.ID, &item.PostType, &item.Title, &description, &item.Category,
		&location, &item.Date, &thumbnail, &item.ContactName, &item.ContactEmail,
		&item.Status, &photoMime, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.Description = description.String
	item.Location = location.String
	item.Thumbnail = thumbnail.String
	item.PhotoMime = photoMime.String
	return item, nil
}

// ListItems returns all non-deleted items matching the filter, newest first.
func ListItems(ctx context.Context, db *sql.DB, filter ItemFilter) ([]model.Item, error) {
	query := `SELECT id, post_type, title, description, category, location, date, thumbnail,
	                 contact_name, contact_email, status, photo_mime, created_at, updated_at, deleted_at
	          FROM items WHERE deleted_at IS NULL`
	var args []any

	if filter.PostType != "" {
		query += ` AND post_type = ?`
		args = append(args, filter.PostType)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.ContactEmail != "" {
		query += ` AND contact_email = ?`
		args = append(args, filter.ContactEmail)
	}
	if filter.Query != "" {
		query += ` AND (title LIKE ? OR description LIKE ? OR location LIKE ?)`
		pattern := "%" + filter.Query + "%"
		args = append(args, pattern, pattern, pattern)
	}

	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		var description, location, thumbnail, photoMime sql.NullString
		if err := rows.Scan(&item.ID, &item.PostType, &item.Title, &description, &item.Category,
			&location, &item.Date, &thumbnail, &item.ContactName, &item.ContactEmail,
			&item.Status, &photoMime, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.Description = description.String
		item.Location = location.String
		item.Thumbnail = thumbnail.String
		item.PhotoMime = photoMime.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem updates a report's mutable fields. Contact fields and status are
// deliberately not part of the update: contact identity is pinned to the owner
// and status only moves through RecoverItem.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, item *model.Item) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET post_type = ?, title = ?, description = ?, category = ?,
		        location = ?, date = ?, thumbnail = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		item.PostType, item.Title, item.Description, item.Category,
		item.Location, item.Date, item.Thumbnail, id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// DeleteItem soft-deletes an item report.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// SetItemPhoto sets an item's photo data.
func SetItemPhoto(ctx context.Context, db *sql.DB, id int64, photo []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET photo = ?, photo_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		photo, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item photo: %w", err)
	}
	return nil
}

// GetItemPhoto returns an item's photo data and MIME type.
func GetItemPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM items WHERE id = ?`, id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item photo: %w", err)
	}
	return photo, mime.String, nil
}
