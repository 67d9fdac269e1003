package model

import (
	"fmt"
	"time"
)

// Item represents a lost-or-found report posted by a user.
type Item struct {
	ID           int64      `json:"id"`
	PostType     string     `json:"post_type"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Category     string     `json:"category"`
	Location     string     `json:"location,omitempty"`
	Date         string     `json:"date"`
	Thumbnail    string     `json:"thumbnail,omitempty"`
	ContactName  string     `json:"contact_name"`
	ContactEmail string     `json:"contact_email"`
	Status       string     `json:"status"`
	PhotoMime    string     `json:"photo_mime,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Post types. A report's initial status equals its post type.
const (
	PostTypeLost  = "lost"
	PostTypeFound = "found"
)

// Item statuses. Recovered is terminal: no transition leads out of it.
const (
	ItemStatusLost      = "lost"
	ItemStatusFound     = "found"
	ItemStatusRecovered = "recovered"
)

// Categories is the closed set of item categories.
var Categories = []string{
	"electronics",
	"documents",
	"jewelry",
	"clothing",
	"accessories",
	"keys",
	"pets",
	"other",
}

// ValidPostType reports whether t is a known post type.
func ValidPostType(t string) bool {
	return t == PostTypeLost || t == PostTypeFound
}

// ValidCategory reports whether c is in the closed category set.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Claimable reports whether an item in the given status may still be
// claimed as recovered.
func Claimable(status string) bool {
	return status == ItemStatusLost || status == ItemStatusFound
}

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// ValidateDate checks that a calendar date is present and well-formed.
func ValidateDate(date string) error {
	if date == "" {
		return fmt.Errorf("date required")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("date must be formatted as %s", DateLayout)
	}
	return nil
}
