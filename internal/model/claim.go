package model

import "time"

// Claim represents a recovery claim asserting that an item report has been
// reunited with its owner. Claims are created once and never modified.
type Claim struct {
	ID                int64     `json:"id"`
	ItemID            int64     `json:"item_id"`
	UserEmail         string    `json:"user_email"`
	RecoveredLocation string    `json:"recovered_location"`
	RecoveredDate     string    `json:"recovered_date"`
	Title             string    `json:"title"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

// ClaimStatusRecovered is the only status a claim record can have.
const ClaimStatusRecovered = "recovered"

// ItemRecovered reports whether an item is already recovered, judged from the
// item's own status or from membership in a claim list. The two signals are
// independent: a claim may exist before the item's status has been refreshed.
func ItemRecovered(item *Item, claims []Claim) bool {
	if item == nil {
		return false
	}
	if item.Status == ItemStatusRecovered {
		return true
	}
	for _, c := range claims {
		if c.ItemID == item.ID {
			return true
		}
	}
	return false
}
