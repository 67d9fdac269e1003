package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

func testClaim(itemID int64) *model.Claim {
	return &model.Claim{
		ItemID:            itemID,
		UserEmail:         "bor@example.com",
		RecoveredLocation: "Library",
		RecoveredDate:     "2024-01-10",
	}
}

func TestRecoverItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, testItem(model.PostTypeLost))

	claim, err := RecoverItem(ctx, database, testClaim(item.ID))
	if err != nil {
		t.Fatalf("RecoverItem: %v", err)
	}
	if claim.Status != model.ClaimStatusRecovered {
		t.Errorf("expected claim status 'recovered', got %q", claim.Status)
	}
	if claim.Title != item.Title {
		t.Errorf("expected claim title copied from item, got %q", claim.Title)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Status != model.ItemStatusRecovered {
		t.Errorf("expected item status 'recovered', got %q", got.Status)
	}
}

func TestRecoverItemTwice(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, testItem(model.PostTypeFound))

	if _, err := RecoverItem(ctx, database, testClaim(item.ID)); err != nil {
		t.Fatalf("first RecoverItem: %v", err)
	}

	_, err := RecoverItem(ctx, database, testClaim(item.ID))
	if !errors.Is(err, ErrItemRecovered) {
		t.Errorf("expected ErrItemRecovered for second claim, got %v", err)
	}

	// Exactly one claim persisted.
	claims, _ := ListClaimsByUser(ctx, database, "bor@example.com")
	if len(claims) != 1 {
		t.Errorf("expected exactly 1 persisted claim, got %d", len(claims))
	}
}

func TestRecoverItemRace(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, testItem(model.PostTypeLost))

	// Simulate a competing claim that slipped in while the item's status
	// still read 'lost': the unique index must reject the second insert.
	_, err := database.ExecContext(ctx,
		`INSERT INTO claims (item_id, user_email, recovered_location, recovered_date, title, status)
		 VALUES (?, 'cen@example.com', 'Park', '2024-01-09', ?, 'recovered')`,
		item.ID, item.Title,
	)
	if err != nil {
		t.Fatalf("inserting competing claim: %v", err)
	}

	_, err = RecoverItem(ctx, database, testClaim(item.ID))
	if !errors.Is(err, ErrItemRecovered) {
		t.Errorf("expected ErrItemRecovered when a claim already exists, got %v", err)
	}
}

func TestRecoverMissingOrDeletedItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := RecoverItem(ctx, database, testClaim(999))
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound for missing item, got %v", err)
	}

	item, _ := CreateItem(ctx, database, testItem(model.PostTypeLost))
	DeleteItem(ctx, database, item.ID)

	_, err = RecoverItem(ctx, database, testClaim(item.ID))
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound for deleted item, got %v", err)
	}
}

func TestFailedRecoveryLeavesStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, testItem(model.PostTypeLost))

	// Competing claim exists, so recovery fails; the item's status must be
	// left exactly as it was.
	database.ExecContext(ctx,
		`INSERT INTO claims (item_id, user_email, recovered_location, recovered_date, title, status)
		 VALUES (?, 'cen@example.com', 'Park', '2024-01-09', ?, 'recovered')`,
		item.ID, item.Title,
	)
	RecoverItem(ctx, database, testClaim(item.ID))

	got, _ := GetItem(ctx, database, item.ID)
	if got.Status != model.ItemStatusLost {
		t.Errorf("expected status unchanged after failed claim, got %q", got.Status)
	}
}

func TestGetClaimByItemAndList(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item1, _ := CreateItem(ctx, database, testItem(model.PostTypeLost))
	item2, _ := CreateItem(ctx, database, testItem(model.PostTypeFound))

	RecoverItem(ctx, database, testClaim(item1.ID))
	RecoverItem(ctx, database, testClaim(item2.ID))

	claim, err := GetClaimByItem(ctx, database, item1.ID)
	if err != nil {
		t.Fatalf("GetClaimByItem: %v", err)
	}
	if claim == nil || claim.ItemID != item1.ID {
		t.Errorf("unexpected claim for item1: %+v", claim)
	}

	missing, _ := GetClaimByItem(ctx, database, 999)
	if missing != nil {
		t.Error("expected nil claim for unclaimed item")
	}

	claims, _ := ListClaimsByUser(ctx, database, "bor@example.com")
	if len(claims) != 2 {
		t.Errorf("expected 2 claims for user, got %d", len(claims))
	}

	none, _ := ListClaimsByUser(ctx, database, "nobody@example.com")
	if len(none) != 0 {
		t.Errorf("expected 0 claims for unknown user, got %d", len(none))
	}
}
