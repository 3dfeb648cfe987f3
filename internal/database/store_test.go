package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/zamorski/podarunky-bot/internal/database"

	_ "modernc.org/sqlite"
)

func setupTestStore(t *testing.T) database.Store {
	t.Helper()

	db, err := sqlx.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.ApplyMigrations(db.DB, "test"); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return database.NewStore(db, nil)
}

func TestAddSubscriber_DoubleInsertKeepsOneRecord(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.AddSubscriber(ctx, 100); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if err := store.AddSubscriber(ctx, 100); err != nil {
		t.Fatalf("duplicate insert should be a no-op, got: %v", err)
	}

	ids, err := store.ListSubscribers(ctx)
	if err != nil {
		t.Fatalf("ListSubscribers failed: %v", err)
	}

	seen := 0
	for _, id := range ids {
		if id == 100 {
			seen++
		}
	}
	if seen != 1 {
		t.Errorf("expected user 100 to appear exactly once, got %d occurrences", seen)
	}

	subscribed, err := store.IsSubscribed(ctx, 100)
	if err != nil {
		t.Fatalf("IsSubscribed failed: %v", err)
	}
	if !subscribed {
		t.Error("expected user 100 to be subscribed")
	}

	count, err := store.CountSubscribers(ctx)
	if err != nil {
		t.Fatalf("CountSubscribers failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 subscriber, got %d", count)
	}
}

func TestRemoveSubscriber_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.AddSubscriber(ctx, 7); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.RemoveSubscriber(ctx, 7); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := store.RemoveSubscriber(ctx, 7); err != nil {
		t.Fatalf("removing an absent subscriber should be a no-op, got: %v", err)
	}

	subscribed, err := store.IsSubscribed(ctx, 7)
	if err != nil {
		t.Fatalf("IsSubscribed failed: %v", err)
	}
	if subscribed {
		t.Error("expected user 7 to be unsubscribed")
	}
}

func TestResolveByNotification_ReturnsOriginatingUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	threadID, err := store.CreateThread(ctx, 500, "Where is my order?")
	if err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}
	if err := store.AttachNotification(ctx, threadID, 555); err != nil {
		t.Fatalf("AttachNotification failed: %v", err)
	}

	userID, err := store.ResolveByNotification(ctx, 555)
	if err != nil {
		t.Fatalf("ResolveByNotification failed: %v", err)
	}
	if userID != 500 {
		t.Errorf("expected user 500, got %d", userID)
	}
}

func TestResolveByNotification_UnknownMessageID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.CreateThread(ctx, 500, "hello"); err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}

	_, err := store.ResolveByNotification(ctx, 1234)
	if !errors.Is(err, database.ErrThreadNotFound) {
		t.Errorf("expected ErrThreadNotFound, got %v", err)
	}
}

func TestResolveByNotification_ResendPicksNewestThread(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first, err := store.CreateThread(ctx, 111, "old inquiry")
	if err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}
	second, err := store.CreateThread(ctx, 222, "new inquiry")
	if err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}

	// Re-send scenario: both notifications ended up with the same message id.
	if err := store.AttachNotification(ctx, first, 900); err != nil {
		t.Fatalf("AttachNotification failed: %v", err)
	}
	if err := store.AttachNotification(ctx, second, 900); err != nil {
		t.Fatalf("AttachNotification failed: %v", err)
	}

	userID, err := store.ResolveByNotification(ctx, 900)
	if err != nil {
		t.Fatalf("ResolveByNotification failed: %v", err)
	}
	if userID != 222 {
		t.Errorf("expected the more recently created thread's user 222, got %d", userID)
	}
}

func TestArrivals_SaveAndListNewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	older := &database.Arrival{PhotoFileID: "file-1", Title: "Чашка", Price: "250 грн"}
	newer := &database.Arrival{PhotoFileID: "file-2", Title: "Свічка", Price: "180 грн"}

	if err := store.SaveArrival(ctx, older); err != nil {
		t.Fatalf("SaveArrival failed: %v", err)
	}
	if err := store.SaveArrival(ctx, newer); err != nil {
		t.Fatalf("SaveArrival failed: %v", err)
	}
	if older.ID == 0 || newer.ID == 0 {
		t.Fatal("expected arrival ids to be populated")
	}

	arrivals, err := store.RecentArrivals(ctx, 10)
	if err != nil {
		t.Fatalf("RecentArrivals failed: %v", err)
	}
	if len(arrivals) != 2 {
		t.Fatalf("expected 2 arrivals, got %d", len(arrivals))
	}
	if arrivals[0].Title != "Свічка" {
		t.Errorf("expected newest arrival first, got %q", arrivals[0].Title)
	}
}
