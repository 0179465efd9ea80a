package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	webstorage "github.com/edumap/desk/internal/services/web/storage"
)

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := New(func() time.Time { return now })
	ctx := context.Background()

	record := webstorage.SessionRecord{
		ID:        "s-1",
		Email:     "admin@school.kz",
		Metadata:  map[string]any{"ecp_status": "submitted"},
		ExpiresAt: now.Add(time.Hour),
	}
	if err := store.PutSession(ctx, record); err != nil {
		t.Fatalf("PutSession() error = %v", err)
	}
	record.Metadata["ecp_status"] = "mutated"

	got, err := store.GetSession(ctx, "s-1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.Email != "admin@school.kz" || got.Metadata["ecp_status"] != "submitted" {
		t.Fatalf("GetSession() = %+v", got)
	}
	got.Metadata["ecp_status"] = "changed"
	again, _ := store.GetSession(ctx, "s-1")
	if again.Metadata["ecp_status"] != "submitted" {
		t.Fatal("GetSession must return a copy of metadata")
	}

	if err := store.DeleteSession(ctx, "s-1"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := store.GetSession(ctx, "s-1"); !errors.Is(err, webstorage.ErrNotFound) {
		t.Fatalf("GetSession() after delete error = %v", err)
	}
}

func TestStoreDropsExpiredRecords(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	store := New(func() time.Time { return clock })
	ctx := context.Background()

	if err := store.PutSession(ctx, webstorage.SessionRecord{ID: "s-1", ExpiresAt: now.Add(time.Minute)}); err != nil {
		t.Fatalf("PutSession() error = %v", err)
	}
	clock = now.Add(time.Minute)
	if _, err := store.GetSession(ctx, "s-1"); !errors.Is(err, webstorage.ErrNotFound) {
		t.Fatalf("GetSession() error = %v, want ErrNotFound", err)
	}
	if store.Len() != 0 {
		t.Fatalf("Len() = %d, want expired record dropped", store.Len())
	}
}

func TestStoreRejectsBlankID(t *testing.T) {
	t.Parallel()

	store := New(nil)
	if err := store.PutSession(context.Background(), webstorage.SessionRecord{ID: " "}); err == nil {
		t.Fatal("expected blank id error")
	}
	if _, err := store.GetSession(context.Background(), ""); !errors.Is(err, webstorage.ErrNotFound) {
		t.Fatalf("GetSession(blank) error = %v", err)
	}
}
