package storage

import (
	"context"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestCountActiveWarns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Unix(1_000_000, 0)

	soon := now.Add(1 * time.Hour)
	later := now.Add(48 * time.Hour)
	warns := []Warn{
		{GuildID: 1, UserID: 2, ModID: 3, Reason: "spam", CreatedAt: now, ExpiresAt: &soon},
		{GuildID: 1, UserID: 2, ModID: 3, Reason: "links", CreatedAt: now, ExpiresAt: &later},
		{GuildID: 1, UserID: 2, ModID: 3, Reason: "slurs", CreatedAt: now, Permanent: true},
	}
	for _, warn := range warns {
		if _, err := store.AddWarn(ctx, warn); err != nil {
			t.Fatalf("add warn: %v", err)
		}
	}

	count, err := store.CountActiveWarns(ctx, 1, 2, now)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 active at issue time, got %d", count)
	}

	count, _ = store.CountActiveWarns(ctx, 1, 2, now.Add(2*time.Hour))
	if count != 2 {
		t.Fatalf("expected 2 active after first expiry, got %d", count)
	}

	count, _ = store.CountActiveWarns(ctx, 1, 2, now.Add(100*24*time.Hour))
	if count != 1 {
		t.Fatalf("expected only the permanent warn, got %d", count)
	}

	count, _ = store.CountActiveWarns(ctx, 1, 99, now)
	if count != 0 {
		t.Fatalf("expected 0 for other user, got %d", count)
	}
}

func TestListWarns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Unix(1_000_000, 0)

	if _, err := store.AddWarn(ctx, Warn{GuildID: 1, UserID: 2, ModID: 3, Reason: "first", CreatedAt: now, Permanent: true}); err != nil {
		t.Fatalf("add warn: %v", err)
	}
	expires := now.Add(time.Hour)
	if _, err := store.AddWarn(ctx, Warn{GuildID: 1, UserID: 2, ModID: 3, Reason: "second", CreatedAt: now.Add(time.Minute), ExpiresAt: &expires}); err != nil {
		t.Fatalf("add warn: %v", err)
	}

	warns, err := store.ListWarns(ctx, 1, 2)
	if err != nil {
		t.Fatalf("list warns: %v", err)
	}
	if len(warns) != 2 {
		t.Fatalf("expected 2 warns, got %d", len(warns))
	}
	if warns[0].Reason != "second" {
		t.Fatalf("expected newest first, got %q", warns[0].Reason)
	}
	if !warns[1].Permanent || warns[1].ExpiresAt != nil {
		t.Fatalf("permanent warn must carry no expiry")
	}
}
