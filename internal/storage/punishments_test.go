package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUpsertPunishmentReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := time.Unix(2_000_000, 0)
	second := first.Add(2 * time.Hour)

	if err := store.UpsertPunishment(ctx, Punishment{GuildID: 1, UserID: 2, Kind: "mute", ExpiresAt: first}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.UpsertPunishment(ctx, Punishment{GuildID: 1, UserID: 2, Kind: "mute", ExpiresAt: second}); err != nil {
		t.Fatalf("reissue upsert: %v", err)
	}

	punishments, err := store.ListPunishments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(punishments) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(punishments))
	}
	if !punishments[0].ExpiresAt.Equal(second) {
		t.Fatalf("expected latest expiry %v, got %v", second, punishments[0].ExpiresAt)
	}
}

func TestPunishmentKindsIndependent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	expires := time.Unix(2_000_000, 0)

	if err := store.UpsertPunishment(ctx, Punishment{GuildID: 1, UserID: 2, Kind: "mute", ExpiresAt: expires}); err != nil {
		t.Fatalf("upsert mute: %v", err)
	}
	if err := store.UpsertPunishment(ctx, Punishment{GuildID: 1, UserID: 2, Kind: "tempban", ExpiresAt: expires}); err != nil {
		t.Fatalf("upsert tempban: %v", err)
	}

	punishments, err := store.ListPunishments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(punishments) != 2 {
		t.Fatalf("expected two rows for distinct kinds, got %d", len(punishments))
	}
}

func TestClearPunishment(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertPunishment(ctx, Punishment{GuildID: 1, UserID: 2, Kind: "tempban", ExpiresAt: time.Unix(2_000_000, 0)}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	cleared, err := store.ClearPunishment(ctx, 1, 2, "tempban")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !cleared {
		t.Fatalf("expected clear to report an existing row")
	}

	cleared, err = store.ClearPunishment(ctx, 1, 2, "tempban")
	if err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if cleared {
		t.Fatalf("expected second clear to be a no-op")
	}

	if _, err := store.GetPunishment(ctx, 1, 2, "tempban"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
