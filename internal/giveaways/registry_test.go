package giveaways

import (
	"context"
	"errors"
	"testing"
	"time"

	"warden/internal/storage"

	"go.uber.org/zap"
)

type fixedClock struct{ now time.Time }

func (f *fixedClock) Now() time.Time { return f.now }

func newTestRegistry(t *testing.T) (*Registry, *fixedClock) {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	registry := NewRegistry(store, zap.NewNop())
	clock := &fixedClock{now: time.Unix(1_000_000, 0)}
	registry.WithClock(clock)
	return registry, clock
}

func TestOpenValidation(t *testing.T) {
	registry, clock := newTestRegistry(t)
	ctx := context.Background()

	if _, err := registry.Open(ctx, 1, 10, 20, "Nitro", "", 0, clock.now.Add(time.Hour)); !errors.Is(err, ErrWinnersCount) {
		t.Fatalf("expected ErrWinnersCount, got %v", err)
	}
	if _, err := registry.Open(ctx, 1, 10, 20, "Nitro", "", 1, clock.now.Add(-time.Minute)); !errors.Is(err, ErrEndNotFuture) {
		t.Fatalf("expected ErrEndNotFuture, got %v", err)
	}
	if _, err := registry.Open(ctx, 1, 10, 20, "Nitro", "", 1, clock.now.Add(time.Hour)); err != nil {
		t.Fatalf("valid open failed: %v", err)
	}
}

func TestToggleRejectedAfterClose(t *testing.T) {
	registry, clock := newTestRegistry(t)
	ctx := context.Background()

	id, err := registry.Open(ctx, 1, 10, 20, "Nitro", "", 1, clock.now.Add(time.Hour))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := registry.Toggle(ctx, id, 42); err != nil {
		t.Fatalf("toggle while open: %v", err)
	}

	if _, err := registry.Close(ctx, id); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := registry.Toggle(ctx, id, 43); !errors.Is(err, ErrGiveawayClosed) {
		t.Fatalf("expected ErrGiveawayClosed, got %v", err)
	}
}

func TestCancelOnlyWhileOpen(t *testing.T) {
	registry, clock := newTestRegistry(t)
	ctx := context.Background()

	id, err := registry.Open(ctx, 1, 10, 20, "Nitro", "", 1, clock.now.Add(time.Hour))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := registry.Close(ctx, id); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := registry.Cancel(ctx, id); !errors.Is(err, ErrGiveawayClosed) {
		t.Fatalf("expected ErrGiveawayClosed, got %v", err)
	}

	id, err = registry.Open(ctx, 1, 10, 20, "Nitro 2", "", 1, clock.now.Add(time.Hour))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := registry.Cancel(ctx, id); err != nil {
		t.Fatalf("cancel open giveaway: %v", err)
	}
	if _, err := registry.Get(ctx, id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected cancelled giveaway gone, got %v", err)
	}
}
