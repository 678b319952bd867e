package sanctions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"warden/internal/storage"

	"go.uber.org/zap"
)

type fakeTimer struct {
	deadline time.Time
	delay    time.Duration
	fn       func()
	stopped  bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return true
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{deadline: f.now.Add(d), delay: d, fn: fn}
	f.timers = append(f.timers, t)
	return t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	var due []*fakeTimer
	var pending []*fakeTimer
	for _, timer := range f.timers {
		if !timer.stopped && !timer.deadline.After(f.now) {
			due = append(due, timer)
			continue
		}
		pending = append(pending, timer)
	}
	f.timers = pending
	f.mu.Unlock()
	for _, timer := range due {
		timer.fn()
	}
}

func (f *fakeClock) armedDelays() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	var delays []time.Duration
	for _, timer := range f.timers {
		if !timer.stopped {
			delays = append(delays, timer.delay)
		}
	}
	return delays
}

type fakeReverser struct {
	mu    sync.Mutex
	calls []Kind
	err   error
}

func (r *fakeReverser) Reverse(ctx context.Context, guildID, userID int64, kind Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, kind)
	return nil
}

func (r *fakeReverser) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func newTestScheduler(t *testing.T) (*Scheduler, *storage.Store, *fakeClock, *fakeReverser) {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	scheduler := New(store, zap.NewNop())
	clock := &fakeClock{now: time.Unix(1_000_000, 0)}
	scheduler.WithClock(clock)
	reverser := &fakeReverser{}
	scheduler.SetReverser(reverser)
	return scheduler, store, clock, reverser
}

func TestRestoreSettlesOverdue(t *testing.T) {
	scheduler, store, clock, reverser := newTestScheduler(t)
	ctx := context.Background()

	overdue := storage.Punishment{GuildID: 1, UserID: 2, Kind: "mute", ExpiresAt: clock.now.Add(-time.Minute)}
	if err := store.UpsertPunishment(ctx, overdue); err != nil {
		t.Fatalf("seed punishment: %v", err)
	}

	if err := scheduler.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}

	if reverser.callCount() != 1 {
		t.Fatalf("expected overdue punishment settled during restore, got %d reversals", reverser.callCount())
	}
	if _, err := store.GetPunishment(ctx, 1, 2, "mute"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected settled row cleared, got %v", err)
	}
}

func TestRestoreArmsExactRemaining(t *testing.T) {
	scheduler, store, clock, reverser := newTestScheduler(t)
	ctx := context.Background()

	future := storage.Punishment{GuildID: 1, UserID: 2, Kind: "tempban", ExpiresAt: clock.now.Add(45 * time.Minute)}
	if err := store.UpsertPunishment(ctx, future); err != nil {
		t.Fatalf("seed punishment: %v", err)
	}

	if err := scheduler.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if reverser.callCount() != 0 {
		t.Fatalf("future punishment must not settle during restore")
	}

	delays := clock.armedDelays()
	if len(delays) != 1 || delays[0] != 45*time.Minute {
		t.Fatalf("expected one timer armed for 45m, got %v", delays)
	}

	clock.Advance(45 * time.Minute)
	if reverser.callCount() != 1 {
		t.Fatalf("expected settlement at expiry, got %d reversals", reverser.callCount())
	}
	if _, err := store.GetPunishment(ctx, 1, 2, "tempban"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected row cleared after settlement, got %v", err)
	}
}

func TestScheduleReissueReplacesTimer(t *testing.T) {
	scheduler, store, clock, reverser := newTestScheduler(t)
	ctx := context.Background()

	if err := scheduler.Schedule(ctx, 1, 2, KindMute, clock.now.Add(time.Hour)); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := scheduler.Schedule(ctx, 1, 2, KindMute, clock.now.Add(3*time.Hour)); err != nil {
		t.Fatalf("reissue: %v", err)
	}

	punishments, err := store.ListPunishments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(punishments) != 1 {
		t.Fatalf("expected one row after reissue, got %d", len(punishments))
	}

	// The stale one-hour timer must not fire against the new expiry.
	clock.Advance(time.Hour)
	if reverser.callCount() != 0 {
		t.Fatalf("stale timer fired after reissue")
	}

	clock.Advance(2 * time.Hour)
	if reverser.callCount() != 1 {
		t.Fatalf("expected one settlement at the new expiry, got %d", reverser.callCount())
	}
}

func TestManualReverseCancelsTimer(t *testing.T) {
	scheduler, store, clock, reverser := newTestScheduler(t)
	ctx := context.Background()

	if err := scheduler.Schedule(ctx, 1, 2, KindMute, clock.now.Add(time.Hour)); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	reversed, err := scheduler.Reverse(ctx, 1, 2, KindMute)
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if !reversed {
		t.Fatalf("expected manual reversal to apply")
	}
	if reverser.callCount() != 1 {
		t.Fatalf("expected one reversal, got %d", reverser.callCount())
	}
	if _, err := store.GetPunishment(ctx, 1, 2, "mute"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected row cleared, got %v", err)
	}

	// The cancelled timer must not settle a second time.
	clock.Advance(2 * time.Hour)
	if reverser.callCount() != 1 {
		t.Fatalf("cancelled timer fired, got %d reversals", reverser.callCount())
	}
}

func TestReverseAlreadyResolved(t *testing.T) {
	scheduler, _, _, reverser := newTestScheduler(t)

	reversed, err := scheduler.Reverse(context.Background(), 1, 2, KindTempban)
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if reversed {
		t.Fatalf("expected no-op on absent punishment")
	}
	if reverser.callCount() != 0 {
		t.Fatalf("reverser must not run for an absent punishment")
	}
}

func TestPlatformErrorKeepsRow(t *testing.T) {
	scheduler, store, clock, reverser := newTestScheduler(t)
	ctx := context.Background()

	if err := scheduler.Schedule(ctx, 1, 2, KindTempban, clock.now.Add(time.Minute)); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	reverser.err = errors.New("missing permission")
	clock.Advance(time.Minute)

	if _, err := store.GetPunishment(ctx, 1, 2, "tempban"); err != nil {
		t.Fatalf("expected row kept after platform rejection, got %v", err)
	}

	// Next restore retries the reversal once the platform accepts it.
	reverser.err = nil
	if err := scheduler.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if reverser.callCount() != 1 {
		t.Fatalf("expected settlement on retry, got %d", reverser.callCount())
	}
	if _, err := store.GetPunishment(ctx, 1, 2, "tempban"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected row cleared after retry, got %v", err)
	}
}

func TestManualReverseReportsPlatformError(t *testing.T) {
	scheduler, store, clock, reverser := newTestScheduler(t)
	ctx := context.Background()

	if err := scheduler.Schedule(ctx, 1, 2, KindMute, clock.now.Add(time.Hour)); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	reverser.err = errors.New("missing permission")
	_, err := scheduler.Reverse(ctx, 1, 2, KindMute)
	var platformErr *PlatformError
	if !errors.As(err, &platformErr) {
		t.Fatalf("expected PlatformError, got %v", err)
	}
	if _, err := store.GetPunishment(ctx, 1, 2, "mute"); err != nil {
		t.Fatalf("expected row kept after platform rejection, got %v", err)
	}
}
