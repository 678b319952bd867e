package sanctions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"warden/internal/storage"

	"go.uber.org/zap"
)

type Kind string

const (
	KindMute    Kind = "mute"
	KindTempban Kind = "tempban"
)

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

type realTimer struct{ t *time.Timer }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return realTimer{t: time.AfterFunc(d, f)}
}

func (t realTimer) Stop() bool { return t.t.Stop() }

// Reverser undoes a punishment on the hosting platform: role removal
// for a mute, unban for a tempban.
type Reverser interface {
	Reverse(ctx context.Context, guildID, userID int64, kind Kind) error
}

// PlatformError marks a reversal the platform rejected. The punishment
// row is kept so the reversal is retried on the next restart.
type PlatformError struct {
	Err error
}

func (e *PlatformError) Error() string { return fmt.Sprintf("platform rejected reversal: %v", e.Err) }

func (e *PlatformError) Unwrap() error { return e.Err }

type punishmentKey struct {
	guildID int64
	userID  int64
	kind    Kind
}

// Scheduler guarantees every timed punishment is reversed exactly once,
// across restarts. The store is the source of truth for which timers
// must exist: a row is written before its timer is armed, and recovery
// re-derives timers from rows. Per punishment, only the first actor to
// leave the armed state (timer firing or manual reversal) performs the
// reversal and clears the row; later actors observe the absent row.
type Scheduler struct {
	mu       sync.Mutex
	store    *storage.Store
	logger   *zap.Logger
	reverser Reverser
	clock    Clock
	timers   map[punishmentKey]Timer
	settling map[punishmentKey]struct{}
	notify   func(guildID, userID int64, kind Kind)
}

func New(store *storage.Store, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		store:    store,
		logger:   logger,
		clock:    realClock{},
		timers:   make(map[punishmentKey]Timer),
		settling: make(map[punishmentKey]struct{}),
	}
}

func (s *Scheduler) WithClock(clock Clock) {
	s.clock = clock
}

func (s *Scheduler) SetReverser(reverser Reverser) {
	s.reverser = reverser
}

// SetNotifier installs a callback invoked after a successful settlement.
func (s *Scheduler) SetNotifier(notify func(guildID, userID int64, kind Kind)) {
	s.notify = notify
}

// Schedule records the punishment and arms its timer. The row write
// happens first: if the process dies before the timer exists, recovery
// re-arms it from the row on the next boot. Re-issuing for the same
// (guild, user, kind) replaces both the row and the timer.
func (s *Scheduler) Schedule(ctx context.Context, guildID, userID int64, kind Kind, expiresAt time.Time) error {
	err := s.store.UpsertPunishment(ctx, storage.Punishment{
		GuildID:   guildID,
		UserID:    userID,
		Kind:      string(kind),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return err
	}

	key := punishmentKey{guildID: guildID, userID: userID, kind: kind}
	s.arm(key, expiresAt.Sub(s.clock.Now()))
	s.logger.Info("punishment scheduled",
		zap.Int64("guild_id", guildID),
		zap.Int64("user_id", userID),
		zap.String("kind", string(kind)),
		zap.Time("expires_at", expiresAt))
	return nil
}

// Restore reconciles timers against the store on boot. Overdue rows are
// settled synchronously before Restore returns; the rest get timers for
// exactly the remaining duration.
func (s *Scheduler) Restore(ctx context.Context) error {
	punishments, err := s.store.ListPunishments(ctx)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	for _, p := range punishments {
		key := punishmentKey{guildID: p.GuildID, userID: p.UserID, kind: Kind(p.Kind)}
		remaining := p.ExpiresAt.Sub(now)
		if remaining <= 0 {
			s.settle(ctx, key)
			continue
		}
		s.arm(key, remaining)
	}
	s.logger.Info("punishments restored", zap.Int("count", len(punishments)))
	return nil
}

// Reverse settles a punishment ahead of its timer. It reports false
// when there is nothing left to reverse: the timer already fired, is
// mid-settlement, or no such punishment exists.
func (s *Scheduler) Reverse(ctx context.Context, guildID, userID int64, kind Kind) (bool, error) {
	key := punishmentKey{guildID: guildID, userID: userID, kind: kind}

	s.mu.Lock()
	if _, busy := s.settling[key]; busy {
		s.mu.Unlock()
		return false, nil
	}
	s.settling[key] = struct{}{}
	if timer := s.timers[key]; timer != nil {
		timer.Stop()
		delete(s.timers, key)
	}
	s.mu.Unlock()
	defer s.release(key)

	if _, err := s.store.GetPunishment(ctx, guildID, userID, string(kind)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := s.reverser.Reverse(ctx, guildID, userID, kind); err != nil {
		return false, &PlatformError{Err: err}
	}
	if _, err := s.store.ClearPunishment(ctx, guildID, userID, string(kind)); err != nil {
		return false, err
	}
	s.logger.Info("punishment reversed",
		zap.Int64("guild_id", guildID),
		zap.Int64("user_id", userID),
		zap.String("kind", string(kind)))
	return true, nil
}

// Close stops every armed timer; rows stay behind for the next Restore.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
}

func (s *Scheduler) arm(key punishmentKey, remaining time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer := s.timers[key]; timer != nil {
		timer.Stop()
	}
	s.timers[key] = s.clock.AfterFunc(remaining, func() {
		s.settle(context.Background(), key)
	})
}

func (s *Scheduler) settle(ctx context.Context, key punishmentKey) {
	s.mu.Lock()
	if _, busy := s.settling[key]; busy {
		s.mu.Unlock()
		return
	}
	s.settling[key] = struct{}{}
	delete(s.timers, key)
	s.mu.Unlock()
	defer s.release(key)

	if _, err := s.store.GetPunishment(ctx, key.guildID, key.userID, string(key.kind)); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("settlement lookup failed", zap.Error(err))
		}
		return
	}

	if err := s.reverser.Reverse(ctx, key.guildID, key.userID, key.kind); err != nil {
		// Row kept: the reversal is retried on the next restart.
		s.logger.Warn("reversal rejected by platform",
			zap.Int64("guild_id", key.guildID),
			zap.Int64("user_id", key.userID),
			zap.String("kind", string(key.kind)),
			zap.Error(err))
		return
	}
	if _, err := s.store.ClearPunishment(ctx, key.guildID, key.userID, string(key.kind)); err != nil {
		s.logger.Error("punishment clear failed", zap.Error(err))
		return
	}

	s.logger.Info("punishment settled",
		zap.Int64("guild_id", key.guildID),
		zap.Int64("user_id", key.userID),
		zap.String("kind", string(key.kind)))
	if s.notify != nil {
		s.notify(key.guildID, key.userID, key.kind)
	}
}

func (s *Scheduler) release(key punishmentKey) {
	s.mu.Lock()
	delete(s.settling, key)
	s.mu.Unlock()
}
