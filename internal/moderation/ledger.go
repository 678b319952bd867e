package moderation

import (
	"context"
	"time"

	"warden/internal/storage"

	"go.uber.org/zap"
)

// DefaultWarnTTL is how long a non-permanent warn keeps counting.
const DefaultWarnTTL = 60 * 24 * time.Hour

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Ledger records warns and answers active-warn-count queries. Warns are
// append-only; expiry is applied at query time, never by mutation.
type Ledger struct {
	store  *storage.Store
	logger *zap.Logger
	ttl    time.Duration
	clock  Clock
}

func NewLedger(store *storage.Store, logger *zap.Logger, ttl time.Duration) *Ledger {
	if ttl <= 0 {
		ttl = DefaultWarnTTL
	}
	return &Ledger{
		store:  store,
		logger: logger,
		ttl:    ttl,
		clock:  realClock{},
	}
}

func (l *Ledger) WithClock(clock Clock) {
	l.clock = clock
}

func (l *Ledger) RecordWarn(ctx context.Context, guildID, userID, modID int64, reason string, permanent bool) (storage.Warn, error) {
	now := l.clock.Now()
	warn := storage.Warn{
		GuildID:   guildID,
		UserID:    userID,
		ModID:     modID,
		Reason:    reason,
		CreatedAt: now,
		Permanent: permanent,
	}
	if !permanent {
		expires := now.Add(l.ttl)
		warn.ExpiresAt = &expires
	}

	id, err := l.store.AddWarn(ctx, warn)
	if err != nil {
		return storage.Warn{}, err
	}
	warn.ID = id
	l.logger.Info("warn recorded",
		zap.Int64("guild_id", guildID),
		zap.Int64("user_id", userID),
		zap.Int64("mod_id", modID),
		zap.Bool("permanent", permanent))
	return warn, nil
}

func (l *Ledger) ActiveWarns(ctx context.Context, guildID, userID int64) (int, error) {
	return l.store.CountActiveWarns(ctx, guildID, userID, l.clock.Now())
}

func (l *Ledger) Warns(ctx context.Context, guildID, userID int64) ([]storage.Warn, error) {
	return l.store.ListWarns(ctx, guildID, userID)
}
