package giveaways

import (
	"context"
	"errors"
	"time"

	"warden/internal/storage"

	"go.uber.org/zap"
)

var (
	// ErrWinnersCount rejects a giveaway asking for fewer than one winner.
	ErrWinnersCount = errors.New("winners count must be at least 1")
	// ErrEndNotFuture rejects a giveaway that would end immediately.
	ErrEndNotFuture = errors.New("giveaway end must be in the future")
	// ErrGiveawayClosed reports an operation that is only valid while open.
	ErrGiveawayClosed = errors.New("giveaway already closed")
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Registry owns giveaway and entry state. Creation is two-phase: Open
// persists a provisional row so its generated id can be embedded in the
// announcement, then Bind attaches the announcement message id.
type Registry struct {
	store  *storage.Store
	logger *zap.Logger
	clock  Clock
}

func NewRegistry(store *storage.Store, logger *zap.Logger) *Registry {
	return &Registry{store: store, logger: logger, clock: realClock{}}
}

func (r *Registry) WithClock(clock Clock) {
	r.clock = clock
}

func (r *Registry) Open(ctx context.Context, guildID, channelID, hostID int64, title, requirements string, winners int, endAt time.Time) (int64, error) {
	if winners < 1 {
		return 0, ErrWinnersCount
	}
	if !endAt.After(r.clock.Now()) {
		return 0, ErrEndNotFuture
	}

	id, err := r.store.CreateGiveaway(ctx, storage.Giveaway{
		GuildID:      guildID,
		ChannelID:    channelID,
		HostID:       hostID,
		Title:        title,
		Requirements: requirements,
		Winners:      winners,
		EndAt:        endAt,
	})
	if err != nil {
		return 0, err
	}
	r.logger.Info("giveaway opened",
		zap.Int64("giveaway_id", id),
		zap.Int64("guild_id", guildID),
		zap.Int("winners", winners),
		zap.Time("end_at", endAt))
	return id, nil
}

func (r *Registry) Bind(ctx context.Context, id, messageID int64) error {
	return r.store.BindGiveawayMessage(ctx, id, messageID)
}

func (r *Registry) Get(ctx context.Context, id int64) (storage.Giveaway, error) {
	return r.store.GetGiveaway(ctx, id)
}

func (r *Registry) ByMessage(ctx context.Context, messageID int64) (storage.Giveaway, error) {
	return r.store.GiveawayByMessage(ctx, messageID)
}

// Toggle flips the user's entry: absent joins, present leaves. Only
// valid while the giveaway is open; the store enforces that inside the
// toggle transaction.
func (r *Registry) Toggle(ctx context.Context, id, userID int64) (joined bool, err error) {
	joined, err = r.store.ToggleEntry(ctx, id, userID)
	if errors.Is(err, storage.ErrGiveawayNotOpen) {
		return false, ErrGiveawayClosed
	}
	return joined, err
}

func (r *Registry) Entries(ctx context.Context, id int64) ([]int64, error) {
	return r.store.ListEntries(ctx, id)
}

func (r *Registry) EntryCount(ctx context.Context, id int64) (int, error) {
	return r.store.CountEntries(ctx, id)
}

// Close is one-way and idempotent: it reports whether this call made
// the open→closed transition.
func (r *Registry) Close(ctx context.Context, id int64) (bool, error) {
	return r.store.CloseGiveaway(ctx, id)
}

// Cancel deletes an open giveaway and its entries.
func (r *Registry) Cancel(ctx context.Context, id int64) error {
	g, err := r.store.GetGiveaway(ctx, id)
	if err != nil {
		return err
	}
	if g.Status != storage.GiveawayOpen {
		return ErrGiveawayClosed
	}
	if err := r.store.DeleteGiveaway(ctx, id); err != nil {
		return err
	}
	r.logger.Info("giveaway cancelled", zap.Int64("giveaway_id", id))
	return nil
}

func (r *Registry) Due(ctx context.Context, at time.Time) ([]storage.Giveaway, error) {
	return r.store.ListDueGiveaways(ctx, at)
}
