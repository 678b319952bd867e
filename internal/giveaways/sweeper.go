package giveaways

import (
	"context"
	"fmt"
	"time"

	"warden/internal/storage"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reporter presents a finished giveaway. A nil winners slice means no
// valid entries. The giveaway row is already closed when this runs, so
// a crashed or failed report can be re-sent but never re-drawn.
type Reporter interface {
	GiveawayEnded(ctx context.Context, g storage.Giveaway, winners []int64)
}

// Sweeper periodically closes elapsed giveaways and draws winners. The
// registry's idempotent Close guards the draw: whichever sweep flips
// open→closed owns the winner selection.
type Sweeper struct {
	registry *Registry
	picker   *Picker
	reporter Reporter
	logger   *zap.Logger
	interval time.Duration
	clock    Clock
	cron     *cron.Cron
}

func NewSweeper(registry *Registry, picker *Picker, reporter Reporter, logger *zap.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	// The cron spec is whole seconds; "@every 0s" is rejected.
	if interval < time.Second {
		interval = time.Second
	}
	return &Sweeper{
		registry: registry,
		picker:   picker,
		reporter: reporter,
		logger:   logger,
		interval: interval,
		clock:    realClock{},
	}
}

func (s *Sweeper) WithClock(clock Clock) {
	s.clock = clock
}

func (s *Sweeper) Start() error {
	s.cron = cron.New()
	spec := fmt.Sprintf("@every %ds", int(s.interval.Seconds()))
	if _, err := s.cron.AddFunc(spec, func() {
		s.Sweep(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("giveaway sweeper started", zap.Duration("interval", s.interval))
	return nil
}

func (s *Sweeper) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
	}
}

// Sweep closes every open giveaway whose end has passed and reports the
// draw. Failures are scoped to the single giveaway that produced them.
func (s *Sweeper) Sweep(ctx context.Context) {
	due, err := s.registry.Due(ctx, s.clock.Now())
	if err != nil {
		s.logger.Error("giveaway sweep query failed", zap.Error(err))
		return
	}

	for _, g := range due {
		closed, err := s.registry.Close(ctx, g.ID)
		if err != nil {
			s.logger.Error("giveaway close failed", zap.Int64("giveaway_id", g.ID), zap.Error(err))
			continue
		}
		if !closed {
			// Another sweep already owns this draw.
			continue
		}

		entries, err := s.registry.Entries(ctx, g.ID)
		if err != nil {
			s.logger.Error("giveaway entries query failed", zap.Int64("giveaway_id", g.ID), zap.Error(err))
			continue
		}
		winners := s.picker.Pick(entries, g.Winners)
		g.Status = storage.GiveawayClosed
		s.logger.Info("giveaway closed",
			zap.Int64("giveaway_id", g.ID),
			zap.Int("entries", len(entries)),
			zap.Int("winners", len(winners)))
		s.reporter.GiveawayEnded(ctx, g, winners)
	}
}
