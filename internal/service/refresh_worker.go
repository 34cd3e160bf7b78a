package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/charge0315/yt-orchestrator/internal/model"
)

// UserLister enumerates users with mirrored channels. Satisfied by
// repository.ChannelRepo.
type UserLister interface {
	DistinctUserIDs(ctx context.Context) ([]string, error)
	ListByUser(ctx context.Context, userID string) ([]model.Channel, error)
}

// RefreshWorker is a periodic background job that walks every user's
// mirrored channels and refreshes the stale ones. It runs on the shared
// quota ledger, so a busy worker simply gets refused once the budget is
// spent and tries again next tick.
type RefreshWorker struct {
	users    UserLister
	engine   *SyncEngine
	interval time.Duration
	stopCh   chan struct{}
}

// NewRefreshWorker creates a worker that ticks every interval.
func NewRefreshWorker(users UserLister, engine *SyncEngine, interval time.Duration) *RefreshWorker {
	return &RefreshWorker{
		users:    users,
		engine:   engine,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic refresh loop. It runs one tick immediately, then
// every interval.
func (w *RefreshWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("refresh-worker: starting")

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			log.Info().Msg("refresh-worker: stopping (context cancelled)")
			return
		case <-w.stopCh:
			log.Info().Msg("refresh-worker: stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *RefreshWorker) Stop() {
	close(w.stopCh)
}

// tick runs one cycle: refresh stale channels for every known user. The
// worker authenticates with the configured API key, so no user token is
// passed through.
func (w *RefreshWorker) tick(ctx context.Context) {
	start := time.Now()

	userIDs, err := w.users.DistinctUserIDs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("refresh-worker: user enumeration failed")
		return
	}

	var total model.RefreshStats
	for _, userID := range userIDs {
		channels, err := w.users.ListByUser(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Str("userId", userID).Msg("refresh-worker: channel list failed")
			continue
		}
		channelIDs := make([]string, 0, len(channels))
		for _, ch := range channels {
			channelIDs = append(channelIDs, ch.ChannelID)
		}

		outcomes, err := w.engine.RefreshIfStale(ctx, userID, "", channelIDs)
		if err != nil {
			log.Warn().Err(err).Str("userId", userID).Msg("refresh-worker: refresh pass failed")
			continue
		}
		stats := model.TallyRefreshStats(outcomes)
		total.Checked += stats.Checked
		total.Updated += stats.Updated
		total.Fresh += stats.Fresh
		total.QuotaExhausted += stats.QuotaExhausted
		total.Failed += stats.Failed
	}

	log.Info().
		Int("users", len(userIDs)).
		Int("checked", total.Checked).
		Int("updated", total.Updated).
		Int("quotaExhausted", total.QuotaExhausted).
		Int("failed", total.Failed).
		Dur("elapsed", time.Since(start).Round(time.Millisecond)).
		Msg("refresh-worker: tick complete")
}
