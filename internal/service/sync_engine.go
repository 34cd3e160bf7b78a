package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/charge0315/yt-orchestrator/internal/model"
	"github.com/charge0315/yt-orchestrator/internal/quota"
	"github.com/charge0315/yt-orchestrator/internal/youtube"
)

// VideoFetcher is the slice of the upstream client the sync engine uses.
type VideoFetcher interface {
	LatestVideo(ctx context.Context, token, channelID string) (*youtube.Video, error)
	GetVideo(ctx context.Context, token, videoID string) (*youtube.Video, error)
}

// ChannelStore is the slice of the channel cache the sync engine uses.
type ChannelStore interface {
	Get(ctx context.Context, userID, channelID string) (*model.Channel, error)
	Put(ctx context.Context, ch *model.Channel) error
}

// SyncEngine refreshes stale mirrored channels against the upstream API under
// quota control. Quota is reserved in input order before any network call, so
// which channels run and which are refused is deterministic for a given
// budget; the calls themselves then run concurrently.
type SyncEngine struct {
	store       ChannelStore
	fetcher     VideoFetcher
	ledger      *quota.Ledger
	maxAge      time.Duration
	maxInFlight int
	callTimeout time.Duration
	now         func() time.Time
}

func NewSyncEngine(store ChannelStore, fetcher VideoFetcher, ledger *quota.Ledger, maxAge time.Duration, maxInFlight int, callTimeout time.Duration) *SyncEngine {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &SyncEngine{
		store:       store,
		fetcher:     fetcher,
		ledger:      ledger,
		maxAge:      maxAge,
		maxInFlight: maxInFlight,
		callTimeout: callTimeout,
		now:         time.Now,
	}
}

// RefreshOptions override the engine defaults for a single pass. Zero values
// keep the configured defaults.
type RefreshOptions struct {
	MaxAge      time.Duration
	MaxInFlight int
}

// RefreshIfStale checks each requested channel and refreshes the ones whose
// mirrored latest-video data is older than maxAge. Duplicate channel IDs are
// collapsed to one attempt. The returned outcomes are in input order (minus
// duplicates); one channel failing never aborts the rest.
func (e *SyncEngine) RefreshIfStale(ctx context.Context, userID, token string, channelIDs []string) ([]model.RefreshOutcome, error) {
	return e.RefreshIfStaleWith(ctx, userID, token, channelIDs, RefreshOptions{})
}

// RefreshIfStaleWith is RefreshIfStale with per-call overrides.
func (e *SyncEngine) RefreshIfStaleWith(ctx context.Context, userID, token string, channelIDs []string, opts RefreshOptions) ([]model.RefreshOutcome, error) {
	now := e.now()
	maxAge := e.maxAge
	if opts.MaxAge > 0 {
		maxAge = opts.MaxAge
	}
	maxInFlight := e.maxInFlight
	if opts.MaxInFlight > 0 {
		maxInFlight = opts.MaxInFlight
	}

	seen := make(map[string]bool, len(channelIDs))
	outcomes := make([]model.RefreshOutcome, 0, len(channelIDs))
	type job struct {
		idx       int
		channelID string
	}
	var jobs []job

	// First pass, in input order: classify and reserve quota. Reservation
	// happens before any fetch so a refused channel never costs a call.
	for _, id := range channelIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		ch, err := e.store.Get(ctx, userID, id)
		if err != nil {
			if err == ErrNotFound {
				outcomes = append(outcomes, model.RefreshOutcome{ChannelID: id, Status: model.RefreshFailed, Reason: "not subscribed"})
				continue
			}
			return nil, err
		}

		if !IsStale(ch, maxAge, now) {
			outcomes = append(outcomes, model.RefreshOutcome{ChannelID: id, Status: model.RefreshFresh})
			continue
		}

		// One refresh is a search.list plus the videos.list stat lookup,
		// charged together so a granted refresh can always complete.
		if !e.ledger.TryReserve(quota.CostSearch + quota.CostVideosList) {
			outcomes = append(outcomes, model.RefreshOutcome{ChannelID: id, Status: model.RefreshQuotaExhausted, Reason: "unit budget exhausted"})
			continue
		}

		outcomes = append(outcomes, model.RefreshOutcome{ChannelID: id, Status: model.RefreshFailed})
		jobs = append(jobs, job{idx: len(outcomes) - 1, channelID: id})
	}

	if len(jobs) == 0 {
		return outcomes, nil
	}

	// Second pass: fetch concurrently, bounded by maxInFlight. Each worker
	// writes only its own outcome slot.
	jobCh := make(chan job)
	var wg sync.WaitGroup
	workers := maxInFlight
	if workers > len(jobs) {
		workers = len(jobs)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				outcomes[j.idx] = e.refreshOne(ctx, userID, token, j.channelID)
			}
		}()
	}
	for _, j := range jobs {
		jobCh <- j
	}
	close(jobCh)
	wg.Wait()

	stats := model.TallyRefreshStats(outcomes)
	log.Info().
		Str("userId", userID).
		Int("checked", stats.Checked).
		Int("updated", stats.Updated).
		Int("quotaExhausted", stats.QuotaExhausted).
		Int("failed", stats.Failed).
		Msg("refresh pass complete")

	return outcomes, nil
}

// refreshOne fetches a channel's latest upload and merges it into the mirror.
func (e *SyncEngine) refreshOne(ctx context.Context, userID, token, channelID string) model.RefreshOutcome {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	latest, err := e.fetcher.LatestVideo(callCtx, token, channelID)
	if err != nil {
		log.Warn().Err(err).Str("channelId", channelID).Msg("latest video fetch failed")
		return model.RefreshOutcome{ChannelID: channelID, Status: model.RefreshFailed, Reason: err.Error()}
	}

	ch, err := e.store.Get(ctx, userID, channelID)
	if err != nil {
		return model.RefreshOutcome{ChannelID: channelID, Status: model.RefreshFailed, Reason: err.Error()}
	}

	now := e.now()
	ch.LastCheckedAt = &now

	updated := false
	if latest != nil {
		switch {
		case ch.LatestVideoID == nil || *ch.LatestVideoID != latest.VideoID:
			e.applyLatest(ctx, token, ch, latest)
			updated = true
		case ch.LatestVideoDuration == nil || ch.LatestVideoViewCount == nil:
			// Same video as before but stats were never backfilled.
			e.backfillStats(ctx, token, ch, latest.VideoID)
			updated = true
		}
	}

	if err := e.store.Put(ctx, ch); err != nil {
		return model.RefreshOutcome{ChannelID: channelID, Status: model.RefreshFailed, Reason: err.Error()}
	}

	return model.RefreshOutcome{ChannelID: channelID, Status: model.RefreshRefreshed, Updated: updated}
}

func (e *SyncEngine) applyLatest(ctx context.Context, token string, ch *model.Channel, latest *youtube.Video) {
	ch.LatestVideoID = &latest.VideoID
	ch.LatestVideoTitle = &latest.Title
	if latest.ThumbnailURL != "" {
		ch.LatestVideoThumbnailURL = &latest.ThumbnailURL
	}
	ch.LatestVideoPublishedAt = latest.PublishedAt
	ch.LatestVideoDuration = nil
	ch.LatestVideoViewCount = nil
	e.backfillStats(ctx, token, ch, latest.VideoID)
}

// backfillStats fetches duration and view count. Search results never carry
// them, so this is the videos.list half of the refresh charge.
func (e *SyncEngine) backfillStats(ctx context.Context, token string, ch *model.Channel, videoID string) {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	v, err := e.fetcher.GetVideo(callCtx, token, videoID)
	if err != nil || v == nil {
		log.Warn().Err(err).Str("videoId", videoID).Msg("video stats backfill failed")
		return
	}
	if v.Duration != "" {
		ch.LatestVideoDuration = &v.Duration
	}
	ch.LatestVideoViewCount = &v.ViewCount
}
