package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/charge0315/yt-orchestrator/internal/model"
	"github.com/charge0315/yt-orchestrator/internal/quota"
	"github.com/charge0315/yt-orchestrator/internal/youtube"
)

// newReleaseCap bounds the new-releases feed.
const newReleaseCap = 20

// ChannelFetcher is the slice of the upstream client the channel service uses.
type ChannelFetcher interface {
	GetChannel(ctx context.Context, token, channelID string) (*youtube.ChannelDetails, error)
}

// ChannelService manages subscriptions: the mirrored channel documents that
// every other read path is served from.
type ChannelService struct {
	cache    *ChannelCache
	fetcher  ChannelFetcher
	ledger   *quota.Ledger
	recCache *RecCache
	now      func() time.Time
}

func NewChannelService(cache *ChannelCache, fetcher ChannelFetcher, ledger *quota.Ledger, recCache *RecCache) *ChannelService {
	return &ChannelService{cache: cache, fetcher: fetcher, ledger: ledger, recCache: recCache, now: time.Now}
}

// Subscribe mirrors a channel for the user. Costs one channels.list unit; the
// latest-video fields stay empty until the first refresh. Subscribing to an
// already-mirrored channel is free: the existing document comes back as is,
// except that following it as an artist promotes the isArtist flag.
func (s *ChannelService) Subscribe(ctx context.Context, userID, token, channelID string, isArtist bool) (*model.Channel, error) {
	if existing, err := s.cache.Get(ctx, userID, channelID); err == nil {
		if isArtist && !existing.IsArtist {
			existing.IsArtist = true
			if err := s.cache.Put(ctx, existing); err != nil {
				return nil, err
			}
			s.invalidateRecs(ctx, userID)
		}
		return existing, nil
	} else if err != ErrNotFound {
		return nil, err
	}

	if !s.ledger.TryReserve(quota.CostChannelsList) {
		return nil, ErrQuotaExhausted
	}

	details, err := s.fetcher.GetChannel(ctx, token, channelID)
	if err != nil {
		log.Warn().Err(err).Str("channelId", channelID).Msg("channel details fetch failed")
		return nil, ErrUpstreamUnavailable
	}
	if details == nil {
		return nil, ErrNotFound
	}

	now := s.now().UTC()
	ch := &model.Channel{
		ID:              uuid.NewString(),
		UserID:          userID,
		ChannelID:       details.ChannelID,
		Title:           details.Title,
		Description:     details.Description,
		ThumbnailURL:    details.ThumbnailURL,
		SubscriberCount: strconv.FormatInt(details.SubscriberCount, 10),
		IsArtist:        isArtist,
		SubscribedAt:    now,
	}
	if err := s.cache.Put(ctx, ch); err != nil {
		return nil, err
	}

	s.invalidateRecs(ctx, userID)
	log.Info().Str("userId", userID).Str("channelId", channelID).Bool("isArtist", isArtist).Msg("channel subscribed")
	return ch, nil
}

// Unsubscribe removes the mirrored channel. The id may be either the
// external channel id or the subscription document id.
func (s *ChannelService) Unsubscribe(ctx context.Context, userID, id string) error {
	err := s.cache.Delete(ctx, userID, id)
	if err == ErrNotFound {
		if ch := s.findBySubscriptionID(ctx, userID, id); ch != nil {
			err = s.cache.Delete(ctx, userID, ch.ChannelID)
		}
	}
	if err != nil {
		return err
	}
	s.invalidateRecs(ctx, userID)
	return nil
}

func (s *ChannelService) findBySubscriptionID(ctx context.Context, userID, id string) *model.Channel {
	all, err := s.cache.List(ctx, userID)
	if err != nil {
		return nil
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i]
		}
	}
	return nil
}

// List returns every mirrored channel for the user.
func (s *ChannelService) List(ctx context.Context, userID string) ([]model.Channel, error) {
	return s.cache.List(ctx, userID)
}

// ListArtists returns only the channels subscribed as music artists.
func (s *ChannelService) ListArtists(ctx context.Context, userID string) ([]model.Channel, error) {
	all, err := s.cache.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	artists := make([]model.Channel, 0, len(all))
	for _, ch := range all {
		if ch.IsArtist {
			artists = append(artists, ch)
		}
	}
	return artists, nil
}

// Get returns one mirrored channel.
func (s *ChannelService) Get(ctx context.Context, userID, channelID string) (*model.Channel, error) {
	return s.cache.Get(ctx, userID, channelID)
}

// NewReleases returns the newest cached uploads across the user's
// subscriptions, sorted by publish time descending and capped. Entirely
// served from the mirror; costs no quota.
func (s *ChannelService) NewReleases(ctx context.Context, userID string, artistsOnly bool) ([]model.Channel, error) {
	all, err := s.cache.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	releases := make([]model.Channel, 0, len(all))
	for _, ch := range all {
		if artistsOnly && !ch.IsArtist {
			continue
		}
		if ch.HasLatestVideo() && ch.LatestVideoPublishedAt != nil {
			releases = append(releases, ch)
		}
	}
	sort.Slice(releases, func(i, j int) bool {
		return releases[i].LatestVideoPublishedAt.After(*releases[j].LatestVideoPublishedAt)
	})
	if len(releases) > newReleaseCap {
		releases = releases[:newReleaseCap]
	}
	return releases, nil
}

func (s *ChannelService) invalidateRecs(ctx context.Context, userID string) {
	if s.recCache == nil {
		return
	}
	if err := s.recCache.InvalidateRecommendations(ctx, userID); err != nil {
		log.Warn().Err(err).Msg("recommendation cache invalidation failed")
	}
}
