package service

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/charge0315/yt-orchestrator/internal/model"
)

// Suggester produces raw recommendation candidates for a user's subscription
// profile. Implementations may call external services and fail; the
// aggregator absorbs those failures.
type Suggester interface {
	Suggest(ctx context.Context, subscribed []model.ChannelSummary, limit int) ([]model.Recommendation, error)
}

// RecommendationAggregator turns a user's subscriptions into a cleaned
// recommendation list: already-subscribed channels are filtered out,
// duplicates collapse to their first occurrence, and any upstream failure
// degrades to an empty list rather than an error.
type RecommendationAggregator struct {
	suggester Suggester
	channels  *ChannelCache
	cache     *RecCache
	limit     int
}

func NewRecommendationAggregator(suggester Suggester, channels *ChannelCache, cache *RecCache, limit int) *RecommendationAggregator {
	if limit <= 0 {
		limit = 10
	}
	return &RecommendationAggregator{suggester: suggester, channels: channels, cache: cache, limit: limit}
}

// Recommend returns up to limit recommendations for the user, plus whether
// the list was served from cache. The result is never nil and the call never
// fails on suggester errors.
func (a *RecommendationAggregator) Recommend(ctx context.Context, userID string) ([]model.Recommendation, bool) {
	if cached := a.fromCache(ctx, userID); cached != nil {
		return cached, true
	}

	subscribed, err := a.channels.List(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("userId", userID).Msg("recommendation: channel list failed")
		return []model.Recommendation{}, false
	}

	summaries := make([]model.ChannelSummary, 0, len(subscribed))
	subscribedIDs := make(map[string]bool, len(subscribed))
	for _, ch := range subscribed {
		summaries = append(summaries, model.ChannelSummary{
			ChannelID: ch.ChannelID,
			Title:     ch.Title,
			IsArtist:  ch.IsArtist,
		})
		subscribedIDs[ch.ChannelID] = true
	}

	raw, err := a.suggester.Suggest(ctx, summaries, a.limit)
	if err != nil {
		log.Warn().Err(err).Str("userId", userID).Msg("recommendation: suggester failed, degrading to empty")
		return []model.Recommendation{}, false
	}

	out := Sanitize(raw, subscribedIDs, a.limit)
	a.toCache(ctx, userID, out)
	return out, false
}

// Sanitize drops already-subscribed targets and duplicate targets, keeping
// first occurrences in order, capped at limit.
func Sanitize(raw []model.Recommendation, subscribedIDs map[string]bool, limit int) []model.Recommendation {
	out := make([]model.Recommendation, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, rec := range raw {
		if rec.TargetID == "" || seen[rec.TargetID] || subscribedIDs[rec.TargetID] {
			continue
		}
		seen[rec.TargetID] = true
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out
}

func (a *RecommendationAggregator) fromCache(ctx context.Context, userID string) []model.Recommendation {
	if a.cache == nil {
		return nil
	}
	data, err := a.cache.GetRecommendations(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Msg("recommendation cache get failed")
		return nil
	}
	if data == nil {
		return nil
	}
	var recs []model.Recommendation
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil
	}
	return recs
}

func (a *RecommendationAggregator) toCache(ctx context.Context, userID string, recs []model.Recommendation) {
	if a.cache == nil {
		return
	}
	if err := a.cache.SetRecommendations(ctx, userID, recs); err != nil {
		log.Warn().Err(err).Msg("recommendation cache set failed")
	}
}
