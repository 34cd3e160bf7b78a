package suggest

import (
	"context"

	"github.com/charge0315/yt-orchestrator/internal/model"
)

// RuleSuggester is the quota-free fallback used when no OpenAI key is
// configured. It recommends from a small static catalog per profile shape so
// the recommendation surface keeps working in development.
type RuleSuggester struct{}

func NewRuleSuggester() *RuleSuggester {
	return &RuleSuggester{}
}

var artistCatalog = []model.Recommendation{
	{TargetID: "UC-9-kyTW8ZkZNDHQJ6FgpwQ", Title: "Music", Reason: "popular with music listeners"},
	{TargetID: "UCmBA_wu8xGg1OfOkfW13Q0Q", Title: "NPR Music", Reason: "live sessions and discovery"},
	{TargetID: "UC4eYXhJI4-7wSWc8UNRwD4A", Title: "NPR Tiny Desk", Reason: "intimate performances"},
}

var channelCatalog = []model.Recommendation{
	{TargetID: "UCsXVk37bltHxD1rDPwtNM8Q", Title: "Kurzgesagt", Reason: "broadly popular science explainers"},
	{TargetID: "UCX6OQ3DkcsbYNE6H8uQQuVA", Title: "MrBeast", Reason: "widely watched across audiences"},
	{TargetID: "UCBJycsmduvYEL83R_U4JriQ", Title: "MKBHD", Reason: "technology reviews"},
}

// Suggest returns catalog entries weighted toward the dominant profile kind.
func (s *RuleSuggester) Suggest(_ context.Context, subscribed []model.ChannelSummary, limit int) ([]model.Recommendation, error) {
	artists := 0
	for _, ch := range subscribed {
		if ch.IsArtist {
			artists++
		}
	}

	var out []model.Recommendation
	if artists*2 >= len(subscribed) && len(subscribed) > 0 {
		out = append(out, artistCatalog...)
		out = append(out, channelCatalog...)
	} else {
		out = append(out, channelCatalog...)
		out = append(out, artistCatalog...)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
