package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/charge0315/yt-orchestrator/internal/middleware"
	"github.com/charge0315/yt-orchestrator/internal/quota"
	"github.com/charge0315/yt-orchestrator/internal/youtube"
)

const (
	defaultSearchResults = 10
	maxSearchResults     = 25
)

// Searcher is the slice of the upstream client the search handler uses.
type Searcher interface {
	SearchVideos(ctx context.Context, token, query, pageToken string, maxResults int) (*youtube.Envelope[youtube.Video], error)
	SearchChannels(ctx context.Context, token, query, pageToken string, maxResults int) (*youtube.Envelope[youtube.ChannelResult], error)
}

type SearchHandler struct {
	client Searcher
	ledger *quota.Ledger
}

func NewSearchHandler(client Searcher, ledger *quota.Ledger) *SearchHandler {
	return &SearchHandler{client: client, ledger: ledger}
}

// Videos handles GET /api/search/videos?q=...&pageToken=...&maxResults=...
// Every call costs a full search unit, so it is guarded by the quota ledger
// with no cached fallback.
func (h *SearchHandler) Videos(c fiber.Ctx) error {
	query, maxResults, ok, err := h.searchParams(c)
	if !ok {
		return err
	}

	env, err := h.client.SearchVideos(c.Context(), middleware.YouTubeToken(c), query, fiber.Query[string](c, "pageToken"), maxResults)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "YouTube search failed")
	}
	return c.JSON(env)
}

// Channels handles GET /api/search/channels — the discovery path for finding
// a channelId to subscribe to by name. Same quota cost as a video search.
func (h *SearchHandler) Channels(c fiber.Ctx) error {
	query, maxResults, ok, err := h.searchParams(c)
	if !ok {
		return err
	}

	env, err := h.client.SearchChannels(c.Context(), middleware.YouTubeToken(c), query, fiber.Query[string](c, "pageToken"), maxResults)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "YouTube search failed")
	}
	return c.JSON(env)
}

// searchParams validates the query and reserves the search unit. When ok is
// false the error response has already been written.
func (h *SearchHandler) searchParams(c fiber.Ctx) (string, int, bool, error) {
	raw := fiber.Query[string](c, "query")
	if raw == "" {
		raw = fiber.Query[string](c, "q")
	}
	query, errMsg := middleware.ValidateSearchQuery(raw)
	if errMsg != "" {
		return "", 0, false, middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	maxResults := fiber.Query[int](c, "maxResults", defaultSearchResults)
	if maxResults < 1 || maxResults > maxSearchResults {
		maxResults = defaultSearchResults
	}

	if !h.ledger.TryReserve(quota.CostSearch) {
		return "", 0, false, middleware.ErrorResponse(c, fiber.StatusTooManyRequests, "QUOTA_EXHAUSTED", "API unit budget exhausted for the current window")
	}
	return query, maxResults, true, nil
}
