package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/charge0315/yt-orchestrator/internal/middleware"
	"github.com/charge0315/yt-orchestrator/internal/model"
)

// Recommender produces the cleaned recommendation list for a user and reports
// whether it came from cache.
type Recommender interface {
	Recommend(ctx context.Context, userID string) ([]model.Recommendation, bool)
}

type RecommendationHandler struct {
	agg Recommender
}

func NewRecommendationHandler(agg Recommender) *RecommendationHandler {
	return &RecommendationHandler{agg: agg}
}

// Recommend handles GET /api/recommendations. The list is best-effort: an
// unavailable suggester yields an empty list, never an error status.
func (h *RecommendationHandler) Recommend(c fiber.Ctx) error {
	recs, cached := h.agg.Recommend(c.Context(), middleware.UserID(c))
	if cached {
		if Metrics.RecCacheHits != nil {
			Metrics.RecCacheHits.Inc()
		}
	} else if Metrics.RecCacheMisses != nil {
		Metrics.RecCacheMisses.Inc()
	}
	return c.JSON(fiber.Map{"items": recs})
}
