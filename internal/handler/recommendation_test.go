package handler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charge0315/yt-orchestrator/internal/middleware"
	"github.com/charge0315/yt-orchestrator/internal/model"
)

type fakeRecommender struct {
	recs   []model.Recommendation
	cached bool
}

func (f *fakeRecommender) Recommend(_ context.Context, _ string) ([]model.Recommendation, bool) {
	return f.recs, f.cached
}

func newRecommendationApp(rec Recommender) *fiber.App {
	app := fiber.New()
	api := app.Group("/api", middleware.RequireUser())
	api.Get("/recommendations", NewRecommendationHandler(rec).Recommend)
	return app
}

// swapRecCacheCounters installs fresh unregistered counters so the test can
// observe increments without touching the global registry.
func swapRecCacheCounters(t *testing.T) (hits, misses prometheus.Counter) {
	t.Helper()
	prevHits, prevMisses := Metrics.RecCacheHits, Metrics.RecCacheMisses
	hits = prometheus.NewCounter(prometheus.CounterOpts{Name: "test_rec_cache_hits_total"})
	misses = prometheus.NewCounter(prometheus.CounterOpts{Name: "test_rec_cache_misses_total"})
	Metrics.RecCacheHits, Metrics.RecCacheMisses = hits, misses
	t.Cleanup(func() {
		Metrics.RecCacheHits, Metrics.RecCacheMisses = prevHits, prevMisses
	})
	return hits, misses
}

func TestRecommendCountsCacheMiss(t *testing.T) {
	hits, misses := swapRecCacheCounters(t)
	app := newRecommendationApp(&fakeRecommender{
		recs: []model.Recommendation{{TargetID: "c2", Title: "New channel"}},
	})

	status, payload := doJSON(t, app, fiber.MethodGet, "/api/recommendations", nil)
	require.Equal(t, fiber.StatusOK, status)

	var items []model.Recommendation
	require.NoError(t, json.Unmarshal(payload["items"], &items))
	require.Len(t, items, 1)
	assert.Equal(t, "c2", items[0].TargetID)

	assert.Equal(t, 0.0, testutil.ToFloat64(hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(misses))
}

func TestRecommendCountsCacheHit(t *testing.T) {
	hits, misses := swapRecCacheCounters(t)
	app := newRecommendationApp(&fakeRecommender{cached: true})

	status, _ := doJSON(t, app, fiber.MethodGet, "/api/recommendations", nil)
	require.Equal(t, fiber.StatusOK, status)

	assert.Equal(t, 1.0, testutil.ToFloat64(hits))
	assert.Equal(t, 0.0, testutil.ToFloat64(misses))
}
