package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/charge0315/yt-orchestrator/internal/handler"
	"github.com/charge0315/yt-orchestrator/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Channel        *handler.ChannelHandler
	Artist         *handler.ArtistHandler
	Playlist       *handler.PlaylistHandler
	Recommendation *handler.RecommendationHandler
	Search         *handler.SearchHandler
	Health         *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewDefaultRateLimiter().Handler())

	// Health and metrics (before API group, no auth needed)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	// All API routes require an identified user.
	api := app.Group("/api", middleware.RequireUser())

	refreshLimit := middleware.NewRefreshRateLimiter().Handler()
	importLimit := middleware.NewImportRateLimiter().Handler()
	exportLimit := middleware.NewExportRateLimiter().Handler()

	// Channel subscriptions
	api.Post("/channels", h.Channel.Subscribe)
	api.Get("/channels", h.Channel.List)
	api.Get("/channels/new-releases", h.Channel.NewReleases)
	api.Post("/channels/refresh", h.Channel.Refresh, refreshLimit)
	api.Get("/channels/:channelId", h.Channel.Get)
	api.Delete("/channels/:channelId", h.Channel.Unsubscribe)

	// Artist view (YouTube Music)
	api.Post("/artists", h.Artist.Follow)
	api.Get("/artists", h.Artist.List)
	api.Get("/artists/new-releases", h.Artist.NewReleases)
	api.Delete("/artists/:channelId", h.Artist.Unfollow)

	// Playlists
	api.Post("/playlists", h.Playlist.Create)
	api.Get("/playlists", h.Playlist.List)
	api.Post("/playlists/import", h.Playlist.Import, importLimit)
	api.Get("/playlists/:playlistId", h.Playlist.Get)
	api.Patch("/playlists/:playlistId", h.Playlist.Update)
	api.Delete("/playlists/:playlistId", h.Playlist.Delete)
	api.Post("/playlists/:playlistId/items", h.Playlist.AddItem)
	api.Delete("/playlists/:playlistId/items/:videoId", h.Playlist.RemoveItem)
	api.Get("/playlists/:playlistId/export", h.Playlist.Export, exportLimit)

	// Recommendations
	api.Get("/recommendations", h.Recommendation.Recommend)

	// Search
	api.Get("/search/videos", h.Search.Videos)
	api.Get("/search/channels", h.Search.Channels)
}
