package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/charge0315/yt-orchestrator/internal/middleware"
	"github.com/charge0315/yt-orchestrator/internal/model"
	"github.com/charge0315/yt-orchestrator/internal/service"
)

type ChannelHandler struct {
	svc    *service.ChannelService
	engine *service.SyncEngine
}

func NewChannelHandler(svc *service.ChannelService, engine *service.SyncEngine) *ChannelHandler {
	return &ChannelHandler{svc: svc, engine: engine}
}

type subscribeRequest struct {
	ChannelID string `json:"channelId"`
	IsArtist  bool   `json:"isArtist"`
}

// Subscribe handles POST /api/channels
func (h *ChannelHandler) Subscribe(c fiber.Ctx) error {
	var req subscribeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Malformed JSON body")
	}
	channelID, errMsg := middleware.ValidateChannelID(req.ChannelID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	ch, err := h.svc.Subscribe(c.Context(), middleware.UserID(c), middleware.YouTubeToken(c), channelID, req.IsArtist)
	if err != nil {
		return subscribeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ch)
}

// List handles GET /api/channels
func (h *ChannelHandler) List(c fiber.Ctx) error {
	channels, err := h.svc.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list channels")
	}
	return c.JSON(fiber.Map{"items": channels})
}

// Get handles GET /api/channels/:channelId
func (h *ChannelHandler) Get(c fiber.Ctx) error {
	channelID, errMsg := middleware.ValidateChannelID(c.Params("channelId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	ch, err := h.svc.Get(c.Context(), middleware.UserID(c), channelID)
	if err != nil {
		if err == service.ErrNotFound {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel not subscribed")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load channel")
	}
	return c.JSON(ch)
}

// Unsubscribe handles DELETE /api/channels/:channelId — the segment may be
// the external channel id or the subscription id.
func (h *ChannelHandler) Unsubscribe(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateSubscriptionID(c.Params("channelId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	if err := h.svc.Unsubscribe(c.Context(), middleware.UserID(c), id); err != nil {
		if err == service.ErrNotFound {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel not subscribed")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to unsubscribe")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type refreshRequest struct {
	ChannelIDs []string `json:"channelIds"`
}

// Refresh handles POST /api/channels/refresh — refreshes the stale subset of
// the given channels (or all of the user's channels when the list is empty).
func (h *ChannelHandler) Refresh(c fiber.Ctx) error {
	var req refreshRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Malformed JSON body")
		}
	}

	userID := middleware.UserID(c)
	if len(req.ChannelIDs) == 0 {
		channels, err := h.svc.List(c.Context(), userID)
		if err != nil {
			return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list channels")
		}
		for _, ch := range channels {
			req.ChannelIDs = append(req.ChannelIDs, ch.ChannelID)
		}
	}

	var opts service.RefreshOptions
	if maxAge := fiber.Query[string](c, "maxAge"); maxAge != "" {
		d, err := time.ParseDuration(maxAge)
		if err != nil || d <= 0 {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "maxAge must be a positive duration")
		}
		opts.MaxAge = d
	}
	if mc := fiber.Query[int](c, "maxConcurrent"); mc > 0 {
		opts.MaxInFlight = mc
	}

	outcomes, err := h.engine.RefreshIfStaleWith(c.Context(), userID, middleware.YouTubeToken(c), req.ChannelIDs, opts)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Refresh failed")
	}

	if Metrics.RefreshOutcomes != nil {
		for _, o := range outcomes {
			Metrics.RefreshOutcomes.WithLabelValues(string(o.Status)).Inc()
		}
	}

	return c.JSON(fiber.Map{
		"outcomes": outcomes,
		"stats":    model.TallyRefreshStats(outcomes),
	})
}

// NewReleases handles GET /api/channels/new-releases
func (h *ChannelHandler) NewReleases(c fiber.Ctx) error {
	artistsOnly := fiber.Query[bool](c, "artistsOnly")
	releases, err := h.svc.NewReleases(c.Context(), middleware.UserID(c), artistsOnly)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load new releases")
	}
	return c.JSON(fiber.Map{"items": releases})
}

func subscribeError(c fiber.Ctx, err error) error {
	switch err {
	case service.ErrNotFound:
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel does not exist")
	case service.ErrQuotaExhausted:
		return middleware.ErrorResponse(c, fiber.StatusTooManyRequests, "QUOTA_EXHAUSTED", "API unit budget exhausted for the current window")
	case service.ErrUpstreamUnavailable:
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "YouTube API call failed")
	default:
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to subscribe")
	}
}
