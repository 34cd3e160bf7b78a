package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/charge0315/yt-orchestrator/internal/middleware"
	"github.com/charge0315/yt-orchestrator/internal/service"
)

// ArtistHandler is the YouTube Music view over the same mirrored channels:
// subscriptions flagged isArtist.
type ArtistHandler struct {
	svc *service.ChannelService
}

func NewArtistHandler(svc *service.ChannelService) *ArtistHandler {
	return &ArtistHandler{svc: svc}
}

type followRequest struct {
	ChannelID string `json:"channelId"`
}

// Follow handles POST /api/artists
func (h *ArtistHandler) Follow(c fiber.Ctx) error {
	var req followRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Malformed JSON body")
	}
	channelID, errMsg := middleware.ValidateChannelID(req.ChannelID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	ch, err := h.svc.Subscribe(c.Context(), middleware.UserID(c), middleware.YouTubeToken(c), channelID, true)
	if err != nil {
		return subscribeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ch)
}

// List handles GET /api/artists
func (h *ArtistHandler) List(c fiber.Ctx) error {
	artists, err := h.svc.ListArtists(c.Context(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list artists")
	}
	return c.JSON(fiber.Map{"items": artists})
}

// Unfollow handles DELETE /api/artists/:channelId — the segment may be the
// external channel id or the subscription id.
func (h *ArtistHandler) Unfollow(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateSubscriptionID(c.Params("channelId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	if err := h.svc.Unsubscribe(c.Context(), middleware.UserID(c), id); err != nil {
		if err == service.ErrNotFound {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Artist not followed")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to unfollow")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// NewReleases handles GET /api/artists/new-releases
func (h *ArtistHandler) NewReleases(c fiber.Ctx) error {
	releases, err := h.svc.NewReleases(c.Context(), middleware.UserID(c), true)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load new releases")
	}
	return c.JSON(fiber.Map{"items": releases})
}
