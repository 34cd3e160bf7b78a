package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"github.com/charge0315/yt-orchestrator/internal/middleware"
	"github.com/charge0315/yt-orchestrator/internal/model"
	"github.com/charge0315/yt-orchestrator/internal/service"
)

type PlaylistHandler struct {
	merger *service.PlaylistMerger
}

func NewPlaylistHandler(merger *service.PlaylistMerger) *PlaylistHandler {
	return &PlaylistHandler{merger: merger}
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Origin      string `json:"origin"`
}

// Create handles POST /api/playlists
func (h *PlaylistHandler) Create(c fiber.Ctx) error {
	var req createPlaylistRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Malformed JSON body")
	}
	name, errMsg := middleware.ValidateName(req.Name)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	pl, err := h.merger.Create(c.Context(), middleware.UserID(c), name, req.Description, req.Origin)
	if err != nil {
		return playlistError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(pl)
}

// List handles GET /api/playlists?origin=music|video
func (h *PlaylistHandler) List(c fiber.Ctx) error {
	origin := fiber.Query[string](c, "origin")
	if origin != "" && origin != model.PlaylistOriginMusic && origin != model.PlaylistOriginVideo {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "origin must be music or video")
	}

	playlists, err := h.merger.List(c.Context(), middleware.UserID(c), origin)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list playlists")
	}
	return c.JSON(fiber.Map{"items": playlists})
}

// Get handles GET /api/playlists/:playlistId
func (h *PlaylistHandler) Get(c fiber.Ctx) error {
	pl, err := h.merger.Get(c.Context(), middleware.UserID(c), c.Params("playlistId"))
	if err != nil {
		return playlistError(c, err)
	}
	return c.JSON(pl)
}

type updatePlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Update handles PATCH /api/playlists/:playlistId
func (h *PlaylistHandler) Update(c fiber.Ctx) error {
	var req updatePlaylistRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Malformed JSON body")
	}

	pl, err := h.merger.UpdateMeta(c.Context(), middleware.UserID(c), c.Params("playlistId"), req.Name, req.Description)
	if err != nil {
		return playlistError(c, err)
	}
	return c.JSON(pl)
}

// Delete handles DELETE /api/playlists/:playlistId
func (h *PlaylistHandler) Delete(c fiber.Ctx) error {
	if err := h.merger.Delete(c.Context(), middleware.UserID(c), c.Params("playlistId")); err != nil {
		return playlistError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type addItemRequest struct {
	VideoID         string `json:"videoId"`
	Title           string `json:"title"`
	ArtistOrChannel string `json:"artistOrChannel"`
	Duration        string `json:"duration"`
	ThumbnailURL    string `json:"thumbnailUrl"`
}

// AddItem handles POST /api/playlists/:playlistId/items
func (h *PlaylistHandler) AddItem(c fiber.Ctx) error {
	var req addItemRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Malformed JSON body")
	}
	videoID, errMsg := middleware.ValidateVideoID(req.VideoID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	pl, added, err := h.merger.AddItem(c.Context(), middleware.UserID(c), c.Params("playlistId"), model.Item{
		VideoID:         videoID,
		Title:           req.Title,
		ArtistOrChannel: req.ArtistOrChannel,
		Duration:        req.Duration,
		ThumbnailURL:    req.ThumbnailURL,
	})
	if err != nil {
		return playlistError(c, err)
	}
	if added && Metrics.PlaylistItemsAdded != nil {
		Metrics.PlaylistItemsAdded.Inc()
	}
	return c.JSON(fiber.Map{"playlist": pl, "added": added})
}

// RemoveItem handles DELETE /api/playlists/:playlistId/items/:videoId
func (h *PlaylistHandler) RemoveItem(c fiber.Ctx) error {
	videoID, errMsg := middleware.ValidateVideoID(c.Params("videoId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	pl, err := h.merger.RemoveItem(c.Context(), middleware.UserID(c), c.Params("playlistId"), videoID)
	if err != nil {
		return playlistError(c, err)
	}
	return c.JSON(pl)
}

// Export handles GET /api/playlists/:playlistId/export — returns the portable
// snapshot as a JSON download.
func (h *PlaylistHandler) Export(c fiber.Ctx) error {
	exp, err := h.merger.Export(c.Context(), middleware.UserID(c), c.Params("playlistId"))
	if err != nil {
		return playlistError(c, err)
	}

	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=playlist_%s.json", exp.PlaylistID))
	return c.JSON(exp)
}

// Import handles POST /api/playlists/import — merges an exported snapshot
// into the caller's playlists.
func (h *PlaylistHandler) Import(c fiber.Ctx) error {
	var exp model.PlaylistExport
	if err := c.Bind().JSON(&exp); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Malformed JSON body")
	}

	pl, stats, err := h.merger.Import(c.Context(), middleware.UserID(c), &exp)
	if err != nil {
		return playlistError(c, err)
	}
	if Metrics.PlaylistItemsAdded != nil {
		Metrics.PlaylistItemsAdded.Add(float64(stats.Added))
	}
	return c.JSON(fiber.Map{"playlist": pl, "stats": stats})
}

func playlistError(c fiber.Ctx, err error) error {
	switch err {
	case service.ErrNotFound:
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Playlist or item not found")
	case service.ErrValidation:
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "Invalid playlist payload")
	default:
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Playlist operation failed")
	}
}
