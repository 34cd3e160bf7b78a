package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/charge0315/yt-orchestrator/internal/model"
	"github.com/charge0315/yt-orchestrator/internal/repository"
)

// PlaylistStore is the persistence surface PlaylistMerger needs. Satisfied by
// repository.PlaylistRepo.
type PlaylistStore interface {
	ListByUser(ctx context.Context, userID, origin string) ([]model.Playlist, error)
	FindByID(ctx context.Context, userID, playlistID string) (*model.Playlist, error)
	Insert(ctx context.Context, pl *model.Playlist) error
	Replace(ctx context.Context, pl *model.Playlist) error
	UpdateMeta(ctx context.Context, userID, playlistID, name, description string) (*model.Playlist, error)
	Delete(ctx context.Context, userID, playlistID string) error
}

// PlaylistMerger owns playlist CRUD plus the merge semantics shared by item
// adds and imports: videoId is the identity key, duplicates are silently
// skipped, and UpdatedAt moves only when the document actually changed.
type PlaylistMerger struct {
	repo PlaylistStore
	now  func() time.Time
}

func NewPlaylistMerger(repo PlaylistStore) *PlaylistMerger {
	return &PlaylistMerger{repo: repo, now: time.Now}
}

// Create stores a new, empty playlist.
func (m *PlaylistMerger) Create(ctx context.Context, userID, name, description, origin string) (*model.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrValidation
	}
	if origin == "" {
		origin = model.PlaylistOriginVideo
	}
	if origin != model.PlaylistOriginMusic && origin != model.PlaylistOriginVideo {
		return nil, ErrValidation
	}

	now := m.now().UTC()
	pl := &model.Playlist{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: description,
		Origin:      origin,
		Items:       []model.Item{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.repo.Insert(ctx, pl); err != nil {
		return nil, err
	}
	return pl, nil
}

// List returns a user's playlists, optionally filtered by origin.
func (m *PlaylistMerger) List(ctx context.Context, userID, origin string) ([]model.Playlist, error) {
	return m.repo.ListByUser(ctx, userID, origin)
}

// Get returns one playlist, or ErrNotFound.
func (m *PlaylistMerger) Get(ctx context.Context, userID, playlistID string) (*model.Playlist, error) {
	pl, err := m.repo.FindByID(ctx, userID, playlistID)
	if err == repository.ErrNotFound {
		return nil, ErrNotFound
	}
	return pl, err
}

// UpdateMeta renames a playlist or changes its description.
func (m *PlaylistMerger) UpdateMeta(ctx context.Context, userID, playlistID, name, description string) (*model.Playlist, error) {
	if strings.TrimSpace(name) == "" && description == "" {
		return nil, ErrValidation
	}
	pl, err := m.repo.UpdateMeta(ctx, userID, playlistID, strings.TrimSpace(name), description)
	if err == repository.ErrNotFound {
		return nil, ErrNotFound
	}
	return pl, err
}

// Delete removes a playlist.
func (m *PlaylistMerger) Delete(ctx context.Context, userID, playlistID string) error {
	err := m.repo.Delete(ctx, userID, playlistID)
	if err == repository.ErrNotFound {
		return ErrNotFound
	}
	return err
}

// AddItem appends a video to a playlist unless it is already present. Adding
// a duplicate is a no-op success and does not move UpdatedAt.
func (m *PlaylistMerger) AddItem(ctx context.Context, userID, playlistID string, item model.Item) (*model.Playlist, bool, error) {
	if item.VideoID == "" {
		return nil, false, ErrValidation
	}
	pl, err := m.Get(ctx, userID, playlistID)
	if err != nil {
		return nil, false, err
	}
	if pl.ContainsVideo(item.VideoID) {
		return pl, false, nil
	}

	item.AddedAt = m.now().UTC()
	pl.Items = append(pl.Items, item)
	pl.UpdatedAt = m.now().UTC()
	if err := m.repo.Replace(ctx, pl); err != nil {
		return nil, false, err
	}
	return pl, true, nil
}

// RemoveItem deletes a video from a playlist. Removing a video that is not in
// the playlist returns ErrNotFound.
func (m *PlaylistMerger) RemoveItem(ctx context.Context, userID, playlistID, videoID string) (*model.Playlist, error) {
	pl, err := m.Get(ctx, userID, playlistID)
	if err != nil {
		return nil, err
	}

	kept := pl.Items[:0]
	removed := false
	for _, it := range pl.Items {
		if it.VideoID == videoID {
			removed = true
			continue
		}
		kept = append(kept, it)
	}
	if !removed {
		return nil, ErrNotFound
	}

	pl.Items = kept
	pl.UpdatedAt = m.now().UTC()
	if err := m.repo.Replace(ctx, pl); err != nil {
		return nil, err
	}
	return pl, nil
}

// Export produces a portable snapshot of a playlist. AddedAt timestamps are
// deliberately absent so a later import re-stamps them.
func (m *PlaylistMerger) Export(ctx context.Context, userID, playlistID string) (*model.PlaylistExport, error) {
	pl, err := m.Get(ctx, userID, playlistID)
	if err != nil {
		return nil, err
	}

	exp := &model.PlaylistExport{
		PlaylistID:  pl.ID,
		Name:        pl.Name,
		Description: pl.Description,
		Origin:      pl.Origin,
		Items:       make([]model.ExportItem, 0, len(pl.Items)),
	}
	for _, it := range pl.Items {
		exp.Items = append(exp.Items, model.ExportItem{
			VideoID:         it.VideoID,
			Title:           it.Title,
			ArtistOrChannel: it.ArtistOrChannel,
			Duration:        it.Duration,
			ThumbnailURL:    it.ThumbnailURL,
		})
	}
	return exp, nil
}

// Import merges an exported snapshot into the user's playlists. A playlist
// with the same name and origin is the merge target; otherwise a new one is
// created. Stats count every item in the snapshot, added counts only the ones
// not already present (duplicates within the snapshot count once).
func (m *PlaylistMerger) Import(ctx context.Context, userID string, exp *model.PlaylistExport) (*model.Playlist, *model.ImportStats, error) {
	name := strings.TrimSpace(exp.Name)
	if name == "" {
		return nil, nil, ErrValidation
	}
	origin := exp.Origin
	if origin == "" {
		origin = model.PlaylistOriginVideo
	}
	if origin != model.PlaylistOriginMusic && origin != model.PlaylistOriginVideo {
		return nil, nil, ErrValidation
	}

	target, created, err := m.findOrCreateTarget(ctx, userID, name, exp.Description, origin)
	if err != nil {
		return nil, nil, err
	}

	stats := &model.ImportStats{Total: len(exp.Items)}
	now := m.now().UTC()
	for _, it := range exp.Items {
		if it.VideoID == "" || target.ContainsVideo(it.VideoID) {
			continue
		}
		target.Items = append(target.Items, model.Item{
			VideoID:         it.VideoID,
			Title:           it.Title,
			ArtistOrChannel: it.ArtistOrChannel,
			Duration:        it.Duration,
			ThumbnailURL:    it.ThumbnailURL,
			AddedAt:         now,
		})
		stats.Added++
	}

	if stats.Added > 0 && !created {
		target.UpdatedAt = now
	}
	if created || stats.Added > 0 {
		if err := m.repo.Replace(ctx, target); err != nil {
			return nil, nil, err
		}
	}

	log.Info().
		Str("userId", userID).
		Str("playlistId", target.ID).
		Int("total", stats.Total).
		Int("added", stats.Added).
		Msg("playlist import merged")

	return target, stats, nil
}

func (m *PlaylistMerger) findOrCreateTarget(ctx context.Context, userID, name, description, origin string) (*model.Playlist, bool, error) {
	existing, err := m.repo.ListByUser(ctx, userID, origin)
	if err != nil {
		return nil, false, err
	}
	for i := range existing {
		if existing[i].Name == name {
			return &existing[i], false, nil
		}
	}

	pl, err := m.Create(ctx, userID, name, description, origin)
	if err != nil {
		return nil, false, err
	}
	return pl, true, nil
}
