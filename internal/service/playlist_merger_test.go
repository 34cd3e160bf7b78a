package service

import (
	"context"
	"testing"
	"time"

	"github.com/charge0315/yt-orchestrator/internal/model"
	"github.com/charge0315/yt-orchestrator/internal/repository"
)

type fakePlaylistStore struct {
	playlists map[string]*model.Playlist
}

func newFakePlaylistStore() *fakePlaylistStore {
	return &fakePlaylistStore{playlists: make(map[string]*model.Playlist)}
}

func (s *fakePlaylistStore) ListByUser(_ context.Context, userID, origin string) ([]model.Playlist, error) {
	var out []model.Playlist
	for _, pl := range s.playlists {
		if pl.UserID != userID {
			continue
		}
		if origin != "" && pl.Origin != origin {
			continue
		}
		out = append(out, *pl)
	}
	return out, nil
}

func (s *fakePlaylistStore) FindByID(_ context.Context, userID, playlistID string) (*model.Playlist, error) {
	pl, ok := s.playlists[playlistID]
	if !ok || pl.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *pl
	return &cp, nil
}

func (s *fakePlaylistStore) Insert(_ context.Context, pl *model.Playlist) error {
	cp := *pl
	s.playlists[pl.ID] = &cp
	return nil
}

func (s *fakePlaylistStore) Replace(_ context.Context, pl *model.Playlist) error {
	if _, ok := s.playlists[pl.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *pl
	s.playlists[pl.ID] = &cp
	return nil
}

func (s *fakePlaylistStore) UpdateMeta(_ context.Context, userID, playlistID, name, description string) (*model.Playlist, error) {
	pl, ok := s.playlists[playlistID]
	if !ok || pl.UserID != userID {
		return nil, repository.ErrNotFound
	}
	if name != "" {
		pl.Name = name
	}
	if description != "" {
		pl.Description = description
	}
	pl.UpdatedAt = time.Now().UTC()
	cp := *pl
	return &cp, nil
}

func (s *fakePlaylistStore) Delete(_ context.Context, userID, playlistID string) error {
	pl, ok := s.playlists[playlistID]
	if !ok || pl.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.playlists, playlistID)
	return nil
}

func item(videoID string) model.Item {
	return model.Item{VideoID: videoID, Title: "t-" + videoID}
}

func exportItem(videoID string) model.ExportItem {
	return model.ExportItem{VideoID: videoID, Title: "t-" + videoID}
}

func TestAddItemDeduplicatesByVideoID(t *testing.T) {
	m := NewPlaylistMerger(newFakePlaylistStore())
	ctx := context.Background()

	pl, err := m.Create(ctx, "u1", "Mix", "", model.PlaylistOriginMusic)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, added, err := m.AddItem(ctx, "u1", pl.ID, item("vid00000001"))
	if err != nil || !added {
		t.Fatalf("first add: added=%v err=%v", added, err)
	}

	got, _ := m.Get(ctx, "u1", pl.ID)
	before := got.UpdatedAt

	got, added, err = m.AddItem(ctx, "u1", pl.ID, item("vid00000001"))
	if err != nil {
		t.Fatalf("duplicate add: %v", err)
	}
	if added {
		t.Error("duplicate add reported added=true")
	}
	if len(got.Items) != 1 {
		t.Errorf("len(items) = %d, want 1", len(got.Items))
	}
	if !got.UpdatedAt.Equal(before) {
		t.Error("duplicate add moved UpdatedAt")
	}
}

func TestRemoveMissingItemNotFound(t *testing.T) {
	m := NewPlaylistMerger(newFakePlaylistStore())
	ctx := context.Background()

	pl, _ := m.Create(ctx, "u1", "Mix", "", model.PlaylistOriginVideo)
	if _, err := m.RemoveItem(ctx, "u1", pl.ID, "vid00000001"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestImportSnapshotWithDuplicates(t *testing.T) {
	m := NewPlaylistMerger(newFakePlaylistStore())
	ctx := context.Background()

	exp := &model.PlaylistExport{
		Name:   "Road Trip",
		Origin: model.PlaylistOriginMusic,
		Items:  []model.ExportItem{exportItem("vidA0000001"), exportItem("vidB0000001"), exportItem("vidA0000001")},
	}

	pl, stats, err := m.Import(ctx, "u1", exp)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.Total != 3 || stats.Added != 2 {
		t.Errorf("stats = %+v, want {Total:3 Added:2}", stats)
	}
	if len(pl.Items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(pl.Items))
	}
	if pl.Items[0].VideoID != "vidA0000001" || pl.Items[1].VideoID != "vidB0000001" {
		t.Errorf("item order = [%s %s], want [vidA0000001 vidB0000001]", pl.Items[0].VideoID, pl.Items[1].VideoID)
	}
}

func TestImportIsIdempotent(t *testing.T) {
	m := NewPlaylistMerger(newFakePlaylistStore())
	ctx := context.Background()

	exp := &model.PlaylistExport{
		Name:   "Road Trip",
		Origin: model.PlaylistOriginMusic,
		Items:  []model.ExportItem{exportItem("vidA0000001"), exportItem("vidB0000001")},
	}

	first, _, err := m.Import(ctx, "u1", exp)
	if err != nil {
		t.Fatalf("first import: %v", err)
	}

	second, stats, err := m.Import(ctx, "u1", exp)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if stats.Added != 0 {
		t.Errorf("second import added = %d, want 0", stats.Added)
	}
	if second.ID != first.ID {
		t.Error("second import created a new playlist instead of merging")
	}
	if len(second.Items) != 2 {
		t.Errorf("len(items) = %d, want 2", len(second.Items))
	}
	if !second.UpdatedAt.Equal(first.UpdatedAt) {
		t.Error("no-op import moved UpdatedAt")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	m := NewPlaylistMerger(newFakePlaylistStore())
	ctx := context.Background()

	pl, _ := m.Create(ctx, "u1", "Focus", "deep work", model.PlaylistOriginMusic)
	m.AddItem(ctx, "u1", pl.ID, item("vidA0000001"))
	m.AddItem(ctx, "u1", pl.ID, item("vidB0000001"))

	exp, err := m.Export(ctx, "u1", pl.ID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(exp.Items) != 2 {
		t.Fatalf("len(export items) = %d, want 2", len(exp.Items))
	}

	// Importing into another account reproduces the same content.
	got, stats, err := m.Import(ctx, "u2", exp)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.Total != 2 || stats.Added != 2 {
		t.Errorf("stats = %+v, want {Total:2 Added:2}", stats)
	}
	if got.Name != "Focus" || got.Origin != model.PlaylistOriginMusic {
		t.Errorf("imported meta = %s/%s, want Focus/music", got.Name, got.Origin)
	}
	for i, it := range got.Items {
		if it.VideoID != exp.Items[i].VideoID || it.Title != exp.Items[i].Title {
			t.Errorf("item[%d] = %+v, want %+v", i, it, exp.Items[i])
		}
		if it.AddedAt.IsZero() {
			t.Errorf("item[%d] AddedAt not re-stamped on import", i)
		}
	}
}

func TestCreateRejectsBlankNameAndBadOrigin(t *testing.T) {
	m := NewPlaylistMerger(newFakePlaylistStore())
	ctx := context.Background()

	if _, err := m.Create(ctx, "u1", "   ", "", model.PlaylistOriginMusic); err != ErrValidation {
		t.Errorf("blank name err = %v, want ErrValidation", err)
	}
	if _, err := m.Create(ctx, "u1", "ok", "", "podcast"); err != ErrValidation {
		t.Errorf("bad origin err = %v, want ErrValidation", err)
	}
}
