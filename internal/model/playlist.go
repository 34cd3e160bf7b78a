package model

import "time"

// Playlist origin tags. Music and video playlists share one shape and are
// distinguished only by origin.
const (
	PlaylistOriginMusic = "music"
	PlaylistOriginVideo = "video"
)

// Playlist is a locally owned playlist. Items keep insertion order; the
// order is preserved on export.
type Playlist struct {
	ID          string    `bson:"_id" json:"id"`
	UserID      string    `bson:"userId" json:"-"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Origin      string    `bson:"origin" json:"origin"`
	Items       []Item    `bson:"items" json:"items"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ContainsVideo reports whether the playlist already holds videoID.
func (p *Playlist) ContainsVideo(videoID string) bool {
	for i := range p.Items {
		if p.Items[i].VideoID == videoID {
			return true
		}
	}
	return false
}

// Item is a single playlist entry.
type Item struct {
	VideoID         string    `bson:"videoId" json:"videoId"`
	Title           string    `bson:"title" json:"title"`
	ArtistOrChannel string    `bson:"artistOrChannel" json:"artistOrChannel"`
	Duration        string    `bson:"duration,omitempty" json:"duration,omitempty"`
	ThumbnailURL    string    `bson:"thumbnailUrl,omitempty" json:"thumbnailUrl,omitempty"`
	AddedAt         time.Time `bson:"addedAt" json:"addedAt"`
}

// PlaylistExport is the portable JSON shape written by the export endpoint
// and accepted back by import. AddedAt is deliberately absent: it is
// re-stamped on import.
type PlaylistExport struct {
	PlaylistID  string       `json:"playlistId"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Origin      string       `json:"origin,omitempty"`
	Items       []ExportItem `json:"items"`
}

// ExportItem mirrors Item without the local AddedAt stamp.
type ExportItem struct {
	VideoID         string `json:"videoId"`
	Title           string `json:"title"`
	ArtistOrChannel string `json:"artistOrChannel"`
	Duration        string `json:"duration,omitempty"`
	ThumbnailURL    string `json:"thumbnailUrl,omitempty"`
}

// ImportStats reports how an import reconciled against existing state.
type ImportStats struct {
	Total int `json:"total"`
	Added int `json:"added"`
}
