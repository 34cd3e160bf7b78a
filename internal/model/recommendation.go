package model

// Recommendation is a ranked suggestion produced by the external suggestion
// function. TargetID is a channel ID, a video ID, or a search query the
// client can resolve — the suggester decides which.
type Recommendation struct {
	TargetID     string `json:"channelIdOrVideoId"`
	Title        string `json:"title"`
	Reason       string `json:"reason,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// ChannelSummary is the minimal channel view handed to the suggestion
// function. Names and IDs only — suggesting costs no platform quota.
type ChannelSummary struct {
	ChannelID string `json:"channelId"`
	Title     string `json:"title"`
	IsArtist  bool   `json:"isArtist"`
}
