package model

import "time"

// Channel is the locally mirrored copy of a subscribed YouTube channel or
// artist. One document per (userId, channelId) pair; the document ID doubles
// as the subscription ID exposed to clients.
type Channel struct {
	ID              string    `bson:"_id" json:"id"`
	UserID          string    `bson:"userId" json:"-"`
	ChannelID       string    `bson:"channelId" json:"channelId"`
	Title           string    `bson:"title" json:"title"`
	Description     string    `bson:"description,omitempty" json:"description,omitempty"`
	ThumbnailURL    string    `bson:"thumbnailUrl,omitempty" json:"thumbnailUrl,omitempty"`
	SubscriberCount string    `bson:"subscriberCount,omitempty" json:"subscriberCount,omitempty"`
	IsArtist        bool      `bson:"isArtist" json:"isArtist"`
	SubscribedAt    time.Time `bson:"subscribedAt" json:"subscribedAt"`

	// Cached "latest video" triple plus enrichment fields. All nil until the
	// first successful refresh after subscription.
	LatestVideoID           *string    `bson:"latestVideoId,omitempty" json:"latestVideoId,omitempty"`
	LatestVideoTitle        *string    `bson:"latestVideoTitle,omitempty" json:"latestVideoTitle,omitempty"`
	LatestVideoThumbnailURL *string    `bson:"latestVideoThumbnail,omitempty" json:"latestVideoThumbnail,omitempty"`
	LatestVideoPublishedAt  *time.Time `bson:"latestVideoPublishedAt,omitempty" json:"latestVideoPublishedAt,omitempty"`
	LatestVideoDuration     *string    `bson:"latestVideoDuration,omitempty" json:"latestVideoDuration,omitempty"`
	LatestVideoViewCount    *int64     `bson:"latestVideoViewCount,omitempty" json:"latestVideoViewCount,omitempty"`

	// LastCheckedAt is the time of the last successful refresh. Monotonically
	// non-decreasing; nil means the channel has never been refreshed.
	LastCheckedAt *time.Time `bson:"lastCheckedAt,omitempty" json:"lastCheckedAt,omitempty"`

	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HasLatestVideo reports whether at least one refresh has populated the
// cached latest-video triple.
func (c *Channel) HasLatestVideo() bool {
	return c.LatestVideoID != nil && *c.LatestVideoID != ""
}

// RefreshStatus classifies the outcome of a single channel refresh attempt.
type RefreshStatus string

const (
	// RefreshFresh means the cache entry was within maxAge and was skipped.
	RefreshFresh RefreshStatus = "fresh"
	// RefreshRefreshed means the platform API was called and the cache updated.
	RefreshRefreshed RefreshStatus = "refreshed"
	// RefreshQuotaExhausted means the quota ledger refused the reservation;
	// the cache entry is untouched and callers should serve it as-is.
	RefreshQuotaExhausted RefreshStatus = "quota_exhausted"
	// RefreshFailed means the platform call errored; the failure is isolated
	// to this channel and the cache entry is untouched.
	RefreshFailed RefreshStatus = "failed"
)

// RefreshOutcome is the per-channel result of SyncEngine.RefreshIfStale.
type RefreshOutcome struct {
	ChannelID string        `json:"channelId"`
	Status    RefreshStatus `json:"status"`
	// Updated is true when the refresh changed the cached latest-video triple
	// (as opposed to confirming the cached video is still the newest).
	Updated bool   `json:"updated"`
	Reason  string `json:"reason,omitempty"`
}

// RefreshStats aggregates outcomes for the refresh response body.
type RefreshStats struct {
	Checked        int `json:"checked"`
	Updated        int `json:"updated"`
	Fresh          int `json:"fresh"`
	QuotaExhausted int `json:"quotaExhausted"`
	Failed         int `json:"failed"`
}

// TallyRefreshStats folds a list of outcomes into aggregate stats.
func TallyRefreshStats(outcomes []RefreshOutcome) RefreshStats {
	var s RefreshStats
	for _, o := range outcomes {
		switch o.Status {
		case RefreshFresh:
			s.Fresh++
		case RefreshRefreshed:
			s.Checked++
			if o.Updated {
				s.Updated++
			}
		case RefreshQuotaExhausted:
			s.QuotaExhausted++
		case RefreshFailed:
			s.Checked++
			s.Failed++
		}
	}
	return s
}
