package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Client talks to the YouTube Data API v3. Every call that lists or searches
// returns a normalized Envelope so callers never inspect raw API paging shapes.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Envelope is the normalized list-response shape: the items plus an opaque
// continuation token, empty when there are no further pages.
type Envelope[T any] struct {
	Items         []T    `json:"items"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

// Video is a normalized video result.
type Video struct {
	VideoID      string     `json:"videoId"`
	Title        string     `json:"title"`
	ChannelID    string     `json:"channelId"`
	ChannelTitle string     `json:"channelTitle"`
	ThumbnailURL string     `json:"thumbnailUrl"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	Duration     string     `json:"duration,omitempty"`
	ViewCount    int64      `json:"viewCount,omitempty"`
}

// ChannelResult is a normalized channel search result.
type ChannelResult struct {
	ChannelID    string `json:"channelId"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// ChannelDetails is a normalized channels.list result.
type ChannelDetails struct {
	ChannelID       string `json:"channelId"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	ThumbnailURL    string `json:"thumbnailUrl"`
	SubscriberCount int64  `json:"subscriberCount"`
}

// APIError is a non-2xx response from the Data API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("youtube api: status %d: %s", e.StatusCode, e.Message)
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// SearchVideos runs a search.list query restricted to videos.
func (c *Client) SearchVideos(ctx context.Context, token, query, pageToken string, maxResults int) (*Envelope[Video], error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("q", query)
	q.Set("maxResults", strconv.Itoa(maxResults))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	var resp searchListResponse
	if err := c.get(ctx, token, "/search", q, &resp); err != nil {
		return nil, err
	}

	env := &Envelope[Video]{Items: make([]Video, 0, len(resp.Items)), NextPageToken: resp.NextPageToken}
	for _, it := range resp.Items {
		if it.ID.VideoID == "" {
			continue
		}
		env.Items = append(env.Items, Video{
			VideoID:      it.ID.VideoID,
			Title:        it.Snippet.Title,
			ChannelID:    it.Snippet.ChannelID,
			ChannelTitle: it.Snippet.ChannelTitle,
			ThumbnailURL: it.Snippet.Thumbnails.best(),
			PublishedAt:  it.Snippet.publishedAt(),
		})
	}
	return env, nil
}

// SearchChannels runs a search.list query restricted to channels, for
// discovering a channel to subscribe to by name.
func (c *Client) SearchChannels(ctx context.Context, token, query, pageToken string, maxResults int) (*Envelope[ChannelResult], error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "channel")
	q.Set("q", query)
	q.Set("maxResults", strconv.Itoa(maxResults))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	var resp searchListResponse
	if err := c.get(ctx, token, "/search", q, &resp); err != nil {
		return nil, err
	}

	env := &Envelope[ChannelResult]{Items: make([]ChannelResult, 0, len(resp.Items)), NextPageToken: resp.NextPageToken}
	for _, it := range resp.Items {
		if it.ID.ChannelID == "" {
			continue
		}
		env.Items = append(env.Items, ChannelResult{
			ChannelID:    it.ID.ChannelID,
			Title:        it.Snippet.Title,
			Description:  it.Snippet.Description,
			ThumbnailURL: it.Snippet.Thumbnails.best(),
		})
	}
	return env, nil
}

// LatestVideo returns a channel's most recent upload, or nil when the channel
// has no videos. Costs one search.list call.
func (c *Client) LatestVideo(ctx context.Context, token, channelID string) (*Video, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("channelId", channelID)
	q.Set("order", "date")
	q.Set("maxResults", "1")

	var resp searchListResponse
	if err := c.get(ctx, token, "/search", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 || resp.Items[0].ID.VideoID == "" {
		return nil, nil
	}

	it := resp.Items[0]
	return &Video{
		VideoID:      it.ID.VideoID,
		Title:        it.Snippet.Title,
		ChannelID:    it.Snippet.ChannelID,
		ChannelTitle: it.Snippet.ChannelTitle,
		ThumbnailURL: it.Snippet.Thumbnails.best(),
		PublishedAt:  it.Snippet.publishedAt(),
	}, nil
}

// GetChannel fetches channel metadata via channels.list.
func (c *Client) GetChannel(ctx context.Context, token, channelID string) (*ChannelDetails, error) {
	q := url.Values{}
	q.Set("part", "snippet,statistics")
	q.Set("id", channelID)

	var resp channelListResponse
	if err := c.get(ctx, token, "/channels", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	it := resp.Items[0]
	subs, _ := strconv.ParseInt(it.Statistics.SubscriberCount, 10, 64)
	return &ChannelDetails{
		ChannelID:       it.ID,
		Title:           it.Snippet.Title,
		Description:     it.Snippet.Description,
		ThumbnailURL:    it.Snippet.Thumbnails.best(),
		SubscriberCount: subs,
	}, nil
}

// GetVideo fetches duration and view count for a single video via videos.list.
func (c *Client) GetVideo(ctx context.Context, token, videoID string) (*Video, error) {
	q := url.Values{}
	q.Set("part", "snippet,contentDetails,statistics")
	q.Set("id", videoID)

	var resp videoListResponse
	if err := c.get(ctx, token, "/videos", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	it := resp.Items[0]
	views, _ := strconv.ParseInt(it.Statistics.ViewCount, 10, 64)
	return &Video{
		VideoID:      it.ID,
		Title:        it.Snippet.Title,
		ChannelID:    it.Snippet.ChannelID,
		ChannelTitle: it.Snippet.ChannelTitle,
		ThumbnailURL: it.Snippet.Thumbnails.best(),
		PublishedAt:  it.Snippet.publishedAt(),
		Duration:     it.ContentDetails.Duration,
		ViewCount:    views,
	}, nil
}

// get performs a GET against the Data API. A bearer token takes precedence
// over the configured API key.
func (c *Client) get(ctx context.Context, token, path string, q url.Values, out any) error {
	if token == "" && c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		msg := string(body)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("youtube api error")
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
