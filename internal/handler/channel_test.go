package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charge0315/yt-orchestrator/internal/middleware"
	"github.com/charge0315/yt-orchestrator/internal/model"
	"github.com/charge0315/yt-orchestrator/internal/quota"
	"github.com/charge0315/yt-orchestrator/internal/service"
	"github.com/charge0315/yt-orchestrator/internal/youtube"
)

type memChannelPersistence struct {
	channels []model.Channel
}

func (f *memChannelPersistence) ListByUser(_ context.Context, userID string) ([]model.Channel, error) {
	var out []model.Channel
	for _, ch := range f.channels {
		if ch.UserID == userID {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (f *memChannelPersistence) Upsert(_ context.Context, ch *model.Channel) error {
	for i := range f.channels {
		if f.channels[i].UserID == ch.UserID && f.channels[i].ChannelID == ch.ChannelID {
			f.channels[i] = *ch
			return nil
		}
	}
	f.channels = append(f.channels, *ch)
	return nil
}

func (f *memChannelPersistence) DeleteByUserAndChannel(_ context.Context, userID, channelID string) error {
	for i := range f.channels {
		if f.channels[i].UserID == userID && f.channels[i].ChannelID == channelID {
			f.channels = append(f.channels[:i], f.channels[i+1:]...)
			return nil
		}
	}
	return service.ErrNotFound
}

type memYouTube struct {
	channels map[string]*youtube.ChannelDetails
	latest   map[string]*youtube.Video
}

func (f *memYouTube) GetChannel(_ context.Context, _, channelID string) (*youtube.ChannelDetails, error) {
	return f.channels[channelID], nil
}

func (f *memYouTube) LatestVideo(_ context.Context, _, channelID string) (*youtube.Video, error) {
	return f.latest[channelID], nil
}

func (f *memYouTube) GetVideo(_ context.Context, _, videoID string) (*youtube.Video, error) {
	return &youtube.Video{VideoID: videoID, Duration: "PT3M", ViewCount: 7}, nil
}

func newChannelApp(yt *memYouTube, budget int) *fiber.App {
	cache := service.NewChannelCache(&memChannelPersistence{})
	ledger := quota.NewLedger(budget, 24*time.Hour)
	svc := service.NewChannelService(cache, yt, ledger, nil)
	engine := service.NewSyncEngine(cache, yt, ledger, time.Hour, 3, 5*time.Second)
	h := NewChannelHandler(svc, engine)

	app := fiber.New()
	api := app.Group("/api", middleware.RequireUser())
	api.Post("/channels", h.Subscribe)
	api.Get("/channels", h.List)
	api.Post("/channels/refresh", h.Refresh)
	api.Get("/channels/:channelId", h.Get)
	api.Delete("/channels/:channelId", h.Unsubscribe)
	return app
}

func channelReq(t *testing.T, app *fiber.App, method, target string, body any) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "u1")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	out.ReadFrom(resp.Body)
	return resp.StatusCode, out.Bytes()
}

func TestSubscribeListUnsubscribe(t *testing.T) {
	yt := &memYouTube{channels: map[string]*youtube.ChannelDetails{
		"UCaaaaaaaaaaaaaaaaaaaaaa": {ChannelID: "UCaaaaaaaaaaaaaaaaaaaaaa", Title: "Channel A"},
	}}
	app := newChannelApp(yt, 10000)

	status, body := channelReq(t, app, fiber.MethodPost, "/api/channels", fiber.Map{"channelId": "UCaaaaaaaaaaaaaaaaaaaaaa"})
	require.Equal(t, fiber.StatusCreated, status, string(body))

	status, body = channelReq(t, app, fiber.MethodGet, "/api/channels", nil)
	require.Equal(t, fiber.StatusOK, status)
	var list struct {
		Items []model.Channel `json:"items"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Channel A", list.Items[0].Title)
	assert.Nil(t, list.Items[0].LatestVideoID)

	status, _ = channelReq(t, app, fiber.MethodDelete, "/api/channels/UCaaaaaaaaaaaaaaaaaaaaaa", nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, _ = channelReq(t, app, fiber.MethodGet, "/api/channels/UCaaaaaaaaaaaaaaaaaaaaaa", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestSubscribeQuotaExhaustedReturns429(t *testing.T) {
	yt := &memYouTube{channels: map[string]*youtube.ChannelDetails{
		"UCaaaaaaaaaaaaaaaaaaaaaa": {ChannelID: "UCaaaaaaaaaaaaaaaaaaaaaa", Title: "Channel A"},
	}}
	app := newChannelApp(yt, 0)

	status, body := channelReq(t, app, fiber.MethodPost, "/api/channels", fiber.Map{"channelId": "UCaaaaaaaaaaaaaaaaaaaaaa"})
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Contains(t, string(body), "QUOTA_EXHAUSTED")
}

func TestRefreshReturnsOutcomesAndStats(t *testing.T) {
	yt := &memYouTube{
		channels: map[string]*youtube.ChannelDetails{
			"UCaaaaaaaaaaaaaaaaaaaaaa": {ChannelID: "UCaaaaaaaaaaaaaaaaaaaaaa", Title: "Channel A"},
		},
		latest: map[string]*youtube.Video{
			"UCaaaaaaaaaaaaaaaaaaaaaa": {VideoID: "vidA0000001", Title: "Newest"},
		},
	}
	app := newChannelApp(yt, 10000)

	status, _ := channelReq(t, app, fiber.MethodPost, "/api/channels", fiber.Map{"channelId": "UCaaaaaaaaaaaaaaaaaaaaaa"})
	require.Equal(t, fiber.StatusCreated, status)

	// Empty body refreshes all of the user's channels.
	status, body := channelReq(t, app, fiber.MethodPost, "/api/channels/refresh", nil)
	require.Equal(t, fiber.StatusOK, status, string(body))

	var resp struct {
		Outcomes []model.RefreshOutcome `json:"outcomes"`
		Stats    model.RefreshStats     `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.Outcomes, 1)
	assert.Equal(t, model.RefreshRefreshed, resp.Outcomes[0].Status)
	assert.True(t, resp.Outcomes[0].Updated)
	assert.Equal(t, 1, resp.Stats.Checked)
	assert.Equal(t, 1, resp.Stats.Updated)

	// The mirror now serves the latest video without further quota spend.
	status, body = channelReq(t, app, fiber.MethodGet, "/api/channels/UCaaaaaaaaaaaaaaaaaaaaaa", nil)
	require.Equal(t, fiber.StatusOK, status)
	var ch model.Channel
	require.NoError(t, json.Unmarshal(body, &ch))
	require.NotNil(t, ch.LatestVideoID)
	assert.Equal(t, "vidA0000001", *ch.LatestVideoID)
}

func TestSubscribeRejectsBadChannelID(t *testing.T) {
	app := newChannelApp(&memYouTube{}, 10000)
	status, body := channelReq(t, app, fiber.MethodPost, "/api/channels", fiber.Map{"channelId": "bad id!"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(body), "INVALID_FIELD")
}
