package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/charge0315/yt-orchestrator/internal/quota"
	"github.com/charge0315/yt-orchestrator/internal/youtube"
)

type fakeChannelFetcher struct {
	details map[string]*youtube.ChannelDetails
	calls   int
}

func (f *fakeChannelFetcher) GetChannel(_ context.Context, _, channelID string) (*youtube.ChannelDetails, error) {
	f.calls++
	return f.details[channelID], nil
}

func newChannelService(fetcher *fakeChannelFetcher, budget int) *ChannelService {
	cache := NewChannelCache(&fakeChannelPersistence{})
	ledger := quota.NewLedger(budget, 24*time.Hour)
	return NewChannelService(cache, fetcher, ledger, nil)
}

func TestSubscribeMirrorsChannelWithoutLatestVideo(t *testing.T) {
	fetcher := &fakeChannelFetcher{details: map[string]*youtube.ChannelDetails{
		"UCa": {ChannelID: "UCa", Title: "Channel A", SubscriberCount: 1000},
	}}
	svc := newChannelService(fetcher, 10000)

	ch, err := svc.Subscribe(context.Background(), "u1", "", "UCa", false)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if ch.Title != "Channel A" || ch.SubscriberCount != "1000" {
		t.Errorf("mirrored channel = %+v", ch)
	}
	if ch.HasLatestVideo() {
		t.Error("fresh subscription should have no latest-video data")
	}
	if ch.LastCheckedAt != nil {
		t.Error("fresh subscription should have nil lastCheckedAt")
	}
}

func TestSubscribeIdempotent(t *testing.T) {
	fetcher := &fakeChannelFetcher{details: map[string]*youtube.ChannelDetails{
		"UCa": {ChannelID: "UCa", Title: "Channel A"},
	}}
	svc := newChannelService(fetcher, 10000)

	first, _ := svc.Subscribe(context.Background(), "u1", "", "UCa", false)
	second, err := svc.Subscribe(context.Background(), "u1", "", "UCa", false)
	if err != nil {
		t.Fatalf("second Subscribe: %v", err)
	}
	if second.ID != first.ID {
		t.Error("re-subscribe created a new document")
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher called %d times, want 1", fetcher.calls)
	}
}

func TestSubscribePromotesArtistFlag(t *testing.T) {
	fetcher := &fakeChannelFetcher{details: map[string]*youtube.ChannelDetails{
		"UCa": {ChannelID: "UCa", Title: "Channel A"},
	}}
	svc := newChannelService(fetcher, 10000)

	svc.Subscribe(context.Background(), "u1", "", "UCa", false)
	promoted, err := svc.Subscribe(context.Background(), "u1", "", "UCa", true)
	if err != nil {
		t.Fatalf("Subscribe as artist: %v", err)
	}
	if !promoted.IsArtist {
		t.Error("following an existing subscription as artist should set isArtist")
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher called %d times, want 1", fetcher.calls)
	}

	artists, _ := svc.ListArtists(context.Background(), "u1")
	if len(artists) != 1 {
		t.Errorf("len(artists) = %d, want 1", len(artists))
	}
}

func TestSubscribeRefusedWhenQuotaExhausted(t *testing.T) {
	fetcher := &fakeChannelFetcher{details: map[string]*youtube.ChannelDetails{
		"UCa": {ChannelID: "UCa", Title: "Channel A"},
	}}
	svc := newChannelService(fetcher, 0)

	if _, err := svc.Subscribe(context.Background(), "u1", "", "UCa", false); err != ErrQuotaExhausted {
		t.Errorf("err = %v, want ErrQuotaExhausted", err)
	}
	if fetcher.calls != 0 {
		t.Error("refused subscribe still hit the upstream API")
	}
}

func TestSubscribeUnknownChannelNotFound(t *testing.T) {
	svc := newChannelService(&fakeChannelFetcher{}, 10000)
	if _, err := svc.Subscribe(context.Background(), "u1", "", "UCmissing", false); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUnsubscribeRemovesMirror(t *testing.T) {
	fetcher := &fakeChannelFetcher{details: map[string]*youtube.ChannelDetails{
		"UCa": {ChannelID: "UCa", Title: "Channel A"},
	}}
	svc := newChannelService(fetcher, 10000)

	svc.Subscribe(context.Background(), "u1", "", "UCa", false)
	if err := svc.Unsubscribe(context.Background(), "u1", "UCa"); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if err := svc.Unsubscribe(context.Background(), "u1", "UCa"); err != ErrNotFound {
		t.Errorf("second unsubscribe err = %v, want ErrNotFound", err)
	}
}

func TestNewReleasesSortedAndCapped(t *testing.T) {
	cache := NewChannelCache(&fakeChannelPersistence{})
	svc := NewChannelService(cache, &fakeChannelFetcher{}, quota.NewLedger(10000, 24*time.Hour), nil)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < newReleaseCap+5; i++ {
		ch := staleChannel(fmt.Sprintf("UCrel%02d", i))
		vid := fmt.Sprintf("vidRel%05d", i)
		ch.LatestVideoID = &vid
		pub := base.Add(time.Duration(i) * time.Hour)
		ch.LatestVideoPublishedAt = &pub
		if err := cache.Put(context.Background(), ch); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	releases, err := svc.NewReleases(context.Background(), "u1", false)
	if err != nil {
		t.Fatalf("NewReleases: %v", err)
	}
	if len(releases) != newReleaseCap {
		t.Fatalf("len(releases) = %d, want %d", len(releases), newReleaseCap)
	}
	for i := 1; i < len(releases); i++ {
		if releases[i].LatestVideoPublishedAt.After(*releases[i-1].LatestVideoPublishedAt) {
			t.Fatal("releases not sorted by publish time descending")
		}
	}
}

func TestNewReleasesArtistsOnly(t *testing.T) {
	cache := NewChannelCache(&fakeChannelPersistence{})
	svc := NewChannelService(cache, &fakeChannelFetcher{}, quota.NewLedger(10000, 24*time.Hour), nil)

	pub := time.Now()
	artist := staleChannel("UCartist")
	artist.IsArtist = true
	vid1 := "vidArtist001"
	artist.LatestVideoID = &vid1
	artist.LatestVideoPublishedAt = &pub

	plain := staleChannel("UCplain")
	vid2 := "vidPlain0001"
	plain.LatestVideoID = &vid2
	plain.LatestVideoPublishedAt = &pub

	cache.Put(context.Background(), artist)
	cache.Put(context.Background(), plain)

	releases, err := svc.NewReleases(context.Background(), "u1", true)
	if err != nil {
		t.Fatalf("NewReleases: %v", err)
	}
	if len(releases) != 1 || releases[0].ChannelID != "UCartist" {
		t.Errorf("releases = %+v, want only UCartist", releases)
	}
}
