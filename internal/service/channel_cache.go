package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/charge0315/yt-orchestrator/internal/model"
	"github.com/charge0315/yt-orchestrator/internal/repository"
)

// ChannelPersistence is the repository surface the cache writes through to.
// Satisfied by repository.ChannelRepo.
type ChannelPersistence interface {
	ListByUser(ctx context.Context, userID string) ([]model.Channel, error)
	Upsert(ctx context.Context, ch *model.Channel) error
	DeleteByUserAndChannel(ctx context.Context, userID, channelID string) error
}

// ChannelCache is the in-memory mirror of subscribed channels, loaded per
// user on first access and written through to the repository on every
// mutation. All reads during normal operation are served from here; the
// upstream API is only touched by explicit refreshes.
type ChannelCache struct {
	repo ChannelPersistence

	mu     sync.RWMutex
	byUser map[string]map[string]*model.Channel
	warmed map[string]bool
}

func NewChannelCache(repo ChannelPersistence) *ChannelCache {
	return &ChannelCache{
		repo:   repo,
		byUser: make(map[string]map[string]*model.Channel),
		warmed: make(map[string]bool),
	}
}

// warm loads a user's mirrored channels from the repository once.
func (c *ChannelCache) warm(ctx context.Context, userID string) error {
	c.mu.RLock()
	done := c.warmed[userID]
	c.mu.RUnlock()
	if done {
		return nil
	}

	channels, err := c.repo.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.warmed[userID] {
		return nil
	}
	m := make(map[string]*model.Channel, len(channels))
	for i := range channels {
		ch := channels[i]
		m[ch.ChannelID] = &ch
	}
	c.byUser[userID] = m
	c.warmed[userID] = true
	log.Debug().Str("userId", userID).Int("channels", len(m)).Msg("channel cache warmed")
	return nil
}

// List returns copies of all mirrored channels for a user, newest
// subscription first.
func (c *ChannelCache) List(ctx context.Context, userID string) ([]model.Channel, error) {
	if err := c.warm(ctx, userID); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Channel, 0, len(c.byUser[userID]))
	for _, ch := range c.byUser[userID] {
		out = append(out, *ch)
	}
	sortChannelsBySubscribedAt(out)
	return out, nil
}

// Get returns a copy of one mirrored channel, or ErrNotFound.
func (c *ChannelCache) Get(ctx context.Context, userID, channelID string) (*model.Channel, error) {
	if err := c.warm(ctx, userID); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.byUser[userID][channelID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ch
	return &cp, nil
}

// Put stores a channel in the cache and writes it through to the repository.
func (c *ChannelCache) Put(ctx context.Context, ch *model.Channel) error {
	if err := c.warm(ctx, ch.UserID); err != nil {
		return err
	}
	if err := c.repo.Upsert(ctx, ch); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.byUser[ch.UserID] == nil {
		c.byUser[ch.UserID] = make(map[string]*model.Channel)
	}
	cp := *ch
	c.byUser[ch.UserID][ch.ChannelID] = &cp
	return nil
}

// Delete evicts a channel from the cache and the repository.
func (c *ChannelCache) Delete(ctx context.Context, userID, channelID string) error {
	if err := c.warm(ctx, userID); err != nil {
		return err
	}
	if err := c.repo.DeleteByUserAndChannel(ctx, userID, channelID); err != nil {
		if err == repository.ErrNotFound {
			return ErrNotFound
		}
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byUser[userID], channelID)
	return nil
}

// IsStale reports whether a mirrored channel needs a refresh: either it has
// never been checked, or its last check is older than maxAge.
func IsStale(ch *model.Channel, maxAge time.Duration, now time.Time) bool {
	if ch.LastCheckedAt == nil {
		return true
	}
	return now.Sub(*ch.LastCheckedAt) > maxAge
}

func sortChannelsBySubscribedAt(channels []model.Channel) {
	sort.Slice(channels, func(i, j int) bool {
		return channels[i].SubscribedAt.After(channels[j].SubscribedAt)
	})
}
