package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/charge0315/yt-orchestrator/internal/model"
)

const channelCollection = "channels"

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

// ChannelRepo persists mirrored channel documents, one per (user, channel)
// subscription.
type ChannelRepo struct {
	coll *mongo.Collection
}

func NewChannelRepo(db *mongo.Database) *ChannelRepo {
	return &ChannelRepo{coll: db.Collection(channelCollection)}
}

// ListByUser returns all channels mirrored for a user, newest subscription first.
func (r *ChannelRepo) ListByUser(ctx context.Context, userID string) ([]model.Channel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "subscribedAt", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var channels []model.Channel
	if err := cur.All(ctx, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// ListArtistsByUser returns only the channels flagged as music artists.
func (r *ChannelRepo) ListArtistsByUser(ctx context.Context, userID string) ([]model.Channel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "subscribedAt", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"userId": userID, "isArtist": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var channels []model.Channel
	if err := cur.All(ctx, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// FindByUserAndChannel returns one mirrored channel, or ErrNotFound.
func (r *ChannelRepo) FindByUserAndChannel(ctx context.Context, userID, channelID string) (*model.Channel, error) {
	var ch model.Channel
	err := r.coll.FindOne(ctx, bson.M{"userId": userID, "channelId": channelID}).Decode(&ch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// Upsert writes a mirrored channel document keyed by (user, channel).
func (r *ChannelRepo) Upsert(ctx context.Context, ch *model.Channel) error {
	ch.UpdatedAt = time.Now().UTC()
	filter := bson.M{"userId": ch.UserID, "channelId": ch.ChannelID}
	_, err := r.coll.ReplaceOne(ctx, filter, ch, options.Replace().SetUpsert(true))
	return err
}

// DeleteByUserAndChannel removes a mirrored channel. Deleting a channel that
// does not exist returns ErrNotFound.
func (r *ChannelRepo) DeleteByUserAndChannel(ctx context.Context, userID, channelID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID, "channelId": channelID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DistinctUserIDs lists every user with at least one mirrored channel. The
// background refresh worker iterates over this set.
func (r *ChannelRepo) DistinctUserIDs(ctx context.Context) ([]string, error) {
	raw, err := r.coll.Distinct(ctx, "userId", bson.M{})
	if err != nil {
		return nil, err
	}
	userIDs := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			userIDs = append(userIDs, s)
		}
	}
	return userIDs, nil
}
