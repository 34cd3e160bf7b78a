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

const playlistCollection = "playlists"

// PlaylistRepo persists playlists, including their embedded item lists.
type PlaylistRepo struct {
	coll *mongo.Collection
}

func NewPlaylistRepo(db *mongo.Database) *PlaylistRepo {
	return &PlaylistRepo{coll: db.Collection(playlistCollection)}
}

// ListByUser returns a user's playlists, optionally filtered by origin
// ("music" or "video"). An empty origin returns all of them.
func (r *PlaylistRepo) ListByUser(ctx context.Context, userID, origin string) ([]model.Playlist, error) {
	filter := bson.M{"userId": userID}
	if origin != "" {
		filter["origin"] = origin
	}
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var playlists []model.Playlist
	if err := cur.All(ctx, &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

// FindByID returns a playlist owned by the user, or ErrNotFound. Ownership is
// part of the filter so one user can never address another's playlist.
func (r *PlaylistRepo) FindByID(ctx context.Context, userID, playlistID string) (*model.Playlist, error) {
	var pl model.Playlist
	err := r.coll.FindOne(ctx, bson.M{"_id": playlistID, "userId": userID}).Decode(&pl)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pl, nil
}

// Insert stores a new playlist.
func (r *PlaylistRepo) Insert(ctx context.Context, pl *model.Playlist) error {
	_, err := r.coll.InsertOne(ctx, pl)
	return err
}

// Replace overwrites a playlist document. The caller is responsible for
// stamping UpdatedAt; a no-op save must not touch it.
func (r *PlaylistRepo) Replace(ctx context.Context, pl *model.Playlist) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": pl.ID, "userId": pl.UserID}, pl)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateMeta renames a playlist and/or changes its description.
func (r *PlaylistRepo) UpdateMeta(ctx context.Context, userID, playlistID, name, description string) (*model.Playlist, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if name != "" {
		set["name"] = name
	}
	if description != "" {
		set["description"] = description
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var pl model.Playlist
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": playlistID, "userId": userID}, bson.M{"$set": set}, opts).Decode(&pl)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pl, nil
}

// Delete removes a playlist, returning ErrNotFound when nothing matched.
func (r *PlaylistRepo) Delete(ctx context.Context, userID, playlistID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": playlistID, "userId": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
