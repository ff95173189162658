// team/store/player_store.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gakkoucraft/team-service/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PlayerStore represents the MongoDB data store for player profiles.
// Profiles map a Minecraft account UUID to the username the team commands
// operate on.
type PlayerStore struct {
	collection *mongo.Collection
}

// NewPlayerStore creates a new PlayerStore instance.
// The mongo.Collection comes from the shared/mongodb package.
func NewPlayerStore(collection *mongo.Collection) *PlayerStore {
	return &PlayerStore{
		collection: collection,
	}
}

// UpsertPlayer records that a player with the given UUID and username was
// seen. Creates the profile on first sight, otherwise refreshes the username
// and the LastSeenAt timestamp.
func (ps *PlayerStore) UpsertPlayer(ctx context.Context, uuid, username string) error {
	now := time.Now()
	filter := bson.M{"_id": uuid}
	update := bson.M{
		"$set":         bson.M{"username": username, "last_seen_at": &now},
		"$setOnInsert": bson.M{"first_seen_at": &now},
	}
	_, err := ps.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert player profile %s: %w", uuid, err)
	}
	return nil
}

// GetPlayerByUUID retrieves a player profile by their UUID.
func (ps *PlayerStore) GetPlayerByUUID(ctx context.Context, uuid string) (*models.Player, error) {
	var profile models.Player
	filter := bson.M{"_id": uuid}
	err := ps.collection.FindOne(ctx, filter).Decode(&profile)
	if err != nil {
		return nil, err // Return mongo.ErrNoDocuments if not found
	}
	return &profile, nil
}

// GetPlayerByUsername retrieves a player profile by their current username.
func (ps *PlayerStore) GetPlayerByUsername(ctx context.Context, username string) (*models.Player, error) {
	var profile models.Player
	filter := bson.M{"username": username}
	err := ps.collection.FindOne(ctx, filter).Decode(&profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdatePlayerUsername updates only the Username field for a player profile.
func (ps *PlayerStore) UpdatePlayerUsername(ctx context.Context, uuid, username string) error {
	filter := bson.M{"_id": uuid}
	update := bson.M{"$set": bson.M{"username": username}}
	res, err := ps.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update username for player %s: %w", uuid, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("player %s not found for username update", uuid)
	}
	return nil
}

// ListPlayersMissingUsername returns profiles whose username has not been
// resolved yet, up to the given limit. The Mojang filler works through
// these in the background.
func (ps *PlayerStore) ListPlayersMissingUsername(ctx context.Context, limit int64) ([]models.Player, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"username": ""},
		bson.M{"username": bson.M{"$exists": false}},
	}}
	cursor, err := ps.collection.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles missing usernames: %w", err)
	}
	defer cursor.Close(ctx)

	var profiles []models.Player
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("error decoding profiles missing usernames: %w", err)
	}
	return profiles, nil
}
