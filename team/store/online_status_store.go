// team/store/online_status_store.go
package store

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	redisu "github.com/gakkoucraft/team-service/shared/redis"
	"github.com/redis/go-redis/v9"
)

// OnlinePlayersStore tracks which players are currently connected, keyed by
// username in Redis. Keys carry a TTL so a crashed proxy cannot leave ghost
// sessions behind; the proxy refreshes them as a heartbeat.
type OnlinePlayersStore struct {
	client    *redis.ClusterClient
	onlineTTL time.Duration
}

// NewOnlinePlayersStore creates and returns a new OnlinePlayersStore instance.
// It requires a connected Redis Cluster client and a time-to-live duration for online status.
func NewOnlinePlayersStore(client *redis.ClusterClient, onlineTTL time.Duration) *OnlinePlayersStore {
	return &OnlinePlayersStore{
		client:    client,
		onlineTTL: onlineTTL,
	}
}

func onlineKey(username string) string {
	return fmt.Sprintf(redisu.OnlineKeyPrefix, username)
}

// SetPlayerOnline marks a player as online and stores their session start time.
// The key expires after the configured TTL unless refreshed.
func (ops *OnlinePlayersStore) SetPlayerOnline(ctx context.Context, username string, sessionStartTime time.Time) error {
	err := ops.client.Set(ctx, onlineKey(username), sessionStartTime.Unix(), ops.onlineTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set player %s online status in Redis: %w", username, err)
	}
	return nil
}

// IsPlayerOnline checks if a player's online status key currently exists.
func (ops *OnlinePlayersStore) IsPlayerOnline(ctx context.Context, username string) (bool, error) {
	exists, err := ops.client.Exists(ctx, onlineKey(username)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check online existence for player %s in Redis: %w", username, err)
	}
	return exists == 1, nil
}

// RemovePlayerOnline explicitly deletes a player's online status key.
// Called when a player disconnects.
func (ops *OnlinePlayersStore) RemovePlayerOnline(ctx context.Context, username string) error {
	deletedCount, err := ops.client.Del(ctx, onlineKey(username)).Result()
	if err != nil {
		return fmt.Errorf("failed to remove online status key for player %s from Redis: %w", username, err)
	}
	if deletedCount == 0 {
		log.Printf("Attempted to remove online status for player %s, but they were not marked as online.", username)
	}
	return nil
}

// RefreshPlayerOnlineStatus extends the TTL for a player's online status key.
// This acts as a heartbeat to keep a player marked as online.
func (ops *OnlinePlayersStore) RefreshPlayerOnlineStatus(ctx context.Context, username string) error {
	success, err := ops.client.Expire(ctx, onlineKey(username), ops.onlineTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to refresh online status TTL for player %s in Redis: %w", username, err)
	}
	if !success {
		// Expire returns false when the key does not exist (already expired or never set).
		return fmt.Errorf("could not refresh online status for player %s, key might not exist or already expired", username)
	}
	return nil
}

// OnlinePlayerNames retrieves the usernames of all currently online players.
// In a Redis Cluster, this involves iterating over all master nodes.
func (ops *OnlinePlayersStore) OnlinePlayerNames(ctx context.Context) ([]string, error) {
	var names []string
	var mu sync.Mutex // Protects names across concurrent per-node scans

	err := ops.client.ForEachMaster(ctx, func(ctx context.Context, client *redis.Client) error {
		iter := client.Scan(ctx, 0, fmt.Sprintf(redisu.OnlineKeyPrefix, "*"), 0).Iterator()
		for iter.Next(ctx) {
			key := iter.Val()

			// Extract the username from the key (e.g., "online:{Ann}:" -> "Ann").
			startIdx := strings.Index(key, "{")
			endIdx := strings.Index(key, "}")
			if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
				log.Printf("WARN: Could not parse username from malformed online key: %s. Skipping.", key)
				continue
			}

			mu.Lock()
			names = append(names, key[startIdx+1:endIdx])
			mu.Unlock()
		}
		return iter.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("error during scan of online players across Redis masters: %w", err)
	}
	return names, nil
}

// GetPlayerSessionDuration calculates the elapsed time since a player went online.
func (ops *OnlinePlayersStore) GetPlayerSessionDuration(ctx context.Context, username string) (time.Duration, error) {
	val, err := ops.client.Get(ctx, onlineKey(username)).Result()
	if err == redis.Nil {
		return 0, fmt.Errorf("player %s is not currently marked as online: %w", username, redisu.ErrRedisKeyNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve online time for player %s from Redis: %w", username, err)
	}

	timestamp, parseErr := strconv.ParseInt(val, 10, 64)
	if parseErr != nil {
		return 0, fmt.Errorf("invalid session start timestamp '%s' for player %s in Redis: %w", val, username, parseErr)
	}
	return time.Since(time.Unix(timestamp, 0)), nil
}
