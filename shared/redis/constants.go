// shared/redis/constants.go
package redis

import "fmt" // Needed for ErrRedisKeyNotFound

const (
	// Key constants for Redis team-service data
	OnlineKeyPrefix = "online:{%s}:" // Key for player online status: online:{username}
	TeamKeyPrefix   = "cteam:{%s}:"  // Key for a stored team record: cteam:{teamID}
)

// Define a custom error for when a Redis key is not found (can also be a constant)
var ErrRedisKeyNotFound = fmt.Errorf("redis key not found")
