// shared/models/player.go
package models

import "time"

// Player represents a player's profile data stored persistently in MongoDB.
// The profile is a directory entry (UUID to username mapping plus seen
// timestamps), not game state: rosters live in team storage and presence
// lives in Redis.
type Player struct {
	UUID        string     `bson:"_id" json:"uuid"`
	Username    string     `bson:"username" json:"username"`
	FirstSeenAt *time.Time `bson:"first_seen_at,omitempty" json:"firstSeenAt,omitempty"`
	LastSeenAt  *time.Time `bson:"last_seen_at,omitempty" json:"lastSeenAt,omitempty"`
}
