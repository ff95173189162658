// shared/models/team.go
package models

import "time"

// Team represents a player-created team as stored in the host-side team
// storage. The ID doubles as the storage key (e.g. "cteam_Fox_Ann"), but
// ownership is carried explicitly in Owner rather than being parsed back
// out of the ID.
type Team struct {
	ID        string     `bson:"_id" json:"id"`
	Name      string     `bson:"name" json:"name"`   // short display name, 1-4 alphanumeric characters
	Color     string     `bson:"color" json:"color"` // raw color spec: named color or #RGB/#RRGGBB hex
	Owner     string     `bson:"owner" json:"owner"`
	Members   []string   `bson:"members" json:"members"`
	CreatedAt *time.Time `bson:"created_at,omitempty" json:"createdAt,omitempty"`
}

// HasMember reports whether the given player name is on the team roster.
func (t *Team) HasMember(playerName string) bool {
	for _, m := range t.Members {
		if m == playerName {
			return true
		}
	}
	return false
}
