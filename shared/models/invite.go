// shared/models/invite.go
package models

import "time"

// Invite is a pending or resolved team invitation. Records are owned
// exclusively by the invite ledger; the team is referenced by ID only, the
// roster itself stays in team storage.
type Invite struct {
	ID         int64     `json:"id"`
	TeamID     string    `json:"teamId"`
	TeamName   string    `json:"teamName"` // short display name, kept for notifications
	Inviter    string    `json:"inviter"`
	PlayerName string    `json:"playerName"` // invited player
	CreatedAt  time.Time `json:"createdAt"`
	Accepted   bool      `json:"accepted"`
}
