// team/store/team_store.go
package store

import (
	"context"
	"fmt"

	"github.com/gakkoucraft/team-service/shared/models"
)

// Storage errors. Use errors.Is for checking.
var (
	ErrTeamExists   = fmt.Errorf("team already exists")
	ErrTeamNotFound = fmt.Errorf("team not found")
)

// TeamStorage is the narrow interface over the host-side team storage. The
// host (the proxy/game side) is the sole source of truth for teams and
// rosters; the service holds no team data of its own beyond the invite
// ledger. Lookups by owner and member go through explicit fields, never by
// parsing the team ID.
type TeamStorage interface {
	// CreateTeam stores a new team. Fails with ErrTeamExists if a team with
	// the same ID is already stored.
	CreateTeam(ctx context.Context, team *models.Team) error
	// RemoveTeam deletes a team by ID. Fails with ErrTeamNotFound.
	RemoveTeam(ctx context.Context, teamID string) error
	// GetTeam fetches a team by ID. Fails with ErrTeamNotFound.
	GetTeam(ctx context.Context, teamID string) (*models.Team, error)
	// UpdateTeam overwrites a stored team's attributes (name, color,
	// members). Fails with ErrTeamNotFound.
	UpdateTeam(ctx context.Context, team *models.Team) error
	// AddMember appends a player to a team's roster.
	AddMember(ctx context.Context, teamID, playerName string) error
	// RemoveMember removes a player from a team's roster.
	RemoveMember(ctx context.Context, teamID, playerName string) error
	// ListTeams returns all stored teams.
	ListTeams(ctx context.Context) ([]models.Team, error)
	// FindTeamByOwner returns the team owned by the given player, or
	// ErrTeamNotFound. At most one team per owner can exist.
	FindTeamByOwner(ctx context.Context, owner string) (*models.Team, error)
	// FindTeamByMember returns the team whose roster contains the given
	// player, or ErrTeamNotFound.
	FindTeamByMember(ctx context.Context, playerName string) (*models.Team, error)
	// FindTeamByName returns the team with the given short name, or
	// ErrTeamNotFound.
	FindTeamByName(ctx context.Context, name string) (*models.Team, error)
}
