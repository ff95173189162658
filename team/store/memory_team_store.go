// team/store/memory_team_store.go
package store

import (
	"context"
	"sync"

	"github.com/gakkoucraft/team-service/shared/models"
)

// MemoryTeamStore is the process-transient TeamStorage backend. Like the
// scoreboard it stands in for, its contents live exactly as long as the
// process does. It is the default backend and the one unit tests run on.
type MemoryTeamStore struct {
	mu    sync.RWMutex
	teams map[string]*models.Team
}

// NewMemoryTeamStore creates an empty in-memory team store.
func NewMemoryTeamStore() *MemoryTeamStore {
	return &MemoryTeamStore{
		teams: make(map[string]*models.Team),
	}
}

// CreateTeam stores a new team.
func (ms *MemoryTeamStore) CreateTeam(ctx context.Context, team *models.Team) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.teams[team.ID]; ok {
		return ErrTeamExists
	}
	ms.teams[team.ID] = cloneTeam(team)
	return nil
}

// RemoveTeam deletes a team by ID.
func (ms *MemoryTeamStore) RemoveTeam(ctx context.Context, teamID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.teams[teamID]; !ok {
		return ErrTeamNotFound
	}
	delete(ms.teams, teamID)
	return nil
}

// GetTeam fetches a team by ID.
func (ms *MemoryTeamStore) GetTeam(ctx context.Context, teamID string) (*models.Team, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	team, ok := ms.teams[teamID]
	if !ok {
		return nil, ErrTeamNotFound
	}
	return cloneTeam(team), nil
}

// UpdateTeam overwrites a stored team's attributes.
func (ms *MemoryTeamStore) UpdateTeam(ctx context.Context, team *models.Team) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.teams[team.ID]; !ok {
		return ErrTeamNotFound
	}
	ms.teams[team.ID] = cloneTeam(team)
	return nil
}

// AddMember appends a player to a team's roster.
func (ms *MemoryTeamStore) AddMember(ctx context.Context, teamID, playerName string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	team, ok := ms.teams[teamID]
	if !ok {
		return ErrTeamNotFound
	}
	if !team.HasMember(playerName) {
		team.Members = append(team.Members, playerName)
	}
	return nil
}

// RemoveMember removes a player from a team's roster.
func (ms *MemoryTeamStore) RemoveMember(ctx context.Context, teamID, playerName string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	team, ok := ms.teams[teamID]
	if !ok {
		return ErrTeamNotFound
	}
	for i, m := range team.Members {
		if m == playerName {
			team.Members = append(team.Members[:i], team.Members[i+1:]...)
			break
		}
	}
	return nil
}

// ListTeams returns all stored teams.
func (ms *MemoryTeamStore) ListTeams(ctx context.Context) ([]models.Team, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	teams := make([]models.Team, 0, len(ms.teams))
	for _, team := range ms.teams {
		teams = append(teams, *cloneTeam(team))
	}
	return teams, nil
}

// FindTeamByOwner returns the team owned by the given player.
func (ms *MemoryTeamStore) FindTeamByOwner(ctx context.Context, owner string) (*models.Team, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, team := range ms.teams {
		if team.Owner == owner {
			return cloneTeam(team), nil
		}
	}
	return nil, ErrTeamNotFound
}

// FindTeamByMember returns the team whose roster contains the given player.
func (ms *MemoryTeamStore) FindTeamByMember(ctx context.Context, playerName string) (*models.Team, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, team := range ms.teams {
		if team.HasMember(playerName) {
			return cloneTeam(team), nil
		}
	}
	return nil, ErrTeamNotFound
}

// FindTeamByName returns the team with the given short name.
func (ms *MemoryTeamStore) FindTeamByName(ctx context.Context, name string) (*models.Team, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, team := range ms.teams {
		if team.Name == name {
			return cloneTeam(team), nil
		}
	}
	return nil, ErrTeamNotFound
}

// cloneTeam copies a team so callers never share the stored slice.
func cloneTeam(team *models.Team) *models.Team {
	clone := *team
	clone.Members = append([]string(nil), team.Members...)
	return &clone
}
