// team/store/redis_team_store.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/gakkoucraft/team-service/shared/models"
	redisu "github.com/gakkoucraft/team-service/shared/redis"
	"github.com/redis/go-redis/v9"
)

// RedisTeamStore is the Redis-backed TeamStorage backend, for networks that
// want team state visible to the proxy side (and surviving a restart of this
// service, though not of Redis itself). One JSON document per team under
// cteam:{teamID}:.
type RedisTeamStore struct {
	client *redis.ClusterClient
}

// NewRedisTeamStore creates a new RedisTeamStore instance.
func NewRedisTeamStore(client *redis.ClusterClient) *RedisTeamStore {
	return &RedisTeamStore{
		client: client,
	}
}

func teamKey(teamID string) string {
	return fmt.Sprintf(redisu.TeamKeyPrefix, teamID)
}

// CreateTeam stores a new team document. SetNX keeps creation atomic.
func (rs *RedisTeamStore) CreateTeam(ctx context.Context, team *models.Team) error {
	data, err := json.Marshal(team)
	if err != nil {
		return fmt.Errorf("failed to marshal team %s: %w", team.ID, err)
	}

	ok, err := rs.client.SetNX(ctx, teamKey(team.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to store team %s in Redis: %w", team.ID, err)
	}
	if !ok {
		return ErrTeamExists
	}
	return nil
}

// RemoveTeam deletes a team document.
func (rs *RedisTeamStore) RemoveTeam(ctx context.Context, teamID string) error {
	deleted, err := rs.client.Del(ctx, teamKey(teamID)).Result()
	if err != nil {
		return fmt.Errorf("failed to remove team %s from Redis: %w", teamID, err)
	}
	if deleted == 0 {
		return ErrTeamNotFound
	}
	return nil
}

// GetTeam fetches a team document by ID.
func (rs *RedisTeamStore) GetTeam(ctx context.Context, teamID string) (*models.Team, error) {
	val, err := rs.client.Get(ctx, teamKey(teamID)).Result()
	if err == redis.Nil {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team %s from Redis: %w", teamID, err)
	}

	var team models.Team
	if err := json.Unmarshal([]byte(val), &team); err != nil {
		return nil, fmt.Errorf("invalid team document for %s in Redis: %w", teamID, err)
	}
	return &team, nil
}

// UpdateTeam overwrites a stored team document.
func (rs *RedisTeamStore) UpdateTeam(ctx context.Context, team *models.Team) error {
	exists, err := rs.client.Exists(ctx, teamKey(team.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check team %s existence in Redis: %w", team.ID, err)
	}
	if exists == 0 {
		return ErrTeamNotFound
	}

	data, err := json.Marshal(team)
	if err != nil {
		return fmt.Errorf("failed to marshal team %s: %w", team.ID, err)
	}
	if err := rs.client.Set(ctx, teamKey(team.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to update team %s in Redis: %w", team.ID, err)
	}
	return nil
}

// AddMember appends a player to a team's roster.
func (rs *RedisTeamStore) AddMember(ctx context.Context, teamID, playerName string) error {
	team, err := rs.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if team.HasMember(playerName) {
		return nil
	}
	team.Members = append(team.Members, playerName)
	return rs.UpdateTeam(ctx, team)
}

// RemoveMember removes a player from a team's roster.
func (rs *RedisTeamStore) RemoveMember(ctx context.Context, teamID, playerName string) error {
	team, err := rs.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}
	for i, m := range team.Members {
		if m == playerName {
			team.Members = append(team.Members[:i], team.Members[i+1:]...)
			return rs.UpdateTeam(ctx, team)
		}
	}
	return nil
}

// ListTeams scans all team documents. In a Redis Cluster this iterates over
// all master nodes, mirroring how online-player scans work.
func (rs *RedisTeamStore) ListTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team

	err := rs.client.ForEachMaster(ctx, func(ctx context.Context, client *redis.Client) error {
		iter := client.Scan(ctx, 0, fmt.Sprintf(redisu.TeamKeyPrefix, "*"), 0).Iterator()
		for iter.Next(ctx) {
			val, err := client.Get(ctx, iter.Val()).Result()
			if err != nil {
				log.Printf("WARN: Failed to read team document %s: %v. Skipping.", iter.Val(), err)
				continue
			}
			var team models.Team
			if err := json.Unmarshal([]byte(val), &team); err != nil {
				log.Printf("WARN: Invalid team document %s: %v. Skipping.", iter.Val(), err)
				continue
			}
			teams = append(teams, team)
		}
		return iter.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("error during scan of teams across Redis masters: %w", err)
	}
	return teams, nil
}

// FindTeamByOwner returns the team owned by the given player.
func (rs *RedisTeamStore) FindTeamByOwner(ctx context.Context, owner string) (*models.Team, error) {
	return rs.findTeam(ctx, func(t *models.Team) bool { return t.Owner == owner })
}

// FindTeamByMember returns the team whose roster contains the given player.
func (rs *RedisTeamStore) FindTeamByMember(ctx context.Context, playerName string) (*models.Team, error) {
	return rs.findTeam(ctx, func(t *models.Team) bool { return t.HasMember(playerName) })
}

// FindTeamByName returns the team with the given short name.
func (rs *RedisTeamStore) FindTeamByName(ctx context.Context, name string) (*models.Team, error) {
	return rs.findTeam(ctx, func(t *models.Team) bool { return t.Name == name })
}

func (rs *RedisTeamStore) findTeam(ctx context.Context, match func(*models.Team) bool) (*models.Team, error) {
	teams, err := rs.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	for i := range teams {
		if match(&teams[i]) {
			return &teams[i], nil
		}
	}
	return nil, ErrTeamNotFound
}
