// team/service/team_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/gakkoucraft/team-service/shared/models"
	"github.com/gakkoucraft/team-service/team/format"
	"github.com/gakkoucraft/team-service/team/identity"
	"github.com/gakkoucraft/team-service/team/ledger"
	"github.com/gakkoucraft/team-service/team/store"
)

// Custom Errors for clear communication to the command layer
var (
	ErrAlreadyOwnsTeam = fmt.Errorf("player already owns a team")
	ErrNoTeam          = fmt.Errorf("player does not own a team")
	ErrNotInTeam       = fmt.Errorf("player is not in a team")
	ErrAlreadyInTeam   = fmt.Errorf("player is already in a team")
	ErrAlreadyMember   = fmt.Errorf("player is already in the team")
	ErrNotMember       = fmt.Errorf("player is not in the team")
	ErrPlayerNotOnline = fmt.Errorf("target player not found")
	ErrOwnerMustDelete = fmt.Errorf("owner must delete the team instead of leaving")
	ErrCannotKickOwner = fmt.Errorf("cannot kick the team owner")
	ErrNotInviteTarget = fmt.Errorf("invite belongs to another player")
	ErrEmptyMessage    = fmt.Errorf("message is empty")
)

// Messenger delivers side-channel chat messages back through the proxy.
// The shared ProxyServiceClient is the production implementation.
type Messenger interface {
	SendToPlayer(ctx context.Context, player, text string, color int) error
	Broadcast(ctx context.Context, text string, color int) error
}

// Presence answers whether a player is currently connected to the network.
type Presence interface {
	IsPlayerOnline(ctx context.Context, username string) (bool, error)
	OnlinePlayerNames(ctx context.Context) ([]string, error)
}

// TeamService encapsulates the business logic for team commands: membership
// rules, invite handling and side-channel notifications. Teams themselves
// live in the injected TeamStorage; pending invites in the Ledger.
type TeamService struct {
	teams     store.TeamStorage
	ledger    *ledger.Ledger
	presence  Presence
	messenger Messenger
}

// NewTeamService creates a new TeamService instance.
func NewTeamService(ts store.TeamStorage, l *ledger.Ledger, p Presence, m Messenger) *TeamService {
	return &TeamService{
		teams:     ts,
		ledger:    l,
		presence:  p,
		messenger: m,
	}
}

// CreateTeam creates a team named name with the invoker as owner and sole
// member. A player can own at most one team at a time.
func (ts *TeamService) CreateTeam(ctx context.Context, invoker, name, colorSpec string) (*models.Team, error) {
	existing, err := ts.teams.FindTeamByOwner(ctx, invoker)
	if err != nil && err != store.ErrTeamNotFound {
		return nil, fmt.Errorf("service failed to check for existing team of %s: %w", invoker, err)
	}
	if existing != nil {
		return nil, ErrAlreadyOwnsTeam
	}

	ident, err := identity.DeriveIdentity(name, colorSpec, invoker)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	team := &models.Team{
		ID:        ident.TeamID(),
		Name:      ident.Name,
		Color:     ident.Color,
		Owner:     ident.Owner,
		Members:   []string{invoker},
		CreatedAt: &now,
	}
	if err := ts.teams.CreateTeam(ctx, team); err != nil {
		return nil, err
	}

	ts.broadcast(ctx, fmt.Sprintf("%s has created a new team!", invoker), format.InfoColor)
	return team, nil
}

// DeleteTeam removes the team owned by the invoker, along with every pending
// invite referring to it. All remaining members are notified.
func (ts *TeamService) DeleteTeam(ctx context.Context, invoker string) (*models.Team, error) {
	team, err := ts.teams.FindTeamByOwner(ctx, invoker)
	if err != nil {
		if err == store.ErrTeamNotFound {
			return nil, ErrNoTeam
		}
		return nil, fmt.Errorf("service failed to find team owned by %s: %w", invoker, err)
	}

	if err := ts.teams.RemoveTeam(ctx, team.ID); err != nil {
		return nil, fmt.Errorf("service failed to remove team %s: %w", team.ID, err)
	}
	ts.ledger.RemoveForTeam(team.ID)

	ts.notifyMembers(ctx, team, invoker, fmt.Sprintf("Team %s was deleted by %s.", team.Name, invoker), format.WarningColor)
	return team, nil
}

// ForceDeleteTeam removes the team with the given display name regardless of
// who owns it. The command layer gates this behind an operator permission
// check; the service only performs the removal.
func (ts *TeamService) ForceDeleteTeam(ctx context.Context, name string) (*models.Team, error) {
	team, err := ts.teams.FindTeamByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := ts.teams.RemoveTeam(ctx, team.ID); err != nil {
		return nil, fmt.Errorf("service failed to force-remove team %s: %w", team.ID, err)
	}
	ts.ledger.RemoveForTeam(team.ID)

	ts.notifyMembers(ctx, team, "", fmt.Sprintf("Team %s was deleted by an operator.", team.Name), format.WarningColor)
	return team, nil
}

// EditTeamName renames the invoker's team. The team ID is derived from name
// and owner, so a rename re-registers the team under a fresh ID; pending
// invites against the old ID are dropped rather than silently retargeted.
func (ts *TeamService) EditTeamName(ctx context.Context, invoker, newName string) (*models.Team, error) {
	team, err := ts.teams.FindTeamByOwner(ctx, invoker)
	if err != nil {
		if err == store.ErrTeamNotFound {
			return nil, ErrNoTeam
		}
		return nil, fmt.Errorf("service failed to find team owned by %s: %w", invoker, err)
	}

	ident, err := identity.DeriveIdentity(newName, team.Color, team.Owner)
	if err != nil {
		return nil, err
	}

	oldID, oldName := team.ID, team.Name
	renamed := &models.Team{
		ID:        ident.TeamID(),
		Name:      ident.Name,
		Color:     team.Color,
		Owner:     team.Owner,
		Members:   team.Members,
		CreatedAt: team.CreatedAt,
	}
	if err := ts.teams.CreateTeam(ctx, renamed); err != nil {
		return nil, err
	}
	if err := ts.teams.RemoveTeam(ctx, oldID); err != nil {
		log.Printf("ERROR: Renamed team %s to %s but failed to remove old record %s: %v", oldName, renamed.Name, oldID, err)
	}
	if dropped := ts.ledger.RemoveForTeam(oldID); dropped > 0 {
		log.Printf("INFO: Dropped %d pending invite(s) for renamed team %s.", dropped, oldName)
	}

	ts.notifyMembers(ctx, renamed, invoker, fmt.Sprintf("Team %s was renamed to %s.", oldName, renamed.Name), format.InfoColor)
	return renamed, nil
}

// EditTeamColor changes the color of the invoker's team.
func (ts *TeamService) EditTeamColor(ctx context.Context, invoker, colorSpec string) (*models.Team, error) {
	team, err := ts.teams.FindTeamByOwner(ctx, invoker)
	if err != nil {
		if err == store.ErrTeamNotFound {
			return nil, ErrNoTeam
		}
		return nil, fmt.Errorf("service failed to find team owned by %s: %w", invoker, err)
	}

	if err := identity.ValidateColor(colorSpec); err != nil {
		return nil, err
	}

	team.Color = colorSpec
	if err := ts.teams.UpdateTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("service failed to update color of team %s: %w", team.ID, err)
	}
	return team, nil
}

// InvitePlayer records an invite from a team owner to an online player and
// tells the target how to respond to it. Only the owner may invite.
func (ts *TeamService) InvitePlayer(ctx context.Context, invoker, target string) (models.Invite, error) {
	team, err := ts.teams.FindTeamByOwner(ctx, invoker)
	if err != nil {
		if err == store.ErrTeamNotFound {
			return models.Invite{}, ErrNoTeam
		}
		return models.Invite{}, fmt.Errorf("service failed to find team owned by %s: %w", invoker, err)
	}

	online, err := ts.presence.IsPlayerOnline(ctx, target)
	if err != nil {
		return models.Invite{}, fmt.Errorf("service failed to check online status of %s: %w", target, err)
	}
	if !online {
		return models.Invite{}, ErrPlayerNotOnline
	}
	if team.HasMember(target) {
		return models.Invite{}, ErrAlreadyMember
	}

	inv := ts.ledger.Create(team.ID, team.Name, invoker, target, time.Now())

	ts.tell(ctx, target, fmt.Sprintf("%s has invited you to join their team! Use /team accept %d or /team decline %d.", invoker, inv.ID, inv.ID), format.InfoColor)
	return inv, nil
}

// AcceptInvite accepts a pending invite and joins the invoker to its team.
// Only the invited player may accept, and only while they are teamless.
func (ts *TeamService) AcceptInvite(ctx context.Context, invoker string, inviteID int64) (*models.Team, error) {
	var team *models.Team
	_, err := ts.ledger.Accept(inviteID, time.Now(), func(inv models.Invite) error {
		if inv.PlayerName != invoker {
			return ErrNotInviteTarget
		}

		current, ferr := ts.teams.FindTeamByMember(ctx, invoker)
		if ferr != nil && ferr != store.ErrTeamNotFound {
			return fmt.Errorf("service failed to check team of %s: %w", invoker, ferr)
		}
		if current != nil {
			return ErrAlreadyInTeam
		}

		team, ferr = ts.teams.GetTeam(ctx, inv.TeamID)
		if ferr != nil {
			return ferr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := ts.teams.AddMember(ctx, team.ID, invoker); err != nil {
		return nil, fmt.Errorf("service failed to add %s to team %s: %w", invoker, team.ID, err)
	}

	ts.notifyMembers(ctx, team, invoker, fmt.Sprintf("%s has joined the team!", invoker), format.InfoColor)
	return team, nil
}

// DeclineInvite declines a pending invite. Only the invited player may
// decline; the checks run in the same order as AcceptInvite. The inviter is
// told about it.
func (ts *TeamService) DeclineInvite(ctx context.Context, invoker string, inviteID int64) (models.Invite, error) {
	inv, err := ts.ledger.Decline(inviteID, time.Now(), func(inv models.Invite) error {
		if inv.PlayerName != invoker {
			return ErrNotInviteTarget
		}
		return nil
	})
	if err != nil {
		return models.Invite{}, err
	}

	ts.tell(ctx, inv.Inviter, fmt.Sprintf("%s has declined the invite to join your team!", invoker), format.ErrorColor)
	return inv, nil
}

// KickPlayer removes a member from the invoker's team. Only the owner may
// kick, and the owner cannot kick themselves.
func (ts *TeamService) KickPlayer(ctx context.Context, invoker, target string) (*models.Team, error) {
	team, err := ts.teams.FindTeamByOwner(ctx, invoker)
	if err != nil {
		if err == store.ErrTeamNotFound {
			return nil, ErrNoTeam
		}
		return nil, fmt.Errorf("service failed to find team owned by %s: %w", invoker, err)
	}

	if target == team.Owner {
		return nil, ErrCannotKickOwner
	}
	if !team.HasMember(target) {
		return nil, ErrNotMember
	}

	if err := ts.teams.RemoveMember(ctx, team.ID, target); err != nil {
		return nil, fmt.Errorf("service failed to remove %s from team %s: %w", target, team.ID, err)
	}

	ts.tell(ctx, target, fmt.Sprintf("You have been kicked from %s!", team.Name), format.WarningColor)
	return team, nil
}

// LeaveTeam removes the invoker from their team. The owner cannot leave;
// they must delete the team instead.
func (ts *TeamService) LeaveTeam(ctx context.Context, invoker string) (*models.Team, error) {
	team, err := ts.teams.FindTeamByMember(ctx, invoker)
	if err != nil {
		if err == store.ErrTeamNotFound {
			return nil, ErrNotInTeam
		}
		return nil, fmt.Errorf("service failed to find team of %s: %w", invoker, err)
	}

	if team.Owner == invoker {
		return nil, ErrOwnerMustDelete
	}

	if err := ts.teams.RemoveMember(ctx, team.ID, invoker); err != nil {
		return nil, fmt.Errorf("service failed to remove %s from team %s: %w", invoker, team.ID, err)
	}

	ts.notifyMembers(ctx, team, invoker, fmt.Sprintf("%s has left the team!", invoker), format.InfoColor)
	return team, nil
}

// ListTeams returns every registered team ordered by display name.
func (ts *TeamService) ListTeams(ctx context.Context) ([]models.Team, error) {
	teams, err := ts.teams.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("service failed to list teams: %w", err)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams, nil
}

// TeamInfo returns the team with the given display name.
func (ts *TeamService) TeamInfo(ctx context.Context, name string) (*models.Team, error) {
	return ts.teams.FindTeamByName(ctx, name)
}

// TeamOf returns the team the given player belongs to.
func (ts *TeamService) TeamOf(ctx context.Context, playerName string) (*models.Team, error) {
	team, err := ts.teams.FindTeamByMember(ctx, playerName)
	if err != nil {
		if err == store.ErrTeamNotFound {
			return nil, ErrNotInTeam
		}
		return nil, err
	}
	return team, nil
}

// MessageTeam fans a chat message out to every online member of the
// invoker's team, rendered in the team's color.
func (ts *TeamService) MessageTeam(ctx context.Context, invoker, message string) (*models.Team, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	team, err := ts.teams.FindTeamByMember(ctx, invoker)
	if err != nil {
		if err == store.ErrTeamNotFound {
			return nil, ErrNotInTeam
		}
		return nil, fmt.Errorf("service failed to find team of %s: %w", invoker, err)
	}

	text := format.TeamChat(team.Name, invoker, message)
	color := identity.ResolveColor(team.Color)
	for _, member := range team.Members {
		online, perr := ts.presence.IsPlayerOnline(ctx, member)
		if perr != nil {
			log.Printf("WARN: Could not check online status of %s for team chat: %v", member, perr)
			continue
		}
		if !online {
			continue
		}
		if serr := ts.messenger.SendToPlayer(ctx, member, text, color); serr != nil {
			log.Printf("WARN: Failed to deliver team chat to %s: %v", member, serr)
		}
	}
	return team, nil
}

// PendingInvites returns invites still awaiting a response from the player.
func (ts *TeamService) PendingInvites(playerName string) []models.Invite {
	return ts.ledger.PendingFor(playerName)
}

// SuggestPlayers returns online player names usable as command completions.
func (ts *TeamService) SuggestPlayers(ctx context.Context) ([]string, error) {
	names, err := ts.presence.OnlinePlayerNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("service failed to list online players: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// SuggestTeams returns team display names usable as command completions.
func (ts *TeamService) SuggestTeams(ctx context.Context) ([]string, error) {
	teams, err := ts.teams.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("service failed to list teams: %w", err)
	}
	names := make([]string, 0, len(teams))
	for _, t := range teams {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names, nil
}

// tell sends a prefixed message to one player, logging delivery failures
// instead of surfacing them. Notifications are best effort.
func (ts *TeamService) tell(ctx context.Context, player, message string, color int) {
	if err := ts.messenger.SendToPlayer(ctx, player, format.Prefixed(message), color); err != nil {
		log.Printf("WARN: Failed to notify player %s: %v", player, err)
	}
}

// broadcast sends a prefixed message to the whole network.
func (ts *TeamService) broadcast(ctx context.Context, message string, color int) {
	if err := ts.messenger.Broadcast(ctx, format.Prefixed(message), color); err != nil {
		log.Printf("WARN: Failed to broadcast message: %v", err)
	}
}

// notifyMembers tells every member of a team except the actor.
func (ts *TeamService) notifyMembers(ctx context.Context, team *models.Team, actor, message string, color int) {
	for _, member := range team.Members {
		if member == actor {
			continue
		}
		ts.tell(ctx, member, message, color)
	}
}
