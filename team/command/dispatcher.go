// team/command/dispatcher.go
package command

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/gakkoucraft/team-service/team/format"
	"github.com/gakkoucraft/team-service/team/identity"
	"github.com/gakkoucraft/team-service/team/ledger"
	"github.com/gakkoucraft/team-service/team/service"
	"github.com/gakkoucraft/team-service/team/store"
)

// MaxDisplayMembers is the member count shown in list/info hover text.
// It is purely cosmetic; membership is never capped.
const MaxDisplayMembers = 3

// OperatorPermissionLevel gates the forcedelete subcommand.
const OperatorPermissionLevel = 4

// Message is one line of colored feedback sent back to the invoker.
type Message struct {
	Text  string `json:"text"`
	Color int    `json:"color"`
}

// Result is the outcome of one dispatched command. Status follows the
// command convention: 1 for success, 0 for failure.
type Result struct {
	Status   int       `json:"status"`
	Messages []Message `json:"messages"`
}

// Dispatcher parses chat command lines forwarded by the proxy and routes
// them to the TeamService, translating service errors into the colored
// feedback lines players see in chat.
type Dispatcher struct {
	teams *service.TeamService
}

// NewDispatcher creates a new Dispatcher instance.
func NewDispatcher(ts *service.TeamService) *Dispatcher {
	return &Dispatcher{teams: ts}
}

// Dispatch executes a single command line on behalf of invoker. The line is
// the raw chat input without the leading slash, e.g. "team create Fox red"
// or "tm hello there". An empty invoker means the command came from the
// console rather than a player.
func (d *Dispatcher) Dispatch(ctx context.Context, invoker string, permissionLevel int, line string) Result {
	line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "/"))
	root, rest := splitWord(line)

	switch root {
	case "team":
		return d.dispatchTeam(ctx, invoker, permissionLevel, rest)
	case "tm":
		// Greedy alias for "team msg".
		return d.messageTeam(ctx, invoker, rest)
	default:
		return fail("Unknown command! Use /team help.")
	}
}

func (d *Dispatcher) dispatchTeam(ctx context.Context, invoker string, permissionLevel int, rest string) Result {
	sub, args := splitWord(rest)

	switch sub {
	case "help", "":
		return d.help()
	case "create":
		return d.createTeam(ctx, invoker, args)
	case "delete":
		return d.deleteTeam(ctx, invoker)
	case "edit":
		return d.editTeam(ctx, invoker, args)
	case "invite":
		return d.invitePlayer(ctx, invoker, args)
	case "kick":
		return d.kickPlayer(ctx, invoker, args)
	case "list":
		return d.listTeams(ctx)
	case "accept":
		return d.acceptInvite(ctx, invoker, args)
	case "decline":
		return d.declineInvite(ctx, invoker, args)
	case "leave":
		return d.leaveTeam(ctx, invoker)
	case "info":
		return d.teamInfo(ctx, args)
	case "forcedelete":
		return d.forceDeleteTeam(ctx, permissionLevel, args)
	case "msg":
		return d.messageTeam(ctx, invoker, args)
	default:
		return fail("Unknown command! Use /team help.")
	}
}

func (d *Dispatcher) createTeam(ctx context.Context, invoker, args string) Result {
	if invoker == "" {
		return fail("You must be a player to create a team!")
	}
	name, colorSpec := splitWord(args)
	if name == "" || colorSpec == "" {
		return fail("Usage: /team create <name> <color>")
	}

	team, err := d.teams.CreateTeam(ctx, invoker, name, colorSpec)
	if err != nil {
		return failErr(err)
	}
	log.Printf("INFO: Player %s created team %s (%s).", invoker, team.Name, team.ID)
	return ok("Team created successfully!")
}

func (d *Dispatcher) deleteTeam(ctx context.Context, invoker string) Result {
	if invoker == "" {
		return fail("You must be a player to delete a team!")
	}

	team, err := d.teams.DeleteTeam(ctx, invoker)
	if err != nil {
		return failErr(err)
	}
	log.Printf("INFO: Player %s deleted team %s (%s).", invoker, team.Name, team.ID)
	return ok("Team deleted successfully!")
}

func (d *Dispatcher) editTeam(ctx context.Context, invoker, args string) Result {
	if invoker == "" {
		return fail("You must be a player to edit a team!")
	}
	field, value := splitWord(args)

	switch field {
	case "name":
		if value == "" {
			return fail("Usage: /team edit name <name>")
		}
		if _, err := d.teams.EditTeamName(ctx, invoker, value); err != nil {
			return failErr(err)
		}
		return ok("Team name changed successfully!")
	case "color":
		if value == "" {
			return fail("Usage: /team edit color <color>")
		}
		if _, err := d.teams.EditTeamColor(ctx, invoker, value); err != nil {
			return failErr(err)
		}
		return ok("Team color changed successfully!")
	default:
		return fail("Usage: /team edit <name|color> <value>")
	}
}

func (d *Dispatcher) invitePlayer(ctx context.Context, invoker, args string) Result {
	if invoker == "" {
		return fail("You must be a player to invite someone to a team!")
	}
	target, _ := splitWord(args)
	if target == "" {
		return fail("Target player not found!")
	}

	if _, err := d.teams.InvitePlayer(ctx, invoker, target); err != nil {
		return failErr(err)
	}
	return ok("Player invited to team!")
}

func (d *Dispatcher) kickPlayer(ctx context.Context, invoker, args string) Result {
	if invoker == "" {
		return fail("You must be a player to kick someone from a team!")
	}
	target, _ := splitWord(args)
	if target == "" {
		return fail("Target player not found!")
	}

	if _, err := d.teams.KickPlayer(ctx, invoker, target); err != nil {
		return failErr(err)
	}
	return ok("Player kicked from team!")
}

func (d *Dispatcher) listTeams(ctx context.Context) Result {
	teams, err := d.teams.ListTeams(ctx)
	if err != nil {
		return failErr(err)
	}
	if len(teams) == 0 {
		return Result{Status: 0, Messages: []Message{
			{Text: format.Prefixed("There are no teams created yet!"), Color: format.WarningColor},
		}}
	}

	msgs := []Message{{Text: "Teams:", Color: format.InfoColor}}
	for _, t := range teams {
		line := fmt.Sprintf("%s (Owner: %s) - %d out of %d members", t.Name, t.Owner, len(t.Members), MaxDisplayMembers)
		msgs = append(msgs, Message{Text: line, Color: identity.ResolveColor(t.Color)})
	}
	return Result{Status: 1, Messages: msgs}
}

func (d *Dispatcher) acceptInvite(ctx context.Context, invoker, args string) Result {
	if invoker == "" {
		return fail("You must be a player to accept an invite!")
	}
	id, errResult := parseInviteID(args)
	if errResult != nil {
		return *errResult
	}

	team, err := d.teams.AcceptInvite(ctx, invoker, id)
	if err != nil {
		return failErr(err)
	}
	return Result{Status: 1, Messages: []Message{
		{Text: format.Prefixed(fmt.Sprintf("You have accepted the invite to join %s!", team.Name)), Color: format.SuccessColor},
	}}
}

func (d *Dispatcher) declineInvite(ctx context.Context, invoker, args string) Result {
	if invoker == "" {
		return fail("You must be a player to decline an invite!")
	}
	id, errResult := parseInviteID(args)
	if errResult != nil {
		return *errResult
	}

	inv, err := d.teams.DeclineInvite(ctx, invoker, id)
	if err != nil {
		return failErr(err)
	}
	return Result{Status: 1, Messages: []Message{
		{Text: format.Prefixed(fmt.Sprintf("You have declined the invite to join %s!", inv.TeamName)), Color: format.ErrorColor},
	}}
}

func (d *Dispatcher) leaveTeam(ctx context.Context, invoker string) Result {
	if invoker == "" {
		return fail("You must be a player to leave a team!")
	}

	if _, err := d.teams.LeaveTeam(ctx, invoker); err != nil {
		return failErr(err)
	}
	return ok("You have left the team!")
}

func (d *Dispatcher) teamInfo(ctx context.Context, args string) Result {
	name, _ := splitWord(args)
	if name == "" {
		return fail("Usage: /team info <team>")
	}

	team, err := d.teams.TeamInfo(ctx, name)
	if err != nil {
		return failErr(err)
	}

	color := identity.ResolveColor(team.Color)
	msgs := []Message{
		{Text: "Team Info:", Color: format.InfoColor},
		{Text: "Name: " + team.Name, Color: color},
		{Text: "Owner: " + team.Owner, Color: format.WarningColor},
		{Text: fmt.Sprintf("Members (%d out of %d):", len(team.Members), MaxDisplayMembers), Color: format.InfoColor},
	}
	for _, m := range team.Members {
		msgs = append(msgs, Message{Text: m, Color: format.InfoColor})
	}
	return Result{Status: 1, Messages: msgs}
}

func (d *Dispatcher) forceDeleteTeam(ctx context.Context, permissionLevel int, args string) Result {
	if permissionLevel < OperatorPermissionLevel {
		return fail("You don't have permission to use this command!")
	}
	name, _ := splitWord(args)
	if name == "" {
		return fail("Usage: /team forcedelete <team>")
	}

	team, err := d.teams.ForceDeleteTeam(ctx, name)
	if err != nil {
		return failErr(err)
	}
	log.Printf("INFO: Force deleted team %s (%s).", team.Name, team.ID)
	return ok("Team deleted successfully!")
}

func (d *Dispatcher) messageTeam(ctx context.Context, invoker, message string) Result {
	if invoker == "" {
		return fail("You must be a player to send a message to your team!")
	}

	if _, err := d.teams.MessageTeam(ctx, invoker, message); err != nil {
		return failErr(err)
	}
	// The message itself goes out through the messenger; nothing extra to echo.
	return Result{Status: 1}
}

func (d *Dispatcher) help() Result {
	entries := []struct{ cmd, desc string }{
		{"/team create <name> <color>", "Create a new team!"},
		{"/team delete", "Delete your team!"},
		{"/team edit color <color>", "Change your team's color!"},
		{"/team edit name <name>", "Change your team's name!"},
		{"/team invite <player>", "Invite a player to your team!"},
		{"/team kick <player>", "Kick a player from your team!"},
		{"/team list", "List all teams!"},
		{"/team accept <invite_id>", "Accept a team invite!"},
		{"/team decline <invite_id>", "Decline a team invite!"},
		{"/team leave", "Leave your team!"},
		{"/team info <team>", "Get info about a team!"},
		{"/team msg <message>", "Send a message to your team!"},
	}

	msgs := []Message{{Text: "Commands:", Color: format.InfoColor}}
	for _, e := range entries {
		msgs = append(msgs, Message{Text: e.cmd + " - " + e.desc, Color: format.InfoColor})
	}
	return Result{Status: 1, Messages: msgs}
}

// splitWord returns the first whitespace-separated word of s and the
// remainder with leading whitespace trimmed.
func splitWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

func parseInviteID(args string) (int64, *Result) {
	raw, _ := splitWord(args)
	if raw == "" {
		return 0, resultPtr(fail("Usage: /team accept|decline <invite_id>"))
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, resultPtr(fail("Invite not found!"))
	}
	return id, nil
}

func resultPtr(r Result) *Result { return &r }

func ok(text string) Result {
	return Result{Status: 1, Messages: []Message{
		{Text: format.Prefixed(text), Color: format.SuccessColor},
	}}
}

func fail(text string) Result {
	return Result{Status: 0, Messages: []Message{
		{Text: format.Prefixed(text), Color: format.ErrorColor},
	}}
}

// failErr translates errors from the service layer into the feedback lines
// players expect to see.
func failErr(err error) Result {
	switch err {
	case identity.ErrNameTooLong:
		return fail("Team name must be 4 characters or less!")
	case identity.ErrNameEmpty, identity.ErrNameInvalidChars:
		return fail("Team name must be alphanumeric!")
	case identity.ErrInvalidColor:
		return fail("Invalid color! Must be a valid minecraft color or hex color.")
	case service.ErrAlreadyOwnsTeam:
		return fail("You already own a team!")
	case store.ErrTeamExists:
		return fail("Team already exists!")
	case store.ErrTeamNotFound:
		return fail("Team not found!")
	case service.ErrNoTeam:
		return fail("You don't own a team!")
	case service.ErrNotInTeam:
		return fail("You are not in a team!")
	case service.ErrPlayerNotOnline:
		return fail("Target player not found!")
	case service.ErrAlreadyMember, service.ErrAlreadyInTeam:
		return fail("Player is already in the team!")
	case service.ErrNotMember:
		return fail("Player is not in the team!")
	case service.ErrCannotKickOwner:
		return fail("You can't kick the team owner!")
	case service.ErrOwnerMustDelete:
		return fail("You are the owner of the team! Use /team delete to delete the team.")
	case ledger.ErrInviteNotFound:
		return fail("Invite not found!")
	case ledger.ErrInviteAlreadyAccepted:
		return fail("Invite already accepted!")
	case ledger.ErrInviteExpired:
		return fail("Invite has expired!")
	case service.ErrNotInviteTarget:
		return fail("This invite is not for you!")
	case service.ErrEmptyMessage:
		return fail("Message cannot be empty!")
	default:
		log.Printf("ERROR: Command failed with unexpected error: %v", err)
		return fail("Something went wrong, try again later.")
	}
}
