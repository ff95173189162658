package command

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/gakkoucraft/team-service/team/format"
	"github.com/gakkoucraft/team-service/team/ledger"
	"github.com/gakkoucraft/team-service/team/service"
	"github.com/gakkoucraft/team-service/team/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessenger struct {
	direct map[string][]string
}

func (m *fakeMessenger) SendToPlayer(ctx context.Context, player, text string, color int) error {
	m.direct[player] = append(m.direct[player], text)
	return nil
}

func (m *fakeMessenger) Broadcast(ctx context.Context, text string, color int) error {
	return nil
}

type fakePresence struct {
	online map[string]bool
}

func (p *fakePresence) IsPlayerOnline(ctx context.Context, username string) (bool, error) {
	return p.online[username], nil
}

func (p *fakePresence) OnlinePlayerNames(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(p.online))
	for n := range p.online {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func newTestDispatcher(online ...string) (*Dispatcher, *ledger.Ledger, *fakeMessenger) {
	presence := &fakePresence{online: make(map[string]bool)}
	for _, n := range online {
		presence.online[n] = true
	}
	messenger := &fakeMessenger{direct: make(map[string][]string)}
	l := ledger.New(15 * time.Minute)
	svc := service.NewTeamService(store.NewMemoryTeamStore(), l, presence, messenger)
	return NewDispatcher(svc), l, messenger
}

func firstText(r Result) string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].Text
}

func TestDispatchCreate(t *testing.T) {
	d, _, _ := newTestDispatcher("Ann")
	ctx := context.Background()

	res := d.Dispatch(ctx, "Ann", 0, "team create Fox red")
	assert.Equal(t, 1, res.Status)
	assert.Equal(t, "[GakkouCraft] Team created successfully!", firstText(res))
	assert.Equal(t, format.SuccessColor, res.Messages[0].Color)

	res = d.Dispatch(ctx, "Ann", 0, "team create Owl blue")
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, "[GakkouCraft] You already own a team!", firstText(res))
	assert.Equal(t, format.ErrorColor, res.Messages[0].Color)
}

func TestDispatchCreateValidation(t *testing.T) {
	d, _, _ := newTestDispatcher("Ann")
	ctx := context.Background()

	res := d.Dispatch(ctx, "Ann", 0, "team create Eagles red")
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, "[GakkouCraft] Team name must be 4 characters or less!", firstText(res))

	res = d.Dispatch(ctx, "Ann", 0, "team create Fox crimson")
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, "[GakkouCraft] Invalid color! Must be a valid minecraft color or hex color.", firstText(res))

	res = d.Dispatch(ctx, "Ann", 0, "team create Fox")
	assert.Equal(t, 0, res.Status)
	assert.Contains(t, firstText(res), "Usage:")
}

func TestDispatchConsoleRejected(t *testing.T) {
	d, _, _ := newTestDispatcher()
	ctx := context.Background()

	res := d.Dispatch(ctx, "", 4, "team create Fox red")
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, "[GakkouCraft] You must be a player to create a team!", firstText(res))

	res = d.Dispatch(ctx, "", 4, "tm hello")
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, "[GakkouCraft] You must be a player to send a message to your team!", firstText(res))
}

func TestDispatchInviteAcceptFlow(t *testing.T) {
	d, _, messenger := newTestDispatcher("Ann", "Bob")
	ctx := context.Background()

	require.Equal(t, 1, d.Dispatch(ctx, "Ann", 0, "team create Fox red").Status)

	res := d.Dispatch(ctx, "Ann", 0, "team invite Bob")
	require.Equal(t, 1, res.Status)
	assert.Equal(t, "[GakkouCraft] Player invited to team!", firstText(res))
	require.Len(t, messenger.direct["Bob"], 1)

	// First invite of this ledger carries ID 1.
	res = d.Dispatch(ctx, "Bob", 0, "team accept 1")
	assert.Equal(t, 1, res.Status)
	assert.Equal(t, "[GakkouCraft] You have accepted the invite to join Fox!", firstText(res))

	res = d.Dispatch(ctx, "Bob", 0, "team accept 1")
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, "[GakkouCraft] Invite already accepted!", firstText(res))

	res = d.Dispatch(ctx, "Bob", 0, "team accept 42")
	assert.Equal(t, "[GakkouCraft] Invite not found!", firstText(res))

	res = d.Dispatch(ctx, "Bob", 0, "team accept soon")
	assert.Equal(t, "[GakkouCraft] Invite not found!", firstText(res))
}

func TestDispatchExpiredInvite(t *testing.T) {
	d, l, _ := newTestDispatcher("Ann", "Cid")
	ctx := context.Background()

	require.Equal(t, 1, d.Dispatch(ctx, "Ann", 0, "team create Fox red").Status)
	inv := l.Create("cteam_Fox_Ann", "Fox", "Ann", "Cid", time.Now().Add(-16*time.Minute))

	res := d.Dispatch(ctx, "Cid", 0, fmt.Sprintf("team accept %d", inv.ID))
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, "[GakkouCraft] Invite has expired!", firstText(res))
}

func TestDispatchDecline(t *testing.T) {
	d, _, _ := newTestDispatcher("Ann", "Bob")
	ctx := context.Background()

	require.Equal(t, 1, d.Dispatch(ctx, "Ann", 0, "team create Fox red").Status)
	require.Equal(t, 1, d.Dispatch(ctx, "Ann", 0, "team invite Bob").Status)

	res := d.Dispatch(ctx, "Bob", 0, "team decline 1")
	assert.Equal(t, 1, res.Status)
	assert.Equal(t, "[GakkouCraft] You have declined the invite to join Fox!", firstText(res))
}

func TestDispatchLeave(t *testing.T) {
	d, _, _ := newTestDispatcher("Ann", "Bob")
	ctx := context.Background()

	require.Equal(t, 1, d.Dispatch(ctx, "Ann", 0, "team create Fox red").Status)
	require.Equal(t, 1, d.Dispatch(ctx, "Ann", 0, "team invite Bob").Status)
	require.Equal(t, 1, d.Dispatch(ctx, "Bob", 0, "team accept 1").Status)

	res := d.Dispatch(ctx, "Ann", 0, "team leave")
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, "[GakkouCraft] You are the owner of the team! Use /team delete to delete the team.", firstText(res))

	res = d.Dispatch(ctx, "Bob", 0, "team leave")
	assert.Equal(t, 1, res.Status)
	assert.Equal(t, "[GakkouCraft] You have left the team!", firstText(res))

	res = d.Dispatch(ctx, "Bob", 0, "team leave")
	assert.Equal(t, "[GakkouCraft] You are not in a team!", firstText(res))
}

func TestDispatchEdit(t *testing.T) {
	d, _, _ := newTestDispatcher("Ann")
	ctx := context.Background()

	require.Equal(t, 1, d.Dispatch(ctx, "Ann", 0, "team create Fox red").Status)

	res := d.Dispatch(ctx, "Ann", 0, "team edit color gold")
	assert.Equal(t, 1, res.Status)
	assert.Equal(t, "[GakkouCraft] Team color changed successfully!", firstText(res))

	res = d.Dispatch(ctx, "Ann", 0, "team edit name Owl")
	assert.Equal(t, 1, res.Status)
	assert.Equal(t, "[GakkouCraft] Team name changed successfully!", firstText(res))

	res = d.Dispatch(ctx, "Ann", 0, "team edit prefix x")
	assert.Equal(t, 0, res.Status)
	assert.Contains(t, firstText(res), "Usage:")
}

func TestDispatchListAndInfo(t *testing.T) {
	d, _, _ := newTestDispatcher("Ann")
	ctx := context.Background()

	res := d.Dispatch(ctx, "Ann", 0, "team list")
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, "[GakkouCraft] There are no teams created yet!", firstText(res))
	assert.Equal(t, format.WarningColor, res.Messages[0].Color)

	require.Equal(t, 1, d.Dispatch(ctx, "Ann", 0, "team create Fox red").Status)

	res = d.Dispatch(ctx, "Ann", 0, "team list")
	require.Equal(t, 1, res.Status)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, "Fox (Owner: Ann) - 1 out of 3 members", res.Messages[1].Text)
	assert.Equal(t, 0xFF5555, res.Messages[1].Color)

	res = d.Dispatch(ctx, "Ann", 0, "team info Fox")
	require.Equal(t, 1, res.Status)
	assert.Equal(t, "Name: Fox", res.Messages[1].Text)
	assert.Equal(t, "Owner: Ann", res.Messages[2].Text)

	res = d.Dispatch(ctx, "Ann", 0, "team info Owl")
	assert.Equal(t, "[GakkouCraft] Team not found!", firstText(res))
}

func TestDispatchForceDelete(t *testing.T) {
	d, _, _ := newTestDispatcher("Ann")
	ctx := context.Background()

	require.Equal(t, 1, d.Dispatch(ctx, "Ann", 0, "team create Fox red").Status)

	res := d.Dispatch(ctx, "Bob", 0, "team forcedelete Fox")
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, "[GakkouCraft] You don't have permission to use this command!", firstText(res))

	res = d.Dispatch(ctx, "Bob", OperatorPermissionLevel, "team forcedelete Fox")
	assert.Equal(t, 1, res.Status)
	assert.Equal(t, "[GakkouCraft] Team deleted successfully!", firstText(res))
}

func TestDispatchTeamChatAlias(t *testing.T) {
	d, _, messenger := newTestDispatcher("Ann")
	ctx := context.Background()

	require.Equal(t, 1, d.Dispatch(ctx, "Ann", 0, "team create Fox red").Status)

	// The greedy alias keeps everything after "tm" as the message.
	res := d.Dispatch(ctx, "Ann", 0, "tm push mid  now")
	assert.Equal(t, 1, res.Status)
	assert.Contains(t, messenger.direct["Ann"][0], "<Ann> push mid  now")

	res = d.Dispatch(ctx, "Ann", 0, "team msg hello")
	assert.Equal(t, 1, res.Status)

	res = d.Dispatch(ctx, "Ann", 0, "tm ")
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, "[GakkouCraft] Message cannot be empty!", firstText(res))
}

func TestDispatchHelpAndUnknown(t *testing.T) {
	d, _, _ := newTestDispatcher()
	ctx := context.Background()

	res := d.Dispatch(ctx, "Ann", 0, "team help")
	assert.Equal(t, 1, res.Status)
	assert.Equal(t, "Commands:", firstText(res))
	assert.Greater(t, len(res.Messages), 10)

	res = d.Dispatch(ctx, "Ann", 0, "team dance")
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, "[GakkouCraft] Unknown command! Use /team help.", firstText(res))

	res = d.Dispatch(ctx, "Ann", 0, "scoreboard reset")
	assert.Equal(t, 0, res.Status)

	// A leading slash is tolerated.
	res = d.Dispatch(ctx, "Ann", 0, "/team help")
	assert.Equal(t, 1, res.Status)
}
