package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gakkoucraft/team-service/shared/models"
	redisu "github.com/gakkoucraft/team-service/shared/redis"
	"github.com/gakkoucraft/team-service/team/command"
	"github.com/gakkoucraft/team-service/team/ledger"
	"github.com/gakkoucraft/team-service/team/service"
	"github.com/gakkoucraft/team-service/team/store"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

type noopMessenger struct{}

func (noopMessenger) SendToPlayer(ctx context.Context, player, text string, color int) error {
	return nil
}
func (noopMessenger) Broadcast(ctx context.Context, text string, color int) error { return nil }

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

type fakeSessionStore struct {
	starts map[string]time.Time
}

func (s *fakeSessionStore) SetPlayerOnline(ctx context.Context, username string, sessionStartTime time.Time) error {
	s.starts[username] = sessionStartTime
	return nil
}

func (s *fakeSessionStore) RemovePlayerOnline(ctx context.Context, username string) error {
	delete(s.starts, username)
	return nil
}

func (s *fakeSessionStore) RefreshPlayerOnlineStatus(ctx context.Context, username string) error {
	if _, ok := s.starts[username]; !ok {
		return fmt.Errorf("player %s is not marked as online", username)
	}
	return nil
}

func (s *fakeSessionStore) GetPlayerSessionDuration(ctx context.Context, username string) (time.Duration, error) {
	start, ok := s.starts[username]
	if !ok {
		return 0, fmt.Errorf("player %s is not currently marked as online: %w", username, redisu.ErrRedisKeyNotFound)
	}
	return time.Since(start), nil
}

type fakeDirectory struct {
	profiles []models.Player
}

func (d *fakeDirectory) UpsertPlayer(ctx context.Context, uuid, username string) error {
	for i := range d.profiles {
		if d.profiles[i].UUID == uuid {
			d.profiles[i].Username = username
			return nil
		}
	}
	d.profiles = append(d.profiles, models.Player{UUID: uuid, Username: username})
	return nil
}

func (d *fakeDirectory) GetPlayerByUUID(ctx context.Context, uuid string) (*models.Player, error) {
	for i := range d.profiles {
		if d.profiles[i].UUID == uuid {
			p := d.profiles[i]
			return &p, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (d *fakeDirectory) GetPlayerByUsername(ctx context.Context, username string) (*models.Player, error) {
	for i := range d.profiles {
		if d.profiles[i].Username == username {
			p := d.profiles[i]
			return &p, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func newTestRouter(online ...string) (*mux.Router, *service.TeamService) {
	presence := &fakePresence{online: make(map[string]bool)}
	for _, n := range online {
		presence.online[n] = true
	}
	svc := service.NewTeamService(store.NewMemoryTeamStore(), ledger.New(15*time.Minute), presence, noopMessenger{})
	handlers := NewTeamAPIHandlers(svc, command.NewDispatcher(svc), nil, nil)

	router := mux.NewRouter()
	handlers.RegisterRoutes(router)
	return router, svc
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestExecuteCommandHandler(t *testing.T) {
	router, _ := newTestRouter("Ann")

	rec := doJSON(t, router, "POST", "/commands", ExecuteCommandRequest{
		Invoker: "Ann",
		Command: "team create Fox red",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result command.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Status)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "[GakkouCraft] Team created successfully!", result.Messages[0].Text)
}

func TestExecuteCommandHandlerFailureStillHTTP200(t *testing.T) {
	router, _ := newTestRouter("Ann")

	// A failed command is a valid response, not an HTTP error.
	rec := doJSON(t, router, "POST", "/commands", ExecuteCommandRequest{
		Invoker: "Ann",
		Command: "team delete",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result command.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 0, result.Status)
	assert.Equal(t, "[GakkouCraft] You don't own a team!", result.Messages[0].Text)
}

func TestExecuteCommandHandlerValidation(t *testing.T) {
	router, _ := newTestRouter()

	rec := doJSON(t, router, "POST", "/commands", ExecuteCommandRequest{Invoker: "Ann"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest("POST", "/commands", bytes.NewBufferString("{not json"))
	recBad := httptest.NewRecorder()
	router.ServeHTTP(recBad, req)
	assert.Equal(t, http.StatusBadRequest, recBad.Code)
}

func TestExecuteCommandHandlerPermissionHeader(t *testing.T) {
	router, _ := newTestRouter("Ann")

	rec := doJSON(t, router, "POST", "/commands", ExecuteCommandRequest{
		Invoker: "Ann",
		Command: "team create Fox red",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Body-level permission is overridden by the proxy-asserted header.
	rec = doJSON(t, router, "POST", "/commands", ExecuteCommandRequest{
		Invoker:         "Ann",
		PermissionLevel: 4,
		Command:         "team forcedelete Fox",
	}, map[string]string{"X-Permission-Level": "0"})
	require.Equal(t, http.StatusOK, rec.Code)

	var result command.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 0, result.Status)
	assert.Equal(t, "[GakkouCraft] You don't have permission to use this command!", result.Messages[0].Text)
}

func TestListAndGetTeamHandlers(t *testing.T) {
	router, svc := newTestRouter("Ann")

	_, err := svc.CreateTeam(context.Background(), "Ann", "Fox", "red")
	require.NoError(t, err)

	rec := doJSON(t, router, "GET", "/teams", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var teams []models.Team
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &teams))
	require.Len(t, teams, 1)
	assert.Equal(t, "cteam_Fox_Ann", teams[0].ID)

	rec = doJSON(t, router, "GET", "/teams/Fox", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var team models.Team
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &team))
	assert.Equal(t, "Ann", team.Owner)

	rec = doJSON(t, router, "GET", "/teams/Owl", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForceDeleteTeamHandler(t *testing.T) {
	router, svc := newTestRouter("Ann")

	_, err := svc.CreateTeam(context.Background(), "Ann", "Fox", "red")
	require.NoError(t, err)

	rec := doJSON(t, router, "DELETE", "/teams/Fox", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, "DELETE", "/teams/Fox", nil, map[string]string{"X-Permission-Level": "2"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, "DELETE", "/teams/Fox", nil, map[string]string{"X-Permission-Level": "4"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, "DELETE", "/teams/Fox", nil, map[string]string{"X-Permission-Level": "4"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func newPlayerTestRouter() (*mux.Router, *fakeSessionStore, *fakeDirectory) {
	presence := &fakePresence{online: make(map[string]bool)}
	svc := service.NewTeamService(store.NewMemoryTeamStore(), ledger.New(15*time.Minute), presence, noopMessenger{})
	sessions := &fakeSessionStore{starts: make(map[string]time.Time)}
	directory := &fakeDirectory{}
	handlers := NewTeamAPIHandlers(svc, command.NewDispatcher(svc), sessions, directory)

	router := mux.NewRouter()
	handlers.RegisterRoutes(router)
	return router, sessions, directory
}

func TestGetPlayerHandler(t *testing.T) {
	router, sessions, directory := newPlayerTestRouter()
	const annUUID = "8c26e3cf-7f4b-4c39-9d30-6a1f5e8b2a11"

	require.NoError(t, directory.UpsertPlayer(context.Background(), annUUID, "Ann"))
	sessions.starts["Ann"] = time.Now().Add(-90 * time.Second)

	rec := doJSON(t, router, "GET", "/players/Ann", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PlayerProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, annUUID, resp.UUID)
	assert.True(t, resp.Online)
	assert.GreaterOrEqual(t, resp.SessionSeconds, int64(90))

	// The same route resolves an account UUID to the profile.
	rec = doJSON(t, router, "GET", "/players/"+annUUID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Ann", resp.Username)

	rec = doJSON(t, router, "GET", "/players/Ghost", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPlayerHandlerOffline(t *testing.T) {
	router, _, directory := newPlayerTestRouter()
	require.NoError(t, directory.UpsertPlayer(context.Background(), "2b0cd54e-19ce-4f70-9a1d-3c7f98d1a402", "Bob"))

	rec := doJSON(t, router, "GET", "/players/Bob", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PlayerProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Online)
	assert.Zero(t, resp.SessionSeconds)
}

func TestPlayerSessionHandlers(t *testing.T) {
	router, sessions, directory := newPlayerTestRouter()
	session := PlayerSessionRequest{UUID: "8c26e3cf-7f4b-4c39-9d30-6a1f5e8b2a11", Username: "Ann"}

	rec := doJSON(t, router, "POST", "/players/online", session, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, sessions.starts, "Ann")
	require.Len(t, directory.profiles, 1)
	assert.Equal(t, "Ann", directory.profiles[0].Username)

	rec = doJSON(t, router, "PUT", "/players/online", session, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, "POST", "/players/offline", session, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotContains(t, sessions.starts, "Ann")

	// Heartbeats for a player no longer marked online are rejected.
	rec = doJSON(t, router, "PUT", "/players/online", session, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, "POST", "/players/online", PlayerSessionRequest{UUID: "not-a-uuid", Username: "Ann"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuggestionHandlers(t *testing.T) {
	router, svc := newTestRouter("Ann", "Bob")

	_, err := svc.CreateTeam(context.Background(), "Ann", "Fox", "red")
	require.NoError(t, err)

	rec := doJSON(t, router, "GET", "/suggestions/players", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var players SuggestionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &players))
	assert.Equal(t, []string{"Ann", "Bob"}, players.Suggestions)

	rec = doJSON(t, router, "GET", "/suggestions/teams", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var teams SuggestionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &teams))
	assert.Equal(t, []string{"Fox"}, teams.Suggestions)
}

func TestSuggestColorsHandler(t *testing.T) {
	router, _ := newTestRouter()

	rec := doJSON(t, router, "GET", "/suggestions/colors", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var colors SuggestionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &colors))
	require.Len(t, colors.Suggestions, 16)
	assert.True(t, sort.StringsAreSorted(colors.Suggestions))
	assert.Contains(t, colors.Suggestions, "red")
	assert.Contains(t, colors.Suggestions, "light_purple")
}
