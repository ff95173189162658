// team/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gakkoucraft/team-service/shared/api"
	"github.com/gakkoucraft/team-service/shared/models"
	redisu "github.com/gakkoucraft/team-service/shared/redis"
	"github.com/gakkoucraft/team-service/team/command"
	"github.com/gakkoucraft/team-service/team/identity"
	"github.com/gakkoucraft/team-service/team/service"
	"github.com/gakkoucraft/team-service/team/store"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"
)

// PresenceStore is the slice of store.OnlinePlayersStore the handlers need.
type PresenceStore interface {
	SetPlayerOnline(ctx context.Context, username string, sessionStartTime time.Time) error
	RemovePlayerOnline(ctx context.Context, username string) error
	RefreshPlayerOnlineStatus(ctx context.Context, username string) error
	GetPlayerSessionDuration(ctx context.Context, username string) (time.Duration, error)
}

// PlayerDirectory is the slice of store.PlayerStore the handlers need.
type PlayerDirectory interface {
	UpsertPlayer(ctx context.Context, uuid, username string) error
	GetPlayerByUUID(ctx context.Context, uuid string) (*models.Player, error)
	GetPlayerByUsername(ctx context.Context, username string) (*models.Player, error)
}

// TeamAPIHandlers holds references to the services that handle business logic.
type TeamAPIHandlers struct {
	TeamService *service.TeamService
	Dispatcher  *command.Dispatcher
	OnlineStore PresenceStore
	PlayerStore PlayerDirectory
}

// NewTeamAPIHandlers is the constructor for the API handlers.
func NewTeamAPIHandlers(ts *service.TeamService, d *command.Dispatcher, os PresenceStore, ps PlayerDirectory) *TeamAPIHandlers {
	return &TeamAPIHandlers{
		TeamService: ts,
		Dispatcher:  d,
		OnlineStore: os,
		PlayerStore: ps,
	}
}

// --- Request/Response DTOs (Data Transfer Objects) ---

type ExecuteCommandRequest struct {
	Invoker         string `json:"invoker"` // Empty for console
	PermissionLevel int    `json:"permissionLevel"`
	Command         string `json:"command"`
}

type PlayerSessionRequest struct {
	UUID     string `json:"uuid"`
	Username string `json:"username"`
}

type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// PlayerProfileResponse is a stored profile together with the player's live
// session state.
type PlayerProfileResponse struct {
	models.Player
	Online         bool  `json:"online"`
	SessionSeconds int64 `json:"sessionSeconds"`
}

// --- Handler Methods ---

// ExecuteCommandHandler runs one chat command on behalf of a player.
// POST /commands
func (tah *TeamAPIHandlers) ExecuteCommandHandler(w http.ResponseWriter, r *http.Request) {
	var req ExecuteCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Command == "" {
		api.WriteError(w, http.StatusBadRequest, "Command is required")
		return
	}

	// Permission level is asserted by the proxy, never by the player. The
	// header variant wins if both are present.
	permissionLevel := req.PermissionLevel
	if hdr := r.Header.Get("X-Permission-Level"); hdr != "" {
		if lvl, err := strconv.Atoi(hdr); err == nil {
			permissionLevel = lvl
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result := tah.Dispatcher.Dispatch(ctx, req.Invoker, permissionLevel, req.Command)
	api.WriteJSON(w, http.StatusOK, result)
}

// PlayerOnlineHandler marks a player as connected and refreshes their profile.
// POST /players/online
func (tah *TeamAPIHandlers) PlayerOnlineHandler(w http.ResponseWriter, r *http.Request) {
	var req PlayerSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := uuid.Parse(req.UUID); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Player UUID is invalid")
		return
	}
	if req.Username == "" {
		api.WriteError(w, http.StatusBadRequest, "Username is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := tah.OnlineStore.SetPlayerOnline(ctx, req.Username, time.Now()); err != nil {
		log.Printf("Error marking player %s online: %v", req.Username, err)
		api.WriteInternalServerError(w, "Failed to mark player online")
		return
	}
	if err := tah.PlayerStore.UpsertPlayer(ctx, req.UUID, req.Username); err != nil {
		// Presence is already recorded; profile refresh failing is not fatal.
		log.Printf("WARN: Failed to upsert profile for %s (%s): %v", req.Username, req.UUID, err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// PlayerOfflineHandler removes a player's online marker.
// POST /players/offline
func (tah *TeamAPIHandlers) PlayerOfflineHandler(w http.ResponseWriter, r *http.Request) {
	var req PlayerSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" {
		api.WriteError(w, http.StatusBadRequest, "Username is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := tah.OnlineStore.RemovePlayerOnline(ctx, req.Username); err != nil {
		log.Printf("Error marking player %s offline: %v", req.Username, err)
		api.WriteInternalServerError(w, "Failed to mark player offline")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PlayerHeartbeatHandler refreshes a player's online TTL.
// PUT /players/online
func (tah *TeamAPIHandlers) PlayerHeartbeatHandler(w http.ResponseWriter, r *http.Request) {
	var req PlayerSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" {
		api.WriteError(w, http.StatusBadRequest, "Username is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := tah.OnlineStore.RefreshPlayerOnlineStatus(ctx, req.Username); err != nil {
		api.WriteNotFound(w, "Player is not marked as online")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetPlayerHandler returns the stored profile for a player, looked up by
// username or by account UUID, together with their current session state.
// GET /players/{player}
func (tah *TeamAPIHandlers) GetPlayerHandler(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["player"]

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var profile *models.Player
	var err error
	if _, parseErr := uuid.Parse(key); parseErr == nil {
		profile, err = tah.PlayerStore.GetPlayerByUUID(ctx, key)
	} else {
		profile, err = tah.PlayerStore.GetPlayerByUsername(ctx, key)
	}
	if err != nil {
		if err == mongo.ErrNoDocuments {
			api.WriteNotFound(w, "Player profile not found")
			return
		}
		log.Printf("Error fetching profile for %s: %v", key, err)
		api.WriteInternalServerError(w, "Failed to fetch player profile")
		return
	}

	resp := PlayerProfileResponse{Player: *profile}
	session, err := tah.OnlineStore.GetPlayerSessionDuration(ctx, profile.Username)
	switch {
	case err == nil:
		resp.Online = true
		resp.SessionSeconds = int64(session.Seconds())
	case errors.Is(err, redisu.ErrRedisKeyNotFound):
		// Offline player, nothing to add.
	default:
		log.Printf("WARN: Failed to read session duration for %s: %v", profile.Username, err)
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

// ListTeamsHandler returns every registered team.
// GET /teams
func (tah *TeamAPIHandlers) ListTeamsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	teams, err := tah.TeamService.ListTeams(ctx)
	if err != nil {
		log.Printf("Error listing teams: %v", err)
		api.WriteInternalServerError(w, "Failed to list teams")
		return
	}
	api.WriteJSON(w, http.StatusOK, teams)
}

// GetTeamHandler returns one team by display name.
// GET /teams/{name}
func (tah *TeamAPIHandlers) GetTeamHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	team, err := tah.TeamService.TeamInfo(ctx, name)
	if err != nil {
		if err == store.ErrTeamNotFound {
			api.WriteNotFound(w, "Team not found")
			return
		}
		log.Printf("Error fetching team %s: %v", name, err)
		api.WriteInternalServerError(w, "Failed to fetch team")
		return
	}
	api.WriteJSON(w, http.StatusOK, team)
}

// ForceDeleteTeamHandler removes a team regardless of ownership. Operator only.
// DELETE /teams/{name}
func (tah *TeamAPIHandlers) ForceDeleteTeamHandler(w http.ResponseWriter, r *http.Request) {
	lvl, err := strconv.Atoi(r.Header.Get("X-Permission-Level"))
	if err != nil || lvl < command.OperatorPermissionLevel {
		api.WriteForbidden(w, "Operator permission required")
		return
	}

	name := mux.Vars(r)["name"]

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	team, err := tah.TeamService.ForceDeleteTeam(ctx, name)
	if err != nil {
		if err == store.ErrTeamNotFound {
			api.WriteNotFound(w, "Team not found")
			return
		}
		log.Printf("Error force-deleting team %s: %v", name, err)
		api.WriteInternalServerError(w, "Failed to delete team")
		return
	}

	log.Printf("Team %s (%s) force deleted via API.", team.Name, team.ID)
	w.WriteHeader(http.StatusNoContent)
}

// SuggestPlayersHandler returns online player names for tab completion.
// GET /suggestions/players
func (tah *TeamAPIHandlers) SuggestPlayersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names, err := tah.TeamService.SuggestPlayers(ctx)
	if err != nil {
		log.Printf("Error listing online players for suggestions: %v", err)
		api.WriteInternalServerError(w, "Failed to list online players")
		return
	}
	api.WriteJSON(w, http.StatusOK, SuggestionsResponse{Suggestions: names})
}

// SuggestTeamsHandler returns team display names for tab completion.
// GET /suggestions/teams
func (tah *TeamAPIHandlers) SuggestTeamsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names, err := tah.TeamService.SuggestTeams(ctx)
	if err != nil {
		log.Printf("Error listing teams for suggestions: %v", err)
		api.WriteInternalServerError(w, "Failed to list teams")
		return
	}
	api.WriteJSON(w, http.StatusOK, SuggestionsResponse{Suggestions: names})
}

// SuggestColorsHandler returns the named color specs for tab completion.
// GET /suggestions/colors
func (tah *TeamAPIHandlers) SuggestColorsHandler(w http.ResponseWriter, r *http.Request) {
	names := identity.NamedColors()
	sort.Strings(names)
	api.WriteJSON(w, http.StatusOK, SuggestionsResponse{Suggestions: names})
}

// RegisterRoutes registers all API endpoints for the Team Service.
// It takes the mux.Router from the shared BaseServer.
func (tah *TeamAPIHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/commands", tah.ExecuteCommandHandler).Methods("POST")

	router.HandleFunc("/players/online", tah.PlayerOnlineHandler).Methods("POST")
	router.HandleFunc("/players/online", tah.PlayerHeartbeatHandler).Methods("PUT")
	router.HandleFunc("/players/offline", tah.PlayerOfflineHandler).Methods("POST")
	router.HandleFunc("/players/{player}", tah.GetPlayerHandler).Methods("GET")

	router.HandleFunc("/teams", tah.ListTeamsHandler).Methods("GET")
	router.HandleFunc("/teams/{name}", tah.GetTeamHandler).Methods("GET")
	router.HandleFunc("/teams/{name}", tah.ForceDeleteTeamHandler).Methods("DELETE")

	router.HandleFunc("/suggestions/players", tah.SuggestPlayersHandler).Methods("GET")
	router.HandleFunc("/suggestions/teams", tah.SuggestTeamsHandler).Methods("GET")
	router.HandleFunc("/suggestions/colors", tah.SuggestColorsHandler).Methods("GET")
}
