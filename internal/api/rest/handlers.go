package rest

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rebelscc/pavilion/internal/service"
	"github.com/rebelscc/pavilion/internal/store"
	"github.com/rebelscc/pavilion/internal/store/repository"
	"github.com/rebelscc/pavilion/internal/syncer"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	db            *store.Database
	playerService *service.PlayerService
	teamService   *service.TeamService
	statusService *service.StatusService
	orchestrator  *syncer.Orchestrator
}

// NewHandler creates a new handler
func NewHandler(db *store.Database, repos *repository.Store, orchestrator *syncer.Orchestrator) *Handler {
	return &Handler{
		db:            db,
		playerService: service.NewPlayerService(repos),
		teamService:   service.NewTeamService(repos),
		statusService: service.NewStatusService(repos, syncer.CacheKeyPlayers),
		orchestrator:  orchestrator,
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	if err := h.db.HealthCheck(); err != nil {
		dbStatus = "error"
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"service":  "pavilion",
		"version":  "1.0.0",
		"database": dbStatus,
	})
}

// playerResponse decorates a player with its role display category
type playerResponse struct {
	*store.Player
	RoleStyle string `json:"role_style"`
}

func decoratePlayer(p *store.Player) playerResponse {
	role := ""
	if p.Role.Valid {
		role = p.Role.String
	}
	return playerResponse{Player: p, RoleStyle: service.RoleStyle(role)}
}

// GetPlayers returns the roster ordered by name, optionally filtered by ?q=
func (h *Handler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	players := h.playerService.ListPlayers(r.Context(), query)

	decorated := make([]playerResponse, 0, len(players))
	for _, p := range players {
		decorated = append(decorated, decoratePlayer(p))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"players": decorated,
		"count":   len(decorated),
	})
}

// GetPlayersWithStats returns the roster with batting and bowling attached
func (h *Handler) GetPlayersWithStats(w http.ResponseWriter, r *http.Request) {
	players := h.playerService.PlayersWithStats(r.Context())

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"players": players,
		"count":   len(players),
	})
}

// GetPlayer returns a single player by CricClubs identifier
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	playerID := vars["playerID"]

	player := h.playerService.GetPlayer(r.Context(), playerID)
	if player == nil {
		respondError(w, http.StatusNotFound, "Player not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, decoratePlayer(player))
}

// GetPlayerStats returns a player's batting, bowling and fielding stats
func (h *Handler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	playerID := vars["playerID"]

	stats := h.playerService.GetPlayerStats(r.Context(), playerID)
	respondJSON(w, http.StatusOK, stats)
}

// GetTeam returns the club's team record
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	team := h.teamService.GetTeamInfo(r.Context())
	if team == nil {
		respondError(w, http.StatusNotFound, "Team info not available yet", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"team": team})
}

// GetCacheStatus returns the freshness signal for the roster cache
func (h *Handler) GetCacheStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.statusService.CacheStatus(r.Context()))
}

// TriggerSync runs a roster sync. ?force=true bypasses the TTL check but is
// rate limited to one call per minute per caller.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"

	result := h.orchestrator.Sync(r.Context(), force, clientIP(r))

	switch {
	case result.RateLimited:
		respondJSON(w, http.StatusTooManyRequests, result)
	case !result.Success:
		respondJSON(w, http.StatusBadGateway, result)
	default:
		respondJSON(w, http.StatusOK, result)
	}
}

// clientIP derives the caller identity for rate limiting. The first hop of
// X-Forwarded-For is trusted; otherwise the socket address is used.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	respondJSON(w, status, response)
}
