// Package api exposes the simulation over HTTP. The core engines own no
// network concerns; this layer translates domain rejections into
// structured responses and pushes step reports to websocket subscribers.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/auralis/internal/agents"
	"github.com/talgya/auralis/internal/interaction"
	"github.com/talgya/auralis/internal/llm"
	"github.com/talgya/auralis/internal/market"
	"github.com/talgya/auralis/internal/multiworld"
	"github.com/talgya/auralis/internal/world"
)

// Server serves the multi-world engine over HTTP.
type Server struct {
	Engine      *multiworld.Engine
	Interaction *interaction.Engine
	Oracle      *llm.Client
	Notary      world.Notary
	Port        int
	Seed        int64

	hub *Hub
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	handler := s.Handler()

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr)

	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Handler builds the route table. Exposed separately so tests can drive
// the API without a listener.
func (s *Server) Handler() http.Handler {
	if s.hub == nil {
		s.hub = NewHub()
	}

	// Auto-run steps go through the same stream as manual steps.
	s.Engine.OnStep = func(worldID string, actions []market.StepAction) {
		state, ok := s.Engine.GetWorldState(worldID)
		if !ok {
			return
		}
		s.hub.Broadcast(worldID, stepReport(worldID, state.Time, actions))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/worlds", s.handleListWorlds)
	mux.HandleFunc("POST /api/v1/worlds", s.handleCreateWorld)
	mux.HandleFunc("GET /api/v1/worlds/{id}", s.handleWorldState)
	mux.HandleFunc("DELETE /api/v1/worlds/{id}", s.handleDeleteWorld)

	mux.HandleFunc("POST /api/v1/worlds/{id}/agents", s.handleEnterWorld)
	mux.HandleFunc("POST /api/v1/worlds/{id}/step", s.handleStep)
	mux.HandleFunc("POST /api/v1/worlds/{id}/start", s.handleStart)
	mux.HandleFunc("POST /api/v1/worlds/{id}/stop", s.handleStop)
	mux.HandleFunc("GET /api/v1/worlds/{id}/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/worlds/{id}/history", s.handleHistory)

	mux.HandleFunc("GET /api/v1/agents/{id}/resources", s.handleAgentResources)
	mux.HandleFunc("GET /api/v1/agents/{id}/trades", s.handleAgentTrades)
	mux.HandleFunc("POST /api/v1/alliances", s.handleFormAlliance)
	mux.HandleFunc("DELETE /api/v1/alliances/{id}", s.handleBreakAlliance)

	mux.HandleFunc("GET /ws/worlds/{id}", s.hub.HandleSubscribe)

	return corsMiddleware(mux)
}

// stepInterval reads the ?interval_ms query parameter, defaulting to one
// second.
func stepInterval(r *http.Request) time.Duration {
	if raw := r.URL.Query().Get("interval_ms"); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return time.Second
}

// corsMiddleware allows localhost dev frontends plus anything listed in
// CORS_ORIGINS.
func corsMiddleware(next http.Handler) http.Handler {
	allowed := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowed[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleListWorlds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"worlds": s.Engine.ListWorlds()})
}

type createWorldRequest struct {
	Name      string         `json:"name"`
	Creator   string         `json:"creator"`
	EntryFee  float64        `json:"entry_fee"`
	MaxAgents int            `json:"max_agents"`
	Rules     map[string]any `json:"rules"`
	Seed      int64          `json:"seed"`
}

func (s *Server) handleCreateWorld(w http.ResponseWriter, r *http.Request) {
	var req createWorldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	id := s.Engine.CreateWorld(req.Name, req.Creator, req.EntryFee, req.MaxAgents, req.Rules, "")

	seed := req.Seed
	if seed == 0 {
		seed = s.Seed
	}
	s.Engine.AttachWorld(id, world.New(world.Config{Seed: seed, Notary: s.Notary}))

	writeJSON(w, http.StatusCreated, map[string]any{"world_id": id})
}

func (s *Server) handleWorldState(w http.ResponseWriter, r *http.Request) {
	state, ok := s.Engine.GetWorldState(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown world")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDeleteWorld(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.Engine.DeleteWorld(id) {
		writeError(w, http.StatusNotFound, "unknown world")
		return
	}
	s.hub.CloseWorld(id)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

type enterWorldRequest struct {
	AgentID  string  `json:"agent_id"`
	Strategy string  `json:"strategy"`
	Balance  float64 `json:"balance"`
}

func (s *Server) handleEnterWorld(w http.ResponseWriter, r *http.Request) {
	worldID := r.PathValue("id")

	var req enterWorldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AgentID == "" {
		writeError(w, http.StatusBadRequest, "agent_id is required")
		return
	}

	if !s.Engine.AgentEnterWorld(worldID, req.AgentID) {
		writeError(w, http.StatusConflict, "admission rejected: unknown world or at capacity")
		return
	}

	if sim := s.Engine.Sim(worldID); sim != nil && !hasAgent(sim, req.AgentID) {
		balance := req.Balance
		if balance == 0 {
			balance = 100
		}
		sim.RegisterAgent(agents.New(req.AgentID, s.strategyFor(req.Strategy), balance))
		s.Interaction.InitializeAgent(req.AgentID)
	}

	writeJSON(w, http.StatusOK, map[string]any{"world_id": worldID, "agent_id": req.AgentID})
}

func hasAgent(sim *world.World, id string) bool {
	for _, a := range sim.Agents() {
		if a.ID == id {
			return true
		}
	}
	return false
}

// strategyFor maps a request tag onto a fresh strategy instance. Unknown
// tags get the random baseline.
func (s *Server) strategyFor(tag string) agents.Strategy {
	switch tag {
	case "cautious":
		return agents.NewCautious()
	case "aggressive":
		return agents.NewAggressive()
	case "trend_follower":
		return agents.NewTrendFollower()
	case "ai_enhanced":
		if s.Oracle != nil {
			return agents.NewAdvised(s.Oracle)
		}
		return agents.NewAdvised(nil)
	default:
		return agents.NewSimple()
	}
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	worldID := r.PathValue("id")
	if _, ok := s.Engine.GetWorldState(worldID); !ok {
		writeError(w, http.StatusNotFound, "unknown world")
		return
	}

	actions := s.Engine.StepWorld(worldID)
	state, _ := s.Engine.GetWorldState(worldID)

	report := stepReport(worldID, state.Time, actions)
	s.hub.Broadcast(worldID, report)
	writeJSON(w, http.StatusOK, report)
}

func stepReport(worldID string, time int, actions []market.StepAction) map[string]any {
	return map[string]any{"world_id": worldID, "time": time, "actions": actions}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	worldID := r.PathValue("id")
	if !s.Engine.StartWorld(worldID, stepInterval(r)) {
		writeError(w, http.StatusConflict, "cannot start: unknown world, no simulation, or already running")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"world_id": worldID, "running": true})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	worldID := r.PathValue("id")
	if !s.Engine.StopWorld(worldID) {
		writeError(w, http.StatusConflict, "cannot stop: unknown world or not running")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"world_id": worldID, "running": false})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sim := s.Engine.Sim(r.PathValue("id"))
	if sim == nil {
		writeError(w, http.StatusNotFound, "unknown world")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": sim.Events()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sim := s.Engine.Sim(r.PathValue("id"))
	if sim == nil {
		writeError(w, http.StatusNotFound, "unknown world")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": sim.History()})
}

func (s *Server) handleAgentResources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"agent_id":  r.PathValue("id"),
		"resources": s.Interaction.GetAgentResources(r.PathValue("id")),
	})
}

func (s *Server) handleAgentTrades(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"agent_id": r.PathValue("id"),
		"trades":   s.Interaction.GetTradeHistory(r.PathValue("id")),
	})
}

type allianceRequest struct {
	Members []string `json:"members"`
}

func (s *Server) handleFormAlliance(w http.ResponseWriter, r *http.Request) {
	var req allianceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Members) == 0 {
		writeError(w, http.StatusBadRequest, "members is required")
		return
	}
	id := s.Interaction.FormAlliance(req.Members)
	writeJSON(w, http.StatusCreated, map[string]any{"alliance_id": id})
}

func (s *Server) handleBreakAlliance(w http.ResponseWriter, r *http.Request) {
	if !s.Interaction.BreakAlliance(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "unknown alliance")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"broken": r.PathValue("id")})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]any{"success": false, "reason": reason})
}
