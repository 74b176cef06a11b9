// Package api provides the HTTP surface for game clients: server creation,
// join, action submission, the per-player view, and the public status
// summary. All player-scoped calls carry a playerId/token pair checked in the
// game layer.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/statecraft/internal/game"
	"github.com/talgya/statecraft/internal/metrics"
	"github.com/talgya/statecraft/internal/state"
)

// Server serves the game API over HTTP.
type Server struct {
	Manager *game.Manager
	Port    int

	started time.Time
}

// Router builds the route table. Exposed for tests.
func (s *Server) Router() http.Handler {
	actionLimiter := NewRateLimiter(60, time.Minute)

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/server/create", s.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/server/{id}/join", s.handleJoin).Methods(http.MethodPost)
	r.HandleFunc("/server/{id}/view", s.handleView).Methods(http.MethodGet)
	r.HandleFunc("/server/{id}/action",
		RateLimitMiddleware(actionLimiter, s.handleAction)).Methods(http.MethodPost)
	r.HandleFunc("/server/{id}/status", s.handleStatus).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.Use(requestMetrics)
	return corsMiddleware(r)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	s.started = time.Now()
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr)

	go func() {
		if err := http.ListenAndServe(addr, s.Router()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds permissive CORS headers; clients are browser frontends
// on arbitrary origins.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code for the request counter.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"game":      "statecraft",
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

type joinRequest struct {
	PlayerName string `json:"playerName"`
	PlayerRole string `json:"playerRole"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.PlayerName == "" {
		http.Error(w, "playerName required", http.StatusBadRequest)
		return
	}

	res, err := s.Manager.Create(req.PlayerName, state.Role(req.PlayerRole))
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"serverId":     res.ServerID,
		"playerId":     res.Join.PlayerID,
		"playerToken":  res.Join.PlayerToken,
		"tick":         res.Join.Tick,
		"tickDeadline": res.Join.TickDeadline,
	})
}

// lookupGame resolves the {id} path variable; writes 404 and returns nil when
// the game does not exist.
func (s *Server) lookupGame(w http.ResponseWriter, r *http.Request) *game.Game {
	g := s.Manager.Get(mux.Vars(r)["id"])
	if g == nil {
		http.Error(w, "server not found", http.StatusNotFound)
		return nil
	}
	return g
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	g := s.lookupGame(w, r)
	if g == nil {
		return
	}

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.PlayerName == "" {
		http.Error(w, "playerName required", http.StatusBadRequest)
		return
	}

	res, err := g.Join(req.PlayerName, state.Role(req.PlayerRole))
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"playerId":     res.PlayerID,
		"playerToken":  res.PlayerToken,
		"tick":         res.Tick,
		"tickDeadline": res.TickDeadline,
	})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	g := s.lookupGame(w, r)
	if g == nil {
		return
	}

	playerID := r.URL.Query().Get("playerId")
	token := r.URL.Query().Get("token")
	res, err := g.View(playerID, token)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"view":         res.View,
		"tick":         res.Tick,
		"phase":        res.Phase,
		"tickDeadline": res.TickDeadline,
	})
}

type actionRequest struct {
	PlayerID    string       `json:"playerId"`
	PlayerToken string       `json:"playerToken"`
	Action      state.Action `json:"action"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	g := s.lookupGame(w, r)
	if g == nil {
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Action.Type == "" {
		http.Error(w, "action_type required", http.StatusBadRequest)
		return
	}

	pending, err := g.SubmitAction(req.PlayerID, req.PlayerToken, req.Action)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"success":      true,
		"pendingCount": pending,
		"tick":         g.Status().Tick,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	g := s.lookupGame(w, r)
	if g == nil {
		return
	}

	st := g.Status()
	deadline := time.Unix(st.TickDeadline, 0)
	writeJSON(w, map[string]any{
		"status":         st,
		"next_tick":      deadline.UTC().Format(time.RFC3339),
		"next_tick_in":   humanize.Time(deadline),
		"server_started": humanize.Time(s.started),
	})
}

// writeGameError maps game-layer sentinels onto HTTP status codes.
func writeGameError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrUnauthorized):
		code = http.StatusUnauthorized
	case errors.Is(err, game.ErrPlayerNotFound):
		code = http.StatusNotFound
	case errors.Is(err, game.ErrServerFull):
		code = http.StatusForbidden
	case errors.Is(err, game.ErrWrongPhase):
		code = http.StatusConflict
	case errors.Is(err, game.ErrWrongRole):
		code = http.StatusForbidden
	case errors.Is(err, game.ErrTooManyPending):
		code = http.StatusTooManyRequests
	case errors.Is(err, game.ErrInvalidRole):
		code = http.StatusBadRequest
	}
	if code == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	http.Error(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
