// internal/httpserver/server.go
//
// HTTP server wiring for the puzzle backend. The browser page is the
// renderer: it posts player intents here and redraws from the returned view
// and notifications.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/levels", "/leaderboard".
//   - Game endpoints (optional auth): /game/*.
//   - Auth endpoints: /auth/signup, /auth/login, /auth/logout, /auth/me.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid token is present;
//     game routes still run for guests, keyed by an anonymous cookie.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/twoworlds/puzzle-server/internal/catalog"
	"github.com/twoworlds/puzzle-server/internal/completion"
	"github.com/twoworlds/puzzle-server/internal/config"
	"github.com/twoworlds/puzzle-server/internal/session"
)

// Server bundles the router, session registry, and DB handle.
type Server struct {
	r        *chi.Mux
	cfg      config.Config
	sessions *session.Registry
	results  *completion.Store
	db       *sql.DB
}

// New constructs a Server, installs middleware, and registers routes. db
// holds the users table; results must share it for leaderboard names.
func New(cfg config.Config, sessions *session.Registry, db *sql.DB, results *completion.Store) *Server {
	s := &Server{r: chi.NewRouter(), cfg: cfg, sessions: sessions, results: results, db: db}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(accessLog)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(cfg.RequestTimeout))
	s.r.Use(jsonContentType)
	s.r.Use(corsFor(cfg.ClientOrigin))

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "twoworlds",
			"endpoints": []string{"/health", "/levels", "/leaderboard", "/game/*", "/auth/*"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	s.r.Get("/levels", s.handleLevels)
	s.r.Get("/leaderboard", s.handleLeaderboard)

	// Game: optional auth (guests can play)
	s.r.Route("/game", func(r chi.Router) {
		r.Use(s.withOptionalAuth())
		s.mountGame(r)
	})

	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)
	s.r.With(s.requireAuth()).Get("/auth/me", s.handleMe)

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ------------------------------ catalog ------------------------------------

// levelInfo is the public face of a level. Solutions, hints and staged clues
// are left out.
type levelInfo struct {
	ID          int                  `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Kind        catalog.SolutionKind `json:"kind"`
	Cells       int                  `json:"cells,omitempty"`
	Labels      []string             `json:"labels,omitempty"`
	Final       bool                 `json:"final"`
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	all := catalog.All()
	out := make([]levelInfo, 0, len(all))
	for _, d := range all {
		out = append(out, levelInfo{
			ID:          d.ID,
			Title:       d.Title,
			Description: d.Description,
			Kind:        d.Solution.Kind,
			Cells:       d.CellCount(),
			Labels:      d.Labels,
			Final:       d.ID == catalog.Count(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"levels": out, "finalWordLength": len(catalog.FinalWord)})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit > 100 {
		limit = 100
	}
	rows, err := s.results.Leaderboard(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor enables credentialed CORS for a single origin.
func corsFor(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog writes one debug line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("req", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("http")
	})
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
