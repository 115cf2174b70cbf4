// internal/httpserver/server.go
//
// HTTP server wiring for the memory-match backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/metrics".
//   - Game endpoints (optional auth): /game/new, /game/{id}[/click|/restart|/ws].
//   - Daily board endpoints (optional auth): mounted under /daily.
//   - Auth + score endpoints: /auth/*, /scores/*.
//   - Idle session eviction (Sweep / StartSweeper).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - The WebSocket route sits outside the request timeout group: a stream
//     lives as long as the player keeps the page open.

package httpserver

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/auth"
	"github.com/robalobadob/memory/apps/go-server/internal/config"
	"github.com/robalobadob/memory/apps/go-server/internal/game"
	"github.com/robalobadob/memory/apps/go-server/internal/metrics"
	"github.com/robalobadob/memory/apps/go-server/internal/scores"
	"github.com/robalobadob/memory/apps/go-server/internal/store"
	"github.com/robalobadob/memory/apps/go-server/internal/stream"
)

// Options bundles the server's collaborators.
type Options struct {
	Config   config.Config
	Store    store.Store
	Hub      *stream.Hub
	DB       *sql.DB
	Alphabet []string
	Clock    game.Clock       // SystemClock when nil.
	Now      func() time.Time // time.Now when nil.
}

// Server bundles router, live sessions, and persistence handles.
type Server struct {
	r        *chi.Mux
	store    store.Store
	hub      *stream.Hub
	scores   *scores.Store
	users    *auth.Users
	auth     *auth.Middleware
	cookies  auth.Cookies
	alphabet []string
	timing   game.Timing
	clock    game.Clock
	salt     string
	now      func() time.Time
	upgrader websocket.Upgrader
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	cfg := opts.Config
	cookies := auth.Cookies{Name: cfg.CookieName, Secure: cfg.Production()}
	users := auth.NewUsers(opts.DB)

	s := &Server{
		r:        chi.NewRouter(),
		store:    opts.Store,
		hub:      opts.Hub,
		scores:   scores.NewStore(opts.DB),
		users:    users,
		cookies:  cookies,
		alphabet: opts.Alphabet,
		timing:   cfg.Timing(),
		clock:    opts.Clock,
		salt:     cfg.DailySalt,
		now:      opts.Now,
		auth: &auth.Middleware{
			Tokens:  auth.Tokens{Secret: []byte(cfg.JWTSecret), TTL: cfg.TokenTTL()},
			Cookies: cookies,
			Users:   users,
		},
	}
	if s.clock == nil {
		s.clock = game.SystemClock{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || o == cfg.ClientOrigin || o == "http://"+r.Host || o == "https://"+r.Host
		},
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)        // add X-Request-ID
	s.r.Use(chimw.RealIP)           // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)        // recover from panics
	s.r.Use(jsonContentType)        // default JSON responses
	s.r.Use(cors(cfg.ClientOrigin)) // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"memory-go","endpoints":["/health","POST /game/new","POST /game/{id}/click","GET /game/{id}/ws","/daily/*","/scores/*","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Handle("/metrics", promhttp.Handler())

	// Live stream: optional auth, no request timeout.
	s.r.With(s.auth.Optional()).Get("/game/{id}/ws", s.handleStream)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time

		// Game endpoints: OPTIONAL AUTH (guests can play)
		s.mountGame(r.With(s.auth.Optional()))

		// Daily board: OPTIONAL AUTH
		s.mountDaily(r.With(s.auth.Optional()))

		// Auth + scores
		s.mountAuth(r)
		s.mountScores(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Router exposes the internal router (useful for tests and the http.Server in main).
func (s *Server) Router() chi.Router { return s.r }

// Sweep evicts sessions idle longer than ttl and closes their streams.
func (s *Server) Sweep(ctx context.Context, ttl time.Duration) int {
	ids := s.store.Sweep(ctx, s.now().Add(-ttl))
	for _, id := range ids {
		s.hub.Close(id)
	}
	metrics.ActiveSessions.Set(float64(s.store.Len()))
	if len(ids) > 0 {
		log.Info().Int("evicted", len(ids)).Int("active", s.store.Len()).Msg("swept idle sessions")
	}
	return len(ids)
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *Server) StartSweeper(ctx context.Context, interval, ttl time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ctx, ttl)
			}
		}
	}()
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
