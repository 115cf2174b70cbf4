// internal/httpserver/routes_auth.go
//
// Account and score endpoints:
//   - POST /auth/signup, /auth/login, /auth/logout; GET /auth/me (gated)
//   - GET  /scores/top?mode=&date=&limit=
//   - GET  /scores/mine (gated)
//
// Signing up or logging in claims any results recorded under the caller's
// anonymous cookie.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/auth"
	"github.com/robalobadob/memory/apps/go-server/internal/scores"
)

// credentials is the request payload for signup/login.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) mountAuth(r chi.Router) {
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	r.With(s.auth.Require()).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(auth.FromContext(r.Context()))
	})
}

func (s *Server) mountScores(r chi.Router) {
	r.Get("/scores/top", s.handleTopScores)
	r.With(s.auth.Require()).Get("/scores/mine", s.handleMyScores)
}

// handleSignup creates a user, sets the auth cookie, and claims anon results.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.users.Create(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			http.Error(w, `{"error":"Username taken"}`, http.StatusConflict)
			return
		}
		errJSON, _ := json.Marshal(map[string]string{"error": err.Error()})
		http.Error(w, string(errJSON), http.StatusBadRequest)
		return
	}
	if !s.login(w, r, u) {
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt})
}

// handleLogin authenticates, sets the auth cookie, and claims anon results.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.users.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}
	if !s.login(w, r, u) {
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"id": u.ID, "username": u.Username})
}

// login signs a token, sets the cookie, and attaches guest results to u.
func (s *Server) login(w http.ResponseWriter, r *http.Request, u *auth.User) bool {
	tok, exp, err := s.auth.Tokens.Sign(u.ID, u.Username)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return false
	}
	s.cookies.Set(w, tok, exp)
	if err := s.scores.ClaimAnonymous(r.Context(), s.cookies.AnonID(w, r), u.ID); err != nil {
		log.Warn().Err(err).Str("user", u.ID).Msg("claim anonymous results")
	}
	return true
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.cookies.Clear(w)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// handleTopScores returns the best results for a mode (classic by default).
func (s *Server) handleTopScores(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("mode")
	switch mode {
	case "":
		mode = scores.ModeClassic
	case scores.ModeClassic, scores.ModeDaily:
	default:
		http.Error(w, `{"error":"bad_mode"}`, http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	rows, err := s.scores.Top(r.Context(), mode, q.Get("date"), limit)
	if err != nil {
		log.Error().Err(err).Msg("top scores")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(rows)
}

// handleMyScores returns the caller's most recent results.
func (s *Server) handleMyScores(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := s.scores.ByUser(r.Context(), me.ID, limit)
	if err != nil {
		log.Error().Err(err).Str("user", me.ID).Msg("my scores")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(rows)
}
