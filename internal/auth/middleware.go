package auth

import (
	"context"
	"net/http"
)

// Principal is the authenticated user placed into the request context.
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ctxUserKey struct{}

// WithPrincipal returns ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, p)
}

// FromContext returns the principal, or nil for guests.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(ctxUserKey{}).(*Principal)
	return p
}

// Middleware resolves tokens into principals.
type Middleware struct {
	Tokens  Tokens
	Cookies Cookies
	Users   *Users
}

// resolve returns the principal for a request, checking that the user still exists.
func (m *Middleware) resolve(r *http.Request) (*Principal, error) {
	raw := m.Cookies.Token(r)
	if raw == "" {
		return nil, ErrInvalidToken
	}
	claims, err := m.Tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	if _, err := m.Users.FindByID(r.Context(), claims.ID); err != nil {
		return nil, ErrInvalidToken
	}
	return &Principal{ID: claims.ID, Username: claims.Username}, nil
}

// Optional decorates requests with the principal when a valid token is present.
// It never rejects; used for routes where guests are allowed.
func (m *Middleware) Optional() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, err := m.resolve(r); err == nil {
				r = r.WithContext(WithPrincipal(r.Context(), p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require enforces a valid token.
func (m *Middleware) Require() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.Cookies.Token(r) == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			p, err := m.resolve(r)
			if err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
