// internal/scores/store.go
//
// Finished-game summaries backed by SQLite.
// A row is written once per won session generation; live session state is never stored.
// Leaderboards order by fewest moves, then fastest time, then earliest finish.

package scores

import (
	"context"
	"database/sql"
)

const (
	ModeClassic = "classic"
	ModeDaily   = "daily"

	defaultLimit = 20
	maxLimit     = 100
)

// Result is one won session.
type Result struct {
	GameID         string `json:"gameId"`
	Generation     uint64 `json:"generation"`
	UserID         string `json:"userId,omitempty"`
	Username       string `json:"username,omitempty"`
	AnonymousID    string `json:"-"`
	Mode           string `json:"mode"`
	Date           string `json:"date"`
	Moves          int    `json:"moves"`
	ElapsedSeconds int    `json:"elapsedSeconds"`
	CreatedAt      string `json:"createdAt,omitempty"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Insert records a result. A second insert for the same game generation is ignored.
func (s *Store) Insert(ctx context.Context, r Result) error {
	if r.Mode == "" {
		r.Mode = ModeClassic
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO scores
            (game_id, generation, user_id, anonymous_id, mode, date, moves, elapsed_seconds)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.GameID, r.Generation, nullable(r.UserID), nullable(r.AnonymousID),
		r.Mode, r.Date, r.Moves, r.ElapsedSeconds,
	)
	return err
}

// Top returns the best results for a mode. An empty date spans every day.
func (s *Store) Top(ctx context.Context, mode, date string, limit int) ([]Result, error) {
	return s.query(ctx, `
        SELECT s.game_id, s.generation, COALESCE(s.user_id,''), COALESCE(u.username,''),
               s.mode, s.date, s.moves, s.elapsed_seconds, s.created_at
        FROM scores s LEFT JOIN users u ON u.id = s.user_id
        WHERE s.mode = ? AND (? = '' OR s.date = ?)
        ORDER BY s.moves ASC, s.elapsed_seconds ASC, s.created_at ASC
        LIMIT ?`, mode, date, date, clamp(limit))
}

// ByUser returns a user's most recent results.
func (s *Store) ByUser(ctx context.Context, userID string, limit int) ([]Result, error) {
	return s.query(ctx, `
        SELECT s.game_id, s.generation, COALESCE(s.user_id,''), COALESCE(u.username,''),
               s.mode, s.date, s.moves, s.elapsed_seconds, s.created_at
        FROM scores s LEFT JOIN users u ON u.id = s.user_id
        WHERE s.user_id = ?
        ORDER BY s.created_at DESC
        LIMIT ?`, userID, clamp(limit))
}

// Played reports whether the owner already has a result for mode on date.
// Exactly one of userID or anonID is expected to be set.
func (s *Store) Played(ctx context.Context, mode, date, userID, anonID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(1) FROM scores
        WHERE mode = ? AND date = ? AND (user_id = ? OR anonymous_id = ?)`,
		mode, date, nullable(userID), nullable(anonID),
	).Scan(&n)
	return n > 0, err
}

// ClaimAnonymous moves a guest's results onto a user account after login.
func (s *Store) ClaimAnonymous(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE scores SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID)
	return err
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Result{}
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.GameID, &r.Generation, &r.UserID, &r.Username,
			&r.Mode, &r.Date, &r.Moves, &r.ElapsedSeconds, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func clamp(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
