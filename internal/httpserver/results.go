// internal/httpserver/results.go
//
// Records a finished-game summary the first time each generation of a
// session reaches the won phase. Runs as one of the engine's renderers.

package httpserver

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/daily"
	"github.com/robalobadob/memory/apps/go-server/internal/game"
	"github.com/robalobadob/memory/apps/go-server/internal/metrics"
	"github.com/robalobadob/memory/apps/go-server/internal/scores"
	"github.com/robalobadob/memory/apps/go-server/internal/store"
)

const recordTimeout = 5 * time.Second

// recorder returns a renderer that persists wins for sess.
// Render calls are serialized by the engine, so last needs no lock.
func (s *Server) recorder(sess *store.Session) game.Renderer {
	var last uint64
	return game.RenderFunc(func(snap game.Snapshot) {
		if snap.Phase != game.PhaseWon || snap.Generation == last {
			return
		}
		last = snap.Generation

		metrics.GamesWon.WithLabelValues(sess.Mode).Inc()
		metrics.MovesToWin.Observe(float64(snap.Moves))

		res := scores.Result{
			GameID:         snap.GameID,
			Generation:     snap.Generation,
			UserID:         sess.UserID,
			AnonymousID:    sess.AnonymousID,
			Mode:           sess.Mode,
			Date:           s.resultDate(sess),
			Moves:          snap.Moves,
			ElapsedSeconds: snap.Elapsed,
		}
		// Off the engine lock: sqlite may block on a busy writer.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()
			if err := s.scores.Insert(ctx, res); err != nil {
				log.Warn().Err(err).Str("gameId", res.GameID).Msg("record result")
				return
			}
			log.Info().
				Str("gameId", res.GameID).
				Str("mode", res.Mode).
				Int("moves", res.Moves).
				Int("elapsed", res.ElapsedSeconds).
				Msg("game won")
		}()
	})
}

// resultDate is the day a win counts for. Daily boards belong to the date
// they were seeded from; classic wins count on the day they happen.
func (s *Server) resultDate(sess *store.Session) string {
	if sess.Mode == scores.ModeDaily {
		return sess.Date
	}
	return daily.DateKey(s.now())
}
