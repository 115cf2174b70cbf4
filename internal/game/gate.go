// internal/game/gate.go
//
// Input gate: decides whether a tile click may reach the state machine.
// A rejected click is a silent no-op for the session; the verdict only
// exists so callers can log, count, and report it.

package game

// Verdict is the outcome of offering a click to the gate.
type Verdict int

const (
	Accepted Verdict = iota
	RejectedPreview
	RejectedBusy
	RejectedWon
	RejectedStale
	RejectedUnknownTile
	RejectedFlipped
	RejectedMatched
)

var verdictNames = [...]string{
	Accepted:            "accepted",
	RejectedPreview:     "preview",
	RejectedBusy:        "busy",
	RejectedWon:         "won",
	RejectedStale:       "stale",
	RejectedUnknownTile: "unknown_tile",
	RejectedFlipped:     "already_flipped",
	RejectedMatched:     "already_matched",
}

// Accepted reports whether the click was admitted.
func (v Verdict) Accepted() bool { return v == Accepted }

func (v Verdict) String() string {
	if int(v) >= 0 && int(v) < len(verdictNames) {
		return verdictNames[v]
	}
	return "unknown"
}

// Admit checks a click against the current state.
// Phase checks come first, then generation, then per-tile checks.
func Admit(s State, c Click) Verdict {
	switch s.Phase {
	case PhasePreview:
		return RejectedPreview
	case PhaseEvaluating:
		return RejectedBusy
	case PhaseWon:
		return RejectedWon
	}
	// Playing with two tiles up can only happen transiently; treat it as busy.
	if len(s.Flipped) >= 2 {
		return RejectedBusy
	}
	if c.Generation != 0 && c.Generation != s.Generation {
		return RejectedStale
	}
	i := s.Board.Index(c.TileID)
	if i < 0 {
		return RejectedUnknownTile
	}
	if s.isFlipped(c.TileID) {
		return RejectedFlipped
	}
	if s.Board[i].Matched {
		return RejectedMatched
	}
	return Accepted
}
