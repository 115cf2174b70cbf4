// internal/game/reducer.go
//
// Pure state machine for a single session.
//
//	preview → playing → evaluating → playing → … → won
//
// Reduce never mutates its input and never touches clocks or ports: it returns
// the next state plus the effects (scheduled tasks, audio cues) the engine must
// carry out. Every timed event carries the generation it was scheduled for and
// is ignored once a restart has moved the session on.

package game

// Event is an input to Reduce.
type Event interface{ event() }

// Restart replaces the session with a fresh board in the preview phase.
type Restart struct{ Board Board }

// Reveal ends the preview and hides every tile.
type Reveal struct{ Generation uint64 }

// Click flips a tile. A zero Generation means "whatever board is current".
type Click struct {
	Generation uint64
	TileID     int
}

// Evaluate compares the two flipped tiles.
type Evaluate struct{ Generation uint64 }

// Tick advances the elapsed-time counter by one.
type Tick struct{ Generation uint64 }

func (Restart) event()  {}
func (Reveal) event()   {}
func (Click) event()    {}
func (Evaluate) event() {}
func (Tick) event()     {}

// EffectKind enumerates what the engine must do after a transition.
type EffectKind int

const (
	ScheduleReveal EffectKind = iota
	ScheduleEvaluate
	ScheduleTick
	PlayCue
)

// Effect is a side effect requested by a transition.
type Effect struct {
	Kind       EffectKind
	Generation uint64 // For Schedule* effects.
	Cue        Cue    // For PlayCue.
}

// Reduce applies ev to s.
func Reduce(s State, ev Event) (State, []Effect) {
	switch ev := ev.(type) {
	case Restart:
		return restart(s, ev)
	case Reveal:
		if ev.Generation != s.Generation || s.Phase != PhasePreview {
			return s, nil
		}
		s.Phase = PhasePlaying
		s.Flipped = nil
		return s, nil
	case Click:
		return click(s, ev)
	case Evaluate:
		return evaluate(s, ev)
	case Tick:
		if ev.Generation != s.Generation || s.Phase == PhaseWon {
			return s, nil
		}
		s.Elapsed++
		return s, []Effect{{Kind: ScheduleTick, Generation: s.Generation}}
	}
	return s, nil
}

func restart(s State, ev Restart) (State, []Effect) {
	gen := s.Generation + 1
	flipped := make([]int, len(ev.Board))
	for i, t := range ev.Board {
		flipped[i] = t.ID
	}
	next := State{
		Generation: gen,
		Board:      ev.Board.Clone(),
		Flipped:    flipped,
		Phase:      PhasePreview,
	}
	return next, []Effect{
		{Kind: ScheduleReveal, Generation: gen},
		{Kind: ScheduleTick, Generation: gen},
	}
}

func click(s State, ev Click) (State, []Effect) {
	if Admit(s, ev) != Accepted {
		return s, nil
	}
	// Copy on write: the caller's slice must stay untouched.
	flipped := make([]int, len(s.Flipped), len(s.Flipped)+1)
	copy(flipped, s.Flipped)
	s.Flipped = append(flipped, ev.TileID)

	effects := []Effect{{Kind: PlayCue, Cue: CueFlip}}
	if len(s.Flipped) == 2 {
		s.Moves++
		s.Phase = PhaseEvaluating
		effects = append(effects, Effect{Kind: ScheduleEvaluate, Generation: s.Generation})
	}
	return s, effects
}

func evaluate(s State, ev Evaluate) (State, []Effect) {
	if ev.Generation != s.Generation || s.Phase != PhaseEvaluating || len(s.Flipped) != 2 {
		return s, nil
	}
	i, j := s.Board.Index(s.Flipped[0]), s.Board.Index(s.Flipped[1])
	s.Flipped = nil
	s.Phase = PhasePlaying
	if i < 0 || j < 0 || s.Board[i].Symbol != s.Board[j].Symbol {
		return s, nil
	}

	// Mark the pair first so the completion check sees the updated board.
	board := s.Board.Clone()
	board[i].Matched = true
	board[j].Matched = true
	s.Board = board

	effects := []Effect{{Kind: PlayCue, Cue: CueMatch}}
	if board.AllMatched() {
		s.Phase = PhaseWon
		effects = append(effects, Effect{Kind: PlayCue, Cue: CueWin})
	}
	return s, effects
}
