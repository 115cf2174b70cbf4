// internal/game/engine.go
//
// Engine hosts one memory-match session.
// Responsibilities:
//   - Own the session State and serialize every event through one lock.
//   - Run the effects returned by Reduce: scheduled tasks and audio cues.
//   - Push a Snapshot to the render port after every state change.
//
// Notes:
//   - Scheduled tasks carry the generation they were created for. Restart
//     stops pending timers and bumps the generation, so a task that still
//     fires afterwards is a no-op in Reduce.
//   - The tick chain stops once the session is won.

package game

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrClosed is returned by operations on a closed engine.
var ErrClosed = errors.New("game: session closed")

const (
	cueTimeout = 2 * time.Second
	cueBuffer  = 32
)

// Options configures a new Engine.
type Options struct {
	Alphabet []string        // Required; validated by New.
	Rand     *rand.Rand      // Shuffle source; crypto-seeded when nil.
	Timing   Timing          // Zero fields fall back to DefaultTiming.
	Clock    Clock           // SystemClock when nil.
	Renderer Renderer        // Optional.
	Audio    AudioPort       // Optional.
	Logger   *zerolog.Logger // Global logger when nil.
}

// Engine is the single writer of a session's state.
type Engine struct {
	mu       sync.Mutex
	id       string
	alphabet []string
	rng      *rand.Rand
	timing   Timing
	clock    Clock
	render   Renderer
	audio    AudioPort
	log      zerolog.Logger

	state  State
	timers map[EffectKind]Timer
	cues   chan Cue // nil without an audio port
	closed bool
}

// New validates the alphabet, deals the first board, and enters the preview phase.
func New(id string, opts Options) (*Engine, error) {
	if err := ValidateAlphabet(opts.Alphabet); err != nil {
		return nil, err
	}
	e := &Engine{
		id:       id,
		alphabet: slices.Clone(opts.Alphabet),
		rng:      opts.Rand,
		timing:   opts.Timing.withDefaults(),
		clock:    opts.Clock,
		render:   opts.Renderer,
		audio:    opts.Audio,
		timers:   make(map[EffectKind]Timer, 3),
	}
	if e.rng == nil {
		e.rng = NewRand()
	}
	if e.clock == nil {
		e.clock = SystemClock{}
	}
	base := log.Logger
	if opts.Logger != nil {
		base = *opts.Logger
	}
	e.log = base.With().Str("gameId", id).Logger()
	if e.audio != nil {
		e.cues = make(chan Cue, cueBuffer)
		go e.playCues(e.audio, e.cues)
	}

	if err := e.Restart(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// ID returns the session identifier.
func (e *Engine) ID() string { return e.id }

// Restart deals a fresh board and re-enters preview, discarding the old session atomically.
func (e *Engine) Restart() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	board, err := Generate(e.alphabet, e.rng)
	if err != nil {
		return err
	}
	e.stopTimersLocked()
	e.dispatchLocked(Restart{Board: board})
	e.log.Debug().Uint64("generation", e.state.Generation).Int("tiles", len(board)).Msg("session started")
	return nil
}

// Click offers a tile click for whatever board is current.
func (e *Engine) Click(tileID int) Verdict { return e.ClickIn(0, tileID) }

// ClickIn offers a tile click that is only valid for the given generation.
// A zero generation matches any board.
func (e *Engine) ClickIn(generation uint64, tileID int) Verdict {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return RejectedStale
	}
	c := Click{Generation: generation, TileID: tileID}
	v := Admit(e.state, c)
	if v.Accepted() {
		e.dispatchLocked(c)
	}
	return v
}

// Snapshot returns the render view of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return View(e.id, e.state)
}

// State returns a deep copy of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Close stops every pending task. Later events are ignored.
// Cues already queued are still played.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.stopTimersLocked()
	if e.cues != nil {
		close(e.cues)
	}
}

// fire returns the callback a scheduled task runs when it becomes due.
func (e *Engine) fire(ev Event) func() {
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed {
			return
		}
		e.dispatchLocked(ev)
	}
}

func (e *Engine) dispatchLocked(ev Event) {
	prev := e.state
	next, effects := Reduce(prev, ev)
	e.state = next

	for _, eff := range effects {
		switch eff.Kind {
		case ScheduleReveal:
			e.scheduleLocked(eff.Kind, e.timing.Dwell, Reveal{Generation: eff.Generation})
		case ScheduleEvaluate:
			e.scheduleLocked(eff.Kind, e.timing.Compare, Evaluate{Generation: eff.Generation})
		case ScheduleTick:
			e.scheduleLocked(eff.Kind, e.timing.Tick, Tick{Generation: eff.Generation})
		case PlayCue:
			e.play(eff.Cue)
		}
	}

	if next.Phase == PhaseWon && prev.Phase != PhaseWon {
		e.stopTimerLocked(ScheduleTick)
		e.log.Info().Int("moves", next.Moves).Int("elapsed", next.Elapsed).Msg("session won")
	}
	if changed(prev, next) && e.render != nil {
		e.render.Render(View(e.id, next))
	}
}

func (e *Engine) scheduleLocked(kind EffectKind, d time.Duration, ev Event) {
	e.stopTimerLocked(kind)
	e.timers[kind] = e.clock.AfterFunc(d, e.fire(ev))
}

func (e *Engine) stopTimerLocked(kind EffectKind) {
	if t, ok := e.timers[kind]; ok {
		t.Stop()
		delete(e.timers, kind)
	}
}

func (e *Engine) stopTimersLocked() {
	for kind := range e.timers {
		e.stopTimerLocked(kind)
	}
}

// play queues a cue without waiting for it. A full queue drops the cue.
func (e *Engine) play(c Cue) {
	if e.cues == nil {
		return
	}
	select {
	case e.cues <- c:
	default:
		e.log.Warn().Str("cue", string(c)).Msg("audio queue full, cue dropped")
	}
}

// playCues delivers cues one at a time, in the order they were queued.
func (e *Engine) playCues(audio AudioPort, cues <-chan Cue) {
	for c := range cues {
		e.playOne(audio, c)
	}
}

func (e *Engine) playOne(audio AudioPort, c Cue) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().Interface("panic", r).Str("cue", string(c)).Msg("audio cue panicked")
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), cueTimeout)
	defer cancel()
	if err := audio.Play(ctx, c); err != nil {
		e.log.Warn().Err(err).Str("cue", string(c)).Msg("audio cue failed")
	}
}

// changed reports whether a transition is observable by the render port.
// Matched flags only change together with the phase, so the board itself needs no comparison.
func changed(a, b State) bool {
	return a.Generation != b.Generation ||
		a.Phase != b.Phase ||
		a.Moves != b.Moves ||
		a.Elapsed != b.Elapsed ||
		!slices.Equal(a.Flipped, b.Flipped)
}
