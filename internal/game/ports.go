// internal/game/ports.go
//
// Boundaries between the engine and the outside world:
//   - Renderer:  receives a Snapshot on every state change.
//   - AudioPort: fire-and-forget cues (flip, match, win).
//   - Clock:     schedules delayed tasks (preview hide, comparison, ticks).

package game

import (
	"context"
	"time"
)

// Cue names an audio event.
type Cue string

const (
	CueFlip  Cue = "flip"
	CueMatch Cue = "match"
	CueWin   Cue = "win"
)

// Renderer observes state changes.
// Render is called with the engine lock held, so it must not block or call back into the engine.
type Renderer interface {
	Render(Snapshot)
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(Snapshot)

func (f RenderFunc) Render(s Snapshot) { f(s) }

// Renderers fans a snapshot out to every non-nil renderer, in order.
func Renderers(rs ...Renderer) Renderer {
	out := make(multiRenderer, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

type multiRenderer []Renderer

func (m multiRenderer) Render(s Snapshot) {
	for _, r := range m {
		r.Render(s)
	}
}

// AudioPort plays cues. Failures are logged by the engine and never affect state.
type AudioPort interface {
	Play(ctx context.Context, c Cue) error
}

// AudioFunc adapts a function to AudioPort.
type AudioFunc func(ctx context.Context, c Cue) error

func (f AudioFunc) Play(ctx context.Context, c Cue) error { return f(ctx, c) }

// Timer is a cancellable scheduled task.
type Timer interface {
	Stop() bool
}

// Clock schedules f to run once after d.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock schedules with time.AfterFunc.
type SystemClock struct{}

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Timing holds the fixed delays of a session.
type Timing struct {
	Dwell   time.Duration // Preview length before tiles hide.
	Compare time.Duration // Delay before two flipped tiles are compared.
	Tick    time.Duration // Elapsed-time resolution.
}

// DefaultTiming is a 3s preview, a 1s compare delay and 1s ticks.
func DefaultTiming() Timing {
	return Timing{Dwell: 3 * time.Second, Compare: time.Second, Tick: time.Second}
}

func (t Timing) withDefaults() Timing {
	d := DefaultTiming()
	if t.Dwell <= 0 {
		t.Dwell = d.Dwell
	}
	if t.Compare <= 0 {
		t.Compare = d.Compare
	}
	if t.Tick <= 0 {
		t.Tick = d.Tick
	}
	return t
}
