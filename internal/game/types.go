// internal/game/types.go
//
// Core type definitions for the memory-match engine.
// Defines:
//   - Tile / Board: the paired symbols laid out for one session.
//   - Phase: the stage of the session state machine.
//   - State: the single explicit session value transitioned by Reduce.
//   - Snapshot / TileView: the read-only view handed to the render port.

package game

import "slices"

// Phase is the current stage of a session.
//   - "preview":    all tiles face-up, input rejected.
//   - "playing":    input accepted.
//   - "evaluating": two tiles flipped, comparison pending, input rejected.
//   - "won":        every tile matched (terminal).
type Phase string

const (
	PhasePreview    Phase = "preview"
	PhasePlaying    Phase = "playing"
	PhaseEvaluating Phase = "evaluating"
	PhaseWon        Phase = "won"
)

// Tile is a single card on the board.
type Tile struct {
	ID      int    `json:"id"`      // Unique within the board (0..2N-1).
	Symbol  string `json:"symbol"`  // Value drawn from the alphabet.
	Matched bool   `json:"matched"` // Set once the pair was found; never cleared.
}

// Board is the ordered tile layout. Its order never changes after generation.
type Board []Tile

// Index returns the position of the tile with the given id, or -1.
func (b Board) Index(id int) int {
	for i := range b {
		if b[i].ID == id {
			return i
		}
	}
	return -1
}

// AllMatched reports whether every tile on the board is matched.
func (b Board) AllMatched() bool {
	for _, t := range b {
		if !t.Matched {
			return false
		}
	}
	return len(b) > 0
}

// Clone returns an independent copy of the board.
func (b Board) Clone() Board { return slices.Clone(b) }

// State holds the authoritative state of one session.
type State struct {
	Generation uint64 // Bumped on every (re)start; tags scheduled tasks.
	Board      Board  // Current board.
	Flipped    []int  // Face-up, unmatched tile ids in click order.
	Phase      Phase  // Current phase.
	Moves      int    // Completed two-tile comparisons since the last restart.
	Elapsed    int    // Seconds elapsed since the last restart.
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	s.Board = s.Board.Clone()
	s.Flipped = slices.Clone(s.Flipped)
	return s
}

// isFlipped reports whether id is currently in the flipped set.
func (s State) isFlipped(id int) bool { return slices.Contains(s.Flipped, id) }

// TileView is the render-port projection of a tile.
// Symbol is left empty while the tile is face-down so hidden values never leave the engine.
type TileView struct {
	ID      int    `json:"id"`
	Symbol  string `json:"symbol,omitempty"`
	Visible bool   `json:"visible"`
	Matched bool   `json:"matched"`
}

// Snapshot is what the render port receives on every state change.
type Snapshot struct {
	GameID     string     `json:"gameId"`
	Generation uint64     `json:"generation"`
	Tiles      []TileView `json:"tiles"`
	Moves      int        `json:"moves"`
	Elapsed    int        `json:"elapsedSeconds"`
	Phase      Phase      `json:"phase"`
}

// View projects a state into a snapshot for the given game id.
// A tile is visible iff it is in the flipped set or matched.
func View(gameID string, s State) Snapshot {
	tiles := make([]TileView, len(s.Board))
	for i, t := range s.Board {
		visible := t.Matched || s.isFlipped(t.ID)
		tv := TileView{ID: t.ID, Visible: visible, Matched: t.Matched}
		if visible {
			tv.Symbol = t.Symbol
		}
		tiles[i] = tv
	}
	return Snapshot{
		GameID:     gameID,
		Generation: s.Generation,
		Tiles:      tiles,
		Moves:      s.Moves,
		Elapsed:    s.Elapsed,
		Phase:      s.Phase,
	}
}

// Visible counts the face-up tiles in the snapshot.
func (s Snapshot) Visible() int {
	n := 0
	for _, t := range s.Tiles {
		if t.Visible {
			n++
		}
	}
	return n
}
