// internal/game/board.go
//
// Board generation.
// Responsibilities:
//   - Validate the alphabet (non-empty, no blank or repeated symbols).
//   - Lay out exactly two tiles per symbol, numbered by dealt position.
//   - Shuffle with Fisher–Yates so every permutation is equally likely.
//
// Randomness is injected so daily boards and tests are reproducible.

package game

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

var (
	ErrEmptyAlphabet   = errors.New("game: alphabet is empty")
	ErrBlankSymbol     = errors.New("game: alphabet contains a blank symbol")
	ErrDuplicateSymbol = errors.New("game: alphabet contains a repeated symbol")
)

// ValidateAlphabet checks that alphabet can produce a well-formed board.
func ValidateAlphabet(alphabet []string) error {
	if len(alphabet) == 0 {
		return ErrEmptyAlphabet
	}
	seen := make(map[string]struct{}, len(alphabet))
	for i, s := range alphabet {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("symbol %d: %w", i, ErrBlankSymbol)
		}
		if _, ok := seen[s]; ok {
			return fmt.Errorf("symbol %q: %w", s, ErrDuplicateSymbol)
		}
		seen[s] = struct{}{}
	}
	return nil
}

// Generate builds a shuffled board holding every symbol of alphabet exactly twice.
func Generate(alphabet []string, rng *rand.Rand) (Board, error) {
	if err := ValidateAlphabet(alphabet); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = NewRand()
	}

	board := make(Board, 0, 2*len(alphabet))
	for _, s := range alphabet {
		board = append(board, Tile{Symbol: s}, Tile{Symbol: s})
	}

	// Fisher–Yates: swap each position with a uniformly chosen one at or before it.
	for i := len(board) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		board[i], board[j] = board[j], board[i]
	}

	// IDs follow the dealt position, so they say nothing about which tiles pair up.
	for i := range board {
		board[i].ID = i
	}
	return board, nil
}

// NewRand returns a ChaCha8-backed source seeded from crypto/rand.
func NewRand() *rand.Rand {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return NewSeededRand(seed)
}

// NewSeededRand returns a deterministic source for the given seed.
func NewSeededRand(seed [32]byte) *rand.Rand {
	return rand.New(rand.NewChaCha8(seed))
}
