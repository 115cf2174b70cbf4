// internal/symbols/symbols.go
//
// Provides the alphabet the board generator deals from.
//
// Responsibilities:
//   - Load the alphabet from a configured file or fall back to the embedded default.
//   - Normalize lines (trim, skip blanks and # comments).
//   - Reject alphabets the engine could not deal (empty, repeated symbols).
//
// File format:
//   One symbol per line. Any non-blank string works; emoji are the default.
//
//     # fruit
//     🍎
//     🍌
//
// Environment variable (read by internal/config):
//   SYMBOLS_FILE=/path/to/symbols.txt

package symbols

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/memory/apps/go-server/assets"
	"github.com/robalobadob/memory/apps/go-server/internal/game"
)

// ErrNoSymbols is returned when a source yields no usable lines.
var ErrNoSymbols = errors.New("symbols: no symbols found")

var (
	defaultOnce sync.Once
	defaultList []string
	defaultErr  error
)

// Default returns the embedded alphabet, loading it once.
func Default() ([]string, error) {
	defaultOnce.Do(func() {
		list, err := assets.SymbolList()
		if err != nil {
			defaultErr = fmt.Errorf("read embedded symbols: %w", err)
			return
		}
		defaultList, defaultErr = validate(list)
	})
	return append([]string(nil), defaultList...), defaultErr
}

// Load reads the alphabet from path, or returns Default when path is empty.
func Load(path string) ([]string, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	list, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}

// Parse reads one symbol per line and validates the result.
func Parse(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return validate(out)
}

func validate(list []string) ([]string, error) {
	if len(list) == 0 {
		return nil, ErrNoSymbols
	}
	if err := game.ValidateAlphabet(list); err != nil {
		return nil, err
	}
	return list, nil
}
