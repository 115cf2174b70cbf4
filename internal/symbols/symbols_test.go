package symbols

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/memory/apps/go-server/internal/game"
)

func TestDefault(t *testing.T) {
	list, err := Default()
	require.NoError(t, err)
	assert.Equal(t, []string{"🍕", "🎮", "🐶", "🚀", "🌈", "🎵", "🧠", "🏀"}, list)

	// Callers get their own copy.
	list[0] = "x"
	again, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "🍕", again[0])
}

func TestParse(t *testing.T) {
	in := "# animals\n\n  🐱 \n🐶\n#🐭\n🦊\n"
	list, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"🐱", "🐶", "🦊"}, list)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(strings.NewReader("# nothing here\n\n"))
	assert.ErrorIs(t, err, ErrNoSymbols)

	_, err = Parse(strings.NewReader("A\nB\nA\n"))
	assert.ErrorIs(t, err, game.ErrDuplicateSymbol)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.txt")
	require.NoError(t, os.WriteFile(path, []byte("red\ngreen\nblue\n"), 0o644))

	list, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"red", "green", "blue"}, list)

	fallback, err := Load("")
	require.NoError(t, err)
	assert.Len(t, fallback, 8)

	_, err = Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
