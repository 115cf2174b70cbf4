package daily

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/memory/apps/go-server/internal/game"
)

func TestDateKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	local := time.Date(2026, 3, 2, 8, 0, 0, 0, loc) // still March 1st in UTC
	assert.Equal(t, "2026-03-01", DateKey(local))
}

func TestSeed(t *testing.T) {
	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	later := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	next := day.Add(24 * time.Hour)

	assert.Equal(t, Seed(day, "salt"), Seed(later, "salt"))
	assert.NotEqual(t, Seed(day, "salt"), Seed(next, "salt"))
	assert.NotEqual(t, Seed(day, "salt"), Seed(day, "pepper"))

	alphabet := []string{"A", "B", "C", "D"}
	a, err := game.Generate(alphabet, game.NewSeededRand(Seed(day, "salt")))
	require.NoError(t, err)
	b, err := game.Generate(alphabet, game.NewSeededRand(Seed(later, "salt")))
	require.NoError(t, err)
	assert.Equal(t, a, b, "same day deals the same board")
}

func TestParseDateKey(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	got, err := ParseDateKey("", now)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", got)

	got, err = ParseDateKey("2025-12-31", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-12-31", got)

	_, err = ParseDateKey("yesterday", now)
	assert.Error(t, err)
}
