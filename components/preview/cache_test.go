package preview

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barSpec(values ...float64) ChartSpec {
	points := make([]ChartPoint, 0, len(values))
	for i, v := range values {
		points = append(points, ChartPoint{Label: string(rune('a' + i)), Value: v})
	}
	return ChartSpec{Type: "bar", Labels: []string{"a", "b"}, Series: []ChartSeries{{Name: "s", Points: points}}}
}

func countingRender(calls *int, html string) func() (string, error) {
	return func() (string, error) {
		*calls++
		return html, nil
	}
}

func TestChartCacheStoresEntry(t *testing.T) {
	cache := NewChartCache(time.Minute)
	calls := 0
	key := KeyFor(barSpec(1, 2), DefaultTheme)

	val1, err := cache.GetOrRender(key, countingRender(&calls, "html"))
	require.NoError(t, err)
	val2, err := cache.GetOrRender(KeyFor(barSpec(1, 2), DefaultTheme), countingRender(&calls, "html"))
	require.NoError(t, err)

	assert.Equal(t, "html", val1)
	assert.Equal(t, val1, val2)
	assert.Equal(t, 1, calls)
}

func TestChartCacheKeysByThemeAndGrammar(t *testing.T) {
	cache := NewChartCache(time.Minute)
	calls := 0
	_, err := cache.GetOrRender(KeyFor(barSpec(1, 2), "westeros"), countingRender(&calls, "a"))
	require.NoError(t, err)
	_, err = cache.GetOrRender(KeyFor(barSpec(1, 2), "dark"), countingRender(&calls, "b"))
	require.NoError(t, err)
	_, err = cache.GetOrRender(KeyFor(barSpec(1, 3), "westeros"), countingRender(&calls, "c"))
	require.NoError(t, err)

	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, cache.Len())
	assert.Equal(t, "bar:dark:"+KeyFor(barSpec(1, 2), "dark").Hash, KeyFor(barSpec(1, 2), "dark").String())
}

func TestChartCacheExpiresAndSweeps(t *testing.T) {
	cache := NewChartCache(time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }
	calls := 0

	_, err := cache.GetOrRender(KeyFor(barSpec(1), DefaultTheme), countingRender(&calls, "old"))
	require.NoError(t, err)
	_, err = cache.GetOrRender(KeyFor(barSpec(2), DefaultTheme), countingRender(&calls, "old"))
	require.NoError(t, err)
	require.Equal(t, 2, cache.Len())

	now = now.Add(2 * time.Minute)
	html, err := cache.GetOrRender(KeyFor(barSpec(1), DefaultTheme), countingRender(&calls, "fresh"))
	require.NoError(t, err)
	assert.Equal(t, "fresh", html)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, cache.Len(), "expired charts are swept on store")
}

func TestChartCacheSkipsFailedRenders(t *testing.T) {
	cache := NewChartCache(time.Minute)
	_, err := cache.GetOrRender(KeyFor(barSpec(1), DefaultTheme), func() (string, error) { return "", errors.New("boom") })
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestChartCacheBypassesUnencodableSpecs(t *testing.T) {
	cache := NewChartCache(time.Minute)
	key := KeyFor(barSpec(math.NaN()), DefaultTheme)
	assert.Empty(t, key.Hash)

	calls := 0
	for i := 0; i < 2; i++ {
		_, err := cache.GetOrRender(key, countingRender(&calls, "chart"))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, cache.Len())
}
