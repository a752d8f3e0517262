package tmdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetSet(t *testing.T) {
	c := newCache(time.Hour)

	// Miss
	_, ok := c.get("tt0133093")
	assert.False(t, ok, "empty cache should miss")

	// Set and hit
	ts := time.Date(1999, 9, 21, 0, 0, 0, 0, time.UTC)
	c.set("tt0133093", &ReleaseDates{Digital: &ts})

	got, ok := c.get("tt0133093")
	require.True(t, ok, "should hit after set")
	assert.Equal(t, ts, *got.Digital)

	// Different ID should miss
	_, ok = c.get("tt0234215")
	assert.False(t, ok, "different ID should miss")

	// Empty results cache too, so misses are not re-fetched
	c.set("tt0234215", &ReleaseDates{})

	got2, ok := c.get("tt0234215")
	require.True(t, ok, "should hit cached empty result")
	assert.True(t, got2.Empty())

	// First entry should still be there
	_, ok = c.get("tt0133093")
	require.True(t, ok, "first entry should still exist")
}

func TestCache_Expiry(t *testing.T) {
	c := newCache(10 * time.Millisecond)

	c.set("tt0133093", &ReleaseDates{})

	// Should hit immediately
	_, ok := c.get("tt0133093")
	require.True(t, ok)

	// Wait for expiry
	time.Sleep(20 * time.Millisecond)

	// Should miss after expiry
	_, ok = c.get("tt0133093")
	assert.False(t, ok, "should miss after TTL")
}
