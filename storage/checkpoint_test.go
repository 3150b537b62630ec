package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dogfriendly-scraper/models"
)

func TestCheckpointStore_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoints")
	store := NewCheckpointStore(dir)
	store.now = func() time.Time { return time.Date(2025, 8, 25, 8, 52, 7, 0, time.UTC) }

	venues := []*models.Venue{
		{Name: "Fish & Chips <Bar>", URL: "https://x/restaurant/1", Category: "restaurants"},
		{Name: "Hotel", URL: "https://x/lodging/2", Category: "hotels"},
	}

	path, err := store.Save(venues, "restaurants_progress_25")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bringfido_progress_restaurants_progress_25_20250825_085207.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Fish & Chips <Bar>")
	assert.True(t, strings.HasPrefix(string(data), "[\n  {"))

	loaded, err := LoadCheckpoint(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, venues[0].Name, loaded[0].Name)
	assert.Equal(t, venues[1].URL, loaded[1].URL)
}

func TestCheckpointStore_SaveEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoints")
	store := NewCheckpointStore(dir)

	path, err := store.Save(nil, "after_hotels")
	require.NoError(t, err)
	assert.Empty(t, path)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadCheckpoint_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadCheckpoint(path)
	assert.Error(t, err)
}
