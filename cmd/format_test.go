package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dogfriendly-scraper/models"
	"dogfriendly-scraper/storage"
)

func TestFormatCommand_FromCheckpoint(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OUTPUT_DIR", filepath.Join(dir, "output"))
	t.Setenv("EXISTING_CSV_PATH", filepath.Join(dir, "missing.csv"))
	t.Setenv("LOG_LEVEL", "error")

	store := storage.NewCheckpointStore(filepath.Join(dir, "checkpoints"))
	cp, err := store.Save([]*models.Venue{
		{Name: "Dishoom", Address: "12 Upper St, London N1 0PQ", Category: "restaurants", URL: "https://x/restaurant/1"},
	}, "emergency_backup")
	require.NoError(t, err)

	RootCmd.SetArgs([]string{"format", "--env-file", filepath.Join(dir, "none.env"), "--checkpoint", cp, "--start-id", "9000", "--output", "recovered"})
	require.NoError(t, RootCmd.Execute())

	matches, err := filepath.Glob(filepath.Join(dir, "output", "recovered_*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	_, rows, err := storage.ReadDataset(matches[0])
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "9000", rows[0]["ID"])
	assert.Equal(t, "N1 0PQ", rows[0]["zip"])
}

func TestFormatCommand_RequiresOneSource(t *testing.T) {
	checkpointPath, fromDB = "", false
	RootCmd.SetArgs([]string{"format", "--env-file", filepath.Join(t.TempDir(), "none.env")})
	assert.Error(t, RootCmd.Execute())
}
