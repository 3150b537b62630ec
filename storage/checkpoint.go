package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dogfriendly-scraper/models"
)

// CheckpointStore dumps in-progress venue lists to timestamped JSON files so
// a failed crawl does not lose its work.
type CheckpointStore struct {
	dir    string
	prefix string
	now    func() time.Time
}

// NewCheckpointStore creates a store writing into dir.
func NewCheckpointStore(dir string) *CheckpointStore {
	return &CheckpointStore{dir: dir, prefix: "bringfido_progress", now: time.Now}
}

// Save writes venues to <dir>/<prefix>_<suffix>_<timestamp>.json and returns
// the path. An empty list writes nothing and returns "".
func (s *CheckpointStore) Save(venues []*models.Venue, suffix string) (string, error) {
	if len(venues) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("checkpoint: create dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.json", s.prefix, suffix, s.now().Format("20060102_150405"))
	path := filepath.Join(s.dir, name)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(venues); err != nil {
		return "", fmt.Errorf("checkpoint: encode: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("checkpoint: write %q: %w", path, err)
	}
	return path, nil
}

// LoadCheckpoint reads a checkpoint file back into venues.
func LoadCheckpoint(path string) ([]*models.Venue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read %q: %w", path, err)
	}

	var venues []*models.Venue
	if err := json.Unmarshal(data, &venues); err != nil {
		return nil, fmt.Errorf("checkpoint: decode %q: %w", path, err)
	}
	return venues, nil
}
