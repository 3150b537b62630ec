package storage

import (
	"context"

	"dogfriendly-scraper/models"
)

// VenueWriter is the interface any raw venue sink must satisfy.
type VenueWriter interface {
	WriteVenues(venues []*models.Venue) error
	Close() error
}

// DatasetWriter writes formatted rows under a header to a file.
type DatasetWriter interface {
	WriteDataset(path string, header []string, rows []models.Row) error
	Extension() string
}

// Uploader publishes a local file under a key.
type Uploader interface {
	UploadFile(ctx context.Context, path, key string) (string, error)
}
