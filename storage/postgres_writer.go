package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"dogfriendly-scraper/models"
)

const venueColumnCount = 13

// PostgresWriter persists scraped venues to PostgreSQL, keyed by source URL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS venues (
			id           SERIAL PRIMARY KEY,
			url          TEXT        UNIQUE NOT NULL,
			venue_id     TEXT        NOT NULL DEFAULT '',
			category     VARCHAR(50) NOT NULL DEFAULT '',
			name         TEXT        NOT NULL DEFAULT '',
			address      TEXT        NOT NULL DEFAULT '',
			phone        TEXT        NOT NULL DEFAULT '',
			email        TEXT        NOT NULL DEFAULT '',
			website      TEXT        NOT NULL DEFAULT '',
			description  TEXT        NOT NULL DEFAULT '',
			latitude     TEXT        NOT NULL DEFAULT '',
			longitude    TEXT        NOT NULL DEFAULT '',
			rating       TEXT        NOT NULL DEFAULT '',
			scraped_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_venues_category ON venues(category);
	`)
	return err
}

// WriteVenues upserts venues in batches. Venues without a URL are skipped.
func (pw *PostgresWriter) WriteVenues(venues []*models.Venue) error {
	valid := make([]*models.Venue, 0, len(venues))
	for _, v := range venues {
		if v != nil && strings.TrimSpace(v.URL) != "" {
			valid = append(valid, v)
		}
	}

	const batchSize = 50
	for i := 0; i < len(valid); i += batchSize {
		end := i + batchSize
		if end > len(valid) {
			end = len(valid)
		}
		if err := pw.upsertBatch(valid[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) upsertBatch(batch []*models.Venue) error {
	// The same URL twice in one INSERT ... ON CONFLICT statement is an error.
	seen := make(map[string]struct{}, len(batch))
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*venueColumnCount)

	for _, v := range batch {
		if _, dup := seen[v.URL]; dup {
			continue
		}
		seen[v.URL] = struct{}{}

		base := len(valueStrings) * venueColumnCount
		placeholders := make([]string, venueColumnCount)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		scrapedAt := v.ScrapedAt
		if scrapedAt.IsZero() {
			scrapedAt = time.Now()
		}
		valueArgs = append(valueArgs,
			v.URL, v.VenueID, v.Category, v.Name, v.Address, v.Phone, v.Email,
			v.Website, v.Description, v.Latitude, v.Longitude, v.Rating, scrapedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO venues (url, venue_id, category, name, address, phone, email,
			website, description, latitude, longitude, rating, scraped_at)
		VALUES %s
		ON CONFLICT (url) DO UPDATE SET
			venue_id = EXCLUDED.venue_id,
			category = EXCLUDED.category,
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			website = EXCLUDED.website,
			description = EXCLUDED.description,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			rating = EXCLUDED.rating,
			scraped_at = EXCLUDED.scraped_at
	`, strings.Join(valueStrings, ","))

	if _, err := pw.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: upsert venues: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves stored venues in insertion order, optionally limited to
// one category.
func (pw *PostgresWriter) FetchAll(category string) ([]*models.Venue, error) {
	query := `
		SELECT url, venue_id, category, name, address, phone, email, website,
			description, latitude, longitude, rating, scraped_at
		FROM venues`
	var args []interface{}
	if category != "" {
		query += " WHERE category = $1"
		args = append(args, category)
	}
	query += " ORDER BY id"

	rows, err := pw.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var venues []*models.Venue
	for rows.Next() {
		v := &models.Venue{}
		if err := rows.Scan(
			&v.URL, &v.VenueID, &v.Category, &v.Name, &v.Address, &v.Phone, &v.Email,
			&v.Website, &v.Description, &v.Latitude, &v.Longitude, &v.Rating, &v.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}
