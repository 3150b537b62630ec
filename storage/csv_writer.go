package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"dogfriendly-scraper/models"
)

// VenueColumns is the header of the plain venue export.
var VenueColumns = []string{
	"Name", "Description", "Category", "Address", "Phone", "Email",
	"Website", "Latitude", "Longitude", "Venue ID", "Source URL",
}

// CSVWriter writes raw (unformatted) venues to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write(VenueColumns); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteVenues appends venues to the CSV file.
func (c *CSVWriter) WriteVenues(venues []*models.Venue) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, v := range venues {
		row := []string{
			v.Name,
			v.Description,
			v.Category,
			v.Address,
			v.Phone,
			v.Email,
			v.Website,
			v.Latitude,
			v.Longitude,
			v.VenueID,
			v.URL,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

// CSVDataset writes formatted rows as CSV.
type CSVDataset struct{}

func (CSVDataset) Extension() string { return ".csv" }

// WriteDataset writes header and rows to path. Columns missing from a row
// are written empty; row keys outside the header are ignored.
func (CSVDataset) WriteDataset(path string, header []string, rows []models.Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row.Values(header)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	return f.Close()
}

// ReadHeader returns the header row of the CSV file at path.
func ReadHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.LazyQuotes = true
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("csv: read header of %q: %w", path, err)
	}
	return trimBOM(header), nil
}

// ReadDataset reads a CSV file into rows keyed by its header.
func ReadDataset(path string) ([]string, []models.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("csv: read header of %q: %w", path, err)
	}
	header = trimBOM(header)

	var rows []models.Row
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("csv: read %q: %w", path, err)
		}

		row := make(models.Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// ExtraColumns lists row keys that are not part of header, sorted.
func ExtraColumns(header []string, rows []models.Row) []string {
	known := make(map[string]struct{}, len(header))
	for _, col := range header {
		known[col] = struct{}{}
	}

	extra := make(map[string]struct{})
	for _, row := range rows {
		for col := range row {
			if _, ok := known[col]; !ok {
				extra[col] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(extra))
	for col := range extra {
		out = append(out, col)
	}
	sort.Strings(out)
	return out
}

// trimBOM drops a UTF-8 byte order mark from the first header cell, as
// written by spreadsheet exports.
func trimBOM(header []string) []string {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return header
}
