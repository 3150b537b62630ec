package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"dogfriendly-scraper/config"
	"dogfriendly-scraper/models"
	"dogfriendly-scraper/storage"
	"dogfriendly-scraper/utils"
)

const fileStampLayout = "20060102_150405"

// Publisher formats venues and writes them next to the existing dataset.
type Publisher struct {
	cfg       *config.Config
	logger    *utils.Logger
	formatter *Formatter
	dataset   storage.DatasetWriter
	extras    []storage.DatasetWriter
	store     storage.VenueWriter
	uploader  storage.Uploader
	now       func() time.Time
}

// PublisherOption configures optional sinks.
type PublisherOption func(*Publisher)

// WithExtraFormat also writes the final dataset through w (e.g. XLSX).
func WithExtraFormat(w storage.DatasetWriter) PublisherOption {
	return func(p *Publisher) { p.extras = append(p.extras, w) }
}

// WithVenueStore stores the raw venues in w.
func WithVenueStore(w storage.VenueWriter) PublisherOption {
	return func(p *Publisher) { p.store = w }
}

// WithUploader uploads every written file through u.
func WithUploader(u storage.Uploader) PublisherOption {
	return func(p *Publisher) { p.uploader = u }
}

// NewPublisher creates a Publisher writing CSV output plus any optional sinks.
func NewPublisher(cfg *config.Config, logger *utils.Logger, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		cfg:       cfg,
		logger:    logger,
		formatter: NewFormatter(cfg, logger),
		dataset:   storage.CSVDataset{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish formats venues with IDs from startID and writes
// <OutputDir>/<outputName>_<ts>.csv. When the existing dataset is readable
// it also writes <combinedName>_<ts>.csv holding the existing rows followed
// by the new ones. Only a failure to write the primary file is returned;
// everything else is logged.
func (p *Publisher) Publish(ctx context.Context, venues []*models.Venue, startID int, outputName, combinedName string) (*models.PublishResult, error) {
	rows := p.formatter.Format(venues, startID)
	header := p.resolveHeader()

	if extra := storage.ExtraColumns(header, rows); len(extra) > 0 {
		p.logger.Warn("[publisher] Dropping %d columns not in header: %s", len(extra), strings.Join(extra, ", "))
	}

	stamp := p.now().Format(fileStampLayout)
	result := &models.PublishResult{Rows: len(rows)}

	result.OutputPath = filepath.Join(p.cfg.OutputDir, fmt.Sprintf("%s_%s%s", outputName, stamp, p.dataset.Extension()))
	if err := p.dataset.WriteDataset(result.OutputPath, header, rows); err != nil {
		return nil, fmt.Errorf("publisher: write output: %w", err)
	}
	p.logger.Info("[publisher] Wrote %d rows to %s", len(rows), result.OutputPath)

	finalHeader, finalRows, finalBase := header, rows, strings.TrimSuffix(result.OutputPath, p.dataset.Extension())

	if combinedName != "" {
		existingHeader, existingRows, err := storage.ReadDataset(p.cfg.ExistingCSVPath)
		if err != nil {
			p.logger.Error("[publisher] Could not read existing dataset, skipping combined file: %v", err)
		} else {
			combined := make([]models.Row, 0, len(existingRows)+len(rows))
			combined = append(combined, existingRows...)
			combined = append(combined, rows...)

			path := filepath.Join(p.cfg.OutputDir, fmt.Sprintf("%s_%s%s", combinedName, stamp, p.dataset.Extension()))
			if err := p.dataset.WriteDataset(path, existingHeader, combined); err != nil {
				p.logger.Error("[publisher] Combined dataset write failed: %v", err)
			} else {
				result.CombinedPath = path
				result.ExistingRows = len(existingRows)
				result.CombinedRows = len(combined)
				finalHeader, finalRows = existingHeader, combined
				finalBase = strings.TrimSuffix(path, p.dataset.Extension())
				p.logger.Info("[publisher] Existing: %d | New: %d | Total: %d -> %s",
					len(existingRows), len(rows), len(combined), path)
			}
		}
	}

	for _, w := range p.extras {
		path := finalBase + w.Extension()
		if err := w.WriteDataset(path, finalHeader, finalRows); err != nil {
			p.logger.Error("[publisher] %s export failed: %v", w.Extension(), err)
			continue
		}
		result.ExtraPaths = append(result.ExtraPaths, path)
		p.logger.Info("[publisher] Wrote %s", path)
	}

	if p.store != nil {
		if err := p.store.WriteVenues(venues); err != nil {
			p.logger.Error("[publisher] Venue store write failed: %v", err)
		} else {
			result.StoredVenues = countStorable(venues)
			p.logger.Info("[publisher] Stored %d venues", result.StoredVenues)
		}
	}

	if p.uploader != nil {
		p.upload(ctx, result)
	}

	return result, nil
}

func (p *Publisher) resolveHeader() []string {
	header, err := storage.ReadHeader(p.cfg.ExistingCSVPath)
	if err != nil || len(header) == 0 {
		p.logger.Warn("[publisher] Existing dataset header unavailable, using default columns: %v", err)
		return Columns
	}
	return header
}

func (p *Publisher) upload(ctx context.Context, result *models.PublishResult) {
	paths := []string{result.OutputPath}
	if result.CombinedPath != "" {
		paths = append(paths, result.CombinedPath)
	}
	paths = append(paths, result.ExtraPaths...)

	for _, path := range paths {
		if ctx.Err() != nil {
			p.logger.Warn("[publisher] Upload cancelled: %v", ctx.Err())
			return
		}
		url, err := p.uploader.UploadFile(ctx, path, filepath.Base(path))
		if err != nil {
			p.logger.Error("[publisher] Upload failed for %s: %v", path, err)
			continue
		}
		result.UploadedKeys = append(result.UploadedKeys, url)
		p.logger.Info("[publisher] Uploaded %s -> %s", path, url)
	}
}

func countStorable(venues []*models.Venue) int {
	n := 0
	for _, v := range venues {
		if v != nil && strings.TrimSpace(v.URL) != "" {
			n++
		}
	}
	return n
}
