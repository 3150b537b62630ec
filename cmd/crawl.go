package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"dogfriendly-scraper/metrics"
	"dogfriendly-scraper/models"
	"dogfriendly-scraper/scraper/bringfido"
	"dogfriendly-scraper/services"
	"dogfriendly-scraper/storage"
)

func init() {
	RootCmd.AddCommand(&CrawlCommand)
}

var CrawlCommand = cobra.Command{
	Use:   "crawl",
	Short: "Crawl every configured BringFido category",
	Long:  "Crawl listing and detail pages with headless Chrome, checkpointing progress, then format and merge the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		logger.Info("=== BringFido crawl starting ===")
		logger.Info("Config: %d categories | concurrency: %d | checkpoint every %d venues",
			len(cfg.Categories), cfg.MaxConcurrency, cfg.CheckpointEvery)

		monitor := metrics.New()
		s := bringfido.New(cfg, logger,
			bringfido.WithMonitor(monitor),
			bringfido.WithProgress(func(p models.Progress) {
				if p.Progress != "" {
					logger.Debug("[progress] %s: %s", p.Stage, p.Progress)
				}
			}),
		)

		result, err := s.Scrape(ctx)
		logger.Info("Crawl metrics: %.0f listing pages | %.0f venues scraped | %.0f failed | %.0f checkpoints",
			monitor.Total("scraper_listing_pages_total"),
			monitor.Total("scraper_venues_scraped_total"),
			monitor.Total("scraper_venues_failed_total"),
			monitor.Total("scraper_checkpoints_written_total"))
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Warn("Crawl interrupted; publish the emergency checkpoint with `format --checkpoint`")
			}
			return err
		}

		report := services.NewReportService(cfg, logger)
		defer report.Print(report.Generate(result.Venues, result.FailedURLs))

		if len(result.Venues) == 0 {
			logger.Warn("No venues were scraped!")
			return nil
		}

		rawPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("bringfido_venues_%s.csv", time.Now().Format("20060102_150405")))
		if err := writeRawVenues(rawPath, result.Venues); err != nil {
			logger.Error("Raw venue CSV write failed: %v", err)
		} else {
			logger.Info("Raw venues saved to %s", rawPath)
		}

		publisher, closeSinks := newPublisher(ctx)
		defer closeSinks()

		res, err := publisher.Publish(ctx, result.Venues, cfg.CrawlStartID,
			"bringfido_PRODUCTION_COMPLETE", "MEGA_COMBINED_DATASET")
		if err != nil {
			return err
		}
		logger.Info("Production dataset saved: %s (%d venues)", res.OutputPath, res.Rows)
		return nil
	},
}

func writeRawVenues(path string, venues []*models.Venue) error {
	w, err := storage.NewCSVWriter(path)
	if err != nil {
		return err
	}
	if err := w.WriteVenues(venues); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
