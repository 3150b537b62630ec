package bringfido

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hako/durafmt"

	"dogfriendly-scraper/config"
	"dogfriendly-scraper/metrics"
	"dogfriendly-scraper/models"
	"dogfriendly-scraper/storage"
	"dogfriendly-scraper/utils"
)

// ProgressFunc receives crawl progress events.
type ProgressFunc func(models.Progress)

// Option customises a Scraper.
type Option func(*Scraper)

// WithFetcher replaces the headless Chrome fetcher.
func WithFetcher(f PageFetcher) Option {
	return func(s *Scraper) { s.fetcher = f }
}

// WithMonitor records crawl metrics into m.
func WithMonitor(m *metrics.Monitor) Option {
	return func(s *Scraper) { s.monitor = m }
}

// WithProgress sends progress events to fn.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Scraper) { s.progress = fn }
}

// WithCheckpoints overrides the checkpoint store built from the config.
func WithCheckpoints(store *storage.CheckpointStore) Option {
	return func(s *Scraper) { s.checkpoints = store }
}

// Scraper crawls the configured BringFido categories.
type Scraper struct {
	cfg         *config.Config
	logger      *utils.Logger
	fetcher     PageFetcher
	monitor     *metrics.Monitor
	progress    ProgressFunc
	checkpoints *storage.CheckpointStore
	locale      Locale

	mu      sync.Mutex
	venues  []*models.Venue
	failed  []string
	visited *utils.URLSet
}

// New creates a ready-to-use BringFido Scraper.
func New(cfg *config.Config, logger *utils.Logger, opts ...Option) *Scraper {
	s := &Scraper{
		cfg:         cfg,
		logger:      logger,
		checkpoints: storage.NewCheckpointStore(cfg.CheckpointDir),
		locale:      LocaleFromConfig(cfg),
		visited:     utils.NewURLSet(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape crawls every configured category in order. When ctx is cancelled
// the venues collected so far are written to an emergency checkpoint and
// returned together with ctx's error.
func (s *Scraper) Scrape(ctx context.Context) (*models.ScrapeResult, error) {
	s.emit(models.Progress{IsRunning: boolPtr(true), Stage: "Initializing", Progress: "Starting scraper..."})

	if s.fetcher == nil {
		chrome, err := NewChromeFetcher(ctx, s.cfg, s.logger)
		if err != nil {
			return nil, err
		}
		defer chrome.Close()
		s.fetcher = chrome
	}

	result := &models.ScrapeResult{}

	for i, cat := range s.cfg.Categories {
		if ctx.Err() != nil {
			break
		}

		s.logger.Info("[bringfido] Processing category %s (expected: %d)", cat.Name, cat.ExpectedCount)
		start := time.Now()

		links := s.collectLinks(ctx, cat)
		scraped := s.scrapeCategory(ctx, cat, links)

		elapsed := time.Since(start)
		s.logger.Info("[bringfido] %s completed in %s: %d/%d venues collected",
			cat.Name, durafmt.Parse(elapsed).LimitFirstN(2), scraped, len(links))
		if s.monitor != nil {
			s.monitor.CategoryDuration.WithLabelValues(cat.Name).Set(elapsed.Seconds())
		}

		result.Categories = append(result.Categories, models.CategoryResult{
			Name:     cat.Name,
			Found:    len(links),
			Scraped:  scraped,
			Expected: cat.ExpectedCount,
			Duration: elapsed,
		})

		all := s.snapshot()
		s.checkpoint(all, "after_"+cat.Name)
		s.logger.Info("[bringfido] Total venues collected so far: %d", len(all))
		s.emit(models.Progress{
			Stage:    "Finished " + cat.Name,
			Progress: fmt.Sprintf("Completed %s: %d venues processed", cat.Name, len(links)),
		})

		if i < len(s.cfg.Categories)-1 {
			pause := utils.RandomDuration(s.cfg.CategoryBreak.Min, s.cfg.CategoryBreak.Max)
			s.logger.Info("[bringfido] Taking a %s break between categories", durafmt.Parse(pause).LimitFirstN(1))
			sleepCtx(ctx, pause)
		}
	}

	s.mu.Lock()
	result.Venues = append([]*models.Venue(nil), s.venues...)
	result.FailedURLs = append([]string(nil), s.failed...)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		s.logger.Warn("[bringfido] Scrape interrupted: %v", err)
		s.checkpoint(result.Venues, "emergency_backup")
		s.emit(models.Progress{IsRunning: boolPtr(false), Stage: "Error", Error: err.Error()})
		return result, err
	}

	s.logger.Info("[bringfido] Scrape complete: %d venues, %d failed URLs", len(result.Venues), len(result.FailedURLs))
	return result, nil
}

// collectLinks walks the category listing pages following "See More
// Results" while pages keep producing links.
func (s *Scraper) collectLinks(ctx context.Context, cat config.Category) []models.VenueLink {
	s.emit(models.Progress{Stage: "Scanning " + cat.Name + " listings", Progress: "Extracting " + cat.Name + " venue links..."})

	pattern := cat.LinkPattern
	seenLinks := utils.NewURLSet()
	var links []models.VenueLink

	pageURL := s.cfg.BaseURL + cat.Path
	for page := 1; pageURL != "" && page <= s.maxPages(); page++ {
		if ctx.Err() != nil {
			break
		}
		if !s.visited.Add(pageURL) {
			s.logger.Debug("[bringfido] Listing page already visited: %s", pageURL)
			break
		}

		s.logger.Info("[bringfido] %s page %d: %s", cat.Name, page, pageURL)
		html, err := s.fetcher.Fetch(ctx, pageURL, s.cfg.ListingSettle)
		if err != nil {
			s.logger.Error("[bringfido] Error loading %s listing page %d: %v", cat.Name, page, err)
			s.emit(models.Progress{Stage: "Error in " + cat.Name, Progress: fmt.Sprintf("Error extracting %s links from page %d", cat.Name, page)})
			break
		}
		if s.monitor != nil {
			s.monitor.ListingPages.WithLabelValues(cat.Name).Inc()
		}

		found, next, err := ParseListing(html, s.cfg.BaseURL, cat.Name, pattern)
		if err != nil {
			s.logger.Error("[bringfido] Error parsing %s listing page %d: %v", cat.Name, page, err)
			break
		}

		added := 0
		for _, l := range found {
			if seenLinks.Add(l.URL) {
				links = append(links, l)
				added++
			}
		}
		s.logger.Info("[bringfido] Page %d: found %d %s links", page, added, cat.Name)
		s.emit(models.Progress{
			Stage:       "Scanning " + cat.Name + " listings",
			Progress:    fmt.Sprintf("Page %d: Found %d %s links", page, added, cat.Name),
			TotalVenues: s.totalFound(len(links)),
		})

		if len(found) == 0 {
			break
		}
		pageURL = next
	}

	if len(links) == 0 {
		s.logger.Warn("[bringfido] No venue links found for %s", cat.Name)
	} else {
		s.logger.Info("[bringfido] Total %s links found: %d", cat.Name, len(links))
	}
	return links
}

// scrapeCategory fetches every venue detail page through the worker pool
// and returns how many venues were collected.
func (s *Scraper) scrapeCategory(ctx context.Context, cat config.Category, links []models.VenueLink) int {
	if len(links) == 0 {
		s.emit(models.Progress{Stage: "Completed " + cat.Name, Progress: "No " + cat.Name + " venues found"})
		return 0
	}
	s.emit(models.Progress{
		Stage:    "Processing " + cat.Name + " details",
		Progress: fmt.Sprintf("Found %d %s to process", len(links), cat.Name),
	})

	pool := utils.NewWorkerPool(s.cfg.MaxConcurrency, s.cfg.VenueDelay.Min, s.cfg.VenueDelay.Max).WithContext(ctx)

	var (
		catMu     sync.Mutex
		catVenues []*models.Venue
		processed int
	)

	for _, link := range links {
		if ctx.Err() != nil {
			break
		}
		l := link

		pool.Submit(func() {
			if ctx.Err() != nil {
				return
			}

			venue, err := s.scrapeVenue(ctx, l)

			catMu.Lock()
			defer catMu.Unlock()
			processed++

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("[bringfido] Detail page failed for %s: %v", l.URL, err)
				s.recordFailure(l.URL)
				if s.monitor != nil {
					s.monitor.VenuesFailed.WithLabelValues(cat.Name).Inc()
				}
			} else {
				catVenues = append(catVenues, venue)
				s.addVenue(venue)
				if s.monitor != nil {
					s.monitor.VenuesScraped.WithLabelValues(cat.Name).Inc()
				}
			}

			s.logger.Info("[bringfido] Processed %s %d/%d: %s", cat.Name, processed, len(links), l.Title)
			s.emit(models.Progress{
				Stage:           fmt.Sprintf("%s %d/%d", cat.Name, processed, len(links)),
				Progress:        "Processing " + l.Title,
				ProcessedVenues: s.processedTotal(),
			})

			if every := s.cfg.CheckpointEvery; every > 0 && processed%every == 0 {
				s.checkpoint(catVenues, fmt.Sprintf("%s_progress_%d", cat.Name, processed))
				s.logger.Info("[bringfido] Progress checkpoint: %d/%d %s completed", processed, len(links), cat.Name)
			}
		})
	}
	pool.Wait()

	return len(catVenues)
}

func (s *Scraper) scrapeVenue(ctx context.Context, link models.VenueLink) (*models.Venue, error) {
	html, err := s.fetcher.Fetch(ctx, link.URL, s.cfg.DetailSettle)
	if err != nil {
		return nil, err
	}

	venue, err := ParseDetail(html, s.locale)
	if err != nil {
		return nil, err
	}

	if venue.Name == "" {
		venue.Name = link.Title
	}
	venue.VenueID = VenueID(link.URL)
	venue.URL = link.URL
	venue.Category = link.Category
	venue.ScrapedAt = time.Now()
	return venue, nil
}

func (s *Scraper) checkpoint(venues []*models.Venue, suffix string) {
	path, err := s.checkpoints.Save(venues, suffix)
	if err != nil {
		s.logger.Error("[bringfido] Failed to save progress: %v", err)
		return
	}
	if path == "" {
		return
	}
	s.logger.Info("[bringfido] Progress saved: %s", path)
	if s.monitor != nil {
		s.monitor.CheckpointsWritten.WithLabelValues().Inc()
	}
}

func (s *Scraper) emit(p models.Progress) {
	if s.progress != nil {
		s.progress(p)
	}
}

func (s *Scraper) addVenue(v *models.Venue) {
	s.mu.Lock()
	s.venues = append(s.venues, v)
	s.mu.Unlock()
}

func (s *Scraper) recordFailure(url string) {
	s.mu.Lock()
	s.failed = append(s.failed, url)
	s.mu.Unlock()
}

func (s *Scraper) snapshot() []*models.Venue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Venue(nil), s.venues...)
}

func (s *Scraper) processedTotal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.venues) + len(s.failed)
}

// totalFound is the number of links found in finished categories plus
// current, the links found so far in the running one.
func (s *Scraper) totalFound(current int) int {
	return s.processedTotal() + current
}

func (s *Scraper) maxPages() int {
	if s.cfg.MaxListingPages > 0 {
		return s.cfg.MaxListingPages
	}
	return 100
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func boolPtr(b bool) *bool { return &b }
