package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"dogfriendly-scraper/config"
	"dogfriendly-scraper/metrics"
	"dogfriendly-scraper/models"
	"dogfriendly-scraper/scraper/bringfido"
	"dogfriendly-scraper/storage"
	"dogfriendly-scraper/utils"
)

// Crawler runs a full crawl, reporting progress as it goes.
type Crawler interface {
	Crawl(ctx context.Context, progress func(models.Progress)) (*models.ScrapeResult, error)
}

// BrowserChecker loads a test page in the browser and returns its title.
type BrowserChecker interface {
	Check(ctx context.Context) (string, error)
}

type HandlerRepository struct {
	config  *config.Config
	monitor *metrics.Monitor
	logger  *logrus.Logger
	crawler Crawler
	checker BrowserChecker

	running atomic.Bool
	now     func() time.Time
}

func NewHandlerRepository(cfg *config.Config, monitor *metrics.Monitor, logger *logrus.Logger, crawler Crawler, checker BrowserChecker) *HandlerRepository {
	return &HandlerRepository{
		config:  cfg,
		monitor: monitor,
		logger:  logger,
		crawler: crawler,
		checker: checker,
		now:     time.Now,
	}
}

// metricsHandler returns HTTP handler for metrics endpoint
func (hr *HandlerRepository) metricsHandler() http.Handler {
	return promhttp.HandlerFor(
		hr.monitor.Registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			Registry:          hr.monitor.Registry,
		},
	)
}

// exportHandler runs a crawl and streams newline-delimited JSON progress.
// The last event carries the download URL of the venue CSV.
func (hr *HandlerRepository) exportHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		if !hr.running.CompareAndSwap(false, true) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "An export is already running"})
			return
		}
		defer hr.running.Store(false)

		hr.monitor.ExportRunning.WithLabelValues().Set(1)
		defer hr.monitor.ExportRunning.WithLabelValues().Set(0)

		jobID := uuid.NewString()
		log := hr.logger.WithField("job", jobID)
		log.Info("Export started")

		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("X-Export-Id", jobID)
		w.WriteHeader(http.StatusOK)

		flusher, _ := w.(http.Flusher)
		var mu sync.Mutex
		enc := json.NewEncoder(w)
		send := func(p models.Progress) {
			mu.Lock()
			defer mu.Unlock()
			if err := enc.Encode(p); err != nil {
				log.Debugf("Could not write progress: %v", err)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}

		result, err := hr.crawler.Crawl(r.Context(), send)
		if err != nil {
			log.Errorf("Export failed: %v", err)
			send(models.Progress{IsRunning: boolPtr(false), Stage: "Error", Error: err.Error()})
			return
		}

		filename := exportFilename(hr.now())
		if err := writeVenueCSV(filepath.Join(hr.config.PublicDir, filename), result.Venues); err != nil {
			log.Errorf("Could not write export file: %v", err)
			send(models.Progress{IsRunning: boolPtr(false), Stage: "Error", Error: err.Error()})
			return
		}

		n := len(result.Venues)
		log.WithField("venues", n).Info("Export completed")
		send(models.Progress{
			IsRunning:       boolPtr(false),
			Progress:        fmt.Sprintf("Export completed! %d venues exported.", n),
			Stage:           "Completed",
			ProcessedVenues: n,
			TotalVenues:     n,
			DownloadURL:     "/downloads/" + filename,
		})
	}
}

func (hr *HandlerRepository) testBrowserHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		timestamp := hr.now().UTC().Format(time.RFC3339Nano)
		title, err := hr.checker.Check(r.Context())
		if err != nil {
			hr.logger.Warnf("Browser test failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success":   false,
				"error":     err.Error(),
				"timestamp": timestamp,
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"message":   "Browser test successful",
			"title":     title,
			"timestamp": timestamp,
		})
	}
}

func (hr *HandlerRepository) downloadHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["file"]
		if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}

		path := filepath.Join(hr.config.PublicDir, name)
		if _, err := os.Stat(path); err != nil {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		http.ServeFile(w, r, path)
	}
}

// exportFilename mirrors an ISO-8601 timestamp with ':' and '.' replaced.
func exportFilename(t time.Time) string {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(t.UTC().Format("2006-01-02T15:04:05.000Z"))
	return "london-dog-friendly-venues-" + stamp + ".csv"
}

func writeVenueCSV(path string, venues []*models.Venue) error {
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

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func boolPtr(b bool) *bool { return &b }

// ScraperCrawler runs the BringFido scraper for the export endpoint.
type ScraperCrawler struct {
	Config  *config.Config
	Logger  *utils.Logger
	Monitor *metrics.Monitor
}

func (c ScraperCrawler) Crawl(ctx context.Context, progress func(models.Progress)) (*models.ScrapeResult, error) {
	s := bringfido.New(c.Config, c.Logger,
		bringfido.WithMonitor(c.Monitor),
		bringfido.WithProgress(progress),
	)
	return s.Scrape(ctx)
}

// ChromeChecker checks that headless Chrome can load the configured test page.
type ChromeChecker struct {
	Config *config.Config
}

func (c ChromeChecker) Check(ctx context.Context) (string, error) {
	return bringfido.CheckBrowser(ctx, c.Config)
}
