package bringfido

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dogfriendly-scraper/config"
	"dogfriendly-scraper/metrics"
	"dogfriendly-scraper/models"
	"dogfriendly-scraper/storage"
	"dogfriendly-scraper/utils"
)

const testBase = "https://www.bringfido.ca"

// fakeFetcher serves canned pages keyed by URL.
type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	fetched []string
	onFetch func(url string)
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, _ config.Interval) (string, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, url)
	page, ok := f.pages[url]
	hook := f.onFetch
	f.mu.Unlock()

	if hook != nil {
		hook(url)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !ok {
		return "", errors.New("404 not found")
	}
	return page, nil
}

func testScraperConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		BaseURL: testBase,
		Categories: []config.Category{
			{Name: "restaurants", Path: "/restaurant/city/london_gb/", CategoryID: "139", ExpectedCount: 3, LinkPattern: "/restaurant/"},
			{Name: "hotels", Path: "/lodging/city/london_gb/", CategoryID: "193", ExpectedCount: 1, LinkPattern: "/lodging/"},
		},
		City:            "London",
		CountryMarkers:  []string{"UK", "United Kingdom"},
		Bounds:          config.Bounds{MinLat: 51, MaxLat: 52, MinLng: -1, MaxLng: 1},
		CheckpointDir:   filepath.Join(t.TempDir(), "checkpoints"),
		CheckpointEvery: 2,
		MaxConcurrency:  1,
		MaxListingPages: 10,
	}
}

func listingHTML(next string, links ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, l := range links {
		fmt.Fprintf(&b, `<h2><a href="%s">Venue %s</a></h2>`, l, l[strings.LastIndex(l, "/")+1:])
	}
	if next != "" {
		fmt.Fprintf(&b, `<a href="%s">See More Results</a>`, next)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func detailHTML(name string) string {
	return fmt.Sprintf(`<html><body><h1>%s</h1><span>1 High St, London, UK E1 6AN</span></body></html>`, name)
}

func fixturePages() map[string]string {
	return map[string]string{
		testBase + "/restaurant/city/london_gb/":        listingHTML("/restaurant/city/london_gb/?page=2", "/restaurant/1", "/restaurant/2"),
		testBase + "/restaurant/city/london_gb/?page=2": listingHTML("/restaurant/city/london_gb/?page=3", "/restaurant/2", "/restaurant/3"),
		testBase + "/restaurant/city/london_gb/?page=3": listingHTML("/restaurant/city/london_gb/", "/restaurant/3"),
		testBase + "/restaurant/1":                      detailHTML("Dishoom"),
		testBase + "/restaurant/2":                      detailHTML(""),
		testBase + "/lodging/city/london_gb/":           listingHTML("", "/lodging/10"),
		testBase + "/lodging/10":                        detailHTML("The Savoy"),
	}
}

func TestScrape(t *testing.T) {
	cfg := testScraperConfig(t)
	fetcher := &fakeFetcher{pages: fixturePages()}
	monitor := metrics.New()

	var events []models.Progress
	var eventsMu sync.Mutex

	s := New(cfg, utils.NewDiscardLogger(),
		WithFetcher(fetcher),
		WithMonitor(monitor),
		WithProgress(func(p models.Progress) {
			eventsMu.Lock()
			events = append(events, p)
			eventsMu.Unlock()
		}),
	)

	result, err := s.Scrape(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Venues, 3)
	assert.Equal(t, "Dishoom", result.Venues[0].Name)
	assert.Equal(t, "1", result.Venues[0].VenueID)
	assert.Equal(t, "restaurants", result.Venues[0].Category)
	assert.Equal(t, "1 High St, London, UK E1 6AN", result.Venues[0].Address)
	assert.Equal(t, "Venue 2", result.Venues[1].Name, "listing title is the fallback name")
	assert.Equal(t, "The Savoy", result.Venues[2].Name)
	assert.Equal(t, "hotels", result.Venues[2].Category)
	assert.Equal(t, testBase+"/lodging/10", result.Venues[2].URL)

	assert.Equal(t, []string{testBase + "/restaurant/3"}, result.FailedURLs)

	require.Len(t, result.Categories, 2)
	assert.Equal(t, 3, result.Categories[0].Found)
	assert.Equal(t, 2, result.Categories[0].Scraped)
	assert.Equal(t, 1, result.Categories[1].Found)
	assert.Equal(t, 1, result.Categories[1].Scraped)

	assert.Equal(t, float64(2), testutil.ToFloat64(monitor.VenuesScraped.WithLabelValues("restaurants")))
	assert.Equal(t, float64(1), testutil.ToFloat64(monitor.VenuesFailed.WithLabelValues("restaurants")))
	assert.Equal(t, float64(3), testutil.ToFloat64(monitor.ListingPages.WithLabelValues("restaurants")))

	// The third listing page links back to the first, which is not reloaded.
	count := 0
	for _, u := range fetcher.fetched {
		if u == testBase+"/restaurant/city/london_gb/" {
			count++
		}
	}
	assert.Equal(t, 1, count)

	entries, err := os.ReadDir(cfg.CheckpointDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	require.Len(t, names, 3)
	assert.True(t, strings.HasPrefix(names[0], "bringfido_progress_after_hotels_"))
	assert.True(t, strings.HasPrefix(names[1], "bringfido_progress_after_restaurants_"))
	assert.True(t, strings.HasPrefix(names[2], "bringfido_progress_restaurants_progress_2_"))

	afterHotels, err := storage.LoadCheckpoint(filepath.Join(cfg.CheckpointDir, names[0]))
	require.NoError(t, err)
	assert.Len(t, afterHotels, 3)

	require.NotEmpty(t, events)
	require.NotNil(t, events[0].IsRunning)
	assert.True(t, *events[0].IsRunning)
	assert.Equal(t, "Initializing", events[0].Stage)
}

func TestScrape_CancelWritesEmergencyBackup(t *testing.T) {
	cfg := testScraperConfig(t)
	cfg.CheckpointEvery = 0

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := &fakeFetcher{pages: fixturePages()}
	fetcher.onFetch = func(url string) {
		if url == testBase+"/restaurant/2" {
			cancel()
		}
	}

	s := New(cfg, utils.NewDiscardLogger(), WithFetcher(fetcher))
	result, err := s.Scrape(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	require.Len(t, result.Venues, 1)
	assert.Equal(t, "Dishoom", result.Venues[0].Name)
	assert.Empty(t, result.FailedURLs, "cancelled fetches are not failures")

	matches, err := filepath.Glob(filepath.Join(cfg.CheckpointDir, "bringfido_progress_emergency_backup_*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	saved, err := storage.LoadCheckpoint(matches[0])
	require.NoError(t, err)
	assert.Len(t, saved, 1)

	for _, u := range fetcher.fetched {
		assert.NotContains(t, u, "/lodging/", "no category starts after cancellation")
	}
}

func TestScrape_ListingErrorKeepsCollectedLinks(t *testing.T) {
	cfg := testScraperConfig(t)
	cfg.Categories = cfg.Categories[:1]

	pages := fixturePages()
	delete(pages, testBase+"/restaurant/city/london_gb/?page=2")
	fetcher := &fakeFetcher{pages: pages}

	s := New(cfg, utils.NewDiscardLogger(), WithFetcher(fetcher))
	result, err := s.Scrape(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Categories, 1)
	assert.Equal(t, 2, result.Categories[0].Found)
	assert.Len(t, result.Venues, 2)
}

func countFetched(f *fakeFetcher, prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.fetched {
		if strings.HasPrefix(u, prefix) {
			n++
		}
	}
	return n
}

func TestScrape_ListingPageCap(t *testing.T) {
	cfg := testScraperConfig(t)
	cfg.Categories = cfg.Categories[:1]
	cfg.MaxListingPages = 2

	listing := testBase + "/restaurant/city/london_gb/"
	pages := map[string]string{}
	for i := 1; i <= 5; i++ {
		u := listing
		if i > 1 {
			u = fmt.Sprintf("%s?page=%d", listing, i)
		}
		pages[u] = listingHTML(fmt.Sprintf("/restaurant/city/london_gb/?page=%d", i+1), fmt.Sprintf("/restaurant/%d", i))
		pages[fmt.Sprintf("%s/restaurant/%d", testBase, i)] = detailHTML(fmt.Sprintf("Venue %d", i))
	}
	fetcher := &fakeFetcher{pages: pages}
	monitor := metrics.New()

	s := New(cfg, utils.NewDiscardLogger(), WithFetcher(fetcher), WithMonitor(monitor))
	result, err := s.Scrape(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, countFetched(fetcher, listing))
	assert.Equal(t, float64(2), testutil.ToFloat64(monitor.ListingPages.WithLabelValues("restaurants")))
	require.Len(t, result.Categories, 1)
	assert.Equal(t, 2, result.Categories[0].Found)
	assert.Len(t, result.Venues, 2)
}

func TestScrape_EmptyListingPageEndsPagination(t *testing.T) {
	cfg := testScraperConfig(t)
	cfg.Categories = cfg.Categories[:1]

	listing := testBase + "/restaurant/city/london_gb/"
	fetcher := &fakeFetcher{pages: map[string]string{
		listing:                    listingHTML("/restaurant/city/london_gb/?page=2", "/restaurant/1"),
		listing + "?page=2":        listingHTML("/restaurant/city/london_gb/?page=3"),
		listing + "?page=3":        listingHTML("", "/restaurant/3"),
		testBase + "/restaurant/1": detailHTML("Dishoom"),
	}}

	s := New(cfg, utils.NewDiscardLogger(), WithFetcher(fetcher))
	result, err := s.Scrape(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, countFetched(fetcher, listing))
	assert.Zero(t, countFetched(fetcher, listing+"?page=3"))
	require.Len(t, result.Categories, 1)
	assert.Equal(t, 1, result.Categories[0].Found)
}
