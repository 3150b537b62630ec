package models

import "time"

// Venue holds the raw fields scraped from a venue detail page.
// The JSON form is the checkpoint format.
type Venue struct {
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Website     string    `json:"website"`
	Description string    `json:"description"`
	Latitude    string    `json:"latitude"`
	Longitude   string    `json:"longitude"`
	Rating      string    `json:"rating"`
	ReviewCount string    `json:"review_count"`
	VenueID     string    `json:"venue_id"`
	URL         string    `json:"url"`
	Category    string    `json:"category"`
	ScrapedAt   time.Time `json:"scraped_at,omitempty"`
}

// VenueLink is a venue anchor found on a category listing page.
type VenueLink struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// Row is one output row keyed by column name.
type Row map[string]string

// Values returns the row's values in header order. Missing columns are empty.
func (r Row) Values(header []string) []string {
	out := make([]string, len(header))
	for i, col := range header {
		out[i] = r[col]
	}
	return out
}

// Progress is a crawl progress event. Zero-valued counters are omitted so
// consumers can merge events into their running state.
type Progress struct {
	IsRunning       *bool  `json:"isRunning,omitempty"`
	Progress        string `json:"progress,omitempty"`
	Stage           string `json:"stage,omitempty"`
	TotalVenues     int    `json:"totalVenues,omitempty"`
	ProcessedVenues int    `json:"processedVenues,omitempty"`
	Error           string `json:"error,omitempty"`
	DownloadURL     string `json:"downloadUrl,omitempty"`
}

// CategoryResult summarises one crawled category.
type CategoryResult struct {
	Name     string
	Found    int
	Scraped  int
	Expected int
	Duration time.Duration
}

// ScrapeResult is everything a crawl produced.
type ScrapeResult struct {
	Venues     []*Venue
	FailedURLs []string
	Categories []CategoryResult
}

// CategoryCount is one line of the final report.
type CategoryCount struct {
	Category string
	Count    int
	Expected int
}

// ScrapeReport holds the summary printed at the end of a crawl.
type ScrapeReport struct {
	TotalVenues int
	Categories  []CategoryCount
	FailedURLs  []string
}

// PublishResult lists the files produced by formatting and writing a dataset.
type PublishResult struct {
	Rows         int
	OutputPath   string
	CombinedPath string
	ExistingRows int
	CombinedRows int
	ExtraPaths   []string
	UploadedKeys []string
	StoredVenues int
}
