package services

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"dogfriendly-scraper/config"
	"dogfriendly-scraper/models"
	"dogfriendly-scraper/utils"
)

const maxFailedShown = 10

type ReportService struct {
	cfg    *config.Config
	logger *utils.Logger
	out    io.Writer
}

func NewReportService(cfg *config.Config, logger *utils.Logger) *ReportService {
	return &ReportService{cfg: cfg, logger: logger, out: os.Stdout}
}

// Generate counts venues per category. Configured categories come first in
// catalogue order, then any other category seen, in first-seen order.
func (s *ReportService) Generate(venues []*models.Venue, failedURLs []string) *models.ScrapeReport {
	report := &models.ScrapeReport{
		TotalVenues: len(venues),
		FailedURLs:  failedURLs,
	}

	counts := make(map[string]int)
	var order []string
	for _, v := range venues {
		cat := v.Category
		if cat == "" {
			cat = "unknown"
		}
		if _, seen := counts[cat]; !seen {
			order = append(order, cat)
		}
		counts[cat]++
	}

	listed := make(map[string]bool)
	for _, c := range s.cfg.Categories {
		if n, ok := counts[c.Name]; ok {
			report.Categories = append(report.Categories, models.CategoryCount{
				Category: c.Name,
				Count:    n,
				Expected: c.ExpectedCount,
			})
			listed[c.Name] = true
		}
	}
	for _, cat := range order {
		if listed[cat] {
			continue
		}
		report.Categories = append(report.Categories, models.CategoryCount{
			Category: cat,
			Count:    counts[cat],
			Expected: s.cfg.ExpectedCount(cat),
		})
	}

	return report
}

func (s *ReportService) Print(r *models.ScrapeReport) {
	sep := strings.Repeat("═", 60)
	thin := strings.Repeat("─", 60)
	title := cases.Title(language.English)

	fmt.Fprintf(s.out, "\n%s\n", sep)
	fmt.Fprintf(s.out, "  FINAL SCRAPE REPORT\n")
	fmt.Fprintf(s.out, "%s\n\n", sep)

	fmt.Fprintf(s.out, "  Venues by category\n")
	fmt.Fprintf(s.out, "  %s\n", thin)
	if len(r.Categories) == 0 {
		fmt.Fprintf(s.out, "  No venues were scraped\n")
	}
	for _, c := range r.Categories {
		fmt.Fprintf(s.out, "  %-14s %4d venues (expected: %d)\n", title.String(c.Category)+":", c.Count, c.Expected)
	}
	fmt.Fprintf(s.out, "\n  Total scraped: %d venues\n", r.TotalVenues)

	if len(r.FailedURLs) > 0 {
		fmt.Fprintf(s.out, "\n  Failed to scrape %d URLs\n", len(r.FailedURLs))
		fmt.Fprintf(s.out, "  %s\n", thin)
		shown := r.FailedURLs
		if len(shown) > maxFailedShown {
			shown = shown[:maxFailedShown]
		}
		for _, u := range shown {
			fmt.Fprintf(s.out, "  x %s\n", u)
		}
		if len(r.FailedURLs) > maxFailedShown {
			fmt.Fprintf(s.out, "  ... and %d more\n", len(r.FailedURLs)-maxFailedShown)
		}
	}

	fmt.Fprintf(s.out, "\n%s\n\n", sep)

	if len(r.FailedURLs) > 0 {
		s.logger.Warn("[report] %d venue pages failed", len(r.FailedURLs))
	}
}
