package services

import (
	"bytes"
	"fmt"
	"testing"

	"dogfriendly-scraper/models"
	"dogfriendly-scraper/utils"
)

func sampleVenues() []*models.Venue {
	return []*models.Venue{
		{Name: "Hotel A", Category: "hotels"},
		{Name: "Pub B", Category: "restaurants"},
		{Name: "Cafe C", Category: "restaurants"},
		{Name: "Groomer D", Category: "services"},
		{Name: "Mystery E", Category: ""},
	}
}

func newTestReportService(out *bytes.Buffer) *ReportService {
	s := NewReportService(testConfig(), utils.NewDiscardLogger())
	s.out = out
	return s
}

func TestReportCounts(t *testing.T) {
	svc := newTestReportService(&bytes.Buffer{})
	r := svc.Generate(sampleVenues(), nil)

	if r.TotalVenues != 5 {
		t.Errorf("TotalVenues: got %d, want 5", r.TotalVenues)
	}
	if len(r.Categories) != 4 {
		t.Fatalf("Categories len: got %d, want 4", len(r.Categories))
	}

	want := []models.CategoryCount{
		{Category: "restaurants", Count: 2, Expected: 121},
		{Category: "hotels", Count: 1, Expected: 658},
		{Category: "services", Count: 1, Expected: 8},
		{Category: "unknown", Count: 1, Expected: 0},
	}
	for i, w := range want {
		if r.Categories[i] != w {
			t.Errorf("Categories[%d]: got %+v, want %+v", i, r.Categories[i], w)
		}
	}
}

func TestReportEmptyInput(t *testing.T) {
	svc := newTestReportService(&bytes.Buffer{})
	r := svc.Generate(nil, nil)
	if r.TotalVenues != 0 || len(r.Categories) != 0 {
		t.Errorf("expected empty report for empty input, got %+v", r)
	}
}

func TestReportPrint(t *testing.T) {
	var out bytes.Buffer
	svc := newTestReportService(&out)

	var failed []string
	for i := 0; i < 12; i++ {
		failed = append(failed, fmt.Sprintf("https://www.bringfido.ca/lodging/%d", i))
	}

	svc.Print(svc.Generate(sampleVenues(), failed))
	text := out.String()

	for _, want := range []string{
		"Restaurants:",
		"2 venues (expected: 121)",
		"Total scraped: 5 venues",
		"Failed to scrape 12 URLs",
		"https://www.bringfido.ca/lodging/9",
		"... and 2 more",
	} {
		if !bytes.Contains([]byte(text), []byte(want)) {
			t.Errorf("report output missing %q:\n%s", want, text)
		}
	}
	if bytes.Contains([]byte(text), []byte("https://www.bringfido.ca/lodging/10")) {
		t.Errorf("report should list at most %d failed URLs", maxFailedShown)
	}
}
