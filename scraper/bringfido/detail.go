package bringfido

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"dogfriendly-scraper/config"
	"dogfriendly-scraper/models"
	"dogfriendly-scraper/utils"
)

// DescriptionLimit caps scraped descriptions before "..." is appended.
const DescriptionLimit = 1500

var (
	latitudeRegexp  = regexp.MustCompile(`(?i)["']?latitude["']?\s*[:=]\s*["']?(-?[0-9]+(?:\.[0-9]+)?)`)
	longitudeRegexp = regexp.MustCompile(`(?i)["']?longitude["']?\s*[:=]\s*["']?(-?[0-9]+(?:\.[0-9]+)?)`)
	coordPairRegexp = regexp.MustCompile(`(-?[0-9]+\.[0-9]+),\s*(-?[0-9]+\.[0-9]+)`)

	ratingValueRegexp = regexp.MustCompile(`"ratingValue"\s*:\s*"?([0-9]+(?:\.[0-9]+)?)`)
	reviewCountRegexp = regexp.MustCompile(`"reviewCount"\s*:\s*"?([0-9]+)`)

	excludedWebsiteHosts = []string{"bringfido", "facebook", "twitter", "instagram", "booking.com", "airbnb"}
	descriptionKeywords  = []string{"dog", "pet", "restaurant", "bar", "food", "hotel", "attraction"}
)

// Locale drives the location-dependent detail heuristics.
type Locale struct {
	City           string
	CountryMarkers []string
	Bounds         config.Bounds
}

// LocaleFromConfig builds a Locale from the configured city, markers and box.
func LocaleFromConfig(cfg *config.Config) Locale {
	return Locale{City: cfg.City, CountryMarkers: cfg.CountryMarkers, Bounds: cfg.Bounds}
}

// ParseDetail extracts the raw venue fields from a rendered detail page.
// Fields that cannot be found are left empty.
func ParseDetail(page string, loc Locale) (*models.Venue, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse detail: %w", err)
	}

	v := &models.Venue{
		Name:        utils.NormaliseText(doc.Find("h1").First().Text()),
		Address:     findAddress(doc, loc),
		Phone:       findPhone(doc),
		Email:       findEmail(doc),
		Website:     findWebsite(doc),
		Description: utils.Ellipsize(findDescription(doc), DescriptionLimit),
	}
	v.Latitude, v.Longitude = findCoordinates(doc, loc.Bounds)
	v.Rating, v.ReviewCount = findRating(doc)

	return v, nil
}

// VenueID is the last path segment of a venue URL.
func VenueID(venueURL string) string {
	p := venueURL
	if u, err := url.Parse(venueURL); err == nil && u.Path != "" {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// findAddress returns the innermost element mentioning both the city and a
// country marker.
func findAddress(doc *goquery.Document, loc Locale) string {
	if loc.City == "" {
		return ""
	}
	const candidates = "button, div, span, p"

	matches := func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, loc.City) {
			return false
		}
		for _, marker := range loc.CountryMarkers {
			if strings.Contains(text, marker) {
				return true
			}
		}
		return false
	}

	var address string
	doc.Find(candidates).FilterFunction(matches).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Find(candidates).FilterFunction(matches).Length() > 0 {
			return true
		}
		address = utils.NormaliseText(s.Text())
		return false
	})
	return address
}

func findPhone(doc *goquery.Document) string {
	a := doc.Find(`a[href^="tel:"]`).First()
	if a.Length() == 0 {
		return ""
	}
	if text := utils.NormaliseText(a.Text()); text != "" {
		return text
	}
	href, _ := a.Attr("href")
	return strings.TrimSpace(strings.TrimPrefix(href, "tel:"))
}

func findEmail(doc *goquery.Document) string {
	href, ok := doc.Find(`a[href^="mailto:"]`).First().Attr("href")
	if !ok {
		return ""
	}
	email := strings.TrimPrefix(href, "mailto:")
	if i := strings.Index(email, "?"); i >= 0 {
		email = email[:i]
	}
	return strings.TrimSpace(email)
}

func findWebsite(doc *goquery.Document) string {
	var website string
	doc.Find(`a[href^="http"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		for _, host := range excludedWebsiteHosts {
			if strings.Contains(href, host) {
				return true
			}
		}
		website = strings.TrimSpace(href)
		return false
	})
	return website
}

func findDescription(doc *goquery.Document) string {
	var description string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if len([]rune(text)) <= 50 {
			return true
		}
		lower := strings.ToLower(text)
		for _, kw := range descriptionKeywords {
			if strings.Contains(lower, kw) {
				description = text
				return false
			}
		}
		return true
	})
	return description
}

// findCoordinates scans scripts for explicit latitude/longitude values,
// falling back to a decimal "lat, lng" pair inside bounds.
func findCoordinates(doc *goquery.Document, bounds config.Bounds) (string, string) {
	var lat, lng string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		content := s.Text()

		latMatch := latitudeRegexp.FindStringSubmatch(content)
		lngMatch := longitudeRegexp.FindStringSubmatch(content)
		if latMatch != nil && lngMatch != nil {
			lat, lng = latMatch[1], lngMatch[1]
			return false
		}

		for _, pair := range coordPairRegexp.FindAllStringSubmatch(content, -1) {
			la, errLat := strconv.ParseFloat(pair[1], 64)
			ln, errLng := strconv.ParseFloat(pair[2], 64)
			if errLat == nil && errLng == nil && bounds.Contains(la, ln) {
				lat, lng = pair[1], pair[2]
				return false
			}
		}
		return true
	})
	return lat, lng
}

// findRating reads schema.org ratingValue/reviewCount from itemprop markup
// or JSON-LD. Ratings outside 0-5 are discarded.
func findRating(doc *goquery.Document) (string, string) {
	rating := itemprop(doc, "ratingValue")
	reviews := itemprop(doc, "reviewCount")

	if rating == "" || reviews == "" {
		doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			content := s.Text()
			if rating == "" {
				if m := ratingValueRegexp.FindStringSubmatch(content); m != nil {
					rating = m[1]
				}
			}
			if reviews == "" {
				if m := reviewCountRegexp.FindStringSubmatch(content); m != nil {
					reviews = m[1]
				}
			}
			return rating == "" || reviews == ""
		})
	}

	if f, err := strconv.ParseFloat(rating, 64); err != nil || f < 0 || f > 5 {
		rating = ""
	}
	if _, err := strconv.Atoi(reviews); err != nil {
		reviews = ""
	}
	return rating, reviews
}

func itemprop(doc *goquery.Document, name string) string {
	s := doc.Find(fmt.Sprintf(`[itemprop="%s"]`, name)).First()
	if s.Length() == 0 {
		return ""
	}
	if content, ok := s.Attr("content"); ok {
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(s.Text())
}
