package bringfido

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"dogfriendly-scraper/models"
	"dogfriendly-scraper/utils"
)

const nextPageText = "See More Results"

// ParseListing extracts venue links from a category listing page: anchors
// inside h2 headings whose href contains linkPattern. Relative hrefs are
// resolved against baseURL. nextURL is the absolute "See More Results"
// target, or "" when there is none.
func ParseListing(page, baseURL, category, linkPattern string) ([]models.VenueLink, string, error) {
	root, err := htmlquery.Parse(strings.NewReader(page))
	if err != nil {
		return nil, "", fmt.Errorf("parse listing: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse base url %q: %w", baseURL, err)
	}

	xpath := fmt.Sprintf("//h2//a[contains(@href, %s)]", xpathLiteral(linkPattern))
	anchors, err := htmlquery.QueryAll(root, xpath)
	if err != nil {
		return nil, "", fmt.Errorf("query venue links: %w", err)
	}

	seen := make(map[string]struct{}, len(anchors))
	links := make([]models.VenueLink, 0, len(anchors))
	for _, a := range anchors {
		href := strings.TrimSpace(htmlquery.SelectAttr(a, "href"))
		title := utils.NormaliseText(htmlquery.InnerText(a))
		if href == "" || title == "" {
			continue
		}

		abs := resolve(base, href)
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}

		links = append(links, models.VenueLink{URL: abs, Title: title, Category: category})
	}

	return links, nextPageURL(root, base), nil
}

func nextPageURL(root *html.Node, base *url.URL) string {
	anchors, err := htmlquery.QueryAll(root, "//a[@href]")
	if err != nil {
		return ""
	}
	for _, a := range anchors {
		text := strings.ToLower(utils.NormaliseText(htmlquery.InnerText(a)))
		if !strings.Contains(text, strings.ToLower(nextPageText)) {
			continue
		}
		if href := strings.TrimSpace(htmlquery.SelectAttr(a, "href")); href != "" {
			return resolve(base, href)
		}
	}
	return ""
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// xpathLiteral quotes s for use as an XPath 1.0 string literal.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}
