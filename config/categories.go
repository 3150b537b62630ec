package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Category is one crawlable venue category on the source site.
type Category struct {
	Name          string `toml:"name"`
	Path          string `toml:"path"`
	CategoryID    string `toml:"category_id"`
	ExpectedCount int    `toml:"expected_count"`
	// LinkPattern is the href fragment identifying venue links on listing
	// pages. Derived from Path when empty.
	LinkPattern string `toml:"link_pattern"`
}

type categoryFile struct {
	Categories []Category `toml:"category"`
}

// DefaultCategories is the London catalogue, crawled in this order.
func DefaultCategories() []Category {
	return []Category{
		{Name: "restaurants", Path: "/restaurant/city/london_gb/", CategoryID: "139", ExpectedCount: 121, LinkPattern: "/restaurant/"},
		{Name: "hotels", Path: "/lodging/city/london_gb/", CategoryID: "193", ExpectedCount: 658, LinkPattern: "/lodging/"},
		{Name: "attractions", Path: "/attraction/city/london_gb/", CategoryID: "229", ExpectedCount: 44, LinkPattern: "/attraction/"},
		{Name: "services", Path: "/resource/city/london_gb/", CategoryID: "77", ExpectedCount: 8, LinkPattern: "/resource/"},
	}
}

// LoadCategories decodes a TOML catalogue, or returns the defaults when path is empty.
//
//	[[category]]
//	name = "restaurants"
//	path = "/restaurant/city/london_gb/"
//	category_id = "139"
//	expected_count = 121
func LoadCategories(path string) ([]Category, error) {
	if path == "" {
		return DefaultCategories(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read categories %q: %w", path, err)
	}
	return ParseCategories(data)
}

// ParseCategories decodes TOML category data and fills derived fields.
func ParseCategories(data []byte) ([]Category, error) {
	var file categoryFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: decode categories: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("config: categories file defines no [[category]] entries")
	}

	for i := range file.Categories {
		c := &file.Categories[i]
		if c.Name == "" || c.Path == "" {
			return nil, fmt.Errorf("config: category %d needs name and path", i+1)
		}
		if c.LinkPattern == "" {
			c.LinkPattern = linkPatternFromPath(c.Path)
		}
	}
	return file.Categories, nil
}

// linkPatternFromPath turns "/lodging/city/london_gb/" into "/lodging/".
func linkPatternFromPath(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "/"
	}
	first := strings.SplitN(trimmed, "/", 2)[0]
	return "/" + first + "/"
}
