package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	BaseURL        string
	CategoriesFile string
	Categories     []Category

	DefaultCategoryID string
	CrawlStartID      int
	StaticStartID     int

	City           string
	Region         string
	Country        string
	CountryMarkers []string
	Bounds         Bounds

	OutputDir       string
	CheckpointDir   string
	ExistingCSVPath string
	PublicDir       string
	CheckpointEvery int

	MaxConcurrency  int
	MaxListingPages int
	PageTimeout     time.Duration
	ListingSettle   Interval
	DetailSettle    Interval
	VenueDelay      Interval
	CategoryBreak   Interval

	ChromeBin      string
	Headless       bool
	TestBrowserURL string

	XLSXOutput bool

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	S3Bucket string
	S3Region string
	S3Prefix string

	ServerPort int

	LogLevel string
	LogJSON  bool
}

// Interval is a [Min, Max] range for randomised courtesy delays.
type Interval struct {
	Min time.Duration
	Max time.Duration
}

// Bounds is a latitude/longitude box used to sanity-check scraped coordinates.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// Contains reports whether the point lies strictly inside the box.
func (b Bounds) Contains(lat, lng float64) bool {
	return lat > b.MinLat && lat < b.MaxLat && lng > b.MinLng && lng < b.MaxLng
}

// Load reads the given .env files (default ".env") and returns a populated Config.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		BaseURL:        strings.TrimRight(getEnv("BASE_URL", "https://www.bringfido.ca"), "/"),
		CategoriesFile: getEnv("CATEGORIES_FILE", ""),

		DefaultCategoryID: getEnv("DEFAULT_CATEGORY_ID", "139"),
		CrawlStartID:      getEnvInt("CRAWL_START_ID", 8000),
		StaticStartID:     getEnvInt("STATIC_START_ID", 6001),

		City:           getEnv("CITY", "London"),
		Region:         getEnv("REGION", "Greater London"),
		Country:        getEnv("COUNTRY", "United Kingdom"),
		CountryMarkers: getEnvList("COUNTRY_MARKERS", []string{"UK", "United Kingdom"}),
		Bounds: Bounds{
			MinLat: getEnvFloat("BOUNDS_MIN_LAT", 51),
			MaxLat: getEnvFloat("BOUNDS_MAX_LAT", 52),
			MinLng: getEnvFloat("BOUNDS_MIN_LNG", -1),
			MaxLng: getEnvFloat("BOUNDS_MAX_LNG", 1),
		},

		OutputDir:       getEnv("OUTPUT_DIR", "./output"),
		CheckpointDir:   getEnv("CHECKPOINT_DIR", "./output/checkpoints"),
		ExistingCSVPath: getEnv("EXISTING_CSV_PATH", "./data/gd_place.csv"),
		PublicDir:       getEnv("PUBLIC_DIR", "./public"),
		CheckpointEvery: getEnvInt("CHECKPOINT_EVERY", 25),

		MaxConcurrency:  getEnvInt("MAX_CONCURRENCY", 1),
		MaxListingPages: getEnvInt("MAX_LISTING_PAGES", 100),
		PageTimeout:     getEnvMs("PAGE_TIMEOUT_MS", 45000),
		ListingSettle:   getEnvInterval("LISTING_SETTLE", 2000, 4000),
		DetailSettle:    getEnvInterval("DETAIL_SETTLE", 1000, 3000),
		VenueDelay:      getEnvInterval("VENUE_DELAY", 3000, 6000),
		CategoryBreak:   getEnvInterval("CATEGORY_BREAK", 10000, 20000),

		ChromeBin:      getEnv("CHROME_BIN", ""),
		Headless:       getEnvBool("HEADLESS", true),
		TestBrowserURL: getEnv("TEST_BROWSER_URL", "https://example.com"),

		XLSXOutput: getEnvBool("XLSX_OUTPUT", false),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "venues_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		S3Bucket: getEnv("S3_BUCKET", ""),
		S3Region: getEnv("S3_REGION", ""),
		S3Prefix: getEnv("S3_PREFIX", "dog-friendly/"),

		ServerPort: getEnvInt("SERVER_PORT", 8080),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  getEnvBool("LOG_JSON", false),
	}

	categories, err := LoadCategories(cfg.CategoriesFile)
	if err != nil {
		return nil, err
	}
	cfg.Categories = categories

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// CategoryID maps a category name to its post_category id.
// Unknown names map to DefaultCategoryID.
func (c *Config) CategoryID(name string) string {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat.CategoryID
		}
	}
	return c.DefaultCategoryID
}

// ExpectedCount returns the configured expected venue count for a category.
func (c *Config) ExpectedCount(name string) int {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat.ExpectedCount
		}
	}
	return 0
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvMs(key string, fallbackMs int) time.Duration {
	return time.Duration(getEnvInt(key, fallbackMs)) * time.Millisecond
}

// getEnvInterval reads <PREFIX>_MIN_MS and <PREFIX>_MAX_MS.
func getEnvInterval(prefix string, minMs, maxMs int) Interval {
	return Interval{
		Min: getEnvMs(prefix+"_MIN_MS", minMs),
		Max: getEnvMs(prefix+"_MAX_MS", maxMs),
	}
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
