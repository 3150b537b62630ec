package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"dogfriendly-scraper/config"
	"dogfriendly-scraper/models"
	"dogfriendly-scraper/utils"
)

// Column limits of the directory plugin's import.
const (
	TitleLimit   = 255
	ContentLimit = 2000
	StreetLimit  = 255
	SummaryLimit = 100
)

const postDateLayout = "2006-01-02 15:04:05"

// postcodeRegexp captures a UK postcode such as "W1J 7BX" or "SW1A1AA".
var postcodeRegexp = regexp.MustCompile(`[A-Z]{1,2}\d{1,2}[A-Z]?\s?\d[A-Z]{2}`)

// Columns is the gd_place column order, used when no existing dataset
// header can be read.
var Columns = []string{
	"ID",
	"post_title",
	"post_content",
	"post_status",
	"post_author",
	"post_type",
	"post_date",
	"post_modified",
	"post_tags",
	"post_category",
	"default_category",
	"featured",
	"street",
	"street2",
	"city",
	"region",
	"country",
	"zip",
	"latitude",
	"longitude",
	"phone",
	"payment_types",
	"neighbourhood",
	"ratings",
	"package_id",
	"expire_date",
	"business_hours",
	"email",
	"terms_conditions",
	"does_your_business_have_any_of_the_following",
	"website",
	"how_to_support",
	"cause_description",
	"verified",
	"claimed",
	"facebook",
	"instagram",
	"official_review_url",
	"tiktok",
	"cf1",
	"service_2_description",
	"cf4",
	"cf5",
	"cf2",
	"service_1_description",
	"service_4_description",
	"service_5_description",
	"special_offers",
	"to_verify_your_ownership_please_upload_any_of_the_",
	"would_you_like_to_display_services__products",
	"would_you_like_to_add_cah",
	"post_images",
}

// Formatter maps scraped venues onto the directory plugin's row schema.
type Formatter struct {
	cfg    *config.Config
	logger *utils.Logger
	now    func() time.Time
}

// NewFormatter creates a Formatter with the given config and logger.
func NewFormatter(cfg *config.Config, logger *utils.Logger) *Formatter {
	return &Formatter{cfg: cfg, logger: logger, now: time.Now}
}

// Format converts venues into rows with sequential IDs starting at startID.
func (f *Formatter) Format(venues []*models.Venue, startID int) []models.Row {
	stamp := f.now().Format(postDateLayout)
	rows := make([]models.Row, 0, len(venues))

	for _, v := range venues {
		if v == nil {
			continue
		}
		rows = append(rows, f.formatVenue(v, startID+len(rows), stamp))
	}

	f.logger.Info("[formatter] Formatted %d venues starting at ID %d", len(rows), startID)
	return rows
}

func (f *Formatter) formatVenue(v *models.Venue, id int, stamp string) models.Row {
	row := make(models.Row, len(Columns))
	for _, col := range Columns {
		row[col] = ""
	}

	row["ID"] = strconv.Itoa(id)
	row["post_title"] = utils.Truncate(v.Name, TitleLimit)
	row["post_content"] = utils.Truncate(v.Description, ContentLimit)
	row["post_status"] = "publish"
	row["post_author"] = "1"
	row["post_type"] = "gd_place"
	row["post_date"] = stamp
	row["post_modified"] = stamp
	row["post_category"] = f.cfg.CategoryID(v.Category)
	row["featured"] = "0"
	row["street"] = utils.Truncate(ParseStreet(v.Address), StreetLimit)
	row["city"] = f.cfg.City
	row["region"] = f.cfg.Region
	row["country"] = f.cfg.Country
	row["zip"] = ParsePostcode(v.Address)
	row["latitude"] = v.Latitude
	row["longitude"] = v.Longitude
	row["phone"] = v.Phone
	row["ratings"] = v.Rating
	row["package_id"] = "1"
	row["expire_date"] = "0000-00-00"
	row["email"] = v.Email
	row["terms_conditions"] = "1"
	row["website"] = v.Website
	row["verified"] = "0"
	row["claimed"] = "0"
	row["official_review_url"] = v.URL
	row["service_1_description"] = utils.Ellipsize(v.Description, SummaryLimit)
	row["would_you_like_to_display_services__products"] = "0"
	row["would_you_like_to_add_cah"] = "0"

	return row
}

// ParsePostcode returns the first UK postcode in address, or "".
func ParsePostcode(address string) string {
	return strings.TrimSpace(postcodeRegexp.FindString(address))
}

// ParseStreet returns the first non-empty comma-separated part of address.
func ParseStreet(address string) string {
	for _, part := range strings.Split(address, ",") {
		if part = strings.TrimSpace(part); part != "" {
			return part
		}
	}
	return ""
}
