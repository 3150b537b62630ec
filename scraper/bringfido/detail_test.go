package bringfido

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dogfriendly-scraper/config"
)

func londonLocale() Locale {
	return Locale{
		City:           "London",
		CountryMarkers: []string{"UK", "United Kingdom"},
		Bounds:         config.Bounds{MinLat: 51, MaxLat: 52, MinLng: -1, MaxLng: 1},
	}
}

const detailPage = `<html><head>
<script>var tracking = {id: 42};</script>
<script>window.venue = {"latitude": 51.5226, "longitude": -0.0822};</script>
<script type="application/ld+json">{"@type":"Restaurant","aggregateRating":{"ratingValue":"4.5","reviewCount":"27"}}</script>
</head><body>
<h1> Smith and Whistle </h1>
<div class="info">
  <div class="location">
    <button>Sheraton Grand London Park Lane, Piccadilly, Mayfair, London, UK W1J 7BX</button>
  </div>
</div>
<a href="tel:+442074996321">+44 20 7499 6321</a>
<a href="mailto:hello@smithandwhistle.com?subject=Hi">Email us</a>
<a href="https://www.facebook.com/smithandwhistle">Facebook</a>
<a href="https://www.bringfido.ca/restaurant/city/london_gb/">Back</a>
<a href="https://www.smithandwhistle.com/">Website</a>
<p>Short blurb about dogs.</p>
<p>Dogs are welcome at the outdoor tables of this Mayfair bar, where staff bring water bowls.</p>
</body></html>`

func TestParseDetail(t *testing.T) {
	v, err := ParseDetail(detailPage, londonLocale())
	require.NoError(t, err)

	assert.Equal(t, "Smith and Whistle", v.Name)
	assert.Equal(t, "Sheraton Grand London Park Lane, Piccadilly, Mayfair, London, UK W1J 7BX", v.Address)
	assert.Equal(t, "+44 20 7499 6321", v.Phone)
	assert.Equal(t, "hello@smithandwhistle.com", v.Email)
	assert.Equal(t, "https://www.smithandwhistle.com/", v.Website)
	assert.Equal(t, "Dogs are welcome at the outdoor tables of this Mayfair bar, where staff bring water bowls.", v.Description)
	assert.Equal(t, "51.5226", v.Latitude)
	assert.Equal(t, "-0.0822", v.Longitude)
	assert.Equal(t, "4.5", v.Rating)
	assert.Equal(t, "27", v.ReviewCount)
}

func TestParseDetail_CoordinatePairFallback(t *testing.T) {
	page := `<html><head>
<script>map.init([40.7128, -74.0060]);</script>
<script>map.setCenter(51.5033, -0.1196, 15);</script>
</head><body><h1>London Eye</h1></body></html>`

	v, err := ParseDetail(page, londonLocale())
	require.NoError(t, err)
	assert.Equal(t, "51.5033", v.Latitude)
	assert.Equal(t, "-0.1196", v.Longitude)
}

func TestParseDetail_EmptyPage(t *testing.T) {
	v, err := ParseDetail("<html><body></body></html>", londonLocale())
	require.NoError(t, err)
	assert.Empty(t, v.Name)
	assert.Empty(t, v.Address)
	assert.Empty(t, v.Latitude)
	assert.Empty(t, v.Rating)
}

func TestParseDetail_DescriptionTruncated(t *testing.T) {
	long := "Dog friendly " + strings.Repeat("x", 2000)
	v, err := ParseDetail("<html><body><p>"+long+"</p></body></html>", londonLocale())
	require.NoError(t, err)
	assert.Equal(t, DescriptionLimit+3, len([]rune(v.Description)))
	assert.True(t, strings.HasSuffix(v.Description, "..."))
}

func TestParseDetail_RatingOutOfRange(t *testing.T) {
	page := `<html><body><span itemprop="ratingValue">9.2</span><meta itemprop="reviewCount" content="14"></body></html>`
	v, err := ParseDetail(page, londonLocale())
	require.NoError(t, err)
	assert.Empty(t, v.Rating)
	assert.Equal(t, "14", v.ReviewCount)
}

func TestParseDetail_AddressNeedsCountryMarker(t *testing.T) {
	page := `<html><body><p>Somewhere in London</p><span>10 Downing St, London, United Kingdom</span></body></html>`
	v, err := ParseDetail(page, londonLocale())
	require.NoError(t, err)
	assert.Equal(t, "10 Downing St, London, United Kingdom", v.Address)
}

func TestVenueID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.bringfido.ca/restaurant/12345", "12345"},
		{"https://www.bringfido.ca/lodging/678/", "678"},
		{"https://www.bringfido.ca/attraction/9?ref=list", "9"},
		{"12345", "12345"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := VenueID(tt.url); got != tt.want {
			t.Errorf("VenueID(%q) = %q; want %q", tt.url, got, tt.want)
		}
	}
}
