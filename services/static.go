package services

import (
	"strings"

	"dogfriendly-scraper/models"
)

// StaticVenues returns the restaurant records observed by hand in a browser
// session. Source URLs are rebuilt from the BringFido ids against baseURL.
func StaticVenues(baseURL string) []*models.Venue {
	venues := []*models.Venue{
		{
			Name:        "Smith and Whistle",
			Address:     "Sheraton Grand London Park Lane, Piccadilly, Mayfair, London, UK W1J 7BX",
			Phone:       "+44 2074996321",
			Email:       "smithandwhistle.parklane@sheraton.com",
			Website:     "https://www.smithandwhistle.com/dog-friendly-bar",
			Description: "The Smith and Whistle is a cocktail bar themed around vintage detective novels and renowned for being one of the dog-friendliest bars in London. They proudly offer the city's first permanent drinks list created entirely for canine consumption. Bring Fido for a night out to enjoy a range of 'Dogtails' including Bubbly Bow Wow or a Poochie Colada. Their food menu focuses on contemporary British plates using locally-sourced, seasonal ingredients.",
			Latitude:    "51.5049266",
			Longitude:   "-0.1469807",
			Rating:      "5.0",
			VenueID:     "76703",
		},
		{Name: "The Three Stags", Address: "London, Greater London, United Kingdom", Description: "Traditional British pub welcoming dogs", VenueID: "548"},
		{Name: "The Lord Palmerston", Address: "London, Greater London, United Kingdom", Description: "Dog-friendly British pub", VenueID: "9977"},
		{Name: "BrewDog Canary Wharf", Address: "Canary Wharf, London, Greater London, United Kingdom", Description: "Modern craft beer bar with dog-friendly policy", VenueID: "81790"},
		{Name: "Greenwich Tavern", Address: "Greenwich, London, Greater London, United Kingdom", Description: "Traditional tavern welcoming dogs", VenueID: "15142"},
		{Name: "Donostia", Address: "London, Greater London, United Kingdom", Description: "Spanish restaurant with outdoor dog-friendly seating", VenueID: "12462"},
		{Name: "Gordon Ramsay Street Pizza", Address: "London, Greater London, United Kingdom", Description: "Pizza restaurant with dog-friendly outdoor area", VenueID: "82176"},
		{Name: "Yurt Cafe", Address: "London, Greater London, United Kingdom", Description: "Unique cafe experience welcoming dogs", VenueID: "70037"},
		{Name: "Gotto Trattoria", Address: "London, Greater London, United Kingdom", Description: "Italian restaurant with dog-friendly outdoor seating", VenueID: "81996"},
		{Name: "Unity Diner", Address: "London, Greater London, United Kingdom", Description: "Plant-based diner welcoming dogs", VenueID: "79323"},
	}

	base := strings.TrimRight(baseURL, "/")
	for _, v := range venues {
		v.Category = "restaurants"
		v.URL = base + "/restaurant/" + v.VenueID
	}
	return venues
}
