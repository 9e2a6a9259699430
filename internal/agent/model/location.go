package model

import "fmt"

// Location is a resolved place. Nil coordinates mean the place is unknown
// and data aggregation must be skipped.
type Location struct {
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	Name        string   `json:"name"`         // working-language name used in prompts
	DisplayName string   `json:"display_name"` // original script, shown to the user
	Source      string   `json:"source"`
}

// NewLocation builds a Location with known coordinates.
func NewLocation(lat, lon float64, name, source string) Location {
	return Location{Lat: &lat, Lon: &lon, Name: name, DisplayName: name, Source: source}
}

// UnresolvedLocation keeps a name with no coordinates.
func UnresolvedLocation(name string) Location {
	return Location{Name: name, DisplayName: name, Source: "unresolved"}
}

func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lon != nil
}

// Coords returns the coordinates or zeros.
func (l Location) Coords() (float64, float64) {
	if !l.HasCoordinates() {
		return 0, 0
	}
	return *l.Lat, *l.Lon
}

// Label is what the user sees.
func (l Location) Label() string {
	if l.DisplayName != "" {
		return l.DisplayName
	}
	if l.Name != "" {
		return l.Name
	}
	return "your region"
}

// PromptName is what the model sees.
func (l Location) PromptName() string {
	if l.Name != "" {
		return l.Name
	}
	return "your region"
}

func (l Location) String() string {
	if !l.HasCoordinates() {
		return l.Label()
	}
	return fmt.Sprintf("%s (%.4f, %.4f)", l.Label(), *l.Lat, *l.Lon)
}

// LocationCandidate is one IP-geolocation provider answer.
type LocationCandidate struct {
	Latitude   float64
	Longitude  float64
	City       string
	Region     string
	Country    string
	Source     string
	Confidence float64
}

// Valid rejects the 0,0 answers some providers return on failure.
func (c LocationCandidate) Valid() bool {
	return c.Latitude != 0 && c.Longitude != 0
}

// Name renders "city, region, country", or "region, country" without a city.
func (c LocationCandidate) Name() string {
	if c.City != "" {
		return fmt.Sprintf("%s, %s, %s", c.City, c.Region, c.Country)
	}
	return fmt.Sprintf("%s, %s", c.Region, c.Country)
}
