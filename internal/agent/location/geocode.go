package location

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/chashi-bhai/server/internal/agent/model"
	errx "github.com/chashi-bhai/server/internal/core/error"
	"github.com/chashi-bhai/server/pkg/httpx"
	logx "github.com/chashi-bhai/server/pkg/logger"
)

const nominatimUserAgent = "ChashibBhai-Agricultural-Assistant/1.0"

type place struct {
	lat, lon float64
	name     string
}

// gazetteer is checked before any network geocoder. Keys are lowercase
// with commas removed.
var gazetteer = map[string]place{
	"gazipur bangladesh":    {23.9999, 90.4203, "Gazipur, Bangladesh"},
	"gazipur":               {23.9999, 90.4203, "Gazipur, Bangladesh"},
	"dhaka bangladesh":      {23.8103, 90.4125, "Dhaka, Bangladesh"},
	"dhaka":                 {23.8103, 90.4125, "Dhaka, Bangladesh"},
	"bangladesh":            {23.6850, 90.3563, "Bangladesh"},
	"chittagong bangladesh": {22.3569, 91.7832, "Chittagong, Bangladesh"},
	"chittagong":            {22.3569, 91.7832, "Chittagong, Bangladesh"},
	"sylhet bangladesh":     {24.8949, 91.8687, "Sylhet, Bangladesh"},
	"sylhet":                {24.8949, 91.8687, "Sylhet, Bangladesh"},
	"rajshahi":              {24.3745, 88.6042, "Rajshahi, Bangladesh"},
	"khulna":                {22.8456, 89.5403, "Khulna, Bangladesh"},
	"barisal":               {22.7010, 90.3535, "Barisal, Bangladesh"},
	"rangpur":               {25.7439, 89.2752, "Rangpur, Bangladesh"},
	"mymensingh":            {24.7471, 90.4203, "Mymensingh, Bangladesh"},
	"comilla":               {23.4607, 91.1809, "Comilla, Bangladesh"},
	"narayanganj":           {23.6238, 90.5000, "Narayanganj, Bangladesh"},
	"jessore":               {23.1697, 89.2072, "Jessore, Bangladesh"},
	"bogra":                 {24.8465, 89.3770, "Bogra, Bangladesh"},
	"dinajpur":              {25.6279, 88.6332, "Dinajpur, Bangladesh"},
	"pabna":                 {24.0064, 89.2372, "Pabna, Bangladesh"},
	"cox's bazar":           {21.4272, 92.0058, "Cox's Bazar, Bangladesh"},
	"london uk":             {51.5074, -0.1278, "London, UK"},
	"new york usa":          {40.7128, -74.0060, "New York, USA"},
}

func gazetteerKey(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, ",", " "))
	return strings.Join(strings.Fields(s), " ")
}

// LookupGazetteer resolves a built-in place name.
func LookupGazetteer(s string) (model.Location, bool) {
	p, ok := gazetteer[gazetteerKey(s)]
	if !ok {
		return model.Location{}, false
	}
	return model.NewLocation(p.lat, p.lon, p.name, "gazetteer"), true
}

// IsCoordinateLiteral matches "lat,lon" strings made only of digits,
// separators and signs.
func IsCoordinateLiteral(s string) bool {
	if !strings.Contains(s, ",") {
		return false
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9') && !strings.ContainsRune(".,- ", r) {
			return false
		}
	}
	return true
}

func parseLatLon(s string) (float64, float64, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// ParseCoordinates turns a coordinate literal into a named location.
func ParseCoordinates(s string) (model.Location, bool) {
	if !IsCoordinateLiteral(s) {
		return model.Location{}, false
	}
	lat, lon, ok := parseLatLon(s)
	if !ok {
		return model.Location{}, false
	}
	return coordinateLocation(lat, lon), true
}

// coordinateLocation names a point after the nearest gazetteer city, or
// after the coordinates themselves when no city is close. The coordinates
// are kept as given.
func coordinateLocation(lat, lon float64) model.Location {
	name := fmt.Sprintf("Manual coordinates: %.4f, %.4f", lat, lon)
	if city, ok := nearestPlace(lat, lon); ok {
		name = city
	}
	return model.NewLocation(lat, lon, name, "coordinates")
}

// nearbyPlaceKm is how close a point must be to a gazetteer city to take its name.
const nearbyPlaceKm = 25.0

func nearestPlace(lat, lon float64) (string, bool) {
	best, bestKm := "", nearbyPlaceKm
	for _, p := range gazetteer {
		// country-level entries carry no comma
		if !strings.Contains(p.name, ",") {
			continue
		}
		d := distanceKm(lat, lon, p.lat, p.lon)
		if d < bestKm || (d == bestKm && p.name < best) {
			best, bestKm = p.name, d
		}
	}
	return best, best != ""
}

// distanceKm is the great-circle distance between two points.
func distanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// PlaceSearcher is one free-text geocoding service.
type PlaceSearcher interface {
	Name() string
	Search(ctx context.Context, q string) (*model.Location, error)
}

// searchGeocoder speaks the Nominatim-style /search API, which
// geocode.maps.co also implements.
type searchGeocoder struct {
	name       string
	baseURL    string
	userAgent  string
	extra      url.Values
	httpClient *http.Client
}

func NewNominatimWithOptions(baseURL string, httpClient *http.Client) PlaceSearcher {
	return &searchGeocoder{
		name:       "nominatim",
		baseURL:    httpx.BaseURL(baseURL, "https://nominatim.openstreetmap.org"),
		userAgent:  nominatimUserAgent,
		extra:      url.Values{"format": {"json"}, "limit": {"1"}},
		httpClient: httpx.Client(httpClient, 0),
	}
}

func NewMapsCoWithOptions(baseURL string, httpClient *http.Client) PlaceSearcher {
	return &searchGeocoder{
		name:       "geocode.maps.co",
		baseURL:    httpx.BaseURL(baseURL, "https://geocode.maps.co"),
		httpClient: httpx.Client(httpClient, 0),
	}
}

func (g *searchGeocoder) Name() string { return g.name }

func (g *searchGeocoder) Search(ctx context.Context, q string) (*model.Location, error) {
	params := url.Values{"q": {q}}
	for k, v := range g.extra {
		params[k] = v
	}
	var header http.Header
	if g.userAgent != "" {
		header = http.Header{"User-Agent": {g.userAgent}}
	}
	body, err := httpx.Get(ctx, g.httpClient, g.baseURL+"/search?"+params.Encode(), header)
	if err != nil {
		return nil, errx.WrapProvider(g.name, err)
	}
	first := gjson.GetBytes(body, "0")
	if !first.Exists() {
		return nil, nil
	}
	name := first.Get("display_name").String()
	if name == "" {
		name = q
	}
	loc := model.NewLocation(first.Get("lat").Float(), first.Get("lon").Float(), name, g.name)
	return &loc, nil
}

// Geocoder resolves free text to a location: coordinate literal, then the
// gazetteer, then each searcher in order.
type Geocoder struct {
	searchers []PlaceSearcher
}

func NewGeocoder(searchers ...PlaceSearcher) *Geocoder {
	return &Geocoder{searchers: searchers}
}

// Geocode returns an unresolved location carrying the input text when
// nothing matches.
func (g *Geocoder) Geocode(ctx context.Context, s string) model.Location {
	s = strings.TrimSpace(s)
	if loc, ok := ParseCoordinates(s); ok {
		return loc
	}
	if loc, ok := LookupGazetteer(s); ok {
		logx.Debug().Str("query", s).Str("name", loc.Name).Msg("gazetteer match")
		return loc
	}
	for _, sr := range g.searchers {
		loc, err := sr.Search(ctx, s)
		if err != nil {
			logx.Debug().Err(err).Str("geocoder", sr.Name()).Str("query", s).Msg("geocoding failed")
			continue
		}
		if loc != nil {
			logx.Debug().Str("geocoder", sr.Name()).Str("name", loc.Name).Msg("geocoded")
			return *loc
		}
	}
	return model.UnresolvedLocation(s)
}
