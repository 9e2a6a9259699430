package location

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/chashi-bhai/server/internal/agent/model"
	errx "github.com/chashi-bhai/server/internal/core/error"
	"github.com/chashi-bhai/server/pkg/httpx"
)

// IPProvider answers "where is this IP" with a scored candidate.
type IPProvider interface {
	Name() string
	Locate(ctx context.Context, ip string) (*model.LocationCandidate, error)
}

var errNoAnswer = fmt.Errorf("provider returned no location: %w", errx.ErrEmptyResponse)

// jsonProvider covers the free services that answer a single GET with a
// flat JSON object. Field paths are gjson paths.
type jsonProvider struct {
	name       string
	confidence float64
	urlFor     func(ip string) string
	okPath     string // when set, this field must be truthy
	errPath    string // when set, this field must be falsy
	lat, lon   string
	city       string
	region     string
	country    string
	httpClient *http.Client
}

func (p *jsonProvider) Name() string { return p.name }

func (p *jsonProvider) Locate(ctx context.Context, ip string) (*model.LocationCandidate, error) {
	body, err := httpx.Get(ctx, p.httpClient, p.urlFor(ip), nil)
	if err != nil {
		return nil, errx.WrapProvider(p.name, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, errx.WrapProvider(p.name, fmt.Errorf("malformed response"))
	}
	doc := gjson.ParseBytes(body)
	if p.okPath != "" && !truthy(doc.Get(p.okPath)) {
		return nil, errx.WrapProvider(p.name, errNoAnswer)
	}
	if p.errPath != "" && truthy(doc.Get(p.errPath)) {
		return nil, errx.WrapProvider(p.name, errNoAnswer)
	}
	return &model.LocationCandidate{
		Latitude:   doc.Get(p.lat).Float(),
		Longitude:  doc.Get(p.lon).Float(),
		City:       doc.Get(p.city).String(),
		Region:     doc.Get(p.region).String(),
		Country:    doc.Get(p.country).String(),
		Source:     p.name,
		Confidence: p.confidence,
	}, nil
}

// truthy treats "success" strings and true booleans alike.
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.True:
		return true
	case gjson.String:
		return r.Str == "success" || r.Str == "true"
	case gjson.Number:
		return r.Num != 0
	}
	return false
}

// NewIPAPIWithOptions is ip-api.com.
func NewIPAPIWithOptions(baseURL string, httpClient *http.Client) IPProvider {
	base := httpx.BaseURL(baseURL, "http://ip-api.com")
	return &jsonProvider{
		name: "ip-api.com", confidence: 0.9,
		urlFor: func(ip string) string {
			return base + "/json/" + url.PathEscape(ip) + "?fields=status,country,regionName,city,lat,lon,timezone"
		},
		okPath: "status",
		lat:    "lat", lon: "lon", city: "city", region: "regionName", country: "country",
		httpClient: httpx.Client(httpClient, 0),
	}
}

// NewIPAPICoWithOptions is ipapi.co.
func NewIPAPICoWithOptions(baseURL string, httpClient *http.Client) IPProvider {
	base := httpx.BaseURL(baseURL, "https://ipapi.co")
	return &jsonProvider{
		name: "ipapi.co", confidence: 0.85,
		urlFor:  func(ip string) string { return base + "/" + url.PathEscape(ip) + "/json/" },
		errPath: "error",
		lat:     "latitude", lon: "longitude", city: "city", region: "region", country: "country_name",
		httpClient: httpx.Client(httpClient, 0),
	}
}

// NewIPWhoisWithOptions is ipwhois.app.
func NewIPWhoisWithOptions(baseURL string, httpClient *http.Client) IPProvider {
	base := httpx.BaseURL(baseURL, "https://ipwhois.app")
	return &jsonProvider{
		name: "ipwhois.app", confidence: 0.75,
		urlFor: func(ip string) string { return base + "/json/" + url.PathEscape(ip) },
		okPath: "success",
		lat:    "latitude", lon: "longitude", city: "city", region: "region", country: "country",
		httpClient: httpx.Client(httpClient, 0),
	}
}

// NewIPGeolocationWithOptions is ipgeolocation.io when a key is configured,
// and the free ip-api.io otherwise.
func NewIPGeolocationWithOptions(apiKey, baseURL string, httpClient *http.Client) IPProvider {
	if apiKey == "" {
		base := httpx.BaseURL(baseURL, "https://ip-api.io")
		return &jsonProvider{
			name: "ip-api.io", confidence: 0.7,
			urlFor: func(ip string) string { return base + "/json/" + url.PathEscape(ip) },
			lat:    "latitude", lon: "longitude", city: "city", region: "region_name", country: "country_name",
			httpClient: httpx.Client(httpClient, 0),
		}
	}
	base := httpx.BaseURL(baseURL, "https://api.ipgeolocation.io")
	return &jsonProvider{
		name: "ipgeolocation.io (Premium)", confidence: 0.95,
		urlFor: func(ip string) string {
			return base + "/ipgeo?" + url.Values{"apiKey": {apiKey}, "ip": {ip}}.Encode()
		},
		lat: "latitude", lon: "longitude", city: "city", region: "state_prov", country: "country_name",
		httpClient: httpx.Client(httpClient, 0),
	}
}

// ipinfoProvider packs coordinates into one "lat,lon" string.
type ipinfoProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewIPInfoWithOptions is ipinfo.io.
func NewIPInfoWithOptions(baseURL string, httpClient *http.Client) IPProvider {
	return &ipinfoProvider{baseURL: httpx.BaseURL(baseURL, "https://ipinfo.io"), httpClient: httpx.Client(httpClient, 0)}
}

func (p *ipinfoProvider) Name() string { return "ipinfo.io" }

func (p *ipinfoProvider) Locate(ctx context.Context, ip string) (*model.LocationCandidate, error) {
	body, err := httpx.Get(ctx, p.httpClient, p.baseURL+"/"+url.PathEscape(ip)+"/json", nil)
	if err != nil {
		return nil, errx.WrapProvider(p.Name(), err)
	}
	loc := gjson.GetBytes(body, "loc").String()
	lat, lon, ok := parseLatLon(loc)
	if !ok {
		return nil, errx.WrapProvider(p.Name(), errNoAnswer)
	}
	return &model.LocationCandidate{
		Latitude:   lat,
		Longitude:  lon,
		City:       gjson.GetBytes(body, "city").String(),
		Region:     gjson.GetBytes(body, "region").String(),
		Country:    gjson.GetBytes(body, "country").String(),
		Source:     p.Name(),
		Confidence: 0.8,
	}, nil
}

// googleProvider asks the Geolocation API, then reverse geocodes for names.
type googleProvider struct {
	apiKey     string
	geolocate  string
	geocode    string
	httpClient *http.Client
}

// NewGoogleWithOptions is the Google Geolocation API. It returns nil without a key.
func NewGoogleWithOptions(apiKey, geolocateURL, geocodeURL string, httpClient *http.Client) IPProvider {
	if apiKey == "" {
		return nil
	}
	return &googleProvider{
		apiKey:     apiKey,
		geolocate:  httpx.BaseURL(geolocateURL, "https://www.googleapis.com/geolocation/v1/geolocate"),
		geocode:    httpx.BaseURL(geocodeURL, "https://maps.googleapis.com/maps/api/geocode/json"),
		httpClient: httpx.Client(httpClient, 0),
	}
}

func (p *googleProvider) Name() string { return "Google Geolocation API (Premium)" }

func (p *googleProvider) Locate(ctx context.Context, _ string) (*model.LocationCandidate, error) {
	body, err := httpx.PostJSON(ctx, p.httpClient, p.geolocate+"?key="+url.QueryEscape(p.apiKey), nil, map[string]string{"considerIp": "true"})
	if err != nil {
		return nil, errx.WrapProvider(p.Name(), err)
	}
	lat := gjson.GetBytes(body, "location.lat").Float()
	lon := gjson.GetBytes(body, "location.lng").Float()
	if lat == 0 || lon == 0 {
		return nil, errx.WrapProvider(p.Name(), errNoAnswer)
	}

	params := url.Values{"latlng": {fmt.Sprintf("%f,%f", lat, lon)}, "key": {p.apiKey}}
	geo, err := httpx.Get(ctx, p.httpClient, p.geocode+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errx.WrapProvider(p.Name(), err)
	}
	components := gjson.GetBytes(geo, "results.0.address_components")
	if !components.Exists() {
		return nil, errx.WrapProvider(p.Name(), errNoAnswer)
	}

	c := &model.LocationCandidate{Latitude: lat, Longitude: lon, Source: p.Name(), Confidence: 0.98}
	components.ForEach(func(_, comp gjson.Result) bool {
		types := comp.Get("types").String()
		name := comp.Get("long_name").String()
		switch {
		case strings.Contains(types, `"locality"`):
			c.City = name
		case strings.Contains(types, `"administrative_area_level_1"`):
			c.Region = name
		case strings.Contains(types, `"country"`):
			c.Country = name
		}
		return true
	})
	return c, nil
}
