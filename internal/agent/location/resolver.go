package location

import (
	"context"
	"math"

	"github.com/chashi-bhai/server/internal/agent/cache"
	"github.com/chashi-bhai/server/internal/agent/language"
	"github.com/chashi-bhai/server/internal/agent/model"
	"github.com/chashi-bhai/server/pkg/httpx"
	logx "github.com/chashi-bhai/server/pkg/logger"
	"github.com/chashi-bhai/server/pkg/telemetry"
)

// gpsAgreementKm is how far device GPS may drift from the IP fix before the
// two are averaged.
const gpsAgreementKm = 100.0

// NameTranslator turns a place name into English. language.Service
// satisfies it.
type NameTranslator interface {
	ToEnglish(ctx context.Context, text string) (string, string)
}

// Request carries every location hint a chat turn has.
type Request struct {
	ClientIP string
	Manual   string // the request's location field: GPS "lat,lon" or a place name
	Query    string // English query text
	Stored   string // location remembered in the user context
}

// Resolver picks one location for a turn from the hints in a Request.
type Resolver struct {
	ip         *IPLocator
	geocoder   *Geocoder
	translator NameTranslator
}

func NewResolver(ip *IPLocator, geocoder *Geocoder, translator NameTranslator) *Resolver {
	return &Resolver{ip: ip, geocoder: geocoder, translator: translator}
}

// DefaultIPProviders builds the six IP geolocation sources against their
// public endpoints. Keyed providers drop out when their key is unset.
func DefaultIPProviders(cfg model.LocationConfig) []IPProvider {
	c := httpx.Client(nil, cfg.ProviderTimeout)
	return []IPProvider{
		NewIPAPIWithOptions("", c),
		NewIPAPICoWithOptions("", c),
		NewIPInfoWithOptions("", c),
		NewIPWhoisWithOptions("", c),
		NewIPGeolocationWithOptions(cfg.IPGeolocationAPIKey, "", c),
		NewGoogleWithOptions(cfg.GoogleGeolocationAPIKey, "", "", c),
	}
}

// NewDefaultResolver wires the public providers and geocoders.
func NewDefaultResolver(cfg model.LocationConfig, store cache.Store, metrics *telemetry.Metrics, translator NameTranslator) *Resolver {
	gc := httpx.Client(nil, cfg.GeocodeTimeout)
	return NewResolver(
		NewIPLocator(DefaultIPProviders(cfg), store, cfg.ProviderTimeout, metrics),
		NewGeocoder(NewNominatimWithOptions("", gc), NewMapsCoWithOptions("", gc)),
		translator,
	)
}

// IP exposes the IP locator for the diagnostics endpoint.
func (r *Resolver) IP() *IPLocator { return r.ip }

// Resolve never fails. Priority: device GPS, a place named in the query,
// the manual field, the stored location, then the client IP.
func (r *Resolver) Resolve(ctx context.Context, req Request) model.Location {
	loc := r.resolve(ctx, req)
	return r.englishName(ctx, loc)
}

func (r *Resolver) resolve(ctx context.Context, req Request) model.Location {
	if gps, ok := ParseCoordinates(req.Manual); ok {
		return r.crossCheck(gps, r.ip.Locate(ctx, req.ClientIP))
	}
	if phrase := ExtractFromQuery(req.Query); phrase != "" {
		loc := r.geocoder.Geocode(ctx, phrase)
		logx.Debug().Str("phrase", phrase).Str("name", loc.Name).Msg("location taken from query")
		return loc
	}
	if req.Manual != "" {
		loc := r.geocoder.Geocode(ctx, req.Manual)
		if loc.HasCoordinates() {
			return loc
		}
		return r.ip.Locate(ctx, req.ClientIP)
	}
	if req.Stored != "" {
		return r.geocoder.Geocode(ctx, req.Stored)
	}
	return r.ip.Locate(ctx, req.ClientIP)
}

// crossCheck keeps device GPS near the IP fix and averages the two when
// they disagree by more than gpsAgreementKm.
func (r *Resolver) crossCheck(gps, ip model.Location) model.Location {
	if !ip.HasCoordinates() {
		return gps
	}
	glat, glon := gps.Coords()
	ilat, ilon := ip.Coords()
	d := math.Hypot(glat-ilat, glon-ilon) * 111
	if d < gpsAgreementKm {
		logx.Debug().Float64("distance_km", d).Msg("device gps agrees with ip location")
		return gps
	}
	logx.Info().
		Float64("distance_km", d).
		Str("ip_location", ip.Name).
		Msg("device gps differs from ip location; averaging")
	return coordinateLocation((glat+ilat)/2, (glon+ilon)/2)
}

func (r *Resolver) englishName(ctx context.Context, loc model.Location) model.Location {
	if r.translator == nil || !language.ContainsBengali(loc.Name) {
		return loc
	}
	en, _ := r.translator.ToEnglish(ctx, loc.Name)
	if en != "" {
		loc.DisplayName = loc.Name
		loc.Name = en
	}
	return loc
}
