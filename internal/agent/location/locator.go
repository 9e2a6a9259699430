package location

import (
	"context"
	"math"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chashi-bhai/server/internal/agent/cache"
	"github.com/chashi-bhai/server/internal/agent/model"
	logx "github.com/chashi-bhai/server/pkg/logger"
	"github.com/chashi-bhai/server/pkg/telemetry"
)

const (
	dhakaLat = 23.8103
	dhakaLon = 90.4125

	DefaultProviderTimeout = 8 * time.Second
)

// DefaultLocation is used for loopback and private addresses.
func DefaultLocation() model.Location {
	return model.NewLocation(dhakaLat, dhakaLon, "Dhaka, Bangladesh", "default")
}

// FallbackLocation is used when every provider failed.
func FallbackLocation() model.Location {
	return model.NewLocation(dhakaLat, dhakaLon, "Dhaka, Bangladesh (fallback)", "fallback")
}

type cachedIPLocation struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Name   string  `json:"name"`
	Source string  `json:"source"`
}

// IPLocator asks several IP geolocation services at once and keeps the most
// trusted answer.
type IPLocator struct {
	providers []IPProvider
	cache     cache.Store
	timeout   time.Duration
	metrics   *telemetry.Metrics
}

func NewIPLocator(providers []IPProvider, store cache.Store, timeout time.Duration, metrics *telemetry.Metrics) *IPLocator {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	var ps []IPProvider
	for _, p := range providers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	return &IPLocator{providers: ps, cache: store, timeout: timeout, metrics: metrics}
}

// routable reports whether the address can be geolocated at all.
func routable(ip string) bool {
	addr := net.ParseIP(ip)
	if addr == nil {
		return false
	}
	return !(addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() || addr.IsLinkLocalUnicast())
}

// Locate never fails; it degrades to the Dhaka default.
func (l *IPLocator) Locate(ctx context.Context, ip string) model.Location {
	if !routable(ip) {
		logx.Debug().Str("ip", ip).Msg("non-routable client address; using default location")
		return DefaultLocation()
	}

	key := cache.LocationKey(ip)
	if hit, ok := cache.GetJSON[cachedIPLocation](ctx, l.cache, key, cache.TTLIPLocation); ok {
		return model.NewLocation(hit.Lat, hit.Lon, hit.Name, hit.Source)
	}

	candidates := make([]*model.LocationCandidate, len(l.providers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range l.providers {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, l.timeout)
			defer cancel()
			start := time.Now()
			c, err := p.Locate(pctx, ip)
			l.metrics.RecordProvider(ctx, p.Name(), time.Since(start), err)
			if err != nil {
				logx.Debug().Err(err).Str("provider", p.Name()).Msg("ip geolocation source failed")
				return nil
			}
			candidates[i] = c
			return nil
		})
	}
	_ = g.Wait()

	best, agree, valid := pickBest(candidates)
	if best == nil {
		logx.Warn().Str("ip", ip).Msg("all ip geolocation sources failed; using fallback")
		return FallbackLocation()
	}
	logx.Info().
		Str("source", best.Source).
		Int("sources", valid).
		Int("agreeing", agree).
		Float64("lat", best.Latitude).
		Float64("lon", best.Longitude).
		Msg("ip location resolved")

	loc := model.NewLocation(best.Latitude, best.Longitude, best.Name(), "ip")
	cache.SetJSON(ctx, l.cache, key, cachedIPLocation{Lat: best.Latitude, Lon: best.Longitude, Name: best.Name(), Source: "ip"})
	return loc
}

// pickBest returns the highest-confidence valid candidate, how many valid
// candidates sit within 0.1 degrees of it on both axes, and how many were valid.
func pickBest(cs []*model.LocationCandidate) (*model.LocationCandidate, int, int) {
	var best *model.LocationCandidate
	valid := 0
	for _, c := range cs {
		if c == nil || !c.Valid() {
			continue
		}
		valid++
		if best == nil || c.Confidence > best.Confidence {
			best = c
		}
	}
	if best == nil {
		return nil, 0, 0
	}
	agree := 0
	for _, c := range cs {
		if c == nil || !c.Valid() {
			continue
		}
		if math.Abs(c.Latitude-best.Latitude) < 0.1 && math.Abs(c.Longitude-best.Longitude) < 0.1 {
			agree++
		}
	}
	return best, agree, valid
}
