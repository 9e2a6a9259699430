// Package forecast fetches short-range daily weather forecasts and renders
// them as agronomic notes.
package forecast

import (
	"context"
	"strings"
	"time"

	"github.com/chashi-bhai/server/internal/agent/cache"
	"github.com/chashi-bhai/server/internal/agent/model"
	logx "github.com/chashi-bhai/server/pkg/logger"
	"github.com/chashi-bhai/server/pkg/telemetry"
)

const (
	SourceOpenMeteo          = "open_meteo"
	SourceWeatherUnderground = "weather_underground"

	// summaryDays is how many days a summary renders.
	summaryDays = 5
)

var keywords = []string{
	"weather", "forecast", "rain", "temperature tomorrow", "temp tomorrow", "precip",
	"wind tomorrow", "humidity tomorrow", "next days", "coming days", "7 day", "5 day", "outlook",
}

// IsForecastQuery reports whether a query asks about upcoming weather.
func IsForecastQuery(q string) bool {
	if q == "" {
		return false
	}
	ql := strings.ToLower(q)
	for _, k := range keywords {
		if strings.Contains(ql, k) {
			return true
		}
	}
	return false
}

// Day is one forecast day. Nil fields were not reported by the source.
type Day struct {
	Date         string   `json:"date"`
	TempMin      *float64 `json:"temp_min,omitempty"`
	TempMax      *float64 `json:"temp_max,omitempty"`
	Rain         *float64 `json:"rain,omitempty"`
	RainProb     *float64 `json:"rain_prob,omitempty"`
	Wind         *float64 `json:"wind,omitempty"`
	HumidityMin  *float64 `json:"humidity_min,omitempty"`
	HumidityMax  *float64 `json:"humidity_max,omitempty"`
	SoilMoisture *float64 `json:"soil_moisture,omitempty"`
	ET0          *float64 `json:"et0,omitempty"`
}

// Forecast is a daily forecast from one source.
type Forecast struct {
	Source string `json:"source"`
	Days   []Day  `json:"days"`
}

// Source fetches a forecast. Implementations clamp days to what they support.
type Source interface {
	Name() string
	Forecast(ctx context.Context, lat, lon float64, days int) (*Forecast, error)
}

// Forecaster prefers the first source and falls back to the next on error.
type Forecaster struct {
	sources []Source
	store   cache.Store
	metrics *telemetry.Metrics
}

// NewForecaster skips nil sources, so an unconfigured Weather Underground
// can be passed unconditionally.
func NewForecaster(store cache.Store, metrics *telemetry.Metrics, sources ...Source) *Forecaster {
	var ss []Source
	for _, s := range sources {
		if s != nil {
			ss = append(ss, s)
		}
	}
	return &Forecaster{sources: ss, store: store, metrics: metrics}
}

// NewDefaultForecaster uses Weather Underground when a key is configured and
// Open-Meteo otherwise.
func NewDefaultForecaster(cfg model.DatasetsConfig, store cache.Store, metrics *telemetry.Metrics) *Forecaster {
	return NewForecaster(store, metrics,
		NewWeatherUndergroundWithOptions(cfg.WeatherUndergroundAPIKey, "", nil),
		NewOpenMeteoWithOptions("", nil),
	)
}

func (f *Forecaster) Forecast(ctx context.Context, lat, lon float64, days int) (*Forecast, error) {
	var lastErr error
	for _, s := range f.sources {
		key := cache.ForecastKey(s.Name(), lat, lon, days)
		if hit, ok := cache.GetJSON[Forecast](ctx, f.store, key, cache.TTLForecast); ok {
			return &hit, nil
		}
		start := time.Now()
		fc, err := s.Forecast(ctx, lat, lon, days)
		f.metrics.RecordProvider(ctx, "forecast_"+s.Name(), time.Since(start), err)
		if err != nil {
			logx.Warn().Err(err).Str("source", s.Name()).Msg("forecast source failed")
			lastErr = err
			continue
		}
		cache.SetJSON(ctx, f.store, key, fc)
		return fc, nil
	}
	if lastErr == nil {
		lastErr = errNoSource
	}
	return nil, lastErr
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
