package forecast

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	errx "github.com/chashi-bhai/server/internal/core/error"
	"github.com/chashi-bhai/server/pkg/httpx"
)

const DefaultWeatherUndergroundURL = "https://api.weather.com/v2"

// WeatherUnderground is the keyed weather.com daily summary API.
type WeatherUnderground struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewWeatherUndergroundWithOptions returns nil without a key.
func NewWeatherUndergroundWithOptions(apiKey, baseURL string, httpClient *http.Client) Source {
	if apiKey == "" {
		return nil
	}
	return &WeatherUnderground{apiKey: apiKey, baseURL: httpx.BaseURL(baseURL, DefaultWeatherUndergroundURL), httpClient: httpx.Client(httpClient, 0)}
}

func (w *WeatherUnderground) Name() string { return SourceWeatherUnderground }

func (w *WeatherUnderground) Forecast(ctx context.Context, lat, lon float64, days int) (*Forecast, error) {
	days = clamp(days, 1, 10)
	params := url.Values{
		"apiKey":  {w.apiKey},
		"geocode": {fmt.Sprintf("%.4f,%.4f", lat, lon)},
		"format":  {"json"},
		"units":   {"m"},
	}
	body, err := httpx.Get(ctx, w.httpClient, w.baseURL+"/pws/dailysummary/10day?"+params.Encode(), nil)
	if err != nil {
		return nil, errx.WrapProvider(SourceWeatherUnderground, err)
	}
	summaries := gjson.GetBytes(body, "summaries")
	if !summaries.IsArray() {
		return nil, errx.WrapProvider(SourceWeatherUnderground, fmt.Errorf("no summaries: %w", errx.ErrEmptyResponse))
	}

	fc := &Forecast{Source: SourceWeatherUnderground}
	for _, s := range summaries.Array() {
		if len(fc.Days) == days {
			break
		}
		date := s.Get("validDate").String()
		if date == "" {
			date = "Unknown"
		}
		fc.Days = append(fc.Days, Day{
			Date:        date,
			TempMax:     optional(s.Get("temperatureMax.value")),
			TempMin:     optional(s.Get("temperatureMin.value")),
			Rain:        orZero(s.Get("qpf")),
			RainProb:    orZero(s.Get("qpfProbability")),
			HumidityMax: orZero(s.Get("relativeHumidity")),
			Wind:        orZero(s.Get("windSpeed")),
		})
	}
	return fc, nil
}

func optional(r gjson.Result) *float64 {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	f := r.Float()
	return &f
}

func orZero(r gjson.Result) *float64 {
	f := r.Float()
	return &f
}
