package forecast

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	errx "github.com/chashi-bhai/server/internal/core/error"
	"github.com/chashi-bhai/server/pkg/httpx"
)

const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

var errNoSource = errors.New("no forecast source configured")

// Soil moisture is an hourly-only variable upstream; it is rendered when a
// response carries it but never requested.
var openMeteoDaily = []string{
	"temperature_2m_max",
	"temperature_2m_min",
	"precipitation_sum",
	"precipitation_probability_max",
	"windspeed_10m_max",
	"relative_humidity_2m_max",
	"relative_humidity_2m_min",
	"et0_fao_evapotranspiration",
	"sunrise",
	"sunset",
}

// OpenMeteo is the keyless Open-Meteo forecast API.
type OpenMeteo struct {
	baseURL    string
	httpClient *http.Client
}

func NewOpenMeteoWithOptions(baseURL string, httpClient *http.Client) *OpenMeteo {
	return &OpenMeteo{baseURL: httpx.BaseURL(baseURL, DefaultOpenMeteoURL), httpClient: httpx.Client(httpClient, 0)}
}

func (o *OpenMeteo) Name() string { return SourceOpenMeteo }

func (o *OpenMeteo) Forecast(ctx context.Context, lat, lon float64, days int) (*Forecast, error) {
	days = clamp(days, 1, 7)
	params := url.Values{
		"latitude":      {strconv.FormatFloat(lat, 'f', 3, 64)},
		"longitude":     {strconv.FormatFloat(lon, 'f', 3, 64)},
		"daily":         {strings.Join(openMeteoDaily, ",")},
		"timezone":      {"auto"},
		"forecast_days": {strconv.Itoa(days)},
	}
	body, err := httpx.Get(ctx, o.httpClient, o.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errx.WrapProvider(SourceOpenMeteo, err)
	}
	daily := gjson.GetBytes(body, "daily")
	times := daily.Get("time").Array()
	if len(times) == 0 {
		return nil, errx.WrapProvider(SourceOpenMeteo, fmt.Errorf("no daily series: %w", errx.ErrEmptyResponse))
	}

	at := func(field string, i int) *float64 {
		v := daily.Get(field + "." + strconv.Itoa(i))
		if !v.Exists() || v.Type == gjson.Null {
			return nil
		}
		f := v.Float()
		return &f
	}
	fc := &Forecast{Source: SourceOpenMeteo}
	for i, t := range times {
		fc.Days = append(fc.Days, Day{
			Date:         t.String(),
			TempMax:      at("temperature_2m_max", i),
			TempMin:      at("temperature_2m_min", i),
			Rain:         at("precipitation_sum", i),
			RainProb:     at("precipitation_probability_max", i),
			Wind:         at("windspeed_10m_max", i),
			HumidityMax:  at("relative_humidity_2m_max", i),
			HumidityMin:  at("relative_humidity_2m_min", i),
			ET0:          at("et0_fao_evapotranspiration", i),
			SoilMoisture: at("soil_moisture_0_to_10cm", i),
		})
	}
	return fc, nil
}
