package forecast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chashi-bhai/server/internal/agent/cache"
)

func newStore(t *testing.T) cache.Store {
	t.Helper()
	s, err := cache.NewMemoryStore(10)
	require.NoError(t, err)
	return s
}

func TestIsForecastQuery(t *testing.T) {
	assert.True(t, IsForecastQuery("Will it RAIN this week?"))
	assert.True(t, IsForecastQuery("5 day outlook for Sylhet"))
	assert.True(t, IsForecastQuery("temperature tomorrow in Dhaka"))
	assert.False(t, IsForecastQuery("best fertilizer for potato"))
	assert.False(t, IsForecastQuery(""))
}

const openMeteoBody = `{"daily":{
	"time":["2025-07-01","2025-07-02"],
	"temperature_2m_max":[36.2,33.0],
	"temperature_2m_min":[27.1,26.4],
	"precipitation_sum":[1.0,2.0],
	"precipitation_probability_max":[40,55],
	"windspeed_10m_max":[12.5,31.0],
	"relative_humidity_2m_max":[90,80],
	"relative_humidity_2m_min":[60,55],
	"et0_fao_evapotranspiration":[4.1,3.9]
}}`

func TestOpenMeteoForecastAndSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("forecast_days"))
		assert.Equal(t, "23.810", r.URL.Query().Get("latitude"))
		assert.NotContains(t, r.URL.Query().Get("daily"), "soil_moisture")
		w.Write([]byte(openMeteoBody))
	}))
	defer srv.Close()

	fc, err := NewOpenMeteoWithOptions(srv.URL, srv.Client()).Forecast(context.Background(), 23.8103, 90.4125, 5)
	require.NoError(t, err)
	require.Len(t, fc.Days, 2)
	assert.Nil(t, fc.Days[0].SoilMoisture)

	s := fc.Summary()
	lines := strings.Split(s, "\n")
	assert.Equal(t, "**🌤️ Agricultural Weather Forecast (Open-Meteo)**", lines[0])
	assert.Equal(t, "📅 **2025-07-01**: | 🌡️ 27.1°C - 36.2°C | 🌧️ 1.0mm (40% chance) | 💨 12.5 km/h | 💧 60-90% RH | 💦 ET₀: 4.1mm", lines[2])
	assert.Contains(t, s, "• ⚠️ Very low rainfall expected - plan irrigation schedule\n• Water demand exceeds rainfall - irrigation critical")
	assert.Contains(t, s, "• 🌡️ High heat stress predicted - protect sensitive crops")
	assert.Contains(t, s, "• 💧 High humidity - increased disease pressure")
	assert.Contains(t, s, "• 💨 Strong winds expected - secure young plants and structures")
}

func TestWeatherUndergroundSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pws/dailysummary/10day", r.URL.Path)
		assert.Equal(t, "23.8103,90.4125", r.URL.Query().Get("geocode"))
		w.Write([]byte(`{"summaries":[
			{"validDate":"2025-07-01","temperatureMax":{"value":31},"temperatureMin":{"value":25},"qpf":30,"qpfProbability":80,"relativeHumidity":90,"windSpeed":10},
			{"validDate":"2025-07-02","temperatureMax":{"value":30},"temperatureMin":{"value":24},"qpf":25,"qpfProbability":70,"relativeHumidity":88,"windSpeed":0}
		]}`))
	}))
	defer srv.Close()

	src := NewWeatherUndergroundWithOptions("key", srv.URL, srv.Client())
	fc, err := src.Forecast(context.Background(), 23.8103, 90.4125, 5)
	require.NoError(t, err)

	s := fc.Summary()
	assert.Contains(t, s, "**🌤️ Agricultural Weather Forecast (Weather Underground)**")
	assert.Contains(t, s, "📅 **2025-07-02**: | 🌡️ 24.0°C - 30.0°C | 🌧️ 25.0mm (70% chance) | 💧 88% RH")
	assert.Contains(t, s, "• ⚠️ Heavy rainfall expected - ensure proper drainage")
	assert.Contains(t, s, "• 💧 High humidity - increased disease pressure")
	assert.Nil(t, NewWeatherUndergroundWithOptions("", "", nil))
}

type fakeSource struct {
	name  string
	fc    *Forecast
	err   error
	calls atomic.Int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Forecast(context.Context, float64, float64, int) (*Forecast, error) {
	f.calls.Add(1)
	return f.fc, f.err
}

func TestForecasterFallsBackAndCaches(t *testing.T) {
	primary := &fakeSource{name: "wu", err: assert.AnError}
	secondary := &fakeSource{name: "om", fc: &Forecast{Source: SourceOpenMeteo, Days: []Day{{Date: "2025-07-01"}}}}
	f := NewForecaster(newStore(t), nil, nil, primary, secondary)

	fc, err := f.Forecast(context.Background(), 23.8, 90.4, 5)
	require.NoError(t, err)
	assert.Equal(t, SourceOpenMeteo, fc.Source)

	_, err = f.Forecast(context.Background(), 23.8, 90.4, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 1, secondary.calls.Load())
	assert.EqualValues(t, 2, primary.calls.Load())
}

func TestForecasterAllFail(t *testing.T) {
	f := NewForecaster(newStore(t), nil, &fakeSource{name: "om", err: assert.AnError})
	_, err := f.Forecast(context.Background(), 1, 2, 5)
	assert.ErrorIs(t, err, assert.AnError)

	_, err = NewForecaster(newStore(t), nil).Forecast(context.Background(), 1, 2, 5)
	assert.Error(t, err)
}
