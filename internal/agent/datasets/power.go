package datasets

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/chashi-bhai/server/internal/agent/model"
	errx "github.com/chashi-bhai/server/internal/core/error"
	"github.com/chashi-bhai/server/pkg/httpx"
)

const (
	DefaultPowerURL = "https://power.larc.nasa.gov/api/temporal/daily/point"

	// powerMissing is the POWER fill value for days without data.
	powerMissing = -999.0
)

var powerParameters = []string{"T2M", "T2M_MAX", "T2M_MIN", "PRECTOTCORR", "RH2M", "WS2M", "ALLSKY_SFC_SW_DWN"}

// Power is the live NASA POWER daily point API.
type Power struct {
	baseURL        string
	apiKey         string
	earthdataToken string
	daysBack       int
	httpClient     *http.Client
	now            func() time.Time
}

func NewPower(cfg model.DatasetsConfig) *Power {
	return NewPowerWithOptions(DefaultPowerURL, cfg.NASAAPIKey, cfg.EarthdataToken, cfg.PowerDaysBack, httpx.Client(nil, cfg.FetchTimeout))
}

func NewPowerWithOptions(baseURL, apiKey, earthdataToken string, daysBack int, httpClient *http.Client) *Power {
	if daysBack <= 0 {
		daysBack = 30
	}
	return &Power{
		baseURL:        httpx.BaseURL(baseURL, DefaultPowerURL),
		apiKey:         apiKey,
		earthdataToken: earthdataToken,
		daysBack:       daysBack,
		httpClient:     httpx.Client(httpClient, 15*time.Second),
		now:            time.Now,
	}
}

func (p *Power) Dataset() model.Dataset { return model.DatasetPOWER }

// DaysBack is the window Fetch requests.
func (p *Power) DaysBack() int { return p.daysBack }

func (p *Power) Fetch(ctx context.Context, lat, lon float64) (*Result, error) {
	return p.FetchWindow(ctx, lat, lon, p.daysBack)
}

// FetchWindow requests the last daysBack days ending today.
func (p *Power) FetchWindow(ctx context.Context, lat, lon float64, daysBack int) (*Result, error) {
	end := p.now()
	start := end.AddDate(0, 0, -daysBack)
	startStr, endStr := start.Format("20060102"), end.Format("20060102")

	params := url.Values{
		"parameters": {strings.Join(powerParameters, ",")},
		"community":  {"SB"},
		"longitude":  {fmt.Sprint(lon)},
		"latitude":   {fmt.Sprint(lat)},
		"start":      {startStr},
		"end":        {endStr},
		"format":     {"JSON"},
	}
	header := http.Header{}
	if p.apiKey != "" {
		header.Set("X-API-Key", p.apiKey)
	}
	if p.earthdataToken != "" {
		header.Set("Authorization", "Bearer "+p.earthdataToken)
	}

	body, err := httpx.Get(ctx, p.httpClient, p.baseURL+"?"+params.Encode(), header)
	if err != nil {
		return nil, errx.WrapProvider("nasa_power", err)
	}
	parameter := gjson.GetBytes(body, "properties.parameter")
	if !parameter.IsObject() {
		return nil, errx.WrapProvider("nasa_power", fmt.Errorf("no properties.parameter: %w", errx.ErrEmptyResponse))
	}

	series := make(map[string][]float64)
	parameter.ForEach(func(name, days gjson.Result) bool {
		var vals []float64
		days.ForEach(func(_, v gjson.Result) bool {
			if f := v.Float(); f != powerMissing {
				vals = append(vals, f)
			}
			return true
		})
		series[name.String()] = vals
		return true
	})

	return &Result{
		Dataset:   model.DatasetPOWER,
		Success:   true,
		Location:  pointLabel(lat, lon),
		APIStatus: StatusLive,
		DateRange: startStr + " to " + endStr,
		Series:    series,
	}, nil
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	return sum(vs) / float64(len(vs))
}

func sum(vs []float64) float64 {
	var t float64
	for _, v := range vs {
		t += v
	}
	return t
}

func minMax(vs []float64) (float64, float64) {
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// RecentClimate renders the short POWER snapshot used in forecast replies.
// It returns "" when the result carries neither temperature nor rain.
func RecentClimate(r *Result, days int) string {
	if r == nil || !r.Success {
		return ""
	}
	var lines []string
	if t := r.Series["T2M"]; len(t) > 0 {
		lines = append(lines, fmt.Sprintf("• Avg Temp (%dd): %.1f°C", days, mean(t)))
	}
	if p := r.Series["PRECTOTCORR"]; len(p) > 0 {
		lines = append(lines, fmt.Sprintf("• Total Rain (%dd): %.1fmm", days, sum(p)))
	}
	return strings.Join(lines, "\n")
}
