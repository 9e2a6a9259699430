package api

import (
	"net/http"
	"time"

	"github.com/chashi-bhai/server/internal/agent/datasets"
	"github.com/chashi-bhai/server/internal/core"
)

// Probe coordinates (New York), a point POWER always covers.
const (
	probeLat  = 40.7128
	probeLon  = -74.0060
	probeDays = 7
)

type HealthHandler struct {
	debug   DebugInfo
	locator IPLocator
	probe   ClimateProbe
}

func NewHealthHandler(debug DebugInfo, locator IPLocator, probe ClimateProbe) *HealthHandler {
	return &HealthHandler{debug: debug, locator: locator, probe: probe}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "app": AppName})
}

// Debug reports configuration presence. Key material never goes beyond a
// ten character prefix.
func (h *HealthHandler) Debug(w http.ResponseWriter, r *http.Request) {
	key := h.debug.GroqAPIKey
	var prefix *string
	if key != "" {
		p := core.Truncate(key, 10) + "..."
		prefix = &p
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"groq_key_present": key != "",
		"groq_key_length":  len(key),
		"groq_key_prefix":  prefix,
		"provider":         h.debug.Provider,
		"mode":             h.debug.Mode,
		"host":             h.debug.Host,
		"port":             h.debug.Port,
	})
}

// LocationTest runs IP geolocation for the caller.
func (h *HealthHandler) LocationTest(w http.ResponseWriter, r *http.Request) {
	if h.locator == nil {
		writeError(w, http.StatusServiceUnavailable, "location resolver not configured")
		return
	}
	ip := ClientIP(r)
	loc := h.locator.Locate(r.Context(), ip)

	coords := map[string]*float64{"lat": loc.Lat, "lon": loc.Lon}
	writeJSON(w, http.StatusOK, map[string]any{
		"client_ip":         ip,
		"detected_location": loc.Label(),
		"coordinates":       coords,
		"source":            loc.Source,
		"is_localhost":      ip == "127.0.0.1" || ip == "localhost" || ip == "::1",
	})
}

// ProbeNASA fetches a week of POWER data for a fixed point and reports what
// came back.
func (h *HealthHandler) ProbeNASA(w http.ResponseWriter, r *http.Request) {
	if h.probe == nil {
		writeError(w, http.StatusServiceUnavailable, "climate provider not configured")
		return
	}
	start := time.Now()
	res, err := h.probe.FetchWindow(r.Context(), probeLat, probeLon, probeDays)
	out := map[string]any{
		"latitude":    probeLat,
		"longitude":   probeLon,
		"days_back":   probeDays,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		out["success"] = false
		out["error"] = err.Error()
		writeJSON(w, http.StatusBadGateway, out)
		return
	}
	out["success"] = res.Success
	out["summary"] = datasets.RecentClimate(res, probeDays)
	writeJSON(w, http.StatusOK, out)
}
