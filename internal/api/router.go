// Package api serves the chat pipeline over HTTP.
package api

import (
	"context"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chashi-bhai/server/internal/agent/datasets"
	"github.com/chashi-bhai/server/internal/agent/model"
	"github.com/chashi-bhai/server/pkg/telemetry"
)

// AppName is reported by /health.
const AppName = "Chashi Bhai"

// Chatter answers one chat turn.
type Chatter interface {
	Invoke(ctx context.Context, in model.ChatInput) (*model.ChatResponse, error)
}

// IPLocator resolves a client address to a location.
type IPLocator interface {
	Locate(ctx context.Context, ip string) model.Location
}

// ClimateProbe fetches a short POWER window for the connectivity probe.
type ClimateProbe interface {
	FetchWindow(ctx context.Context, lat, lon float64, daysBack int) (*datasets.Result, error)
}

// DebugInfo is the configuration summary served by /debug.
type DebugInfo struct {
	GroqAPIKey string
	Provider   string
	Mode       string
	Host       string
	Port       int
}

// Options configures the router. Locator and Probe are optional.
type Options struct {
	Chat           Chatter
	Locator        IPLocator
	Probe          ClimateProbe
	Debug          DebugInfo
	AllowedOrigins string
	RequestTimeout time.Duration
	Metrics        *telemetry.Metrics
}

// NewRouter creates the Chi router with all routes and middleware.
func NewRouter(opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(CORS(ParseOrigins(opts.AllowedOrigins)))
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recovery)
	r.Use(Metrics(opts.Metrics))

	chatH := NewChatHandler(opts.Chat, opts.RequestTimeout)
	healthH := NewHealthHandler(opts.Debug, opts.Locator, opts.Probe)

	r.Post("/chat", chatH.Chat)
	r.Get("/health", healthH.Health)
	r.Get("/debug", healthH.Debug)
	r.Get("/location-test", healthH.LocationTest)
	r.Get("/test-nasa-debug", healthH.ProbeNASA)

	return r
}

// ParseOrigins splits ALLOWED_ORIGINS on commas. An empty value allows all.
func ParseOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
