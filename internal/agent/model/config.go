package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	TTL        time.Duration `envconfig:"USER_CONTEXT_TTL" default:"720h"`
	MaxHistory int           `envconfig:"USER_CONTEXT_MAX_HISTORY" default:"20"`
}

type ResponseModelConfig struct {
	Provider    string        `envconfig:"LLM_PROVIDER" default:"groq"`
	Model       string        `envconfig:"RESPONSE_MODEL" default:"llama-3.3-70b-versatile"`
	MaxTokens   int           `envconfig:"RESPONSE_MAX_TOKENS" default:"768"`
	Temperature float32       `envconfig:"RESPONSE_TEMPERATURE" default:"0.15"`
	Timeout     time.Duration `envconfig:"RESPONSE_TIMEOUT" default:"18s"`

	GroqAPIKey    string `envconfig:"GROQ_API_KEY"`
	GroqBaseURL   string `envconfig:"GROQ_BASE_URL" default:"https://api.groq.com/openai/v1"`
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL"`
	GeminiModel   string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
}

type CacheConfig struct {
	MaxEntries  int           `envconfig:"CACHE_MAX_ENTRIES" default:"10000"`
	RedisMaxTTL time.Duration `envconfig:"CACHE_REDIS_MAX_TTL" default:"24h"`
}

type LocationConfig struct {
	IPGeolocationAPIKey     string        `envconfig:"IPGEOLOCATION_API_KEY"`
	GoogleGeolocationAPIKey string        `envconfig:"GOOGLE_GEOLOCATION_API_KEY"`
	ProviderTimeout         time.Duration `envconfig:"LOCATION_PROVIDER_TIMEOUT" default:"8s"`
	GeocodeTimeout          time.Duration `envconfig:"GEOCODE_TIMEOUT" default:"10s"`
}

type DatasetsConfig struct {
	NASAAPIKey               string        `envconfig:"NASA_API_KEY"`
	EarthdataToken           string        `envconfig:"NASA_EARTHDATA_TOKEN"`
	WeatherUndergroundAPIKey string        `envconfig:"WEATHER_UNDERGROUND_API_KEY"`
	FetchTimeout             time.Duration `envconfig:"DATASET_FETCH_TIMEOUT" default:"15s"`
	SearchTimeout            time.Duration `envconfig:"SEARCH_TIMEOUT" default:"10s"`
	PowerDaysBack            int           `envconfig:"POWER_DAYS_BACK" default:"30"`
}

type TranslationConfig struct {
	BaseURL string        `envconfig:"TRANSLATE_BASE_URL" default:"https://translate.googleapis.com"`
	Timeout time.Duration `envconfig:"TRANSLATE_TIMEOUT" default:"10s"`
}

type RetrievalConfig struct {
	KnowledgeTopK int `envconfig:"RETRIEVAL_KNOWLEDGE_TOP_K" default:"2"`
	ExamplesTopK  int `envconfig:"RETRIEVAL_EXAMPLES_TOP_K" default:"1"`
}

type ServerConfig struct {
	Host           string        `envconfig:"HOST" default:"0.0.0.0"`
	Port           int           `envconfig:"PORT" default:"8000"`
	AllowedOrigins string        `envconfig:"ALLOWED_ORIGINS" default:"*"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"90s"`
}
