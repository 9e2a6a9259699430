package model

import (
	"time"
)

// AppState stores per-invocation state for the Eino Graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
//   - Nodes on the model path (prompt -> chat model -> collect) do not carry the
//     Turn in their input, so they read it back from here.
type AppState struct {
	Turn        *Turn
	Checkpoints []Checkpoint

	// Accumulated total LLM cost (USD) across model invocations for this turn
	TotalCostUSD float64
}

// Checkpoint is the elapsed time at which a pipeline node finished.
type Checkpoint struct {
	Node    string
	Elapsed time.Duration
}

// ChatInput is the public input of one chat turn.
type ChatInput struct {
	UserID         string
	ClientIP       string
	Message        string
	ManualLocation string
}

// Turn is the working document passed between pipeline nodes.
type Turn struct {
	ChatInput
	StartedAt time.Time

	DetectedLang string
	Query        string // working-language query

	User          *UserContext
	Location      Location
	Analysis      QuestionAnalysis
	Live          LiveData
	Layers        ContextLayers
	HybridContext string // layered context placed in the answer prompt
	SearchBlock   string // DATA block folded from the search tools
	Prompt        string // rendered user prompt, kept for logging

	Answer      string
	Source      AnswerSource
	Intercepted bool
	Reply       string
}

// HasCoordinates reports whether the turn resolved to a point on the map.
func (t *Turn) HasCoordinates() bool {
	return t.Location.HasCoordinates()
}

// LiveData is everything the aggregator fetched for a turn.
type LiveData struct {
	DatasetsUsed  []Dataset
	NASAInsights  string
	FAO           string
	LocalResearch string
	Search        string
}

// ContextLayers are the retrieval and personalization layers, rendered once.
type ContextLayers struct {
	FewShot     string
	Knowledge   string
	User        string
	Specialized string
}

// ChatResponse is the body of POST /chat.
type ChatResponse struct {
	Reply           string   `json:"reply"`
	DetectedLang    string   `json:"detectedLang"`
	TranslatedQuery string   `json:"translatedQuery"`
	UserLocation    string   `json:"userLocation"`
	NASADataUsed    []string `json:"nasaDataUsed"`
	PerformanceMs   int64    `json:"performanceMs"`
}
