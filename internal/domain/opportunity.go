package domain

import "time"

// Source is a configured external provider plus the adapter type that
// knows how to fetch it.
type Source struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	URL       string    `json:"url,omitempty"`
	Enabled   bool      `json:"enabled"`
	IsBuiltin bool      `json:"is_builtin"`
	CreatedAt time.Time `json:"created_at"`
}

// RawItem is the normalized shape every adapter produces. It is transient:
// the scorer consumes it immediately and only Opportunity rows persist.
type RawItem struct {
	SourceID    int64
	ExternalID  string
	Title       string
	Body        string
	URL         string
	PublishedAt time.Time
}

// Opportunity is a scored, deduplicated item discovered from a source.
// The (SourceType, ExternalID) pair is unique; re-fetching the same external
// item never creates a second row.
type Opportunity struct {
	ID          int64     `json:"id"`
	SourceID    int64     `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	SourceType  string    `json:"source_type"`
	SourceURL   string    `json:"source_url"`
	ExternalID  string    `json:"source_id_external"`
	Score       int       `json:"score"`
	Signals     []string  `json:"signals"`
	DetectedAt  time.Time `json:"detected_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// OpportunityFilter narrows a store query.
type OpportunityFilter struct {
	SourceType string
	MinScore   int
	Limit      int
	Offset     int
}

// Stats aggregates the opportunity store at call time.
type Stats struct {
	Total        int            `json:"total"`
	BySource     map[string]int `json:"by_source"`
	AverageScore float64        `json:"average_score"`
	Today        int            `json:"today"`
}

// Report is a persisted digest of opportunities detected within a time
// window. Reports are immutable once generated; regeneration inserts a new
// row.
type Report struct {
	ID               int64     `json:"id"`
	PeriodStart      time.Time `json:"period_start"`
	PeriodEnd        time.Time `json:"period_end"`
	OpportunityCount int       `json:"opportunity_count"`
	ContentHuman     string    `json:"content_human,omitempty"`
	ContentPrompt    string    `json:"content_prompt,omitempty"`
	Summary          string    `json:"summary,omitempty"`
	AIAnalysis       string    `json:"ai_analysis,omitempty"`
	GeneratedAt      time.Time `json:"generated_at"`
	CreatedAt        time.Time `json:"created_at"`
}

// Plan carries the edition limits the source registry enforces. It is an
// explicit value handed to components at construction, never global state.
type Plan struct {
	Pro           bool
	MaxRSSSources int
}

// AllowsRSS reports whether the plan permits one more RSS source given the
// current count. Pro plans are unlimited.
func (p Plan) AllowsRSS(current int) bool {
	if p.Pro || p.MaxRSSSources < 0 {
		return true
	}
	return current < p.MaxRSSSources
}
