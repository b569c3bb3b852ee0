package search

import (
	"time"

	"github.com/google/uuid"
)

// AnalyticsRecord is the snapshot stored per executed search
// It is mutated by later click/conversion events referencing QueryID and
// expires with the cache entry holding it
type AnalyticsRecord struct {
	QueryID     string      `json:"queryId"`
	Query       string      `json:"query"`
	TenantID    uuid.UUID   `json:"tenantId"`
	SessionID   string      `json:"sessionId,omitempty"`
	ResultCount int64       `json:"resultCount"`
	Timestamp   time.Time   `json:"timestamp"`
	Filters     Filters     `json:"filters"`
	Clicked     []uuid.UUID `json:"clicked,omitempty"`
	Converted   []uuid.UUID `json:"converted,omitempty"`
}

// PopularQuery is a historical query with its popularity count
type PopularQuery struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// SuggestionType discriminates autocomplete entries
type SuggestionType string

const (
	SuggestionProduct  SuggestionType = "product"
	SuggestionCategory SuggestionType = "category"
	SuggestionQuery    SuggestionType = "query"
)

// Suggestion is one autocomplete entry with optional deep-link data
type Suggestion struct {
	Type  SuggestionType `json:"type"`
	Text  string         `json:"text"`
	ID    *uuid.UUID     `json:"id,omitempty"`
	Slug  string         `json:"slug,omitempty"`
	Image string         `json:"image,omitempty"`
}
