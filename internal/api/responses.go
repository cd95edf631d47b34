package api

import (
	"github.com/clindocs/casenote-classifier/internal/domain"
)

// CategorizeRequest asks for one note entry to be categorized. Domains
// restricts matching to the named dictionaries; empty means all. Filter
// overrides the deployment default for false-positive suppression.
type CategorizeRequest struct {
	Entry   *domain.NoteEntry `json:"entry"   binding:"required"`
	Domains []string          `json:"domains"`
	Filter  *bool             `json:"filter"`
}

// CategorizeResponse carries the categorization outcome for one entry.
type CategorizeResponse struct {
	Result *domain.EntryResult `json:"result"`
}

// BatchCategorizeRequest asks for a batch of note entries to be
// categorized with shared settings.
type BatchCategorizeRequest struct {
	Entries []*domain.NoteEntry `json:"entries" binding:"required,min=1,max=500"`
	Filter  *bool               `json:"filter"`
}

// BatchCategorizeResponse carries per-entry results in input order.
type BatchCategorizeResponse struct {
	Results []*domain.EntryResult `json:"results"`
	Total   int                   `json:"total"`
	Matched int                   `json:"matched"`
	Failed  int                   `json:"failed"`
}

// IncidentRequest asks for incident categorization of one text.
type IncidentRequest struct {
	Text string `json:"text" binding:"required"`
}

// IncidentResponse lists the matched incident categories.
type IncidentResponse struct {
	Labels []string `json:"labels"`
}

// IncidentContextResponse carries labels plus the highlighted context
// window; Result is null when nothing matched.
type IncidentContextResponse struct {
	Result *domain.MatchResult `json:"result"`
}

// DictionarySummary describes one loaded dictionary domain.
type DictionarySummary struct {
	Domain     string `json:"domain"`
	Categories int    `json:"categories"`
}

// DictionariesResponse lists the loaded dictionary domains.
type DictionariesResponse struct {
	Domains   []DictionarySummary `json:"domains"`
	Incidents []string            `json:"incidents"`
}
