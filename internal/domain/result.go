package domain

// MatchResult is the outcome of a single categorization call. Labels are
// unique and sorted; a fragment may match zero, one, or many categories.
// Context is only populated by the context-returning incident calls: a
// reconstructed subsequence of source lines with gaps marked by an ellipsis
// and matched spans wrapped in highlight markers.
type MatchResult struct {
	Labels  []string `json:"labels"`
	Context string   `json:"context,omitempty"`
}

// Matched reports whether any category registered.
func (r *MatchResult) Matched() bool {
	return len(r.Labels) > 0
}

// EntryResult pairs a note entry with its per-domain categorization
// outcome. Produced by the batch processor.
type EntryResult struct {
	Entry      *NoteEntry          `json:"entry"`
	ByDomain   map[string][]string `json:"by_domain,omitempty"`
	Incidents  *MatchResult        `json:"incidents,omitempty"`
	Suppressed int                 `json:"suppressed,omitempty"`
	Err        error               `json:"-"`
	Error      string              `json:"error,omitempty"`
}
