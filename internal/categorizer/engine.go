// engine.go implements an Aho-Corasick prescan over all keyword
// dictionaries for O(n+m) candidate discovery on batch workloads.
package categorizer

import (
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/clindocs/casenote-classifier/internal/domain"
)

// Candidate identifies a (domain, category) pair with at least one raw
// keyword hit in the scanned text.
type Candidate struct {
	Domain   string
	Category string
}

// PrescanEngine runs one Aho-Corasick pass over every keyword dictionary at
// once and reports candidate (domain, category) pairs. It is a prefilter:
// whole-word and negation semantics belong to the Categorizer, which must
// confirm every candidate. A prescan hit is a superset of real matches and
// a prescan miss is definitive, so batch callers skip domains with no
// candidates instead of scanning each dictionary in full.
type PrescanEngine struct {
	matcher  *ahocorasick.Matcher
	keywords []string
	targets  map[string][]Candidate
	logger   Logger
}

// NewPrescanEngine builds the automaton from the given keyword sets.
// Keywords are trimmed before insertion: padded word-boundary tokens
// (" vlo ") enter as their bare form, which widens the candidate set but
// never loses a match.
func NewPrescanEngine(sets []*domain.KeywordSet, logger Logger) *PrescanEngine {
	if logger == nil {
		logger = nopLogger{}
	}

	engine := &PrescanEngine{
		targets: make(map[string][]Candidate),
		logger:  logger,
	}

	for _, set := range sets {
		if set == nil {
			continue
		}
		for i := range set.Categories {
			cat := &set.Categories[i]
			for _, kw := range cat.Keywords {
				normalized := strings.ToLower(strings.TrimSpace(kw))
				if normalized == "" {
					continue
				}
				if _, seen := engine.targets[normalized]; !seen {
					engine.keywords = append(engine.keywords, normalized)
				}
				engine.targets[normalized] = append(engine.targets[normalized],
					Candidate{Domain: set.Domain, Category: cat.Label})
			}
		}
	}

	if len(engine.keywords) > 0 {
		engine.matcher = ahocorasick.NewStringMatcher(engine.keywords)
	}

	logger.Debug("prescan engine initialized",
		"sets", len(sets), "keywords", len(engine.keywords))

	return engine
}

// Candidates returns the deduplicated (domain, category) pairs with at
// least one keyword hit in text.
func (e *PrescanEngine) Candidates(text string) []Candidate {
	if e.matcher == nil || text == "" {
		return nil
	}

	lower := strings.ToLower(NormalizeText(text))
	hits := e.matcher.Match([]byte(lower))

	seen := make(map[Candidate]struct{})
	candidates := make([]Candidate, 0, len(hits))
	for _, hitIndex := range hits {
		if hitIndex >= len(e.keywords) {
			continue
		}
		for _, cand := range e.targets[e.keywords[hitIndex]] {
			if _, dup := seen[cand]; dup {
				continue
			}
			seen[cand] = struct{}{}
			candidates = append(candidates, cand)
		}
	}

	return candidates
}

// CandidateDomains returns the distinct domains with any keyword hit in
// text, preserving first-hit order.
func (e *PrescanEngine) CandidateDomains(text string) []string {
	seen := make(map[string]struct{})
	domains := make([]string, 0, 4)
	for _, cand := range e.Candidates(text) {
		if _, dup := seen[cand.Domain]; dup {
			continue
		}
		seen[cand.Domain] = struct{}{}
		domains = append(domains, cand.Domain)
	}
	return domains
}

// KeywordCount returns the number of distinct keywords in the automaton.
func (e *PrescanEngine) KeywordCount() int {
	return len(e.keywords)
}
