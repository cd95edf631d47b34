// Package categorizer implements the clinical text categorization engine:
// keyword dictionary matching with whole-word and negation refinements, a
// higher-precision regex incident matcher with context extraction, and an
// Aho-Corasick prescan for batch workloads. All matching is pure and
// stateless per call; the compiled dictionaries are immutable and safe for
// concurrent use.
package categorizer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/clindocs/casenote-classifier/internal/domain"
)

// Options configure a Categorizer.
type Options struct {
	// WholeWords lists the triggers that must match on word boundaries
	// rather than by substring containment.
	WholeWords map[string]struct{}
	// Negation is the antecedent-phrase policy applied when callers
	// request false-positive filtering. Defaults to an empty policy.
	Negation *PhrasePolicy
	// PerOccurrence selects the stricter negation mode: a category is
	// suppressed only when every occurrence of the keyword is negated,
	// not just the first.
	PerOccurrence bool
	Logger        Logger
}

// Categorizer performs substring/whole-word keyword categorization against
// immutable per-domain dictionaries.
type Categorizer struct {
	wholeWords    map[string]*regexp.Regexp
	negation      *PhrasePolicy
	perOccurrence bool
	logger        Logger
}

// New builds a Categorizer, precompiling a word-boundary expression for
// each registered whole-word trigger.
func New(opts Options) *Categorizer {
	wholeWords := make(map[string]*regexp.Regexp, len(opts.WholeWords))
	for kw := range opts.WholeWords {
		if kw == "" {
			continue
		}
		wholeWords[strings.ToLower(kw)] = wordExpr(kw)
	}

	negation := opts.Negation
	if negation == nil {
		negation = NewPhrasePolicy(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	return &Categorizer{
		wholeWords:    wholeWords,
		negation:      negation,
		perOccurrence: opts.PerOccurrence,
		logger:        logger,
	}
}

// Categorize returns the sorted set of category labels matched in text.
// The first matching keyword per category registers it; remaining keywords
// for that category add nothing. With filterFalsePositives set, each
// keyword match is checked against the negation policy before the category
// registers. Empty text yields an empty result.
func (c *Categorizer) Categorize(text string, set *domain.KeywordSet, filterFalsePositives bool) []string {
	if text == "" || set == nil {
		return nil
	}

	lower := strings.ToLower(NormalizeText(text))

	labels := make([]string, 0, 4)
	for i := range set.Categories {
		cat := &set.Categories[i]
		for _, kw := range cat.Keywords {
			if kw == "" {
				continue
			}
			if !c.matches(lower, kw) {
				continue
			}
			if filterFalsePositives && c.suppressed(text, kw) {
				c.logger.Debug("match suppressed as false positive",
					"category", cat.Label, "keyword", kw)
				continue
			}
			labels = append(labels, cat.Label)
			break
		}
	}

	sort.Strings(labels)
	return labels
}

// CategorizeDetailed returns every triggering keyword per matched label.
// Diagnostic output collects all triggers rather than reporting a single
// "winning" keyword, so results never depend on declaration order.
func (c *Categorizer) CategorizeDetailed(text string, set *domain.KeywordSet, filterFalsePositives bool) map[string][]string {
	if text == "" || set == nil {
		return nil
	}

	lower := strings.ToLower(NormalizeText(text))

	detailed := make(map[string][]string)
	for i := range set.Categories {
		cat := &set.Categories[i]
		for _, kw := range cat.Keywords {
			if kw == "" || !c.matches(lower, kw) {
				continue
			}
			if filterFalsePositives && c.suppressed(text, kw) {
				continue
			}
			detailed[cat.Label] = append(detailed[cat.Label], kw)
		}
	}

	if len(detailed) == 0 {
		return nil
	}
	return detailed
}

// matches tests a single keyword against the lowercased text, using the
// precompiled word-boundary expression for registered whole-word triggers
// and plain containment otherwise.
func (c *Categorizer) matches(lower, keyword string) bool {
	kw := strings.ToLower(keyword)
	if re, ok := c.wholeWords[kw]; ok {
		return re.MatchString(lower)
	}
	return strings.Contains(lower, kw)
}

// suppressed applies the negation policy. Default mode inspects only the
// first occurrence of the keyword; per-occurrence mode suppresses only when
// every occurrence is negated.
func (c *Categorizer) suppressed(text, keyword string) bool {
	if !c.perOccurrence {
		return c.negation.IsFalsePositive(text, keyword)
	}

	lower := strings.ToLower(text)
	kw := strings.ToLower(keyword)

	// Whole-word triggers enumerate boundary-confirmed spans only; a raw
	// substring hit inside a longer word is not an occurrence.
	if re, ok := c.wholeWords[kw]; ok {
		spans := re.FindAllStringIndex(lower, -1)
		if len(spans) == 0 {
			return false
		}
		for _, span := range spans {
			if !c.negation.Negated(lower, span[0], span[1]) {
				return false
			}
		}
		return true
	}

	idx := strings.Index(lower, kw)
	if idx < 0 {
		// Padded tokens can register without a substring occurrence being
		// locatable here; treat as not negated.
		return false
	}
	for idx >= 0 {
		if !c.negation.Negated(lower, idx, idx+len(kw)) {
			return false
		}
		rest := strings.Index(lower[idx+len(kw):], kw)
		if rest < 0 {
			break
		}
		idx += len(kw) + rest
	}
	return true
}
