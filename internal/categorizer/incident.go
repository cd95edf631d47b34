package categorizer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/clindocs/casenote-classifier/internal/domain"
)

// IncidentMatcher detects incident-level categories (physical aggression,
// self-harm, absconsion, ...) using curated co-occurrence regexes. A bare
// keyword is too noisy at incident level; each pattern requires contextual
// co-occurrence, e.g. verb plus target. Matches are checked against a
// window negation policy before they register.
type IncidentMatcher struct {
	categories []incidentCategory
	negation   NegationPolicy
	logger     Logger
}

type incidentCategory struct {
	label    string
	patterns []*regexp.Regexp
}

// NewIncidentMatcher compiles the pattern set once, at load time. A
// malformed pattern is a configuration fault: the whole set is rejected
// rather than silently skipped.
func NewIncidentMatcher(set *domain.PatternSet, negation NegationPolicy, logger Logger) (*IncidentMatcher, error) {
	if set == nil || len(set.Categories) == 0 {
		return nil, fmt.Errorf("incident pattern set is empty")
	}
	if logger == nil {
		logger = nopLogger{}
	}

	matcher := &IncidentMatcher{negation: negation, logger: logger}
	for _, cat := range set.Categories {
		if cat.Label == "" {
			return nil, fmt.Errorf("incident category with empty label")
		}
		if len(cat.Patterns) == 0 {
			return nil, fmt.Errorf("incident category %q has no patterns", cat.Label)
		}
		compiled := make([]*regexp.Regexp, 0, len(cat.Patterns))
		for _, pat := range cat.Patterns {
			re, err := regexp.Compile(pat)
			if err != nil {
				return nil, fmt.Errorf("incident category %q: compile %q: %w", cat.Label, pat, err)
			}
			compiled = append(compiled, re)
		}
		matcher.categories = append(matcher.categories, incidentCategory{label: cat.Label, patterns: compiled})
	}

	return matcher, nil
}

// NewIncidentMatcherLenient compiles the pattern set from an unvetted
// runtime source. Patterns that fail to compile are skipped with a warning
// instead of rejecting the set; this silently degrades detection quality,
// which is why it is logged and why vetted dictionaries must go through
// NewIncidentMatcher instead.
func NewIncidentMatcherLenient(set *domain.PatternSet, negation NegationPolicy, logger Logger) *IncidentMatcher {
	if logger == nil {
		logger = nopLogger{}
	}

	matcher := &IncidentMatcher{negation: negation, logger: logger}
	if set == nil {
		return matcher
	}
	for _, cat := range set.Categories {
		if cat.Label == "" {
			continue
		}
		compiled := make([]*regexp.Regexp, 0, len(cat.Patterns))
		for _, pat := range cat.Patterns {
			re, err := regexp.Compile(pat)
			if err != nil {
				logger.Warn("skipping unparsable incident pattern",
					"category", cat.Label, "pattern", pat, "error", err)
				continue
			}
			compiled = append(compiled, re)
		}
		if len(compiled) == 0 {
			continue
		}
		matcher.categories = append(matcher.categories, incidentCategory{label: cat.Label, patterns: compiled})
	}

	return matcher
}

// Labels returns the incident category labels in declaration order.
func (m *IncidentMatcher) Labels() []string {
	labels := make([]string, 0, len(m.categories))
	for _, cat := range m.categories {
		labels = append(labels, cat.label)
	}
	return labels
}

// PatternCount returns the total number of compiled patterns.
func (m *IncidentMatcher) PatternCount() int {
	n := 0
	for _, cat := range m.categories {
		n += len(cat.patterns)
	}
	return n
}

// Categorize returns the sorted incident labels matched in text, after
// negation filtering. Empty text yields an empty result.
func (m *IncidentMatcher) Categorize(text string) []string {
	if text == "" {
		return nil
	}

	normalized := NormalizeText(text)

	labels := make([]string, 0, 2)
	for _, cat := range m.categories {
		if m.categoryMatches(normalized, cat) {
			labels = append(labels, cat.label)
		}
	}

	sort.Strings(labels)
	return labels
}

func (m *IncidentMatcher) categoryMatches(text string, cat incidentCategory) bool {
	for _, re := range cat.patterns {
		for _, span := range re.FindAllStringIndex(text, -1) {
			if m.negation != nil && m.negation.Negated(text, span[0], span[1]) {
				continue
			}
			return true
		}
	}
	return false
}

// CategorizeWithContext matches line by line so a surrounding window can be
// built around each matching line for human review. Returns nil when
// nothing matches after negation filtering; for typical clinical notes that
// is the common outcome, not a failure.
func (m *IncidentMatcher) CategorizeWithContext(text string) *domain.MatchResult {
	if text == "" {
		return nil
	}

	lines := strings.Split(NormalizeText(text), "\n")

	labelSet := make(map[string]struct{})
	lineSpans := make(map[int][][]int)
	for lineIdx, line := range lines {
		for _, cat := range m.categories {
			for _, re := range cat.patterns {
				for _, span := range re.FindAllStringIndex(line, -1) {
					if m.negation != nil && m.negation.Negated(line, span[0], span[1]) {
						continue
					}
					labelSet[cat.label] = struct{}{}
					lineSpans[lineIdx] = append(lineSpans[lineIdx], span)
				}
			}
		}
	}

	if len(labelSet) == 0 {
		return nil
	}

	labels := make([]string, 0, len(labelSet))
	for label := range labelSet {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	return &domain.MatchResult{
		Labels:  labels,
		Context: buildContext(lines, lineSpans),
	}
}
