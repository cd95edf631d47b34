package categorizer

import (
	"fmt"
	"regexp"
	"strings"
)

// Default window sizes in characters.
const (
	// DefaultLookback is how far back the phrase policy looks for an
	// antecedent phrase before a matched keyword.
	DefaultLookback = 60
	// DefaultWindow is how far either side of a matched span the window
	// policy applies its negation patterns.
	DefaultWindow = 50
)

// NegationPolicy decides whether a matched span should be suppressed
// because the surrounding language negates or merely contemplates the
// concept rather than asserting it occurred. Two strategies exist:
// PhrasePolicy (antecedent phrase look-back, used by the keyword
// Categorizer) and WindowPolicy (curated regex window check, used by the
// IncidentMatcher). They evolved independently against the same problem;
// both satisfy this interface so callers pick a strategy rather than guess
// which one "the" negation filter is.
type NegationPolicy interface {
	// Negated reports whether the span [start,end) of text is negated.
	Negated(text string, start, end int) bool
}

// PhrasePolicy suppresses a match when any configured phrase occurs in the
// look-back window immediately preceding it ("no evidence of", "denied",
// "risk of", ...).
type PhrasePolicy struct {
	Phrases  []string
	Lookback int
}

// NewPhrasePolicy builds a phrase policy with the default look-back window.
func NewPhrasePolicy(phrases []string) *PhrasePolicy {
	return &PhrasePolicy{Phrases: phrases, Lookback: DefaultLookback}
}

// Negated reports whether the look-back window before start contains any
// configured antecedent phrase.
func (p *PhrasePolicy) Negated(text string, start, _ int) bool {
	lookback := p.Lookback
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	from := start - lookback
	if from < 0 {
		from = 0
	}
	window := strings.ToLower(text[from:start])
	for _, phrase := range p.Phrases {
		if phrase == "" {
			continue
		}
		if strings.Contains(window, phrase) {
			return true
		}
	}
	return false
}

// IsFalsePositive reports whether the first case-insensitive occurrence of
// keyword in text sits in a negated context. Only the first occurrence is
// inspected: if the keyword recurs later in non-negated form, the match
// stays suppressed. Downstream report sections depend on this behaviour, so
// it is preserved deliberately; the Categorizer's PerOccurrence option
// selects the stricter per-occurrence interpretation instead.
func (p *PhrasePolicy) IsFalsePositive(text, keyword string) bool {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, strings.ToLower(keyword))
	if idx < 0 {
		return false
	}
	return p.Negated(lower, idx, idx+len(keyword))
}

// WindowPolicy suppresses a match when curated negation regexes apply to
// the text surrounding the span. Richer than PhrasePolicy because incident
// text carries hypothetical clinical phrasing ("risk assessment showed no
// evidence of further aggression") that a bare phrase list cannot separate
// from assertions.
type WindowPolicy struct {
	Window int
	before []*regexp.Regexp
	after  []*regexp.Regexp
}

// NewWindowPolicy compiles the before/after negation patterns. Before
// patterns run against the window ending at the span (anchor with `$` to
// require adjacency); after patterns run against the window following it.
// A malformed pattern is a configuration fault and rejects the policy.
func NewWindowPolicy(before, after []string) (*WindowPolicy, error) {
	w := &WindowPolicy{Window: DefaultWindow}
	for _, pat := range before {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("negation window pattern %q: %w", pat, err)
		}
		w.before = append(w.before, re)
	}
	for _, pat := range after {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("negation window pattern %q: %w", pat, err)
		}
		w.after = append(w.after, re)
	}
	return w, nil
}

// Negated reports whether any negation pattern applies to the text
// surrounding the span [start,end).
func (w *WindowPolicy) Negated(text string, start, end int) bool {
	window := w.Window
	if window <= 0 {
		window = DefaultWindow
	}
	from := start - window
	if from < 0 {
		from = 0
	}
	to := end + window
	if to > len(text) {
		to = len(text)
	}
	beforeText := text[from:start]
	afterText := text[end:to]
	for _, re := range w.before {
		if re.MatchString(beforeText) {
			return true
		}
	}
	for _, re := range w.after {
		if re.MatchString(afterText) {
			return true
		}
	}
	return false
}
