//nolint:testpackage // Testing internal matching requires same package access
package categorizer

import (
	"slices"
	"testing"

	"github.com/clindocs/casenote-classifier/internal/domain"
)

// mockLogger captures nothing; it satisfies the Logger interface for tests.
type mockLogger struct{}

func (mockLogger) Debug(string, ...any) {}
func (mockLogger) Info(string, ...any)  {}
func (mockLogger) Warn(string, ...any)  {}
func (mockLogger) Error(string, ...any) {}

func testRiskSet() *domain.KeywordSet {
	return &domain.KeywordSet{
		Domain: "risk",
		Categories: []domain.KeywordCategory{
			{Label: "Self-Harm", Keywords: []string{"self-harm", "self harm", "ligature"}},
			{Label: "Violence", Keywords: []string{"violence", "violent", "assault"}},
			{Label: "Suicide", Keywords: []string{"suicide", "suicidal"}},
		},
	}
}

func testPhrases() []string {
	return []string{"no ", "denies", "denied", "was not", "no evidence of", "history of", "risk of", "potential for", "remained calm"}
}

func newTestCategorizer(perOccurrence bool) *Categorizer {
	return New(Options{
		WholeWords:    map[string]struct{}{"visor": {}, "nps": {}, "charged": {}},
		Negation:      NewPhrasePolicy(testPhrases()),
		PerOccurrence: perOccurrence,
		Logger:        mockLogger{},
	})
}

func TestCategorize_NegationSuppressesMatch(t *testing.T) {
	c := newTestCategorizer(false)

	labels := c.Categorize("There was no self-harm noted.", testRiskSet(), true)
	if slices.Contains(labels, "Self-Harm") {
		t.Errorf("negated self-harm should be suppressed, got %v", labels)
	}

	labels = c.Categorize("Patient engaged in self-harm yesterday.", testRiskSet(), true)
	if !slices.Contains(labels, "Self-Harm") {
		t.Errorf("asserted self-harm should register, got %v", labels)
	}
}

func TestCategorize_NegationDisabledKeepsMatch(t *testing.T) {
	c := newTestCategorizer(false)

	labels := c.Categorize("There was no self-harm noted.", testRiskSet(), false)
	if !slices.Contains(labels, "Self-Harm") {
		t.Errorf("without filtering the raw match should register, got %v", labels)
	}
}

func TestCategorize_AntecedentPhraseBeforeKeyword(t *testing.T) {
	c := newTestCategorizer(false)

	// "risk of" sits immediately before "violence" within the look-back
	// window, so the Violence category must not register.
	labels := c.Categorize("Risk assessment indicated a risk of violence if discharged.", testRiskSet(), true)
	if slices.Contains(labels, "Violence") {
		t.Errorf("\"risk of violence\" should be suppressed, got %v", labels)
	}
}

func TestCategorize_FirstOccurrenceOnlyByDefault(t *testing.T) {
	c := newTestCategorizer(false)

	// First occurrence negated, second asserted. The default policy only
	// inspects the first occurrence, so the category stays suppressed.
	text := "He denied violence at interview. Later that day he was violent towards staff. violence was recorded."
	labels := c.Categorize(text, testRiskSet(), true)
	if slices.Contains(labels, "Violence") {
		t.Errorf("default mode inspects only the first occurrence, got %v", labels)
	}
}

func TestCategorize_PerOccurrenceMode(t *testing.T) {
	c := newTestCategorizer(true)

	// Per-occurrence mode finds a later un-negated occurrence, provided it
	// falls outside the look-back window of the negating phrase.
	text := "He denied violence at interview and presented as settled throughout the whole of the day. That evening violence towards staff was witnessed by two nurses."
	labels := c.Categorize(text, testRiskSet(), true)
	if !slices.Contains(labels, "Violence") {
		t.Errorf("per-occurrence mode should register the un-negated occurrence, got %v", labels)
	}

	// All occurrences negated: still suppressed.
	text = "He denied violence. Staff found no evidence of violence on the ward."
	labels = c.Categorize(text, testRiskSet(), true)
	if slices.Contains(labels, "Violence") {
		t.Errorf("per-occurrence mode should suppress when every occurrence is negated, got %v", labels)
	}
}

func TestCategorize_PerOccurrenceWholeWord(t *testing.T) {
	c := New(Options{
		WholeWords:    map[string]struct{}{"hit": {}},
		Negation:      NewPhrasePolicy(testPhrases()),
		PerOccurrence: true,
		Logger:        mockLogger{},
	})

	set := &domain.KeywordSet{
		Domain: "behaviour",
		Categories: []domain.KeywordCategory{
			{Label: "Physical Aggression", Keywords: []string{"hit"}},
		},
	}

	// The only word-boundary occurrence is negated; "hit" embedded in
	// "whiteboard" is not an occurrence and must not revive the category.
	text := "He was not hit during the incident. Later the whiteboard was wiped clean."
	labels := c.Categorize(text, set, true)
	if slices.Contains(labels, "Physical Aggression") {
		t.Errorf("embedded substring must not count as an occurrence, got %v", labels)
	}

	labels = c.Categorize("He hit a nurse and the whiteboard was damaged.", set, true)
	if !slices.Contains(labels, "Physical Aggression") {
		t.Errorf("asserted whole-word occurrence should register, got %v", labels)
	}
}

func TestCategorize_MultiCategoryFragment(t *testing.T) {
	c := newTestCategorizer(false)

	behaviourSet := &domain.KeywordSet{
		Domain: "behaviour",
		Categories: []domain.KeywordCategory{
			{Label: "Absconding", Keywords: []string{"absconded", "awol"}},
			{Label: "Verbal Aggression", Keywords: []string{"threatened", "verbally abusive"}},
		},
	}

	text := "He absconded from the ward and later threatened staff on his return."
	labels := c.Categorize(text, behaviourSet, true)

	if !slices.Contains(labels, "Absconding") {
		t.Errorf("expected Absconding in %v", labels)
	}
	if !slices.Contains(labels, "Verbal Aggression") {
		t.Errorf("expected Verbal Aggression in %v", labels)
	}
}

func TestCategorize_Deterministic(t *testing.T) {
	c := newTestCategorizer(false)
	text := "Suicidal ideation with a history of violence and recent self-harm."

	first := c.Categorize(text, testRiskSet(), true)
	second := c.Categorize(text, testRiskSet(), true)

	if !slices.Equal(first, second) {
		t.Errorf("identical inputs must return identical sets: %v vs %v", first, second)
	}
}

func TestCategorize_UniqueLabels(t *testing.T) {
	c := newTestCategorizer(false)

	// Both keywords of the category occur; the label must appear once.
	labels := c.Categorize("Violent conduct escalating to violence.", testRiskSet(), false)

	count := 0
	for _, l := range labels {
		if l == "Violence" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected Violence exactly once, got %v", labels)
	}
}

func TestCategorize_EmptyInput(t *testing.T) {
	c := newTestCategorizer(false)

	if labels := c.Categorize("", testRiskSet(), true); len(labels) != 0 {
		t.Errorf("empty text must yield an empty set, got %v", labels)
	}
	if labels := c.Categorize("some text", nil, true); len(labels) != 0 {
		t.Errorf("nil set must yield an empty set, got %v", labels)
	}
}

func TestCategorize_WholeWordTrigger(t *testing.T) {
	c := newTestCategorizer(false)

	forensicSet := &domain.KeywordSet{
		Domain: "forensic",
		Categories: []domain.KeywordCategory{
			{Label: "Charges", Keywords: []string{"charged"}},
			{Label: "ViSOR", Keywords: []string{"visor"}},
		},
	}

	labels := c.Categorize("He was discharged from the supervisor's caseload.", forensicSet, false)
	if len(labels) != 0 {
		t.Errorf("whole-word triggers must not fire inside longer words, got %v", labels)
	}

	labels = c.Categorize("He was charged and placed on ViSOR.", forensicSet, false)
	if !slices.Contains(labels, "Charges") || !slices.Contains(labels, "ViSOR") {
		t.Errorf("expected both whole-word categories, got %v", labels)
	}
}

func TestCategorize_DiacriticsNormalized(t *testing.T) {
	c := newTestCategorizer(false)

	set := &domain.KeywordSet{
		Domain: "substance",
		Categories: []domain.KeywordCategory{
			{Label: "Alcohol", Keywords: []string{"cafe incident"}},
		},
	}

	labels := c.Categorize("Review of the café incident last week.", set, false)
	if !slices.Contains(labels, "Alcohol") {
		t.Errorf("accented input should match plain dictionary spelling, got %v", labels)
	}
}

func TestCategorizeDetailed_CollectsAllTriggers(t *testing.T) {
	c := newTestCategorizer(false)

	detailed := c.CategorizeDetailed("Violent conduct escalating to violence.", testRiskSet(), false)
	if detailed == nil {
		t.Fatal("expected a detailed result")
	}

	triggers := detailed["Violence"]
	if !slices.Contains(triggers, "violence") || !slices.Contains(triggers, "violent") {
		t.Errorf("expected both triggering keywords recorded, got %v", triggers)
	}
}
