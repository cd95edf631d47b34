//nolint:testpackage // Testing internal pipeline wiring
package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clindocs/casenote-classifier/internal/config"
	"github.com/clindocs/casenote-classifier/internal/dictionary"
	"github.com/clindocs/casenote-classifier/internal/domain"
)

type mockLogger struct{}

func (mockLogger) Debug(string, ...any) {}
func (mockLogger) Info(string, ...any)  {}
func (mockLogger) Warn(string, ...any)  {}
func (mockLogger) Error(string, ...any) {}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	reg, err := dictionary.Load()
	require.NoError(t, err)

	p, err := NewPipeline(reg, config.CategorizerConfig{FalsePositiveFiltering: true}, nil, mockLogger{})
	require.NoError(t, err)
	return p
}

func TestPipeline_CategorizeEntry(t *testing.T) {
	p := newTestPipeline(t)

	entry := &domain.NoteEntry{
		ID:   "e1",
		Text: "Patient engaged in self-harm and was verbally aggressive, shouting at staff.",
	}
	result := p.CategorizeEntry(context.Background(), entry, true)

	require.NotNil(t, result.ByDomain)
	assert.Contains(t, result.ByDomain[domain.DomainRisk], "Self-Harm")
	assert.Contains(t, result.ByDomain[domain.DomainBehaviour], "Verbal Aggression")

	require.NotNil(t, result.Incidents)
	assert.Contains(t, result.Incidents.Labels, "Verbal Aggression")
	assert.Contains(t, result.Incidents.Context, "[[")

	// Entry categories carry the union of all matched labels.
	assert.Contains(t, entry.Categories, "Self-Harm")
	assert.Contains(t, entry.Categories, "Verbal Aggression")
	assert.IsIncreasing(t, entry.Categories)
}

func TestPipeline_NegationSuppresses(t *testing.T) {
	p := newTestPipeline(t)

	entry := &domain.NoteEntry{
		ID:   "e2",
		Text: "There was no evidence of self-harm today.",
	}
	result := p.CategorizeEntry(context.Background(), entry, true)

	assert.Empty(t, result.ByDomain, "negated mention must not register a category")
	assert.Nil(t, result.Incidents, "negated incident span must be suppressed")
	assert.Positive(t, result.Suppressed)
	assert.Empty(t, entry.Categories)
}

func TestPipeline_FilterDisabledKeepsMatch(t *testing.T) {
	p := newTestPipeline(t)

	entry := &domain.NoteEntry{
		ID:   "e3",
		Text: "There was no evidence of self-harm today.",
	}
	result := p.CategorizeEntry(context.Background(), entry, false)

	require.NotNil(t, result.ByDomain)
	assert.Contains(t, result.ByDomain[domain.DomainRisk], "Self-Harm")
	assert.Zero(t, result.Suppressed)
}

func TestPipeline_EmptyEntry(t *testing.T) {
	p := newTestPipeline(t)

	result := p.CategorizeEntry(context.Background(), &domain.NoteEntry{ID: "e4"}, true)
	assert.Empty(t, result.ByDomain)
	assert.Nil(t, result.Incidents)

	result = p.CategorizeEntry(context.Background(), nil, true)
	assert.Nil(t, result.Entry)
}

func TestPipeline_Accessors(t *testing.T) {
	p := newTestPipeline(t)

	assert.True(t, p.FilteringDefault())
	assert.NotNil(t, p.Categorizer())
	assert.NotNil(t, p.Incidents())

	set, ok := p.KeywordSet(domain.DomainRisk)
	require.True(t, ok)
	assert.Equal(t, domain.DomainRisk, set.Domain)

	assert.Contains(t, p.Domains(), domain.DomainBehaviour)
}

func TestNewPipeline_LenientSkipsBadPatterns(t *testing.T) {
	reg, err := dictionary.Load()
	require.NoError(t, err)

	p, err := NewPipeline(reg, config.CategorizerConfig{LenientPatterns: true}, nil, mockLogger{})
	require.NoError(t, err)
	assert.Positive(t, p.Incidents().PatternCount())
}
