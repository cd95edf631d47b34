// Package processor runs note entries through the categorization
// pipeline, in parallel for batch workloads.
package processor

import (
	"context"
	"sort"
	"time"

	"github.com/clindocs/casenote-classifier/internal/categorizer"
	"github.com/clindocs/casenote-classifier/internal/config"
	"github.com/clindocs/casenote-classifier/internal/dictionary"
	"github.com/clindocs/casenote-classifier/internal/domain"
	"github.com/clindocs/casenote-classifier/internal/telemetry"
)

// Logger defines the logging interface.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Pipeline composes the prescan, keyword categorizer, and incident
// matcher built from one dictionary registry. It is immutable after
// construction and safe for concurrent use.
type Pipeline struct {
	sets      []*domain.KeywordSet
	byDomain  map[string]*domain.KeywordSet
	cat       *categorizer.Categorizer
	incidents *categorizer.IncidentMatcher
	prescan   *categorizer.PrescanEngine
	filter    bool
	tel       *telemetry.Provider
	logger    Logger
}

// NewPipeline builds the matching pipeline from loaded dictionaries.
// With LenientPatterns set, unparsable incident patterns are skipped
// instead of refusing to start.
func NewPipeline(
	reg *dictionary.Registry,
	cfg config.CategorizerConfig,
	tel *telemetry.Provider,
	logger Logger,
) (*Pipeline, error) {
	cat := categorizer.New(categorizer.Options{
		WholeWords:    reg.WholeWords(),
		Negation:      categorizer.NewPhrasePolicy(reg.FalsePositivePhrases()),
		PerOccurrence: cfg.PerOccurrence,
		Logger:        logger,
	})

	before, after := reg.WindowPatterns()
	window, err := categorizer.NewWindowPolicy(before, after)
	if err != nil {
		return nil, err
	}

	var incidents *categorizer.IncidentMatcher
	if cfg.LenientPatterns {
		incidents = categorizer.NewIncidentMatcherLenient(reg.Incidents(), window, logger)
	} else {
		incidents, err = categorizer.NewIncidentMatcher(reg.Incidents(), window, logger)
		if err != nil {
			return nil, err
		}
	}

	sets := reg.Sets()
	byDomain := make(map[string]*domain.KeywordSet, len(sets))
	for _, set := range sets {
		byDomain[set.Domain] = set
	}

	return &Pipeline{
		sets:      sets,
		byDomain:  byDomain,
		cat:       cat,
		incidents: incidents,
		prescan:   categorizer.NewPrescanEngine(sets, logger),
		filter:    cfg.FalsePositiveFiltering,
		tel:       tel,
		logger:    logger,
	}, nil
}

// Categorizer exposes the keyword matcher for single-domain calls.
func (p *Pipeline) Categorizer() *categorizer.Categorizer {
	return p.cat
}

// Incidents exposes the incident matcher.
func (p *Pipeline) Incidents() *categorizer.IncidentMatcher {
	return p.incidents
}

// KeywordSet returns the dictionary for one domain.
func (p *Pipeline) KeywordSet(domainKey string) (*domain.KeywordSet, bool) {
	set, ok := p.byDomain[domainKey]
	return set, ok
}

// Domains returns the loaded domain keys.
func (p *Pipeline) Domains() []string {
	keys := make([]string, 0, len(p.sets))
	for _, set := range p.sets {
		keys = append(keys, set.Domain)
	}
	return keys
}

// FilteringDefault reports whether false-positive filtering is on by
// default for this deployment.
func (p *Pipeline) FilteringDefault() bool {
	return p.filter
}

// CategorizeEntry runs one note entry through every candidate domain and
// the incident matcher. The prescan rules out domains that cannot match;
// the incident matcher always runs because its patterns are not keyword
// anchored. Suppressed counts category labels removed by negation
// filtering.
func (p *Pipeline) CategorizeEntry(ctx context.Context, entry *domain.NoteEntry, filter bool) *domain.EntryResult {
	result := &domain.EntryResult{Entry: entry}
	if entry == nil || entry.Text == "" {
		return result
	}

	start := time.Now()
	candidates := p.prescan.CandidateDomains(entry.Text)
	if len(candidates) == 0 && p.tel != nil {
		p.tel.RecordPrescanSkip(ctx)
	}

	all := make(map[string]struct{})
	for _, key := range candidates {
		set := p.byDomain[key]
		labels := p.cat.Categorize(entry.Text, set, filter)
		if filter {
			unfiltered := p.cat.Categorize(entry.Text, set, false)
			result.Suppressed += len(unfiltered) - len(labels)
		}
		if len(labels) == 0 {
			continue
		}
		if result.ByDomain == nil {
			result.ByDomain = make(map[string][]string)
		}
		result.ByDomain[key] = labels
		for _, label := range labels {
			all[label] = struct{}{}
		}
		if p.tel != nil {
			p.tel.RecordCategories(ctx, key, len(labels))
		}
	}

	if incidents := p.incidents.CategorizeWithContext(entry.Text); incidents != nil {
		result.Incidents = incidents
		for _, label := range incidents.Labels {
			all[label] = struct{}{}
			if p.tel != nil {
				p.tel.RecordIncident(ctx, label)
			}
		}
	}

	entry.Categories = entry.Categories[:0]
	for label := range all {
		entry.Categories = append(entry.Categories, label)
	}
	sort.Strings(entry.Categories)

	if p.tel != nil {
		p.tel.RecordMatch(ctx, time.Since(start), p.prescan.KeywordCount())
		for range result.Suppressed {
			p.tel.RecordSuppression(ctx)
		}
	}
	return result
}
