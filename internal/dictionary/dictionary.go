// Package dictionary loads the category keyword and incident pattern
// dictionaries. The dictionaries are versioned configuration data, not
// code: YAML resources embedded in the binary, with an optional external
// directory override so clinical-content changes ship without a rebuild.
// A Registry is immutable once loaded and safe for concurrent readers.
package dictionary

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/clindocs/casenote-classifier/internal/domain"
)

//go:embed data/*.yml
var embedded embed.FS

// Reserved resource names within a dictionary directory.
const (
	incidentsFile = "incidents.yml"
	negationFile  = "negation.yml"
)

// negationResource mirrors negation.yml.
type negationResource struct {
	FalsePositivePhrases []string `yaml:"false_positive_phrases"`
	WholeWordKeywords    []string `yaml:"whole_word_keywords"`
	WindowBefore         []string `yaml:"window_before_patterns"`
	WindowAfter          []string `yaml:"window_after_patterns"`
}

// Registry holds every loaded dictionary. All accessors return data that
// must be treated as read-only.
type Registry struct {
	sets         map[string]*domain.KeywordSet
	order        []string
	wholeWords   map[string]struct{}
	phrases      []string
	windowBefore []string
	windowAfter  []string
	incidents    *domain.PatternSet
	colors       map[string]string
}

// Load reads the embedded dictionaries.
func Load() (*Registry, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, fmt.Errorf("open embedded dictionaries: %w", err)
	}
	return loadFS(sub)
}

// LoadDir reads dictionaries from an external directory, overriding the
// embedded set entirely. Used for clinical-content updates between
// releases.
func LoadDir(dir string) (*Registry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("dictionary directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dictionary path %s is not a directory", dir)
	}
	return loadFS(os.DirFS(dir))
}

func loadFS(fsys fs.FS) (*Registry, error) {
	reg := &Registry{
		sets:       make(map[string]*domain.KeywordSet),
		wholeWords: make(map[string]struct{}),
		colors:     make(map[string]string),
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read dictionary directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read dictionary %s: %w", name, err)
		}

		switch name {
		case incidentsFile:
			if err := reg.loadIncidents(data); err != nil {
				return nil, fmt.Errorf("dictionary %s: %w", name, err)
			}
		case negationFile:
			if err := reg.loadNegation(data); err != nil {
				return nil, fmt.Errorf("dictionary %s: %w", name, err)
			}
		default:
			if err := reg.loadKeywordSet(data); err != nil {
				return nil, fmt.Errorf("dictionary %s: %w", name, err)
			}
		}
	}

	if err := reg.validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *Registry) loadKeywordSet(data []byte) error {
	var set domain.KeywordSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	if set.Domain == "" {
		return fmt.Errorf("missing domain key")
	}
	if _, dup := r.sets[set.Domain]; dup {
		return fmt.Errorf("duplicate domain %q", set.Domain)
	}
	if len(set.Categories) == 0 {
		return fmt.Errorf("domain %q has no categories", set.Domain)
	}

	seen := make(map[string]struct{}, len(set.Categories))
	for i := range set.Categories {
		cat := &set.Categories[i]
		if cat.Label == "" {
			return fmt.Errorf("domain %q: category %d has no label", set.Domain, i)
		}
		if _, dup := seen[cat.Label]; dup {
			return fmt.Errorf("domain %q: duplicate category %q", set.Domain, cat.Label)
		}
		seen[cat.Label] = struct{}{}
		if len(cat.Keywords) == 0 {
			return fmt.Errorf("domain %q: category %q has no keywords", set.Domain, cat.Label)
		}
		for _, kw := range cat.Keywords {
			if kw == "" {
				return fmt.Errorf("domain %q: category %q has an empty keyword", set.Domain, cat.Label)
			}
		}
		if cat.Color != "" {
			r.colors[cat.Label] = cat.Color
		}
	}

	r.sets[set.Domain] = &set
	r.order = append(r.order, set.Domain)
	return nil
}

func (r *Registry) loadIncidents(data []byte) error {
	var set domain.PatternSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if len(set.Categories) == 0 {
		return fmt.Errorf("no incident categories")
	}

	for _, cat := range set.Categories {
		if cat.Label == "" {
			return fmt.Errorf("incident category with no label")
		}
		if len(cat.Patterns) == 0 {
			return fmt.Errorf("incident category %q has no patterns", cat.Label)
		}
		for _, pat := range cat.Patterns {
			if _, err := regexp.Compile(pat); err != nil {
				return fmt.Errorf("incident category %q: pattern %q: %w", cat.Label, pat, err)
			}
		}
		if cat.Color != "" {
			r.colors[cat.Label] = cat.Color
		}
	}

	r.incidents = &set
	return nil
}

func (r *Registry) loadNegation(data []byte) error {
	var res negationResource
	if err := yaml.Unmarshal(data, &res); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	for _, phrase := range res.FalsePositivePhrases {
		if phrase == "" {
			return fmt.Errorf("empty false-positive phrase")
		}
	}
	for _, pat := range append(append([]string{}, res.WindowBefore...), res.WindowAfter...) {
		if _, err := regexp.Compile(pat); err != nil {
			return fmt.Errorf("negation window pattern %q: %w", pat, err)
		}
	}

	r.phrases = res.FalsePositivePhrases
	r.windowBefore = res.WindowBefore
	r.windowAfter = res.WindowAfter
	for _, kw := range res.WholeWordKeywords {
		if kw == "" {
			return fmt.Errorf("empty whole-word keyword")
		}
		r.wholeWords[strings.ToLower(kw)] = struct{}{}
	}
	return nil
}

func (r *Registry) validate() error {
	if len(r.sets) == 0 {
		return fmt.Errorf("no keyword dictionaries loaded")
	}
	if r.incidents == nil {
		return fmt.Errorf("missing %s", incidentsFile)
	}
	if len(r.phrases) == 0 {
		return fmt.Errorf("missing or empty %s", negationFile)
	}
	return nil
}

// Keywords returns the keyword set for a domain.
func (r *Registry) Keywords(domainKey string) (*domain.KeywordSet, bool) {
	set, ok := r.sets[domainKey]
	return set, ok
}

// Domains returns the loaded domain keys in load order.
func (r *Registry) Domains() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Sets returns every keyword set in load order.
func (r *Registry) Sets() []*domain.KeywordSet {
	out := make([]*domain.KeywordSet, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.sets[key])
	}
	return out
}

// WholeWords returns the triggers restricted to word-boundary matching.
func (r *Registry) WholeWords() map[string]struct{} {
	return r.wholeWords
}

// FalsePositivePhrases returns the antecedent phrases for the phrase
// negation policy.
func (r *Registry) FalsePositivePhrases() []string {
	return r.phrases
}

// WindowPatterns returns the before/after negation regex sources for the
// window negation policy.
func (r *Registry) WindowPatterns() (before, after []string) {
	return r.windowBefore, r.windowAfter
}

// Incidents returns the incident pattern set.
func (r *Registry) Incidents() *domain.PatternSet {
	return r.incidents
}

// ColorFor returns the display color configured for a category label, or
// the empty string. Cosmetic; the UI layer may ignore it.
func (r *Registry) ColorFor(label string) string {
	return r.colors[label]
}

// Describe summarizes the registry for logs and the dictionaries API.
func (r *Registry) Describe() map[string]int {
	summary := make(map[string]int, len(r.sets))
	for key, set := range r.sets {
		summary[key] = len(set.Categories)
	}
	return summary
}

// resolvePath is a small helper for configs that pass relative dictionary
// directories.
func resolvePath(dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

// LoadFrom loads the external directory when set, otherwise the embedded
// dictionaries.
func LoadFrom(dir string) (*Registry, error) {
	if dir == "" {
		return Load()
	}
	return LoadDir(resolvePath(dir))
}
