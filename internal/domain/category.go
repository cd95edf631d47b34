// Package domain defines the core types shared across the categorization service.
package domain

// KeywordCategory is one category within a keyword set: a stable label and
// the ordered trigger phrases that register it. Keywords are stored
// lowercase; deliberately padded tokens (" vlo ") are legal and preserved.
type KeywordCategory struct {
	Label    string   `json:"label"    yaml:"label"`
	Keywords []string `json:"keywords" yaml:"keywords"`
	Color    string   `json:"color,omitempty" yaml:"color,omitempty"`
}

// KeywordSet is the per-domain category dictionary. It is immutable
// configuration data: loaded once, never mutated at runtime.
type KeywordSet struct {
	Domain     string            `json:"domain"     yaml:"domain"`
	Categories []KeywordCategory `json:"categories" yaml:"categories"`
}

// Category returns the category with the given label, if present.
func (s *KeywordSet) Category(label string) (*KeywordCategory, bool) {
	for i := range s.Categories {
		if s.Categories[i].Label == label {
			return &s.Categories[i], true
		}
	}
	return nil, false
}

// Labels returns the category labels in declaration order.
func (s *KeywordSet) Labels() []string {
	labels := make([]string, 0, len(s.Categories))
	for i := range s.Categories {
		labels = append(labels, s.Categories[i].Label)
	}
	return labels
}

// PatternCategory is one incident category: a label and the ordered
// co-occurrence regex patterns that detect it. Bare keywords are too noisy
// for incident-level categories, so each pattern requires contextual
// co-occurrence (actor/action/target).
type PatternCategory struct {
	Label    string   `json:"label"    yaml:"label"`
	Patterns []string `json:"patterns" yaml:"patterns"`
	Color    string   `json:"color,omitempty" yaml:"color,omitempty"`
}

// PatternSet holds the incident pattern categories in declaration order.
type PatternSet struct {
	Categories []PatternCategory `json:"categories" yaml:"categories"`
}

// Well-known domain keys for the embedded dictionaries.
const (
	DomainBehaviour = "behaviour"
	DomainRisk      = "risk"
	DomainAttitude  = "attitude"
	DomainMAPPA     = "mappa"
	DomainVictims   = "victims"
	DomainSubstance = "substance"
	DomainForensic  = "forensic"
)
