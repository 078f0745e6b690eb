// Package identify assigns a jet category to free-text spotting reports using an
// ordered table of pattern and keyword rules.
package identify

import (
	"fmt"
	"strings"

	"github.com/Veraticus/aviation-bay/internal/model"
)

// Rule maps name patterns and description keywords to a category.
type Rule struct {
	Category       model.Category   `yaml:"category" json:"category"`
	Patterns       []string         `yaml:"patterns" json:"patterns"`
	Keywords       []string         `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	PriorityHints  []model.Priority `yaml:"priority_hints,omitempty" json:"priority_hints,omitempty"`
	BaseConfidence float64          `yaml:"confidence" json:"confidence"`
}

// DefaultRules returns a fresh copy of the built-in rule table.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category:       model.CategoryFighterJet,
			Patterns:       []string{"fighter", "f16", "mig", "rafale", "hornet"},
			Keywords:       []string{"supersonic", "combat", "stealth", "wings", "missile"},
			PriorityHints:  []model.Priority{model.PriorityUrgent, model.PriorityHigh},
			BaseConfidence: 0.98,
		},
		{
			Category:       model.CategoryAirliner,
			Patterns:       []string{"airbus", "boeing", "commercial", "737", "a320", "passenger"},
			Keywords:       []string{"passenger", "airbus", "boeing", "flight", "route"},
			PriorityHints:  []model.Priority{model.PriorityMedium, model.PriorityHigh},
			BaseConfidence: 0.97,
		},
		{
			Category:       model.CategoryHelicopter,
			Patterns:       []string{"helicopter", "apache", "bell", "rotor", "chopper"},
			Keywords:       []string{"rotor", "vertical", "chopper", "hover"},
			PriorityHints:  []model.Priority{model.PriorityMedium, model.PriorityUrgent},
			BaseConfidence: 0.96,
		},
		{
			Category:       model.CategoryDrone,
			Patterns:       []string{"drone", "uav", "quadcopter"},
			Keywords:       []string{"remote", "quadcopter", "uav", "drone"},
			PriorityHints:  []model.Priority{model.PriorityMedium, model.PriorityLow},
			BaseConfidence: 0.93,
		},
		{
			Category:       model.CategoryCargo,
			Patterns:       []string{"cargo", "freighter"},
			Keywords:       []string{"cargo", "freighter", "goods", "transport"},
			PriorityHints:  []model.Priority{model.PriorityMedium, model.PriorityLow},
			BaseConfidence: 0.90,
		},
	}
}

// Validate checks that a rule can take part in identification.
func (r Rule) Validate() error {
	if !r.Category.Valid() {
		return fmt.Errorf("unknown category %q", r.Category)
	}
	if len(r.Patterns) == 0 {
		return fmt.Errorf("category %s: at least one pattern is required", r.Category)
	}
	for _, p := range r.Patterns {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("category %s: empty pattern", r.Category)
		}
	}
	for _, k := range r.Keywords {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("category %s: empty keyword", r.Category)
		}
	}
	for _, p := range r.PriorityHints {
		if !p.Known() {
			return fmt.Errorf("category %s: unknown priority hint %q", r.Category, p)
		}
	}
	if r.BaseConfidence < 0 || r.BaseConfidence > 1 {
		return fmt.Errorf("category %s: confidence %.2f outside [0,1]", r.Category, r.BaseConfidence)
	}
	return nil
}

// normalized returns a copy with lowercased, trimmed terms.
func (r Rule) normalized() Rule {
	out := Rule{
		Category:       r.Category,
		BaseConfidence: r.BaseConfidence,
		Patterns:       make([]string, len(r.Patterns)),
		Keywords:       make([]string, len(r.Keywords)),
		PriorityHints:  append([]model.Priority(nil), r.PriorityHints...),
	}
	for i, p := range r.Patterns {
		out.Patterns[i] = strings.ToLower(strings.TrimSpace(p))
	}
	for i, k := range r.Keywords {
		out.Keywords[i] = strings.ToLower(strings.TrimSpace(k))
	}
	return out
}

func (r Rule) hints(p model.Priority) bool {
	for _, h := range r.PriorityHints {
		if h == p {
			return true
		}
	}
	return false
}
