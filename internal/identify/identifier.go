package identify

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/aviation-bay/internal/model"
)

// MinDirectMatchLength is the shortest normalized name that may match a rule by
// being contained in one of its patterns. Shorter names only match when a
// pattern is contained in them.
const MinDirectMatchLength = 3

// Scores are kept in tenths so that threshold comparisons are exact.
const (
	patternPoints        = 3
	keywordPoints        = 2
	priorityPoints       = 1
	keywordThreshold     = 3
	maxKeywordConfidence = 0.98
	defaultConfidence    = 0.5
)

// Tier identifies which stage of identification produced a result.
type Tier string

// Tier constants.
const (
	TierDirect   Tier = "direct"
	TierKeyword  Tier = "keyword"
	TierPriority Tier = "priority"
)

// priorityDefaults is ordered; alternatives for the fallback tier follow it.
var priorityDefaults = []struct {
	priority model.Priority
	category model.Category
}{
	{model.PriorityUrgent, model.CategoryFighterJet},
	{model.PriorityHigh, model.CategoryAirliner},
	{model.PriorityMedium, model.CategoryHelicopter},
	{model.PriorityLow, model.CategoryDrone},
}

// Identifier classifies reports against an immutable rule table. It holds no
// mutable state and is safe for concurrent use.
type Identifier struct {
	rules []Rule
}

// New validates rules and returns an Identifier that owns a normalized copy.
func New(rules []Rule) (*Identifier, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("rule table is empty")
	}

	owned := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		owned = append(owned, r.normalized())
	}

	return &Identifier{rules: owned}, nil
}

// Default returns an Identifier over DefaultRules.
func Default() *Identifier {
	id, err := New(DefaultRules())
	if err != nil {
		panic(fmt.Sprintf("built-in rule table is invalid: %v", err))
	}
	return id
}

// Rules returns a copy of the rule table in declaration order.
func (id *Identifier) Rules() []Rule {
	out := make([]Rule, len(id.rules))
	for i, r := range id.rules {
		out[i] = r.normalized()
	}
	return out
}

// Classify assigns a category to the report. It always returns a result.
func (id *Identifier) Classify(report model.Report) model.ClassificationResult {
	result, _ := id.ClassifyWithTier(report)
	return result
}

// ClassifyContext is Classify for callers that thread a context through every
// call. Classification never blocks, so ctx is ignored.
func (id *Identifier) ClassifyContext(_ context.Context, report model.Report) model.ClassificationResult {
	return id.Classify(report)
}

// ClassifyWithTier is Classify that also reports which tier decided.
func (id *Identifier) ClassifyWithTier(report model.Report) (model.ClassificationResult, Tier) {
	if result, ok := id.directMatch(report.Name); ok {
		return result, TierDirect
	}
	if result, ok := id.keywordMatch(report); ok {
		return result, TierKeyword
	}
	return priorityDefault(report.Priority), TierPriority
}

func (id *Identifier) directMatch(name string) (model.ClassificationResult, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return model.ClassificationResult{}, false
	}
	reverse := utf8.RuneCountInString(normalized) >= MinDirectMatchLength

	for _, rule := range id.rules {
		for _, pattern := range rule.Patterns {
			if strings.Contains(normalized, pattern) || (reverse && strings.Contains(pattern, normalized)) {
				return model.ClassificationResult{
					Category:     rule.Category,
					Confidence:   clamp(rule.BaseConfidence),
					Reasoning:    fmt.Sprintf("Direct jet match: %q matched pattern %q", strings.TrimSpace(name), pattern),
					Alternatives: []model.Category{},
				}, true
			}
		}
	}

	return model.ClassificationResult{}, false
}

type ruleScore struct {
	category model.Category
	matched  []string
	points   int
}

func (id *Identifier) keywordMatch(report model.Report) (model.ClassificationResult, bool) {
	text := strings.ToLower(report.Name + " " + report.Description)

	var scored []ruleScore
	for _, rule := range id.rules {
		s := ruleScore{category: rule.Category}
		for _, pattern := range rule.Patterns {
			if strings.Contains(text, pattern) {
				s.points += patternPoints
				s.matched = append(s.matched, pattern)
			}
		}
		for _, keyword := range rule.Keywords {
			if strings.Contains(text, keyword) {
				s.points += keywordPoints
				s.matched = append(s.matched, keyword)
			}
		}
		if rule.hints(report.Priority) {
			s.points += priorityPoints
		}
		if s.points > 0 {
			scored = append(scored, s)
		}
	}

	if len(scored) == 0 {
		return model.ClassificationResult{}, false
	}

	best := 0
	for i := 1; i < len(scored); i++ {
		if scored[i].points > scored[best].points {
			best = i
		}
	}
	winner := scored[best]
	if winner.points <= keywordThreshold {
		return model.ClassificationResult{}, false
	}

	alternatives := []model.Category{}
	seen := map[model.Category]bool{winner.category: true}
	for _, s := range scored {
		if seen[s.category] {
			continue
		}
		seen[s.category] = true
		alternatives = append(alternatives, s.category)
	}

	return model.ClassificationResult{
		Category:     winner.category,
		Confidence:   clamp(math.Min(float64(winner.points)/10, maxKeywordConfidence)),
		Reasoning:    "Text analysis matched keywords: " + strings.Join(winner.matched, ", "),
		Alternatives: alternatives,
	}, true
}

func priorityDefault(p model.Priority) model.ClassificationResult {
	category := model.CategoryFighterJet
	for _, d := range priorityDefaults {
		if d.priority == p {
			category = d.category
			break
		}
	}

	alternatives := make([]model.Category, 0, len(priorityDefaults)-1)
	for _, d := range priorityDefaults {
		if d.category != category {
			alternatives = append(alternatives, d.category)
		}
	}

	return model.ClassificationResult{
		Category:     category,
		Confidence:   defaultConfidence,
		Reasoning:    fmt.Sprintf("Default assignment based on priority: %q", string(p)),
		Alternatives: alternatives,
	}
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// CategoryName returns the display name for a category id, or a generic label
// for ids outside the known set.
func CategoryName(id string) string {
	return model.Category(id).Name()
}
