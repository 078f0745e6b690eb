package identify

import "math"

// Stats summarizes the rule table for diagnostics.
type Stats struct {
	TotalRules         int     `json:"total_rules"`
	DistinctCategories int     `json:"distinct_categories"`
	MeanBaseConfidence float64 `json:"mean_base_confidence"`
}

// Stats computes aggregate figures over the rule table. The mean is rounded to
// two decimal places.
func (id *Identifier) Stats() Stats {
	if len(id.rules) == 0 {
		return Stats{}
	}

	categories := make(map[string]struct{}, len(id.rules))
	var sum float64
	for _, r := range id.rules {
		categories[string(r.Category)] = struct{}{}
		sum += r.BaseConfidence
	}

	return Stats{
		TotalRules:         len(id.rules),
		DistinctCategories: len(categories),
		MeanBaseConfidence: math.Round(sum/float64(len(id.rules))*100) / 100,
	}
}
