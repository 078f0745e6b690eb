package report

import (
	"github.com/Veraticus/aviation-bay/internal/identify"
	"github.com/Veraticus/aviation-bay/internal/model"
)

// Classifier defines the contract for identifying a report's jet type.
type Classifier interface {
	ClassifyWithTier(report model.Report) (model.ClassificationResult, identify.Tier)
}
