package testutil

import (
	"time"

	"github.com/Veraticus/aviation-bay/internal/model"
)

// BaseTime is the default filing time for built reports.
var BaseTime = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

// ReportBuilder builds jet reports with sensible defaults: a manual,
// medium-priority fighter jet sighting filed at BaseTime.
type ReportBuilder struct {
	report model.JetReport
}

// NewReport starts a report with the given id.
func NewReport(id string) *ReportBuilder {
	return &ReportBuilder{report: model.JetReport{
		ID:             id,
		Name:           "F16 Falcon",
		ImageDigest:    "digest-" + id,
		ImageMIMEType:  "image/jpeg",
		Priority:       model.PriorityMedium,
		Status:         model.StatusSubmitted,
		SubmissionType: model.SubmissionManual,
		Categories:     []model.Category{model.CategoryFighterJet},
		DetectedJets:   []model.DetectedJet{},
		Identification: model.ClassificationResult{
			Category:     model.CategoryFighterJet,
			Confidence:   0.98,
			Reasoning:    "Direct jet match",
			Alternatives: []model.Category{},
		},
		CreatedAt: BaseTime,
		UpdatedAt: BaseTime,
	}}
}

// WithName sets the spotter's label.
func (b *ReportBuilder) WithName(name string) *ReportBuilder {
	b.report.Name = name
	return b
}

// WithCategories sets the selected categories. The first one also becomes the
// identified category.
func (b *ReportBuilder) WithCategories(categories ...model.Category) *ReportBuilder {
	b.report.Categories = categories
	if len(categories) > 0 {
		b.report.Identification.Category = categories[0]
	}
	return b
}

// WithStatus sets the review status.
func (b *ReportBuilder) WithStatus(status model.ReportStatus) *ReportBuilder {
	b.report.Status = status
	return b
}

// WithPriority sets the priority.
func (b *ReportBuilder) WithPriority(priority model.Priority) *ReportBuilder {
	b.report.Priority = priority
	return b
}

// AIOnly marks the report as an ai-only submission with the given detections.
func (b *ReportBuilder) AIOnly(jets ...model.DetectedJet) *ReportBuilder {
	b.report.SubmissionType = model.SubmissionAIOnly
	b.report.DetectedJets = jets
	return b
}

// At sets the filing time.
func (b *ReportBuilder) At(t time.Time) *ReportBuilder {
	b.report.CreatedAt = t
	b.report.UpdatedAt = t
	return b
}

// Build returns a copy of the report.
func (b *ReportBuilder) Build() *model.JetReport {
	r := b.report
	r.Categories = append([]model.Category(nil), b.report.Categories...)
	r.DetectedJets = append([]model.DetectedJet{}, b.report.DetectedJets...)
	return &r
}
