// Package report implements the spotting report pipeline: validate a
// submission, analyze its photo, identify the jet type, and file it.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/aviation-bay/internal/capture"
	"github.com/Veraticus/aviation-bay/internal/common"
	"github.com/Veraticus/aviation-bay/internal/llm"
	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/Veraticus/aviation-bay/internal/observability"
	"github.com/Veraticus/aviation-bay/internal/service"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// IDPrefix is prepended to every report id.
const IDPrefix = "AVBAY-"

// User-facing submission errors.
const (
	MsgNoPhoto       = "Please capture a jet photo first."
	MsgNoSelection   = "Please select at least one jet type."
	MsgNoDetections  = "No jets identified by AI. Please select the jet types manually."
	MsgSubmitFailed  = "Failed to submit jet report. Try again."
	MsgUnknownReport = "No report with that id."
)

// Submission is everything a spotter provides when filing a report.
type Submission struct {
	Location           *model.Location
	Name               string
	Comments           string
	Priority           model.Priority
	SubmissionType     model.SubmissionType
	Image              capture.Image
	SelectedCategories []model.Category

	// Detections skips image analysis when the caller already ran it.
	Detections []model.DetectedJet
}

// Service orchestrates report submission and review.
type Service struct {
	classifier Classifier
	analyzer   llm.Analyzer
	store      service.Storage
	metrics    *observability.Metrics
	clock      clockwork.Clock
	logger     *slog.Logger
	newID      func() string
}

// Option configures a Service.
type Option func(*Service)

// WithAnalyzer enables image analysis for submissions without detections.
func WithAnalyzer(analyzer llm.Analyzer) Option {
	return func(s *Service) { s.analyzer = analyzer }
}

// WithMetrics records identification and submission counters.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Service) { s.metrics = metrics }
}

// WithClock overrides the clock used for report timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithIDGenerator overrides report id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// NewService creates a report service backed by store.
func NewService(classifier Classifier, store service.Storage, opts ...Option) *Service {
	s := &Service{
		classifier: classifier,
		store:      store,
		clock:      clockwork.NewRealClock(),
		logger:     common.DiscardLogger(),
		newID: func() string {
			return IDPrefix + uuid.NewString()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates a submission, identifies it, and files it with status
// submitted.
func (s *Service) Submit(ctx context.Context, sub Submission) (*model.JetReport, error) {
	if sub.Image.Empty() {
		return nil, common.NewUserError(MsgNoPhoto, common.ErrEmptyCapture)
	}

	submissionType := sub.SubmissionType
	if submissionType == "" {
		submissionType = model.SubmissionManual
	}
	if submissionType != model.SubmissionManual && submissionType != model.SubmissionAIOnly {
		return nil, fmt.Errorf("%w: unknown submission type %q", common.ErrInvalidConfig, submissionType)
	}

	if submissionType == model.SubmissionManual && len(sub.SelectedCategories) == 0 {
		return nil, common.NewUserError(MsgNoSelection, common.ErrEmptySelection)
	}

	detections, err := s.detections(ctx, sub, submissionType)
	if err != nil {
		return nil, err
	}

	var categories []model.Category
	switch submissionType {
	case model.SubmissionManual:
		categories, err = selectedCategories(sub.SelectedCategories)
		if err != nil {
			return nil, err
		}
	case model.SubmissionAIOnly:
		if len(detections) == 0 {
			return nil, common.NewUserError(MsgNoDetections, common.ErrEmptySelection)
		}
		categories = detectedCategories(detections)
	}

	input := classifierInput(sub, detections)
	result, tier := s.classifier.ClassifyWithTier(input)

	// Detections that map to no known category file under the identification.
	if len(categories) == 0 && result.Category.Valid() {
		categories = []model.Category{result.Category}
	}

	now := s.clock.Now()
	report := &model.JetReport{
		ID:             s.newID(),
		Name:           input.Name,
		ImageDigest:    sub.Image.Digest(),
		ImageMIMEType:  sub.Image.MIMEType,
		Comments:       strings.TrimSpace(sub.Comments),
		Priority:       sub.Priority,
		Status:         model.StatusSubmitted,
		SubmissionType: submissionType,
		Categories:     categories,
		DetectedJets:   detections,
		Identification: result,
		Location:       sub.Location,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.SaveReport(ctx, report); err != nil {
		s.logger.Error("failed to save report", "id", report.ID, "error", err)
		return nil, common.NewUserError(MsgSubmitFailed, err)
	}

	s.metrics.ObserveIdentification(string(tier))
	s.metrics.ObserveSubmission(string(submissionType))

	s.logger.Info("report submitted",
		"id", report.ID,
		"type", submissionType,
		"category", result.Category,
		"confidence", result.Confidence,
		"tier", tier,
		"detections", len(detections))

	return report, nil
}

// detections returns the caller's detections or runs image analysis once.
// Manual submissions survive analysis failures; ai-only ones cannot.
func (s *Service) detections(ctx context.Context, sub Submission, submissionType model.SubmissionType) ([]model.DetectedJet, error) {
	if sub.Detections != nil || s.analyzer == nil {
		return sub.Detections, nil
	}

	jets, err := s.analyzer.AnalyzeImage(ctx, sub.Image)
	if err != nil {
		if submissionType == model.SubmissionAIOnly {
			return nil, err
		}
		s.logger.Warn("image analysis failed, filing without detections", "error", err)
		return nil, nil
	}
	return jets, nil
}

func selectedCategories(selected []model.Category) ([]model.Category, error) {
	seen := make(map[model.Category]bool, len(selected))
	categories := make([]model.Category, 0, len(selected))
	for _, c := range selected {
		if !c.Valid() {
			return nil, fmt.Errorf("unknown category %q", c)
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		categories = append(categories, c)
	}
	return categories, nil
}

// detectedCategories maps detections onto known categories in detection order.
func detectedCategories(jets []model.DetectedJet) []model.Category {
	seen := make(map[model.Category]bool)
	categories := []model.Category{}
	for _, jet := range jets {
		c, ok := llm.DetectionCategory(jet.JetType)
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		categories = append(categories, c)
	}
	return categories
}

// classifierInput names the report after the spotter's label, falling back to
// the strongest detection, and describes it with comments plus that detection.
func classifierInput(sub Submission, jets []model.DetectedJet) model.Report {
	name := strings.TrimSpace(sub.Name)
	var parts []string
	if comments := strings.TrimSpace(sub.Comments); comments != "" {
		parts = append(parts, comments)
	}

	if top, ok := llm.TopDetection(jets); ok {
		if name == "" {
			name = top.JetType
		}
		parts = append(parts, top.Description)
	}

	return model.Report{
		Name:        name,
		Description: strings.Join(parts, " "),
		Priority:    sub.Priority,
	}
}

// Get returns a filed report.
func (s *Service) Get(ctx context.Context, id string) (*model.JetReport, error) {
	report, err := s.store.GetReport(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return report, nil
}

// List returns filed reports newest first.
func (s *Service) List(ctx context.Context, filter service.ReportFilter) ([]model.JetReport, error) {
	return s.store.ListReports(ctx, filter)
}

// UpdateStatus moves a report through review and returns the updated report.
func (s *Service) UpdateStatus(ctx context.Context, id string, status model.ReportStatus) (*model.JetReport, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}

	id = strings.TrimSpace(id)
	if err := s.store.UpdateReportStatus(ctx, id, status, s.clock.Now()); err != nil {
		return nil, wrapNotFound(err)
	}

	s.logger.Info("report status updated", "id", id, "status", status)
	return s.store.GetReport(ctx, id)
}

func wrapNotFound(err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError(MsgUnknownReport, err)
	}
	return err
}
