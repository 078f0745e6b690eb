// Package storage provides the data persistence layer for the aviation-bay application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/aviation-bay/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrInvalidStatus  = errors.New("invalid report status")
	ErrInvalidReport  = errors.New("invalid report")
	ErrInvalidPaging  = errors.New("limit and offset cannot be negative")
	ErrInvalidOptions = errors.New("invalid filter")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateStatus rejects statuses outside the review workflow.
func validateStatus(status model.ReportStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return nil
}

// validateReport validates a report before it is written.
func validateReport(report *model.JetReport) error {
	if report == nil {
		return fmt.Errorf("%w: report", ErrNilParameter)
	}
	if strings.TrimSpace(report.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidReport)
	}
	if report.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing creation time", ErrInvalidReport)
	}
	if report.ImageDigest == "" {
		return fmt.Errorf("%w: missing image digest", ErrInvalidReport)
	}
	if err := validateStatus(report.Status); err != nil {
		return err
	}

	switch report.SubmissionType {
	case model.SubmissionManual, model.SubmissionAIOnly:
	default:
		return fmt.Errorf("%w: unknown submission type %q", ErrInvalidReport, report.SubmissionType)
	}

	for _, category := range report.Categories {
		if !category.Valid() {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidReport, category)
		}
	}

	if loc := report.Location; loc != nil {
		if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
			return fmt.Errorf("%w: location out of range", ErrInvalidReport)
		}
	}
	return nil
}
