// Package model defines the core data structures for the aviation-bay application.
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Priority is the urgency a spotter attaches to a report.
type Priority string

// Priority constants.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities returns the known priorities from least to most urgent.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

// Known reports whether p is one of the four declared priorities.
func (p Priority) Known() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ParsePriority lowercases and trims s. Unknown values are returned verbatim so
// that downstream defaults can decide how to treat them.
func ParsePriority(s string) Priority {
	return Priority(strings.ToLower(strings.TrimSpace(s)))
}

// Report is the free-text input describing a spotted aircraft.
type Report struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// ClassificationResult is the outcome of identifying a report.
type ClassificationResult struct {
	Reasoning    string     `json:"reasoning"`
	Category     Category   `json:"category"`
	Alternatives []Category `json:"alternatives"`
	Confidence   float64    `json:"confidence"`
}

// DetectedJet is a single aircraft found by image analysis.
type DetectedJet struct {
	JetType     string  `json:"jetType"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// Location is an optional geographic position attached to a report.
type Location struct {
	Address string  `json:"address,omitempty"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// ParseLocation parses "lat,lng" and validates the coordinate ranges.
func ParseLocation(s string) (*Location, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("location must be formatted as lat,lng: %q", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude: %w", err)
	}

	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("latitude out of range: %v", lat)
	}
	if lng < -180 || lng > 180 {
		return nil, fmt.Errorf("longitude out of range: %v", lng)
	}

	return &Location{Lat: lat, Lng: lng}, nil
}

// ReportStatus tracks a submitted report through review.
type ReportStatus string

// Report status constants.
const (
	StatusSubmitted    ReportStatus = "submitted"
	StatusAcknowledged ReportStatus = "acknowledged"
	StatusReviewed     ReportStatus = "reviewed"
	StatusApproved     ReportStatus = "approved"
	StatusRejected     ReportStatus = "rejected"
)

// Statuses returns the review workflow in order.
func Statuses() []ReportStatus {
	return []ReportStatus{StatusSubmitted, StatusAcknowledged, StatusReviewed, StatusApproved, StatusRejected}
}

// Valid reports whether s is a known status.
func (s ReportStatus) Valid() bool {
	switch s {
	case StatusSubmitted, StatusAcknowledged, StatusReviewed, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// SubmissionType records whether the spotter picked categories or relied on AI alone.
type SubmissionType string

// Submission type constants.
const (
	SubmissionManual SubmissionType = "manual"
	SubmissionAIOnly SubmissionType = "ai-only"
)

// JetReport is a persisted spotting report.
type JetReport struct {
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Location       *Location            `json:"location,omitempty"`
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	ImageDigest    string               `json:"image_digest"`
	ImageMIMEType  string               `json:"image_mime_type"`
	Comments       string               `json:"comments"`
	Priority       Priority             `json:"priority"`
	Status         ReportStatus         `json:"status"`
	SubmissionType SubmissionType       `json:"submission_type"`
	Categories     []Category           `json:"categories"`
	DetectedJets   []DetectedJet        `json:"detected_jets"`
	Identification ClassificationResult `json:"identification"`
}
