// Package service defines the interfaces shared between the report pipeline
// and its adapters.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/aviation-bay/internal/model"
)

// ReportFilter defines filtering options for report queries.
type ReportFilter struct {
	Since    *time.Time
	Status   model.ReportStatus
	Category model.Category
	Limit    int
	Offset   int
}

// Storage defines the contract for the report ledger.
type Storage interface {
	SaveReport(ctx context.Context, report *model.JetReport) error
	GetReport(ctx context.Context, id string) (*model.JetReport, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]model.JetReport, error)
	UpdateReportStatus(ctx context.Context, id string, status model.ReportStatus, at time.Time) error
	CategoryCounts(ctx context.Context) (map[model.Category]int, error)
	StatusCounts(ctx context.Context) (map[model.ReportStatus]int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// ReportSummary aggregates the ledger for display and export.
type ReportSummary struct {
	ByStatus   map[model.ReportStatus]int
	Categories []model.CategoryStat
	Total      int
}

// ReportWriter defines the contract for exporting the ledger. It returns an
// identifier for where the export landed.
type ReportWriter interface {
	Write(ctx context.Context, reports []model.JetReport, summary *ReportSummary) (string, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
