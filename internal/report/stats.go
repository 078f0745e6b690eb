package report

import (
	"context"
	"fmt"
	"math"

	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/Veraticus/aviation-bay/internal/service"
)

// Stats summarizes the ledger. Category percentages are relative to the number
// of reports, so a report filed under two categories counts toward both.
func (s *Service) Stats(ctx context.Context) (service.ReportSummary, error) {
	byStatus, err := s.store.StatusCounts(ctx)
	if err != nil {
		return service.ReportSummary{}, fmt.Errorf("failed to count statuses: %w", err)
	}

	counts, err := s.store.CategoryCounts(ctx)
	if err != nil {
		return service.ReportSummary{}, fmt.Errorf("failed to count categories: %w", err)
	}

	total := 0
	for _, n := range byStatus {
		total += n
	}

	return service.ReportSummary{
		Total:      total,
		ByStatus:   byStatus,
		Categories: CategoryStats(counts, total),
	}, nil
}

// CategoryStats returns one entry per known category in id order, with
// percentages rounded to one decimal place.
func CategoryStats(counts map[model.Category]int, total int) []model.CategoryStat {
	stats := make([]model.CategoryStat, 0, len(model.Categories()))
	for _, c := range model.Categories() {
		stat := model.CategoryStat{Category: c, Count: counts[c]}
		if total > 0 {
			stat.Percentage = math.Round(float64(stat.Count)/float64(total)*1000) / 10
		}
		stats = append(stats, stat)
	}
	return stats
}

// Export writes the reports matching filter, together with a ledger summary,
// through writer and returns the writer's destination id.
func (s *Service) Export(ctx context.Context, writer service.ReportWriter, filter service.ReportFilter) (string, error) {
	reports, err := s.store.ListReports(ctx, filter)
	if err != nil {
		return "", fmt.Errorf("failed to list reports: %w", err)
	}

	summary, err := s.Stats(ctx)
	if err != nil {
		return "", err
	}

	id, err := writer.Write(ctx, reports, &summary)
	if err != nil {
		return "", fmt.Errorf("failed to export reports: %w", err)
	}

	s.logger.Info("Exported reports", "count", len(reports), "destination", id)
	return id, nil
}
