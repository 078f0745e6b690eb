package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/aviation-bay/internal/common"
	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/Veraticus/aviation-bay/internal/service"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const reportColumns = `id, name, image_digest, image_mime_type, comments, priority,
	status, submission_type, categories, detected_jets, identification,
	latitude, longitude, address, created_at, updated_at`

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

// SaveReport inserts a new report into the ledger.
func (s *SQLiteStorage) SaveReport(ctx context.Context, report *model.JetReport) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReport(report); err != nil {
		return err
	}

	categories := report.Categories
	if categories == nil {
		categories = []model.Category{}
	}
	categoriesJSON, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}

	jets := report.DetectedJets
	if jets == nil {
		jets = []model.DetectedJet{}
	}
	jetsJSON, err := json.Marshal(jets)
	if err != nil {
		return fmt.Errorf("failed to encode detections: %w", err)
	}

	identificationJSON, err := json.Marshal(report.Identification)
	if err != nil {
		return fmt.Errorf("failed to encode identification: %w", err)
	}

	var lat, lng sql.NullFloat64
	var address string
	if report.Location != nil {
		lat = sql.NullFloat64{Float64: report.Location.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: report.Location.Lng, Valid: true}
		address = report.Location.Address
	}

	updatedAt := report.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = report.CreatedAt
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (`+reportColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		report.Name,
		report.ImageDigest,
		report.ImageMIMEType,
		report.Comments,
		string(report.Priority),
		string(report.Status),
		string(report.SubmissionType),
		string(categoriesJSON),
		string(jetsJSON),
		string(identificationJSON),
		lat,
		lng,
		address,
		formatTime(report.CreatedAt),
		formatTime(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.ID, err)
	}
	return nil
}

// GetReport retrieves a report by id.
func (s *SQLiteStorage) GetReport(ctx context.Context, id string) (*model.JetReport, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)
	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}
	return report, nil
}

// ListReports returns reports newest first, narrowed by the filter.
func (s *SQLiteStorage) ListReports(ctx context.Context, filter service.ReportFilter) ([]model.JetReport, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, ErrInvalidPaging
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidOptions, filter.Status)
	}
	if filter.Category != model.CategoryUnknown && !filter.Category.Valid() {
		return nil, fmt.Errorf("%w: category %q", ErrInvalidOptions, filter.Category)
	}

	var (
		where []string
		args  []any
	)
	if filter.Since != nil {
		where = append(where, "created_at >= ?")
		args = append(args, formatTime(*filter.Since))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Category != model.CategoryUnknown {
		// Category ids are quoted JSON strings inside the array.
		where = append(where, "categories LIKE ?")
		args = append(args, `%"`+string(filter.Category)+`"%`)
	}

	query := `SELECT ` + reportColumns + ` FROM reports`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	} else if filter.Offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	reports := []model.JetReport{}
	for rows.Next() {
		report, scanErr := scanReport(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan report: %w", scanErr)
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return reports, nil
}

// UpdateReportStatus moves a report through review.
func (s *SQLiteStorage) UpdateReportStatus(ctx context.Context, id string, status model.ReportStatus, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateStatus(status); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE reports SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to update report %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("report %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// CategoryCounts tallies how many reports list each category.
func (s *SQLiteStorage) CategoryCounts(ctx context.Context) (map[model.Category]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT categories FROM reports`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.Category]int)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan categories: %w", err)
		}
		var categories []model.Category
		if err := json.Unmarshal([]byte(raw), &categories); err != nil {
			return nil, fmt.Errorf("failed to decode categories: %w", err)
		}
		for _, category := range categories {
			counts[category]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return counts, nil
}

// StatusCounts tallies reports by review status.
func (s *SQLiteStorage) StatusCounts(ctx context.Context) (map[model.ReportStatus]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM reports GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to query statuses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.ReportStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[model.ReportStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating statuses: %w", err)
	}
	return counts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (*model.JetReport, error) {
	var (
		report                                       model.JetReport
		priority, status, submissionType             string
		categoriesJSON, jetsJSON, identificationJSON string
		createdAt, updatedAt, address                string
		lat, lng                                     sql.NullFloat64
	)

	err := row.Scan(
		&report.ID,
		&report.Name,
		&report.ImageDigest,
		&report.ImageMIMEType,
		&report.Comments,
		&priority,
		&status,
		&submissionType,
		&categoriesJSON,
		&jetsJSON,
		&identificationJSON,
		&lat,
		&lng,
		&address,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	report.Priority = model.Priority(priority)
	report.Status = model.ReportStatus(status)
	report.SubmissionType = model.SubmissionType(submissionType)

	if err := json.Unmarshal([]byte(categoriesJSON), &report.Categories); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	if err := json.Unmarshal([]byte(jetsJSON), &report.DetectedJets); err != nil {
		return nil, fmt.Errorf("failed to decode detections: %w", err)
	}
	if err := json.Unmarshal([]byte(identificationJSON), &report.Identification); err != nil {
		return nil, fmt.Errorf("failed to decode identification: %w", err)
	}

	if lat.Valid && lng.Valid {
		report.Location = &model.Location{Lat: lat.Float64, Lng: lng.Float64, Address: address}
	}

	if report.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if report.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return &report, nil
}
