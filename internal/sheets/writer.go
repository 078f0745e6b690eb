package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/aviation-bay/internal/common"
	"github.com/Veraticus/aviation-bay/internal/identify"
	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/Veraticus/aviation-bay/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Tab titles.
const (
	ReportsTab = "Reports"
	RulesTab   = "Rules"
)

// reportColumns is the width of the report details table.
const reportColumns = 12

// Writer implements the ReportWriter interface for Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	now     func() time.Time
	rules   []identify.Rule
	config  Config
}

var _ service.ReportWriter = (*Writer)(nil)

// NewWriter creates a new Google Sheets report writer. rules are written to
// their own tab so reviewers can see what drove each identification.
func NewWriter(ctx context.Context, config Config, rules []identify.Rule, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newWriterWithService(srv, config, rules, logger), nil
}

func newWriterWithService(srv *sheets.Service, config Config, rules []identify.Rule, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = common.DiscardLogger()
	}
	return &Writer{
		config:  config,
		service: srv,
		rules:   rules,
		logger:  logger,
		now:     time.Now,
	}
}

// SpreadsheetURL returns the browser URL for a spreadsheet id.
func SpreadsheetURL(id string) string {
	return "https://docs.google.com/spreadsheets/d/" + id
}

// Write replaces the spreadsheet contents with the ledger and returns the
// spreadsheet id.
func (w *Writer) Write(ctx context.Context, reports []model.JetReport, summary *service.ReportSummary) (string, error) {
	if summary == nil {
		summary = &service.ReportSummary{}
	}

	w.logger.Info("starting sheets export", "reports", len(reports))

	spreadsheetID, sheetIDs, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if clearErr := w.clearSheets(ctx, spreadsheetID); clearErr != nil {
		return "", fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values := w.prepareReportData(reports, summary)

	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	err = common.WithRetry(ctx, func() error {
		return w.writeData(ctx, spreadsheetID, values)
	}, retryOpts)
	if err != nil {
		return "", fmt.Errorf("failed to write data: %w", err)
	}

	if len(w.rules) > 0 {
		err = common.WithRetry(ctx, func() error {
			return w.writeRulesTab(ctx, spreadsheetID)
		}, retryOpts)
		if err != nil {
			return "", fmt.Errorf("failed to write rules: %w", err)
		}
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheetID, sheetIDs, len(values))
		}, retryOpts)
		if err != nil {
			// Formatting is cosmetic; the data is already written.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("sheets export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return spreadsheetID, nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := oauthConfig(config.ClientID, config.ClientSecret, "")
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		tokenSource = client.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet returns the configured spreadsheet, adding any missing
// tabs, or creates a new one. The map holds sheet ids by tab title.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, map[string]int64, error) {
	if w.config.SpreadsheetID != "" {
		existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", nil, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}

		sheetIDs := sheetIDsByTitle(existing.Sheets)
		if err := w.addMissingTabs(ctx, w.config.SpreadsheetID, sheetIDs); err != nil {
			return "", nil, err
		}
		return w.config.SpreadsheetID, sheetIDs, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: ReportsTab}},
			{Properties: &sheets.SheetProperties{Title: RulesTab}},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, sheetIDsByTitle(created.Sheets), nil
}

func sheetIDsByTitle(tabs []*sheets.Sheet) map[string]int64 {
	ids := make(map[string]int64, len(tabs))
	for _, tab := range tabs {
		if tab.Properties != nil {
			ids[tab.Properties.Title] = tab.Properties.SheetId
		}
	}
	return ids
}

func (w *Writer) addMissingTabs(ctx context.Context, spreadsheetID string, sheetIDs map[string]int64) error {
	var requests []*sheets.Request
	for _, title := range []string{ReportsTab, RulesTab} {
		if _, ok := sheetIDs[title]; !ok {
			requests = append(requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: title},
				},
			})
		}
	}
	if len(requests) == 0 {
		return nil
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to add tabs: %w", err)
	}

	for _, reply := range resp.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			sheetIDs[reply.AddSheet.Properties.Title] = reply.AddSheet.Properties.SheetId
		}
	}
	return nil
}

// clearSheets clears all data from both tabs.
func (w *Writer) clearSheets(ctx context.Context, spreadsheetID string) error {
	for _, tab := range []string{ReportsTab, RulesTab} {
		_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, tab+"!A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
		if err != nil {
			return err
		}
	}
	return nil
}

// prepareReportData lays out the summary followed by one row per report.
// reports are expected newest first, the order the ledger returns them in.
func (w *Writer) prepareReportData(reports []model.JetReport, summary *service.ReportSummary) [][]any {
	// Header(2) + Summary(3) + Status(3+statuses) + Categories(3+categories) + Details(2) + reports
	estimatedRows := 13 + len(model.Categories()) + len(summary.ByStatus) + len(reports)
	values := make([][]any, 0, estimatedRows)

	values = append(values,
		[]any{
			"Aviation Bay Reports",
			"Generated " + w.now().UTC().Format("Jan 2, 2006 15:04 MST"),
		},
		[]any{}, // Empty row
		[]any{"Summary"},
		[]any{"Total Reports", summary.Total},
		[]any{}, // Empty row
		[]any{"Status"},
		[]any{"Status", "Count"},
	)

	for _, status := range model.Statuses() {
		if count, ok := summary.ByStatus[status]; ok {
			values = append(values, []any{string(status), count})
		}
	}

	values = append(values,
		[]any{}, // Empty row
		[]any{"Category Breakdown"},
		[]any{"Category", "Count", "Share"},
	)
	for _, stat := range summary.Categories {
		values = append(values, []any{
			stat.Category.Name(),
			stat.Count,
			stat.Percentage / 100,
		})
	}

	values = append(values,
		[]any{}, // Empty row
		[]any{"Report Details"},
		[]any{
			"ID",
			"Submitted",
			"Name",
			"Categories",
			"Identified As",
			"Confidence",
			"Priority",
			"Status",
			"Type",
			"Detections",
			"Location",
			"Comments",
		})

	for _, r := range reports {
		values = append(values, []any{
			r.ID,
			r.CreatedAt.UTC().Format("2006-01-02 15:04"),
			r.Name,
			categoryNames(r.Categories),
			r.Identification.Category.Name(),
			r.Identification.Confidence,
			string(r.Priority),
			string(r.Status),
			string(r.SubmissionType),
			detectionSummary(r.DetectedJets),
			locationString(r.Location),
			r.Comments,
		})
	}

	return values
}

func categoryNames(categories []model.Category) string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name())
	}
	return strings.Join(names, ", ")
}

func detectionSummary(jets []model.DetectedJet) string {
	parts := make([]string, 0, len(jets))
	for _, jet := range jets {
		parts = append(parts, fmt.Sprintf("%s (%.0f%%)", jet.JetType, jet.Confidence*100))
	}
	return strings.Join(parts, ", ")
}

func locationString(loc *model.Location) string {
	if loc == nil {
		return ""
	}
	coords := fmt.Sprintf("%.5f, %.5f", loc.Lat, loc.Lng)
	if loc.Address != "" {
		return loc.Address + " (" + coords + ")"
	}
	return coords
}

// writeData writes the report tab in batches.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := i + w.config.BatchSize
		if end > len(values) {
			end = len(values)
		}

		batch := values[i:end]
		valueRange := &sheets.ValueRange{
			Values: batch,
		}

		rangeStr := fmt.Sprintf("%s!A%d", ReportsTab, i+1)
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, valueRange).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()

		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}

	return nil
}

// writeRulesTab writes the identification rule table.
func (w *Writer) writeRulesTab(ctx context.Context, spreadsheetID string) error {
	values := [][]any{
		{"Category", "Patterns", "Keywords", "Priority Hints", "Confidence"},
	}

	for _, rule := range w.rules {
		hints := make([]string, 0, len(rule.PriorityHints))
		for _, p := range rule.PriorityHints {
			hints = append(hints, string(p))
		}
		values = append(values, []any{
			rule.Category.Name(),
			strings.Join(rule.Patterns, ", "),
			strings.Join(rule.Keywords, ", "),
			strings.Join(hints, ", "),
			rule.BaseConfidence,
		})
	}

	valueRange := &sheets.ValueRange{
		Values: values,
	}

	_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, RulesTab+"!A1", valueRange).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()

	return err
}
