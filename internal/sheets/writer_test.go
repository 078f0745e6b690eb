package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/aviation-bay/internal/identify"
	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/Veraticus/aviation-bay/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var exportTime = time.Date(2026, 6, 1, 18, 45, 0, 0, time.UTC)

func testReports() []model.JetReport {
	return []model.JetReport{
		{
			ID:             "AVBAY-2",
			Name:           "helicopter",
			Priority:       model.PriorityMedium,
			Status:         model.StatusApproved,
			SubmissionType: model.SubmissionAIOnly,
			Categories:     []model.Category{model.CategoryHelicopter, model.CategoryDrone},
			DetectedJets: []model.DetectedJet{
				{JetType: "helicopter", Confidence: 0.85, Description: "Apache"},
				{JetType: "drone", Confidence: 0.6, Description: "quadcopter"},
			},
			Identification: model.ClassificationResult{Category: model.CategoryHelicopter, Confidence: 0.96},
			Location:       &model.Location{Lat: 33.9425, Lng: -118.408, Address: "LAX"},
			CreatedAt:      exportTime.Add(-time.Hour),
		},
		{
			ID:             "AVBAY-1",
			Name:           "F16 Falcon",
			Comments:       "low pass",
			Priority:       model.PriorityUrgent,
			Status:         model.StatusSubmitted,
			SubmissionType: model.SubmissionManual,
			Categories:     []model.Category{model.CategoryFighterJet},
			Identification: model.ClassificationResult{Category: model.CategoryFighterJet, Confidence: 0.98},
			CreatedAt:      exportTime.Add(-2 * time.Hour),
		},
	}
}

func testSummary() *service.ReportSummary {
	return &service.ReportSummary{
		Total:    2,
		ByStatus: map[model.ReportStatus]int{model.StatusApproved: 1, model.StatusSubmitted: 1},
		Categories: []model.CategoryStat{
			{Category: model.CategoryFighterJet, Count: 1, Percentage: 50},
			{Category: model.CategoryAirliner},
			{Category: model.CategoryHelicopter, Count: 1, Percentage: 50},
			{Category: model.CategoryDrone, Count: 1, Percentage: 50},
			{Category: model.CategoryCargo},
		},
	}
}

func TestWriter_prepareReportData(t *testing.T) {
	w := &Writer{config: DefaultConfig(), now: func() time.Time { return exportTime }}

	values := w.prepareReportData(testReports(), testSummary())

	assert.Equal(t, []any{"Aviation Bay Reports", "Generated Jun 1, 2026 18:45 UTC"}, values[0])
	assert.Equal(t, []any{"Total Reports", 2}, values[3])

	// Statuses follow the review workflow order.
	assert.Equal(t, []any{"Status", "Count"}, values[6])
	assert.Equal(t, []any{"submitted", 1}, values[7])
	assert.Equal(t, []any{"approved", 1}, values[8])

	assert.Equal(t, []any{"Category", "Count", "Share"}, values[11])
	assert.Equal(t, []any{"Fighter Jet", 1, 0.5}, values[12])
	assert.Equal(t, []any{"Cargo Aircraft", 0, 0.0}, values[16])

	header := values[19]
	require.Len(t, header, reportColumns)
	assert.Equal(t, "ID", header[0])

	require.Len(t, values, 22)
	assert.Equal(t, []any{
		"AVBAY-2",
		"2026-06-01 17:45",
		"helicopter",
		"Helicopter, Drone",
		"Helicopter",
		0.96,
		"medium",
		"approved",
		"ai-only",
		"helicopter (85%), drone (60%)",
		"LAX (33.94250, -118.40800)",
		"",
	}, values[20])
	assert.Equal(t, "", values[21][10], "no location")
	assert.Equal(t, "low pass", values[21][11])
}

func TestWriter_prepareReportDataEmpty(t *testing.T) {
	w := &Writer{config: DefaultConfig(), now: func() time.Time { return exportTime }}

	values := w.prepareReportData(nil, &service.ReportSummary{})
	assert.Equal(t, []any{"Total Reports", 0}, values[3])
	assert.Equal(t, "ID", values[len(values)-1][0])
}

// fakeSheetsAPI records the calls a Writer makes against the Sheets REST API.
type fakeSheetsAPI struct {
	updates      map[string][][]any
	existingTabs []string
	clears       []string
	batchUpdates int
	created      bool
	mu           sync.Mutex
}

func (f *fakeSheetsAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		path := r.URL.Path

		switch {
		case r.Method == http.MethodPost && path == "/v4/spreadsheets":
			f.created = true
			var req sheets.Spreadsheet
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, DefaultSpreadsheetName, req.Properties.Title)
			_, _ = w.Write([]byte(`{"spreadsheetId":"new-sheet","spreadsheetUrl":"https://example.test/new-sheet",
				"sheets":[{"properties":{"sheetId":11,"title":"Reports"}},{"properties":{"sheetId":12,"title":"Rules"}}]}`))

		case r.Method == http.MethodGet && strings.HasPrefix(path, "/v4/spreadsheets/"):
			tabs := make([]map[string]any, 0, len(f.existingTabs))
			for i, title := range f.existingTabs {
				tabs = append(tabs, map[string]any{"properties": map[string]any{"sheetId": i, "title": title}})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "existing", "sheets": tabs})

		case strings.HasSuffix(path, ":clear"):
			f.clears = append(f.clears, path)
			_, _ = w.Write([]byte(`{}`))

		case strings.HasSuffix(path, ":batchUpdate"):
			f.batchUpdates++
			var req sheets.BatchUpdateSpreadsheetRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			var replies []map[string]any
			for _, request := range req.Requests {
				if request.AddSheet != nil {
					replies = append(replies, map[string]any{"addSheet": map[string]any{
						"properties": map[string]any{"sheetId": 99, "title": request.AddSheet.Properties.Title},
					}})
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"replies": replies})

		case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
			assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))
			var vr struct {
				Values [][]any `json:"values"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&vr))
			rangeStr := path[strings.Index(path, "/values/")+len("/values/"):]
			f.updates[rangeStr] = vr.Values
			_, _ = w.Write([]byte(`{}`))

		default:
			t.Errorf("unexpected request %s %s", r.Method, path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestWriter(t *testing.T, api *fakeSheetsAPI, config Config) *Writer {
	t.Helper()

	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	return newWriterWithService(svc, config, identify.DefaultRules(), nil)
}

func TestWriter_WriteCreatesSpreadsheet(t *testing.T) {
	api := &fakeSheetsAPI{updates: map[string][][]any{}}
	config := DefaultConfig()
	config.BatchSize = 10
	w := newTestWriter(t, api, config)

	id, err := w.Write(context.Background(), testReports(), testSummary())
	require.NoError(t, err)

	assert.Equal(t, "new-sheet", id)
	assert.True(t, api.created)
	assert.Len(t, api.clears, 2)
	assert.Equal(t, 1, api.batchUpdates, "formatting")

	// 22 rows in batches of 10.
	require.Contains(t, api.updates, "Reports!A1")
	require.Contains(t, api.updates, "Reports!A11")
	require.Contains(t, api.updates, "Reports!A21")
	assert.Len(t, api.updates["Reports!A21"], 2)

	rules := api.updates["Rules!A1"]
	require.Len(t, rules, len(identify.DefaultRules())+1)
	assert.Equal(t, "Fighter Jet", rules[1][0])
	assert.Equal(t, "fighter, f16, mig, rafale, hornet", rules[1][1])
	assert.Equal(t, "urgent, high", rules[1][3])
}

func TestWriter_WriteExistingSpreadsheetAddsMissingTab(t *testing.T) {
	api := &fakeSheetsAPI{updates: map[string][][]any{}, existingTabs: []string{"Reports"}}
	config := DefaultConfig()
	config.SpreadsheetID = "existing"
	config.EnableFormatting = false
	w := newTestWriter(t, api, config)

	id, err := w.Write(context.Background(), testReports(), nil)
	require.NoError(t, err)

	assert.Equal(t, "existing", id)
	assert.False(t, api.created)
	assert.Equal(t, 1, api.batchUpdates, "only the AddSheet request")
	assert.Contains(t, api.updates, "Reports!A1")
	assert.Contains(t, api.updates, "Rules!A1")
}

func TestSpreadsheetURL(t *testing.T) {
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/abc", SpreadsheetURL("abc"))
}

func TestMockWriter(t *testing.T) {
	m := NewMockWriter()

	id, err := m.Write(context.Background(), testReports(), testSummary())
	require.NoError(t, err)
	assert.Equal(t, "mock-spreadsheet", id)
	m.AssertWriteCalled(t, 1)

	m.SetWriteError(assert.AnError)
	_, err = m.Write(context.Background(), nil, nil)
	assert.ErrorIs(t, err, assert.AnError)

	calls := m.GetWriteCalls()
	require.Len(t, calls, 2)
	assert.Len(t, calls[0].Reports, 2)
	assert.ErrorIs(t, calls[1].Error, assert.AnError)

	m.Reset()
	assert.Zero(t, m.WriteCallCount)
	assert.Nil(t, m.LastReports)
}
