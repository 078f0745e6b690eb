package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/aviation-bay/internal/config"
	"github.com/Veraticus/aviation-bay/internal/identify"
	"github.com/Veraticus/aviation-bay/internal/llm"
	"github.com/Veraticus/aviation-bay/internal/observability"
	"github.com/Veraticus/aviation-bay/internal/report"
	"github.com/Veraticus/aviation-bay/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// metrics collects counters for the lifetime of one command.
var metrics = observability.NewMetrics(prometheus.NewRegistry())

// writeMetrics exports the counters for the node_exporter textfile collector
// when metrics.textfile is set.
func writeMetrics(_ *cobra.Command, _ []string) error {
	path := config.ExpandPath(viper.GetString("metrics.textfile"))
	if path == "" {
		return nil
	}
	if err := metrics.WriteTextfile(path); err != nil {
		slog.Warn("Failed to write metrics textfile", "path", path, "error", err)
	}
	return nil
}

// initStorage opens the report ledger and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func closeStorage(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}

// loadIdentifier builds the classifier from rules.path, or the built-in table.
func loadIdentifier() (*identify.Identifier, error) {
	path := config.RulesPath()
	if path == "" {
		return identify.Default(), nil
	}

	rules, err := identify.LoadRules(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("Loaded rule table", "path", path, "rules", len(rules))
	return identify.New(rules)
}

// newAIService creates the configured provider client wrapped with caching,
// rate limiting, retries and metrics.
func newAIService(ctx context.Context) (*llm.Service, error) {
	cfg, err := config.LoadLLMConfig()
	if err != nil {
		return nil, err
	}

	client, err := llm.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return llm.NewService(client, cfg, metrics, nil, slog.Default()), nil
}

// newReportService wires the report pipeline. analyzer may be nil.
func newReportService(identifier *identify.Identifier, store *storage.SQLiteStorage, analyzer llm.Analyzer) *report.Service {
	opts := []report.Option{
		report.WithMetrics(metrics),
		report.WithLogger(slog.Default()),
	}
	if analyzer != nil {
		opts = append(opts, report.WithAnalyzer(analyzer))
	}
	return report.NewService(identifier, store, opts...)
}
