package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/aviation-bay/internal/capture"
	"github.com/Veraticus/aviation-bay/internal/cli"
	"github.com/Veraticus/aviation-bay/internal/llm"
	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/Veraticus/aviation-bay/internal/report"
	"github.com/Veraticus/aviation-bay/internal/service"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "File and review spotting reports",
		Long:  `Submit jet spotting reports from photos, list and inspect filed reports, and move them through review.`,
	}

	cmd.AddCommand(submitReportCmd())
	cmd.AddCommand(listReportsCmd())
	cmd.AddCommand(showReportCmd())
	cmd.AddCommand(reportStatsCmd())
	cmd.AddCommand(updateStatusCmd())

	return cmd
}

type submitOptions struct {
	name         string
	comments     string
	priority     string
	location     string
	address      string
	categories   []string
	aiOnly       bool
	skipAnalysis bool
	interactive  bool
}

func submitReportCmd() *cobra.Command {
	var opts submitOptions

	cmd := &cobra.Command{
		Use:   "submit <image>",
		Short: "File a spotting report from a photo",
		Long: `File a report for a jet photo. Pick the jet types with --category, or pass
--ai-only to let image analysis choose them. Without either, the detected jet
types are offered for selection when running in a terminal.`,
		Example: `  bay report submit falcon.jpg --category fighter-jet --priority urgent
  bay report submit lax.png --ai-only --location 33.9425,-118.408 --address LAX`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "what you think it is, e.g. \"F16 Falcon\"")
	cmd.Flags().StringVarP(&opts.comments, "comments", "c", "", "free-text comments")
	cmd.Flags().StringVarP(&opts.priority, "priority", "p", string(model.PriorityMedium), "priority (low, medium, high, urgent)")
	cmd.Flags().StringVar(&opts.location, "location", "", "where it was spotted as lat,lng")
	cmd.Flags().StringVar(&opts.address, "address", "", "human-readable place name for --location")
	cmd.Flags().StringSliceVar(&opts.categories, "category", nil, "jet type by id, slug or name (repeatable)")
	cmd.Flags().BoolVar(&opts.aiOnly, "ai-only", false, "let image analysis pick the jet types")
	cmd.Flags().BoolVar(&opts.skipAnalysis, "skip-analysis", false, "file without calling the AI provider")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "choose jet types from the AI suggestions")

	cmd.MarkFlagsMutuallyExclusive("ai-only", "skip-analysis")
	cmd.MarkFlagsMutuallyExclusive("ai-only", "category")

	return cmd
}

func runSubmit(cmd *cobra.Command, path string, opts submitOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	img, err := capture.FromFile(path)
	if err != nil {
		return err
	}

	sub := report.Submission{
		Name:           opts.name,
		Comments:       opts.comments,
		Priority:       model.ParsePriority(opts.priority),
		SubmissionType: model.SubmissionManual,
		Image:          img,
	}
	if opts.aiOnly {
		sub.SubmissionType = model.SubmissionAIOnly
	}

	if opts.location != "" {
		loc, locErr := model.ParseLocation(opts.location)
		if locErr != nil {
			return locErr
		}
		loc.Address = strings.TrimSpace(opts.address)
		sub.Location = loc
	}

	sub.SelectedCategories, err = parseCategories(opts.categories)
	if err != nil {
		return err
	}

	identifier, err := loadIdentifier()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	var analyzer llm.Analyzer
	if !opts.skipAnalysis {
		ai, aiErr := newAIService(ctx)
		switch {
		case aiErr == nil:
			analyzer = ai
		case opts.aiOnly:
			return aiErr
		default:
			slog.Warn("AI analysis unavailable, filing without detections", "error", aiErr)
		}
	}

	if analyzer != nil && !opts.aiOnly && len(sub.SelectedCategories) == 0 && promptable(opts) {
		if err := selectInteractively(ctx, cmd, analyzer, &sub); err != nil {
			return err
		}
	}

	svc := newReportService(identifier, store, analyzer)

	var filed *model.JetReport
	err = cli.Spin(cmd.ErrOrStderr(), "Filing report...", func() error {
		var submitErr error
		filed, submitErr = svc.Submit(ctx, sub)
		return submitErr
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, cli.RenderReport(filed))
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Jet report submitted! ID: %s", filed.ID)))
	return nil
}

// promptable reports whether jet types can be chosen on the terminal.
func promptable(opts submitOptions) bool {
	return opts.interactive || term.IsTerminal(int(os.Stdin.Fd())) // #nosec G115
}

// selectInteractively analyzes the photo once and lets the spotter pick from
// the suggested jet types. The detections are kept on the submission.
func selectInteractively(ctx context.Context, cmd *cobra.Command, analyzer llm.Analyzer, sub *report.Submission) error {
	var jets []model.DetectedJet
	err := cli.Spin(cmd.ErrOrStderr(), "Analyzing photo...", func() error {
		var analyzeErr error
		jets, analyzeErr = analyzer.AnalyzeImage(ctx, sub.Image)
		return analyzeErr
	})
	if err != nil {
		slog.Warn("Image analysis failed", "error", err)
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("AI analysis failed. Pick the jet types yourself."))
	}
	if jets == nil {
		jets = []model.DetectedJet{}
	}

	prompter := cli.NewCLIPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	selected, err := prompter.SelectCategories(ctx, jets)
	if err != nil {
		return err
	}

	sub.SelectedCategories = selected
	sub.Detections = jets
	return nil
}

type listOptions struct {
	status   string
	category string
	since    string
	limit    int
	offset   int
	asJSON   bool
}

func listReportsCmd() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List filed reports",
		Long:    `List filed reports, newest first.`,
		Example: `  bay report list --status submitted
  bay report list --category helicopter --since 7d`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			filter, err := opts.filter(time.Now())
			if err != nil {
				return err
			}

			svc, closeFn, err := openReportService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			reports, err := svc.List(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list reports: %w", err)
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				return writeJSON(out, reports)
			}

			if len(reports) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No reports found. Use 'bay report submit' to file one."))
				return nil
			}
			return cli.WriteReportTable(out, reports)
		},
	}

	opts.bind(cmd)
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "maximum number of reports")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "skip this many reports")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print reports as JSON")

	return cmd
}

// bind registers the filter flags shared by list and export.
func (o *listOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.status, "status", "", "only reports with this status")
	cmd.Flags().StringVar(&o.category, "category", "", "only reports with this jet type")
	cmd.Flags().StringVar(&o.since, "since", "", "only reports filed after a date (2006-01-02) or within a duration (24h, 7d)")
}

func (o listOptions) filter(now time.Time) (service.ReportFilter, error) {
	filter := service.ReportFilter{Limit: o.limit, Offset: o.offset}

	if o.status != "" {
		status := model.ReportStatus(strings.ToLower(strings.TrimSpace(o.status)))
		if !status.Valid() {
			return filter, fmt.Errorf("unknown status %q", o.status)
		}
		filter.Status = status
	}

	if o.category != "" {
		c, err := model.ParseCategory(o.category)
		if err != nil {
			return filter, err
		}
		filter.Category = c
	}

	if o.since != "" {
		since, err := parseSince(o.since, now)
		if err != nil {
			return filter, err
		}
		filter.Since = &since
	}

	return filter, nil
}

// parseSince accepts a date, an RFC 3339 timestamp, or a lookback duration.
// Durations may use a "d" suffix for days.
func parseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	if days, ok := strings.CutSuffix(s, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil && n >= 0 {
			return now.AddDate(0, 0, -n), nil
		}
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return now.Add(-d), nil
	}

	return time.Time{}, fmt.Errorf("invalid --since value %q", s)
}

func showReportCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a filed report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, closeFn, err := openReportService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			filed, err := svc.Get(ctx, args[0])
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), filed)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderReport(filed))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

func reportStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize filed reports by jet type and status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			svc, closeFn, err := openReportService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			summary, err := svc.Stats(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle(cli.ChartIcon+" Spotting Summary"))
			return cli.WriteSummary(out, summary)
		},
	}
}

func updateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a report through review",
		Long: `Set a report's review status: submitted, acknowledged, reviewed, approved
or rejected.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, closeFn, err := openReportService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			status := model.ReportStatus(strings.ToLower(strings.TrimSpace(args[1])))
			updated, err := svc.UpdateStatus(ctx, args[0], status)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s is now %s", updated.ID, updated.Status)))
			return nil
		},
	}
}

// openReportService wires a report service without an analyzer for commands
// that only read or review the ledger.
func openReportService(ctx context.Context) (*report.Service, func(), error) {
	identifier, err := loadIdentifier()
	if err != nil {
		return nil, nil, err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, err
	}

	return newReportService(identifier, store, nil), func() { closeStorage(store) }, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
