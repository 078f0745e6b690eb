package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/aviation-bay/internal/identify"
	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/Veraticus/aviation-bay/internal/service"
	"github.com/charmbracelet/lipgloss"
)

const timeLayout = "2006-01-02 15:04"

// Percent formats a 0..1 confidence as a whole percentage.
func Percent(confidence float64) string {
	return fmt.Sprintf("%.0f%%", confidence*100)
}

// CategoryLabel renders a category as "Name (id)".
func CategoryLabel(c model.Category) string {
	if !c.Valid() {
		return model.UnknownCategoryName
	}
	return fmt.Sprintf("%s (%s)", c.Name(), c)
}

// RenderClassification describes an identification and the tier that produced it.
func RenderClassification(result model.ClassificationResult, tier identify.Tier) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Category:  "), CategoryLabel(result.Category))
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Confidence:"), confidenceStyle(result.Confidence).Render(Percent(result.Confidence)))
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Matched by:"), tier)
	if len(result.Alternatives) > 0 {
		alts := make([]string, 0, len(result.Alternatives))
		for _, c := range result.Alternatives {
			alts = append(alts, c.Name())
		}
		fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Also:      "), strings.Join(alts, ", "))
	}
	fmt.Fprintf(&b, "%s %s", BoldStyle.Render("Reasoning: "), SubtleStyle.Render(result.Reasoning))
	return b.String()
}

func confidenceStyle(confidence float64) lipgloss.Style {
	switch {
	case confidence >= 0.9:
		return SuccessStyle
	case confidence >= 0.6:
		return WarningStyle
	default:
		return ErrorStyle
	}
}

// RenderDetections lists detections one per line, strongest as reported.
func RenderDetections(jets []model.DetectedJet) string {
	if len(jets) == 0 {
		return SubtleStyle.Render("No jets identified.")
	}
	lines := make([]string, 0, len(jets))
	for i, j := range jets {
		lines = append(lines, fmt.Sprintf("%d. %s %s  %s",
			i+1,
			BoldStyle.Render(j.JetType),
			confidenceStyle(j.Confidence).Render(Percent(j.Confidence)),
			SubtleStyle.Render(j.Description)))
	}
	return strings.Join(lines, "\n")
}

// RenderReport renders a single report in a box.
func RenderReport(r *model.JetReport) string {
	var b strings.Builder
	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render(fmt.Sprintf("%-15s", label+":")), value)
	}

	cats := make([]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		cats = append(cats, c.Name())
	}

	row("Submitted", r.CreatedAt.Local().Format(timeLayout))
	row("Status", string(r.Status))
	row("Type", string(r.SubmissionType))
	row("Name", r.Name)
	row("Jet types", strings.Join(cats, ", "))
	row("Identified as", fmt.Sprintf("%s, %s", CategoryLabel(r.Identification.Category), Percent(r.Identification.Confidence)))
	row("Priority", string(r.Priority))
	if r.Location != nil {
		loc := fmt.Sprintf("%.5f, %.5f", r.Location.Lat, r.Location.Lng)
		if r.Location.Address != "" {
			loc = r.Location.Address + " (" + loc + ")"
		}
		row("Location", loc)
	}
	row("Comments", r.Comments)
	if !r.UpdatedAt.IsZero() && !r.UpdatedAt.Equal(r.CreatedAt) {
		row("Updated", r.UpdatedAt.Local().Format(timeLayout))
	}

	content := strings.TrimRight(b.String(), "\n")
	if len(r.DetectedJets) > 0 {
		content += "\n\n" + RenderDetections(r.DetectedJets)
	}
	return RenderBox(r.ID, content)
}

// WriteReportTable writes one line per report.
func WriteReportTable(out io.Writer, reports []model.JetReport) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("ID"),
		headerStyle.Render("Submitted"),
		headerStyle.Render("Status"),
		headerStyle.Render("Identified As"),
		headerStyle.Render("Confidence"),
		headerStyle.Render("Name"),
	); err != nil {
		return err
	}

	for _, r := range reports {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.CreatedAt.Local().Format(timeLayout),
			r.Status,
			r.Identification.Category.Name(),
			Percent(r.Identification.Confidence),
			r.Name,
		); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteSummary writes ledger totals by status and category.
func WriteSummary(out io.Writer, summary service.ReportSummary) error {
	if _, err := fmt.Fprintf(out, "%s %d\n\n", BoldStyle.Render("Total reports:"), summary.Total); err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n",
		headerStyle.Render("Category"), headerStyle.Render("Count"), headerStyle.Render("Share")); err != nil {
		return err
	}
	for _, stat := range summary.Categories {
		if _, err := fmt.Fprintf(w, "%s\t%d\t%.1f%%\n", stat.Category.Name(), stat.Count, stat.Percentage); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(summary.ByStatus) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return err
	}
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(w, "%s\t%s\n", headerStyle.Render("Status"), headerStyle.Render("Count")); err != nil {
		return err
	}
	for _, status := range model.Statuses() {
		if n, ok := summary.ByStatus[status]; ok {
			if _, err := fmt.Fprintf(w, "%s\t%d\n", status, n); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}

// WriteRules writes the rule table in evaluation order.
func WriteRules(out io.Writer, rules []identify.Rule) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("Category"),
		headerStyle.Render("Patterns"),
		headerStyle.Render("Keywords"),
		headerStyle.Render("Priority Hints"),
		headerStyle.Render("Confidence"),
	); err != nil {
		return err
	}

	for _, r := range rules {
		hints := make([]string, 0, len(r.PriorityHints))
		for _, h := range r.PriorityHints {
			hints = append(hints, string(h))
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			CategoryLabel(r.Category),
			strings.Join(r.Patterns, ", "),
			strings.Join(r.Keywords, ", "),
			strings.Join(hints, ", "),
			Percent(r.BaseConfidence),
		); err != nil {
			return err
		}
	}
	return w.Flush()
}

// RenderRuleStats summarizes the rule table.
func RenderRuleStats(stats identify.Stats) string {
	return fmt.Sprintf("%s %d\n%s %d\n%s %.2f",
		BoldStyle.Render("Rules:              "), stats.TotalRules,
		BoldStyle.Render("Distinct categories:"), stats.DistinctCategories,
		BoldStyle.Render("Mean confidence:    "), stats.MeanBaseConfidence)
}

// WriteCategories writes the category catalog.
func WriteCategories(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		headerStyle.Render("ID"), headerStyle.Render("Name"),
		headerStyle.Render("Slug"), headerStyle.Render("Description")); err != nil {
		return err
	}
	for _, c := range model.Categories() {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c, c.Name(), c.Slug(), c.Description()); err != nil {
			return err
		}
	}
	return w.Flush()
}

// RenderTurn formats one chat message for line-mode output.
func RenderTurn(turn model.Turn) string {
	if turn.Role == model.RoleUser {
		return PromptStyle.Render("You: ") + turn.Text
	}
	return InfoStyle.Render(JetIcon+" Bay: ") + turn.Text
}
