package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/aviation-bay/internal/llm"
	"github.com/Veraticus/aviation-bay/internal/model"
)

// ErrInputTerminated is returned when the input stream ends before a valid answer.
var ErrInputTerminated = errors.New("input terminated")

// Prompter asks the spotter to confirm or correct what the analyzer saw.
type Prompter struct {
	reader *NonBlockingReader
	writer io.Writer
}

// NewCLIPrompter creates a new CLI prompter with the given reader and writer.
func NewCLIPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		reader: NewNonBlockingReader(reader),
		writer: writer,
	}
}

// SuggestedCategories maps detections onto categories, strongest first,
// without duplicates. Detections of unknown types are skipped.
func SuggestedCategories(jets []model.DetectedJet) []model.Category {
	var out []model.Category
	seen := make(map[model.Category]bool)
	for _, j := range jets {
		c, ok := llm.DetectionCategory(j.JetType)
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// SelectCategories shows the detections and asks which jet types to file the
// report under. An empty answer accepts the suggestions when there are any.
func (p *Prompter) SelectCategories(ctx context.Context, jets []model.DetectedJet) ([]model.Category, error) {
	if len(jets) > 0 {
		if _, err := fmt.Fprintln(p.writer, RenderBox("AI Analysis", RenderDetections(jets))); err != nil {
			return nil, fmt.Errorf("failed to write detections: %w", err)
		}
	}

	suggested := SuggestedCategories(jets)
	marked := make(map[model.Category]bool, len(suggested))
	for _, c := range suggested {
		marked[c] = true
	}

	if _, err := fmt.Fprintln(p.writer, FormatPrompt("Jet types:")); err != nil {
		return nil, fmt.Errorf("failed to write category options: %w", err)
	}
	for _, c := range model.Categories() {
		line := fmt.Sprintf("  [%s] %s", c, c.Name())
		if marked[c] {
			line = SuccessStyle.Render(line + " (suggested)")
		}
		if _, err := fmt.Fprintln(p.writer, line); err != nil {
			return nil, fmt.Errorf("failed to write category option: %w", err)
		}
	}

	label := "Choose one or more, e.g. 1,3"
	if len(suggested) > 0 {
		label += " (Enter accepts suggestions)"
	}

	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(label)); err != nil {
			return nil, fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.reader.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrInputTerminated
			}
			return nil, err
		}

		if input == "" {
			if len(suggested) > 0 {
				return suggested, nil
			}
			p.complain("Please select at least one jet type.")
			continue
		}

		categories, err := ParseCategoryList(input)
		if err != nil {
			p.complain(err.Error())
			continue
		}
		return categories, nil
	}
}

// Confirm asks a yes/no question. Anything other than y or yes is a no.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(question+" [y/N]")); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}

	input, err := p.reader.ReadLine(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}

	switch strings.ToLower(input) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (p *Prompter) complain(msg string) {
	if _, err := fmt.Fprintln(p.writer, FormatError(msg)); err != nil {
		slog.Warn("Failed to write error message", "error", err)
	}
}

// ParseCategoryList parses a comma or space separated list of category ids,
// slugs or names. Duplicates are dropped and input order is kept.
func ParseCategoryList(input string) ([]model.Category, error) {
	var out []model.Category
	seen := make(map[model.Category]bool)
	add := func(c model.Category) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}

	for _, token := range strings.Split(input, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		if c, err := model.ParseCategory(token); err == nil {
			add(c)
			continue
		}

		// "1 3" or "drone helicopter"
		fields := strings.Fields(token)
		if len(fields) < 2 {
			return nil, fmt.Errorf("unknown jet type: %q", token)
		}
		for _, f := range fields {
			c, err := model.ParseCategory(f)
			if err != nil {
				return nil, fmt.Errorf("unknown jet type: %q", f)
			}
			add(c)
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("please select at least one jet type")
	}
	return out, nil
}
