package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/aviation-bay/internal/capture"
	"github.com/Veraticus/aviation-bay/internal/cli"
	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/spf13/cobra"
)

// analysis is the --json form of one analyzed image.
type analysis struct {
	Image      string              `json:"image"`
	Digest     string              `json:"digest"`
	Detections []model.DetectedJet `json:"detections"`
}

func analyzeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <image> [image...]",
		Short: "Detect aircraft in photos with AI",
		Long: `Send one or more photos to the configured AI provider and list the aircraft
it finds. Nothing is filed; use 'bay report submit' to file a report.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			images := make([]capture.Image, 0, len(args))
			for _, path := range args {
				img, err := capture.FromFile(path)
				if err != nil {
					return err
				}
				images = append(images, img)
			}

			ai, err := newAIService(ctx)
			if err != nil {
				return err
			}

			errOut := cmd.ErrOrStderr()
			results := make([][]model.DetectedJet, len(images))
			if len(images) == 1 {
				err = cli.Spin(errOut, "Analyzing photo...", func() error {
					var analyzeErr error
					results[0], analyzeErr = ai.AnalyzeImage(ctx, images[0])
					return analyzeErr
				})
				if err != nil {
					return err
				}
			} else {
				bar := cli.NewProgressBar(errOut, len(images), "Analyzing photos")
				results, err = ai.AnalyzeBatch(ctx, images, func() {
					if barErr := bar.Add(1); barErr != nil {
						slog.Debug("Failed to update progress bar", "error", barErr)
					}
				})
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				payload := make([]analysis, 0, len(images))
				for i, img := range images {
					payload = append(payload, analysis{Image: args[i], Digest: img.Digest(), Detections: results[i]})
				}
				return writeJSON(out, payload)
			}

			for i, jets := range results {
				if len(images) > 1 {
					fmt.Fprintln(out, cli.FormatTitle(args[i]))
				}
				fmt.Fprintln(out, cli.RenderDetections(jets))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print detections as JSON")

	return cmd
}
