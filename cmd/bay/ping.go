package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/aviation-bay/internal/cli"
	"github.com/spf13/cobra"
)

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the AI provider connection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			ai, err := newAIService(ctx)
			if err != nil {
				return err
			}

			start := time.Now()
			if err := ai.Ping(ctx); err != nil {
				return fmt.Errorf("%s did not respond: %w", ai.Provider(), err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s %s answered in %s",
				cli.RadarIcon, ai.Provider(), time.Since(start).Round(time.Millisecond))))
			return nil
		},
	}
}
