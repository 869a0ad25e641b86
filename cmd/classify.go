package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify the session's column, or retry one value with feedback",
	Long: "Without --value, classifies every non-empty value of the session's column,\n" +
		"appending one ledger version per value. With --value, re-classifies that\n" +
		"single value (optionally steered by --feedback) as its next version.",
	RunE: func(cmd *cobra.Command, args []string) error {
		value, _ := cmd.Flags().GetString("value")
		feedback, _ := cmd.Flags().GetString("feedback")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		p, s, err := newPipeline(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := attachSession(ctx, cmd, p); err != nil {
			return err
		}

		if value != "" {
			rec, err := p.ReclassifyValue(ctx, value, feedback)
			if err != nil {
				return err
			}
			fmt.Printf("%q → %s (confidence %s, version %d)\n",
				value, rec.Category, rec.Confidence, rec.Version)
			return nil
		}

		summary, err := p.ClassifyAll(ctx, func(done, total int) {
			fmt.Printf("\rClassifying %d/%d", done, total)
		})
		if summary != nil {
			fmt.Println()
		}
		if err != nil {
			if summary != nil {
				fmt.Printf("Stopped after %d values (%d ok, %d failed)\n",
					summary.Successful+summary.Failed, summary.Successful, summary.Failed)
			}
			return err
		}

		fmt.Printf("Done: %d values, %d ok, %d failed\n",
			summary.Total, summary.Successful, summary.Failed)

		dist, err := p.Distribution(ctx)
		if err != nil {
			return err
		}
		fmt.Println("\nDistribution:")
		for name, count := range dist {
			fmt.Printf("  %-30s %d\n", name, count)
		}
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringP("session", "s", "", "Session ID")
	classifyCmd.Flags().String("value", "", "Single value to re-classify instead of the whole column")
	classifyCmd.Flags().String("feedback", "", "Guidance for the retry (used with --value)")
}
