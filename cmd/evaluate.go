package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imadezze/ClassificationAlloBrain/internal/classify"
	"github.com/imadezze/ClassificationAlloBrain/internal/evaluate"
	"github.com/imadezze/ClassificationAlloBrain/internal/llm"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Assess classification quality without ground truth",
}

var evaluateConsistencyCmd = &cobra.Command{
	Use:   "consistency <value>",
	Short: "Re-classify a value repeatedly and measure self-agreement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runs, _ := cmd.Flags().GetInt("runs")

		ctx := context.Background()
		p, s, err := newPipeline(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := attachSession(ctx, cmd, p); err != nil {
			return err
		}

		task, err := p.Task(ctx, "")
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		provider, err := llm.NewProvider(ctx, cfg, s.Calls())
		if err != nil {
			return err
		}

		e := evaluate.NewConsistencyEvaluator(classify.NewClassifier(provider, promptStore(cmd)))
		report, err := e.Evaluate(ctx, task, args[0], nil, runs)
		if err != nil {
			return err
		}

		fmt.Printf("Value:      %q\n", report.Value)
		fmt.Printf("Runs:       %d\n", report.TotalRuns)
		fmt.Printf("Agreement:  %.0f%% on %q (%s)\n", report.AgreementRate*100, report.TopCategory, report.Band)
		fmt.Println("\nPredictions:")
		for name, count := range report.Predictions {
			fmt.Printf("  %-30s %d\n", name, count)
		}
		fmt.Printf("\n%s\n", report.Recommendation)
		return nil
	},
}

var evaluateSyntheticCmd = &cobra.Command{
	Use:   "synthetic",
	Short: "Generate test examples per category and check they classify back",
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		only, _ := cmd.Flags().GetString("category")

		ctx := context.Background()
		p, s, err := newPipeline(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := attachSession(ctx, cmd, p); err != nil {
			return err
		}

		task, err := p.Task(ctx, "")
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		judges, err := llm.NewJudgeProviders(ctx, cfg, s.Calls())
		if err != nil {
			return err
		}
		provider, err := llm.NewProvider(ctx, cfg, s.Calls())
		if err != nil {
			return err
		}
		classifier := classify.NewClassifier(provider, promptStore(cmd))
		e := evaluate.NewSyntheticEvaluator(judges[0], classifier, promptStore(cmd))

		var reports []evaluate.SyntheticReport
		if only != "" {
			for _, c := range task.Categories {
				if strings.EqualFold(c.Name, only) {
					report, err := e.Evaluate(ctx, task, c, count)
					if err != nil {
						return err
					}
					reports = append(reports, *report)
				}
			}
			if len(reports) == 0 {
				return fmt.Errorf("no category %q in session", only)
			}
		} else {
			reports, err = e.EvaluateAll(ctx, task, count)
			if err != nil {
				return err
			}
		}

		for _, r := range reports {
			fmt.Printf("%-30s %.0f%% (%s)\n", r.Category, r.Accuracy, r.Band)
			for _, ex := range r.Examples {
				mark := "✓"
				if !ex.Correct {
					mark = "✗"
				}
				fmt.Printf("  %s [%s] %q → %s\n", mark, ex.Difficulty, ex.Text, ex.Predicted)
			}
		}
		return nil
	},
}

var evaluateJudgeCmd = &cobra.Command{
	Use:   "judge <value>",
	Short: "Ask independent judge models to assess a value's classification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		p, s, err := newPipeline(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := attachSession(ctx, cmd, p); err != nil {
			return err
		}

		task, err := p.Task(ctx, "")
		if err != nil {
			return err
		}

		// Judge the value's current classification, producing one first
		// when the ledger has none.
		rec, err := s.Ledger().Latest(ctx, p.Session().ID, args[0])
		if err != nil {
			return err
		}
		var predicted *classify.Result
		if rec != nil && rec.Success {
			predicted = &classify.Result{Category: rec.Category, Confidence: rec.Confidence}
		} else {
			fresh, err := p.ReclassifyValue(ctx, args[0], "")
			if err != nil {
				return err
			}
			predicted = &classify.Result{Category: fresh.Category, Confidence: fresh.Confidence}
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		judges, err := llm.NewJudgeProviders(ctx, cfg, s.Calls())
		if err != nil {
			return err
		}

		e := evaluate.NewJudgeEvaluator(judges, promptStore(cmd))
		report, err := e.Evaluate(ctx, task.ColumnName, task.Categories, args[0], predicted)
		if err != nil {
			return err
		}

		fmt.Printf("Value:      %q\n", report.Value)
		fmt.Printf("Predicted:  %s\n", report.PredictedCategory)
		fmt.Printf("Judges:     %d of %d responded\n", report.JudgesResponded, report.JudgesAsked)
		fmt.Printf("Consensus:  %s\n", report.Consensus)
		fmt.Printf("Verdict:    %s\n\n", report.Verdict)
		for _, op := range report.Opinions {
			fmt.Printf("%s: %s (independent: %s, quality: %s)\n  %s\n",
				op.Model, op.Agreement, op.IndependentCategory, op.Quality, op.Reasoning)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{evaluateConsistencyCmd, evaluateSyntheticCmd, evaluateJudgeCmd} {
		c.Flags().StringP("session", "s", "", "Session ID")
	}
	evaluateConsistencyCmd.Flags().Int("runs", 0, "Runs per temperature (default 2)")
	evaluateSyntheticCmd.Flags().Int("count", 0, "Examples per category (default 5)")
	evaluateSyntheticCmd.Flags().String("category", "", "Evaluate one category only")

	evaluateCmd.AddCommand(evaluateConsistencyCmd)
	evaluateCmd.AddCommand(evaluateSyntheticCmd)
	evaluateCmd.AddCommand(evaluateJudgeCmd)
}
