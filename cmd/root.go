package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/imadezze/ClassificationAlloBrain/internal/category"
	"github.com/imadezze/ClassificationAlloBrain/internal/classify"
	"github.com/imadezze/ClassificationAlloBrain/internal/llm"
	"github.com/imadezze/ClassificationAlloBrain/internal/prompts"
	"github.com/imadezze/ClassificationAlloBrain/internal/store"
	"github.com/imadezze/ClassificationAlloBrain/internal/workflow"
)

var rootCmd = &cobra.Command{
	Use:   "semclass",
	Short: "LLM-assisted category discovery and classification for tabular data",
	Long: "Semclass ingests a CSV or Excel column, proposes categories for its values\n" +
		"with an LLM, lets you edit or refine them, and classifies every row,\n" +
		"keeping a full version history of each value's classifications.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SEMCLASS_DB env var)")
	rootCmd.PersistentFlags().String("prompts", "", "Directory of prompt template overrides")

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(refineCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(examplesCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then SEMCLASS_DB, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if p := os.Getenv("SEMCLASS_DB"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func promptStore(cmd *cobra.Command) *prompts.Store {
	dir, _ := cmd.Flags().GetString("prompts")
	return prompts.NewStore(dir)
}

// loadConfig reads SEMCLASS_* configuration, falling back to probing the
// standard provider API key variables.
func loadConfig() (llm.Config, error) {
	cfg := llm.ConfigFromEnv()
	if cfg.Validate() != nil {
		if discovered, ok := llm.DiscoverConfig(); ok {
			cfg = discovered
		}
	}
	if err := cfg.Validate(); err != nil {
		return llm.Config{}, err
	}
	return cfg, nil
}

// newPipeline wires store, provider, discoverer, and classifier together.
// The caller owns closing the returned store.
func newPipeline(ctx context.Context, cmd *cobra.Command) (*workflow.Pipeline, *store.Store, error) {
	s, err := openStore(cmd)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := loadConfig()
	if err != nil {
		s.Close()
		return nil, nil, err
	}

	provider, err := llm.NewProvider(ctx, cfg, s.Calls())
	if err != nil {
		s.Close()
		return nil, nil, err
	}

	ps := promptStore(cmd)
	p := workflow.NewPipeline(s, category.NewDiscoverer(provider, ps), classify.NewClassifier(provider, ps))
	return p, s, nil
}

// newOfflinePipeline builds a pipeline for commands that never call the
// LLM (editing, inspection). The mock provider backs the unused
// collaborators.
func newOfflinePipeline(cmd *cobra.Command, s *store.Store) *workflow.Pipeline {
	ps := promptStore(cmd)
	provider := llm.NewMockProvider()
	return workflow.NewPipeline(s, category.NewDiscoverer(provider, ps), classify.NewClassifier(provider, ps))
}

// attachSession loads the session named by --session into the pipeline.
func attachSession(ctx context.Context, cmd *cobra.Command, p *workflow.Pipeline) error {
	id, _ := cmd.Flags().GetString("session")
	if id == "" {
		return fmt.Errorf("--session is required")
	}
	_, err := p.LoadSession(ctx, id)
	return err
}

func printCategories(set category.Set) {
	for i, c := range set {
		fmt.Printf("%d. %s\n", i+1, c.Name)
		if c.Description != "" {
			fmt.Printf("   %s\n", c.Description)
		}
		if c.Boundary != "" {
			fmt.Printf("   Boundary: %s\n", c.Boundary)
		}
		if len(c.Examples) > 0 {
			fmt.Printf("   Examples: %v\n", c.Examples)
		}
	}
}
