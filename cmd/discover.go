package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover <file>",
	Short: "Create a session from a data file and discover categories for a column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		column, _ := cmd.Flags().GetString("column")
		sheet, _ := cmd.Flags().GetString("sheet")
		name, _ := cmd.Flags().GetString("name")
		count, _ := cmd.Flags().GetInt("count")
		retries, _ := cmd.Flags().GetInt("retries")

		ctx := context.Background()
		p, s, err := newPipeline(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if name == "" {
			name = args[0]
		}
		sess, err := p.CreateSession(ctx, name)
		if err != nil {
			return err
		}

		table, err := p.LoadFile(ctx, args[0], sheet)
		if err != nil {
			return err
		}
		fmt.Printf("Loaded %d rows from %s\n", table.NumRows(), args[0])

		if column == "" {
			candidates := table.TextColumns()
			if len(candidates) == 0 {
				return fmt.Errorf("no text-like columns found; pass --column explicitly")
			}
			column = candidates[0]
			fmt.Printf("No column given; using %q (candidates: %v)\n", column, candidates)
		}
		if err := p.ChooseColumn(ctx, column); err != nil {
			return err
		}

		result, err := p.DiscoverCategories(ctx, count, retries)
		if err != nil {
			return err
		}

		fmt.Printf("\nDiscovered %d categories in %d attempt(s):\n\n", len(result.Set), result.Attempts)
		printCategories(result.Set)
		if result.Warning != "" {
			fmt.Printf("\nWarning: %s\n", result.Warning)
		}
		fmt.Printf("\nSession: %s\n", sess.ID)
		fmt.Println("Next: semclass edit / refine to adjust categories, then semclass classify.")
		return nil
	},
}

func init() {
	discoverCmd.Flags().StringP("column", "c", "", "Column to classify (default: best text-like column)")
	discoverCmd.Flags().String("sheet", "", "Excel sheet name (default: first sheet)")
	discoverCmd.Flags().String("name", "", "Session name (default: file path)")
	discoverCmd.Flags().IntP("count", "n", 5, "Number of categories to discover")
	discoverCmd.Flags().Int("retries", 2, "Retries when the model returns a malformed or wrong-sized answer")
}
