package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imadezze/ClassificationAlloBrain/internal/edit"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Interactively edit the session's categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		// Editing needs no LLM; open the store directly.
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		p := newOfflinePipeline(cmd, s)
		if err := attachSession(ctx, cmd, p); err != nil {
			return err
		}

		current, err := p.Categories(ctx)
		if err != nil {
			return err
		}

		edited, saved, err := edit.Run(current)
		if err != nil {
			return err
		}
		if !saved {
			fmt.Println("No changes saved.")
			return nil
		}

		if err := p.SaveEditedCategories(ctx, edited); err != nil {
			return err
		}
		fmt.Printf("Saved %d categories as a new version.\n", len(edited))
		return nil
	},
}

func init() {
	editCmd.Flags().StringP("session", "s", "", "Session ID")
}
