package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

var refineCmd = &cobra.Command{
	Use:   "refine <feedback...>",
	Short: "Rework the session's categories from free-text feedback",
	Args:  cobra.MinimumNArgs(1),
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

		refined, err := p.RefineCategories(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		printCategories(refined)
		return nil
	},
}

func init() {
	refineCmd.Flags().StringP("session", "s", "", "Session ID")
}
