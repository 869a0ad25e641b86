package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imadezze/ClassificationAlloBrain/internal/category"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage classification sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		sessions, err := s.Sessions().List(context.Background())
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions yet. Start one with: semclass discover <file>")
			return nil
		}

		fmt.Printf("%-36s  %-20s  %-26s  %-15s  %s\n", "ID", "Name", "Status", "Column", "Rows")
		fmt.Println(strings.Repeat("─", 108))
		for _, sess := range sessions {
			name := sess.Name
			if len(name) > 20 {
				name = name[:20]
			}
			fmt.Printf("%-36s  %-20s  %-26s  %-15s  %d\n",
				sess.ID, name, sess.Status, sess.ColumnName, sess.TotalRows)
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session's categories, results, and statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		sess, err := s.Sessions().Get(ctx, args[0])
		if err != nil {
			return err
		}
		if sess == nil {
			return fmt.Errorf("no session %q", args[0])
		}

		fmt.Printf("Session:  %s (%s)\n", sess.Name, sess.ID)
		fmt.Printf("Status:   %s\n", sess.Status)
		if sess.SourceFilename != "" {
			fmt.Printf("Source:   %s (%s), column %q, %d rows\n",
				sess.SourceFilename, sess.FileType, sess.ColumnName, sess.TotalRows)
		}

		if snapshot, err := s.Ledger().CurrentCategorySet(ctx, sess.ID); err == nil && snapshot != nil {
			set, err := category.SetFromJSON(snapshot.Categories)
			if err == nil {
				fmt.Printf("\nCategories (version %d, %s):\n", snapshot.Version, snapshot.ChangeKind)
				printCategories(set)
			}
		}

		stats, err := s.Ledger().Statistics(ctx, sess.ID)
		if err != nil {
			return err
		}
		if stats.Total > 0 {
			fmt.Printf("\nClassifications: %d total, %d ok, %d failed (%.0f%% success, avg %.0fms)\n",
				stats.Total, stats.Successful, stats.Failed, stats.SuccessRate, stats.AvgLatencyMs)

			dist, err := s.Ledger().Distribution(ctx, sess.ID)
			if err != nil {
				return err
			}
			fmt.Println("\nDistribution:")
			for name, count := range dist {
				fmt.Printf("  %-30s %d\n", name, count)
			}
		}

		if verbose, _ := cmd.Flags().GetBool("results"); verbose {
			recs, err := s.Ledger().Current(ctx, sess.ID)
			if err != nil {
				return err
			}
			fmt.Println("\nResults:")
			for _, rec := range recs {
				if rec.Success {
					fmt.Printf("  %q → %s (%s, v%d)\n", rec.InputText, rec.Category, rec.Confidence, rec.Version)
				} else {
					fmt.Printf("  %q → failed: %s (v%d)\n", rec.InputText, rec.Error, rec.Version)
				}
			}
		}
		return nil
	},
}

var sessionsHistoryCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show a session's category-set versions, or one value's classification versions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, _ := cmd.Flags().GetString("value")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		if value != "" {
			recs, err := s.Ledger().History(ctx, args[0], value)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Printf("No classifications for %q.\n", value)
				return nil
			}
			fmt.Printf("Versions of %q:\n", value)
			for _, rec := range recs {
				if rec.Success {
					fmt.Printf("  v%d  %s (%s)\n", rec.Version, rec.Category, rec.Confidence)
				} else {
					fmt.Printf("  v%d  failed: %s\n", rec.Version, rec.Error)
				}
			}
			return nil
		}

		snapshots, err := s.Ledger().CategoryHistory(ctx, args[0])
		if err != nil {
			return err
		}
		if len(snapshots) == 0 {
			fmt.Println("No category sets recorded.")
			return nil
		}
		for _, snap := range snapshots {
			fmt.Printf("Version %d (%s)", snap.Version, snap.ChangeKind)
			if snap.Feedback != "" {
				fmt.Printf("  feedback: %s", snap.Feedback)
			}
			fmt.Println()
			if set, err := category.SetFromJSON(snap.Categories); err == nil {
				for _, c := range set {
					fmt.Printf("  - %s\n", c.Name)
				}
			}
		}
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session and all its classifications",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		sess, err := s.Sessions().Get(ctx, args[0])
		if err != nil {
			return err
		}
		if sess == nil {
			return fmt.Errorf("no session %q", args[0])
		}
		if err := s.Sessions().Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted session %s (%s)\n", sess.ID, sess.Name)
		return nil
	},
}

func init() {
	sessionsShowCmd.Flags().Bool("results", false, "Include per-value results")
	sessionsHistoryCmd.Flags().String("value", "", "Show classification versions for this value instead")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsHistoryCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}
