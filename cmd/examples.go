package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imadezze/ClassificationAlloBrain/internal/store"
)

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "Manage few-shot classification examples",
}

var examplesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a few-shot example (session-local or --global)",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		cat, _ := cmd.Flags().GetString("category")
		reasoning, _ := cmd.Flags().GetString("reasoning")
		global, _ := cmd.Flags().GetBool("global")
		session, _ := cmd.Flags().GetString("session")

		if text == "" || cat == "" {
			return fmt.Errorf("--text and --category are required")
		}
		if !global && session == "" {
			return fmt.Errorf("--session is required unless --global is set")
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ex := store.FewShotExample{
			Text:      text,
			Category:  cat,
			Reasoning: reasoning,
			IsGlobal:  global,
		}
		if !global {
			ex.SessionID = session
		}

		id, err := s.Examples().Add(context.Background(), ex)
		if err != nil {
			return err
		}
		fmt.Printf("Added example %d\n", id)
		return nil
	},
}

var examplesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List examples for a session (with globals), or all globals",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _ := cmd.Flags().GetString("session")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		var examples []store.FewShotExample
		if session != "" {
			examples, err = s.Examples().ForSession(ctx, session)
		} else {
			examples, err = s.Examples().Globals(ctx)
		}
		if err != nil {
			return err
		}
		if len(examples) == 0 {
			fmt.Println("No examples.")
			return nil
		}

		fmt.Printf("%-5s  %-40s  %-20s  %s\n", "ID", "Text", "Category", "Scope")
		fmt.Println(strings.Repeat("─", 80))
		for _, ex := range examples {
			scope := "session"
			if ex.IsGlobal {
				scope = "global"
			}
			text := ex.Text
			if len(text) > 40 {
				text = text[:40]
			}
			fmt.Printf("%-5d  %-40s  %-20s  %s\n", ex.ID, text, ex.Category, scope)
		}
		return nil
	},
}

var examplesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all session-local examples for a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _ := cmd.Flags().GetString("session")
		if session == "" {
			return fmt.Errorf("--session is required")
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := s.Examples().DeleteForSession(context.Background(), session)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d example(s)\n", n)
		return nil
	},
}

var examplesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an example by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q", args[0])
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Examples().Delete(context.Background(), id); err != nil {
			return err
		}
		fmt.Printf("Deleted example %d\n", id)
		return nil
	},
}

func init() {
	examplesAddCmd.Flags().StringP("session", "s", "", "Session ID")
	examplesAddCmd.Flags().String("text", "", "Example text")
	examplesAddCmd.Flags().String("category", "", "Correct category for the text")
	examplesAddCmd.Flags().String("reasoning", "", "Why the category is correct")
	examplesAddCmd.Flags().Bool("global", false, "Apply to every session")
	examplesListCmd.Flags().StringP("session", "s", "", "Session ID (omit for globals only)")
	examplesClearCmd.Flags().StringP("session", "s", "", "Session ID")

	examplesCmd.AddCommand(examplesAddCmd)
	examplesCmd.AddCommand(examplesListCmd)
	examplesCmd.AddCommand(examplesClearCmd)
	examplesCmd.AddCommand(examplesDeleteCmd)
}
