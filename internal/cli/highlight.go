package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var highlightCmd = &cobra.Command{
	Use:     "highlight",
	Aliases: []string{"hl"},
	Short:   "Manage highlights",
}

var highlightAddCmd = &cobra.Command{
	Use:   "add [document-id] [start] [end]",
	Short: "Highlight an inclusive word range",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLibrary(); err != nil {
			return err
		}
		start, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		end, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("end: %w", err)
		}
		h, err := library.AddHighlight(cmd.Context(), args[0], start, end)
		if err != nil {
			return err
		}
		cmd.Printf("%s %d-%d\n", h.ID, h.Start, h.End)
		return nil
	},
}

var highlightListCmd = &cobra.Command{
	Use:     "list [document-id]",
	Aliases: []string{"ls"},
	Short:   "List the highlights of a document",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLibrary(); err != nil {
			return err
		}
		hs, err := library.ListHighlights(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(hs) == 0 {
			cmd.Println("No highlights.")
			return nil
		}
		for _, h := range hs {
			cmd.Printf("  %s %d-%d\n", h.ID, h.Start, h.End)
		}
		return nil
	},
}

var highlightRemoveCmd = &cobra.Command{
	Use:     "remove [highlight-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a highlight",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLibrary(); err != nil {
			return err
		}
		if err := library.DeleteHighlight(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Println("Deleted.")
		return nil
	},
}

func init() {
	highlightCmd.AddCommand(highlightAddCmd, highlightListCmd, highlightRemoveCmd)
	rootCmd.AddCommand(highlightCmd)
}
