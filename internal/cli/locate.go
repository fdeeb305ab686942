package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbourn/sermon-search/internal/services"
)

var locateCmd = &cobra.Command{
	Use:   "locate [document-id] [text]",
	Short: "Find a quoted passage in a document",
	Long: `Relocates a citation inside one document by its words and prints the
global word range a highlight would use.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runLocate,
}

func init() {
	rootCmd.AddCommand(locateCmd)
}

func runLocate(cmd *cobra.Command, args []string) error {
	if err := requireLibrary(); err != nil {
		return err
	}
	res, err := library.Locate(cmd.Context(), args[0], strings.Join(args[1:], " "))
	switch {
	case errors.Is(err, services.ErrCitationNotFound):
		cmd.Println("Not found.")
		return nil
	case err != nil:
		return fmt.Errorf("locate failed: %w", err)
	}
	cmd.Printf("words %d-%d: %s\n", res.Start, res.End, res.Text)
	return nil
}
