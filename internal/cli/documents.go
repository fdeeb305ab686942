package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbourn/sermon-search/internal/domain"
)

var (
	documentsFilter string
	documentsJSON   bool
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"ls"},
	Short:   "List documents in the library",
	Args:    cobra.NoArgs,
	RunE:    runDocuments,
}

func init() {
	documentsCmd.Flags().StringVarP(&documentsFilter, "filter", "q", "", "keep titles containing this text")
	documentsCmd.Flags().BoolVar(&documentsJSON, "json", false, "output documents as JSON")
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	if err := requireLibrary(); err != nil {
		return err
	}
	docs, err := library.List(cmd.Context(), documentsFilter)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}
	if documentsJSON {
		if docs == nil {
			docs = []domain.Document{}
		}
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No documents.")
		return nil
	}
	for _, d := range docs {
		line := fmt.Sprintf("  %-12s %-10s %s", d.ID, d.Date, d.Title)
		if d.City != "" {
			line += " (" + d.City + ")"
		}
		cmd.Println(line)
	}
	return nil
}
