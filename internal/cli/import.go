package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbourn/sermon-search/internal/corpus"
)

var importJSON bool

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a corpus file",
	Long: `Imports sermons from a .json array or a .jsonl file. Documents whose id
already exists are replaced; their highlights are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if err := requireLibrary(); err != nil {
		return err
	}
	docs, err := corpus.Load(args[0])
	if err != nil {
		return fmt.Errorf("read corpus: %w", err)
	}
	sum, err := library.Import(cmd.Context(), docs)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if importJSON {
		data, err := json.MarshalIndent(sum, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	cmd.Printf("Imported %d documents (%d paragraphs): %d created, %d changed, %d unchanged\n",
		sum.Documents, sum.Paragraphs, sum.Created, sum.Changed, sum.Unchanged)
	return nil
}
