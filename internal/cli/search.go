package cli

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbourn/sermon-search/internal/domain"
	"github.com/tbourn/sermon-search/internal/services"
)

var (
	searchMode     string
	searchLimit    int
	searchOffset   int
	searchSynonyms bool
	searchFilter   string
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search sermon paragraphs",
	Long: `Searches paragraphs in EXACT_PHRASE, EXACT_WORDS or DIVERSE mode.
Matching is case- and accent-insensitive. Single-word queries can be
expanded with synonyms when expansion is configured.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", string(domain.DefaultSearchMode), "EXACT_PHRASE, EXACT_WORDS or DIVERSE")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "maximum number of results")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "results to skip")
	searchCmd.Flags().BoolVarP(&searchSynonyms, "synonyms", "s", false, "expand single-word queries with synonyms")
	searchCmd.Flags().StringVar(&searchFilter, "filter", string(domain.FilterBoth), "synonym filter: both, original or synonyms")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

var markReplacer = strings.NewReplacer("<mark>", "*", "</mark>", "*")

func runSearch(cmd *cobra.Command, args []string) error {
	if err := requireLibrary(); err != nil {
		return err
	}
	mode, ok := domain.ParseSearchMode(searchMode)
	if !ok {
		return fmt.Errorf("unknown mode %q", searchMode)
	}
	filter, ok := domain.ParseSynonymFilter(searchFilter)
	if !ok {
		return fmt.Errorf("unknown filter %q", searchFilter)
	}

	resp := searcher.Search(cmd.Context(), domain.SearchParams{
		Query:          strings.Join(args, " "),
		Mode:           mode,
		Limit:          searchLimit,
		Offset:         searchOffset,
		ExpandSynonyms: searchSynonyms,
		Filter:         filter,
	})

	if searchJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	return outputSearchTable(cmd, resp)
}

func outputSearchTable(cmd *cobra.Command, resp services.SearchResponse) error {
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results (%s):\n", resp.Backend)
	if len(resp.Synonyms) > 0 {
		cmd.Printf("Synonyms: %s\n", strings.Join(resp.Synonyms, ", "))
	}
	cmd.Println()
	for i, r := range resp.Results {
		// Format: [N] Title (id, date) para N
		cmd.Printf("  [%d] %s (%s, %s) para %d\n", resp.Offset+i+1, r.Title, r.SermonID, r.Date, r.ParagraphIndex)
		cmd.Printf("      %s\n", html.UnescapeString(markReplacer.Replace(r.Snippet)))
		cmd.Println()
	}
	return nil
}
