// Package cli implements sermonctl, the command line front end to the
// sermon library: import a corpus, list documents, search, relocate
// citations and manage highlights against a local database.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/tbourn/sermon-search/internal/app"
	"github.com/tbourn/sermon-search/internal/config"
	"github.com/tbourn/sermon-search/internal/observability"
	"github.com/tbourn/sermon-search/internal/services"
)

// skipAppAnnotation marks commands that run without opening the library.
const skipAppAnnotation = "sermonctl/skip-app"

var (
	version = "dev"

	dbPath   string
	logLevel string
	noFTS    bool

	library  *services.LibraryService
	searcher *services.SearchService
	closeApp func() error
)

var rootCmd = &cobra.Command{
	Use:   "sermonctl",
	Short: "Search and read a sermon library",
	Long: `sermonctl works directly on the SQLite library used by sermond.
It imports JSON or JSONL corpora, searches paragraphs, relocates quoted
citations and manages highlights.`,
	SilenceUsage:      true,
	PersistentPreRunE: openLibrary,
	PersistentPostRunE: func(*cobra.Command, []string) error {
		if closeApp == nil {
			return nil
		}
		err := closeApp()
		closeApp, library, searcher = nil, nil, nil
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "library database (default $DB_PATH or sermons.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")
	rootCmd.PersistentFlags().BoolVar(&noFTS, "no-fts", false, "skip the full-text index and search in memory")
}

// Execute runs the root command.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

func openLibrary(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipAppAnnotation] == "true" || library != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if noFTS {
		cfg.Search.FTSEnabled = false
	}
	logger := observability.SetupLogger(logLevel, true, cmd.ErrOrStderr())

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	library, searcher, closeApp = a.Library, a.Search, a.Close
	return nil
}

func requireLibrary() error {
	if library == nil || searcher == nil {
		return errors.New("library not opened")
	}
	return nil
}
