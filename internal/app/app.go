// Package app assembles the storage, search backends and services shared
// by the HTTP server and the command line tool.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/sermon-search/internal/config"
	"github.com/tbourn/sermon-search/internal/corpus"
	"github.com/tbourn/sermon-search/internal/repo"
	"github.com/tbourn/sermon-search/internal/search"
	"github.com/tbourn/sermon-search/internal/services"
	"github.com/tbourn/sermon-search/internal/synonym"
)

// App is the wired dependency graph.
type App struct {
	DB       *gorm.DB
	Indexed  *search.Indexed
	Fallback *search.Fallback
	Library  *services.LibraryService
	Search   *services.SearchService
	Expander *synonym.Expander

	log  zerolog.Logger
	http *synonym.HTTPLookup
}

// New opens cfg.DBPath, prepares the full-text table when enabled, and
// builds the services. The fallback snapshot is built from whatever the
// store already holds.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return Wire(ctx, db, cfg, log)
}

// Wire builds the services over an already opened database.
func Wire(ctx context.Context, db *gorm.DB, cfg config.Config, log zerolog.Logger) (*App, error) {
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	a := &App{DB: db, log: log, Indexed: search.NewIndexed(db)}
	a.Indexed.MarkReady(a.prepareFTS(ctx, cfg.Search.FTSEnabled))

	a.Fallback = search.NewFallback(
		search.WithConcurrency(cfg.Search.Concurrency),
		search.WithSnippetMiss(func(documentID string, paragraphIndex int) {
			log.Debug().Str("document_id", documentID).Int("paragraph", paragraphIndex).
				Msg("fallback match without snippet highlight")
		}),
	)
	a.Library = services.NewLibraryService(db, a.Fallback, a.Indexed.Ready())

	exp, err := a.expander(cfg.Synonyms)
	if err != nil {
		return nil, err
	}
	a.Expander = exp

	var indexed search.Backend
	if a.Indexed.Ready() {
		indexed = a.Indexed
	}
	a.Search = services.NewSearchService(indexed, a.Fallback, exp)
	a.Search.DefaultLimit = cfg.Search.DefaultLimit
	a.Search.MaxLimit = cfg.Search.MaxLimit

	if err := a.Library.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("fallback snapshot not built")
	}
	return a, nil
}

// prepareFTS reports whether the indexed backend can be used.
func (a *App) prepareFTS(ctx context.Context, enabled bool) bool {
	if !enabled {
		a.log.Info().Msg("full-text index disabled; serving from the in-memory snapshot")
		return false
	}
	if err := repo.EnsureFTS(a.DB); err != nil {
		if errors.Is(err, repo.ErrFTSUnavailable) {
			a.log.Warn().Msg("sqlite build lacks fts5; serving from the in-memory snapshot")
		} else {
			a.log.Error().Err(err).Msg("create full-text table")
		}
		return false
	}

	// A table created after paragraphs were imported starts empty.
	// One written while the index was off has stale or missing rows.
	indexed, err1 := repo.CountFTS(ctx, a.DB)
	stored, err2 := repo.CountParagraphs(ctx, a.DB)
	missing, err3 := repo.MissingFTS(ctx, a.DB)
	if err := errors.Join(err1, err2, err3); err != nil {
		a.log.Error().Err(err).Msg("count full-text rows")
		return false
	}
	if indexed != stored || missing > 0 {
		start := time.Now()
		if err := repo.RebuildFTS(ctx, a.DB); err != nil {
			a.log.Error().Err(err).Msg("rebuild full-text table")
			return false
		}
		a.log.Info().Int64("paragraphs", stored).Dur("took", time.Since(start)).Msg("full-text table rebuilt")
	}
	return true
}

func (a *App) expander(cfg config.SynonymConfig) (*synonym.Expander, error) {
	if !cfg.Enabled {
		return synonym.NewExpander(nil, false), nil
	}
	var chain synonym.Chain
	if cfg.File != "" {
		th, err := synonym.LoadThesaurus(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("load thesaurus: %w", err)
		}
		a.log.Info().Int("entries", th.Len()).Str("file", cfg.File).Msg("thesaurus loaded")
		chain = append(chain, th)
	}
	if cfg.URL != "" {
		a.http = synonym.NewHTTPLookup(cfg.URL, cfg.Param, cfg.Timeout, cfg.RPS)
		chain = append(chain, a.http)
	}
	return synonym.NewExpander(chain, true), nil
}

// ImportFile loads a .json or .jsonl corpus file and imports it.
func (a *App) ImportFile(ctx context.Context, path string) (services.ImportSummary, error) {
	docs, err := corpus.Load(path)
	if err != nil {
		return services.ImportSummary{}, err
	}
	return a.Library.Import(ctx, docs)
}

// Close releases the database and idle synonym connections.
func (a *App) Close() error {
	if a.http != nil {
		a.http.CloseIdleConnections()
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
