// Command sermond serves the sermon search HTTP API.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/sermon-search/internal/app"
	"github.com/tbourn/sermon-search/internal/config"
	"github.com/tbourn/sermon-search/internal/corpus"
	httpapi "github.com/tbourn/sermon-search/internal/http"
	"github.com/tbourn/sermon-search/internal/observability"
	"github.com/tbourn/sermon-search/internal/repo"
	"github.com/tbourn/sermon-search/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

const (
	shutdownGrace = 15 * time.Second
	purgeEvery    = time.Hour
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := observability.SetupLogger(cfg.LogLevel, cfg.LogPretty, nil)
	ver := sysutil.Version(version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		logger.Fatal().Err(err).Msg("otel setup")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			logger.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup")
	}
	defer func() { _ = a.Close() }()

	if cfg.Corpus.Path != "" {
		importCorpus(ctx, a, cfg.Corpus.Path)
		if cfg.Corpus.Watch {
			w, err := corpus.NewWatcher(cfg.Corpus.Path, cfg.Corpus.Debounce, logger, func(ctx context.Context, path string) error {
				_, err := a.ImportFile(ctx, path)
				return err
			})
			if err != nil {
				logger.Fatal().Err(err).Msg("corpus watcher")
			}
			if err := w.Start(ctx); err != nil {
				logger.Fatal().Err(err).Msg("corpus watcher start")
			}
			defer func() { _ = w.Stop() }()
		}
	}

	go purgeIdempotency(ctx, a)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, a.DB, httpapi.Services{
		Search:   a.Search,
		Library:  a.Library,
		Indexed:  a.Indexed,
		Fallback: a.Fallback,
	}, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("version", ver).
			Bool("indexed", a.Indexed.Ready()).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			logger.Error().Err(err).Msg("server stopped")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}

func importCorpus(ctx context.Context, a *app.App, path string) {
	sum, err := a.ImportFile(ctx, path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("corpus import failed")
		return
	}
	log.Info().Str("path", path).
		Int("documents", sum.Documents).
		Int("paragraphs", sum.Paragraphs).
		Int("created", sum.Created).
		Int("changed", sum.Changed).
		Dur("took", sum.Took).
		Msg("corpus imported")
}

func purgeIdempotency(ctx context.Context, a *app.App) {
	t := time.NewTicker(purgeEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, a.DB, now)
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency keys")
				continue
			}
			if n > 0 {
				log.Debug().Int64("purged", n).Msg("expired idempotency keys removed")
			}
		}
	}
}
