// Package httpapi wires the HTTP transport (Gin) to the search and library
// services, middleware, and route handlers. It centralizes cross-cutting
// concerns such as tracing, correlation IDs, logging, panic recovery,
// metrics, compression, CORS, security headers, idempotency, and rate
// limiting.
//
// @title                      Sermon Search API
// @version                    1.0
// @description                Full-text search, reading and highlighting over a sermon library.
// @BasePath                   /api/v1
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/sermon-search/internal/config"
	"github.com/tbourn/sermon-search/internal/docs"
	"github.com/tbourn/sermon-search/internal/http/handlers"
	"github.com/tbourn/sermon-search/internal/http/middleware"
	"github.com/tbourn/sermon-search/internal/repo"
	"github.com/tbourn/sermon-search/internal/search"
	"github.com/tbourn/sermon-search/internal/services"
)

// importRoute is relative to the API base path.
const importRoute = "/documents/import"

// Services bundles what the routes need. Indexed and Fallback are only
// consulted by /ready; searches go through Search.
type Services struct {
	Search   *services.SearchService
	Library  *services.LibraryService
	Indexed  search.Backend
	Fallback search.Backend
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access log with query scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter (imports get their own, larger cap)
//  6. Gzip
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per IP, bypass on replay, probes exempt)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, svc Services, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	apiBase := cfg.APIBasePath
	importPath := joinPath(apiBase, importRoute)

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	r.Use(limitBody(cfg.MaxBodyBytes, importPath))

	// 6) Response compression; scrapers handle their own
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP()).
		SkipPaths("/health", "/ready", "/metrics")
	r.Use(rl.Handler())

	// 10) CORS posture (allow all if none configured)
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "If-None-Match", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    append([]string{"Content-Length"}, middleware.ExposedHeaders...),
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		corsCfg.AllowAllOrigins = true
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness and readiness
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/ready", readiness(svc.Indexed, svc.Fallback))

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = apiBase
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(svc.Search, svc.Library)
	h.IdempotencyTTL = cfg.IdempotencyTTL

	api := groupWithPrefix(r, apiBase)
	{
		// Search
		api.GET("/search", h.Search)

		// Documents
		api.POST(importRoute, limitBody(cfg.ImportMaxBytes), h.ImportDocuments)
		api.GET("/documents", h.ListDocuments)
		api.GET("/documents/:id", h.GetDocument)
		api.GET("/documents/:id/words", h.GetWords)
		api.GET("/documents/:id/locate", h.LocateCitation)

		// Highlights
		api.GET("/documents/:id/highlights", h.ListHighlights)
		api.POST("/documents/:id/highlights", h.CreateHighlight)
		api.DELETE("/highlights/:hid", h.DeleteHighlight)
	}
}

// readiness reports 200 once either backend can serve, 503 otherwise.
func readiness(indexed, fallback search.Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		idx := indexed != nil && indexed.Ready()
		fb := fallback != nil && fallback.Ready()
		status := http.StatusOK
		if !idx && !fb {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":    idx || fb,
			"indexed":  idx,
			"fallback": fb,
		})
	}
}

// limitBody returns a Gin middleware that caps the request body size to
// maxBytes using http.MaxBytesReader. Requests exceeding the cap will cause
// downstream body reads to error. Paths in except are left alone so a route
// can install its own cap.
func limitBody(maxBytes int64, except ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(except))
	for _, p := range except {
		skip[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; !ok && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

func joinPath(base, p string) string {
	if base == "" || base == "/" {
		return p
	}
	return strings.TrimRight(base, "/") + p
}
