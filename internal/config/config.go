// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, the database and corpus paths, search
// paging bounds, synonym expansion, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/sermon-search/internal/sysutil"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "sermon-search")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// CorpusConfig locates the optional import file loaded at startup.
type CorpusConfig struct {
	Path     string        // CORPUS_PATH (.json or .jsonl); empty disables preload
	Watch    bool          // CORPUS_WATCH re-imports on change
	Debounce time.Duration // CORPUS_DEBOUNCE
}

// SearchConfig bounds search paging and picks the backends.
type SearchConfig struct {
	FTSEnabled   bool // FTS_ENABLED; false forces the in-memory backend
	DefaultLimit int  // SEARCH_DEFAULT_LIMIT
	MaxLimit     int  // SEARCH_MAX_LIMIT
	Concurrency  int  // SEARCH_SNAPSHOT_CONCURRENCY, workers for snapshot builds
}

// SynonymConfig configures synonym expansion. A local thesaurus (File) and a
// remote definition service (URL) may be combined; the file is asked first.
type SynonymConfig struct {
	Enabled bool          // SYNONYMS_ENABLED
	URL     string        // SYNONYMS_URL
	Param   string        // SYNONYMS_PARAM, query parameter carrying the word
	File    string        // SYNONYMS_FILE, TOML thesaurus
	Timeout time.Duration // SYNONYMS_TIMEOUT
	RPS     float64       // SYNONYMS_RPS, 0 = unthrottled
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath         string // SQLite path
	MaxBodyBytes   int64  // MAX_BODY_BYTES, default request body cap
	ImportMaxBytes int64  // IMPORT_MAX_BYTES, body cap for document imports
	Corpus         CorpusConfig
	Search         SearchConfig
	Synonyms       SynonymConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:         getenv("DB_PATH", "sermons.db"),
		MaxBodyBytes:   int64(getint("MAX_BODY_BYTES", 1<<20)),
		ImportMaxBytes: int64(getint("IMPORT_MAX_BYTES", 64<<20)),
		Corpus: CorpusConfig{
			Path:     getenv("CORPUS_PATH", ""),
			Watch:    getbool("CORPUS_WATCH", false),
			Debounce: getdur("CORPUS_DEBOUNCE", 500*time.Millisecond),
		},
		Search: SearchConfig{
			FTSEnabled:   getbool("FTS_ENABLED", true),
			DefaultLimit: getint("SEARCH_DEFAULT_LIMIT", 20),
			MaxLimit:     getint("SEARCH_MAX_LIMIT", 50),
			Concurrency:  getint("SEARCH_SNAPSHOT_CONCURRENCY", 4),
		},
		Synonyms: SynonymConfig{
			Enabled: getbool("SYNONYMS_ENABLED", false),
			URL:     getenv("SYNONYMS_URL", ""),
			Param:   getenv("SYNONYMS_PARAM", "word"),
			File:    getenv("SYNONYMS_FILE", ""),
			Timeout: getdur("SYNONYMS_TIMEOUT", 3*time.Second),
			RPS:     getfloat("SYNONYMS_RPS", 2.0),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "sermon-search"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.MaxBodyBytes <= 0 || cfg.ImportMaxBytes <= 0 {
		return cfg, errors.New("MAX_BODY_BYTES and IMPORT_MAX_BYTES must be > 0")
	}
	if cfg.Corpus.Watch && strings.TrimSpace(cfg.Corpus.Path) == "" {
		return cfg, errors.New("CORPUS_WATCH requires CORPUS_PATH")
	}
	if cfg.Corpus.Debounce <= 0 {
		return cfg, errors.New("CORPUS_DEBOUNCE must be > 0")
	}
	if cfg.Search.MaxLimit < 1 {
		return cfg, errors.New("SEARCH_MAX_LIMIT must be >= 1")
	}
	if cfg.Search.DefaultLimit < 1 || cfg.Search.DefaultLimit > cfg.Search.MaxLimit {
		return cfg, errors.New("SEARCH_DEFAULT_LIMIT must be in [1, SEARCH_MAX_LIMIT]")
	}
	if cfg.Search.Concurrency < 1 {
		return cfg, errors.New("SEARCH_SNAPSHOT_CONCURRENCY must be >= 1")
	}
	if cfg.Synonyms.Enabled && cfg.Synonyms.URL == "" && cfg.Synonyms.File == "" {
		return cfg, errors.New("SYNONYMS_ENABLED requires SYNONYMS_URL or SYNONYMS_FILE")
	}
	if cfg.Synonyms.Timeout <= 0 {
		return cfg, errors.New("SYNONYMS_TIMEOUT must be > 0")
	}
	if cfg.Synonyms.RPS < 0 {
		return cfg, errors.New("SYNONYMS_RPS must be >= 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	// if cfg.APIBasePath == "" || cfg.APIBasePath[0] != '/' {
	// 	return cfg, errors.New("API_BASE_PATH must start with '/'")
	// }

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if b, ok := sysutil.ParseBool(os.Getenv(k)); ok {
		return b
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
