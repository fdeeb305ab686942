// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by every endpoint: the
// error envelope, success writers, weak ETag handling for the library
// listings and Idempotency-Key replay for the write endpoints.
//
// Conventions:
//   - All error responses must return an ErrorResponse with a stable `code`.
//   - `fail()` centralizes error logging and formatting, ensuring 5xx responses
//     are logged with request context for observability.
//   - `ok()` and `noContent()` simplify writing success responses in a consistent
//     shape across handlers.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "resource not found"
//	}
//
// Example success response:
//
//	HTTP/1.1 200 OK
//	{ "id": "62-0505", "title": "The Lamb", "date": "1962-05-05" }
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/sermon-search/internal/http/middleware"
	"github.com/tbourn/sermon-search/internal/repo"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - RequestID: Optional correlation ID, echoed from X-Request-ID header, used
//     to correlate server logs with client-side errors.
//   - Code: A stable, machine-readable string (see errors.go constants).
//   - Message: A human-readable error description, safe for display to users.
//
// This struct is used in OpenAPI documentation via Swagger annotations.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
}

// fail aborts the request with a structured error and logs server-side errors.
//
// It constructs an ErrorResponse, writes it as JSON with the given HTTP status,
// and calls gin.Context.AbortWithStatusJSON to stop further processing.
//
// Server errors (>=500) are logged using the request-scoped logger from middleware.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	// Log 5xx (server-side) with request-scoped logger
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
//
// It serializes `body` as JSON with the given HTTP status code.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
//
// Used when the operation succeeds but there is no response body.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// statsETag builds a weak ETag from a row count and the newest timestamp of
// a collection, e.g. W/"highlights:62-0505:3:1700000000123456789".
func statsETag(kind, scope string, count int64, latest *time.Time) string {
	var ts int64
	if latest != nil {
		ts = latest.UnixNano()
	}
	if scope == "" {
		return fmt.Sprintf(`W/"%s:%d:%d"`, kind, count, ts)
	}
	return fmt.Sprintf(`W/"%s:%s:%d:%d"`, kind, scope, count, ts)
}

// notModified sets ETag and answers 304 when If-None-Match carries it.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

// replayStored writes the stored result for this request's Idempotency-Key,
// if any, and reports whether it did.
func replayStored(c *gin.Context, db *gorm.DB) bool {
	key, has := middleware.GetIdempotencyKey(c)
	if !has || db == nil {
		return false
	}
	rec, err := repo.GetIdempotency(c.Request.Context(), db, middleware.IdempotencyScope(c), key, time.Now().UTC())
	if err != nil {
		return false
	}
	c.Header(middleware.HeaderIdempotencyReplayed, "true")
	c.Data(rec.Status, "application/json; charset=utf-8", []byte(rec.Result))
	return true
}

// rememberResult stores body under this request's Idempotency-Key. It is
// best effort: a concurrent duplicate or a write failure only gets logged.
func rememberResult(c *gin.Context, db *gorm.DB, ttl time.Duration, status int, body any) {
	key, has := middleware.GetIdempotencyKey(c)
	if !has || db == nil {
		return
	}
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return
	}
	_, err = repo.CreateIdempotency(c.Request.Context(), db, middleware.IdempotencyScope(c), key, string(raw), status, ttl)
	if err != nil && !errors.Is(err, repo.ErrDuplicate) {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not stored")
	}
}
