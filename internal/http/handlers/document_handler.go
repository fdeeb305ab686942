// Document HTTP handlers.
//
// This file exposes the sermon library:
//   - POST /documents/import          (bulk import, Idempotency-Key aware)
//   - GET  /documents                 (list, weak ETag)
//   - GET  /documents/{id}            (metadata, raw text, paragraphs)
//   - GET  /documents/{id}/words      (global word stream)
//   - GET  /documents/{id}/locate     (relocate a citation by content)
//
// It also declares the service contracts and the Handlers type shared by
// every handler file in this package.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/sermon-search/internal/domain"
	"github.com/tbourn/sermon-search/internal/repo"
	"github.com/tbourn/sermon-search/internal/segment"
	"github.com/tbourn/sermon-search/internal/services"
)

const defaultIdempotencyTTL = 24 * time.Hour

//
// Service contracts (context-aware)
//

// SearchService runs paged searches. It never fails; degraded calls come
// back empty with Backend "none".
type SearchService interface {
	Search(ctx context.Context, p domain.SearchParams) services.SearchResponse
}

// LibraryService owns documents and highlights.
type LibraryService interface {
	Import(ctx context.Context, docs []domain.ImportDocument) (services.ImportSummary, error)
	List(ctx context.Context, titleQuery string) ([]domain.Document, error)
	Get(ctx context.Context, id string) (*domain.Document, error)
	Paragraphs(ctx context.Context, id string) ([]domain.Paragraph, error)
	Words(ctx context.Context, id string) ([]segment.Token, error)
	Locate(ctx context.Context, id, quoted string) (services.LocateResult, error)
	AddHighlight(ctx context.Context, documentID string, start, end int) (*domain.Highlight, error)
	ListHighlights(ctx context.Context, documentID string) ([]domain.Highlight, error)
	DeleteHighlight(ctx context.Context, id string) error
}

//
// Handler wiring
//

// Handlers groups the search, document and highlight endpoints.
type Handlers struct {
	searchSvc SearchService
	libSvc    LibraryService

	// IdempotencyTTL bounds how long a stored write result can be replayed.
	IdempotencyTTL time.Duration
}

// New constructs Handlers bound to the given services.
func New(searchSvc SearchService, libSvc LibraryService) *Handlers {
	return &Handlers{searchSvc: searchSvc, libSvc: libSvc, IdempotencyTTL: defaultIdempotencyTTL}
}

// libraryDB returns the store behind the library service, used for ETags
// and idempotency records. Other implementations (test stubs) get nil and
// skip both.
func (h *Handlers) libraryDB() *gorm.DB {
	if svc, ok := h.libSvc.(*services.LibraryService); ok {
		return svc.DB
	}
	return nil
}

//
// DTOs
//

// ImportRequest is the object form of the import payload. A bare JSON array
// of documents is accepted too.
type ImportRequest struct {
	Documents []domain.ImportDocument `json:"documents"`
}

// ListDocumentsResponse wraps the library listing.
type ListDocumentsResponse struct {
	Documents []domain.Document `json:"documents"`
	Total     int               `json:"total"`
}

// DocumentResponse is one document with its raw text and paragraphs.
type DocumentResponse struct {
	domain.Document
	Text       string             `json:"text"`
	Paragraphs []domain.Paragraph `json:"paragraphs"`
}

// WordsResponse is the addressable token stream of a document.
type WordsResponse struct {
	DocumentID string          `json:"document_id"`
	LastIndex  int             `json:"last_index" example:"4021"`
	Tokens     []segment.Token `json:"tokens"`
}

//
// Helpers
//

// failLibrary maps library sentinels onto status and code.
func failLibrary(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, services.ErrDocumentNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "document not found")
	case errors.Is(err, services.ErrHighlightNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "highlight not found")
	case errors.Is(err, services.ErrCitationNotFound):
		fail(c, http.StatusNotFound, ErrCodeCitationNotFound, "quoted text not found in document")
	case errors.Is(err, services.ErrInvalidRange):
		fail(c, http.StatusBadRequest, ErrCodeInvalidRange, "highlight range outside the document")
	case errors.Is(err, services.ErrEmptyCitation):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
	case errors.Is(err, services.ErrEmptyImport), errors.Is(err, services.ErrInvalidDocument):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}

// decodeImport accepts either {"documents": [...]} or a bare array.
func decodeImport(body []byte) ([]domain.ImportDocument, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty body")
	}
	if trimmed[0] == '[' {
		var docs []domain.ImportDocument
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, err
		}
		return docs, nil
	}
	var req ImportRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, err
	}
	return req.Documents, nil
}

//
// Handlers
//

// ImportDocuments godoc
// @ID          importDocuments
// @Summary     Import documents
// @Description Validates and stores a batch of documents in one transaction. Re-importing an id replaces its text and paragraphs; highlights are kept. With Idempotency-Key, a retried request replays the stored summary.
// @Tags        Documents
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string                  false "Client key for safe retries"  example(import-2024-05-01)
// @Param       body             body    handlers.ImportRequest  true  "Documents to import"
//
// @Success     200  {object}  services.ImportSummary
// @Header      200  {string}  Idempotency-Replayed  "true when served from a stored result"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload or document"
// @Failure     413  {object}  handlers.ErrorResponse  "Body too large"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /documents/import [post]
func (h *Handlers) ImportDocuments(c *gin.Context) {
	db := h.libraryDB()
	if replayStored(c, db) {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "import body too large")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable body")
		return
	}
	docs, err := decodeImport(body)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	sum, err := h.libSvc.Import(c.Request.Context(), docs)
	if err != nil {
		failLibrary(c, err, ErrCodeImportFailed)
		return
	}

	rememberResult(c, db, h.IdempotencyTTL, http.StatusOK, sum)
	ok(c, http.StatusOK, sum)
}

// ListDocuments godoc
// @ID          listDocuments
// @Summary     List documents
// @Description Returns the library newest first. q filters titles, accent- and case-insensitively. Supports weak ETag via If-None-Match.
// @Tags        Documents
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       q              query   string  false "Title filter"  example(evangile)
//
// @Success     200  {object}  handlers.ListDocumentsResponse
// @Header      200  {string}  ETag  "Weak ETag for the library version"
// @Success     304  {string}  string "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /documents [get]
func (h *Handlers) ListDocuments(c *gin.Context) {
	ctx := c.Request.Context()
	q := c.Query("q")

	if db := h.libraryDB(); db != nil {
		if count, latest, err := repo.DocumentsStats(ctx, db); err == nil {
			scope := ""
			if q != "" {
				scope = "q" + strconv.FormatUint(xxhash.Sum64String(q), 16)
			}
			if notModified(c, statsETag("documents", scope, count, latest)) {
				return
			}
		}
	}

	docs, err := h.libSvc.List(ctx, q)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	ok(c, http.StatusOK, ListDocumentsResponse{Documents: docs, Total: len(docs)})
}

// GetDocument godoc
// @ID          getDocument
// @Summary     Get a document
// @Description Returns document metadata, the raw text and its paragraphs in order.
// @Tags        Documents
// @Produce     json
//
// @Param       id  path  string  true  "Document ID"  example(62-0505)
//
// @Success     200  {object}  handlers.DocumentResponse
// @Failure     404  {object}  handlers.ErrorResponse "Document not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /documents/{id} [get]
func (h *Handlers) GetDocument(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	d, err := h.libSvc.Get(ctx, id)
	if err != nil {
		failLibrary(c, err, ErrCodeInternal)
		return
	}
	paras, err := h.libSvc.Paragraphs(ctx, id)
	if err != nil {
		failLibrary(c, err, ErrCodeInternal)
		return
	}
	if paras == nil {
		paras = []domain.Paragraph{}
	}
	ok(c, http.StatusOK, DocumentResponse{Document: *d, Text: d.RawText, Paragraphs: paras})
}

// GetWords godoc
// @ID          getDocumentWords
// @Summary     Get the word stream
// @Description Returns every token of the document with its global index. Highlights and citations address these indices.
// @Tags        Documents
// @Produce     json
//
// @Param       id  path  string  true  "Document ID"  example(62-0505)
//
// @Success     200  {object}  handlers.WordsResponse
// @Failure     404  {object}  handlers.ErrorResponse "Document not found"
// @Router      /documents/{id}/words [get]
func (h *Handlers) GetWords(c *gin.Context) {
	id := c.Param("id")
	toks, err := h.libSvc.Words(c.Request.Context(), id)
	if err != nil {
		failLibrary(c, err, ErrCodeInternal)
		return
	}
	if toks == nil {
		toks = []segment.Token{}
	}
	ok(c, http.StatusOK, WordsResponse{DocumentID: id, LastIndex: segment.LastIndex(toks), Tokens: toks})
}

// LocateCitation godoc
// @ID          locateCitation
// @Summary     Relocate a citation
// @Description Finds quoted text inside the document by normalized content matching and returns its global word range.
// @Tags        Documents
// @Produce     json
//
// @Param       id    path   string  true  "Document ID"   example(60-0101)
// @Param       text  query  string  true  "Quoted text"   example(the word was with God)
//
// @Success     200  {object}  services.LocateResult
// @Failure     400  {object}  handlers.ErrorResponse "Empty text"
// @Failure     404  {object}  handlers.ErrorResponse "Document or citation not found"
// @Router      /documents/{id}/locate [get]
func (h *Handlers) LocateCitation(c *gin.Context) {
	text := strings.TrimSpace(c.Query("text"))
	if text == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}
	res, err := h.libSvc.Locate(c.Request.Context(), c.Param("id"), text)
	if err != nil {
		failLibrary(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, res)
}
