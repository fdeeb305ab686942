// Highlight HTTP handlers.
//
//   - GET    /documents/{id}/highlights   (list, weak ETag)
//   - POST   /documents/{id}/highlights   (create, Idempotency-Key aware)
//   - DELETE /highlights/{hid}            (remove)
//
// Highlights address the document's global word indices, inclusive on both
// ends. Overlapping highlights are allowed.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/sermon-search/internal/domain"
	"github.com/tbourn/sermon-search/internal/repo"
)

// CreateHighlightRequest is the payload for a new highlight. Inverted
// bounds are accepted and swapped.
type CreateHighlightRequest struct {
	Start *int `json:"start" binding:"required" example:"14"`
	End   *int `json:"end"   binding:"required" example:"20"`
}

// ListHighlightsResponse wraps the highlights of one document.
type ListHighlightsResponse struct {
	DocumentID string             `json:"document_id"`
	Highlights []domain.Highlight `json:"highlights"`
}

// ListHighlights godoc
// @ID          listHighlights
// @Summary     List highlights
// @Description Returns the highlights of a document ordered by start index. Supports weak ETag via If-None-Match.
// @Tags        Highlights
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       id             path    string  true  "Document ID"  example(62-0505)
//
// @Success     200  {object}  handlers.ListHighlightsResponse
// @Header      200  {string}  ETag  "Weak ETag for the highlight set"
// @Success     304  {string}  string "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse "Document not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /documents/{id}/highlights [get]
func (h *Handlers) ListHighlights(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if db := h.libraryDB(); db != nil {
		if count, latest, err := repo.HighlightsStats(ctx, db, id); err == nil {
			if notModified(c, statsETag("highlights", id, count, latest)) {
				return
			}
		}
	}

	list, err := h.libSvc.ListHighlights(ctx, id)
	if err != nil {
		failLibrary(c, err, ErrCodeListFailed)
		return
	}
	if list == nil {
		list = []domain.Highlight{}
	}
	ok(c, http.StatusOK, ListHighlightsResponse{DocumentID: id, Highlights: list})
}

// CreateHighlight godoc
// @ID          createHighlight
// @Summary     Create a highlight
// @Description Stores a highlight over an inclusive global word range. Inverted bounds are swapped; negative bounds or an end past the last index are rejected.
// @Tags        Highlights
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string                           false "Client key for safe retries"
// @Param       id               path    string                           true  "Document ID"  example(62-0505)
// @Param       body             body    handlers.CreateHighlightRequest  true  "Word range"
//
// @Success     201  {object}  domain.Highlight
// @Failure     400  {object}  handlers.ErrorResponse "Bad request or invalid range"
// @Failure     404  {object}  handlers.ErrorResponse "Document not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /documents/{id}/highlights [post]
func (h *Handlers) CreateHighlight(c *gin.Context) {
	db := h.libraryDB()
	if replayStored(c, db) {
		return
	}

	var req CreateHighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "start and end required")
		return
	}

	hl, err := h.libSvc.AddHighlight(c.Request.Context(), c.Param("id"), *req.Start, *req.End)
	if err != nil {
		failLibrary(c, err, ErrCodeInternal)
		return
	}

	rememberResult(c, db, h.IdempotencyTTL, http.StatusCreated, hl)
	ok(c, http.StatusCreated, hl)
}

// DeleteHighlight godoc
// @ID          deleteHighlight
// @Summary     Delete a highlight
// @Tags        Highlights
//
// @Param       hid  path  string  true  "Highlight ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     404  {object}  handlers.ErrorResponse "Highlight not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /highlights/{hid} [delete]
func (h *Handlers) DeleteHighlight(c *gin.Context) {
	if err := h.libSvc.DeleteHighlight(c.Request.Context(), c.Param("hid")); err != nil {
		failLibrary(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}
