// Search HTTP handler.
//
//   - GET /search   (paged full-text search over paragraphs)
//
// Search degrades instead of failing: whatever happens below, the caller
// gets 200 and a page, possibly empty. Only malformed parameters are 400.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/sermon-search/internal/domain"
	"github.com/tbourn/sermon-search/internal/sysutil"
	"github.com/tbourn/sermon-search/internal/utils"
)

// HeaderSearchBackend names the backend that served a search page.
const HeaderSearchBackend = "X-Search-Backend"

// Search godoc
// @ID          search
// @Summary     Search paragraphs
// @Description Runs a query in one of three modes and returns a page of matching paragraphs with highlighted snippets. Single-word queries can be expanded with synonyms. The X-Search-Backend header (and the backend field) report which engine served the page; request later pages while it stays the same.
// @Tags        Search
// @Produce     json
//
// @Param       q         query  string  true   "Query text"  example(lamb of God)
// @Param       mode      query  string  false  "EXACT_PHRASE, EXACT_WORDS or DIVERSE"  default(EXACT_WORDS)
// @Param       limit     query  int     false  "Page size"   minimum(1) maximum(50) default(20)
// @Param       offset    query  int     false  "Rows to skip" minimum(0) default(0)
// @Param       synonyms  query  bool    false  "Expand single-word queries with synonyms"
// @Param       filter    query  string  false  "Synonym filter: both, original or synonyms"  default(both)
//
// @Success     200  {object}  services.SearchResponse
// @Header      200  {string}  X-Search-Backend  "indexed, fallback or none"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /search [get]
func (h *Handlers) Search(c *gin.Context) {
	p := domain.SearchParams{
		Query:          c.Query("q"),
		Mode:           domain.DefaultSearchMode,
		Limit:          utils.AtoiDefault(c.Query("limit"), 0),
		Offset:         utils.AtoiDefault(c.Query("offset"), 0),
		ExpandSynonyms: sysutil.IsTruthy(c.Query("synonyms")),
		Filter:         domain.FilterBoth,
	}

	if raw := strings.TrimSpace(c.Query("mode")); raw != "" {
		m, valid := domain.ParseSearchMode(raw)
		if !valid {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "mode must be EXACT_PHRASE, EXACT_WORDS or DIVERSE")
			return
		}
		p.Mode = m
	}
	if raw := strings.TrimSpace(c.Query("filter")); raw != "" {
		f, valid := domain.ParseSynonymFilter(raw)
		if !valid {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "filter must be both, original or synonyms")
			return
		}
		p.Filter = f
	}

	resp := h.searchSvc.Search(c.Request.Context(), p)
	c.Header(HeaderSearchBackend, resp.Backend)
	ok(c, http.StatusOK, resp)
}
