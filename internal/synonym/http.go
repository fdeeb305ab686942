package synonym

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// maxBody bounds how much of a lookup response is read.
const maxBody = 1 << 20

// HTTPLookup queries an external definition service over HTTP. The word is
// sent as a query parameter; the response may be a JSON array of strings, an
// array of {"word": ...} objects, or an object with a "synonyms" array.
// Outgoing calls are throttled so a burst of searches cannot flood the
// service.
type HTTPLookup struct {
	endpoint string
	param    string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewHTTPLookup returns a lookup against endpoint. rps <= 0 disables
// throttling.
func NewHTTPLookup(endpoint, param string, timeout time.Duration, rps float64) *HTTPLookup {
	if param == "" {
		param = "word"
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	lim := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &HTTPLookup{
		endpoint: endpoint,
		param:    param,
		client:   &http.Client{Timeout: timeout},
		limiter:  lim,
	}
}

// Lookup implements Lookup.
func (h *HTTPLookup) Lookup(ctx context.Context, word string) ([]string, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u, err := url.Parse(h.endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set(h.param, word)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("lookup service: status %d", resp.StatusCode)
	}
	return decodeTerms(body)
}

// CloseIdleConnections releases pooled connections.
func (h *HTTPLookup) CloseIdleConnections() { h.client.CloseIdleConnections() }

func decodeTerms(body []byte) ([]string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	if body[0] == '{' {
		var obj struct {
			Synonyms []string `json:"synonyms"`
		}
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, err
		}
		return obj.Synonyms, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		var s string
		if err := json.Unmarshal(it, &s); err == nil {
			out = append(out, s)
			continue
		}
		var w struct {
			Word string `json:"word"`
		}
		if err := json.Unmarshal(it, &w); err != nil {
			return nil, err
		}
		out = append(out, w.Word)
	}
	return out, nil
}
