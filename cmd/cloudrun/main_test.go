package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"article-extractor/internal/config"
	"article-extractor/internal/models"
	"article-extractor/internal/scraper"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<html><head><title>Harbour Lights</title></head><body><article>
<p>The harbour lights came on one by one as the ferry crossed the bay, and the passengers gathered along the rail to watch the town appear out of the evening fog.</p>
<p>Nobody spoke until the ferry touched the pier, when a child pointed at the lighthouse and asked why it was painted in red and white stripes like a barber pole.</p>
</article></body></html>`

func newTestHandler(t *testing.T) (*CloudRunHandler, string) {
	t.Helper()
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, articleHTML)
	}))
	t.Cleanup(site.Close)

	cfg := config.Default()
	cfg.RetryBackoff = time.Millisecond
	s := scraper.NewScraper(cfg, nil, zerolog.Nop())
	return NewCloudRunHandler(s, zerolog.Nop()), site.URL
}

func serve(h *CloudRunHandler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Handler(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandler_Parse(t *testing.T) {
	h, site := newTestHandler(t)

	rec := serve(h, http.MethodGet, "/?url="+url.QueryEscape(site+"/story"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Harbour Lights", body["title"])
	assert.EqualValues(t, 1, body["total_pages"])
	assert.Contains(t, body["content"], "harbour lights came on")

	meta, ok := body["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, site+"/story", meta["url"])
}

func TestHandler_Errors(t *testing.T) {
	h, site := newTestHandler(t)

	tests := []struct {
		name   string
		method string
		target string
		status int
		kind   models.ErrorKind
	}{
		{"options", http.MethodOptions, "/", http.StatusNoContent, ""},
		{"post", http.MethodPost, "/?url=x", http.StatusMethodNotAllowed, ""},
		{"missing url", http.MethodGet, "/", http.StatusBadRequest, ""},
		{"bad url", http.MethodGet, "/?url=foo.com", http.StatusBadRequest, models.KindBadURL},
		{"not found", http.MethodGet, "/?url=" + url.QueryEscape(site+"/missing"), http.StatusUnprocessableEntity, models.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.method, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				return
			}

			var er models.ErrorResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
			assert.True(t, er.Error)
			assert.Equal(t, tt.kind, er.ErrorMessage)
		})
	}
}

func TestHandler_Batch(t *testing.T) {
	h, site := newTestHandler(t)

	q := url.Values{"url": {site + "/a", "foo.com"}}
	rec := serve(h, http.MethodGet, "/?"+q.Encode())
	require.Equal(t, http.StatusOK, rec.Code)

	var items []models.BatchItem
	require.NoError(t, json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(&items))
	require.Len(t, items, 2)
	require.NotNil(t, items[0].Result)
	assert.Equal(t, "Harbour Lights", items[0].Result.Title)
	require.NotNil(t, items[1].Error)
	assert.Equal(t, models.KindBadURL, items[1].Error.ErrorMessage)
}
