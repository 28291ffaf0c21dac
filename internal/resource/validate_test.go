package resource

import (
	"net/http"
	"testing"

	"article-extractor/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	cfg := testConfig()
	cfg.MaxContentLength = 1024

	tests := []struct {
		name        string
		status      int
		headers     http.Header
		body        string
		parseNon2xx bool
		want        models.ErrorKind
	}{
		{"ok", http.StatusOK, http.Header{"Content-Type": {"text/html"}}, "<p>hi</p>", false, ""},
		{"no status", 0, http.Header{}, "", false, models.KindFetch},
		{"not found", http.StatusNotFound, http.Header{"Content-Type": {"text/html"}}, "", false, models.KindValidation},
		{"not found allowed", http.StatusNotFound, http.Header{"Content-Type": {"text/html"}}, "", true, ""},
		{"bad type on 200", http.StatusOK, http.Header{"Content-Type": {"image/png"}}, "", false, models.KindValidation},
		{"bad type on 404 allowed", http.StatusNotFound, http.Header{"Content-Type": {"image/png"}}, "", true, models.KindValidation},
		{"bad type with params", http.StatusOK, http.Header{"Content-Type": {"Video/MP4; codecs=avc1"}}, "", false, models.KindValidation},
		{"declared length over limit on 200", http.StatusOK, http.Header{"Content-Type": {"text/html"}, "Content-Length": {"99999999"}}, "", false, models.KindValidation},
		{"declared length at limit", http.StatusOK, http.Header{"Content-Type": {"text/html"}, "Content-Length": {"1024"}}, "", false, ""},
		{"body over limit", http.StatusOK, http.Header{"Content-Type": {"text/html"}}, string(make([]byte, 1025)), false, models.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &models.FetchResult{
				URL:        "https://example.com/a",
				StatusCode: tt.status,
				Headers:    tt.headers,
				Body:       []byte(tt.body),
			}

			err := Validate(res, tt.parseNon2xx, cfg)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, models.KindOf(err))
		})
	}
}

func TestValidate_NilResult(t *testing.T) {
	assert.Equal(t, models.KindFetch, models.KindOf(Validate(nil, false, testConfig())))
}
