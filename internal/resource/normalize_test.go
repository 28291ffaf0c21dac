package resource

import (
	"net/http"
	"net/url"
	"testing"

	"article-extractor/internal/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestNormalize_MetaCharset(t *testing.T) {
	// "café" encoded as windows-1252
	body := []byte("<html><head><meta charset=\"windows-1252\"></head><body><p>caf\xe9</p></body></html>")
	res := &models.FetchResult{
		URL:        "https://example.com/a",
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": []string{"text/html"}},
		Body:       body,
	}

	doc, err := Normalize(res, mustURL(t, res.URL))

	require.NoError(t, err)
	assert.Equal(t, "windows-1252", doc.Encoding)
	assert.Equal(t, "café", doc.Doc.Find("p").Text())
}

func TestNormalize_HeaderCharsetWins(t *testing.T) {
	body := []byte("<html><head><meta charset=\"windows-1252\"></head><body><p>caf\xc3\xa9</p></body></html>")
	res := &models.FetchResult{
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		Body:       body,
	}

	doc, err := Normalize(res, mustURL(t, "https://example.com/a"))

	require.NoError(t, err)
	assert.Equal(t, "café", doc.Doc.Find("p").Text())
}

func TestNormalize_EmptyBody(t *testing.T) {
	_, err := Normalize(&models.FetchResult{StatusCode: 200, Headers: http.Header{}}, mustURL(t, "https://example.com"))
	assert.ErrorIs(t, err, models.ErrParse)
}

func TestNormalizeHTML_Cleanup(t *testing.T) {
	markup := `<html><head><base href="https://cdn.example.com/assets/"><style>p{}</style></head>
<body>
<!-- comment -->
<script>alert(1)</script>
<p><a href="/next">next</a> <a href="#top">top</a></p>
<img data-src="lazy.jpg">
<img srcset="small.jpg 300w, big.jpg 1000w, huge.jpg 2000w">
<noscript><img src="real.jpg"></noscript>
</body></html>`

	doc, err := NormalizeHTML(markup, mustURL(t, "https://example.com/story/1"))
	require.NoError(t, err)

	out := doc.HTML()
	assert.NotContains(t, out, "alert(1)")
	assert.NotContains(t, out, "comment")
	assert.NotContains(t, out, "<style")

	links := doc.Doc.Find("a")
	href, _ := links.Eq(0).Attr("href")
	assert.Equal(t, "https://cdn.example.com/next", href)
	anchor, _ := links.Eq(1).Attr("href")
	assert.Equal(t, "#top", anchor)

	srcs := doc.Doc.Find("img").Map(func(_ int, s *goquery.Selection) string {
		src, _ := s.Attr("src")
		return src
	})
	assert.Equal(t, []string{
		"https://cdn.example.com/assets/lazy.jpg",
		"https://cdn.example.com/assets/big.jpg",
		"https://cdn.example.com/assets/real.jpg",
	}, srcs)
}

func TestNormalizeHTML_NoChildren(t *testing.T) {
	_, err := NormalizeHTML("<html><head><title>x</title></head><body></body></html>", mustURL(t, "https://example.com"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrParse)
}

func TestPickFromSrcset(t *testing.T) {
	tests := []struct {
		name   string
		srcset string
		want   string
	}{
		{"closest to 1000", "a.jpg 300w, b.jpg 900w, c.jpg 2000w", "b.jpg"},
		{"tie prefers larger", "a.jpg 900w, b.jpg 1100w", "b.jpg"},
		{"no descriptors", "a.jpg, b.jpg", "a.jpg"},
		{"density descriptors", "a.jpg 1x, b.jpg 2x", "a.jpg"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PickFromSrcset(tt.srcset))
		})
	}
}

func TestAbsolute(t *testing.T) {
	base := mustURL(t, "https://example.com/a/b.html")

	assert.Equal(t, "https://example.com/a/c.html", Absolute(base, "c.html"))
	assert.Equal(t, "https://example.com/x", Absolute(base, "/x"))
	assert.Equal(t, "https://other.com/y", Absolute(base, "//other.com/y"))
	assert.Equal(t, "javascript:void(0)", Absolute(base, "javascript:void(0)"))
	assert.Equal(t, "", Absolute(base, "  "))
}
