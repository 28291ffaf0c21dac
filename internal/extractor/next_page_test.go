package extractor

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleBaseURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://example.com/2016/article-title/", "https://example.com/2016/article-title/"},
		{"https://example.com/2016/article-title/2", "https://example.com/2016/article-title/"},
		{"https://example.com/story/page/3", "https://example.com/story/"},
		{"https://example.com/story/p-2", "https://example.com/story/"},
		{"https://example.com/a/index.html", "https://example.com/a/"},
		{"https://example.com/2016/article?page=2", "https://example.com/2016/article"},
		{"https://example.com/", "https://example.com/"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, err := url.Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ArticleBaseURL(u))
		})
	}
}

func TestPageNumFromURL(t *testing.T) {
	assert.Equal(t, 2, pageNumFromURL("https://example.com/story/2"))
	assert.Equal(t, 3, pageNumFromURL("https://example.com/story?page=3"))
	assert.Equal(t, 4, pageNumFromURL("https://example.com/story/page/4/"))
	assert.Equal(t, 0, pageNumFromURL("https://example.com/2016/story"))
	assert.Equal(t, 0, pageNumFromURL("https://example.com/story"))
}

func TestStripAnchor(t *testing.T) {
	assert.Equal(t, "https://example.com/a", StripAnchor("https://example.com/a#comments"))
	assert.Equal(t, "https://example.com/a", StripAnchor("https://example.com/a"))
}

const paginatedPage = `<html><body>
<div class="entry-content"><p>Some article text.</p></div>
<div class="pagination">
  <a href="https://example.com/2016/article-title/">1</a>
  <a href="https://example.com/2016/article-title/2">2</a>
  <a href="https://example.com/2016/article-title/3">3</a>
  <a href="https://example.com/2016/article-title/2">Next</a>
</div>
<div class="related"><a href="https://example.com/2016/another-story-99">Another story 99</a></div>
<a href="https://other.com/2016/article-title/2">Next</a>
<a href="https://example.com/2016/article-title/print/2">Print</a>
</body></html>`

func TestNextPageURL(t *testing.T) {
	doc, _ := parseDoc(t, paginatedPage)
	u, _ := url.Parse("https://example.com/2016/article-title/")

	assert.Equal(t, "https://example.com/2016/article-title/2", nextPageURL(doc, u, nil))
}

func TestNextPageURL_SkipsVisited(t *testing.T) {
	doc, _ := parseDoc(t, paginatedPage)
	u, _ := url.Parse("https://example.com/2016/article-title/")
	visited := map[string]bool{
		"https://example.com/2016/article-title/":  true,
		"https://example.com/2016/article-title/2": true,
	}

	next := nextPageURL(doc, u, visited)
	assert.NotEqual(t, "https://example.com/2016/article-title/2", next)
}

func TestNextPageURL_PreviousLinkLoses(t *testing.T) {
	markup := `<html><body><div class="pager">
<a href="https://example.com/story/1">« Previous</a>
</div></body></html>`
	doc, _ := parseDoc(t, markup)
	u, _ := url.Parse("https://example.com/story/2")

	assert.Empty(t, nextPageURL(doc, u, nil))
}

func TestNextPageURL_NoPagination(t *testing.T) {
	doc, _ := parseDoc(t, `<html><body><p>Only text, <a href="https://example.com/about">about</a>.</p></body></html>`)
	u, _ := url.Parse("https://example.com/2016/article-title/")

	assert.Empty(t, nextPageURL(doc, u, nil))
}

func TestPageCountHint(t *testing.T) {
	doc, _ := parseDoc(t, paginatedPage)
	u, _ := url.Parse("https://example.com/2016/article-title/")
	assert.Equal(t, 3, pageCountHint(doc, u))

	doc, _ = parseDoc(t, `<html><body><p>single</p></body></html>`)
	assert.Equal(t, 1, pageCountHint(doc, u))
}
