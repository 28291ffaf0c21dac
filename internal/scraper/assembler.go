package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"article-extractor/internal/extractor"
	"article-extractor/internal/models"
)

// assemble merges the walked pages into the final result. Metadata fields
// come from the first page; text statistics cover every rendered page.
func assemble(st *pagination, u *url.URL, opts Options) *models.ParseResult {
	first := st.first
	content := mergeContent(st.contents)
	text := extractor.ContentText(content)

	res := &models.ParseResult{
		Title:         first.Title,
		Author:        models.StringPtr(first.Author),
		DatePublished: models.StringPtr(first.DatePublished),
		Dek:           models.StringPtr(first.Dek),
		LeadImageURL:  models.StringPtr(first.LeadImageURL),
		Content:       content,
		NextPageURL:   models.StringPtr(first.NextPageURL),
		URL:           u.String(),
		Domain:        u.Hostname(),
		Excerpt:       extractor.Excerpt(text),
		WordCount:     extractor.WordCount(text),
		Direction:     first.Direction,
		RenderedPages: len(st.contents),
	}
	if res.Direction == "" {
		res.Direction = "ltr"
	}

	switch {
	case !opts.FetchAllPages:
		res.TotalPages = max(first.PageHint, 1)
	case st.partialErr != nil:
		// The failed page exists even though its content is missing.
		res.TotalPages = res.RenderedPages + 1
	default:
		res.TotalPages = max(res.RenderedPages, 1)
	}

	if st.partialErr != nil {
		res.Partial = true
		res.PartialError = models.NewErrorResult(st.partialErr).Message
	}
	return res
}

// mergeContent joins page contents, marking where each later page begins
func mergeContent(contents []string) string {
	var b strings.Builder
	for i, c := range contents {
		if i > 0 {
			fmt.Fprintf(&b, "<hr><h4>Page %d</h4>", i+1)
		}
		b.WriteString(c)
	}
	return b.String()
}
