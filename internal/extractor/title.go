package extractor

import (
	"net/url"
	"strings"

	"article-extractor/internal/rules"

	"github.com/PuerkitoBio/goquery"
)

const maxTitleLength = 150

// genericTitle tries metadata, then headline selectors, then <title>
func genericTitle(doc *goquery.Document, meta *metaIndex, pageURL *url.URL) string {
	raw := ""
	if meta.og != nil && meta.og.Title != "" {
		raw = meta.og.Title
	}
	if raw == "" {
		raw = meta.first(titleMetaTags)
	}
	if raw == "" {
		for _, sel := range titleSelectors {
			if s := doc.Find(sel); s.Length() > 0 {
				if t := textOf(s.First()); t != "" {
					raw = t
					break
				}
			}
		}
	}
	if raw == "" {
		raw = textOf(doc.Find("head title").First())
	}
	if raw == "" {
		raw = textOf(doc.Find("title").First())
	}
	return cleanTitle(raw, doc, meta, pageURL)
}

// cleanTitle strips the site name a title carries as a prefix or suffix
func cleanTitle(title string, doc *goquery.Document, meta *metaIndex, pageURL *url.URL) string {
	title = normalizeSpaces(title)
	if title == "" {
		return ""
	}

	if titleSplitterRE.MatchString(title) {
		title = resolveSplitTitle(title, meta, pageURL)
	}

	if len(title) > maxTitleLength {
		if h1 := doc.Find("h1"); h1.Length() == 1 {
			if t := textOf(h1); t != "" {
				title = t
			}
		}
	}
	return title
}

func resolveSplitTitle(title string, meta *metaIndex, pageURL *url.URL) string {
	pieces := titleSplitterRE.Split(title, -1)
	seps := titleSplitterRE.FindAllString(title, -1)
	if len(pieces) < 2 {
		return title
	}

	var site string
	if meta != nil {
		site = meta.siteName()
	}
	host := ""
	if pageURL != nil {
		host = pageURL.Hostname()
	}

	last := len(pieces) - 1
	switch {
	case isSitePiece(pieces[last], site, host):
		return joinPieces(pieces[:last], seps[:last-1])
	case isSitePiece(pieces[0], site, host):
		return joinPieces(pieces[1:], seps[1:])
	}

	// A short trailing piece after a strong separator is almost always the
	// publisher.
	sep := strings.TrimSpace(seps[last-1])
	rest := joinPieces(pieces[:last], seps[:last-1])
	if strings.ContainsAny(sep, "|·»—") && len(pieces[last]) < len(rest) {
		return rest
	}
	return title
}

func joinPieces(pieces, seps []string) string {
	var b strings.Builder
	for i, p := range pieces {
		if i > 0 && i-1 < len(seps) {
			b.WriteString(seps[i-1])
		}
		b.WriteString(p)
	}
	return strings.TrimSpace(b.String())
}

// isSitePiece reports whether a title piece names the site itself
func isSitePiece(piece, site, host string) bool {
	slug := squash(piece)
	if slug == "" {
		return false
	}
	if site != "" && slug == squash(site) {
		return true
	}
	if host == "" || len(slug) < 4 {
		return false
	}
	label := squash(strings.Split(rules.BaseDomain(host), ".")[0])
	hostSlug := squash(strings.TrimPrefix(host, "www."))
	return slug == label || slug == hostSlug || strings.HasPrefix(slug, label) && len(slug)-len(label) <= 3
}

// squash lower-cases s and drops everything but letters and digits
func squash(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
