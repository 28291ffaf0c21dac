package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/bidi"
)

const (
	minDekLength = 5
	maxDekLength = 1000
)

// genericDek uses the meta description unless it merely repeats the
// opening of the article.
func genericDek(meta *metaIndex, excerpt string) string {
	dek := ""
	if meta.og != nil {
		dek = normalizeSpaces(meta.og.Description)
	}
	if dek == "" {
		dek = meta.first(dekMetaTags)
	}
	return cleanDek(dek, excerpt)
}

func cleanDek(dek, excerpt string) string {
	dek = normalizeSpaces(dek)
	n := textLength(dek)
	if n < minDekLength || n > maxDekLength {
		return ""
	}
	if strings.Contains(dek, "http://") || strings.Contains(dek, "https://") {
		return ""
	}
	trimmed := strings.TrimSuffix(excerpt, "…")
	if trimmed != "" && (strings.HasPrefix(trimmed, dek) || strings.HasPrefix(dek, trimmed)) {
		return ""
	}
	return dek
}

// direction prefers an explicit dir attribute and falls back to the
// dominant script of the text.
func direction(doc *goquery.Document, root *goquery.Selection, text string) string {
	for _, s := range []*goquery.Selection{root, doc.Find("body"), doc.Find("html")} {
		if s == nil || s.Length() == 0 {
			continue
		}
		if d, ok := s.First().Attr("dir"); ok {
			switch d = strings.ToLower(strings.TrimSpace(d)); d {
			case "ltr", "rtl":
				return d
			}
		}
	}
	return dominantDirection(text)
}

func dominantDirection(text string) string {
	var ltr, rtl int
	for _, r := range text {
		p, _ := bidi.LookupRune(r)
		switch p.Class() {
		case bidi.L:
			ltr++
		case bidi.R, bidi.AL:
			rtl++
		}
	}
	if rtl > ltr {
		return "rtl"
	}
	return "ltr"
}
