package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxAuthorLength = 300

func genericAuthor(doc *goquery.Document, meta *metaIndex) string {
	for _, key := range authorMetaTags {
		if a := cleanAuthor(meta.get(key)); a != "" {
			return a
		}
	}

	for _, sel := range authorSelectors {
		s := doc.Find(sel)
		if s.Length() != 1 {
			continue
		}
		if a := cleanAuthor(textOf(s)); a != "" {
			return a
		}
	}

	author := ""
	doc.Find(bylineSelectors).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := textOf(s)
		if bylineRE.MatchString(text) {
			author = cleanAuthor(text)
		}
		return author == ""
	})
	return author
}

// cleanAuthor drops the "By" prefix and rejects values that are links or
// clearly not a name.
func cleanAuthor(author string) string {
	author = normalizeSpaces(author)
	author = strings.TrimSpace(bylinePrefixRE.ReplaceAllString(author, ""))
	if author == "" || len(author) >= maxAuthorLength {
		return ""
	}
	lower := strings.ToLower(author)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return ""
	}
	return author
}
