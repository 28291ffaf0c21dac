package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// normalizeSpaces collapses every whitespace run to a single space
func normalizeSpaces(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// textOf returns the normalized text of a selection
func textOf(s *goquery.Selection) string {
	return normalizeSpaces(s.Text())
}

// textLength counts characters, not bytes
func textLength(text string) int {
	return utf8.RuneCountInString(strings.TrimSpace(text))
}

// WordCount counts whitespace-separated words
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Excerpt cuts text to excerptLength characters at a word boundary and
// appends an ellipsis when anything was dropped.
func Excerpt(text string) string {
	text = normalizeSpaces(text)
	if utf8.RuneCountInString(text) <= excerptLength {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:excerptLength])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:.-") + "…"
}

// ContentText returns the normalized text of an HTML fragment. Block
// boundaries become spaces so adjacent paragraphs don't fuse words.
func ContentText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	return blockText(doc.Selection)
}

func blockText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		collectText(n, &b)
	}
	return normalizeSpaces(b.String())
}

// hasSentenceEnd reports whether text ends like a sentence
func hasSentenceEnd(text string) bool {
	text = strings.TrimSpace(text)
	return strings.HasSuffix(text, ".") || strings.Contains(text, ". ")
}

// scoreCommas counts commas, including CJK and Arabic variants
func scoreCommas(text string) int {
	return len(commaRE.FindAllStringIndex(text, -1))
}
