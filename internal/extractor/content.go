package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the text length below which a pass is retried with
// a looser configuration.
const minContentLength = 100

// contentFlags are relaxed one at a time, in this order, when a pass
// finds too little text.
type contentFlags struct {
	stripUnlikely      bool
	weightNodes        bool
	cleanConditionally bool
}

func (f *contentFlags) relax() bool {
	switch {
	case f.stripUnlikely:
		f.stripUnlikely = false
	case f.weightNodes:
		f.weightNodes = false
	case f.cleanConditionally:
		f.cleanConditionally = false
	default:
		return false
	}
	return true
}

// genericContent selects and cleans the main content of src. src is left
// untouched; every pass runs on its own clone.
func genericContent(src *goquery.Document, markup string, pageURL *url.URL, title string) *goquery.Selection {
	flags := contentFlags{stripUnlikely: true, weightNodes: true, cleanConditionally: true}

	var best *goquery.Selection
	bestLen := 0
	for {
		root := contentPass(goquery.CloneDocument(src), title, flags)
		if root != nil {
			n := textLength(textOf(root))
			if n >= minContentLength {
				return root
			}
			if best == nil || n > bestLen {
				best, bestLen = root, n
			}
		}
		if !flags.relax() {
			break
		}
	}
	if best != nil && bestLen > 0 {
		return best
	}

	if root := readabilityContent(markup, pageURL, title); root != nil {
		return root
	}

	body := goquery.CloneDocument(src).Find("body")
	if body.Length() == 0 {
		return nil
	}
	root := goquery.NewDocumentFromNode(body.Get(0)).Selection
	(&cleaner{scores: newScorer(true), title: title}).clean(root, false)
	return root
}

func contentPass(doc *goquery.Document, title string, flags contentFlags) *goquery.Selection {
	if flags.stripUnlikely {
		stripUnlikelyCandidates(doc)
	}
	convertDivsToParagraphs(doc)

	s := newScorer(flags.weightNodes)
	s.scoreDocument(doc)

	top, score := s.topCandidate(doc.Get(0))
	if top == nil {
		return nil
	}
	top = s.mergeSiblings(top, score)

	root := goquery.NewDocumentFromNode(top).Selection
	(&cleaner{scores: s, title: title}).clean(root, flags.cleanConditionally)
	return root
}

// readabilityContent is the fallback for pages where nothing scored
func readabilityContent(markup string, pageURL *url.URL, title string) *goquery.Selection {
	if strings.TrimSpace(markup) == "" {
		return nil
	}
	article, err := readability.FromReader(strings.NewReader(markup), pageURL)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return nil
	}
	body := doc.Find("body")
	if body.Length() == 0 || strings.TrimSpace(body.Text()) == "" {
		return nil
	}
	root := goquery.NewDocumentFromNode(body.Get(0)).Selection
	(&cleaner{scores: newScorer(true), title: title}).clean(root, false)
	return root
}
