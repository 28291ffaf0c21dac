package extractor

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// maxPageNumber bounds page numbers read from links
const maxPageNumber = 100

type linkCandidate struct {
	href  string
	text  string
	score float64
}

// StripAnchor drops the fragment so page URLs compare equal regardless of
// the section they point at.
func StripAnchor(raw string) string {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		return raw[:i]
	}
	return raw
}

// ArticleBaseURL strips page markers from the end of the path: a trailing
// numeric segment, page/N, or an index file. Queries are dropped.
func ArticleBaseURL(u *url.URL) string {
	segments := strings.Split(strings.TrimSuffix(u.Path, "/"), "/")
	trailingSlash := strings.HasSuffix(u.Path, "/")

	for n := 0; n < 2 && len(segments) > 1; n++ {
		last := segments[len(segments)-1]
		if ext := strings.LastIndexByte(last, '.'); ext > 0 && hasAlphaRE.MatchString(last[ext+1:]) {
			last = last[:ext]
		}
		lower := strings.ToLower(last)
		if trailingPageSegment.MatchString(last) || lower == "index" || lower == "page" {
			segments = segments[:len(segments)-1]
			trailingSlash = true
			continue
		}
		break
	}

	path := strings.Join(segments, "/")
	if trailingSlash || path == "" {
		path += "/"
	}
	return u.Scheme + "://" + u.Host + path
}

// pageNumFromURL reads a page number from an href, or 0 if none
func pageNumFromURL(href string) int {
	m := pageInHrefRE.FindStringSubmatch(href)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[len(m)-1])
	if err != nil || n >= maxPageNumber {
		return 0
	}
	return n
}

// nextPageURL scores every same-site link that could be the next page of
// this article and returns the best one above minNextPageScore.
func nextPageURL(doc *goquery.Document, pageURL *url.URL, visited map[string]bool) string {
	articleURL := StripAnchor(pageURL.String())
	baseURL := ArticleBaseURL(pageURL)

	candidates := make(map[string]*linkCandidate)
	var order []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = StripAnchor(strings.TrimSpace(href))
		text := textOf(a)

		if !shouldScoreLink(href, text, articleURL, baseURL, pageURL, visited) {
			return
		}

		c, ok := candidates[href]
		if !ok {
			c = &linkCandidate{href: href, text: text}
			candidates[href] = c
			order = append(order, href)
		} else {
			c.text += "|" + text
		}

		sig := linkSignature(a.Get(0), text)
		pageNum := relativePageNum(href, baseURL)

		score := 0.0
		if !hasPrefixFold(href, baseURL) {
			score -= 25
		}
		if nextLinkTextRE.MatchString(sig) {
			score += 50
			if capLinkTextRE.MatchString(sig) {
				score -= 65
			}
		}
		if prevLinkTextRE.MatchString(sig) {
			score -= 200
		}
		score += scoreByParents(a)
		if extraneousLinkRE.MatchString(href) {
			score -= 25
		}
		if pageNum > 0 {
			score += 50
		}
		score += scoreLinkText(text, pageNum)
		if score > 0 {
			score += similarityBonus(articleURL, href)
		}

		if score > c.score || !ok {
			c.score = score
		}
	})

	var best *linkCandidate
	for _, href := range order {
		c := candidates[href]
		if c.score >= minNextPageScore && (best == nil || c.score > best.score) {
			best = c
		}
	}
	if best == nil {
		return ""
	}
	return best.href
}

func shouldScoreLink(href, text, articleURL, baseURL string, pageURL *url.URL, visited map[string]bool) bool {
	if href == "" || href == articleURL || href == baseURL || visited[href] {
		return false
	}
	u, err := url.Parse(href)
	if err != nil || !strings.EqualFold(u.Hostname(), pageURL.Hostname()) {
		return false
	}
	if !digitRE.MatchString(strings.TrimPrefix(href, baseURL)) {
		return false
	}
	if extraneousLinkRE.MatchString(text) || len(text) > maxLinkTextLength {
		return false
	}
	return true
}

// linkSignature joins text, class and id of a link for pattern matching
func linkSignature(n *html.Node, text string) string {
	return text + " " + attr(n, "class") + " " + attr(n, "id")
}

// scoreByParents looks at up to four ancestors for pagination containers
func scoreByParents(a *goquery.Selection) float64 {
	var score float64
	var positive, negative bool
	parent := a.Parent()
	for i := 0; i < 4 && parent.Length() > 0; i++ {
		sig := classAndID(parent.Get(0))
		if !positive && pageHintParentRE.MatchString(sig) {
			positive = true
			score += 25
		}
		if !negative && negativeParentRE.MatchString(sig) && !positiveScoreRE.MatchString(sig) {
			negative = true
			score -= 25
		}
		parent = parent.Parent()
	}
	return score
}

// scoreLinkText rewards links whose text is a small page number ahead of
// the one in the href.
func scoreLinkText(text string, pageNum int) float64 {
	m := pageNumberTextRE.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[2])
	score := 0.0
	if n < 2 {
		score = -30
	} else {
		score = max(0, 10-float64(n))
	}
	if pageNum > 0 && pageNum >= n {
		score -= 50
	}
	return score
}

// similarityBonus favours links that differ from the article URL only by a
// short suffix.
func similarityBonus(articleURL, href string) float64 {
	if articleURL == "" && href == "" {
		return 0
	}
	prefix := 0
	for prefix < len(articleURL) && prefix < len(href) && articleURL[prefix] == href[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(articleURL)-prefix && suffix < len(href)-prefix &&
		articleURL[len(articleURL)-1-suffix] == href[len(href)-1-suffix] {
		suffix++
	}
	ratio := 2 * float64(prefix+suffix) / float64(len(articleURL)+len(href))
	return -250 * ((1 - ratio) - 0.2)
}

// pageCountHint is the highest page number among this article's pagination
// links, counting the current page. It is at least 1.
func pageCountHint(doc *goquery.Document, pageURL *url.URL) int {
	baseURL := ArticleBaseURL(pageURL)
	hint := max(1, relativePageNum(StripAnchor(pageURL.String()), baseURL))

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = StripAnchor(strings.TrimSpace(href))
		if !hasPrefixFold(href, baseURL) {
			return
		}
		n := relativePageNum(href, baseURL)
		if m := pageNumberTextRE.FindStringSubmatch(textOf(a)); m != nil && n > 0 {
			if t, err := strconv.Atoi(m[2]); err == nil && t < maxPageNumber {
				n = max(n, t)
			}
		}
		hint = max(hint, n)
	})
	return hint
}

// relativePageNum reads the page number from the part of href after the
// article base, so dates earlier in the path are not mistaken for pages.
func relativePageNum(href, baseURL string) int {
	if hasPrefixFold(href, baseURL) {
		return pageNumFromURL("/" + href[len(baseURL):])
	}
	return pageNumFromURL(href)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
