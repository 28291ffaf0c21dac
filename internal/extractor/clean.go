package extractor

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// stripUnlikelyCandidates drops elements whose class and id look like
// navigation, comments or ads. Links and whitelisted containers survive.
func stripUnlikelyCandidates(doc *goquery.Document) {
	doc.Find("*").Not("html, body, a").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		hints := classAndID(n)
		if strings.TrimSpace(hints) == "" {
			return
		}
		if !unlikelyCandidatesRE.MatchString(hints) || candidatesWhitelistRE.MatchString(hints) {
			return
		}
		if s.Find("article, main, [itemprop=articleBody]").Length() > 0 {
			return
		}
		s.Remove()
	})
}

// convertDivsToParagraphs turns divs holding only inline content into p so
// they get scored like paragraphs. Spans directly under body get the same
// treatment.
func convertDivsToParagraphs(doc *goquery.Document) {
	doc.Find("div").Each(func(_ int, s *goquery.Selection) {
		if s.Find(divToPBlockTags).Length() == 0 {
			rename(s.Get(0), "p")
		}
	})
	doc.Find("body > span").Each(func(_ int, s *goquery.Selection) {
		if s.Find(divToPBlockTags).Length() == 0 {
			rename(s.Get(0), "p")
		}
	})
}

// cleaner runs the post-selection cleaning pass on a content root
type cleaner struct {
	scores *scorer
	title  string
}

func (c *cleaner) clean(root *goquery.Selection, conditional bool) {
	rewriteTopLevel(root)
	markEmbedsToKeep(root)
	cleanImages(root)
	stripJunk(root)
	cleanH1s(root)
	c.cleanHeaders(root)
	if conditional {
		c.cleanConditionally(root)
	}
	removeBoilerplate(root)
	removeEmpty(root)
	root.Find("[" + keepAttr + "]").RemoveAttr(keepAttr)
}

// keepAttr marks embeds that survive junk removal; it is stripped again
// before the pass returns.
const keepAttr = "data-extract-keep"

func rewriteTopLevel(root *goquery.Selection) {
	root.Find("html, body").Each(func(_ int, s *goquery.Selection) {
		rename(s.Get(0), "div")
	})
	for _, n := range root.Nodes {
		if n.Data == "html" || n.Data == "body" {
			rename(n, "div")
		}
	}
}

func markEmbedsToKeep(root *goquery.Selection) {
	root.Find("iframe, embed").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if keepEmbedRE.MatchString(src) {
			s.SetAttr(keepAttr, "1")
		}
	})
	root.Find("video, audio").SetAttr(keepAttr, "1")
}

// cleanImages drops spacers and images declared smaller than 10px
func cleanImages(root *goquery.Selection) {
	root.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if src == "" || spacerRE.MatchString(src) {
			s.Remove()
			return
		}
		height := dimension(s, "height", 20)
		width := dimension(s, "width", 20)
		if height < 10 || width < 10 {
			s.Remove()
		}
	})
}

func dimension(s *goquery.Selection, name string, fallback int) int {
	v, ok := s.Attr(name)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if err != nil {
		return fallback
	}
	return n
}

func stripJunk(root *goquery.Selection) {
	root.Find(stripJunkTags).Remove()
	root.Find("iframe, embed").Not("[" + keepAttr + "]").Remove()
}

// cleanH1s removes h1s when there are fewer than three, otherwise demotes
// them to h2.
func cleanH1s(root *goquery.Selection) {
	h1s := root.Find("h1")
	if h1s.Length() < 3 {
		h1s.Remove()
		return
	}
	h1s.Each(func(_ int, s *goquery.Selection) {
		rename(s.Get(0), "h2")
	})
}

func (c *cleaner) cleanHeaders(root *goquery.Selection) {
	title := normalizeSpaces(c.title)
	root.Find(headerTags).Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if s.PrevAll().Length() == 0 && n.Parent != nil && root.Get(0) == n.Parent {
			s.Remove()
			return
		}
		if title != "" && textOf(s) == title {
			s.Remove()
			return
		}
		if weight(n) < 0 {
			s.Remove()
		}
	})
}

// cleanConditionally removes lists, tables and divs that score badly or
// look like link farms, forms or image galleries without text.
func (c *cleaner) cleanConditionally(root *goquery.Selection) {
	top := root.Get(0)
	root.Find(cleanConditionallyTags).Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if !attachedTo(n, top) {
			return
		}
		if s.Find("["+keepAttr+"]").Length() > 0 {
			return
		}

		score, ok := c.scores.get(n)
		if !ok {
			score = c.scores.getOrInit(n)
		}
		if score < 0 {
			s.Remove()
			return
		}
		if removeUnlessContent(s, score) {
			s.Remove()
		}
	})
}

func removeUnlessContent(s *goquery.Selection, score float64) bool {
	if s.HasClass("entry-content-asset") {
		return false
	}
	content := textOf(s)
	if scoreCommas(content) >= 10 {
		return false
	}

	tag := goquery.NodeName(s)
	pCount := s.Find("p").Length()
	inputCount := s.Find("input").Length()
	imgCount := s.Find("img").Length()
	liCount := s.Find("li").Length() - 100
	length := textLength(content)

	if float64(inputCount) > float64(pCount)/3 {
		return true
	}
	if length < 25 && imgCount == 0 {
		return true
	}
	if imgCount > 1 && float64(pCount)/float64(imgCount) < 0.5 && !s.Is("figure") && length < 25*imgCount {
		return true
	}
	if tag != "ul" && tag != "ol" && liCount > pCount {
		return true
	}

	density := linkDensity(s)
	if score < 25 && density > 0.2 && length > 75 {
		return true
	}
	if score >= 25 && density > 0.5 {
		if tag == "ol" || tag == "ul" {
			if strings.HasSuffix(textOf(s.Prev()), ":") {
				return false
			}
		}
		return true
	}
	return false
}

// removeBoilerplate drops share bars, newsletters, related links and the like
func removeBoilerplate(root *goquery.Selection) {
	top := root.Get(0)
	root.Find("*").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if !attachedTo(n, top) {
			return
		}
		if !boilerplateRE.MatchString(classAndID(n)) {
			return
		}
		if n.Data == "a" || s.Find("["+keepAttr+"]").Length() > 0 {
			return
		}
		s.Remove()
	})
}

// removeEmpty drops paragraphs with neither text nor media
func removeEmpty(root *goquery.Selection) {
	root.Find("p").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) != "" {
			return
		}
		if s.Find("img, iframe, video, audio, embed, picture").Length() > 0 {
			return
		}
		s.Remove()
	})
}

// newContentPolicy keeps article markup and media while stripping classes,
// styles and event handlers.
func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(false)
	p.AllowElements("figure", "figcaption", "picture", "section", "article", "time", "mark")
	p.AllowAttrs("datetime").OnElements("time")
	p.AllowAttrs("src", "srcset", "alt", "title", "width", "height").OnElements("img")
	p.AllowAttrs("src", "srcset", "type", "media", "sizes").OnElements("source")
	p.AllowAttrs("src", "poster").OnElements("video")
	p.AllowAttrs("src").OnElements("audio")
	p.AllowAttrs("controls", "width", "height").OnElements("video", "audio")
	p.AllowAttrs("src").Matching(keepEmbedRE).OnElements("iframe", "embed")
	p.AllowAttrs("width", "height", "allowfullscreen", "frameborder").OnElements("iframe")
	p.AllowAttrs("dir").Globally()
	return p
}

// outerHTML renders a node and its subtree
func outerHTML(n *html.Node) string {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return ""
	}
	return b.String()
}
