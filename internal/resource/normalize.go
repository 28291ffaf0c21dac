package resource

import (
	"bytes"
	"fmt"
	"mime"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"article-extractor/internal/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/gogs/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
)

const (
	defaultEncoding = "utf-8"
	// chardet results below this confidence are ignored
	minDetectConfidence = 50
	metaSniffBytes      = 2048
)

var (
	metaCharsetRE = regexp.MustCompile(`(?i)<meta[^>]+charset\s*=\s*["']?\s*([a-z0-9_\-:.]+)`)
	srcsetItemRE  = regexp.MustCompile(`(\S+)\s+(\d+)w`)
)

// Tags removed from every document before extraction
const junkSelectors = "script, style, link[rel='stylesheet'], template"

// Attributes carrying lazy-loaded image sources, in preference order
var lazySrcAttrs = []string{"data-src", "data-original", "data-lazy-src", "data-url", "data-hi-res-src"}

// urlAttrs lists the attributes rewritten to absolute URLs, per selector
var urlAttrs = []struct {
	selector string
	attr     string
}{
	{"a[href]", "href"},
	{"img[src]", "src"},
	{"iframe[src]", "src"},
	{"video[src]", "src"},
	{"video[poster]", "poster"},
	{"audio[src]", "src"},
	{"source[src]", "src"},
	{"embed[src]", "src"},
}

// Document is a decoded, cleaned page ready for extraction
type Document struct {
	URL      *url.URL
	Encoding string
	Doc      *goquery.Document
}

// HTML renders the cleaned document
func (d *Document) HTML() string {
	out, err := d.Doc.Html()
	if err != nil {
		return ""
	}
	return out
}

// Clone returns a deep copy of the tree so destructive passes leave the
// original untouched.
func (d *Document) Clone() *goquery.Document {
	return goquery.CloneDocument(d.Doc)
}

// Normalize decodes res.Body and builds a cleaned DOM for pageURL
func Normalize(res *models.FetchResult, pageURL *url.URL) (*Document, error) {
	if res == nil || len(bytes.TrimSpace(res.Body)) == 0 {
		return nil, models.NewParseError(pageURL.String(), "empty response body", nil)
	}

	enc, name := DetectEncoding(res.Body, res.Headers.Get("Content-Type"))
	text, err := decode(res.Body, enc)
	if err != nil {
		return nil, models.NewParseError(pageURL.String(), fmt.Sprintf("could not decode body as %s", name), err)
	}

	return build(text, name, pageURL)
}

// NormalizeHTML builds a document from already decoded markup
func NormalizeHTML(markup string, pageURL *url.URL) (*Document, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, models.NewParseError(pageURL.String(), "empty html", nil)
	}
	return build(strings.ToValidUTF8(markup, "�"), defaultEncoding, pageURL)
}

func build(text, encodingName string, pageURL *url.URL) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, models.NewParseError(pageURL.String(), "could not parse html", err)
	}
	doc.Url = pageURL

	body := doc.Find("body")
	if body.Children().Length() == 0 && strings.TrimSpace(body.Text()) == "" {
		return nil, models.NewParseError(pageURL.String(), "No children, likely a bad parse.", nil)
	}

	clean(doc)
	convertLazyImages(doc)
	makeLinksAbsolute(doc, pageURL)

	return &Document{URL: pageURL, Encoding: encodingName, Doc: doc}, nil
}

// DetectEncoding picks the body encoding: the HTTP charset first, then the
// document's own meta declaration, then statistical detection for bytes
// that are not valid UTF-8, then UTF-8.
func DetectEncoding(body []byte, contentType string) (encoding.Encoding, string) {
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if e, name := charset.Lookup(params["charset"]); e != nil {
			return e, name
		}
	}

	head := body
	if len(head) > metaSniffBytes {
		head = head[:metaSniffBytes]
	}
	if m := metaCharsetRE.FindSubmatch(head); m != nil {
		if e, name := charset.Lookup(string(m[1])); e != nil {
			return e, name
		}
	}

	if !utf8.Valid(body) {
		if r, err := chardet.NewHtmlDetector().DetectBest(body); err == nil && r.Confidence >= minDetectConfidence {
			if e, name := charset.Lookup(r.Charset); e != nil {
				return e, name
			}
		}
	}

	e, name := charset.Lookup(defaultEncoding)
	return e, name
}

func decode(body []byte, enc encoding.Encoding) (string, error) {
	if enc == nil {
		return strings.ToValidUTF8(string(body), "�"), nil
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// clean removes scripts, styles and comments. A noscript that only wraps
// an image is unwrapped so the image survives.
func clean(doc *goquery.Document) {
	doc.Find(junkSelectors).Remove()

	doc.Find("noscript").Each(func(_ int, s *goquery.Selection) {
		inner := strings.TrimSpace(s.Text())
		if strings.Contains(strings.ToLower(inner), "<img") {
			s.ReplaceWithHtml(inner)
			return
		}
		s.Remove()
	})

	removeComments(doc.Selection.Nodes...)
}

func removeComments(nodes ...*html.Node) {
	for _, n := range nodes {
		var next *html.Node
		for c := n.FirstChild; c != nil; c = next {
			next = c.NextSibling
			if c.Type == html.CommentNode {
				n.RemoveChild(c)
				continue
			}
			removeComments(c)
		}
	}
}

func convertLazyImages(doc *goquery.Document) {
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if src != "" && !strings.HasPrefix(src, "data:") {
			return
		}
		for _, attr := range lazySrcAttrs {
			if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
				s.SetAttr("src", strings.TrimSpace(v))
				return
			}
		}
		if srcset, ok := s.Attr("srcset"); ok {
			if best := PickFromSrcset(srcset); best != "" {
				s.SetAttr("src", best)
			}
		} else if srcset, ok := s.Attr("data-srcset"); ok {
			if best := PickFromSrcset(srcset); best != "" {
				s.SetAttr("src", best)
			}
		}
	})
}

func makeLinksAbsolute(doc *goquery.Document, pageURL *url.URL) {
	base := pageURL
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = pageURL.ResolveReference(ref)
		}
	}

	for _, ua := range urlAttrs {
		doc.Find(ua.selector).Each(func(_ int, s *goquery.Selection) {
			v, _ := s.Attr(ua.attr)
			if abs := Absolute(base, v); abs != "" {
				s.SetAttr(ua.attr, abs)
			}
		})
	}

	doc.Find("img[srcset], source[srcset]").Each(func(_ int, s *goquery.Selection) {
		srcset, _ := s.Attr("srcset")
		s.SetAttr("srcset", absoluteSrcset(base, srcset))
	})
}

// Absolute resolves ref against base. Non-navigable references such as
// javascript: and fragments are returned unchanged; unparsable ones yield "".
func Absolute(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	lower := strings.ToLower(ref)
	if strings.HasPrefix(ref, "#") || strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "tel:") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}

func absoluteSrcset(base *url.URL, srcset string) string {
	items := strings.Split(srcset, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		fields := strings.Fields(strings.TrimSpace(item))
		if len(fields) == 0 {
			continue
		}
		if abs := Absolute(base, fields[0]); abs != "" {
			fields[0] = abs
		}
		out = append(out, strings.Join(fields, " "))
	}
	return strings.Join(out, ", ")
}

// PickFromSrcset selects the candidate closest to 1000px wide, preferring
// larger images on ties. Descriptor-less srcsets yield their first entry.
func PickFromSrcset(srcset string) string {
	type candidate struct {
		url string
		w   int
	}
	var candidates []candidate
	first := ""

	for _, item := range strings.Split(srcset, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if first == "" {
			first = strings.Fields(item)[0]
		}
		if m := srcsetItemRE.FindStringSubmatch(item); len(m) > 2 {
			if w, err := strconv.Atoi(m[2]); err == nil {
				candidates = append(candidates, candidate{m[1], w})
			}
		}
	}

	if len(candidates) == 0 {
		return first
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		cDiff, bDiff := absInt(c.w-1000), absInt(best.w-1000)
		if cDiff < bDiff || (cDiff == bDiff && c.w > best.w) {
			best = c
		}
	}
	return best.url
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
