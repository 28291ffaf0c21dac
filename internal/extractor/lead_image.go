package extractor

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"article-extractor/internal/config"
	"article-extractor/internal/models"
	"article-extractor/internal/resource"

	"github.com/PuerkitoBio/goquery"
)

type imageScorer struct {
	config  config.ImageConfig
	regexes map[string]*regexp.Regexp
}

func newImageScorer(cfg config.ImageConfig) *imageScorer {
	return &imageScorer{
		config:  cfg,
		regexes: config.CompileRegexes(cfg),
	}
}

// leadImage picks the article's lead image: declared metadata first, then
// the best scored image inside the content.
func (ie *imageScorer) leadImage(doc *goquery.Document, content *goquery.Selection, meta *metaIndex, pageURL *url.URL) string {
	if c := ie.metaImage(doc, meta, pageURL); c != nil && !c.BadHint {
		return c.URL
	}

	var candidates []models.ImageCandidate
	if content != nil {
		candidates = ie.extractImgTags(content, pageURL, true)
	}
	if len(candidates) == 0 {
		candidates = ie.extractImgTags(doc.Find("article, main, [itemprop=articleBody]").First(), pageURL, false)
	}

	filtered := ie.filterAndScoreCandidates(candidates)
	if len(filtered) == 0 {
		return ""
	}
	sortCandidates(filtered)
	return filtered[0].URL
}

// metaImage reads og:image and friends, with declared dimensions when the
// page gives them.
func (ie *imageScorer) metaImage(doc *goquery.Document, meta *metaIndex, pageURL *url.URL) *models.ImageCandidate {
	var raw string
	var width, height int

	if meta.og != nil && len(meta.og.Images) > 0 && meta.og.Images[0].URL != "" {
		img := meta.og.Images[0]
		raw = img.URL
		if img.SecureURL != "" {
			raw = img.SecureURL
		}
		width, height = int(img.Width), int(img.Height)
	}
	if raw == "" {
		raw = meta.first(imageMetaTags)
	}
	if raw == "" {
		raw, _ = doc.Find("link[rel=image_src]").First().Attr("href")
	}

	abs := absoluteHTTP(pageURL, raw)
	if abs == "" {
		return nil
	}

	if width == 0 {
		width, _ = strconv.Atoi(meta.get("og:image:width"))
	}
	if height == 0 {
		height, _ = strconv.Atoi(meta.get("og:image:height"))
	}
	if width == 0 || height == 0 {
		urlWidth, urlHeight := ie.parseDimensionsFromURL(abs)
		if width == 0 {
			width = urlWidth
		}
		if height == 0 {
			height = urlHeight
		}
	}

	return &models.ImageCandidate{
		URL:     abs,
		Width:   width,
		Height:  height,
		BadHint: ie.regexes["badHint"].MatchString(abs),
		Source:  "meta",
	}
}

// extractImgTags collects candidates in document order
func (ie *imageScorer) extractImgTags(scope *goquery.Selection, pageURL *url.URL, inContent bool) []models.ImageCandidate {
	var candidates []models.ImageCandidate

	scope.Find("img").Each(func(i int, s *goquery.Selection) {
		if c := ie.extractImgTag(s, pageURL); c != nil {
			c.InContent = inContent
			c.Position = i
			candidates = append(candidates, *c)
		}
	})

	return candidates
}

func (ie *imageScorer) extractImgTag(s *goquery.Selection, pageURL *url.URL) *models.ImageCandidate {
	src, _ := s.Attr("src")
	if src == "" {
		if srcset, ok := s.Attr("srcset"); ok {
			src = resource.PickFromSrcset(srcset)
		}
	}

	abs := absoluteHTTP(pageURL, src)
	if abs == "" {
		return nil
	}

	width, height := ie.extractDimensions(s)
	if width == 0 || height == 0 {
		urlWidth, urlHeight := ie.parseDimensionsFromURL(abs)
		if width == 0 {
			width = urlWidth
		}
		if height == 0 {
			height = urlHeight
		}
	}

	return &models.ImageCandidate{
		URL:     abs,
		Width:   width,
		Height:  height,
		BadHint: ie.hasBadHint(s, abs),
		Source:  "img",
	}
}

// extractDimensions reads width and height from attributes or inline style
func (ie *imageScorer) extractDimensions(s *goquery.Selection) (int, int) {
	width := 0
	height := 0

	if wAttr, exists := s.Attr("width"); exists {
		if w, err := strconv.Atoi(strings.TrimSpace(wAttr)); err == nil {
			width = w
		}
	}
	if hAttr, exists := s.Attr("height"); exists {
		if h, err := strconv.Atoi(strings.TrimSpace(hAttr)); err == nil {
			height = h
		}
	}

	if style, exists := s.Attr("style"); exists {
		if m := ie.regexes["widthStyle"].FindStringSubmatch(style); len(m) > 1 {
			if w, err := strconv.ParseFloat(m[1], 64); err == nil {
				width = int(w)
			}
		}
		if m := ie.regexes["heightStyle"].FindStringSubmatch(style); len(m) > 1 {
			if h, err := strconv.ParseFloat(m[1], 64); err == nil {
				height = int(h)
			}
		}
	}

	return width, height
}

// parseDimensionsFromURL reads sizes like 800x600 or ?w=800&h=600
func (ie *imageScorer) parseDimensionsFromURL(u string) (int, int) {
	if m := ie.regexes["dimensionsFromUrl"].FindStringSubmatch(u); len(m) > 2 {
		w, errW := strconv.Atoi(m[1])
		h, errH := strconv.Atoi(m[2])
		if errW == nil && errH == nil {
			return w, h
		}
	}

	width, height := 0, 0
	if m := ie.regexes["widthFromUrl"].FindStringSubmatch(u); len(m) > 1 {
		width, _ = strconv.Atoi(m[1])
	}
	if m := ie.regexes["heightFromUrl"].FindStringSubmatch(u); len(m) > 1 {
		height, _ = strconv.Atoi(m[1])
	}
	return width, height
}

// hasBadHint checks the URL and the tag's own attributes for icon, ad and
// tracker hints.
func (ie *imageScorer) hasBadHint(s *goquery.Selection, u string) bool {
	if ie.regexes["badHint"].MatchString(u) {
		return true
	}
	for _, a := range []string{"class", "id", "alt"} {
		if v, ok := s.Attr(a); ok && ie.regexes["badHint"].MatchString(v) {
			return true
		}
	}
	return false
}

func (ie *imageScorer) filterAndScoreCandidates(candidates []models.ImageCandidate) []models.ImageCandidate {
	var filtered []models.ImageCandidate
	for _, c := range candidates {
		if !ie.passesFilters(c) {
			continue
		}
		c.Score = ie.calculateScore(c)
		c.Area = c.Width * c.Height
		filtered = append(filtered, c)
	}
	return filtered
}

func (ie *imageScorer) passesFilters(c models.ImageCandidate) bool {
	if c.Width > 0 && c.Height > 0 {
		shortSide := min(c.Width, c.Height)
		area := c.Width * c.Height

		if shortSide < ie.config.MinShortSide || area < ie.config.MinArea {
			return false
		}
		if !ie.hasGoodAspectRatio(c.Width, c.Height) {
			return false
		}
		if ie.isAdSize(c.Width, c.Height) {
			return false
		}
		// Large images survive a bad hint; hero images often live under /promo/.
		if c.BadHint && !(shortSide >= 400 && area >= 300000) {
			return false
		}
	} else if c.BadHint {
		return false
	}
	return true
}

func (ie *imageScorer) hasGoodAspectRatio(width, height int) bool {
	if width == 0 || height == 0 {
		return false
	}
	aspect := float64(width) / float64(height)
	if aspect >= ie.config.MinAspect && aspect <= ie.config.MaxAspect {
		return true
	}
	for _, ratio := range ie.config.RatioWhitelist {
		if math.Abs(aspect-ratio) <= ie.config.RatioTol {
			return true
		}
	}
	return false
}

func (ie *imageScorer) isAdSize(width, height int) bool {
	return ie.config.AdSizes[fmt.Sprintf("%dx%d", width, height)]
}

func (ie *imageScorer) calculateScore(c models.ImageCandidate) float64 {
	score := 0.0

	if c.InContent {
		score += 2.0
	}
	if ie.regexes["imageExt"].MatchString(c.URL) {
		score += 0.5
	}
	if c.Width > 0 && c.Height > 0 {
		aspect := float64(c.Width) / float64(c.Height)
		for _, ratio := range ie.config.RatioWhitelist {
			if math.Abs(aspect-ratio) <= ie.config.RatioTol {
				score += 1.0
				break
			}
		}
		score += math.Floor(math.Log10(float64(c.Width * c.Height)))
	}
	// Earlier images are more likely to be the lead.
	score += max(0, 2-0.25*float64(c.Position))

	return score
}

// sortCandidates orders by score, then area, keeping document order on ties
func sortCandidates(candidates []models.ImageCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Area > candidates[j].Area
	})
}

// absoluteHTTP resolves ref and keeps it only when it is an http(s) URL
func absoluteHTTP(base *url.URL, ref string) string {
	abs := resource.Absolute(base, ref)
	u, err := url.Parse(abs)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return u.String()
}
