package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// scorer holds content scores for one extraction call. Scores never touch
// the DOM, so the same tree can be scored again without leftovers.
type scorer struct {
	scores   map[*html.Node]float64
	weighted bool
}

// newScorer returns an empty scorer. Unweighted scorers ignore class and
// id hints.
func newScorer(weighted bool) *scorer {
	return &scorer{scores: make(map[*html.Node]float64), weighted: weighted}
}

// scoreParagraph rates a block of text by length and comma count
func scoreParagraph(text string) float64 {
	text = strings.TrimSpace(text)
	n := textLength(text)
	if n < 25 {
		return 0
	}

	score := 1 + float64(scoreCommas(text))
	score += min(float64(n)/50, 3)
	if strings.HasSuffix(text, ":") {
		score--
	}
	return score
}

// weight rates an element by its class and id
func weight(n *html.Node) float64 {
	var score float64
	for _, value := range []string{attr(n, "class"), attr(n, "id")} {
		if value == "" {
			continue
		}
		if negativeScoreRE.MatchString(value) {
			score -= 25
		}
		if positiveScoreRE.MatchString(value) {
			score += 25
		}
		if photoHintsRE.MatchString(value) {
			score += 10
		}
		if entryAssetRE.MatchString(value) {
			score += 25
		}
	}
	return score
}

// seed is the score an element starts with before propagation
func seed(n *html.Node) float64 {
	switch n.Data {
	case "p", "pre":
		return scoreParagraph(blockText(goquery.NewDocumentFromNode(n).Selection))
	}
	return tagScores[n.Data]
}

func (s *scorer) get(n *html.Node) (float64, bool) {
	v, ok := s.scores[n]
	return v, ok
}

// getOrInit seeds an unscored node and lifts a share of its score to the
// parent.
func (s *scorer) getOrInit(n *html.Node) float64 {
	if v, ok := s.scores[n]; ok {
		return v
	}
	v := seed(n)
	if s.weighted {
		v += weight(n)
	}
	s.scores[n] = v
	s.addToParent(n, v)
	return v
}

func (s *scorer) add(n *html.Node, amount float64) {
	if n == nil || n.Type != html.ElementNode {
		return
	}
	s.scores[n] = s.getOrInit(n) + amount
}

func (s *scorer) addToParent(n *html.Node, score float64) {
	if p := n.Parent; p != nil && p.Type == html.ElementNode {
		s.add(p, score*parentScoreFraction)
	}
}

// scoreDocument scores every paragraph and its ancestors under root
func (s *scorer) scoreDocument(doc *goquery.Document) {
	for _, pair := range hNewsSelectors {
		doc.Find(pair[0] + " " + pair[1]).Each(func(_ int, child *goquery.Selection) {
			parent := child.ParentsFiltered(pair[0]).First()
			if parent.Length() > 0 {
				s.add(parent.Get(0), hNewsBoost)
			}
		})
	}

	doc.Find(paragraphTags).Each(func(_ int, p *goquery.Selection) {
		n := p.Get(0)
		if _, ok := s.scores[n]; ok {
			return
		}
		s.getOrInit(n)

		raw := seed(n)
		if parent := n.Parent; parent != nil && parent.Type == html.ElementNode {
			s.add(parent, raw)
			if gp := parent.Parent; gp != nil && gp.Type == html.ElementNode {
				s.add(gp, raw/2)
			}
		}
	})
}

// topCandidate returns the best scored node, with link-heavy nodes
// discounted. Ties go to the node with more text, then to document order.
func (s *scorer) topCandidate(root *html.Node) (*html.Node, float64) {
	var (
		best      *html.Node
		bestScore float64
		bestLen   int
	)
	for _, n := range elements(root) {
		raw, ok := s.scores[n]
		if !ok || isNonTopCandidate(n) {
			continue
		}
		sel := goquery.NewDocumentFromNode(n).Selection
		score := raw * (1 - linkDensity(sel))
		length := textLength(textOf(sel))
		if best == nil || score > bestScore || (score == bestScore && length > bestLen) {
			best, bestScore, bestLen = n, score, length
		}
	}
	if best == nil || bestScore <= 0 {
		return nil, 0
	}
	return best, bestScore
}

func isNonTopCandidate(n *html.Node) bool {
	for _, tag := range strings.Split(nonTopCandidateTags, ", ") {
		if n.Data == tag {
			return true
		}
	}
	return false
}

// mergeSiblings wraps the candidate with siblings that look like part of
// the same article. The candidate is returned as is when nothing joins it.
func (s *scorer) mergeSiblings(candidate *html.Node, topScore float64) *html.Node {
	parent := candidate.Parent
	if parent == nil || parent.Type != html.ElementNode {
		return candidate
	}

	threshold := max(minSiblingScore, topScore*siblingScoreRatio)
	candidateClass := attr(candidate, "class")

	var keep []*html.Node
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || isNonTopCandidate(c) {
			continue
		}
		if c == candidate {
			keep = append(keep, c)
			continue
		}
		score, ok := s.get(c)
		if !ok || score == 0 {
			continue
		}

		sel := goquery.NewDocumentFromNode(c).Selection
		density := linkDensity(sel)
		bonus := 0.0
		if density < 0.05 {
			bonus += 20
		}
		if density >= 0.5 {
			bonus -= 20
		}
		if candidateClass != "" && attr(c, "class") == candidateClass {
			bonus += topScore * 0.2
		}
		if score+bonus >= threshold {
			keep = append(keep, c)
			continue
		}

		if c.Data == "p" {
			text := textOf(sel)
			length := textLength(text)
			if length > 80 && density < 0.25 {
				keep = append(keep, c)
			} else if length <= 80 && density == 0 && hasSentenceEnd(text) {
				keep = append(keep, c)
			}
		}
	}

	if len(keep) == 1 {
		return candidate
	}

	wrapper := newElement("div")
	parent.InsertBefore(wrapper, keep[0])
	for _, n := range keep {
		detach(n)
		wrapper.AppendChild(n)
	}
	return wrapper
}
