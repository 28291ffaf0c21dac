package extractor

import (
	"errors"
	"fmt"
	"strings"

	"article-extractor/internal/rules"

	"github.com/PuerkitoBio/goquery"
)

var errNoMatch = errors.New("no selector matched")

// selectField returns the first selector whose match is usable: exactly one
// node with text (or a non-empty attribute), or any number of nodes when the
// rule allows multiple.
func selectField(doc *goquery.Document, field *rules.FieldRule) (*goquery.Selection, rules.Selector, bool) {
	for _, sel := range field.Selectors {
		match := doc.Find(sel.CSS)
		switch {
		case match.Length() == 0:
			continue
		case field.AllowMultiple:
			return match, sel, true
		case match.Length() != 1:
			continue
		}

		if sel.Attr != "" {
			if v, ok := match.Attr(sel.Attr); ok && strings.TrimSpace(v) != "" {
				return match, sel, true
			}
			continue
		}
		if strings.TrimSpace(match.Text()) != "" || match.Find("img, iframe, video").Length() > 0 {
			return match, sel, true
		}
	}
	return nil, rules.Selector{}, false
}

// customText extracts a text field. Multiple matches are joined with ", ".
// Transforms and clean selectors only apply to content.
func customText(doc *goquery.Document, field *rules.FieldRule) (string, error) {
	match, sel, ok := selectField(doc, field)
	if !ok {
		return "", errNoMatch
	}

	var values []string
	match.Each(func(_ int, s *goquery.Selection) {
		v := textOf(s)
		if sel.Attr != "" {
			v, _ = s.Attr(sel.Attr)
			v = normalizeSpaces(v)
		}
		if v != "" {
			values = append(values, v)
		}
	})
	if len(values) == 0 {
		return "", errNoMatch
	}
	return strings.Join(values, ", "), nil
}

// customContent locates the content root in doc, which must be a clone.
// Multiple matches are gathered under one div in document order.
func customContent(doc *goquery.Document, field *rules.FieldRule) (*goquery.Selection, error) {
	match, _, ok := selectField(doc, field)
	if !ok {
		return nil, errNoMatch
	}

	var root *goquery.Selection
	if match.Length() > 1 {
		wrapper := newElement("div")
		first := match.Get(0)
		first.Parent.InsertBefore(wrapper, first)
		for _, n := range match.Nodes {
			detach(n)
			wrapper.AppendChild(n)
		}
		root = goquery.NewDocumentFromNode(wrapper).Selection
	} else {
		root = goquery.NewDocumentFromNode(match.Get(0)).Selection
	}

	if err := applyTransforms(root, field.Transforms); err != nil {
		return nil, err
	}
	for _, css := range field.Clean {
		root.Find(css).Remove()
	}
	return root, nil
}

// applyTransforms runs each transform over its matches in declaration order.
// A panicking transform is reported as an error.
func applyTransforms(root *goquery.Selection, transforms rules.Transforms) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transform panicked: %v", r)
		}
	}()

	for _, t := range transforms {
		var terr error
		root.Find(t.Selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if t.Func != nil {
				terr = t.Func(s)
				return terr == nil
			}
			rename(s.Get(0), t.Tag)
			return true
		})
		if terr != nil {
			return fmt.Errorf("transform %q: %w", t.Selector, terr)
		}
	}
	return nil
}
