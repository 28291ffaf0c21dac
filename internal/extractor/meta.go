package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
)

// metaIndex is a lookup over the page's meta tags. Keys come from the
// property, name or itemprop attribute and values from content or value,
// so the field extractors don't care which convention a site follows.
type metaIndex struct {
	values map[string]string
	og     *opengraph.OpenGraph
}

func newMetaIndex(doc *goquery.Document, markup string) *metaIndex {
	m := &metaIndex{values: make(map[string]string)}

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		value := ""
		for _, a := range []string{"content", "value"} {
			if v, ok := s.Attr(a); ok && strings.TrimSpace(v) != "" {
				value = normalizeSpaces(v)
				break
			}
		}
		if value == "" {
			return
		}
		for _, a := range []string{"property", "name", "itemprop"} {
			key, ok := s.Attr(a)
			if !ok {
				continue
			}
			key = strings.ToLower(strings.TrimSpace(key))
			if _, seen := m.values[key]; key != "" && !seen {
				m.values[key] = value
			}
		}
	})

	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(strings.NewReader(markup)); err == nil {
		m.og = og
	}
	return m
}

// get returns the value for one key
func (m *metaIndex) get(key string) string {
	return m.values[strings.ToLower(key)]
}

// first returns the value of the first key present, in the order given
func (m *metaIndex) first(keys []string) string {
	for _, k := range keys {
		if v := m.get(k); v != "" {
			return v
		}
	}
	return ""
}

// siteName returns the publisher name declared by the page, if any
func (m *metaIndex) siteName() string {
	if m.og != nil && m.og.SiteName != "" {
		return strings.TrimSpace(m.og.SiteName)
	}
	return strings.TrimPrefix(m.first(siteNameMeta), "@")
}
