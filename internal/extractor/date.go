package extractor

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

func genericDate(doc *goquery.Document, meta *metaIndex, pageURL *url.URL) string {
	for _, key := range dateMetaTags {
		if d := parseDate(meta.get(key)); d != "" {
			return d
		}
	}
	if meta.og != nil && meta.og.Article != nil && meta.og.Article.PublishedTime != nil {
		return formatDate(*meta.og.Article.PublishedTime)
	}

	found := ""
	doc.Find("time[datetime], [itemprop=datePublished]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, a := range []string{"datetime", "content"} {
			if v, ok := s.Attr(a); ok {
				if found = parseDate(v); found != "" {
					return false
				}
			}
		}
		return true
	})
	if found != "" {
		return found
	}

	for _, sel := range dateSelectors {
		s := doc.Find(sel)
		if s.Length() != 1 {
			continue
		}
		if v, ok := s.Attr("datetime"); ok {
			if d := parseDate(v); d != "" {
				return d
			}
		}
		if d := parseDate(textOf(s)); d != "" {
			return d
		}
	}

	if pageURL != nil {
		return dateFromURL(pageURL.Path)
	}
	return ""
}

// parseDate turns a free-form date into RFC 3339 UTC, or "" when it can't
// be read. Dates without a zone are taken as UTC.
func parseDate(raw string) string {
	raw = strings.TrimSpace(datePrefixRE.ReplaceAllString(normalizeSpaces(raw), ""))
	if raw == "" {
		return ""
	}

	switch {
	case msTimestampRE.MatchString(raw):
		ms, _ := strconv.ParseInt(raw, 10, 64)
		return formatDate(time.UnixMilli(ms))
	case secTimestampRE.MatchString(raw):
		sec, _ := strconv.ParseInt(raw, 10, 64)
		return formatDate(time.Unix(sec, 0))
	}

	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return ""
	}
	return formatDate(t)
}

func formatDate(t time.Time) string {
	if t.IsZero() || t.Year() < 1970 {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func dateFromURL(path string) string {
	for _, re := range dateURLPatterns {
		m := re.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		return formatDate(time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC))
	}
	return ""
}
