// Package extractor turns a normalized page into article fields, either
// from a site's custom rule or from generic content scoring.
package extractor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"article-extractor/internal/config"
	"article-extractor/internal/models"
	"article-extractor/internal/resource"
	"article-extractor/internal/rules"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

// Extractor is safe for concurrent use; it holds no per-page state.
type Extractor struct {
	images *imageScorer
	policy *bluemonday.Policy
	logger zerolog.Logger
}

// Options controls a single page extraction
type Options struct {
	// ContentOnly skips the fields that are taken from the first page.
	ContentOnly bool
	// Title is the article title, used to drop repeated headers from
	// content when ContentOnly is set.
	Title string
	// Visited holds anchor-stripped URLs already part of this article.
	// Generic link scoring skips them; a custom rule's link is returned
	// as is and the caller decides.
	Visited map[string]bool
}

// New creates an Extractor
func New(cfg config.Config, logger zerolog.Logger) *Extractor {
	return &Extractor{
		images: newImageScorer(cfg.Image),
		policy: newContentPolicy(),
		logger: logger.With().Str("component", "extractor").Logger(),
	}
}

// Extract pulls every field out of doc. A nil rule means generic extraction.
// Only ExtractionError is returned, for required rule fields that match
// nothing or transforms that fail.
func (e *Extractor) Extract(doc *resource.Document, rule *rules.Rule, opts Options) (fields models.ExtractionFields, err error) {
	pageURL := doc.URL.String()
	defer func() {
		if r := recover(); r != nil {
			err = models.NewExtractionError(pageURL, "content", fmt.Errorf("panic: %v", r))
		}
	}()

	if rule != nil && len(rule.Exclude) > 0 {
		doc.Doc.Find(strings.Join(rule.Exclude, ", ")).Remove()
	}

	markup := doc.HTML()
	meta := newMetaIndex(doc.Doc, markup)

	fields.Title = opts.Title
	if !opts.ContentOnly {
		fields.Title, err = e.textField(doc, rule, "title", func(v string) string {
			return cleanTitle(v, doc.Doc, meta, doc.URL)
		}, func() string {
			return genericTitle(doc.Doc, meta, doc.URL)
		})
		if err != nil {
			return fields, err
		}
	}

	root, err := e.content(doc, rule, markup, fields.Title)
	if err != nil {
		return fields, err
	}
	if root != nil {
		fields.Content = e.policy.Sanitize(outerHTML(root.Get(0)))
	}
	text := ContentText(fields.Content)
	fields.WordCount = WordCount(text)
	fields.Excerpt = Excerpt(text)
	fields.Direction = direction(doc.Doc, root, fields.Title+" "+text)

	fields.NextPageURL, err = e.textField(doc, rule, "next_page_url", func(v string) string {
		return absoluteHTTP(doc.URL, v)
	}, func() string {
		return nextPageURL(doc.Doc, doc.URL, opts.Visited)
	})
	if err != nil {
		return fields, err
	}

	fields.PageHint, err = e.pageHint(doc, rule)
	if err != nil {
		return fields, err
	}

	if opts.ContentOnly {
		return fields, nil
	}

	fields.Author, err = e.textField(doc, rule, "author", cleanAuthor, func() string {
		return genericAuthor(doc.Doc, meta)
	})
	if err != nil {
		return fields, err
	}

	fields.DatePublished, err = e.textField(doc, rule, "date_published", parseDate, func() string {
		return genericDate(doc.Doc, meta, doc.URL)
	})
	if err != nil {
		return fields, err
	}

	fields.LeadImageURL, err = e.textField(doc, rule, "lead_image_url", func(v string) string {
		return absoluteHTTP(doc.URL, v)
	}, func() string {
		return e.images.leadImage(doc.Doc, root, meta, doc.URL)
	})
	if err != nil {
		return fields, err
	}

	fields.Dek, err = e.textField(doc, rule, "dek", func(v string) string {
		return cleanDek(v, fields.Excerpt)
	}, func() string {
		return genericDek(meta, fields.Excerpt)
	})
	if err != nil {
		return fields, err
	}

	e.logger.Debug().
		Str("url", pageURL).
		Bool("custom", rule != nil).
		Int("words", fields.WordCount).
		Str("next", fields.NextPageURL).
		Msg("page extracted")

	return fields, nil
}

// textField applies the rule's selectors for name, cleaned by clean, and
// falls back to generic when the rule has nothing usable.
func (e *Extractor) textField(doc *resource.Document, rule *rules.Rule, name string, clean func(string) string, generic func() string) (string, error) {
	if field := fieldRule(rule, name); field != nil {
		raw, err := customText(doc.Doc, field)
		if err == nil {
			if v := clean(raw); v != "" {
				return v, nil
			}
			err = errNoMatch
		}
		if field.Required {
			return "", models.NewExtractionError(doc.URL.String(), name, err)
		}
	}
	return generic(), nil
}

// content returns the cleaned content root. Custom content runs on a clone
// so the metadata fields still see the full page.
func (e *Extractor) content(doc *resource.Document, rule *rules.Rule, markup, title string) (*goquery.Selection, error) {
	if field := fieldRule(rule, "content"); field != nil {
		root, err := customContent(doc.Clone(), field)
		if err == nil {
			if field.UsesDefaultCleaner() {
				(&cleaner{scores: newScorer(true), title: title}).clean(root, true)
			}
			if strings.TrimSpace(root.Text()) != "" || root.Find("img, iframe, video").Length() > 0 {
				return root, nil
			}
			err = errNoMatch
		}
		if field.Required || !errors.Is(err, errNoMatch) {
			return nil, models.NewExtractionError(doc.URL.String(), "content", err)
		}
		e.logger.Debug().Str("url", doc.URL.String()).Msg("custom content empty, using generic extractor")
	}
	return genericContent(doc.Doc, markup, doc.URL, title), nil
}

func (e *Extractor) pageHint(doc *resource.Document, rule *rules.Rule) (int, error) {
	if field := fieldRule(rule, "page_count"); field != nil {
		raw, err := customText(doc.Doc, field)
		if err == nil {
			if m := digitsRE.FindString(raw); m != "" {
				if n, convErr := strconv.Atoi(m); convErr == nil && n > 0 {
					return n, nil
				}
			}
			err = errNoMatch
		}
		if field.Required {
			return 0, models.NewExtractionError(doc.URL.String(), "page_count", err)
		}
	}
	return pageCountHint(doc.Doc, doc.URL), nil
}

func fieldRule(rule *rules.Rule, name string) *rules.FieldRule {
	if rule == nil {
		return nil
	}
	return rule.Fields()[name]
}
