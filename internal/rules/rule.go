// Package rules holds per-domain extraction rules and resolves which rule,
// if any, applies to a URL. Rules are data: they are loaded once and never
// mutated by the pipeline.
package rules

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	yaml "gopkg.in/yaml.v3"
)

// Selector locates a field. With Attr set the attribute value is used
// instead of the node text.
type Selector struct {
	CSS  string
	Attr string
}

// UnmarshalYAML accepts either "css" or ["css", "attr"]
func (s *Selector) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		s.CSS = node.Value
		return nil
	case yaml.SequenceNode:
		if len(node.Content) == 0 || len(node.Content) > 2 {
			return fmt.Errorf("line %d: selector list must be [css] or [css, attr]", node.Line)
		}
		s.CSS = node.Content[0].Value
		if len(node.Content) == 2 {
			s.Attr = node.Content[1].Value
		}
		return nil
	default:
		return fmt.Errorf("line %d: selector must be a string or a list", node.Line)
	}
}

// TransformFunc rewrites one matched node in place
type TransformFunc func(s *goquery.Selection) error

// Transform either renames matched nodes to Tag or runs Func on each of them
type Transform struct {
	Selector string
	Tag      string
	Func     TransformFunc
}

// Transforms keeps declaration order so rule application is deterministic
type Transforms []Transform

// UnmarshalYAML reads a mapping of selector to replacement tag name
func (t *Transforms) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: transforms must be a mapping of selector to tag", node.Line)
	}
	out := make(Transforms, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: transform for %q must be a tag name", val.Line, key.Value)
		}
		out = append(out, Transform{Selector: key.Value, Tag: val.Value})
	}
	*t = out
	return nil
}

// FieldRule describes how to pull one field out of a page
type FieldRule struct {
	Selectors     []Selector `yaml:"selectors"`
	AllowMultiple bool       `yaml:"allowMultiple"`
	Clean         []string   `yaml:"clean"`
	Transforms    Transforms `yaml:"transforms"`
	// DefaultCleaner runs the generic cleaning pass on content; nil means true.
	DefaultCleaner *bool `yaml:"defaultCleaner"`
	// Required turns an empty match into an extraction error instead of a
	// fallback to the generic heuristic.
	Required bool `yaml:"required"`
}

// UsesDefaultCleaner reports whether the generic cleaner should run
func (f *FieldRule) UsesDefaultCleaner() bool {
	return f.DefaultCleaner == nil || *f.DefaultCleaner
}

// Rule is the extraction rule set for one site
type Rule struct {
	Domain           string   `yaml:"domain"`
	SupportedDomains []string `yaml:"supportedDomains"`

	Title         *FieldRule `yaml:"title"`
	Author        *FieldRule `yaml:"author"`
	DatePublished *FieldRule `yaml:"datePublished"`
	Dek           *FieldRule `yaml:"dek"`
	LeadImageURL  *FieldRule `yaml:"leadImageUrl"`
	Content       *FieldRule `yaml:"content"`
	NextPageURL   *FieldRule `yaml:"nextPageUrl"`
	PageCount     *FieldRule `yaml:"pageCount"`

	// Exclude lists selectors removed from the content of every page
	Exclude []string `yaml:"exclude"`
}

// Fields returns the rule's field rules keyed by field name, skipping unset ones
func (r *Rule) Fields() map[string]*FieldRule {
	all := map[string]*FieldRule{
		"title":          r.Title,
		"author":         r.Author,
		"date_published": r.DatePublished,
		"dek":            r.Dek,
		"lead_image_url": r.LeadImageURL,
		"content":        r.Content,
		"next_page_url":  r.NextPageURL,
		"page_count":     r.PageCount,
	}
	for k, v := range all {
		if v == nil {
			delete(all, k)
		}
	}
	return all
}

// Validate compiles every selector the rule carries
func (r *Rule) Validate() error {
	if r.Domain == "" {
		return fmt.Errorf("rule has no domain")
	}
	for name, field := range r.Fields() {
		for _, sel := range field.Selectors {
			if err := compile(sel.CSS); err != nil {
				return fmt.Errorf("%s: %s selector %q: %w", r.Domain, name, sel.CSS, err)
			}
		}
		for _, css := range field.Clean {
			if err := compile(css); err != nil {
				return fmt.Errorf("%s: %s clean %q: %w", r.Domain, name, css, err)
			}
		}
		for _, t := range field.Transforms {
			if err := compile(t.Selector); err != nil {
				return fmt.Errorf("%s: %s transform %q: %w", r.Domain, name, t.Selector, err)
			}
			if t.Tag == "" && t.Func == nil {
				return fmt.Errorf("%s: %s transform %q does nothing", r.Domain, name, t.Selector)
			}
		}
	}
	for _, css := range r.Exclude {
		if err := compile(css); err != nil {
			return fmt.Errorf("%s: exclude %q: %w", r.Domain, css, err)
		}
	}
	return nil
}

func compile(css string) error {
	if css == "" {
		return fmt.Errorf("empty selector")
	}
	_, err := cascadia.Compile(css)
	return err
}
