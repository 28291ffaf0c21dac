package rules

import (
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseDomain(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"example.com", "example.com"},
		{"www.example.com", "example.com"},
		{"a.b.example.com", "example.com"},
		{"News.Example.COM", "example.com"},
		{"example.com:8080", "example.com"},
		{"localhost", "localhost"},
		{"127.0.0.1", "127.0.0.1"},
		{"example.com.", "example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			got := BaseDomain(tt.host)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, BaseDomain(got), "idempotent")
		})
	}
}

func TestLoadDir(t *testing.T) {
	reg, err := LoadDir("testdata/valid")
	require.NoError(t, err)

	assert.Equal(t, []string{"example.com", "example.org", "news.example.net"}, reg.Domains())

	rule, ok := reg.Lookup("example.org")
	require.True(t, ok)
	assert.Equal(t, "example.com", rule.Domain)

	require.NotNil(t, rule.Author)
	assert.Equal(t, Selector{CSS: `meta[name="byl"]`, Attr: "content"}, rule.Author.Selectors[0])
	assert.Equal(t, Selector{CSS: ".byline .name"}, rule.Author.Selectors[1])

	require.NotNil(t, rule.Content)
	require.Len(t, rule.Content.Transforms, 2)
	assert.Equal(t, "h1", rule.Content.Transforms[0].Selector)
	assert.Equal(t, "h2", rule.Content.Transforms[0].Tag)
	assert.Equal(t, "div.lede", rule.Content.Transforms[1].Selector)
	assert.True(t, rule.Content.UsesDefaultCleaner())
	assert.Equal(t, []string{".newsletter-signup"}, rule.Exclude)

	news, ok := reg.Lookup("news.example.net")
	require.True(t, ok)
	assert.True(t, news.Content.Required)
	assert.False(t, news.Content.UsesDefaultCleaner())
	assert.Equal(t, Selector{CSS: "a.next-page", Attr: "href"}, news.NextPageURL.Selectors[0])
}

func TestLoadDir_InvalidSelector(t *testing.T) {
	_, err := LoadDir("testdata/invalid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}

func TestNewMapRegistry_DuplicateDomain(t *testing.T) {
	a := &Rule{Domain: "example.com"}
	b := &Rule{Domain: "other.com", SupportedDomains: []string{"example.com"}}

	_, err := NewMapRegistry(a, b)
	assert.Error(t, err)
}

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr bool
	}{
		{"ok", Rule{Domain: "a.com", Title: &FieldRule{Selectors: []Selector{{CSS: "h1"}}}}, false},
		{"no domain", Rule{}, true},
		{"empty selector", Rule{Domain: "a.com", Title: &FieldRule{Selectors: []Selector{{CSS: ""}}}}, true},
		{"bad clean", Rule{Domain: "a.com", Content: &FieldRule{Clean: []string{"div[["}}}, true},
		{"noop transform", Rule{Domain: "a.com", Content: &FieldRule{Transforms: Transforms{{Selector: "h1"}}}}, true},
		{"bad exclude", Rule{Domain: "a.com", Exclude: []string{"p[["}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolver(t *testing.T) {
	exact := &Rule{Domain: "blog.example.com"}
	base := &Rule{Domain: "example.com"}
	reg, err := NewMapRegistry(exact, base)
	require.NoError(t, err)

	r := NewResolver(reg, zerolog.Nop())

	tests := []struct {
		raw  string
		want *Rule
	}{
		{"https://blog.example.com/post", exact},
		{"https://news.example.com/post", base},
		{"https://www.example.com/post", base},
		{"https://example.com/", base},
		{"https://unrelated.org/", nil},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, err := url.Parse(tt.raw)
			require.NoError(t, err)
			assert.Same(t, tt.want, r.Resolve(u))
		})
	}
}

func TestResolver_NilRegistry(t *testing.T) {
	r := NewResolver(nil, zerolog.Nop())
	u, _ := url.Parse("https://example.com/")
	assert.Nil(t, r.Resolve(u))
}
