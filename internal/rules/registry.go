package rules

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	yaml "gopkg.in/yaml.v3"
)

// Registry looks up the rule registered for an exact domain
type Registry interface {
	Lookup(domain string) (*Rule, bool)
}

// MapRegistry is an in-memory Registry. It is filled once at construction
// and safe for concurrent reads afterwards.
type MapRegistry struct {
	rules map[string]*Rule
}

// NewMapRegistry validates and indexes rules by Domain and SupportedDomains
func NewMapRegistry(list ...*Rule) (*MapRegistry, error) {
	reg := &MapRegistry{rules: make(map[string]*Rule)}
	for _, rule := range list {
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		for _, domain := range append([]string{rule.Domain}, rule.SupportedDomains...) {
			domain = normalizeDomain(domain)
			if prev, ok := reg.rules[domain]; ok && prev != rule {
				return nil, fmt.Errorf("domain %s registered twice", domain)
			}
			reg.rules[domain] = rule
		}
	}
	return reg, nil
}

// Lookup returns the rule for domain
func (r *MapRegistry) Lookup(domain string) (*Rule, bool) {
	if r == nil {
		return nil, false
	}
	rule, ok := r.rules[normalizeDomain(domain)]
	return rule, ok
}

// Domains lists every registered domain, sorted
func (r *MapRegistry) Domains() []string {
	domains := make([]string, 0, len(r.rules))
	for d := range r.rules {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}

// LoadDir reads every rule file in dir. JSON is parsed as YAML.
func LoadDir(dir string) (*MapRegistry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading rules dir: %w", err)
	}

	var list []*Rule
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		rule, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		list = append(list, rule)
	}

	return NewMapRegistry(list...)
}

// LoadFile parses a single rule file
func LoadFile(path string) (*Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rule Rule
	if err := yaml.Unmarshal(data, &rule); err != nil {
		return nil, fmt.Errorf("parsing rule file %s: %w", filepath.Base(path), err)
	}
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("rule file %s: %w", filepath.Base(path), err)
	}
	return &rule, nil
}

// Resolver picks the rule for a URL. A nil rule means the generic extractor.
type Resolver struct {
	registry Registry
	logger   zerolog.Logger
}

// NewResolver wraps a registry; a nil registry always resolves to generic
func NewResolver(registry Registry, logger zerolog.Logger) *Resolver {
	return &Resolver{registry: registry, logger: logger.With().Str("component", "resolver").Logger()}
}

// Resolve tries the exact hostname, then its base domain
func (r *Resolver) Resolve(u *url.URL) *Rule {
	if r == nil || r.registry == nil || u == nil {
		return nil
	}

	host := normalizeDomain(u.Hostname())
	for _, candidate := range []string{host, BaseDomain(host)} {
		if rule, ok := r.registry.Lookup(candidate); ok {
			r.logger.Debug().Str("host", host).Str("rule", rule.Domain).Msg("custom rule resolved")
			return rule
		}
	}

	r.logger.Debug().Str("host", host).Msg("no custom rule, using generic extractor")
	return nil
}

// BaseDomain keeps the last two labels of host: a.b.example.com and
// c.example.com both give example.com. IP literals are returned as is.
func BaseDomain(host string) string {
	host = normalizeDomain(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if net.ParseIP(host) != nil {
		return host
	}
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

func normalizeDomain(domain string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
}
