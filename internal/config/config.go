package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// ImageConfig contains configuration for lead image scoring
type ImageConfig struct {
	MinShortSide   int             `yaml:"minShortSide" json:"minShortSide"`
	MinArea        int             `yaml:"minArea" json:"minArea"`
	MinAspect      float64         `yaml:"minAspect" json:"minAspect"`
	MaxAspect      float64         `yaml:"maxAspect" json:"maxAspect"`
	RatioWhitelist []float64       `yaml:"ratioWhitelist" json:"ratioWhitelist"`
	RatioTol       float64         `yaml:"ratioTol" json:"ratioTol"`
	AdSizes        map[string]bool `yaml:"adSizes" json:"adSizes"`
	BadHintRegex   string          `yaml:"badHintRegex" json:"badHintRegex"`
}

// Config is the process-wide, read-only configuration shared by every
// component. Build it once with Default, FromEnv or Load and pass it by value.
type Config struct {
	UserAgent        string            `yaml:"userAgent" json:"userAgent"`
	Headers          map[string]string `yaml:"headers" json:"headers"`
	FetchTimeout     time.Duration     `yaml:"fetchTimeout" json:"fetchTimeout"`
	ArticleTimeout   time.Duration     `yaml:"articleTimeout" json:"articleTimeout"`
	MaxContentLength int64             `yaml:"maxContentLength" json:"maxContentLength"`
	BadContentTypes  []string          `yaml:"badContentTypes" json:"badContentTypes"`
	MaxRedirects     int               `yaml:"maxRedirects" json:"maxRedirects"`
	MaxRetries       int               `yaml:"maxRetries" json:"maxRetries"`
	RetryBackoff     time.Duration     `yaml:"retryBackoff" json:"retryBackoff"`
	MaxPages         int               `yaml:"maxPages" json:"maxPages"`
	BatchConcurrency int               `yaml:"batchConcurrency" json:"batchConcurrency"`
	RulesDir         string            `yaml:"rulesDir" json:"rulesDir"`
	Image            ImageConfig       `yaml:"image" json:"image"`

	badContentTypes *regexp.Regexp
}

const defaultUserAgent = "Mozilla/5.0 (compatible; article-extractor/1.0; +https://github.com/vdelacou/article-extractor)"

// DefaultImageConfig returns the default image scoring configuration
func DefaultImageConfig() ImageConfig {
	return ImageConfig{
		MinShortSide:   300,
		MinArea:        140000,
		MinAspect:      0.5,
		MaxAspect:      2.6,
		RatioWhitelist: []float64{1.333, 1.5, 1.6, 1.667, 1.777, 1.85, 2},
		RatioTol:       0.09,
		AdSizes: map[string]bool{
			"728x90": true, "970x90": true, "970x250": true, "468x60": true,
			"320x50": true, "300x50": true, "300x250": true, "336x280": true,
			"300x600": true, "160x600": true, "120x600": true, "250x250": true,
			"200x200": true, "180x150": true, "234x60": true, "120x240": true,
			"88x31": true,
		},
		BadHintRegex: `(sprite|icon|favicon|logo|avatar|emoji|placeholder|pixel|tracker|adserver|promo|beacon|spacer|blank)|\bads?\b`,
	}
}

// Default returns the default configuration
func Default() Config {
	cfg := Config{
		UserAgent: defaultUserAgent,
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
		FetchTimeout:     10 * time.Second,
		ArticleTimeout:   60 * time.Second,
		MaxContentLength: 5 * 1024 * 1024,
		BadContentTypes: []string{
			"audio/mpeg", "image/gif", "image/jpeg", "image/jpg", "image/png",
			"video/.*", "application/pdf", "application/zip", "application/octet-stream",
		},
		MaxRedirects:     5,
		MaxRetries:       2,
		RetryBackoff:     500 * time.Millisecond,
		MaxPages:         26,
		BatchConcurrency: 4,
		Image:            DefaultImageConfig(),
	}
	return cfg.compile()
}

// FromEnv returns Default with environment overrides applied
func FromEnv() Config {
	cfg := Default()

	if ua := os.Getenv("SCRAPE_USER_AGENT"); ua != "" {
		cfg.UserAgent = ua
	}
	if env := os.Getenv("SCRAPE_TIMEOUT_MS"); env != "" {
		if ms, err := strconv.Atoi(env); err == nil && ms > 0 {
			cfg.FetchTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	if env := os.Getenv("SCRAPE_MAX_CONTENT_LENGTH"); env != "" {
		if n, err := strconv.ParseInt(env, 10, 64); err == nil && n > 0 {
			cfg.MaxContentLength = n
		}
	}
	if env := os.Getenv("SCRAPE_MAX_PAGES"); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n > 0 {
			cfg.MaxPages = n
		}
	}
	if dir := os.Getenv("SCRAPE_RULES_DIR"); dir != "" {
		cfg.RulesDir = dir
	}

	return cfg.compile()
}

// Load reads a YAML or JSON file on top of FromEnv. Zero values in the file
// keep the defaults.
func Load(path string) (Config, error) {
	base := FromEnv()

	b, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}

	var fc Config
	switch ext := filepath.Ext(path); ext {
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return base, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return base, fmt.Errorf("parse yaml: %w", err)
		}
	}

	merged := merge(base, fc)
	if err := merged.Validate(); err != nil {
		return base, err
	}
	return merged.compile(), nil
}

func merge(base, fc Config) Config {
	if fc.UserAgent != "" {
		base.UserAgent = fc.UserAgent
	}
	if len(fc.Headers) > 0 {
		headers := make(map[string]string, len(base.Headers)+len(fc.Headers))
		for k, v := range base.Headers {
			headers[k] = v
		}
		for k, v := range fc.Headers {
			headers[k] = v
		}
		base.Headers = headers
	}
	if fc.FetchTimeout > 0 {
		base.FetchTimeout = fc.FetchTimeout
	}
	if fc.ArticleTimeout > 0 {
		base.ArticleTimeout = fc.ArticleTimeout
	}
	if fc.MaxContentLength > 0 {
		base.MaxContentLength = fc.MaxContentLength
	}
	if len(fc.BadContentTypes) > 0 {
		base.BadContentTypes = fc.BadContentTypes
	}
	if fc.MaxRedirects > 0 {
		base.MaxRedirects = fc.MaxRedirects
	}
	if fc.MaxRetries > 0 {
		base.MaxRetries = fc.MaxRetries
	}
	if fc.RetryBackoff > 0 {
		base.RetryBackoff = fc.RetryBackoff
	}
	if fc.MaxPages > 0 {
		base.MaxPages = fc.MaxPages
	}
	if fc.BatchConcurrency > 0 {
		base.BatchConcurrency = fc.BatchConcurrency
	}
	if fc.RulesDir != "" {
		base.RulesDir = fc.RulesDir
	}
	if fc.Image.BadHintRegex != "" {
		base.Image.BadHintRegex = fc.Image.BadHintRegex
	}
	return base
}

// Validate reports configuration values that cannot work
func (c Config) Validate() error {
	if c.MaxContentLength <= 0 {
		return fmt.Errorf("maxContentLength must be positive")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("maxPages must be positive")
	}
	if _, err := regexp.Compile(badContentTypesPattern(c.BadContentTypes)); err != nil {
		return fmt.Errorf("badContentTypes: %w", err)
	}
	if _, err := regexp.Compile("(?i)" + c.Image.BadHintRegex); err != nil {
		return fmt.Errorf("image.badHintRegex: %w", err)
	}
	return nil
}

// IsBadContentType reports whether the media type (parameters already
// stripped) is one that never carries article text.
func (c Config) IsBadContentType(mediaType string) bool {
	re := c.badContentTypes
	if re == nil {
		re = regexp.MustCompile(badContentTypesPattern(c.BadContentTypes))
	}
	return re.MatchString(strings.TrimSpace(mediaType))
}

func (c Config) compile() Config {
	if re, err := regexp.Compile(badContentTypesPattern(c.BadContentTypes)); err == nil {
		c.badContentTypes = re
	}
	return c
}

func badContentTypesPattern(types []string) string {
	if len(types) == 0 {
		return `^\b$`
	}
	return `(?i)^(` + strings.Join(types, "|") + `)$`
}

// CompileRegexes pre-compiles the image hint patterns
func CompileRegexes(img ImageConfig) map[string]*regexp.Regexp {
	badHintRegex, err := regexp.Compile("(?i)" + img.BadHintRegex)
	if err != nil {
		badHintRegex = regexp.MustCompile(`(?i)` + DefaultImageConfig().BadHintRegex)
	}

	return map[string]*regexp.Regexp{
		"badHint":           badHintRegex,
		"widthStyle":        regexp.MustCompile(`(?:^|;|\s)width\s*:\s*(\d+(?:\.\d+)?)px\b`),
		"heightStyle":       regexp.MustCompile(`(?:^|;|\s)height\s*:\s*(\d+(?:\.\d+)?)px\b`),
		"srcsetItem":        regexp.MustCompile(`(\S+)\s+(\d+)w`),
		"dimensionsFromUrl": regexp.MustCompile(`(?:^|[^\d])(\d{3,4})x(\d{3,4})(?:[^\d]|$)`),
		"widthFromUrl":      regexp.MustCompile(`[?&](?:w|width)=(\d{3,4})\b`),
		"heightFromUrl":     regexp.MustCompile(`[?&](?:h|height)=(\d{3,4})\b`),
		"imageExt":          regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp|avif)(?:$|[?#])`),
	}
}
