// Package service holds the wiring shared by the HTTP, Lambda and CLI
// entry points.
package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"article-extractor/internal/config"
	"article-extractor/internal/models"
	"article-extractor/internal/rules"
	"article-extractor/internal/scraper"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. LOG_LEVEL picks the level and
// LOG_FORMAT=console switches to human readable output.
func NewLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if os.Getenv("LOG_FORMAT") == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// LoadConfig reads path when given, otherwise the environment
func LoadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.FromEnv(), nil
	}
	return config.Load(path)
}

// LoadRegistry loads the custom rules named by cfg.RulesDir. No directory
// means generic extraction only.
func LoadRegistry(cfg config.Config, logger zerolog.Logger) (rules.Registry, error) {
	if cfg.RulesDir == "" {
		return nil, nil
	}
	reg, err := rules.LoadDir(cfg.RulesDir)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("dir", cfg.RulesDir).Strs("domains", reg.Domains()).Msg("custom rules loaded")
	return reg, nil
}

// New builds a Scraper from a config file path (or the environment)
func New(configPath string, logger zerolog.Logger) (*scraper.Scraper, config.Config, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, cfg, err
	}
	reg, err := LoadRegistry(cfg, logger)
	if err != nil {
		return nil, cfg, err
	}
	return scraper.NewScraper(cfg, reg, logger), cfg, nil
}

// StatusFor maps a parse error to an HTTP status
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch models.KindOf(err) {
	case models.KindBadURL:
		return http.StatusBadRequest
	case models.KindValidation:
		return http.StatusUnprocessableEntity
	case models.KindFetch:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// OptionsFromQuery reads parse options from request parameters:
// fetch_all_pages, parse_non_2xx and max_pages.
func OptionsFromQuery(q url.Values) scraper.Options {
	opts := scraper.DefaultOptions()
	if v, err := strconv.ParseBool(q.Get("fetch_all_pages")); err == nil {
		opts.FetchAllPages = v
	}
	if v, err := strconv.ParseBool(q.Get("parse_non_2xx")); err == nil {
		opts.ParseNon2xx = v
	}
	if n, err := strconv.Atoi(q.Get("max_pages")); err == nil && n > 0 {
		opts.MaxPages = n
	}
	return opts
}

// Timeout reads a millisecond value clamped to [lo, hi], or def when raw is
// empty or malformed.
func Timeout(raw string, def, lo, hi time.Duration) time.Duration {
	d := def
	if ms, err := strconv.Atoi(raw); err == nil {
		d = time.Duration(ms) * time.Millisecond
	}
	return min(max(d, lo), hi)
}

// Metadata describes one handled request
func Metadata(rawURL string, took time.Duration) models.Metadata {
	return models.Metadata{
		URL:        rawURL,
		ScrapedAt:  time.Now(),
		DurationMs: took.Milliseconds(),
	}
}
