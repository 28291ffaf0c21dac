// Package scraper orchestrates a parse: it resolves the site rule, walks
// the article's pages and assembles the final result.
package scraper

import (
	"context"
	"fmt"
	"time"

	"article-extractor/internal/config"
	"article-extractor/internal/extractor"
	"article-extractor/internal/models"
	"article-extractor/internal/resource"
	"article-extractor/internal/rules"

	"github.com/rs/zerolog"
)

// Scraper is safe for concurrent use. Every Parse call owns its own
// pagination state.
type Scraper struct {
	config    config.Config
	fetcher   *resource.Fetcher
	resolver  *rules.Resolver
	extractor *extractor.Extractor
	logger    zerolog.Logger
}

// NewScraper wires the pipeline. A nil registry means every URL uses the
// generic extractor.
func NewScraper(cfg config.Config, registry rules.Registry, logger zerolog.Logger) *Scraper {
	return &Scraper{
		config:    cfg,
		fetcher:   resource.NewFetcher(cfg, logger),
		resolver:  rules.NewResolver(registry, logger),
		extractor: extractor.New(cfg, logger),
		logger:    logger.With().Str("component", "scraper").Logger(),
	}
}

// WithFetcher replaces the fetcher, mostly for tests
func (s *Scraper) WithFetcher(f *resource.Fetcher) *Scraper {
	clone := *s
	clone.fetcher = f
	return &clone
}

// Parse extracts the article at rawURL. Every error returned is a
// *models.Error.
func (s *Scraper) Parse(ctx context.Context, rawURL string, opts Options) (result *models.ParseResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = models.NewParseError(rawURL, "unexpected failure", fmt.Errorf("panic: %v", r))
		}
	}()

	u, err := resource.ParseURL(rawURL)
	if err != nil {
		return nil, models.AsError(rawURL, err)
	}

	if s.config.ArticleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ArticleTimeout)
		defer cancel()
	}

	start := time.Now()
	rule := s.resolver.Resolve(u)

	p := &paginator{
		scraper: s,
		rule:    rule,
		opts:    opts,
		logger:  s.logger.With().Str("url", u.String()).Logger(),
	}
	state, err := p.run(ctx, u)
	if err != nil {
		s.logger.Info().Str("url", rawURL).Err(err).Msg("parse failed")
		return nil, models.AsError(rawURL, err)
	}

	result = assemble(state, u, opts)

	s.logger.Info().
		Str("url", rawURL).
		Int("total_pages", result.TotalPages).
		Int("rendered_pages", result.RenderedPages).
		Int("words", result.WordCount).
		Bool("partial", result.Partial).
		Dur("took", time.Since(start)).
		Msg("parsed")

	return result, nil
}

// ParseWithTimeout runs Parse under an extra deadline
func (s *Scraper) ParseWithTimeout(ctx context.Context, rawURL string, opts Options, timeout time.Duration) (*models.ParseResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return s.Parse(ctx, rawURL, opts)
}
