package scraper

import (
	"context"
	"time"

	"article-extractor/internal/models"

	"golang.org/x/sync/errgroup"
)

// ParseAll parses every URL with bounded concurrency. Items keep the input
// order and a failing URL never affects the others. An HTML override in
// opts is ignored since it can only describe one page.
func (s *Scraper) ParseAll(ctx context.Context, urls []string, opts Options) []models.BatchItem {
	opts.HTML, opts.ContentType = "", ""

	items := make([]models.BatchItem, len(urls))

	var g errgroup.Group
	g.SetLimit(max(s.config.BatchConcurrency, 1))

	for i, rawURL := range urls {
		i, rawURL := i, rawURL
		g.Go(func() error {
			item := models.BatchItem{URL: rawURL}
			res, err := s.Parse(ctx, rawURL, opts)
			if err != nil {
				er := models.NewErrorResult(err)
				item.Error = &er
			} else {
				item.Result = res
			}
			items[i] = item
			return nil
		})
	}
	_ = g.Wait()

	return items
}

// ParseAllWithTimeout runs ParseAll under one deadline for the whole batch
func (s *Scraper) ParseAllWithTimeout(ctx context.Context, urls []string, opts Options, timeout time.Duration) []models.BatchItem {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return s.ParseAll(ctx, urls, opts)
}
