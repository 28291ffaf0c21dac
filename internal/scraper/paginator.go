package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"article-extractor/internal/extractor"
	"article-extractor/internal/models"
	"article-extractor/internal/resource"
	"article-extractor/internal/rules"

	"github.com/rs/zerolog"
)

// errRevisit marks a later page whose request ended on a page this
// article already rendered.
var errRevisit = errors.New("redirected to visited page")

type pageState int

const (
	stateStart pageState = iota
	stateFetchingPage
	stateExtracted
	stateMorePages
	stateDone
	stateError
)

func (s pageState) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateFetchingPage:
		return "fetching"
	case stateExtracted:
		return "extracted"
	case stateMorePages:
		return "more_pages"
	case stateDone:
		return "done"
	case stateError:
		return "error"
	}
	return "unknown"
}

// pagination is the state of one article walk. It is never shared between
// Parse calls.
type pagination struct {
	first    models.ExtractionFields
	contents []string
	visited  map[string]bool

	currentPage int
	maxPages    int
	stopReason  string

	// partialErr is the failure of a page after the first.
	partialErr error
}

func (p *pagination) visit(u *url.URL) {
	p.visited[extractor.StripAnchor(u.String())] = true
}

type paginator struct {
	scraper *Scraper
	rule    *rules.Rule
	opts    Options
	logger  zerolog.Logger
}

// run walks the article starting at u. Only a failure on the first page is
// returned as an error; later failures end the walk with a partial result.
func (p *paginator) run(ctx context.Context, u *url.URL) (*pagination, error) {
	st := &pagination{
		visited:  make(map[string]bool),
		maxPages: p.opts.maxPages(p.scraper.config.MaxPages),
	}

	var (
		state   = stateStart
		pageURL = u
		fields  models.ExtractionFields
		next    *url.URL
	)

	for {
		switch state {
		case stateStart:
			st.visit(pageURL)
			state = stateFetchingPage

		case stateFetchingPage:
			var err error
			fields, err = p.page(ctx, pageURL, st)
			if errors.Is(err, errRevisit) {
				st.stopReason = err.Error()
				state = stateDone
				continue
			}
			if err != nil {
				if st.currentPage == 0 {
					return nil, err
				}
				p.logger.Warn().Err(err).Str("page_url", pageURL.String()).Int("page", st.currentPage+1).Msg("page failed, keeping earlier pages")
				st.partialErr = err
				state = stateError
				continue
			}
			st.record(fields)
			state = stateExtracted

		case stateExtracted:
			state, next = p.advance(st, fields.NextPageURL)

		case stateMorePages:
			pageURL = next
			st.visit(pageURL)
			state = stateFetchingPage

		case stateDone, stateError:
			if st.stopReason == "" {
				st.stopReason = state.String()
			}
			p.logger.Debug().
				Int("pages", len(st.contents)).
				Str("reason", st.stopReason).
				Msg("pagination stopped")
			return st, nil
		}
	}
}

func (p *pagination) record(fields models.ExtractionFields) {
	if p.currentPage == 0 {
		p.first = fields
	}
	p.contents = append(p.contents, fields.Content)
	p.currentPage++
}

// advance decides whether the walk continues to nextPageURL
func (p *paginator) advance(st *pagination, nextPageURL string) (pageState, *url.URL) {
	stop := func(reason string) (pageState, *url.URL) {
		st.stopReason = reason
		return stateDone, nil
	}

	switch {
	case !p.opts.FetchAllPages:
		return stop("first page only")
	case nextPageURL == "":
		return stop("no next page")
	case st.visited[extractor.StripAnchor(nextPageURL)]:
		return stop("next page already visited")
	case st.currentPage >= st.maxPages:
		return stop("page limit reached")
	}

	next, err := resource.ParseURL(nextPageURL)
	if err != nil {
		return stop("next page url unusable")
	}
	return stateMorePages, next
}

// page loads and extracts one page. Pages after the first only contribute
// content and the next link.
func (p *paginator) page(ctx context.Context, pageURL *url.URL, st *pagination) (models.ExtractionFields, error) {
	first := st.currentPage == 0

	doc, err := p.load(ctx, pageURL, first)
	if err != nil {
		return models.ExtractionFields{}, err
	}
	final := extractor.StripAnchor(doc.URL.String())
	if !first && final != extractor.StripAnchor(pageURL.String()) && st.visited[final] {
		p.logger.Debug().Str("page_url", pageURL.String()).Str("final_url", final).Msg("next page redirected to a visited page")
		return models.ExtractionFields{}, errRevisit
	}
	st.visit(doc.URL)

	return p.scraper.extractor.Extract(doc, p.rule, extractor.Options{
		ContentOnly: !first,
		Title:       st.first.Title,
		Visited:     st.visited,
	})
}

func (p *paginator) load(ctx context.Context, pageURL *url.URL, first bool) (*resource.Document, error) {
	cfg := p.scraper.config

	if first && p.opts.HTML != "" {
		res := &models.FetchResult{
			URL:        pageURL.String(),
			StatusCode: http.StatusOK,
			Headers:    http.Header{},
			Body:       []byte(p.opts.HTML),
		}
		if p.opts.ContentType != "" {
			res.Headers.Set("Content-Type", p.opts.ContentType)
		}
		if err := resource.Validate(res, true, cfg); err != nil {
			return nil, err
		}
		return resource.NormalizeHTML(p.opts.HTML, pageURL)
	}

	if err := ctx.Err(); err != nil {
		return nil, models.NewFetchError(pageURL.String(), err)
	}

	res, err := p.scraper.fetcher.Fetch(ctx, pageURL.String(), p.opts.Headers, p.opts.ParseNon2xx)
	if err != nil {
		return nil, err
	}

	base := pageURL
	if final, err := url.Parse(res.URL); err == nil && final.Host != "" {
		base = final
	}
	return resource.Normalize(res, base)
}
