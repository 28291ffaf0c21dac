// Package resource acquires and normalizes the raw page behind a URL: it
// fetches with timeouts, retries and per-call cookies, validates the
// response, decodes the body and builds a cleaned DOM.
package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"article-extractor/internal/config"
	"article-extractor/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

const maxBackoff = 5 * time.Second

// Fetcher acquires raw bytes for a URL
type Fetcher struct {
	transport http.RoundTripper
	config    config.Config
	logger    zerolog.Logger
}

// NewFetcher builds a Fetcher with a pooled transport
func NewFetcher(cfg config.Config, logger zerolog.Logger) *Fetcher {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Fetcher{
		transport: transport,
		config:    cfg,
		logger:    logger.With().Str("component", "fetcher").Logger(),
	}
}

// WithTransport swaps the round tripper, mostly for tests
func (f *Fetcher) WithTransport(rt http.RoundTripper) *Fetcher {
	clone := *f
	clone.transport = rt
	return &clone
}

// ParseURL accepts only absolute http(s) URLs with a host
func ParseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, models.NewBadURLError(rawURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, models.NewBadURLError(rawURL, fmt.Errorf("unsupported scheme %q", u.Scheme))
	}
	if u.Hostname() == "" {
		return nil, models.NewBadURLError(rawURL, errors.New("missing host"))
	}
	return u, nil
}

// Fetch retrieves rawURL and validates the response. Caller headers override
// the configured defaults. Transient transport failures and 502/503/504 are
// retried with exponential backoff up to MaxRetries extra attempts.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, headers map[string]string, parseNon2xx bool) (*models.FetchResult, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	client, err := f.newClient()
	if err != nil {
		return nil, models.NewFetchError(rawURL, err)
	}

	var res *models.FetchResult
	for attempt := 0; ; attempt++ {
		res, err = f.tryOnce(ctx, client, u, headers)

		retryable := (err != nil && isTransient(ctx, err)) || (err == nil && isRetryableStatus(res.StatusCode))
		if !retryable || attempt >= f.config.MaxRetries {
			break
		}

		delay := backoff(f.config.RetryBackoff, attempt)
		f.logger.Debug().
			Str("url", rawURL).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			AnErr("cause", err).
			Msg("retrying fetch")

		select {
		case <-ctx.Done():
			return nil, models.NewFetchError(rawURL, ctx.Err())
		case <-time.After(delay):
		}
	}
	if err != nil {
		return nil, models.NewFetchError(rawURL, err)
	}

	if err := Validate(res, parseNon2xx, f.config); err != nil {
		return nil, err
	}
	return res, nil
}

// newClient builds a per-call client so cookies set during redirects stay
// within this fetch.
func (f *Fetcher) newClient() (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	maxHops := f.config.MaxRedirects
	if maxHops <= 0 {
		maxHops = 5
	}

	return &http.Client{
		Transport: f.transport,
		Jar:       jar,
		Timeout:   f.config.FetchTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxHops {
				return fmt.Errorf("stopped after %d redirects", maxHops)
			}
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return errors.New("redirect to unsupported scheme")
			}
			return nil
		},
	}, nil
}

func (f *Fetcher) tryOnce(ctx context.Context, client *http.Client, u *url.URL, headers map[string]string) (*models.FetchResult, error) {
	if f.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.config.FetchTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	f.setRequestHeaders(req, headers)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Read one byte past the limit so Validate can tell an oversized body
	// from one that is exactly at the limit.
	limit := f.config.MaxContentLength
	reader := io.Reader(resp.Body)
	if limit > 0 {
		reader = io.LimitReader(resp.Body, limit+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	header := resp.Header.Clone()
	if header.Get("Content-Length") == "" && resp.ContentLength >= 0 {
		header.Set("Content-Length", strconv.FormatInt(resp.ContentLength, 10))
	}

	f.logger.Debug().
		Str("url", u.String()).
		Str("final_url", resp.Request.URL.String()).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Msg("fetched")

	return &models.FetchResult{
		URL:           resp.Request.URL.String(),
		StatusCode:    resp.StatusCode,
		StatusMessage: http.StatusText(resp.StatusCode),
		Headers:       header,
		Body:          body,
	}, nil
}

// setRequestHeaders applies defaults first so caller headers win
func (f *Fetcher) setRequestHeaders(req *http.Request, headers map[string]string) {
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}
	for k, v := range f.config.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isRetryableStatus(code int) bool {
	return code == http.StatusBadGateway || code == http.StatusServiceUnavailable || code == http.StatusGatewayTimeout
}

func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	delay := base * time.Duration(1<<attempt)
	if delay > maxBackoff {
		delay = maxBackoff
	}
	return delay
}
