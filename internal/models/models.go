package models

import (
	"net/http"
	"time"
)

// FetchResult is the raw outcome of one fetch, consumed once by the normalizer
type FetchResult struct {
	URL           string
	StatusCode    int
	StatusMessage string
	Headers       http.Header
	Body          []byte
}

// ExtractionFields holds the fields extracted from a single page
type ExtractionFields struct {
	Title         string
	Author        string
	DatePublished string
	Dek           string
	LeadImageURL  string
	Content       string
	Excerpt       string
	Direction     string
	NextPageURL   string
	WordCount     int
	// PageHint is the page count suggested by pagination links on this page.
	PageHint int
}

// ParseResult is the assembled article
type ParseResult struct {
	Title         string  `json:"title"`
	Author        *string `json:"author"`
	DatePublished *string `json:"date_published"`
	Dek           *string `json:"dek"`
	LeadImageURL  *string `json:"lead_image_url"`
	Content       string  `json:"content"`
	NextPageURL   *string `json:"next_page_url"`
	URL           string  `json:"url"`
	Domain        string  `json:"domain"`
	Excerpt       string  `json:"excerpt"`
	WordCount     int     `json:"word_count"`
	Direction     string  `json:"direction"`
	TotalPages    int     `json:"total_pages"`
	RenderedPages int     `json:"rendered_pages"`

	// Partial is set when a page after the first failed and the content
	// stops at the last page that succeeded.
	Partial      bool   `json:"partial,omitempty"`
	PartialError string `json:"partial_error,omitempty"`
}

// ErrorResult is the JSON shape of a failed parse
type ErrorResult struct {
	Error        bool      `json:"error"`
	Message      string    `json:"message"`
	ErrorMessage ErrorKind `json:"error_message"`
}

// NewErrorResult converts a pipeline error into its JSON shape
func NewErrorResult(err error) ErrorResult {
	e := AsError("", err)
	if e == nil {
		return ErrorResult{}
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return ErrorResult{Error: true, Message: msg, ErrorMessage: e.Kind}
}

// Metadata contains request metadata added by the service handlers
type Metadata struct {
	URL        string    `json:"url"`
	ScrapedAt  time.Time `json:"scrapedAt"`
	DurationMs int64     `json:"durationMs"`
}

// ScrapeResponse wraps a result with request metadata
type ScrapeResponse struct {
	*ParseResult
	Metadata Metadata `json:"metadata"`
}

// BatchItem is one entry of a batch response
type BatchItem struct {
	URL    string       `json:"url"`
	Result *ParseResult `json:"result,omitempty"`
	Error  *ErrorResult `json:"error,omitempty"`
}

// ImageCandidate represents a potential lead image with scoring data
type ImageCandidate struct {
	URL       string
	Width     int
	Height    int
	InContent bool
	BadHint   bool
	Source    string
	Position  int
	Score     float64
	Area      int
}

// StringPtr returns nil for the empty string
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
