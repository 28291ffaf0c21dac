// Package models defines the parse result records and the typed error
// taxonomy returned by the extraction pipeline.
package models

import (
	"errors"
	"fmt"
)

// ErrorKind names one entry of the error taxonomy
type ErrorKind string

const (
	KindBadURL     ErrorKind = "BadUrl"
	KindFetch      ErrorKind = "FetchError"
	KindValidation ErrorKind = "ValidationError"
	KindParse      ErrorKind = "ParseError"
	KindExtraction ErrorKind = "ExtractionError"
)

// BadURLMessage is the message returned for input that is not a usable URL.
const BadURLMessage = "The url parameter passed does not look like a valid URL. Please check your data and try again."

// Error is the single error type crossing component boundaries. Callers
// branch on Kind rather than on message text.
type Error struct {
	Kind    ErrorKind
	URL     string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so sentinel comparisons like
// errors.Is(err, models.ErrBadURL) work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Sentinels for errors.Is
var (
	ErrBadURL     = &Error{Kind: KindBadURL}
	ErrFetch      = &Error{Kind: KindFetch}
	ErrValidation = &Error{Kind: KindValidation}
	ErrParse      = &Error{Kind: KindParse}
	ErrExtraction = &Error{Kind: KindExtraction}
)

// NewBadURLError reports input that does not parse into scheme and host
func NewBadURLError(rawURL string, err error) *Error {
	return &Error{Kind: KindBadURL, URL: rawURL, Message: BadURLMessage, Err: err}
}

// NewFetchError wraps a transport-level failure
func NewFetchError(rawURL string, err error) *Error {
	return &Error{
		Kind:    KindFetch,
		URL:     rawURL,
		Message: fmt.Sprintf("Unable to fetch content. Original exception was %v", err),
		Err:     err,
	}
}

// NewValidationError reports a response that must not be parsed
func NewValidationError(rawURL, message string) *Error {
	return &Error{Kind: KindValidation, URL: rawURL, Message: message}
}

// NewParseError reports bytes that could not become a document tree
func NewParseError(rawURL, message string, err error) *Error {
	return &Error{Kind: KindParse, URL: rawURL, Message: message, Err: err}
}

// NewExtractionError reports a custom rule that failed on a required field
func NewExtractionError(rawURL, field string, err error) *Error {
	msg := fmt.Sprintf("extraction of %q failed", field)
	return &Error{Kind: KindExtraction, URL: rawURL, Message: msg, Err: err}
}

// KindOf returns the taxonomy kind of err, or "" when err is not an *Error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// AsError converts any error into an *Error, defaulting unknown errors to
// ParseError so the public entry point always returns a taxonomy value.
func AsError(rawURL string, err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewParseError(rawURL, "unexpected failure", err)
}
