package resource

import (
	"errors"
	"fmt"
	"mime"
	"strconv"
	"strings"

	"article-extractor/internal/config"
	"article-extractor/internal/models"
)

// Validate decides whether a response is worth parsing. It does not judge
// content quality, only whether there is reason to bail out early.
func Validate(res *models.FetchResult, parseNon2xx bool, cfg config.Config) error {
	if res == nil || res.StatusCode == 0 {
		rawURL := ""
		if res != nil {
			rawURL = res.URL
		}
		return models.NewFetchError(rawURL, errors.New("response carried no status code"))
	}

	if (res.StatusCode < 200 || res.StatusCode > 299) && !parseNon2xx {
		return models.NewValidationError(res.URL, fmt.Sprintf(
			"Resource returned a response status code of %d and resource was instructed to reject non-2xx level status codes.",
			res.StatusCode))
	}

	contentType := res.Headers.Get("Content-Type")
	if cfg.IsBadContentType(MediaType(contentType)) {
		return models.NewValidationError(res.URL, fmt.Sprintf(
			"Content-type for this resource was %s and is not allowed.", contentType))
	}

	limit := cfg.MaxContentLength
	if limit > 0 {
		if cl := res.Headers.Get("Content-Length"); cl != "" {
			if n, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64); err == nil && n > limit {
				return tooLarge(res.URL, limit)
			}
		}
		if int64(len(res.Body)) > limit {
			return tooLarge(res.URL, limit)
		}
	}

	return nil
}

func tooLarge(rawURL string, limit int64) error {
	return models.NewValidationError(rawURL, fmt.Sprintf(
		"Content for this resource was too large. Maximum content length is %d.", limit))
}

// MediaType returns the lower-cased media type without parameters
func MediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}
