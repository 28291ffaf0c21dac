package scraper

// Options configures one Parse call
type Options struct {
	// FetchAllPages follows next page links and merges their content.
	FetchAllPages bool
	// ParseNon2xx extracts from error pages instead of failing.
	ParseNon2xx bool
	// Headers are sent with every fetch and override configured defaults.
	Headers map[string]string
	// MaxPages caps the pages followed. Zero uses the configured default.
	MaxPages int

	// HTML, when set, is used for the first page instead of fetching it.
	// ContentType optionally describes it and is validated like a response
	// header would be.
	HTML        string
	ContentType string
}

// DefaultOptions follows every page with the configured limits
func DefaultOptions() Options {
	return Options{FetchAllPages: true}
}

// FirstPageOptions extracts the first page only
func FirstPageOptions() Options {
	return Options{FetchAllPages: false}
}

func (o Options) maxPages(fallback int) int {
	if o.MaxPages > 0 {
		return o.MaxPages
	}
	if fallback > 0 {
		return fallback
	}
	return 1
}
