package extractor

import "regexp"

// Candidate cleanup applied before scoring. Elements whose class+id match
// unlikelyCandidatesRE are dropped unless they also match the whitelist.
var (
	unlikelyCandidatesRE  = regexp.MustCompile(`(?i)ad-break|adbox|advert|addthis|agegate|aux|blogger-labels|combx|comment|conversation|disqus|entry-unrelated|extra|foot|header|hidden|loader|login|menu|meta|nav|outbrain|pager|pagination|predicta|presence_control_external|popup|printfriendly|related|remove|remark|rss|share|shoutbox|sidebar|sociable|sponsor|taboola|tools`)
	candidatesWhitelistRE = regexp.MustCompile(`(?i)and|article|body|blogindex|column|content|entry-content-asset|format|hfeed|hentry|hatom|main|page|posts|shadow`)
)

// Class and id weights
var (
	positiveScoreRE = regexp.MustCompile(`(?i)article|articlecontent|instapaper_body|blog|body|content|entry-content-asset|entry|hentry|main|Normal|page|pagination|permalink|post|story|text|[-_]copy|\Bcopy`)
	negativeScoreRE = regexp.MustCompile(`(?i)adbox|advert|author|bio|bookmark|bottom|byline|clear|com-|combx|comment|comment\B|contact|copy|credit|crumb|date|deck|excerpt|featured|foot|footer|footnote|graf|head|info|infotext|instapaper_ignore|jump|linebreak|link|masthead|media|meta|modal|outbrain|promo|pr_|related|respond|roundcontent|scroll|secondary|share|shopping|shoutbox|side|sidebar|sponsor|stamp|sub|summary|tags|tools|widget`)
	photoHintsRE    = regexp.MustCompile(`(?i)figure|photo|image|caption`)
	entryAssetRE    = regexp.MustCompile(`(?i)entry-content-asset`)
)

// hNews containers get a flat boost: [parent, child]
var hNewsSelectors = [][2]string{
	{".hentry", ".entry-content"},
	{"entry", ".entry-content"},
	{".entry", ".entry_content"},
	{".post", ".postbody"},
	{".post", ".post_body"},
	{".post", ".post-body"},
}

const hNewsBoost = 80

// Boilerplate containers removed from the selected content root
var boilerplateRE = regexp.MustCompile(`(?i)(^|[\s_-])(share|sharing|social|newsletter|subscribe|related|recommended|promo|sponsor|advert|ad-container|breadcrumbs?|cookie|consent|comments?|tags|author-bio)([\s_-]|$)`)

// Spacer and tracking images
var spacerRE = regexp.MustCompile(`(?i)transparent|spacer|blank`)

// Media embeds kept through cleaning
var keepEmbedRE = regexp.MustCompile(`(?i)//(www\.)?(youtube(-nocookie)?\.com|player\.vimeo\.com|vimeo\.com|dailymotion\.com|player\.twitch\.tv|open\.spotify\.com|w\.soundcloud\.com|embed\.ted\.com)/`)

const (
	// Tags that may hold a paragraph's worth of text
	paragraphTags = "p, pre"
	// Block tags that stop a div from being treated as a paragraph
	divToPBlockTags = "a, blockquote, dl, div, img, ol, p, pre, table, ul, figure, video, iframe, section, article"
	// Tags never chosen as the content root
	nonTopCandidateTags = "br, b, i, label, hr, area, base, basefont, input, img, link, meta, html"
	// Removed from the content root unconditionally
	stripJunkTags = "title, script, noscript, link, style, hr, object, applet, select, textarea, input, button, form, svg, nav, aside"
	// Removed conditionally, after scoring
	cleanConditionallyTags = "ul, ol, table, div, section, button, form"
	headerTags             = "h2, h3, h4, h5, h6"
)

// Tag seed scores. Paragraph-like tags are scored from their text instead.
var tagScores = map[string]float64{
	"div":        5,
	"article":    5,
	"section":    3,
	"td":         3,
	"blockquote": 3,
	"address":    -3,
	"ol":         -3,
	"ul":         -3,
	"dl":         -3,
	"dd":         -3,
	"dt":         -3,
	"li":         -3,
	"form":       -3,
	"h1":         -5,
	"h2":         -5,
	"h3":         -5,
	"h4":         -5,
	"h5":         -5,
	"h6":         -5,
	"th":         -5,
	"nav":        -25,
	"aside":      -25,
	"footer":     -25,
	"header":     -25,
	"menu":       -25,
}

// Metadata keys, in priority order
var (
	titleMetaTags  = []string{"og:title", "twitter:title", "headline", "dc.title", "title"}
	authorMetaTags = []string{"byl", "clmst", "dc.author", "dcsext.author", "dc.creator", "rbauthors", "authors", "author", "article:author", "parsely-author", "sailthru.author"}
	dateMetaTags   = []string{"article:published_time", "og:article:published_time", "displaydate", "dc.date", "dc.date.issued", "rbpubdate", "publish_date", "pub_date", "pagedate", "pubdate", "revision_date", "doc_date", "date_created", "content_create_date", "lastmodified", "created", "date", "parsely-pub-date", "sailthru.date"}
	dekMetaTags    = []string{"og:description", "twitter:description", "description", "dc.description"}
	imageMetaTags  = []string{"og:image", "og:image:url", "og:image:secure_url", "twitter:image", "twitter:image:src", "image_src"}
	siteNameMeta   = []string{"og:site_name", "application-name", "twitter:site"}
)

// Selectors tried after metadata
var (
	titleSelectors  = []string{".entry-title", ".post-title", ".article-title", "h1.title", "article h1", "#articleHeader h1", "h1"}
	authorSelectors = []string{
		".entry .entry-author", ".author.vcard .fn", ".author .vcard .fn", ".byline.vcard .fn",
		".byline .vcard .fn", ".byline .by .author", ".byline .by", ".byline .author",
		".post-author.vcard", ".post-author .vcard", "a[rel=author]", "#by_author", ".by_author",
		"#entryAuthor", ".entryAuthor", ".byline a[href*=author]", "#author .authorname",
		".author .authorname", "#author", ".author", ".articleauthor", ".ArticleAuthor", ".byline",
	}
	dateSelectors = []string{
		".hentry .dtstamp.published", ".hentry .published", ".hentry .dtstamp.updated", ".hentry .updated",
		".single .published", ".meta .published", ".meta .postDate", ".entry-date", ".byline .date",
		".postmetadata .date", ".article_datetime", ".date-header", ".story-date", ".dateStamp",
		"#story .datetime", ".dateline", ".pubdate",
	}
	bylineSelectors = "#byline, .byline, .author, [itemprop=author]"
)

// Text patterns
var (
	bylineRE        = regexp.MustCompile(`(?i)^[\n\s]*By\b`)
	bylinePrefixRE  = regexp.MustCompile(`(?i)^\s*(posted\s+)?by\b\s*:?\s*`)
	datePrefixRE    = regexp.MustCompile(`(?i)^\s*(published|posted|updated|last updated|date)\s*(on|at)?\s*:?\s*`)
	dateURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`/((?:19|20)\d{2})/(0?[1-9]|1[0-2])/(0?[1-9]|[12]\d|3[01])/`),
		regexp.MustCompile(`[-/]((?:19|20)\d{2})-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])(?:[-/.]|$)`),
	}
	msTimestampRE   = regexp.MustCompile(`^\d{13}$`)
	secTimestampRE  = regexp.MustCompile(`^\d{10}$`)
	titleSplitterRE = regexp.MustCompile(`\s+[|\-–—:·»]\s+`)
	commaRE         = regexp.MustCompile(`[,，、،]`)
)

// Pagination link scoring
var (
	digitRE             = regexp.MustCompile(`\d`)
	digitsRE            = regexp.MustCompile(`\d+`)
	nextLinkTextRE      = regexp.MustCompile(`(?i)(next|weiter|continue|>([^|]|$)|»([^|]|$))`)
	capLinkTextRE       = regexp.MustCompile(`(?i)(first|last|end)`)
	prevLinkTextRE      = regexp.MustCompile(`(?i)(prev|earl|old|new|<|«)`)
	extraneousLinkRE    = regexp.MustCompile(`(?i)(print|archive|comment|discuss|e-mail|email|share|reply|all|login|sign|single|adx|entry-unrelated)`)
	pageHintParentRE    = regexp.MustCompile(`(?i)(pag(e|ing|inat)|next|prev|older|newer)`)
	negativeParentRE    = regexp.MustCompile(`(?i)(comment|sidebar|footer|related|share|social)`)
	pageInHrefRE        = regexp.MustCompile(`(?i)(page|paging|(p(a|g|ag)?(e|enum|ewanted|ing|ination)))?(=|/)([0-9]{1,3})(?:[^0-9]|$)`)
	pageNumberTextRE    = regexp.MustCompile(`^\s*(page\s*)?(\d{1,3})\s*$`)
	hasAlphaRE          = regexp.MustCompile(`[a-zA-Z]`)
	trailingPageSegment = regexp.MustCompile(`(?i)^(page|p|pg)?[-_]?\d{1,3}$`)
)

const (
	excerptLength       = 200
	minNextPageScore    = 50
	maxLinkTextLength   = 25
	siblingScoreRatio   = 0.25
	minSiblingScore     = 10
	parentScoreFraction = 0.25
)
