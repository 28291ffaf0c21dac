// Command extract prints the article found at one or more URLs as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"article-extractor/internal/models"
	"article-extractor/internal/rules"
	"article-extractor/internal/scraper"
	"article-extractor/internal/service"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type flags struct {
	configPath    string
	rulesDir      string
	headers       []string
	firstPageOnly bool
	parseNon2xx   bool
	maxPages      int
	htmlFile      string
	contentType   string
	timeout       time.Duration
}

// errParseFailed marks a run where at least one URL failed. The failure
// itself is already part of the JSON output.
var errParseFailed = errors.New("parse failed")

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "extract URL [URL...]",
		Short: "Extract the article content of a web page",
		Long: `Fetches the page, follows its next page links and prints the
assembled article as JSON.

Example:
  extract https://example.com/2016/article-title/
  extract --first-page-only --header "Cookie: a=b" https://example.com/story`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f, args, stdout, stderr)
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", "", "YAML or JSON config file")
	cmd.Flags().StringVar(&f.rulesDir, "rules", "", "directory of custom site rules")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, `request header as "Name: value", repeatable`)
	cmd.Flags().BoolVar(&f.firstPageOnly, "first-page-only", false, "do not follow next page links")
	cmd.Flags().BoolVar(&f.parseNon2xx, "parse-non-2xx", false, "extract from error pages too")
	cmd.Flags().IntVar(&f.maxPages, "max-pages", 0, "maximum pages to follow (0 uses the config)")
	cmd.Flags().StringVar(&f.htmlFile, "html-file", "", "use this file as the first page instead of fetching it")
	cmd.Flags().StringVar(&f.contentType, "content-type", "", "content type of --html-file")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "overall deadline (0 uses the config)")

	return cmd
}

func run(ctx context.Context, f flags, args []string, stdout, stderr io.Writer) error {
	logger := service.NewLogger(stderr)
	if os.Getenv("LOG_FORMAT") == "" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen})
	}

	cfg, err := service.LoadConfig(f.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if f.rulesDir != "" {
		cfg.RulesDir = f.rulesDir
	}
	var registry rules.Registry
	if registry, err = service.LoadRegistry(cfg, logger); err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	opts := scraper.DefaultOptions()
	opts.FetchAllPages = !f.firstPageOnly
	opts.ParseNon2xx = f.parseNon2xx
	opts.MaxPages = f.maxPages
	if opts.Headers, err = parseHeaders(f.headers); err != nil {
		return err
	}
	if f.htmlFile != "" {
		if len(args) > 1 {
			return errors.New("--html-file takes a single URL")
		}
		b, err := os.ReadFile(f.htmlFile)
		if err != nil {
			return fmt.Errorf("read html file: %w", err)
		}
		opts.HTML = string(b)
		opts.ContentType = f.contentType
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	s := scraper.NewScraper(cfg, registry, logger)
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	if len(args) > 1 {
		items := s.ParseAll(ctx, args, opts)
		if err := enc.Encode(items); err != nil {
			return err
		}
		for _, item := range items {
			if item.Error != nil {
				return errParseFailed
			}
		}
		return nil
	}

	result, err := s.Parse(ctx, args[0], opts)
	if err != nil {
		if encErr := enc.Encode(models.NewErrorResult(err)); encErr != nil {
			return encErr
		}
		return errParseFailed
	}
	return enc.Encode(result)
}

// parseHeaders reads "Name: value" pairs
func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, want \"Name: value\"", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

func main() {
	cmd := newRootCommand(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errParseFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
