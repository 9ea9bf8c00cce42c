// Package importer turns an external article into a local document.
package importer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"inkpress/internal/frontmatter"
	"inkpress/internal/model"

	"github.com/go-shiori/go-readability"
	"github.com/goliatone/go-slug"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"
)

const (
	// Category is assigned to every imported document.
	Category = "Imported"
	// WordsPerMinute drives the read time label.
	WordsPerMinute = 200
	// DefaultTimeout bounds a single scrape.
	DefaultTimeout = 30 * time.Second
)

var (
	ErrExists    = errors.New("document already exists")
	ErrEmptySlug = errors.New("title does not produce a slug")
)

// Scraper defines the interface for downloading web pages.
// This allows us to mock the "Download" step in tests.
type Scraper interface {
	Scrape(url string, timeout time.Duration) (*readability.Article, error)
}

// DefaultScraper is the real implementation that uses the internet
type DefaultScraper struct{}

func (s *DefaultScraper) Scrape(url string, timeout time.Duration) (*readability.Article, error) {
	art, err := readability.FromURL(url, timeout)
	if err != nil {
		return nil, err
	}
	return &art, nil
}

// Result describes a written document.
type Result struct {
	Slug    string
	Path    string
	Summary model.Summary
}

type Importer struct {
	dir     string
	ext     string
	scraper Scraper
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// New writes imported documents into dir with the given extension.
func New(dir, ext string, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		dir:     dir,
		ext:     ext,
		scraper: &DefaultScraper{},
		timeout: DefaultTimeout,
		now:     time.Now,
		logger:  logger,
	}
}

// Import scrapes url and writes "<dir>/<slug><ext>". Existing documents are
// never overwritten.
func (im *Importer) Import(ctx context.Context, url string) (*Result, error) {
	logger := im.logger.With(zap.String("url", url))
	logger.Info("Downloading")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	art, err := im.scraper.Scrape(url, im.timeout)
	if err != nil {
		logger.Error("Scraping failed", zap.Error(err))
		return nil, fmt.Errorf("scrape %s: %w", url, err)
	}

	name, err := slug.Normalize(art.Title)
	if err != nil || name == "" {
		return nil, fmt.Errorf("%w: %q", ErrEmptySlug, art.Title)
	}

	path := filepath.Join(im.dir, name+im.ext)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, path)
	}

	meta := im.metadata(url, art)
	if err := os.MkdirAll(im.dir, 0o755); err != nil {
		return nil, err
	}
	if err := atomic.WriteFile(path, strings.NewReader(Compose(meta, art.TextContent))); err != nil {
		logger.Error("Failed to write document", zap.Error(err))
		return nil, err
	}
	if err := os.Chmod(path, 0o644); err != nil {
		return nil, err
	}

	logger.Info("Import complete", zap.String("slug", name), zap.String("path", path))
	return &Result{
		Slug: name,
		Path: path,
		Summary: model.Summary{
			ID:       name,
			Slug:     name,
			Title:    meta.Get("title"),
			Excerpt:  meta.Get("excerpt"),
			Date:     meta.Get("date"),
			Category: Category,
			ReadTime: meta.Get("readTime"),
		},
	}, nil
}

func (im *Importer) metadata(url string, art *readability.Article) frontmatter.Metadata {
	meta := frontmatter.Metadata{
		"title":    singleLine(art.Title),
		"excerpt":  singleLine(art.Excerpt),
		"date":     im.now().UTC().Format(model.DateLayout),
		"category": Category,
		"readTime": ReadTime(art.TextContent),
		"source":   singleLine(url),
	}
	if art.Byline != "" {
		meta["author"] = singleLine(art.Byline)
	}
	return meta
}

// ReadTime estimates the reading time of text, rounded up to whole minutes.
func ReadTime(text string) string {
	words := len(strings.Fields(text))
	minutes := int(math.Ceil(float64(words) / WordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

var blockOrder = []string{"title", "excerpt", "date", "category", "readTime", "source", "author"}

// Compose renders meta as a metadata block followed by body.
func Compose(meta frontmatter.Metadata, body string) string {
	var b strings.Builder
	b.WriteString(frontmatter.Delimiter + "\n")
	for _, key := range blockOrder {
		value, ok := meta[key]
		if !ok {
			continue
		}
		if key == "title" || key == "excerpt" {
			value = `"` + value + `"`
		}
		fmt.Fprintf(&b, "%s: %s\n", key, value)
	}
	b.WriteString(frontmatter.Delimiter + "\n\n")
	b.WriteString(paragraphs(body))
	b.WriteString("\n")
	return b.String()
}

// singleLine folds s onto one line. A delimiter inside a value would close
// the block early, so it is shortened.
func singleLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	for strings.Contains(s, frontmatter.Delimiter) {
		s = strings.ReplaceAll(s, frontmatter.Delimiter, "--")
	}
	return s
}

// paragraphs keeps the non-blank lines of text, one paragraph each.
func paragraphs(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n\n")
}
