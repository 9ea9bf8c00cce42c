// Package loader fetches a document by slug, strips its metadata block and
// renders the body.
package loader

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"inkpress/internal/frontmatter"
	"inkpress/internal/model"
	"inkpress/internal/render"
	"inkpress/internal/transport"

	"go.uber.org/zap"
)

var (
	// ErrNotFound means the slug has no summary record. It is terminal.
	ErrNotFound = errors.New("post not found")
	// ErrFetchFailed matches every *FetchError.
	ErrFetchFailed = errors.New("failed to fetch post")
)

// FetchError reports a failed retrieval. It never carries the response body.
type FetchError struct {
	Slug   string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.Slug, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Slug, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

// Lookup resolves slugs against the local summary collection.
type Lookup interface {
	Lookup(slug string) (model.Summary, bool)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(slug string) (model.Summary, bool)

func (f LookupFunc) Lookup(slug string) (model.Summary, bool) { return f(slug) }

// Page is a loaded, rendered document.
type Page struct {
	Summary   model.Summary
	Body      string
	Nodes     render.NodeList
	WordCount int
}

// HTML renders the page body as an HTML fragment.
func (p *Page) HTML() string {
	return render.HTML(p.Nodes)
}

// Document returns the page as a model.Document.
func (p *Page) Document() model.Document {
	return p.Summary.Document(p.Body)
}

// Loader retrieves documents from "/<root>/<slug><ext>".
type Loader struct {
	index    Lookup
	fetcher  transport.Fetcher
	renderer render.Renderer
	root     string
	ext      string
	logger   *zap.Logger
}

// New returns a Loader. root is the URL path prefix of the documents (for
// example "/blog") and ext their extension (".md").
func New(index Lookup, fetcher transport.Fetcher, renderer render.Renderer, root, ext string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		index:    index,
		fetcher:  fetcher,
		renderer: renderer,
		root:     "/" + strings.Trim(root, "/"),
		ext:      ext,
		logger:   logger,
	}
}

// Path returns the retrieval path for slug.
func (l *Loader) Path(slug string) string {
	return path.Join(l.root, slug+l.ext)
}

// Load resolves slug locally, fetches the raw document once and renders the
// stripped body. Unknown slugs fail with ErrNotFound before any request.
func (l *Loader) Load(ctx context.Context, slug string) (*Page, error) {
	logger := l.logger.With(zap.String("slug", slug))

	summary, ok := l.index.Lookup(slug)
	if !ok {
		logger.Debug("Slug not in index")
		return nil, ErrNotFound
	}

	raw, err := l.fetcher.Fetch(ctx, l.Path(slug))
	if err != nil {
		logger.Warn("Fetch failed", zap.Error(err))
		return nil, &FetchError{Slug: slug, Status: transport.StatusCode(err), Err: err}
	}

	body := frontmatter.Strip(raw)
	nodes := l.renderer.Render(body)

	logger.Debug("Post loaded", zap.Int("bytes", len(raw)), zap.Int("nodes", len(nodes)))
	return &Page{
		Summary:   summary,
		Body:      body,
		Nodes:     nodes,
		WordCount: render.WordCount(nodes),
	}, nil
}
