// Package index builds the summary collection consumed by list views and
// serves lookups against a generated snapshot.
package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"inkpress/internal/frontmatter"
	"inkpress/internal/model"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"
)

// ErrBuildIO marks a failure to read the content directory or write the
// index. It is fatal for a build.
var ErrBuildIO = errors.New("index build i/o failure")

// Builder turns a flat directory of documents into summary records.
type Builder struct {
	// Dir is the content directory.
	Dir string
	// Ext is the recognised extension including the dot. Matching is
	// case-sensitive: with ".md", "post.MD" is skipped.
	Ext string
	// Now supplies the fallback date. Defaults to time.Now.
	Now func() time.Time

	logger *zap.Logger
}

// NewBuilder returns a Builder for dir and ext.
func NewBuilder(dir, ext string, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		Dir:    dir,
		Ext:    ext,
		Now:    time.Now,
		logger: logger,
	}
}

// Matches reports whether name carries the recognised extension and has a
// non-empty slug.
func (b *Builder) Matches(name string) bool {
	return strings.HasSuffix(name, b.Ext) && len(name) > len(b.Ext)
}

// Build reads every matching document and returns their summaries in
// directory order. Any read failure aborts the build.
func (b *Builder) Build() ([]model.Summary, error) {
	entries, err := os.ReadDir(b.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read dir %s: %v", ErrBuildIO, b.Dir, err)
	}

	records := make([]model.Summary, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !b.Matches(entry.Name()) {
			continue
		}

		path := filepath.Join(b.Dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrBuildIO, path, err)
		}

		slug := strings.TrimSuffix(entry.Name(), b.Ext)
		meta := frontmatter.Extract(string(content))
		if len(meta) == 0 {
			b.logger.Debug("No metadata block, using defaults", zap.String("slug", slug))
		}

		records = append(records, b.Summarize(slug, meta))
	}

	b.logger.Info("Index built", zap.String("dir", b.Dir), zap.Int("posts", len(records)))
	return records, nil
}

// Summarize projects metadata onto a summary record, applying fallbacks for
// missing or empty display fields.
func (b *Builder) Summarize(slug string, meta frontmatter.Metadata) model.Summary {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}

	s := model.Summary{
		ID:       slug,
		Slug:     slug,
		Title:    fallback(meta.Get("title"), model.DefaultTitle),
		Excerpt:  fallback(meta.Get("excerpt"), model.DefaultExcerpt),
		Date:     fallback(meta.Get("date"), now().UTC().Format(model.DateLayout)),
		Category: fallback(meta.Get("category"), model.DefaultCategory),
		ReadTime: fallback(meta.Get("readTime"), model.DefaultReadTime),
		Extra:    map[string]string{},
	}
	for key, value := range meta {
		if !model.IsReserved(key) {
			s.Extra[key] = value
		}
	}
	return s
}

// Write serialises records to path, replacing any previous file in one step.
func Write(path string, records []model.Summary) error {
	if records == nil {
		records = []model.Summary{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrBuildIO, filepath.Dir(path), err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrBuildIO, path, err)
	}
	// atomic.WriteFile leaves new files with the temp file's 0600 mode.
	if err := os.Chmod(path, 0o644); err != nil {
		return fmt.Errorf("%w: chmod %s: %v", ErrBuildIO, path, err)
	}
	return nil
}

// Run builds the index and writes it to out.
func (b *Builder) Run(out string) ([]model.Summary, error) {
	records, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := Write(out, records); err != nil {
		return nil, err
	}
	b.logger.Info("Index written", zap.String("path", out), zap.Int("posts", len(records)))
	return records, nil
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
