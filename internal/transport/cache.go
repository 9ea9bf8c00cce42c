package transport

import (
	"context"
	"errors"

	"inkpress/internal/model"
	"inkpress/internal/store"

	"go.uber.org/zap"
)

// CachedFetcher serves documents from a store and fills it on miss. Store
// failures are logged and never fail a fetch.
type CachedFetcher struct {
	next   Fetcher
	store  store.Store
	logger *zap.Logger
}

// Cached wraps next with st.
func Cached(next Fetcher, st store.Store, logger *zap.Logger) *CachedFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedFetcher{next: next, store: st, logger: logger}
}

func (c *CachedFetcher) Fetch(ctx context.Context, path string) (string, error) {
	logger := c.logger.With(zap.String("path", path))

	doc, err := c.store.Get(ctx, path)
	switch {
	case err == nil:
		logger.Debug("Cache hit")
		return doc.Body, nil
	case !errors.Is(err, store.ErrNotFound):
		logger.Warn("Cache read failed", zap.Error(err))
	}

	body, err := c.next.Fetch(ctx, path)
	if err != nil {
		return "", err
	}

	fresh := model.NewCachedDocument(path, body)
	if err := c.store.Save(ctx, &fresh); err != nil {
		logger.Warn("Cache write failed", zap.Error(err))
	}
	return body, nil
}

// Purge empties the underlying store.
func (c *CachedFetcher) Purge(ctx context.Context) error {
	return c.store.Purge(ctx)
}
