package store

import (
	"context"
	"errors"

	"inkpress/internal/model"
)

var (
	ErrNotFound = errors.New("document not cached")
)

// Store caches raw documents keyed by their retrieval path.
type Store interface {
	Save(ctx context.Context, doc *model.CachedDocument) error
	Get(ctx context.Context, key string) (*model.CachedDocument, error)
	Purge(ctx context.Context) error
}
