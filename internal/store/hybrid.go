package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"inkpress/internal/model"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
)

const (
	metaPrefix = "doc:"
	keySet     = "set:docs"

	// GCInterval is how often an on-disk body store reclaims value log space.
	GCInterval = 5 * time.Minute
	gcRatio    = 0.7
)

// HybridStore combines Redis (metadata, expiry) and Badger (document bodies).
// An entry is live only while its Redis metadata has not expired.
type HybridStore struct {
	rdb  *redis.Client
	db   *badger.DB
	ttl  time.Duration
	stop chan struct{}
	gc   sync.WaitGroup
	once sync.Once
}

// NewHybridStore connects to Redis and opens Badger.
// Pass badgerPath="" to keep bodies in memory.
func NewHybridStore(redisAddr string, badgerPath string, ttl time.Duration) (*HybridStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	opts := badger.DefaultOptions(badgerPath)
	if badgerPath == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Silence default logger
	db, err := badger.Open(opts)
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	s := &HybridStore{rdb: rdb, db: db, ttl: ttl, stop: make(chan struct{})}
	if badgerPath != "" {
		s.gc.Add(1)
		go s.gcLoop(s.stop, GCInterval)
	}
	return s, nil
}

func (s *HybridStore) gcLoop(stop <-chan struct{}, interval time.Duration) {
	defer s.gc.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.RunGC()
		}
	}
}

// RunGC reclaims value log space until Badger reports nothing to rewrite.
func (s *HybridStore) RunGC() {
	for s.db.RunValueLogGC(gcRatio) == nil {
	}
}

// Close stops the GC loop and cleans up connections. It is safe to call
// more than once.
func (s *HybridStore) Close() {
	s.once.Do(func() {
		if s.stop != nil {
			close(s.stop)
		}
		s.gc.Wait()
		if s.rdb != nil {
			s.rdb.Close()
		}
		if s.db != nil {
			s.db.Close()
		}
	})
}

// Save splits the document: metadata to Redis, body to Badger.
func (s *HybridStore) Save(ctx context.Context, doc *model.CachedDocument) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(doc.Key), []byte(doc.Body))
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("save body %s: %w", doc.Key, err)
	}

	meta := *doc
	meta.Body = ""
	meta.Size = len(doc.Body)

	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, metaPrefix+doc.Key, data, s.ttl)
	pipe.SAdd(ctx, keySet, doc.Key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save metadata %s: %w", doc.Key, err)
	}
	return nil
}

// Get joins metadata from Redis with the body from Badger.
func (s *HybridStore) Get(ctx context.Context, key string) (*model.CachedDocument, error) {
	val, err := s.rdb.Get(ctx, metaPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	var doc model.CachedDocument
	if err := json.Unmarshal(val, &doc); err != nil {
		return nil, err
	}

	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			doc.Body = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	return &doc, nil
}

// Purge drops every cached document.
func (s *HybridStore) Purge(ctx context.Context) error {
	keys, err := s.rdb.SMembers(ctx, keySet).Result()
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	for _, k := range keys {
		pipe.Del(ctx, metaPrefix+k)
	}
	pipe.Del(ctx, keySet)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	return s.db.DropAll()
}
