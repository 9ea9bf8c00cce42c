package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"inkpress/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*HybridStore, *miniredis.Miniredis, *badger.DB) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)

	// Fields are set directly to share the in-memory Badger with assertions.
	st := &HybridStore{
		rdb: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		db:  db,
		ttl: ttl,
	}
	t.Cleanup(st.Close)

	return st, mr, db
}

func TestHybridStore_Save_And_Get(t *testing.T) {
	st, mr, db := newTestStore(t, time.Minute)
	ctx := context.Background()

	doc := model.NewCachedDocument("/blog/hello.md", "---\ntitle: Hello\n---\nBody")
	require.NoError(t, st.Save(ctx, &doc))

	// Redis holds metadata only
	val, err := mr.Get("doc:/blog/hello.md")
	require.NoError(t, err)
	var meta model.CachedDocument
	require.NoError(t, json.Unmarshal([]byte(val), &meta))
	assert.Empty(t, meta.Body, "Redis should NOT store the body")
	assert.Equal(t, len(doc.Body), meta.Size)
	assert.True(t, mr.TTL("doc:/blog/hello.md") > 0)

	members, err := mr.Members("set:docs")
	require.NoError(t, err)
	assert.Equal(t, []string{"/blog/hello.md"}, members)

	// Badger holds the body
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("/blog/hello.md"))
		if err != nil {
			return err
		}
		body, _ := item.ValueCopy(nil)
		assert.Equal(t, doc.Body, string(body))
		return nil
	})
	require.NoError(t, err)

	got, err := st.Get(ctx, "/blog/hello.md")
	require.NoError(t, err)
	assert.Equal(t, doc.Body, got.Body)
	assert.Equal(t, doc.Key, got.Key)
}

func TestHybridStore_Get_Missing(t *testing.T) {
	st, _, _ := newTestStore(t, time.Minute)

	_, err := st.Get(context.Background(), "/blog/none.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHybridStore_ExpiredMetadataIsMiss(t *testing.T) {
	st, mr, _ := newTestStore(t, time.Minute)
	ctx := context.Background()

	doc := model.NewCachedDocument("/blog/a.md", "body")
	require.NoError(t, st.Save(ctx, &doc))

	mr.FastForward(2 * time.Minute)

	_, err := st.Get(ctx, "/blog/a.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHybridStore_Purge(t *testing.T) {
	st, mr, _ := newTestStore(t, 0)
	ctx := context.Background()

	for _, key := range []string{"/blog/a.md", "/blog/b.md"} {
		doc := model.NewCachedDocument(key, "body "+key)
		require.NoError(t, st.Save(ctx, &doc))
	}

	require.NoError(t, st.Purge(ctx))

	assert.False(t, mr.Exists("doc:/blog/a.md"))
	assert.False(t, mr.Exists("set:docs"))
	_, err := st.Get(ctx, "/blog/b.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewHybridStore_InMemoryBadger(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	st, err := NewHybridStore(mr.Addr(), "", time.Minute)
	require.NoError(t, err)
	defer st.Close()

	doc := model.NewCachedDocument("/blog/x.md", "x")
	require.NoError(t, st.Save(context.Background(), &doc))

	got, err := st.Get(context.Background(), "/blog/x.md")
	require.NoError(t, err)
	assert.Equal(t, "x", got.Body)
}

func TestNewHybridStore_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = NewHybridStore(addr, "", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestHybridStore_OnDiskGC(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	st, err := NewHybridStore(mr.Addr(), t.TempDir(), time.Minute)
	require.NoError(t, err)
	defer st.Close()

	doc := model.NewCachedDocument("/blog/gc.md", "body")
	require.NoError(t, st.Save(context.Background(), &doc))

	st.RunGC()

	got, err := st.Get(context.Background(), "/blog/gc.md")
	require.NoError(t, err)
	assert.Equal(t, "body", got.Body)
}

// Close must stop the background GC loop before the DB goes away, and a
// second Close is a no-op.
func TestHybridStore_CloseWhileGCLoopRuns(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	st, err := NewHybridStore(mr.Addr(), t.TempDir(), time.Minute)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		st.Close()
		st.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
}

// A short interval exercises the ticker branch while Close races it.
func TestHybridStore_GCLoopStopsOnClose(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	st, err := NewHybridStore(mr.Addr(), "", time.Minute)
	require.NoError(t, err)

	st.gc.Add(1)
	go st.gcLoop(st.stop, time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	st.Close()
}
