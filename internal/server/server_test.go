package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"inkpress/internal/index"
	"inkpress/internal/model"
	"inkpress/internal/render"
	"inkpress/internal/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var docs = map[string]string{
	"hello.md": "---\ntitle: \"Hello\"\ncategory: News\ndate: 2024-01-02\nfeatured: true\n---\n## Title\n\nSome *text*.\n\n- a\n- b",
	"other.md": "---\ntitle: Other\ncategory: Tech\ndate: 2024-05-01\ntags: [go, web]\n---\nPlain <b>body</b>.",
	"notes.txt": "not a post",
}

type testEnv struct {
	srv *Server
	ts  *httptest.Server
	dir string
}

// newTestEnv serves docs and points the page loader back at the same server.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	for name, content := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	var h http.Handler
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	client, err := transport.New(ts.URL)
	require.NoError(t, err)

	srv := NewServer(Options{ContentDir: dir, Extension: ".md", Root: "/blog"}, buildIndex(t, dir), client, render.NewStructural(), zap.NewNop())
	h = srv.Handler()

	return &testEnv{srv: srv, ts: ts, dir: dir}
}

func buildIndex(t *testing.T, dir string) *index.Index {
	t.Helper()
	records, err := index.NewBuilder(dir, ".md", zap.NewNop()).Build()
	require.NoError(t, err)
	return index.New(records)
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func decodeDetail(t *testing.T, body string) string {
	t.Helper()
	var p transport.Payload
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	return p.Detail
}

func TestServer_Raw(t *testing.T) {
	env := newTestEnv(t)

	status, body := get(t, env.ts.URL+"/blog/hello.md")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, docs["hello.md"], body)

	status, body = get(t, env.ts.URL+"/blog/missing.md")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Blog post not found", decodeDetail(t, body))

	status, _ = get(t, env.ts.URL+"/blog/notes.txt")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_List(t *testing.T) {
	env := newTestEnv(t)

	list := func(query string) []string {
		status, body := get(t, env.ts.URL+"/api/posts"+query)
		require.Equal(t, http.StatusOK, status)
		var records []model.Summary
		require.NoError(t, json.Unmarshal([]byte(body), &records))
		slugs := []string{}
		for _, r := range records {
			slugs = append(slugs, r.Slug)
		}
		return slugs
	}

	assert.Equal(t, []string{"hello", "other"}, list(""))
	assert.Equal(t, []string{"other", "hello"}, list("?sort=date"))
	assert.Equal(t, []string{"hello"}, list("?category=news"))
	assert.Equal(t, []string{"hello"}, list("?featured=true"))
	assert.Equal(t, []string{"other"}, list("?tag=Go"))
	assert.Equal(t, []string{}, list("?category=none"))
}

func TestServer_Categories(t *testing.T) {
	env := newTestEnv(t)

	status, body := get(t, env.ts.URL+"/api/categories")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `["News","Tech"]`, body)
}

func TestServer_PostJSON(t *testing.T) {
	env := newTestEnv(t)

	status, body := get(t, env.ts.URL+"/api/posts/hello")
	require.Equal(t, http.StatusOK, status)

	var resp struct {
		Post      model.Summary   `json:"post"`
		Nodes     render.NodeList `json:"nodes"`
		WordCount int             `json:"wordCount"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "Hello", resp.Post.Title)
	require.Len(t, resp.Nodes, 3)
	assert.Equal(t, render.KindHeading, resp.Nodes[0].Kind)
	assert.Equal(t, 5, resp.WordCount)

	status, body = get(t, env.ts.URL+"/api/posts/unknown")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "post not found", decodeDetail(t, body))
}

func TestServer_Page(t *testing.T) {
	env := newTestEnv(t)

	status, body := get(t, env.ts.URL+"/posts/hello")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<h1>Hello</h1>")
	assert.Contains(t, body, "<h2>Title</h2>")
	assert.Contains(t, body, "<em>text</em>")
	assert.NotContains(t, body, "category: News", "metadata block is stripped")

	_, body = get(t, env.ts.URL+"/posts/other")
	assert.Contains(t, body, "Plain &lt;b&gt;body&lt;/b&gt;.")

	status, body = get(t, env.ts.URL+"/posts/unknown")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "post not found")
}

// A slug present in the index whose document is gone surfaces as a fetch
// failure carrying the remote detail.
func TestServer_PageFetchFailure(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.Remove(filepath.Join(env.dir, "other.md")))

	status, body := get(t, env.ts.URL+"/posts/other")
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, body, "Blog post not found")

	status, body = get(t, env.ts.URL+"/api/posts/other")
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "Blog post not found", decodeDetail(t, body))
}

func TestServer_Home(t *testing.T) {
	env := newTestEnv(t)

	status, body := get(t, env.ts.URL+"/")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `<a href="/posts/other">Other</a>`)
	assert.Less(t, strings.Index(body, "/posts/other"), strings.Index(body, "/posts/hello"), "newest first")
}

func TestServer_Reload(t *testing.T) {
	env := newTestEnv(t)

	status, _ := get(t, env.ts.URL+"/posts/late")
	assert.Equal(t, http.StatusNotFound, status)

	require.NoError(t, os.WriteFile(filepath.Join(env.dir, "late.md"), []byte("---\ntitle: Late\n---\nArrived."), 0o644))
	env.srv.Reload(buildIndex(t, env.dir))

	status, body := get(t, env.ts.URL+"/posts/late")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Arrived.")
	assert.Equal(t, 3, env.srv.Index().Len())
}

func TestFilter_KeepsInputWhenNoQuery(t *testing.T) {
	records := []model.Summary{{Slug: "b", Date: "2020-01-01"}, {Slug: "a", Date: "2024-01-01"}}

	assert.Equal(t, records, Filter(records, Query{}))
	assert.Equal(t, "a", Filter(records, Query{SortDate: true})[0].Slug)
}

func TestNewServer_NilLogger(t *testing.T) {
	fetcher := transport.FetcherFunc(func(ctx context.Context, p string) (string, error) {
		return "Body.", nil
	})
	idx := index.New([]model.Summary{{ID: "a", Slug: "a", Title: "A"}})
	srv := NewServer(Options{Extension: ".md", Root: "/blog"}, idx, fetcher, render.NewStructural(), nil)

	srv.Reload(idx)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/a", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<p>Body.</p>")
}
