// Package server exposes documents, the summary collection and rendered
// pages over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"inkpress/internal/async"
	"inkpress/internal/index"
	"inkpress/internal/loader"
	"inkpress/internal/model"
	"inkpress/internal/render"
	"inkpress/internal/transport"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Options configures a Server.
type Options struct {
	// ContentDir holds the raw documents served under Root.
	ContentDir string
	Extension  string
	// Root is the URL path prefix of raw documents, e.g. "/blog".
	Root string
}

type Server struct {
	opts   Options
	index  atomic.Pointer[index.Index]
	loader *loader.Loader
	logger *zap.Logger
	router *mux.Router
	server *http.Server
}

// NewServer serves idx. Pages are loaded through fetcher, which usually
// points back at this server's own Root.
func NewServer(opts Options, idx *index.Index, fetcher transport.Fetcher, renderer render.Renderer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Root = "/" + strings.Trim(opts.Root, "/")
	s := &Server{
		opts:   opts,
		logger: logger,
		router: mux.NewRouter(),
	}
	if idx == nil {
		idx = index.New(nil)
	}
	s.index.Store(idx)
	s.loader = loader.New(loader.LookupFunc(s.lookup), fetcher, renderer, opts.Root, opts.Extension, logger)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc(s.opts.Root+"/{file}", s.handleRaw).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/posts", s.handleList).Methods("GET")
	api.HandleFunc("/posts/{slug}", s.handlePost).Methods("GET")
	api.HandleFunc("/categories", s.handleCategories).Methods("GET")

	s.router.HandleFunc("/", s.handleHome).Methods("GET")
	s.router.HandleFunc("/posts/{slug}", s.handlePage).Methods("GET")
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Index returns the current snapshot.
func (s *Server) Index() *index.Index {
	return s.index.Load()
}

// Reload swaps in a new snapshot. Requests already running keep the one they
// started with.
func (s *Server) Reload(idx *index.Index) {
	s.index.Store(idx)
	s.logger.Info("Index reloaded", zap.Int("posts", idx.Len()))
}

// Start launches the HTTP server
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info("Web server listening", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) lookup(slug string) (model.Summary, bool) {
	return s.index.Load().Lookup(slug)
}

func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["file"]
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, s.opts.Extension) {
		writeError(w, http.StatusNotFound, "Blog post not found")
		return
	}

	raw, err := os.ReadFile(filepath.Join(s.opts.ContentDir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "Blog post not found")
			return
		}
		s.logger.Error("Failed to read document", zap.String("file", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to read blog post")
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write(raw)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records := Filter(s.index.Load().All(), Query{
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
		Featured: q.Get("featured") == "true",
		SortDate: q.Get("sort") == "date",
	})
	if records == nil {
		records = []model.Summary{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := s.index.Load().Categories()
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, http.StatusOK, cats)
}

type postResponse struct {
	Post      model.Summary   `json:"post"`
	Nodes     render.NodeList `json:"nodes"`
	WordCount int             `json:"wordCount"`
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	state := s.load(r.Context(), mux.Vars(r)["slug"])
	if state.Status != async.StatusSuccess {
		writeError(w, errorStatus(state.Err), state.Message)
		return
	}
	page := state.Data
	writeJSON(w, http.StatusOK, postResponse{Post: page.Summary, Nodes: page.Nodes, WordCount: page.WordCount})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	state := s.load(r.Context(), mux.Vars(r)["slug"])
	if state.Status != async.StatusSuccess {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(errorStatus(state.Err))
		s.execute(w, "error", map[string]interface{}{"Message": state.Message})
		return
	}

	page := state.Data
	data := map[string]interface{}{
		"Title":    page.Summary.Title,
		"Date":     page.Summary.Date,
		"Category": page.Summary.Category,
		"ReadTime": page.Summary.ReadTime,
		"Content":  template.HTML(page.HTML()),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.execute(w, "page", data)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Posts": index.SortByDate(s.index.Load().All()),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.execute(w, "home", data)
}

// load runs one page load through an async operation and returns its
// terminal state.
func (s *Server) load(ctx context.Context, slug string) async.State[string, *loader.Page] {
	logger := s.logger.With(zap.String("slug", slug))
	op := async.New(s.loader.Load, async.WithObserver(func(st async.State[string, *loader.Page]) {
		logger.Debug("Load state", zap.Stringer("status", st.Status))
	}))
	op.Execute(ctx, slug)
	return op.State()
}

func (s *Server) execute(w http.ResponseWriter, name string, data interface{}) {
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("Template error", zap.String("template", name), zap.Error(err))
	}
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, loader.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, loader.ErrFetchFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError replies with the payload shape transport.Error decodes.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, transport.Payload{Detail: msg})
}
