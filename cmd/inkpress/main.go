package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"
	"time"

	"inkpress/internal/config"
	"inkpress/internal/importer"
	"inkpress/internal/index"
	"inkpress/internal/loader"
	"inkpress/internal/render"
	"inkpress/internal/server"
	"inkpress/internal/store"
	"inkpress/internal/transport"
	"inkpress/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logger  *zap.Logger
	cfgPath string

	contentDir string
	extension  string
	indexPath  string
	policy     string
	addr       string
	baseURL    string
	useCache   bool
	redisAddr  string
	badgerPath string

	watchFlag    bool
	renderFormat string
)

var rootCmd = &cobra.Command{
	Use:   "inkpress",
	Short: "inkpress - flat-file blog pipeline",
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the summary collection from the content directory",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)

		if _, err := builder(cfg).Run(cfg.Content.Index); err != nil {
			logger.Fatal("Index build failed", zap.Error(err))
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve documents, the summary API and rendered pages",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Setup Signal Handling (Ctrl+C)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			logger.Info("Shutting down...")
			cancel()
		}()

		b := builder(cfg)
		records, err := b.Run(cfg.Content.Index)
		if err != nil {
			logger.Fatal("Index build failed", zap.Error(err))
		}

		client, err := transport.New(cfg.FetchBase(),
			transport.WithTimeout(cfg.Timeout),
			transport.WithMiddleware(transport.Logging(logger)),
		)
		if err != nil {
			logger.Fatal("Invalid base URL", zap.Error(err))
		}

		var (
			fetcher transport.Fetcher = client
			cached  *transport.CachedFetcher
		)
		if cfg.Cache.Enabled {
			st, err := store.NewHybridStore(cfg.Cache.RedisAddr, cfg.Cache.BadgerPath, cfg.Cache.TTL)
			if err != nil {
				logger.Fatal("Failed to init store", zap.Error(err))
			}
			defer st.Close()
			cached = transport.Cached(client, st, logger)
			fetcher = cached
		}

		renderer, err := render.New(cfg.Policy())
		if err != nil {
			logger.Fatal("Invalid renderer", zap.Error(err))
		}

		srv := server.NewServer(server.Options{
			ContentDir: cfg.Content.Dir,
			Extension:  cfg.Content.Extension,
			Root:       cfg.Server.Root,
		}, index.New(records), fetcher, renderer, logger)

		if watchFlag {
			rebuild := func() {
				records, err := b.Run(cfg.Content.Index)
				if err != nil {
					logger.Error("Rebuild failed", zap.Error(err))
					return
				}
				srv.Reload(index.New(records))
				if cached != nil {
					if err := cached.Purge(ctx); err != nil {
						logger.Warn("Cache purge failed", zap.Error(err))
					}
				}
			}
			w := watch.New(cfg.Content.Dir, cfg.Content.Extension, rebuild, logger)
			go func() {
				if err := w.Run(ctx, nil); err != nil {
					logger.Error("Watcher stopped", zap.Error(err))
				}
			}()
		}

		go func() {
			if err := srv.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Web server failed", zap.Error(err))
				cancel()
			}
		}()

		// Block until shutdown
		<-ctx.Done()

		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Warn("Shutdown incomplete", zap.Error(err))
		}
		logger.Info("Goodbye!")
	},
}

var renderCmd = &cobra.Command{
	Use:   "render [slug]",
	Short: "Render one indexed post from the content directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)

		idx, err := index.Load(cfg.Content.Index)
		if err != nil {
			logger.Fatal("Failed to load index", zap.Error(err), zap.String("hint", "run `inkpress index` first"))
		}
		renderer, err := render.New(cfg.Policy())
		if err != nil {
			logger.Fatal("Invalid renderer", zap.Error(err))
		}

		l := loader.New(idx, localFetcher(cfg.Content.Dir), renderer, cfg.Server.Root, cfg.Content.Extension, logger)
		page, err := l.Load(cmd.Context(), args[0])
		if err != nil {
			logger.Fatal("Render failed", zap.Error(err))
		}

		switch renderFormat {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			enc.Encode(page.Nodes)
		case "text":
			fmt.Println(render.Text(page.Nodes))
		default:
			fmt.Print(page.HTML())
		}
	},
}

var importCmd = &cobra.Command{
	Use:   "import [url]",
	Short: "Import an article into the content directory and reindex",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)

		im := importer.New(cfg.Content.Dir, cfg.Content.Extension, logger)
		res, err := im.Import(cmd.Context(), args[0])
		if err != nil {
			logger.Fatal("Import failed", zap.Error(err))
		}

		if _, err := builder(cfg).Run(cfg.Content.Index); err != nil {
			logger.Fatal("Index build failed", zap.Error(err))
		}
		logger.Info("Post imported", zap.String("slug", res.Slug), zap.String("path", res.Path))
	},
}

// loadConfig reads the config file and applies explicitly set flags.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	flags := cmd.Flags()
	set := func(name string, dst *string, value string) {
		if flags.Changed(name) {
			*dst = value
		}
	}
	set("content", &cfg.Content.Dir, contentDir)
	set("ext", &cfg.Content.Extension, extension)
	set("index", &cfg.Content.Index, indexPath)
	set("renderer", &cfg.Renderer, policy)
	set("addr", &cfg.Server.Addr, addr)
	set("base-url", &cfg.Server.BaseURL, baseURL)
	set("redis", &cfg.Cache.RedisAddr, redisAddr)
	set("badger", &cfg.Cache.BadgerPath, badgerPath)
	if flags.Changed("cache") {
		cfg.Cache.Enabled = useCache
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid config", zap.Error(err))
	}
	return cfg
}

func builder(cfg *config.Config) *index.Builder {
	return index.NewBuilder(cfg.Content.Dir, cfg.Content.Extension, logger)
}

// localFetcher reads documents straight from dir, keyed by file name.
func localFetcher(dir string) transport.Fetcher {
	return transport.FetcherFunc(func(ctx context.Context, p string) (string, error) {
		raw, err := os.ReadFile(filepath.Join(dir, path.Base(p)))
		if err != nil {
			return "", &transport.Error{Method: "READ", URL: p, Message: err.Error(), Err: err}
		}
		return string(raw), nil
	})
}

func main() {
	var err error
	logger, err = zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "Path to config file (default "+config.DefaultFile+" if present)")
	pf.StringVar(&contentDir, "content", "", "Directory holding the source documents")
	pf.StringVar(&extension, "ext", "", "Document file extension")
	pf.StringVar(&indexPath, "index", "", "Path of the generated summary collection")
	pf.StringVar(&policy, "renderer", "", "Body render policy: structural or legacy")

	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address")
	serveCmd.Flags().StringVar(&baseURL, "base-url", "", "Origin documents are fetched from")
	serveCmd.Flags().BoolVar(&useCache, "cache", false, "Cache fetched documents in Redis and BadgerDB")
	serveCmd.Flags().StringVar(&redisAddr, "redis", "", "Address of Redis server")
	serveCmd.Flags().StringVar(&badgerPath, "badger", "", "Path to BadgerDB data directory")
	serveCmd.Flags().BoolVar(&watchFlag, "watch", false, "Rebuild and reload the index when documents change")

	renderCmd.Flags().StringVar(&renderFormat, "format", "html", "Output format: html, json or text")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(importCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
