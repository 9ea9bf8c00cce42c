// Package watch reruns a callback when documents in a directory change.
package watch

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period before a change is acted upon.
const DefaultDebounce = 500 * time.Millisecond

// Watcher calls OnChange once a burst of changes to matching files settles.
type Watcher struct {
	Dir      string
	Ext      string
	Debounce time.Duration
	OnChange func()
	logger   *zap.Logger
}

func New(dir, ext string, onChange func(), logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		Dir:      dir,
		Ext:      ext,
		Debounce: DefaultDebounce,
		OnChange: onChange,
		logger:   logger,
	}
}

// Run watches until ctx is done. ready, when not nil, is closed once the
// directory is being watched.
func (w *Watcher) Run(ctx context.Context, ready chan<- struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.Dir); err != nil {
		return err
	}
	w.logger.Info("Watching for changes", zap.String("dir", w.Dir), zap.String("ext", w.Ext))
	if ready != nil {
		close(ready)
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Change detected", zap.String("file", event.Name), zap.String("op", event.Op.String()))

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.Debounce, func() {
				if ctx.Err() == nil {
					w.OnChange()
				}
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	return len(name) > len(w.Ext) && strings.HasSuffix(name, w.Ext)
}
