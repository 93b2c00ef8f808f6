package jobs

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher notifies listeners when files in the jobs directory change. The
// listener decides what a reload means; the watcher only signals.
type Watcher struct {
	watcher    *fsnotify.Watcher
	jobsDir    string
	mu         sync.Mutex
	logger     *slog.Logger
	reloadChan chan struct{}
}

// StartWatcher initializes and starts a watcher on the jobs directory.
func StartWatcher(jobsDir string, logger *slog.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(jobsDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch jobs directory: %w", err)
	}

	w := &Watcher{
		watcher:    watcher,
		jobsDir:    jobsDir,
		logger:     logger,
		reloadChan: make(chan struct{}, 1),
	}

	go w.watch()
	return w, nil
}

// ReloadChan returns a channel that receives a notification when job
// definitions change on disk.
func (w *Watcher) ReloadChan() <-chan struct{} {
	return w.reloadChan
}

func (w *Watcher) watch() {
	// Sole sender, so listeners ranging over ReloadChan unblock on Stop.
	defer close(w.reloadChan)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Skip temporary files and anything that isn't a definition
			base := filepath.Base(event.Name)
			if strings.HasPrefix(base, ".") ||
				(!strings.HasSuffix(base, definitionSuffix) && base != defaultsFile) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				w.handleChange(event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleChange(path string) {
	w.logger.Info("detected job definition change", "path", path)

	select {
	case w.reloadChan <- struct{}{}:
	default:
		// Channel is full, a reload is already pending
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		if err := w.watcher.Close(); err != nil {
			return fmt.Errorf("failed to close watcher: %w", err)
		}
		w.watcher = nil
	}
	return nil
}
