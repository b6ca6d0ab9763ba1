package gate

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/specgate/config"
)

// Watcher re-runs the analysis whenever a markdown or HTML artifact in the
// watched directory changes. Change bursts (editor save, git checkout) are
// debounced so a burst triggers one run.
type Watcher struct {
	cfg    *config.Config
	dir    string
	runner *Runner
	logger *slog.Logger

	fsw *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op // path → most recent operation
}

// NewWatcher creates a watcher over dir using the configured debounce.
func NewWatcher(cfg *config.Config, dir string, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		cfg:     cfg,
		dir:     dir,
		runner:  NewRunner(cfg, logger),
		logger:  logger,
		fsw:     fsw,
		pending: make(map[string]fsnotify.Op),
	}, nil
}

// Run performs an initial analysis, then blocks re-running on changes until
// ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.addWatches(w.dir); err != nil {
		return err
	}
	defer w.fsw.Close()

	w.logger.Info("Watching for artifact changes",
		slog.String("dir", w.dir),
		slog.Duration("debounce", w.cfg.Watch.Debounce))

	w.analyze(ctx)

	ticker := time.NewTicker(w.cfg.Watch.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// addWatches watches root and every non-hidden subdirectory, so artifacts
// resolved by **/ glob patterns retrigger the analysis too.
func (w *Watcher) addWatches(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(filepath.Base(path), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return nil
	})
}

// handleFSEvent accumulates a change to an artifact file. A newly created
// directory gets its own watch so artifacts added under it are seen.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	ext := strings.ToLower(filepath.Ext(event.Name))
	if ext != ".md" && ext != ".html" && ext != ".htm" {
		if event.Has(fsnotify.Create) && !strings.HasPrefix(filepath.Base(event.Name), ".") {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := w.addWatches(event.Name); err != nil {
					w.logger.Warn("Failed to watch new directory",
						slog.String("path", event.Name),
						slog.String("error", err.Error()))
				}
			}
		}
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Artifact change detected",
		slog.String("path", event.Name),
		slog.String("op", event.Op.String()))
}

// flushPending re-runs the analysis once if anything changed since the
// last tick.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	n := len(w.pending)
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	if n == 0 {
		return
	}

	w.logger.Info("Artifacts changed, re-analyzing", slog.Int("files", n))
	w.analyze(ctx)
}

// analyze runs the pipeline and logs the outcome. Parse failures keep the
// watcher alive; the next save gets another chance.
func (w *Watcher) analyze(ctx context.Context) {
	rep, err := w.runner.Run(ctx, w.dir)
	if err != nil {
		w.logger.Error("Analysis failed", slog.String("error", err.Error()))
		return
	}
	w.logger.Info("Verdict",
		slog.String("verdict", string(rep.Verdict)),
		slog.Int("issues", len(rep.Issues)),
		slog.Int("coverage", rep.Coverage.Percentage))
}
