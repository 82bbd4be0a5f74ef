package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/arthur-debert/configsync/pkg/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultDebounce is the quiet period used when Options leave it unset
const DefaultDebounce = 2 * time.Second

// Options configure a Watcher
type Options struct {
	// Debounce is how long the tree must stay quiet before a batch is emitted
	Debounce time.Duration
	// Ignore lists directory names whose subtrees are never watched
	Ignore []string
}

// Batch is one coalesced set of changes
type Batch struct {
	// ID correlates log lines of one sync cycle
	ID string
	// Paths are the distinct absolute paths that changed, sorted
	Paths []string
}

// BatchFunc handles one batch. A returned error is logged and the loop continues.
type BatchFunc func(ctx context.Context, batch Batch) error

// Watcher watches a directory tree
type Watcher struct {
	root     string
	debounce time.Duration
	ignore   map[string]struct{}
	fsw      *fsnotify.Watcher
	logger   zerolog.Logger
}

// New creates a Watcher for root and registers every directory below it
func New(root string, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to create filesystem watcher")
	}

	w := &Watcher{
		root:     filepath.Clean(root),
		debounce: opts.Debounce,
		ignore:   make(map[string]struct{}, len(opts.Ignore)),
		fsw:      fsw,
		logger:   logging.GetLogger("watch"),
	}
	for _, name := range opts.Ignore {
		w.ignore[name] = struct{}{}
	}

	if err := w.addTree(w.root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run delivers batches to fn until ctx is cancelled, then closes the watcher
func (w *Watcher) Run(ctx context.Context, fn BatchFunc) error {
	defer func() { _ = w.fsw.Close() }()

	w.logger.Info().Str("root", w.root).Dur("debounce", w.debounce).Msg("Watching for changes")

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Watcher stopped")
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.ignored(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				w.watchIfDir(event.Name)
			}
			w.logger.Trace().Str("path", event.Name).Stringer("op", event.Op).Msg("Event")
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("Watcher error")

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := newBatch(pending)
			pending = make(map[string]struct{})
			w.dispatch(ctx, fn, batch)
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, fn BatchFunc, batch Batch) {
	logger := w.logger.With().Str("batch", batch.ID).Logger()
	logger.Info().Int("paths", len(batch.Paths)).Msg("Changes detected")

	if err := fn(ctx, batch); err != nil {
		logger.Warn().Err(err).Msg("Sync failed, will retry on next change")
		return
	}
	logger.Debug().Msg("Batch handled")
}

func newBatch(pending map[string]struct{}) Batch {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return Batch{ID: uuid.NewString(), Paths: paths}
}

// ignored reports whether path lies in an ignored subtree of the root
func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	for dir := rel; dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		if _, ok := w.ignore[filepath.Base(dir)]; ok {
			return true
		}
	}
	return false
}

func (w *Watcher) watchIfDir(path string) {
	info, err := os.Lstat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addTree(path); err != nil {
		w.logger.Warn().Err(err).Str("path", path).Msg("Failed to watch new directory")
	}
}

// addTree registers dir and every non-ignored directory below it
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path != dir && os.IsNotExist(err) {
				return nil
			}
			return errors.Wrapf(err, errors.ErrFileAccess, "failed to walk %s", path)
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root {
			if _, skip := w.ignore[d.Name()]; skip {
				return filepath.SkipDir
			}
		}
		if err := w.fsw.Add(path); err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "failed to watch %s", path)
		}
		w.logger.Trace().Str("path", path).Msg("Watching directory")
		return nil
	})
}
