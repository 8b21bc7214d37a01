package reload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/e3wm/e3wm-api/internal/accessor"
	"github.com/e3wm/e3wm-api/internal/metrics"
	"github.com/e3wm/e3wm-api/internal/source"
	"github.com/e3wm/e3wm-api/internal/storage"
)

const defaultDebounce = 500 * time.Millisecond

// ErrNothingToWatch is returned by Watch when it is given no directories.
var ErrNothingToWatch = errors.New("no configuration directory to watch")

// Loader builds a fresh accessor. It is called once per reload.
type Loader func() *accessor.Accessor

// Reloader replaces the stored accessor with a freshly loaded one, either on
// demand or when a watched configuration file changes. A reload that fails to
// load keeps the previous snapshot.
type Reloader struct {
	store    storage.Storage
	load     Loader
	logger   *zap.Logger
	debounce time.Duration

	mu   sync.Mutex
	done chan struct{}
}

// Option configures a Reloader.
type Option func(*Reloader)

// WithDebounce sets the quiet period after the last file event before a reload.
func WithDebounce(d time.Duration) Option {
	return func(r *Reloader) {
		if d > 0 {
			r.debounce = d
		}
	}
}

// New creates a Reloader over store.
func New(store storage.Storage, load Loader, logger *zap.Logger, opts ...Option) *Reloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reloader{
		store:    store,
		load:     load,
		logger:   logger,
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reload loads the configuration again and swaps it in when it loaded
// cleanly. On failure the current snapshot is returned with the load error.
func (r *Reloader) Reload(ctx context.Context) (storage.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return r.store.Current(), fmt.Errorf("reload canceled: %w", err)
	}

	next := r.load()
	if err := next.Err(); err != nil {
		metrics.IncReload(false)
		r.logger.Error("configuration reload failed, keeping previous snapshot", zap.Error(err))
		return r.store.Current(), fmt.Errorf("load config: %w", err)
	}

	snap, err := r.store.Swap(next)
	if err != nil {
		metrics.IncReload(false)
		return r.store.Current(), fmt.Errorf("swap snapshot: %w", err)
	}
	metrics.IncReload(true)
	r.logger.Info("configuration reloaded",
		zap.Uint64("generation", snap.Generation),
		zap.String("dir", next.Location().Dir),
	)
	return snap, nil
}

// Watch starts watching dirs for changes to configuration files. A directory
// that does not exist yet is covered through its nearest existing parent and
// picked up, with a reload, once it is created. The watcher stops when ctx is
// canceled; Done is closed once it has fully stopped.
func (r *Reloader) Watch(ctx context.Context, dirs ...string) error {
	if len(dirs) == 0 {
		return ErrNothingToWatch
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	ws := &watchSet{
		watcher: watcher,
		logger:  r.logger,
		targets: make(map[string]bool, len(dirs)),
		pending: make(map[string]bool),
		watched: make(map[string]bool),
	}
	for _, dir := range dirs {
		target := filepath.Clean(dir)
		ws.targets[target] = true
		if isDir(target) {
			err = ws.add(target)
		} else {
			ws.pending[target] = true
			r.logger.Debug("configuration directory missing, watching parent", zap.String("dir", target))
			err = ws.add(nearestExistingParent(target))
		}
		if err != nil {
			_ = watcher.Close()
			return err
		}
	}

	r.mu.Lock()
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	go r.watchLoop(ctx, ws, done)
	return nil
}

// Done returns a channel closed when the watch loop has exited. It is nil
// before Watch has been called.
func (r *Reloader) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *Reloader) watchLoop(ctx context.Context, ws *watchSet, done chan struct{}) {
	defer close(done)

	var (
		timerMu sync.Mutex
		timer   *time.Timer
		pending sync.WaitGroup
	)
	schedule := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil && timer.Stop() {
			pending.Done()
		}
		pending.Add(1)
		timer = time.AfterFunc(r.debounce, func() {
			defer pending.Done()
			_, _ = r.Reload(ctx)
		})
	}
	defer func() {
		timerMu.Lock()
		if timer != nil && timer.Stop() {
			pending.Done()
		}
		timerMu.Unlock()
		pending.Wait()
		_ = ws.watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("configuration watcher stopped")
			return

		case event, ok := <-ws.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) && ws.promote() {
				schedule()
				continue
			}
			if !ws.targets[filepath.Dir(event.Name)] {
				continue
			}
			if _, isConfig := source.FormatForFile(event.Name); !isConfig {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			r.logger.Debug("configuration file changed",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()),
			)
			schedule()

		case err, ok := <-ws.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Error("configuration watcher error", zap.Error(err))
		}
	}
}

// watchSet tracks the configuration directories being watched and the ones
// still waiting to be created. It is owned by the watch loop goroutine.
type watchSet struct {
	watcher *fsnotify.Watcher
	logger  *zap.Logger

	targets map[string]bool
	pending map[string]bool
	watched map[string]bool
}

func (ws *watchSet) add(dir string) error {
	if ws.watched[dir] {
		return nil
	}
	if err := ws.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	ws.watched[dir] = true
	ws.logger.Info("watching configuration directory", zap.String("dir", dir))
	return nil
}

// promote moves down towards every missing target, adding directories as
// they appear. It reports whether a target directory became available.
// Directories created before their parent was watched are found by
// re-checking after each add.
func (ws *watchSet) promote() bool {
	promoted := false
	for target := range ws.pending {
		for {
			if isDir(target) {
				if err := ws.add(target); err != nil {
					ws.logger.Error("configuration watcher error", zap.Error(err))
					break
				}
				delete(ws.pending, target)
				promoted = true
				break
			}
			parent := nearestExistingParent(target)
			if ws.watched[parent] {
				break
			}
			if err := ws.add(parent); err != nil {
				ws.logger.Error("configuration watcher error", zap.Error(err))
				break
			}
		}
	}
	return promoted
}

func nearestExistingParent(dir string) string {
	for {
		parent := filepath.Dir(dir)
		if parent == dir || isDir(parent) {
			return parent
		}
		dir = parent
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
