package accessor

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/e3wm/e3wm-api/internal/metrics"
	"github.com/e3wm/e3wm-api/internal/settings"
	"github.com/e3wm/e3wm-api/internal/source"
)

// Accessor answers read-only queries against one loaded configuration.
// Resolution and loading happen once, in New or Open; the result never
// changes afterwards, so an Accessor is safe for concurrent readers.
type Accessor struct {
	loc      source.Location
	cfg      *settings.Configuration
	err      error
	loadedAt time.Time

	logger *zap.Logger
	clock  func() time.Time
}

// Option configures Accessor construction.
type Option func(*Accessor)

// WithLogger sets the logger used for resolution and lookup diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Accessor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(a *Accessor) {
		a.clock = clock
	}
}

func newAccessor(opts []Option) *Accessor {
	a := &Accessor{
		logger: zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.loadedAt = a.clock()
	return a
}

// New resolves src and loads the selected configuration. It never fails: a
// resolution or load error is kept and returned by the unguarded getters.
func New(src source.Source, opts ...Option) *Accessor {
	a := newAccessor(opts)

	loc, err := src.Resolve()
	a.loc = loc
	if err == nil {
		a.cfg, err = settings.Load(loc)
	}
	a.finish(err)
	return a
}

// Open loads the configuration found in dir, bypassing the user/system
// resolution policy.
func Open(dir string, opts ...Option) *Accessor {
	a := newAccessor(opts)

	file, format, ok := source.FindConfig(dir)
	a.loc = source.Location{Dir: dir, File: file, Format: format}
	var err error
	if !ok {
		err = fmt.Errorf("%w: no config file in %s", source.ErrConfigurationNotFound, dir)
	} else {
		a.cfg, err = settings.Load(a.loc)
	}
	a.finish(err)
	return a
}

func (a *Accessor) finish(err error) {
	a.err = err
	metrics.IncConfigLoad(a.loc.Origin.String(), err == nil)

	if err != nil {
		a.logger.Warn("configuration unavailable",
			zap.String("dir", a.loc.Dir),
			zap.String("origin", a.loc.Origin.String()),
			zap.Error(err),
		)
		return
	}
	a.logger.Info("configuration loaded",
		zap.String("dir", a.loc.Dir),
		zap.String("file", a.loc.File),
		zap.String("format", string(a.loc.Format)),
		zap.String("origin", a.loc.Origin.String()),
	)
}

// Location returns the selected directory and file. The directory is set even
// when loading failed.
func (a *Accessor) Location() source.Location {
	return a.loc
}

// LoadedAt returns when the accessor was constructed.
func (a *Accessor) LoadedAt() time.Time {
	return a.loadedAt
}

// Err returns the resolution or load error, if any.
func (a *Accessor) Err() error {
	return a.err
}

// Configuration returns the loaded configuration.
func (a *Accessor) Configuration() (*settings.Configuration, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.cfg, nil
}

// Workspaces returns the configured workspaces verbatim.
func (a *Accessor) Workspaces() ([]any, error) {
	cfg, err := a.Configuration()
	if err != nil {
		return nil, err
	}
	return cfg.Workspaces()
}

// Layouts returns the configured layouts verbatim.
func (a *Accessor) Layouts() ([]any, error) {
	cfg, err := a.Configuration()
	if err != nil {
		return nil, err
	}
	return cfg.Layouts()
}

// Dynamic returns the dynamic-behaviour settings verbatim.
func (a *Accessor) Dynamic() (map[string]any, error) {
	cfg, err := a.Configuration()
	if err != nil {
		return nil, err
	}
	return cfg.Dynamic()
}

// Keybinding returns the binding at index. Unlike the other getters it never
// reports an error: a missing configuration, an undefined or malformed
// bindings collection, and an out-of-range index all yield (Binding{}, false).
func (a *Accessor) Keybinding(index int) (settings.Binding, bool) {
	b, err := a.lookupKeybinding(index)
	metrics.IncKeybindingLookup(err == nil)
	if err != nil {
		if !errors.Is(err, settings.ErrIndexOutOfRange) {
			a.logger.Debug("keybinding lookup failed", zap.Int("index", index), zap.Error(err))
		}
		return settings.Binding{}, false
	}
	return b, true
}

// Keybindings returns the bindings at indexes 0, 1, 2, ... up to the first
// index with no binding.
func (a *Accessor) Keybindings() []settings.Binding {
	var out []settings.Binding
	for i := 0; ; i++ {
		b, ok := a.Keybinding(i)
		if !ok {
			return out
		}
		out = append(out, b)
	}
}

func (a *Accessor) lookupKeybinding(index int) (b settings.Binding, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("keybinding lookup panicked: %v", r)
		}
	}()
	cfg, err := a.Configuration()
	if err != nil {
		return settings.Binding{}, err
	}
	return cfg.Binding(index)
}
