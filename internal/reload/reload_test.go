package reload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/e3wm/e3wm-api/internal/accessor"
	"github.com/e3wm/e3wm-api/internal/source"
	"github.com/e3wm/e3wm-api/internal/storage"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func setup(t *testing.T, content string) (string, *storage.MemoryStorage, Loader) {
	t.Helper()
	dir := t.TempDir()
	writeConfig(t, dir, content)
	load := func() *accessor.Accessor {
		return accessor.Open(dir)
	}
	store, err := storage.NewMemoryStorage(load())
	if err != nil {
		t.Fatalf("NewMemoryStorage returned error: %v", err)
	}
	return dir, store, load
}

func TestReloadSwapsOnSuccess(t *testing.T) {
	dir, store, load := setup(t, "layouts: [tile]\n")
	r := New(store, load, zaptest.NewLogger(t))

	writeConfig(t, dir, "layouts: [max]\n")
	snap, err := r.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	if snap.Generation != 2 {
		t.Fatalf("expected generation 2, got %d", snap.Generation)
	}
	layouts, err := store.Current().Accessor.Layouts()
	if err != nil {
		t.Fatalf("Layouts returned error: %v", err)
	}
	if diff := cmp.Diff([]any{"max"}, layouts); diff != "" {
		t.Fatalf("layouts mismatch (-want +got):\n%s", diff)
	}
}

func TestReloadKeepsPreviousSnapshotOnFailure(t *testing.T) {
	dir, store, load := setup(t, "layouts: [tile]\n")
	r := New(store, load, zaptest.NewLogger(t))
	before := store.Current()

	if err := os.Remove(filepath.Join(dir, "config.yaml")); err != nil {
		t.Fatalf("remove config: %v", err)
	}
	snap, err := r.Reload(context.Background())
	if !errors.Is(err, source.ErrConfigurationNotFound) {
		t.Fatalf("expected ErrConfigurationNotFound, got %v", err)
	}
	if snap != before || store.Current() != before {
		t.Fatalf("expected previous snapshot to be kept")
	}
}

func TestReloadHonoursCanceledContext(t *testing.T) {
	_, store, load := setup(t, "layouts: [tile]\n")
	r := New(store, load, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Reload(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if store.Current().Generation != 1 {
		t.Fatalf("canceled reload must not swap")
	}
}

func TestWatchReloadsOnFileChange(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir, store, load := setup(t, "layouts: [tile]\n")
	r := New(store, load, zaptest.NewLogger(t), WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	if err := r.Watch(ctx, dir, filepath.Join(dir, "missing")); err != nil {
		cancel()
		t.Fatalf("Watch returned error: %v", err)
	}

	writeConfig(t, dir, "layouts: [max]\n")

	reloaded := func() bool {
		layouts, err := store.Current().Accessor.Layouts()
		return err == nil && cmp.Equal([]any{"max"}, layouts)
	}

	deadline := time.After(5 * time.Second)
	for !reloaded() {
		select {
		case <-deadline:
			cancel()
			<-r.Done()
			t.Fatalf("timed out waiting for reload")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("watcher did not stop after cancel")
	}

	if store.Current().Generation < 2 {
		t.Fatalf("expected at least one swap, got generation %d", store.Current().Generation)
	}
}

func TestWatchPicksUpUserDirectoryCreatedLater(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	root := t.TempDir()
	src := source.Source{
		UserDir:   filepath.Join(root, "home", ".config", source.AppDir),
		SystemDir: filepath.Join(root, "etc", "xdg", source.AppDir),
	}
	if err := os.MkdirAll(src.SystemDir, 0o755); err != nil {
		t.Fatalf("create system dir: %v", err)
	}
	writeConfig(t, src.SystemDir, "layouts: [system]\n")

	load := func() *accessor.Accessor {
		return accessor.New(src)
	}
	store, err := storage.NewMemoryStorage(load())
	if err != nil {
		t.Fatalf("NewMemoryStorage returned error: %v", err)
	}
	if origin := store.Current().Accessor.Location().Origin; origin != source.OriginSystem {
		t.Fatalf("expected system origin before user config exists, got %s", origin)
	}

	r := New(store, load, zaptest.NewLogger(t), WithDebounce(20*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		<-r.Done()
	}()
	if err := r.Watch(ctx, src.UserDir, src.SystemDir); err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}

	if err := os.MkdirAll(src.UserDir, 0o755); err != nil {
		t.Fatalf("create user dir: %v", err)
	}
	writeConfig(t, src.UserDir, "layouts: [user]\n")

	deadline := time.After(5 * time.Second)
	for {
		acc := store.Current().Accessor
		layouts, err := acc.Layouts()
		if err == nil && acc.Location().Origin == source.OriginUser && cmp.Equal([]any{"user"}, layouts) {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("user configuration was not picked up: origin=%s layouts=%v generation=%d",
				acc.Location().Origin, layouts, store.Current().Generation)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWatchRequiresDirectories(t *testing.T) {
	_, store, load := setup(t, "layouts: [tile]\n")
	r := New(store, load, zaptest.NewLogger(t))

	if err := r.Watch(context.Background()); !errors.Is(err, ErrNothingToWatch) {
		t.Fatalf("expected ErrNothingToWatch, got %v", err)
	}
	if r.Done() != nil {
		t.Fatalf("expected no watch loop to be running")
	}
}
