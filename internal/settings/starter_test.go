package settings

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/e3wm/e3wm-api/internal/source"
)

func TestStarterConfigDecodes(t *testing.T) {
	t.Parallel()

	cfg, err := Decode(source.FormatYAML, StarterConfig())
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	workspaces, err := cfg.Workspaces()
	if err != nil {
		t.Fatalf("Workspaces returned error: %v", err)
	}
	if len(workspaces) != 9 {
		t.Fatalf("expected 9 workspaces, got %d", len(workspaces))
	}

	got, err := cfg.Binding(0)
	if err != nil {
		t.Fatalf("Binding returned error: %v", err)
	}
	want := Binding{Keys: "M-<enter>", Command: "alacritty", Group: "launch", Description: "open a terminal"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("binding mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteStarter(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "e3wm")

	path, err := WriteStarter(dir, false)
	if err != nil {
		t.Fatalf("WriteStarter returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read starter: %v", err)
	}
	if !bytes.Equal(data, StarterConfig()) {
		t.Fatalf("written starter does not match embedded config")
	}

	if _, err := WriteStarter(dir, false); !errors.Is(err, ErrStarterExists) {
		t.Fatalf("expected ErrStarterExists on second write, got %v", err)
	}
	if _, err := WriteStarter(dir, true); err != nil {
		t.Fatalf("forced WriteStarter returned error: %v", err)
	}
}

func TestWriteStarterRespectsOtherFormats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	existing := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(existing, []byte("layouts = []\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := WriteStarter(dir, false)
	if !errors.Is(err, ErrStarterExists) {
		t.Fatalf("expected ErrStarterExists, got %v", err)
	}
	if got != existing {
		t.Fatalf("expected existing path %s, got %s", existing, got)
	}
}
