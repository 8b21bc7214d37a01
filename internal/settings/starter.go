package settings

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/e3wm/e3wm-api/internal/source"
)

//go:embed starter.yaml
var starterConfig []byte

// StarterConfig returns a copy of the embedded starter configuration.
func StarterConfig() []byte {
	out := make([]byte, len(starterConfig))
	copy(out, starterConfig)
	return out
}

// WriteStarter writes the starter configuration to dir/config.yaml, creating
// dir when needed. An existing configuration file of any supported format is
// left alone unless force is set. The write is atomic.
func WriteStarter(dir string, force bool) (string, error) {
	if existing, _, ok := source.FindConfig(dir); ok && !force {
		return existing, fmt.Errorf("%w: %s", ErrStarterExists, existing)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	path := filepath.Join(dir, source.ConfigName+".yaml")
	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return "", fmt.Errorf("create pending config file: %w", err)
	}
	defer func() {
		_ = pendingFile.Cleanup()
	}()

	if _, err := pendingFile.Write(starterConfig); err != nil {
		return "", fmt.Errorf("write config data: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("atomically replace config file: %w", err)
	}
	return path, nil
}
