package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// AppDir is the directory name used under both the user and system config roots.
	AppDir = "e3wm"
	// ConfigName is the base name of the configuration file inside the selected directory.
	ConfigName = "config"
	// DefaultSystemDir is the system-wide fallback directory.
	DefaultSystemDir = "/etc/xdg/e3wm"
)

// Format identifies the encoding of a configuration file.
type Format string

const (
	FormatYAML  Format = "yaml"
	FormatTOML  Format = "toml"
	FormatJSONC Format = "jsonc"
)

// candidates lists the accepted configuration file names in lookup order.
var candidates = []struct {
	name   string
	format Format
}{
	{ConfigName + ".yaml", FormatYAML},
	{ConfigName + ".yml", FormatYAML},
	{ConfigName, FormatYAML},
	{ConfigName + ".toml", FormatTOML},
	{ConfigName + ".jsonc", FormatJSONC},
	{ConfigName + ".json", FormatJSONC},
}

// Origin records which of the two candidate directories was selected.
type Origin int

const (
	OriginUnknown Origin = iota
	OriginUser
	OriginSystem
)

func (o Origin) String() string {
	switch o {
	case OriginUser:
		return "user"
	case OriginSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Source describes the two configuration directories checked at resolution
// time. UserDir is preferred; SystemDir is the fallback.
type Source struct {
	UserDir   string
	SystemDir string
}

// Location is the outcome of a successful resolution.
type Location struct {
	Dir    string
	File   string
	Format Format
	Origin Origin
}

// UserConfigHome returns $XDG_CONFIG_HOME, or ~/.config when it is unset.
func UserConfigHome() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config"), nil
}

// Default builds a Source rooted at configHome and systemDir. Empty arguments
// fall back to UserConfigHome and DefaultSystemDir.
func Default(configHome, systemDir string) (Source, error) {
	if configHome == "" {
		home, err := UserConfigHome()
		if err != nil {
			return Source{}, err
		}
		configHome = home
	}
	if systemDir == "" {
		systemDir = DefaultSystemDir
	}
	return Source{
		UserDir:   filepath.Join(configHome, AppDir),
		SystemDir: systemDir,
	}, nil
}

// Resolve selects the active configuration directory. The user directory wins
// when it exists and holds a configuration file; otherwise the system
// directory is selected without checking the directory itself, and the
// returned error wraps ErrConfigurationNotFound when it holds no
// configuration file either. The returned Location always names the selected
// directory, even on error.
func (s Source) Resolve() (Location, error) {
	if s.UserDir != "" && isDir(s.UserDir) {
		if file, format, ok := FindConfig(s.UserDir); ok {
			return Location{Dir: s.UserDir, File: file, Format: format, Origin: OriginUser}, nil
		}
	}

	loc := Location{Dir: s.SystemDir, Origin: OriginSystem}
	file, format, ok := FindConfig(s.SystemDir)
	if !ok {
		return loc, fmt.Errorf("%w: checked %s and %s", ErrConfigurationNotFound, s.UserDir, s.SystemDir)
	}
	loc.File = file
	loc.Format = format
	return loc, nil
}

// FindConfig returns the first configuration file present in dir.
func FindConfig(dir string) (string, Format, bool) {
	if dir == "" {
		return "", "", false
	}
	for _, c := range candidates {
		path := filepath.Join(dir, c.name)
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, c.format, true
		}
	}
	return "", "", false
}

// FormatForFile reports the format implied by a configuration file name.
func FormatForFile(path string) (Format, bool) {
	base := filepath.Base(path)
	for _, c := range candidates {
		if c.name == base {
			return c.format, true
		}
	}
	return "", false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
