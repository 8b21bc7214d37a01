package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/e3wm/e3wm-api/internal/accessor"
	"github.com/e3wm/e3wm-api/internal/application"
	"github.com/e3wm/e3wm-api/internal/config"
	"github.com/e3wm/e3wm-api/internal/keybinding"
	"github.com/e3wm/e3wm-api/internal/settings"
)

// commandEnv carries what every command needs once flags and settings are resolved.
type commandEnv struct {
	cfg    config.Config
	dir    string
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer
}

func (e *commandEnv) accessor() (*accessor.Accessor, error) {
	src, err := e.cfg.Source()
	if err != nil {
		return nil, fmt.Errorf("resolve configuration source: %w", err)
	}
	return application.NewLoader(src, e.dir, e.logger)(), nil
}

func (e *commandEnv) fail(format string, args ...any) int {
	fmt.Fprintf(e.stderr, "e3wm-api: "+format+"\n", args...)
	return 1
}

// runSmoke constructs the accessor and prints keybinding 0.
func (e *commandEnv) runSmoke() int {
	acc, err := e.accessor()
	if err != nil {
		return e.fail("%v", err)
	}

	b, ok := acc.Keybinding(0)
	if !ok {
		fmt.Fprintln(e.stdout, "None")
		return 0
	}
	fmt.Fprintln(e.stdout, formatBinding(b))
	return 0
}

func formatBinding(b settings.Binding) string {
	return fmt.Sprintf("(%q, %q, %q, %q)", b.Keys, b.Command, b.Group, b.Description)
}

type showOutput struct {
	Dir           string         `yaml:"dir"`
	File          string         `yaml:"file"`
	Format        string         `yaml:"format"`
	Origin        string         `yaml:"origin"`
	Configuration map[string]any `yaml:"configuration"`
}

func (e *commandEnv) runShow() int {
	acc, err := e.accessor()
	if err != nil {
		return e.fail("%v", err)
	}
	cfg, err := acc.Configuration()
	if err != nil {
		return e.fail("%v", err)
	}

	loc := acc.Location()
	out := showOutput{
		Dir:           loc.Dir,
		File:          loc.File,
		Format:        string(loc.Format),
		Origin:        loc.Origin.String(),
		Configuration: cfg.Tree(),
	}

	enc := yaml.NewEncoder(e.stdout)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return e.fail("encode configuration: %v", err)
	}
	if err := enc.Close(); err != nil {
		return e.fail("encode configuration: %v", err)
	}
	return 0
}

func (e *commandEnv) runPath() int {
	acc, err := e.accessor()
	if err != nil {
		return e.fail("%v", err)
	}

	loc := acc.Location()
	fmt.Fprintf(e.stdout, "%s\t%s\n", loc.Dir, loc.Origin)
	if loadErr := acc.Err(); loadErr != nil {
		fmt.Fprintf(e.stderr, "warning: %v\n", loadErr)
	}
	return 0
}

func (e *commandEnv) runBindings() int {
	acc, err := e.accessor()
	if err != nil {
		return e.fail("%v", err)
	}

	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tKEYS\tCHORD\tCOMMAND\tGROUP\tDESCRIPTION")
	for i, b := range acc.Keybindings() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", i, b.Keys, chordColumn(b.Keys), b.Command, b.Group, b.Description)
	}
	if err := tw.Flush(); err != nil {
		return e.fail("write bindings: %v", err)
	}
	return 0
}

func chordColumn(keys string) string {
	if keys == "" {
		return "-"
	}
	chord, err := keybinding.Parse(keys)
	if err != nil {
		return "invalid"
	}
	return chord.String()
}

// runValidate queries every getter and parses every key string, reporting
// all problems rather than stopping at the first.
func (e *commandEnv) runValidate() int {
	acc, err := e.accessor()
	if err != nil {
		return e.fail("%v", err)
	}
	cfg, err := acc.Configuration()
	if err != nil {
		return e.fail("%v", err)
	}

	problems := validateConfiguration(cfg)
	if len(problems) == 0 {
		fmt.Fprintf(e.stdout, "configuration OK: %s\n", acc.Location().File)
		return 0
	}
	for _, p := range problems {
		fmt.Fprintf(e.stdout, "problem: %s\n", p)
	}
	fmt.Fprintf(e.stdout, "%d problem(s) in %s\n", len(problems), acc.Location().File)
	return 1
}

func validateConfiguration(cfg *settings.Configuration) []string {
	var problems []string
	if _, err := cfg.Workspaces(); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := cfg.Layouts(); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := cfg.Dynamic(); err != nil {
		problems = append(problems, err.Error())
	}

	if !cfg.Has(settings.KeyBindings) {
		return problems
	}
	for i := 0; ; i++ {
		b, err := cfg.Binding(i)
		if errors.Is(err, settings.ErrIndexOutOfRange) {
			break
		}
		var attrErr *settings.AttributeError
		if errors.As(err, &attrErr) && attrErr.Name == settings.KeyBindings {
			problems = append(problems, err.Error())
			break
		}
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if b.Keys == "" {
			continue
		}
		if _, err := keybinding.Parse(b.Keys); err != nil {
			problems = append(problems, fmt.Sprintf("%s[%d]: %v", settings.KeyBindings, i, err))
		}
	}
	return problems
}

func (e *commandEnv) runInit(force bool) int {
	dir := e.dir
	if dir == "" {
		src, err := e.cfg.Source()
		if err != nil {
			return e.fail("%v", err)
		}
		dir = src.UserDir
	}

	path, err := settings.WriteStarter(dir, force)
	if errors.Is(err, settings.ErrStarterExists) {
		return e.fail("%s already exists (use --force to overwrite)", path)
	}
	if err != nil {
		return e.fail("%v", err)
	}
	fmt.Fprintf(e.stdout, "wrote %s\n", path)
	return 0
}
