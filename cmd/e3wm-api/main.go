package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/e3wm/e3wm-api/internal/application"
	"github.com/e3wm/e3wm-api/internal/config"
	"github.com/e3wm/e3wm-api/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// cli holds the parsed command line.
type cli struct {
	app *kingpin.Application

	settingsFile *string
	configHome   *string
	systemDir    *string
	dir          *string
	logLevel     *string
	logEncoding  *string

	smoke    *kingpin.CmdClause
	show     *kingpin.CmdClause
	path     *kingpin.CmdClause
	bindings *kingpin.CmdClause
	validate *kingpin.CmdClause

	initCmd   *kingpin.CmdClause
	initForce *bool

	serve          *kingpin.CmdClause
	port           *string
	rateLimitRPS   *float64
	rateLimitBurst *int
	watch          *bool
	watchSet       bool
}

func newCLI(stderr io.Writer) *cli {
	c := &cli{}
	c.app = kingpin.New("e3wm-api", "Read-only access to the e3wm window manager configuration")
	c.app.UsageWriter(stderr)
	c.app.ErrorWriter(stderr)

	c.settingsFile = c.app.Flag("settings", "Path to YAML settings file for e3wm-api itself").String()
	c.configHome = c.app.Flag("config-home", "User configuration home (defaults to $XDG_CONFIG_HOME or ~/.config)").String()
	c.systemDir = c.app.Flag("system-dir", "System configuration directory").String()
	c.dir = c.app.Flag("dir", "Load the configuration from this directory, skipping user/system resolution").String()
	c.logLevel = c.app.Flag("log-level", "Log level (debug, info, warn, error)").String()
	c.logEncoding = c.app.Flag("log-encoding", "Log encoding (console, json)").String()

	c.smoke = c.app.Command("smoke", "Print the first keybinding, or None when there is none").Default()
	c.show = c.app.Command("show", "Print the selected location and the full configuration as YAML")
	c.path = c.app.Command("path", "Print the selected configuration directory and its origin")
	c.bindings = c.app.Command("bindings", "List keybindings from index 0 up to the first missing one")
	c.validate = c.app.Command("validate", "Load the configuration and report every problem found")

	c.initCmd = c.app.Command("init", "Write a starter configuration into the user configuration directory")
	c.initForce = c.initCmd.Flag("force", "Overwrite an existing configuration").Bool()

	c.serve = c.app.Command("serve", "Serve the configuration over HTTP")
	c.port = c.serve.Flag("port", "HTTP port exposed by the service").String()
	c.rateLimitRPS = c.serve.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	c.rateLimitBurst = c.serve.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()
	c.watch = c.serve.Flag("watch", "Reload the configuration when its files change").IsSetByUser(&c.watchSet).Bool()

	return c
}

func (c *cli) overrides() *config.CLIOverrides {
	overrides := &config.CLIOverrides{
		SettingsFile: *c.settingsFile,
		ConfigHome:   c.configHome,
		SystemDir:    c.systemDir,
		LogLevel:     c.logLevel,
		LogEncoding:  c.logEncoding,
		Port:         c.port,
	}
	if *c.rateLimitRPS >= 0 {
		overrides.RateLimitRPS = c.rateLimitRPS
	}
	if *c.rateLimitBurst >= 0 {
		overrides.RateLimitBurst = c.rateLimitBurst
	}
	if c.watchSet {
		overrides.Watch = c.watch
	}
	return overrides
}

// run executes the command line in args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	c := newCLI(stderr)
	command, err := c.app.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "e3wm-api: %v\n", err)
		return 1
	}

	cfg, err := config.Load(c.overrides())
	if err != nil {
		fmt.Fprintf(stderr, "e3wm-api: failed to load settings: %v\n", err)
		return 1
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		fmt.Fprintf(stderr, "e3wm-api: failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	env := &commandEnv{cfg: cfg, dir: *c.dir, logger: logger, stdout: stdout, stderr: stderr}

	switch command {
	case c.smoke.FullCommand():
		return env.runSmoke()
	case c.show.FullCommand():
		return env.runShow()
	case c.path.FullCommand():
		return env.runPath()
	case c.bindings.FullCommand():
		return env.runBindings()
	case c.validate.FullCommand():
		return env.runValidate()
	case c.initCmd.FullCommand():
		return env.runInit(*c.initForce)
	case c.serve.FullCommand():
		return env.runServe()
	}
	fmt.Fprintf(stderr, "e3wm-api: unknown command %q\n", command)
	return 1
}

func (e *commandEnv) runServe() int {
	var opts []application.Option
	if e.dir != "" {
		opts = append(opts, application.WithDir(e.dir))
	}

	app, err := application.New(e.cfg, e.logger, opts...)
	if err != nil {
		e.logger.Error("failed to initialize application", zap.Error(err))
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		e.logger.Error("failed to start server", zap.Error(err))
		return 1
	}

	shutdown(app.Server(), e.cfg.ShutdownGracePeriod, e.logger)
	return 0
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
