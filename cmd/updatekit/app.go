// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/updatekit/updatekit/internal/config"
	"github.com/updatekit/updatekit/internal/issue"
	"github.com/updatekit/updatekit/internal/logging"
	"github.com/updatekit/updatekit/internal/metrics"
	"github.com/updatekit/updatekit/pkg/service"
	"github.com/updatekit/updatekit/pkg/service/manifest"
)

// manifestLayerName labels candidates contributed by manifest directories.
const manifestLayerName = "manifests"

type (
	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer: all Cobra command handlers receive an App reference.
	App struct {
		Config     ConfigProvider
		Realm      *service.Realm
		stdout     io.Writer
		stderr     io.Writer
		issueStyle string
		// installLogger makes prepare replace the process-wide slog default.
		installLogger bool
		logger        *slog.Logger

		// Per-invocation state, populated by prepare.
		opts     *rootOptions
		cfg      *config.Config
		cfgPath  string
		cfgErr   error
		recorder *metrics.Recorder
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// Realm is the catalog of compiled-in providers. Defaults to
		// service.DefaultRealm().
		Realm  *service.Realm
		Stdout io.Writer
		Stderr io.Writer
		// IssueStyle is the glamour style used for issue help text.
		IssueStyle string
		// InstallLogger sets the configured logger as slog's default so that
		// library packages log through it too.
		InstallLogger bool
	}

	// ConfigProvider loads configuration using explicit options.
	// This abstraction enables testing with custom config sources or mock implementations.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, string, error)
	}

	// environment is the registry pair a resolution runs against.
	environment struct {
		layer *service.Layer
		diags []manifest.Diagnostic
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Realm == nil {
		deps.Realm = service.DefaultRealm()
	}
	if deps.IssueStyle == "" {
		deps.IssueStyle = "dark"
	}

	return &App{
		Config:        deps.Config,
		Realm:         deps.Realm,
		stdout:        deps.Stdout,
		stderr:        deps.Stderr,
		issueStyle:    deps.IssueStyle,
		installLogger: deps.InstallLogger,
		logger:        slog.Default(),
		opts:          &rootOptions{},
		cfg:           config.DefaultConfig(),
		recorder:      metrics.NewRecorder(),
	}, nil
}

// prepare loads configuration and installs the process logger. A config that
// fails to load is reported and replaced by defaults so that the config
// subcommands stay usable.
func (a *App) prepare(ctx context.Context, opts *rootOptions) error {
	a.opts = opts

	cfg, path, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: opts.configFile})
	if err != nil {
		fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, opts.verbose))
		cfg, path = config.DefaultConfig(), ""
	}
	a.cfg, a.cfgPath, a.cfgErr = cfg, path, err

	logger, err := logging.New(a.stderr, loggingOptions(opts, cfg.Log.Level, cfg.Log.Format))
	if err != nil {
		return a.fail(err)
	}
	a.logger = logger
	if a.installLogger {
		slog.SetDefault(logger)
	}
	return nil
}

// manifestDirs returns flag directories followed by configured ones.
func (a *App) manifestDirs() []string {
	dirs := slices.Clone(a.opts.manifestDirs)
	for _, d := range a.cfg.ManifestDirPaths() {
		if !slices.Contains(dirs, d) {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// hostVersion is the version manifests' requires constraints are checked against.
func (a *App) hostVersion() string {
	if a.cfg.HostVersion != "" {
		return a.cfg.HostVersion
	}
	return Version
}

// buildEnvironment loads every manifest directory into one context layer.
// With no directories the layer is nil and only the realm contributes.
func (a *App) buildEnvironment(ctx context.Context, dirs []string) (*environment, error) {
	if len(dirs) == 0 {
		return &environment{}, nil
	}

	manifests, err := manifest.LoadDirs(ctx, dirs)
	if err != nil {
		return nil, manifestLoadError(dirs, err)
	}
	layer, diags, err := manifest.Build(manifestLayerName, manifests, a.Realm, a.hostVersion())
	for _, d := range diags {
		a.logger.Warn("manifest diagnostic", "source", d.Source, "severity", string(d.Severity), "message", d.Message)
	}
	if err != nil {
		return nil, manifestLoadError(dirs, err)
	}
	a.logger.Debug("manifest layer built", "dirs", len(dirs), "manifests", len(manifests))
	return &environment{layer: layer, diags: diags}, nil
}

// manifestLoadError tags a load or build failure of dirs with the manifest
// catalog entry and points at the validate command.
func manifestLoadError(dirs []string, err error) error {
	return issue.NewErrorContext(issue.ManifestInvalidId, "load provider manifests").
		WithResource(strings.Join(dirs, ", ")).
		WithSuggestion("Run 'updatekit manifest validate " + strings.Join(dirs, " ") + "' for per-file diagnostics").
		WithSuggestion("Provider and capability names are dot-separated identifiers, e.g. console.Handler").
		Wrap(err)
}

// contextRegistry returns the layer as a Registry, or nil when absent.
func (e *environment) contextRegistry() service.Registry {
	if e.layer == nil {
		return nil
	}
	return e.layer
}

// capabilities lists every capability known to the realm, sorted by name.
func (a *App) capabilities() []service.Capability {
	return a.Realm.Capabilities()
}

// lookupCapability resolves a capability by its qualified name.
func (a *App) lookupCapability(name string) (service.Capability, error) {
	c, ok := a.Realm.Capability(name)
	if !ok {
		return service.Capability{}, fmt.Errorf("%w: %s", errUnknownCapability, name)
	}
	return c, nil
}

// writeMetrics dumps the recorder when a textfile is configured.
func (a *App) writeMetrics() {
	path := a.opts.metricsTextfile
	if path == "" {
		path = a.cfg.Metrics.Textfile
	}
	if path == "" {
		return
	}
	if err := a.recorder.WriteTextfile(path); err != nil {
		a.logger.Warn("failed to write metrics", "path", path, "error", err)
		return
	}
	a.logger.Debug("metrics written", "path", path)
}
