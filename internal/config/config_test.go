// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/updatekit/updatekit/internal/issue"
	"github.com/updatekit/updatekit/internal/logging"
	"github.com/updatekit/updatekit/internal/testutil"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	return testutil.MustWriteFile(t, dir, ConfigFileName+"."+ConfigFileExt, content)
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if len(cfg.Overrides) != 0 {
		t.Errorf("Overrides = %v, want empty", cfg.Overrides)
	}
	if len(cfg.ManifestDirs) != 0 {
		t.Errorf("ManifestDirs = %v, want empty", cfg.ManifestDirs)
	}
	if cfg.Log.Level != logging.LevelInfo {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, logging.LevelInfo)
	}
	if cfg.Log.Format != logging.FormatText {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, logging.FormatText)
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("DefaultConfig().IsValid() = %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	// Not parallel: uses t.Setenv.
	t.Setenv(ConfigDirEnv, "/custom/dir")
	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if got != "/custom/dir" {
		t.Errorf("ConfigDir() = %q, want %q", got, "/custom/dir")
	}

	t.Setenv(ConfigDirEnv, "")
	if runtime.GOOS != "linux" {
		return
	}
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	got, err = ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if got != filepath.Join("/xdg", AppName) {
		t.Errorf("ConfigDir() = %q, want %q", got, filepath.Join("/xdg", AppName))
	}
}

func TestFilePath(t *testing.T) {
	t.Parallel()

	got, err := FilePath(LoadOptions{ConfigFilePath: "/etc/updatekit.cue"})
	if err != nil || got != "/etc/updatekit.cue" {
		t.Errorf("FilePath(explicit) = %q, %v", got, err)
	}

	got, err = FilePath(LoadOptions{ConfigDirPath: "/cfg"})
	if err != nil || got != filepath.Join("/cfg", "config.cue") {
		t.Errorf("FilePath(dir) = %q, %v", got, err)
	}
}

func TestLoad_ReturnsDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, path, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty", path)
	}
	if cfg.Log.Level != logging.LevelInfo || len(cfg.Overrides) != 0 {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoad_ParsesAllFields(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
overrides: [
	{capability: "github.com/updatekit/updatekit/pkg/update.Handler", provider: "console.Handler"},
]
manifest_dirs: ["/opt/app/manifests", "/etc/app/manifests"]
host_version: "1.4.0"
log: {
	level:  "debug"
	format: "json"
}
metrics: textfile: "/var/lib/node_exporter/updatekit.prom"
`)

	cfg, resolved, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if resolved != path {
		t.Errorf("resolved path = %q, want %q", resolved, path)
	}

	provider, ok := cfg.OverrideFor("github.com/updatekit/updatekit/pkg/update.Handler")
	if !ok || provider != "console.Handler" {
		t.Errorf("OverrideFor() = %q, %v", provider, ok)
	}
	if got := cfg.ManifestDirPaths(); !slices.Equal(got, []string{"/opt/app/manifests", "/etc/app/manifests"}) {
		t.Errorf("ManifestDirs = %v", got)
	}
	if cfg.HostVersion != "1.4.0" {
		t.Errorf("HostVersion = %q", cfg.HostVersion)
	}
	if cfg.Log.Level != logging.LevelDebug || cfg.Log.Format != logging.FormatJSON {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Metrics.Textfile != "/var/lib/node_exporter/updatekit.prom" {
		t.Errorf("Metrics.Textfile = %q", cfg.Metrics.Textfile)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	// Not parallel: uses t.Setenv.
	dir := t.TempDir()
	writeConfig(t, dir, `log: level: "warn"`)
	t.Setenv("UPDATEKIT_LOG_LEVEL", "error")

	cfg, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != logging.LevelError {
		t.Errorf("Log.Level = %q, want error", cfg.Log.Level)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		content     string
		errContains string
	}{
		{
			name:        "invalid CUE syntax",
			content:     `log: {level: `,
			errContains: "config.cue",
		},
		{
			name:        "unknown field",
			content:     `colour: "red"`,
			errContains: "colour",
		},
		{
			name:        "invalid log level",
			content:     `log: level: "loud"`,
			errContains: "log.level",
		},
		{
			name:        "override missing provider",
			content:     `overrides: [{capability: "x.Y"}]`,
			errContains: "provider",
		},
		{
			name:        "invalid provider name",
			content:     `overrides: [{capability: "x.Y", provider: "123abc"}]`,
			errContains: "123abc",
		},
		{
			name: "duplicate override",
			content: `overrides: [
				{capability: "x.Y", provider: "a.B"},
				{capability: "x.Y", provider: "c.D"},
			]`,
			errContains: "duplicate override",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
			if err == nil {
				t.Fatal("Load() expected error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("error should be *issue.ActionableError, got %T", err)
			}
			if len(ae.Suggestions) == 0 {
				t.Error("error should carry suggestions")
			}
			if ae.Issue != issue.ConfigLoadFailedId {
				t.Errorf("Issue = %d, want %d", ae.Issue, issue.ConfigLoadFailedId)
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error %q should contain %q", err, tt.errContains)
			}
		})
	}
}

func TestLoad_CustomPath(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), `host_version: "2.0.0"`)
	cfg, resolved, err := NewProvider().Load(context.Background(), LoadOptions{
		ConfigFilePath: path,
		ConfigDirPath:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if resolved != path || cfg.HostVersion != "2.0.0" {
		t.Errorf("Load() = %q from %q", cfg.HostVersion, resolved)
	}

	_, _, err = NewProvider().Load(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "missing.cue"),
	})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("Load(missing) error = %v", err)
	}
}

func TestLoad_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestSaveAndGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.SetOverride("github.com/updatekit/updatekit/pkg/update.Handler", "console.Handler")
	cfg.ManifestDirs = []ManifestDir{"/opt/manifests"}
	cfg.HostVersion = "3.1.0"
	cfg.Log.Format = logging.FormatLogfmt
	cfg.Metrics.Textfile = "/tmp/m.prom"

	if err := Save(cfg, dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() after Save() error = %v\n%s", err, GenerateCUE(cfg))
	}
	if !slices.Equal(loaded.Overrides, cfg.Overrides) {
		t.Errorf("Overrides = %v, want %v", loaded.Overrides, cfg.Overrides)
	}
	if !slices.Equal(loaded.ManifestDirs, cfg.ManifestDirs) {
		t.Errorf("ManifestDirs = %v", loaded.ManifestDirs)
	}
	if loaded.HostVersion != "3.1.0" || loaded.Log.Format != logging.FormatLogfmt || loaded.Metrics.Textfile != "/tmp/m.prom" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested")
	path, err := CreateDefaultConfig(dir)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("path = %q", path)
	}

	// An existing file is left untouched.
	if err := os.WriteFile(path, []byte(`host_version: "9.9.9"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateDefaultConfig(dir); err != nil {
		t.Fatalf("second CreateDefaultConfig() error = %v", err)
	}
	if !strings.Contains(testutil.MustReadFile(t, path), "9.9.9") {
		t.Error("CreateDefaultConfig() overwrote an existing file")
	}
}
