// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/updatekit/updatekit/internal/config"
	"github.com/updatekit/updatekit/internal/logging"

	"github.com/spf13/cobra"
)

// settableKeys lists the keys accepted by `config set`.
const settableKeys = "log.level, log.format, host_version, metrics.textfile, override"

var (
	errUnknownConfigKey = errors.New("unknown configuration key")
	errConfigLoad       = errors.New("configuration could not be loaded")
)

// newConfigCommand creates the `updatekit config` command tree.
// Every subcommand works on the configuration loaded by the root command.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage updatekit configuration",
		Long: `Manage updatekit configuration.

Configuration is stored in:
  - Linux: ~/.config/updatekit/config.cue
  - macOS: ~/Library/Application Support/updatekit/config.cue
  - Windows: %APPDATA%\updatekit\config.cue

Any value can also be set through the environment, e.g. UPDATEKIT_LOG_LEVEL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.showConfig()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.initConfig()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.configFilePath()
			if err != nil {
				return app.fail(err)
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value and save the config file.

Keys: ` + settableKeys + `

An override value has the form <capability>=<provider>; an empty provider
removes the override for that capability.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.setConfigValue(args[0], args[1])
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(app.stdout, config.GenerateCUE(app.cfg))
			return nil
		},
	})

	return cfgCmd
}

// configFilePath is the file --config names, or the default location.
func (a *App) configFilePath() (string, error) {
	return config.FilePath(config.LoadOptions{ConfigFilePath: a.opts.configFile})
}

func (a *App) showConfig() error {
	if a.cfgErr != nil {
		return a.fail(fmt.Errorf("%w: %w", errConfigLoad, a.cfgErr))
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	none := SubtitleStyle.Render("(none configured)")

	fmt.Fprintln(a.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(a.stdout)

	if a.cfgPath != "" {
		fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render("Config file"), a.cfgPath)
	} else {
		fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(a.stdout)

	fmt.Fprintf(a.stdout, "%s:\n", keyStyle.Render("overrides"))
	if len(a.cfg.Overrides) == 0 {
		fmt.Fprintf(a.stdout, "  %s\n", none)
	}
	for _, o := range a.cfg.Overrides {
		fmt.Fprintf(a.stdout, "  - %s = %s\n", o.Capability, valueStyle.Render(o.Provider))
	}

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s:\n", keyStyle.Render("manifest_dirs"))
	if len(a.cfg.ManifestDirs) == 0 {
		fmt.Fprintf(a.stdout, "  %s\n", none)
	}
	for _, d := range a.cfg.ManifestDirs {
		fmt.Fprintf(a.stdout, "  - %s\n", valueStyle.Render(string(d)))
	}

	fmt.Fprintln(a.stdout)
	host := a.cfg.HostVersion
	if host == "" {
		host = Version + " " + SubtitleStyle.Render("(binary version)")
	}
	fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render("host_version"), valueStyle.Render(host))

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s:\n", keyStyle.Render("log"))
	fmt.Fprintf(a.stdout, "  level: %s\n", valueStyle.Render(string(a.cfg.Log.Level)))
	fmt.Fprintf(a.stdout, "  format: %s\n", valueStyle.Render(string(a.cfg.Log.Format)))

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s:\n", keyStyle.Render("metrics"))
	if a.cfg.Metrics.Textfile == "" {
		fmt.Fprintf(a.stdout, "  textfile: %s\n", SubtitleStyle.Render("(disabled)"))
	} else {
		fmt.Fprintf(a.stdout, "  textfile: %s\n", valueStyle.Render(a.cfg.Metrics.Textfile))
	}

	return nil
}

func (a *App) initConfig() error {
	path, err := a.configFilePath()
	if err != nil {
		return a.fail(err)
	}

	if _, statErr := os.Stat(path); statErr == nil {
		fmt.Fprintf(a.stdout, "Configuration already exists at %s\n", path)
		return nil
	}

	if err := config.SaveFile(config.DefaultConfig(), path); err != nil {
		return a.fail(fmt.Errorf("failed to create config: %w", err))
	}

	fmt.Fprintf(a.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func (a *App) setConfigValue(key, value string) error {
	// Refuse to overwrite a file that could not be read.
	if a.cfgErr != nil {
		return a.fail(fmt.Errorf("%w: %w", errConfigLoad, a.cfgErr))
	}

	cfg := *a.cfg
	cfg.Overrides = append([]config.Override(nil), a.cfg.Overrides...)

	switch key {
	case "log.level":
		level := logging.Level(value)
		if err := level.Validate(); err != nil {
			return a.fail(err)
		}
		cfg.Log.Level = level

	case "log.format":
		format := logging.Format(value)
		if err := format.Validate(); err != nil {
			return a.fail(err)
		}
		cfg.Log.Format = format

	case "host_version":
		cfg.HostVersion = value

	case "metrics.textfile":
		cfg.Metrics.Textfile = value

	case "override":
		capability, provider, ok := strings.Cut(value, "=")
		if !ok {
			return a.fail(fmt.Errorf("%w: override value must be <capability>=<provider>", config.ErrInvalidOverride))
		}
		cfg.SetOverride(strings.TrimSpace(capability), strings.TrimSpace(provider))

	default:
		return a.fail(fmt.Errorf("%w: %s\nValid keys: %s", errUnknownConfigKey, key, settableKeys))
	}

	if ok, errs := cfg.IsValid(); !ok {
		return a.fail(errors.Join(errs...))
	}

	path, err := a.configFilePath()
	if err != nil {
		return a.fail(err)
	}
	if err := config.SaveFile(&cfg, path); err != nil {
		return a.fail(fmt.Errorf("failed to save config: %w", err))
	}
	a.cfg = &cfg

	fmt.Fprintf(a.stdout, "%s Set %s = %s\n", SuccessStyle.Render("✓"), key, value)
	return nil
}
