// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/updatekit/updatekit/internal/logging"
	"github.com/updatekit/updatekit/pkg/service"
)

var (
	// ErrInvalidOverride is the sentinel error wrapped by InvalidOverrideError.
	ErrInvalidOverride = errors.New("invalid override")
	// ErrDuplicateOverride is returned when two overrides name the same capability.
	ErrDuplicateOverride = errors.New("duplicate override")
	// ErrInvalidManifestDir is returned when a manifest directory is whitespace-only.
	ErrInvalidManifestDir = errors.New("invalid manifest directory")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// Override pins the provider used for one capability.
	Override struct {
		// Capability is the fully qualified capability name.
		Capability string `json:"capability" mapstructure:"capability"`
		// Provider is the provider name to select.
		Provider string `json:"provider" mapstructure:"provider"`
	}

	// InvalidOverrideError is returned when an Override has an empty capability
	// or a provider name that fails service.ValidateName.
	// It wraps ErrInvalidOverride for errors.Is() compatibility.
	InvalidOverrideError struct {
		Override Override
		Reason   string
	}

	// ManifestDir is a directory of provider manifests.
	ManifestDir string

	// LogConfig configures the process logger.
	LogConfig struct {
		Level  logging.Level  `json:"level" mapstructure:"level"`
		Format logging.Format `json:"format" mapstructure:"format"`
	}

	// MetricsConfig configures metrics output.
	MetricsConfig struct {
		// Textfile is written in Prometheus text format after each command.
		// The zero value disables metrics output.
		Textfile string `json:"textfile,omitempty" mapstructure:"textfile"`
	}

	// Config holds the application configuration.
	Config struct {
		// Overrides pin providers per capability.
		Overrides []Override `json:"overrides" mapstructure:"overrides"`
		// ManifestDirs form the context-scoped layer, in priority order.
		ManifestDirs []ManifestDir `json:"manifest_dirs" mapstructure:"manifest_dirs"`
		// HostVersion is matched against manifest requires constraints.
		// Empty means the binary's own version.
		HostVersion string `json:"host_version,omitempty" mapstructure:"host_version"`
		// Log configures logging.
		Log LogConfig `json:"log" mapstructure:"log"`
		// Metrics configures metrics output.
		Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// IsValid returns whether the Override names a capability and a valid provider.
func (o Override) IsValid() (bool, []error) {
	if strings.TrimSpace(o.Capability) == "" {
		return false, []error{&InvalidOverrideError{Override: o, Reason: "capability must not be empty"}}
	}
	if err := service.ValidateName(o.Provider); err != nil {
		reason := err.Error()
		var nameErr *service.InvalidNameError
		if errors.As(err, &nameErr) {
			reason = nameErr.Reason
		}
		return false, []error{&InvalidOverrideError{Override: o, Reason: reason}}
	}
	return true, nil
}

// Error implements the error interface for InvalidOverrideError.
func (e *InvalidOverrideError) Error() string {
	return fmt.Sprintf("override for %q: provider %q: %s", e.Override.Capability, e.Override.Provider, e.Reason)
}

// Unwrap returns ErrInvalidOverride for errors.Is() compatibility.
func (e *InvalidOverrideError) Unwrap() error { return ErrInvalidOverride }

// String returns the string representation of the ManifestDir.
func (d ManifestDir) String() string { return string(d) }

// IsValid returns whether the ManifestDir is non-empty and not whitespace-only.
func (d ManifestDir) IsValid() (bool, []error) {
	if strings.TrimSpace(string(d)) == "" {
		return false, []error{fmt.Errorf("%w: %q", ErrInvalidManifestDir, string(d))}
	}
	return true, nil
}

// IsValid returns whether the LogConfig names a known level and format.
func (c LogConfig) IsValid() (bool, []error) {
	var errs []error
	if err := c.Level.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Format.Validate(); err != nil {
		errs = append(errs, err)
	}
	return len(errs) == 0, errs
}

// IsValid returns whether the Config has valid fields.
// It delegates to each Override, each ManifestDir and Log, and rejects two
// overrides for the same capability.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	seen := make(map[string]string, len(c.Overrides))
	for _, o := range c.Overrides {
		if valid, fieldErrs := o.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
			continue
		}
		if first, dup := seen[o.Capability]; dup {
			errs = append(errs, fmt.Errorf("%w: %s set to both %q and %q", ErrDuplicateOverride, o.Capability, first, o.Provider))
			continue
		}
		seen[o.Capability] = o.Provider
	}
	for _, d := range c.ManifestDirs {
		if valid, fieldErrs := d.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if valid, fieldErrs := c.Log.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %d field error(s): %s", len(e.FieldErrors), strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// OverrideFor returns the configured provider for capability, if any.
func (c *Config) OverrideFor(capability string) (string, bool) {
	if c == nil {
		return "", false
	}
	for _, o := range c.Overrides {
		if o.Capability == capability {
			return o.Provider, true
		}
	}
	return "", false
}

// SetOverride pins provider for capability, replacing an existing entry.
// An empty provider removes the override.
func (c *Config) SetOverride(capability, provider string) {
	for i, o := range c.Overrides {
		if o.Capability != capability {
			continue
		}
		if provider == "" {
			c.Overrides = append(c.Overrides[:i], c.Overrides[i+1:]...)
		} else {
			c.Overrides[i].Provider = provider
		}
		return
	}
	if provider != "" {
		c.Overrides = append(c.Overrides, Override{Capability: capability, Provider: provider})
	}
}

// ManifestDirPaths returns ManifestDirs as plain strings.
func (c *Config) ManifestDirPaths() []string {
	out := make([]string, 0, len(c.ManifestDirs))
	for _, d := range c.ManifestDirs {
		out = append(out, string(d))
	}
	return out
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Overrides:    []Override{},
		ManifestDirs: []ManifestDir{},
		HostVersion:  "", // Will use the binary version if empty
		Log: LogConfig{
			Level:  logging.LevelInfo,
			Format: logging.FormatText,
		},
		Metrics: MetricsConfig{
			Textfile: "",
		},
	}
}
