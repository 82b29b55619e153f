// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnsupportedFormat is returned when a file extension maps to no decoder.
	ErrUnsupportedFormat = errors.New("unsupported manifest format")

	// ErrInvalidManifest is the sentinel wrapped by every ParseError.
	ErrInvalidManifest = errors.New("invalid manifest")
)

type (
	// Manifest is one decoded declaration file.
	Manifest struct {
		// Source is the file the manifest was read from.
		Source   string      `toml:"-"        yaml:"-"`
		Name     string      `toml:"name"     yaml:"name"`
		Requires string      `toml:"requires" yaml:"requires"`
		Provides []Provision `toml:"provides" yaml:"provides"`
	}

	// Provision lists providers for one capability, in layer order.
	Provision struct {
		Capability string   `toml:"capability" yaml:"capability"`
		Providers  []string `toml:"providers"  yaml:"providers"`
	}

	// ParseError reports a manifest that could not be decoded or is
	// structurally invalid.
	ParseError struct {
		Source string
		Err    error
	}
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Source, e.Err)
}

// Unwrap returns ErrInvalidManifest so callers can use errors.Is.
func (e *ParseError) Unwrap() []error {
	return []error{ErrInvalidManifest, e.Err}
}

// IsManifestFile reports whether name has an extension Parse understands.
func IsManifestFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Parse decodes data using the format implied by name's extension and
// validates the result.
func Parse(name string, data []byte) (Manifest, error) {
	var m Manifest

	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return Manifest{}, &ParseError{Source: name, Err: err}
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// A document without content (blank or only comments) decodes to io.EOF.
		if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
			return Manifest{}, &ParseError{Source: name, Err: err}
		}
	default:
		return Manifest{}, &ParseError{Source: name, Err: ErrUnsupportedFormat}
	}

	m.Source = name
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Validate checks the structural rules that do not depend on a catalog.
func (m Manifest) Validate() error {
	var errs []error
	if m.Requires != "" {
		if _, err := semver.NewConstraint(m.Requires); err != nil {
			errs = append(errs, fmt.Errorf("requires %q: %w", m.Requires, err))
		}
	}
	for i, p := range m.Provides {
		if strings.TrimSpace(p.Capability) == "" {
			errs = append(errs, fmt.Errorf("provides[%d]: capability is required", i))
		}
		if len(p.Providers) == 0 {
			errs = append(errs, fmt.Errorf("provides[%d]: at least one provider is required", i))
		}
	}
	if len(errs) > 0 {
		return &ParseError{Source: m.Source, Err: errors.Join(errs...)}
	}
	return nil
}

// LoadDir parses every manifest file directly inside dir. Files are decoded
// concurrently; the result keeps lexical file order.
func LoadDir(ctx context.Context, dir string) ([]Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read manifest directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsManifestFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}

	out := make([]Manifest, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read manifest: %w", err)
			}
			m, err := Parse(path, data)
			if err != nil {
				return err
			}
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadDirs loads each directory in turn and concatenates the results.
func LoadDirs(ctx context.Context, dirs []string) ([]Manifest, error) {
	var out []Manifest
	for _, dir := range dirs {
		ms, err := LoadDir(ctx, dir)
		if err != nil {
			return nil, err
		}
		out = append(out, ms...)
	}
	return out, nil
}
