// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/updatekit/updatekit/internal/testutil"
)

const tomlManifest = `
name = "plugins"
requires = ">= 1.2.0"

[[provides]]
capability = "example.com/app.Greeter"
providers = ["alpha.Greeter", "beta.Greeter"]
`

const yamlManifest = `
name: extras
provides:
  - capability: example.com/app.Greeter
    providers: [gamma.Greeter]
`

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		file      string
		data      string
		wantName  string
		wantProvs []string
		wantErr   error
	}{
		{
			name:      "toml",
			file:      "a.toml",
			data:      tomlManifest,
			wantName:  "plugins",
			wantProvs: []string{"alpha.Greeter", "beta.Greeter"},
		},
		{
			name:      "yaml",
			file:      "b.yaml",
			data:      yamlManifest,
			wantName:  "extras",
			wantProvs: []string{"gamma.Greeter"},
		},
		{
			name:      "yml extension",
			file:      "b.YML",
			data:      yamlManifest,
			wantName:  "extras",
			wantProvs: []string{"gamma.Greeter"},
		},
		{
			name: "empty yaml",
			file: "empty.yaml",
			data: "\n",
		},
		{
			name: "comment-only yaml",
			file: "pending.yaml",
			data: "# nothing yet\n# providers land here\n",
		},
		{
			name:    "unknown extension",
			file:    "c.json",
			data:    "{}",
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "unknown toml field",
			file:    "d.toml",
			data:    "bogus = 1\n",
			wantErr: ErrInvalidManifest,
		},
		{
			name:    "unknown yaml field",
			file:    "d.yaml",
			data:    "bogus: 1\n",
			wantErr: ErrInvalidManifest,
		},
		{
			name:    "bad constraint",
			file:    "e.toml",
			data:    "requires = \">= one.two\"\n",
			wantErr: ErrInvalidManifest,
		},
		{
			name:    "missing capability",
			file:    "f.toml",
			data:    "[[provides]]\nproviders = [\"a.B\"]\n",
			wantErr: ErrInvalidManifest,
		},
		{
			name:    "missing providers",
			file:    "g.toml",
			data:    "[[provides]]\ncapability = \"x.Y\"\n",
			wantErr: ErrInvalidManifest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := Parse(tt.file, []byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
				}
				var pe *ParseError
				if !errors.As(err, &pe) || pe.Source != tt.file {
					t.Errorf("Parse() error %v is not a ParseError for %s", err, tt.file)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() unexpected error: %v", err)
			}
			if m.Source != tt.file {
				t.Errorf("Source = %q, want %q", m.Source, tt.file)
			}
			if m.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", m.Name, tt.wantName)
			}
			var provs []string
			for _, p := range m.Provides {
				provs = append(provs, p.Providers...)
			}
			if !slices.Equal(provs, tt.wantProvs) {
				t.Errorf("providers = %v, want %v", provs, tt.wantProvs)
			}
		})
	}
}

func TestLoadDir_KeepsLexicalOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := map[string]string{
		"20-extras.yaml":  yamlManifest,
		"10-plugins.toml": tomlManifest,
		"README.md":       "ignored",
	}
	for name, data := range files {
		testutil.MustWriteFile(t, dir, name, data)
	}
	testutil.MustMkdirAll(t, filepath.Join(dir, "nested.toml"))

	ms, err := LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(ms) != 2 {
		t.Fatalf("LoadDir() returned %d manifests, want 2", len(ms))
	}
	if ms[0].Name != "plugins" || ms[1].Name != "extras" {
		t.Errorf("order = [%s %s], want [plugins extras]", ms[0].Name, ms[1].Name)
	}
	if ms[0].Source != filepath.Join(dir, "10-plugins.toml") {
		t.Errorf("Source = %q", ms[0].Source)
	}
}

func TestLoadDir_Errors(t *testing.T) {
	t.Parallel()

	if _, err := LoadDir(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("LoadDir() on missing directory: expected error")
	}

	dir := t.TempDir()
	testutil.MustWriteFile(t, dir, "bad.toml", "provides = 3")
	if _, err := LoadDir(context.Background(), dir); !errors.Is(err, ErrInvalidManifest) {
		t.Errorf("LoadDir() error = %v, want ErrInvalidManifest", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := LoadDir(ctx, dir); err == nil {
		t.Error("LoadDir() with canceled context: expected error")
	}
}

func TestLoadDirs(t *testing.T) {
	t.Parallel()

	first, second := t.TempDir(), t.TempDir()
	testutil.MustWriteFile(t, first, "z.yaml", yamlManifest)
	testutil.MustWriteFile(t, second, "a.toml", tomlManifest)

	ms, err := LoadDirs(context.Background(), []string{first, second})
	if err != nil {
		t.Fatalf("LoadDirs() error = %v", err)
	}
	if len(ms) != 2 || ms[0].Name != "extras" || ms[1].Name != "plugins" {
		t.Errorf("LoadDirs() = %+v, want directory order", ms)
	}
}
