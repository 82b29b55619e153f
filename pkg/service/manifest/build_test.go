// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/updatekit/updatekit/pkg/service"
)

type (
	greeter interface {
		service.Service
		Greet() string
	}

	namedGreeter struct {
		name    string
		version int64
	}
)

//nolint:gochecknoglobals // test fixture
var greeterCap = service.CapabilityOf[greeter]()

func (g namedGreeter) Version() int64 { return g.version }
func (g namedGreeter) Greet() string  { return g.name }

func testCatalog(t *testing.T) *service.Realm {
	t.Helper()

	catalog := service.NewRealm("catalog")
	for i, name := range []string{"alpha.Greeter", "beta.Greeter", "gamma.Greeter"} {
		g := namedGreeter{name: name, version: int64(i)}
		service.MustProvide(catalog, name, func() (greeter, error) { return g, nil })
	}
	return catalog
}

func provision(providers ...string) Provision {
	return Provision{Capability: greeterCap.Name(), Providers: providers}
}

func candidateNames(cands []service.Candidate) []string {
	names := make([]string, 0, len(cands))
	for _, c := range cands {
		names = append(names, c.Name)
	}
	return names
}

func TestBuild_DeclarationOrder(t *testing.T) {
	t.Parallel()

	manifests := []Manifest{
		{Source: "10.toml", Provides: []Provision{provision("gamma.Greeter", "alpha.Greeter")}},
		{Source: "20.yaml", Provides: []Provision{provision("beta.Greeter")}},
	}

	layer, diags, err := Build("plugins", manifests, testCatalog(t), "1.0.0")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("diagnostics = %v, want none", diags)
	}

	cands := layer.Providers(greeterCap)
	want := []string{"gamma.Greeter", "alpha.Greeter", "beta.Greeter"}
	if got := candidateNames(cands); !slices.Equal(got, want) {
		t.Errorf("providers = %v, want %v", got, want)
	}
	for _, c := range cands {
		if c.Origin != "layer:plugins" {
			t.Errorf("%s origin = %q, want layer:plugins", c.Name, c.Origin)
		}
	}

	svc, err := service.Select(greeterCap, cands, "", nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if got := svc.(greeter).Greet(); got != "gamma.Greeter" {
		t.Errorf("selected %s, want gamma.Greeter", got)
	}
}

func TestBuild_RequiresConstraint(t *testing.T) {
	t.Parallel()

	manifests := []Manifest{
		{Source: "old.toml", Requires: "< 1.0.0", Provides: []Provision{provision("alpha.Greeter")}},
		{Source: "new.toml", Requires: ">= 1.2.0", Provides: []Provision{provision("beta.Greeter")}},
	}

	tests := []struct {
		name        string
		hostVersion string
		want        []string
		wantDiag    Severity
	}{
		{name: "host satisfies second", hostVersion: "1.4.2", want: []string{"beta.Greeter"}, wantDiag: SeveritySkipped},
		{name: "host satisfies first", hostVersion: "0.9.0", want: []string{"alpha.Greeter"}, wantDiag: SeveritySkipped},
		{name: "unknown host version", hostVersion: "dev", want: []string{"alpha.Greeter", "beta.Greeter"}, wantDiag: SeverityWarning},
		{name: "empty host version", hostVersion: "", want: []string{"alpha.Greeter", "beta.Greeter"}, wantDiag: SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			layer, diags, err := Build("l", manifests, testCatalog(t), tt.hostVersion)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if got := candidateNames(layer.Providers(greeterCap)); !slices.Equal(got, tt.want) {
				t.Errorf("providers = %v, want %v", got, tt.want)
			}
			if len(diags) != 1 || diags[0].Severity != tt.wantDiag {
				t.Errorf("diagnostics = %v, want one %s", diags, tt.wantDiag)
			}
		})
	}
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		manifest Manifest
		wantErr  error
	}{
		{
			name:     "unknown provider",
			manifest: Manifest{Source: "a.toml", Provides: []Provision{provision("delta.Greeter")}},
			wantErr:  ErrUnknownProvider,
		},
		{
			name:     "invalid provider name",
			manifest: Manifest{Source: "a.toml", Provides: []Provision{provision("123abc")}},
			wantErr:  ErrInvalidProviderName,
		},
		{
			name: "unknown capability",
			manifest: Manifest{Source: "a.toml", Provides: []Provision{
				{Capability: "example.com/none.Thing", Providers: []string{"alpha.Greeter"}},
			}},
			wantErr: ErrUnknownCapability,
		},
		{
			name:     "structurally invalid",
			manifest: Manifest{Source: "a.toml", Provides: []Provision{{Capability: greeterCap.Name()}}},
			wantErr:  ErrInvalidManifest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			layer, _, err := Build("l", []Manifest{tt.manifest}, testCatalog(t), "1.0.0")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Build() error = %v, want %v", err, tt.wantErr)
			}
			if layer != nil {
				t.Error("Build() returned a layer alongside an error")
			}
			if !strings.Contains(err.Error(), "a.toml") {
				t.Errorf("error %q does not name the source", err)
			}
		})
	}
}

func TestBuild_ReportsEveryError(t *testing.T) {
	t.Parallel()

	m := Manifest{Source: "a.toml", Provides: []Provision{provision("delta.Greeter", "epsilon.Greeter")}}
	_, _, err := Build("l", []Manifest{m}, testCatalog(t), "1.0.0")
	for _, name := range []string{"delta.Greeter", "epsilon.Greeter"} {
		if err == nil || !strings.Contains(err.Error(), name) {
			t.Errorf("error %v does not mention %s", err, name)
		}
	}
}

func TestBuild_DuplicateIsWarning(t *testing.T) {
	t.Parallel()

	manifests := []Manifest{
		{Source: "a.toml", Provides: []Provision{provision("alpha.Greeter")}},
		{Source: "b.toml", Provides: []Provision{provision("alpha.Greeter", "beta.Greeter")}},
	}
	layer, diags, err := Build("l", manifests, testCatalog(t), "1.0.0")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := candidateNames(layer.Providers(greeterCap)); !slices.Equal(got, []string{"alpha.Greeter", "beta.Greeter"}) {
		t.Errorf("providers = %v", got)
	}
	if len(diags) != 1 || diags[0].Severity != SeverityWarning || diags[0].Source != "b.toml" {
		t.Errorf("diagnostics = %v, want one warning for b.toml", diags)
	}
	if s := diags[0].String(); !strings.HasPrefix(s, "b.toml: warning: ") {
		t.Errorf("String() = %q", s)
	}
}
