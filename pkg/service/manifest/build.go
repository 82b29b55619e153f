// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/updatekit/updatekit/pkg/service"
)

// Diagnostic severities.
const (
	SeverityWarning Severity = "warning"
	SeveritySkipped Severity = "skipped"
)

var (
	// ErrUnknownCapability is returned when a manifest names a capability the
	// catalog has no providers for.
	ErrUnknownCapability = errors.New("unknown capability")

	// ErrUnknownProvider is returned when a manifest names a provider the
	// catalog does not hold for the capability.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrInvalidProviderName is returned when a declared provider name is not
	// a valid provider name.
	ErrInvalidProviderName = errors.New("invalid provider name")
)

type (
	// Severity classifies a Diagnostic.
	Severity string

	// Diagnostic is a non-fatal finding produced while building a layer.
	Diagnostic struct {
		Severity Severity
		Source   string
		Message  string
	}

	// ProviderError reports a declared provider that cannot be placed in
	// the layer.
	ProviderError struct {
		Source     string
		Capability string
		Provider   string
		Err        error
	}
)

// String renders the diagnostic as "source: severity: message".
func (d Diagnostic) String() string {
	if d.Source == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Source, d.Severity, d.Message)
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("manifest %s: capability %s: %v", e.Source, e.Capability, e.Err)
	}
	return fmt.Sprintf("manifest %s: capability %s: provider %s: %v", e.Source, e.Capability, e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error { return e.Err }

// Build assembles a layer named layerName from manifests, in declaration
// order. Providers are taken from catalog, or from the default realm when
// catalog is nil.
//
// An empty or unparseable hostVersion disables requires checks and yields a
// warning if any manifest carries a constraint. Every invalid declaration is
// reported; the returned layer is nil when err is non-nil.
func Build(layerName string, manifests []Manifest, catalog *service.Realm, hostVersion string) (*service.Layer, []Diagnostic, error) {
	if catalog == nil {
		catalog = service.DefaultRealm()
	}

	var diags []Diagnostic
	host, hostErr := parseHostVersion(hostVersion)
	warnedHost := false

	layer := service.NewLayer(layerName)
	var errs []error

	for _, m := range manifests {
		if err := m.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}

		if m.Requires != "" {
			if host == nil {
				if !warnedHost {
					diags = append(diags, Diagnostic{
						Severity: SeverityWarning,
						Message:  fmt.Sprintf("host version %q is not a semantic version, requires constraints are not enforced (%v)", hostVersion, hostErr),
					})
					warnedHost = true
				}
			} else if c, _ := semver.NewConstraint(m.Requires); !c.Check(host) {
				diags = append(diags, Diagnostic{
					Severity: SeveritySkipped,
					Source:   m.Source,
					Message:  fmt.Sprintf("requires %s, host is %s", m.Requires, host),
				})
				continue
			}
		}

		for _, p := range m.Provides {
			errs = append(errs, addProvision(layer, catalog, m.Source, p, &diags)...)
		}
	}

	if len(errs) > 0 {
		return nil, diags, errors.Join(errs...)
	}
	return layer, diags, nil
}

func addProvision(layer *service.Layer, catalog *service.Realm, source string, p Provision, diags *[]Diagnostic) []error {
	c, ok := catalog.Capability(p.Capability)
	if !ok {
		return []error{&ProviderError{Source: source, Capability: p.Capability, Err: ErrUnknownCapability}}
	}

	var errs []error
	for _, name := range p.Providers {
		if err := service.ValidateName(name); err != nil {
			errs = append(errs, &ProviderError{
				Source: source, Capability: p.Capability, Provider: name,
				Err: fmt.Errorf("%w: %w", ErrInvalidProviderName, err),
			})
			continue
		}

		cand, ok := catalog.Lookup(c, name)
		if !ok {
			errs = append(errs, &ProviderError{Source: source, Capability: p.Capability, Provider: name, Err: ErrUnknownProvider})
			continue
		}

		err := layer.Register(c, cand)
		if errors.Is(err, service.ErrDuplicateProvider) {
			*diags = append(*diags, Diagnostic{
				Severity: SeverityWarning,
				Source:   source,
				Message:  fmt.Sprintf("provider %s already declared for %s, ignoring", name, p.Capability),
			})
			continue
		}
		if err != nil {
			errs = append(errs, &ProviderError{Source: source, Capability: p.Capability, Provider: name, Err: err})
		}
	}
	return errs
}

func parseHostVersion(raw string) (*semver.Version, error) {
	if raw == "" {
		return nil, errors.New("empty")
	}
	return semver.NewVersion(raw)
}
