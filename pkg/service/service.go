// SPDX-License-Identifier: MPL-2.0

package service

import (
	"reflect"
	"strings"
)

type (
	// Service is the contract every provider implements. Version ranks
	// providers of the same capability; higher wins.
	Service interface {
		Version() int64
	}

	// Capability identifies a required capability by its Go type. It is a
	// comparable value and is used as the lookup key into registries.
	Capability struct {
		name string
		typ  reflect.Type
	}

	// Candidate is a discovered but not yet instantiated provider.
	Candidate struct {
		// Name is the provider's stable identifying name (see ValidateName).
		Name string
		// Origin describes the registry the candidate was discovered in,
		// e.g. "realm:default" or "layer:plugins".
		Origin string

		factory func() (Service, error)
	}
)

// CapabilityOf returns the Capability for the interface type T.
func CapabilityOf[T any]() Capability {
	t := reflect.TypeFor[T]()
	return Capability{name: qualifiedTypeName(t), typ: t}
}

// Name returns the fully-qualified name of the capability type,
// e.g. "github.com/updatekit/updatekit/pkg/update.Handler".
func (c Capability) Name() string { return c.name }

// String implements fmt.Stringer.
func (c Capability) String() string { return c.name }

// Type returns the reflected capability type.
func (c Capability) Type() reflect.Type { return c.typ }

// IsZero reports whether c is the zero Capability.
func (c Capability) IsZero() bool { return c.typ == nil }

// NewCandidate creates a Candidate whose factory is invoked lazily by Instantiate.
func NewCandidate(name, origin string, factory func() (Service, error)) Candidate {
	return Candidate{Name: name, Origin: origin, factory: factory}
}

// WithOrigin returns a copy of c carrying a different origin.
func (c Candidate) WithOrigin(origin string) Candidate {
	c.Origin = origin
	return c
}

// Instantiate runs the candidate's factory. Each call produces a new
// instance; nothing is cached. Factory errors are returned as
// *InstantiationError whose Unwrap yields the factory's own error.
func (c Candidate) Instantiate() (Service, error) {
	if c.factory == nil {
		return nil, &InstantiationError{Provider: c.Name, Err: ErrNilProvider}
	}
	s, err := c.factory()
	if err != nil {
		return nil, &InstantiationError{Provider: c.Name, Err: err}
	}
	if s == nil {
		return nil, &InstantiationError{Provider: c.Name, Err: ErrNilProvider}
	}
	return s, nil
}

// NameOf derives the conventional provider name "<package>.<Type>" for the
// concrete provider type P. Pointer types are dereferenced.
func NameOf[P any]() string {
	t := reflect.TypeFor[P]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	pkg := t.PkgPath()
	if i := strings.LastIndex(pkg, "/"); i >= 0 {
		pkg = pkg[i+1:]
	}
	if pkg == "" {
		return t.Name()
	}
	return pkg + "." + t.Name()
}

func qualifiedTypeName(t reflect.Type) string {
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
