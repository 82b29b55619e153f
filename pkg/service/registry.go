// SPDX-License-Identifier: MPL-2.0

package service

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

//nolint:gochecknoglobals // Process-wide ambient realm, populated from init().
var defaultRealm = NewRealm("default")

type (
	// Registry enumerates the candidates it holds for a capability, in its
	// native order. Implementations must be safe for concurrent reads and must
	// not instantiate anything.
	Registry interface {
		Providers(c Capability) []Candidate
	}

	// RegistryFunc adapts a function to the Registry interface.
	RegistryFunc func(c Capability) []Candidate

	// Registrar accepts candidate registrations. Realm and Layer implement it.
	Registrar interface {
		Register(c Capability, cand Candidate) error
	}

	// Realm is the compiled-in registry: every provider linked into the binary
	// registers itself with a realm from init(). A Realm also acts as the
	// catalog that manifest layers pick providers from.
	Realm struct {
		table
	}

	// Layer is a context-scoped registry. Its candidates take precedence over
	// the realm's in enumeration order.
	Layer struct {
		table
	}

	// table is the ordered, concurrency-safe storage shared by Realm and Layer.
	table struct {
		origin string
		mu     sync.RWMutex
		caps   map[string]Capability
		byCap  map[Capability][]Candidate
	}
)

// Providers implements Registry.
func (f RegistryFunc) Providers(c Capability) []Candidate { return f(c) }

// DefaultRealm returns the process-wide realm used when a request names none.
func DefaultRealm() *Realm { return defaultRealm }

// NewRealm creates an empty realm. Candidates registered with it get the
// origin "realm:<name>".
func NewRealm(name string) *Realm {
	r := &Realm{}
	r.init("realm:" + name)
	return r
}

// NewLayer creates an empty context-scoped layer. Candidates registered with
// it get the origin "layer:<name>".
func NewLayer(name string) *Layer {
	l := &Layer{}
	l.init("layer:" + name)
	return l
}

// Providers implements Registry. A nil *Realm stands for DefaultRealm.
func (r *Realm) Providers(c Capability) []Candidate {
	if r == nil {
		return defaultRealm.providers(c)
	}
	return r.providers(c)
}

// Providers implements Registry. A nil *Layer yields no candidates.
func (l *Layer) Providers(c Capability) []Candidate {
	if l == nil {
		return nil
	}
	return l.providers(c)
}

// Provide registers factory under name for the capability T. The factory is
// not called until the candidate is instantiated during resolution.
func Provide[T Service](dst Registrar, name string, factory func() (T, error)) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if factory == nil {
		return fmt.Errorf("provide %s: %w", name, ErrNilProvider)
	}
	cand := NewCandidate(name, "", func() (Service, error) {
		v, err := factory()
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	return dst.Register(CapabilityOf[T](), cand)
}

// MustProvide is like Provide but panics on error. It is meant for init().
func MustProvide[T Service](dst Registrar, name string, factory func() (T, error)) {
	if err := Provide(dst, name, factory); err != nil {
		panic(err)
	}
}

func (t *table) init(origin string) {
	t.origin = origin
	t.caps = make(map[string]Capability)
	t.byCap = make(map[Capability][]Candidate)
}

// Name returns the registry's origin label, e.g. "realm:default".
func (t *table) Name() string { return t.origin }

// Register appends cand to the capability's candidate list. The candidate's
// origin is set to this registry's label.
func (t *table) Register(c Capability, cand Candidate) error {
	if c.IsZero() {
		return ErrMissingCapability
	}
	if err := ValidateName(cand.Name); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, existing := range t.byCap[c] {
		if existing.Name == cand.Name {
			return &DuplicateProviderError{Capability: c, Name: cand.Name, Registry: t.origin}
		}
	}
	t.caps[c.Name()] = c
	t.byCap[c] = append(t.byCap[c], cand.WithOrigin(t.origin))
	return nil
}

// Capability looks up a registered capability by its qualified name.
func (t *table) Capability(name string) (Capability, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.caps[name]
	return c, ok
}

// Capabilities returns every capability with at least one candidate,
// sorted by name.
func (t *table) Capabilities() []Capability {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Capability, 0, len(t.caps))
	for _, c := range t.caps {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Capability) int { return cmp.Compare(a.Name(), b.Name()) })
	return out
}

// Lookup returns the candidate registered under name for c.
func (t *table) Lookup(c Capability, name string) (Candidate, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, cand := range t.byCap[c] {
		if cand.Name == name {
			return cand, true
		}
	}
	return Candidate{}, false
}

func (t *table) providers(c Capability) []Candidate {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.byCap[c])
}
