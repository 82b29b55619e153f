// SPDX-License-Identifier: MPL-2.0

package service

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"
)

const (
	// OutcomeOverride means the override named a discovered candidate.
	OutcomeOverride Outcome = "override"
	// OutcomeRanked means no override was given and the highest version won.
	OutcomeRanked Outcome = "ranked"
	// OutcomeFallback means the override was not found and the highest version won.
	OutcomeFallback Outcome = "fallback"
	// OutcomeNoProvider means discovery yielded no candidates.
	OutcomeNoProvider Outcome = "no_provider"
	// OutcomeInvalidOverride means the override name was rejected up front.
	OutcomeInvalidOverride Outcome = "invalid_override"
	// OutcomeInstantiationFailed means a candidate's factory failed.
	OutcomeInstantiationFailed Outcome = "instantiation_failed"
	// OutcomeInvalidRequest means the request itself was malformed.
	OutcomeInvalidRequest Outcome = "invalid_request"
)

type (
	// Request is the complete input of one resolution. It is created per call
	// and not retained.
	Request struct {
		// Capability is the capability to resolve. Required.
		Capability Capability
		// Context is an optional higher-priority registry scoped to an
		// execution context.
		Context Registry
		// Realm is the default registry. DefaultRealm is used when nil.
		Realm Registry
		// Override forces selection of the named candidate when present.
		// The empty string means no override.
		Override string
		// Diagnostics receives the override-miss line. Defaults to os.Stderr.
		Diagnostics io.Writer
		// Observer, when set, is notified once per resolution.
		Observer Observer
	}

	// Option configures a Request built by NewRequest or Load.
	Option func(*Request)

	// Outcome classifies how a resolution ended.
	Outcome string

	// Resolution summarizes one resolution for observers.
	Resolution struct {
		Capability Capability
		Override   string
		Outcome    Outcome
		// Selected is the name of the returned candidate; empty on failure.
		Selected string
		// Origin is the registry label of the returned candidate.
		Origin     string
		Candidates int
		Duration   time.Duration
		Err        error
	}

	// Observer is notified after each resolution, successful or not.
	Observer interface {
		ObserveResolution(res Resolution)
	}

	// ObserverFunc adapts a function to the Observer interface.
	ObserverFunc func(res Resolution)
)

// ObserveResolution implements Observer.
func (f ObserverFunc) ObserveResolution(res Resolution) { f(res) }

// WithContext adds a context-scoped registry queried before the realm.
// A nil registry is ignored.
func WithContext(r Registry) Option {
	return func(req *Request) {
		if r != nil {
			req.Context = r
		}
	}
}

// WithRealm selects the realm-scoped registry. A nil registry is ignored.
func WithRealm(r Registry) Option {
	return func(req *Request) {
		if r != nil {
			req.Realm = r
		}
	}
}

// WithOverride sets the override name.
func WithOverride(name string) Option {
	return func(req *Request) { req.Override = name }
}

// WithDiagnostics redirects the override-miss line.
func WithDiagnostics(w io.Writer) Option {
	return func(req *Request) { req.Diagnostics = w }
}

// WithObserver sets the resolution observer.
func WithObserver(o Observer) Option {
	return func(req *Request) { req.Observer = o }
}

// NewRequest builds a Request for c from opts.
func NewRequest(c Capability, opts ...Option) Request {
	req := Request{Capability: c}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// Load resolves the provider for the capability T.
func Load[T Service](opts ...Option) (T, error) {
	var zero T
	svc, err := Resolve(NewRequest(CapabilityOf[T](), opts...))
	if err != nil {
		return zero, err
	}
	v, ok := svc.(T)
	if !ok {
		return zero, &InstantiationError{Provider: fmt.Sprintf("%T", svc), Err: ErrProviderType}
	}
	return v, nil
}

// Resolve runs one resolution: validate the override, aggregate candidates,
// select one. Ownership of the returned instance passes to the caller.
func Resolve(req Request) (Service, error) {
	start := time.Now()
	res := Resolution{Capability: req.Capability, Override: req.Override}

	svc, err := resolve(req, &res)

	res.Duration = time.Since(start)
	res.Err = err
	if req.Observer != nil {
		req.Observer.ObserveResolution(res)
	}
	return svc, err
}

func resolve(req Request, res *Resolution) (Service, error) {
	if err := ValidateOverride(req.Override); err != nil {
		res.Outcome = OutcomeInvalidOverride
		return nil, err
	}
	if req.Capability.IsZero() {
		res.Outcome = OutcomeInvalidRequest
		return nil, ErrMissingCapability
	}

	candidates := Aggregate(req.Capability, req.Context, req.Realm)
	res.Candidates = len(candidates)
	slog.Debug("providers discovered", "capability", req.Capability.Name(), "count", len(candidates))

	diag := req.Diagnostics
	if diag == nil {
		diag = os.Stderr
	}

	svc, selected, outcome, err := selectCandidate(req.Capability, candidates, req.Override, diag)
	res.Outcome = outcome
	if err == nil {
		res.Selected, res.Origin = selected.Name, selected.Origin
	}
	return svc, err
}

// Aggregate enumerates the candidates for c: every candidate of the context
// registry (when non-nil) followed by every candidate of the realm registry
// (DefaultRealm when nil). Nothing is instantiated.
func Aggregate(c Capability, context, realm Registry) []Candidate {
	var out []Candidate
	if context != nil {
		out = append(out, context.Providers(c)...)
	}
	if realm == nil {
		realm = defaultRealm
	}
	return append(out, realm.Providers(c)...)
}

// Select picks one provider from candidates. A candidate named override is
// returned without instantiating any other. Otherwise all candidates are
// instantiated and the highest Version wins, the later one on ties. An
// override that matches nothing is reported on diag and does not fail.
func Select(c Capability, candidates []Candidate, override string, diag io.Writer) (Service, error) {
	svc, _, _, err := selectCandidate(c, candidates, override, diag)
	return svc, err
}

func selectCandidate(c Capability, candidates []Candidate, override string, diag io.Writer) (Service, Candidate, Outcome, error) {
	if len(candidates) == 0 {
		return nil, Candidate{}, OutcomeNoProvider, &NoProviderError{Capability: c}
	}

	if override != "" {
		for _, cand := range candidates {
			if cand.Name != override {
				continue
			}
			svc, err := cand.Instantiate()
			if err != nil {
				return nil, Candidate{}, OutcomeInstantiationFailed, err
			}
			slog.Debug("provider selected by override", "capability", c.Name(), "provider", cand.Name, "origin", cand.Origin)
			return svc, cand, OutcomeOverride, nil
		}
	}

	instances := make([]Service, 0, len(candidates))
	for _, cand := range candidates {
		svc, err := cand.Instantiate()
		if err != nil {
			return nil, Candidate{}, OutcomeInstantiationFailed, err
		}
		instances = append(instances, svc)
	}

	maxVersion := int64(math.MinInt64)
	best := -1
	for i, svc := range instances {
		if v := svc.Version(); maxVersion <= v {
			maxVersion = v
			best = i
		}
	}
	selected := candidates[best]
	slog.Debug("provider selected by version", "capability", c.Name(), "provider", selected.Name, "version", maxVersion)

	if override != "" {
		if diag != nil {
			fmt.Fprintf(diag, "%s not found between providers for %s, using %s instead.\n", override, c.Name(), selected.Name)
		}
		return instances[best], selected, OutcomeFallback, nil
	}
	return instances[best], selected, OutcomeRanked, nil
}
