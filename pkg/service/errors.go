// SPDX-License-Identifier: MPL-2.0

package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidName is returned when a provider name is not a well-formed
	// dotted Go identifier.
	ErrInvalidName = errors.New("invalid provider name")

	// ErrInvalidOverrideName is the sentinel error wrapped by InvalidOverrideError.
	ErrInvalidOverrideName = errors.New("invalid override name")

	// ErrNoProviderFound is the sentinel error wrapped by NoProviderError.
	ErrNoProviderFound = errors.New("no provider found")

	// ErrInstantiationFailure matches every *InstantiationError via errors.Is.
	ErrInstantiationFailure = errors.New("provider instantiation failed")

	// ErrDuplicateProvider is returned when a name is registered twice for the
	// same capability in one registry.
	ErrDuplicateProvider = errors.New("duplicate provider")

	// ErrNilProvider indicates a factory returned neither an instance nor an error.
	ErrNilProvider = errors.New("provider factory returned nil")

	// ErrProviderType indicates an instance does not implement the requested capability.
	ErrProviderType = errors.New("provider does not implement capability")

	// ErrMissingCapability is returned when a Request carries no capability.
	ErrMissingCapability = errors.New("capability is required")
)

type (
	// InvalidNameError describes why a provider name was rejected.
	// It wraps ErrInvalidName for errors.Is() compatibility.
	InvalidNameError struct {
		Value  string
		Reason string
	}

	// InvalidOverrideError is returned by Resolve when the override is not a
	// valid provider name. It is raised before any registry is queried.
	InvalidOverrideError struct {
		Override string
		Reason   string
	}

	// NoProviderError is returned when discovery yields no candidates.
	NoProviderError struct {
		Capability Capability
	}

	// InstantiationError carries the error raised by a candidate's factory.
	// Unwrap returns that error unchanged; errors.Is(err, ErrInstantiationFailure)
	// also holds.
	InstantiationError struct {
		Provider string
		Err      error
	}

	// DuplicateProviderError is returned when a registry already holds a
	// provider of the same name for the capability.
	DuplicateProviderError struct {
		Capability Capability
		Name       string
		Registry   string
	}
)

// Error implements the error interface.
func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("%q is not a valid provider name: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidName for errors.Is() compatibility.
func (e *InvalidNameError) Unwrap() error { return ErrInvalidName }

// Error implements the error interface.
func (e *InvalidOverrideError) Error() string {
	return fmt.Sprintf("%s is not a valid provider name: %s", e.Override, e.Reason)
}

// Unwrap returns ErrInvalidOverrideName for errors.Is() compatibility.
func (e *InvalidOverrideError) Unwrap() error { return ErrInvalidOverrideName }

// Error implements the error interface.
func (e *NoProviderError) Error() string {
	return "no provider found for " + e.Capability.Name()
}

// Unwrap returns ErrNoProviderFound for errors.Is() compatibility.
func (e *NoProviderError) Unwrap() error { return ErrNoProviderFound }

// Error implements the error interface.
func (e *InstantiationError) Error() string {
	return fmt.Sprintf("instantiate provider %s: %v", e.Provider, e.Err)
}

// Unwrap returns the factory's error.
func (e *InstantiationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrInstantiationFailure.
func (e *InstantiationError) Is(target error) bool { return target == ErrInstantiationFailure }

// Error implements the error interface.
func (e *DuplicateProviderError) Error() string {
	return fmt.Sprintf("provider %s already registered for %s in %s", e.Name, e.Capability.Name(), e.Registry)
}

// Unwrap returns ErrDuplicateProvider for errors.Is() compatibility.
func (e *DuplicateProviderError) Unwrap() error { return ErrDuplicateProvider }
