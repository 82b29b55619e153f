// SPDX-License-Identifier: MPL-2.0

// Package service resolves the single active implementation of a pluggable
// capability at process start.
//
// Providers are discovered from two kinds of registries:
//   - a context-scoped Layer (for example one built from provider manifests),
//     which is optional and always takes precedence in enumeration order;
//   - a Realm, the compiled-in registry populated from init() functions.
//     The process-wide DefaultRealm is used when no realm is given.
//
// Resolution is a single synchronous pass:
//
//  1. An override name, if given, is validated before any registry is queried.
//  2. Candidates are aggregated, context first, realm second, each in its own
//     registration order. Nothing is instantiated yet.
//  3. A candidate whose name equals the override is instantiated and returned.
//  4. Otherwise every candidate is instantiated and the one reporting the
//     highest Version wins. Equal versions go to the later candidate.
//
// Typical use from a host application:
//
//	func init() {
//		service.MustProvide(service.DefaultRealm(), "console.Handler",
//			func() (update.Handler, error) { return console.New(), nil })
//	}
//
//	h, err := service.Load[update.Handler](service.WithOverride(name))
package service
