// SPDX-License-Identifier: MPL-2.0

// Package manifest builds context-scoped provider layers from declaration
// files.
//
// A manifest names, per capability, which of the providers compiled into the
// binary a layer offers and in what order:
//
//	name = "plugins"
//	requires = ">= 1.2.0"
//
//	[[provides]]
//	capability = "github.com/updatekit/updatekit/pkg/update.Handler"
//	providers = ["console.Handler", "fancy.Handler"]
//
// TOML (.toml) and YAML (.yaml, .yml) are accepted. The optional requires
// field is a semantic version constraint on the host; manifests that exclude
// the running host are skipped. Providers are looked up in a catalog realm,
// so a manifest can reorder and restrict providers but never add code.
package manifest
