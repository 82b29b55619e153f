// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for updatekit.
//
// This package implements the Cobra command hierarchy used by host binaries
// to inspect and exercise provider resolution: listing candidates, resolving
// a capability, validating provider manifests and managing configuration.
// Host binaries blank-import their provider packages and call Execute.
package cmd
