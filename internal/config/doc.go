// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/updatekit/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/updatekit/config.cue on macOS, %APPDATA%\updatekit\config.cue
// on Windows). It carries per-capability provider overrides, the manifest directories that
// form the context layer, the host version used for manifest constraints, and logging and
// metrics settings. Environment variables prefixed with UPDATEKIT_ override scalar values.
//
// Files are validated against an embedded CUE schema (config_schema.cue) before being merged
// into Viper; rules CUE cannot express (provider name syntax, duplicate overrides) are checked
// by Config.IsValid.
package config
