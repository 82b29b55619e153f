// SPDX-License-Identifier: MPL-2.0

// Package logging builds log/slog loggers rendered by
// charmbracelet/log.
package logging
