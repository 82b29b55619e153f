// SPDX-License-Identifier: MPL-2.0

// Package update defines the update lifecycle observer capability and the
// driver that feeds it a fixed event sequence.
//
// A Handler is a pluggable service resolved through package service; the
// engine that checks and downloads files is supplied by the caller through
// the Engine interface. Run emits, in order:
//
//	Init
//	StartCheckUpdates
//	  per file: StartCheckUpdateFile, UpdateCheckUpdatesProgress, DoneCheckUpdateFile
//	DoneCheckUpdates
//	StartDownloads
//	  per file needing update: StartDownloadFile, UpdateDownloadFileProgress,
//	  UpdateDownloadProgress, ValidatingFile, DoneDownloadFile
//	DoneDownloads
//	Succeeded | Failed(err)
//	Stop
//
// Progress fractions are measured in bytes, lie in [0,1] and never decrease.
// The first error from any step ends the sequence and is passed to Failed.
// Stop is always the final call.
package update
