// SPDX-License-Identifier: MPL-2.0

package update

import (
	"github.com/updatekit/updatekit/pkg/service"
)

//nolint:gochecknoglobals // Capability descriptors are immutable values.
var Capability = service.CapabilityOf[Handler]()

type (
	// FileMetadata describes one file managed by an update.
	FileMetadata struct {
		// URI is where the engine fetches the file from.
		URI string
		// Path is the file's install location.
		Path string
		// Size is the file size in bytes; progress is weighted by it.
		Size int64
		// Checksum is the expected content hash, engine-defined format.
		Checksum string
	}

	// Context is shared with the handler for the duration of one run.
	Context struct {
		// BasePath is the directory files are installed relative to.
		BasePath string
		// TempDir is where the engine stages downloads.
		TempDir string
		// Files lists every file the update covers.
		Files []FileMetadata
		// RequiresUpdate is filled during the check phase.
		RequiresUpdate []FileMetadata
		// Downloaded is filled during the download phase, keyed by Path,
		// with the staged temp file as value.
		Downloaded map[string]string
	}

	// Handler observes an update run. Every callback may return an error,
	// which aborts the run and is routed to Failed.
	Handler interface {
		service.Service

		Init(uc *Context) error
		StartCheckUpdates() error
		StartCheckUpdateFile(file FileMetadata) error
		DoneCheckUpdateFile(file FileMetadata, requiresUpdate bool) error
		// UpdateCheckUpdatesProgress reports bytes checked over total bytes.
		UpdateCheckUpdatesProgress(frac float64) error
		DoneCheckUpdates() error

		StartDownloads() error
		StartDownloadFile(file FileMetadata) error
		UpdateDownloadFileProgress(file FileMetadata, frac float64) error
		UpdateDownloadProgress(frac float64) error
		ValidatingFile(file FileMetadata, tempPath string) error
		DoneDownloadFile(file FileMetadata, tempPath string) error
		DoneDownloads() error

		Failed(err error)
		Succeeded()
		Stop()
	}

	// Base implements every Handler callback as a no-op. Embed it and
	// override what is needed; Version must still be provided.
	Base struct{}
)

// LoadHandler resolves the active Handler.
func LoadHandler(opts ...service.Option) (Handler, error) {
	return service.Load[Handler](opts...)
}

// Init implements Handler as a no-op.
func (Base) Init(*Context) error { return nil }

// StartCheckUpdates implements Handler as a no-op.
func (Base) StartCheckUpdates() error { return nil }

// StartCheckUpdateFile implements Handler as a no-op.
func (Base) StartCheckUpdateFile(FileMetadata) error { return nil }

// DoneCheckUpdateFile implements Handler as a no-op.
func (Base) DoneCheckUpdateFile(FileMetadata, bool) error { return nil }

// UpdateCheckUpdatesProgress implements Handler as a no-op.
func (Base) UpdateCheckUpdatesProgress(float64) error { return nil }

// DoneCheckUpdates implements Handler as a no-op.
func (Base) DoneCheckUpdates() error { return nil }

// StartDownloads implements Handler as a no-op.
func (Base) StartDownloads() error { return nil }

// StartDownloadFile implements Handler as a no-op.
func (Base) StartDownloadFile(FileMetadata) error { return nil }

// UpdateDownloadFileProgress implements Handler as a no-op.
func (Base) UpdateDownloadFileProgress(FileMetadata, float64) error { return nil }

// UpdateDownloadProgress implements Handler as a no-op.
func (Base) UpdateDownloadProgress(float64) error { return nil }

// ValidatingFile implements Handler as a no-op.
func (Base) ValidatingFile(FileMetadata, string) error { return nil }

// DoneDownloadFile implements Handler as a no-op.
func (Base) DoneDownloadFile(FileMetadata, string) error { return nil }

// DoneDownloads implements Handler as a no-op.
func (Base) DoneDownloads() error { return nil }

// Failed implements Handler as a no-op.
func (Base) Failed(error) {}

// Succeeded implements Handler as a no-op.
func (Base) Succeeded() {}

// Stop implements Handler as a no-op.
func (Base) Stop() {}
