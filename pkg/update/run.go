// SPDX-License-Identifier: MPL-2.0

package update

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrNilHandler is returned by Run when no handler is given.
	ErrNilHandler = errors.New("update handler must not be nil")

	// ErrNilEngine is returned by Run when no engine is given.
	ErrNilEngine = errors.New("update engine must not be nil")

	// ErrPanic is wrapped by PanicError.
	ErrPanic = errors.New("update panicked")
)

type (
	// ProgressFunc receives the number of bytes processed so far for the
	// current file. A non-nil return must abort the engine operation and be
	// returned from it.
	ProgressFunc func(done int64) error

	// Engine performs the actual work of an update. Run only sequences the
	// calls and forwards progress to the Handler.
	Engine interface {
		// Check reports whether file needs to be updated.
		Check(ctx context.Context, file FileMetadata, progress ProgressFunc) (bool, error)
		// Download stages file into tempDir and returns the staged path.
		Download(ctx context.Context, file FileMetadata, tempDir string, progress ProgressFunc) (string, error)
		// Validate verifies a staged download.
		Validate(ctx context.Context, file FileMetadata, tempPath string) error
	}

	// PanicError reports a panic raised by a Handler callback or the Engine
	// while Run was driving them.
	PanicError struct {
		Value any
		Stack []byte
	}

	// tracker turns byte counts into monotonic fractions in [0,1].
	tracker struct {
		total int64
		last  float64
	}
)

// Run drives h through one update performed by eng. It returns the error
// passed to h.Failed, or nil after h.Succeeded. h.Stop is always called last.
// A panic in a callback or in eng is recovered and reported as *PanicError.
func Run(ctx context.Context, h Handler, uc *Context, eng Engine) error {
	if h == nil {
		return ErrNilHandler
	}
	defer h.Stop()

	err := runRecovered(ctx, h, uc, eng)
	if err != nil {
		h.Failed(err)
		return err
	}
	h.Succeeded()
	return nil
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("update panicked: %v", e.Value)
}

// Unwrap returns ErrPanic, and the panic value too when it is an error.
func (e *PanicError) Unwrap() []error {
	if err, ok := e.Value.(error); ok {
		return []error{ErrPanic, err}
	}
	return []error{ErrPanic}
}

func runRecovered(ctx context.Context, h Handler, uc *Context, eng Engine) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return run(ctx, h, uc, eng)
}

func run(ctx context.Context, h Handler, uc *Context, eng Engine) error {
	if eng == nil {
		return ErrNilEngine
	}
	if uc == nil {
		uc = &Context{}
	}
	uc.RequiresUpdate = nil
	uc.Downloaded = make(map[string]string)

	if err := h.Init(uc); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	if err := checkUpdates(ctx, h, uc, eng); err != nil {
		return err
	}
	return downloads(ctx, h, uc, eng)
}

func checkUpdates(ctx context.Context, h Handler, uc *Context, eng Engine) error {
	if err := h.StartCheckUpdates(); err != nil {
		return err
	}

	overall := newTracker(uc.Files)
	var checked int64
	for _, file := range uc.Files {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("check updates canceled: %w", err)
		}
		if err := h.StartCheckUpdateFile(file); err != nil {
			return err
		}

		base := checked
		requires, err := eng.Check(ctx, file, func(done int64) error {
			return h.UpdateCheckUpdatesProgress(overall.at(base + min(done, file.Size)))
		})
		if err != nil {
			return fmt.Errorf("check %s: %w", file.Path, err)
		}

		checked += file.Size
		if err := h.UpdateCheckUpdatesProgress(overall.at(checked)); err != nil {
			return err
		}
		if requires {
			uc.RequiresUpdate = append(uc.RequiresUpdate, file)
		}
		if err := h.DoneCheckUpdateFile(file, requires); err != nil {
			return err
		}
	}

	return h.DoneCheckUpdates()
}

func downloads(ctx context.Context, h Handler, uc *Context, eng Engine) error {
	if err := h.StartDownloads(); err != nil {
		return err
	}

	overall := newTracker(uc.RequiresUpdate)
	var downloaded int64
	for _, file := range uc.RequiresUpdate {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("downloads canceled: %w", err)
		}
		if err := h.StartDownloadFile(file); err != nil {
			return err
		}

		single := &tracker{total: file.Size}
		base := downloaded
		report := func(done int64) error {
			done = min(done, file.Size)
			if err := h.UpdateDownloadFileProgress(file, single.at(done)); err != nil {
				return err
			}
			return h.UpdateDownloadProgress(overall.at(base + done))
		}

		tempPath, err := eng.Download(ctx, file, uc.TempDir, report)
		if err != nil {
			return fmt.Errorf("download %s: %w", file.Path, err)
		}
		if err := report(file.Size); err != nil {
			return err
		}
		downloaded += file.Size

		if err := h.ValidatingFile(file, tempPath); err != nil {
			return err
		}
		if err := eng.Validate(ctx, file, tempPath); err != nil {
			return fmt.Errorf("validate %s: %w", file.Path, err)
		}
		uc.Downloaded[file.Path] = tempPath
		if err := h.DoneDownloadFile(file, tempPath); err != nil {
			return err
		}
	}

	return h.DoneDownloads()
}

func newTracker(files []FileMetadata) *tracker {
	t := &tracker{}
	for _, f := range files {
		t.total += max(f.Size, 0)
	}
	return t
}

// at returns done/total clamped to [0,1], never below a previous result.
// An empty total counts as complete.
func (t *tracker) at(done int64) float64 {
	frac := 1.0
	if t.total > 0 {
		frac = float64(done) / float64(t.total)
	}
	frac = min(max(frac, 0), 1)
	if frac < t.last {
		return t.last
	}
	t.last = frac
	return frac
}
