// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/updatekit/updatekit/internal/config"
	"github.com/updatekit/updatekit/internal/issue"
	"github.com/updatekit/updatekit/internal/logging"
	"github.com/updatekit/updatekit/pkg/service"
)

const (
	// exitUser is returned for errors the user can correct: a bad override,
	// an unknown capability, an invalid manifest or flag.
	exitUser = 1
	// exitInternal is returned when a provider fails or the request could
	// not be carried out for reasons outside the user's input.
	exitInternal = 2
)

var errUnknownCapability = errors.New("unknown capability")

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCode maps an error returned by the command tree to a process exit code.
// Errors not produced by a handler (flag parsing, unknown commands) are user errors.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return exitUser
}

// classify picks the issue catalog entry and exit code for err. A tag set by
// an *issue.ActionableError wins over the sentinel checks.
func classify(err error) (issue.Id, int) {
	if id := issue.IssueOf(err); id != 0 {
		return id, exitUser
	}
	switch {
	case errors.Is(err, service.ErrInvalidOverrideName), errors.Is(err, config.ErrInvalidOverride):
		return issue.InvalidOverrideNameId, exitUser
	case errors.Is(err, service.ErrNoProviderFound):
		return issue.NoProviderFoundId, exitUser
	case errors.Is(err, errUnknownCapability):
		return issue.CapabilityUnknownId, exitUser
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, errConfigLoad):
		return issue.ConfigLoadFailedId, exitUser
	case errors.Is(err, errUnknownConfigKey):
		return 0, exitUser
	case errors.Is(err, logging.ErrInvalidLevel), errors.Is(err, logging.ErrInvalidFormat):
		return 0, exitUser
	case errors.Is(err, service.ErrInstantiationFailure):
		return issue.InstantiationFailedId, exitInternal
	default:
		return 0, exitInternal
	}
}
