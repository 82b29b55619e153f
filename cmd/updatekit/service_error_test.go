// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/updatekit/updatekit/internal/config"
	"github.com/updatekit/updatekit/internal/issue"
	"github.com/updatekit/updatekit/internal/logging"
	"github.com/updatekit/updatekit/pkg/service"
	"github.com/updatekit/updatekit/pkg/service/manifest"
)

func TestNewServiceError_PanicsOnNilErr(t *testing.T) {
	t.Parallel()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on nil Err, got none")
		}
		msg, ok := r.(string)
		if !ok {
			t.Fatalf("expected string panic, got %T", r)
		}
		if msg != "ServiceError: Err must not be nil" {
			t.Fatalf("unexpected panic message: %s", msg)
		}
	}()

	newServiceError(nil, 0, "")
}

func TestServiceError_ErrorAndUnwrap(t *testing.T) {
	t.Parallel()

	underlying := errors.New("underlying error")
	svcErr := newServiceError(underlying, issue.NoProviderFoundId, "")

	if svcErr.Error() != "underlying error" {
		t.Errorf("Error() = %q, want %q", svcErr.Error(), "underlying error")
	}
	if !errors.Is(svcErr, underlying) {
		t.Error("errors.Is should find underlying error via Unwrap")
	}
	if svcErr.IssueID != issue.NoProviderFoundId {
		t.Errorf("IssueID = %d, want %d", svcErr.IssueID, issue.NoProviderFoundId)
	}
}

func TestRenderServiceError(t *testing.T) {
	t.Parallel()

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		renderServiceError(&buf, nil, "notty")
		if buf.Len() != 0 {
			t.Errorf("expected no output for nil ServiceError, got %q", buf.String())
		}
	})

	t.Run("styled message only", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		renderServiceError(&buf, newServiceError(errors.New("test"), 0, "only this"), "notty")
		if buf.String() != "only this" {
			t.Errorf("output = %q, want %q", buf.String(), "only this")
		}
	})

	t.Run("issue catalog entry", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		renderServiceError(&buf, newServiceError(errors.New("test"), issue.InvalidOverrideNameId, "styled: "), "notty")
		if buf.Len() <= len("styled: ") {
			t.Errorf("expected styled message + issue content, got only %q", buf.String())
		}
	})
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantID   issue.Id
		wantCode int
	}{
		{"invalid override", &service.InvalidOverrideError{Override: "1x", Reason: "bad"}, issue.InvalidOverrideNameId, exitUser},
		{"config override", &config.InvalidOverrideError{Reason: "bad"}, issue.InvalidOverrideNameId, exitUser},
		{"no provider", &service.NoProviderError{}, issue.NoProviderFoundId, exitUser},
		{"unknown capability", fmt.Errorf("%w: x.Y", errUnknownCapability), issue.CapabilityUnknownId, exitUser},
		{"manifest parse", manifestLoadError([]string{"m"}, &manifest.ParseError{Source: "a.toml", Err: errors.New("eof")}), issue.ManifestInvalidId, exitUser},
		{"manifest provider", fmt.Errorf("resolve: %w", manifestLoadError([]string{"m"}, manifest.ErrUnknownProvider)), issue.ManifestInvalidId, exitUser},
		{"untagged manifest error", manifest.ErrUnknownProvider, 0, exitInternal},
		{"tag wins over sentinel", issue.NewErrorContext(issue.ConfigLoadFailedId, "load configuration").Wrap(&service.NoProviderError{}), issue.ConfigLoadFailedId, exitUser},
		{"invalid config", &config.InvalidConfigError{}, issue.ConfigLoadFailedId, exitUser},
		{"config load", fmt.Errorf("%w: boom", errConfigLoad), issue.ConfigLoadFailedId, exitUser},
		{"log level", fmt.Errorf("%w: loud", logging.ErrInvalidLevel), 0, exitUser},
		{"config key", errUnknownConfigKey, 0, exitUser},
		{"instantiation", &service.InstantiationError{Provider: "a.B", Err: errors.New("boom")}, issue.InstantiationFailedId, exitInternal},
		{"other", errors.New("disk on fire"), 0, exitInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, code := classify(tt.err)
			if id != tt.wantID {
				t.Errorf("issue id = %d, want %d", id, tt.wantID)
			}
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	if got := exitCode(nil); got != 0 {
		t.Errorf("exitCode(nil) = %d, want 0", got)
	}
	if got := exitCode(errors.New("unknown flag")); got != exitUser {
		t.Errorf("exitCode(plain) = %d, want %d", got, exitUser)
	}
	wrapped := fmt.Errorf("run: %w", &ExitError{Code: exitInternal, Err: errors.New("x")})
	if got := exitCode(wrapped); got != exitInternal {
		t.Errorf("exitCode(wrapped ExitError) = %d, want %d", got, exitInternal)
	}
	if msg := (&ExitError{Code: 3}).Error(); msg != "exit status 3" {
		t.Errorf("ExitError.Error() = %q", msg)
	}
}
