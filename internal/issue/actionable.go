// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type (
	// ActionableError is a user-correctable failure tagged with the catalog
	// entry that explains it. The command layer reads Issue to pick the help
	// text and exit code instead of matching the cause chain.
	//
	//	return issue.NewErrorContext(issue.ManifestInvalidId, "load provider manifests").
	//		WithResource(dir).
	//		WithSuggestion("Run 'updatekit manifest validate " + dir + "'").
	//		Wrap(err)
	ActionableError struct {
		// Issue is the catalog entry rendered for this failure. Zero means none.
		Issue Id

		// Operation is a verb phrase such as "load configuration".
		Operation string

		// Resource names the file or directory involved, if any.
		Resource string

		// Suggestions are printed as bullets under the message.
		Suggestions []string

		// Cause is the underlying error.
		Cause error
	}

	// ErrorContext accumulates the fields of an ActionableError. A context may
	// be wrapped around several causes; each Wrap gets its own suggestion slice.
	ErrorContext struct {
		issue       Id
		operation   string
		resource    string
		suggestions []string
	}
)

// NewErrorContext starts an ActionableError for operation, tagged with id.
func NewErrorContext(id Id, operation string) *ErrorContext {
	return &ErrorContext{issue: id, operation: operation}
}

// WithResource sets the file or directory the operation touched.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.resource = res
	return c
}

// WithSuggestion appends a remediation hint.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.suggestions = append(c.suggestions, sug)
	return c
}

// Wrap returns cause as an *ActionableError carrying the context, or nil
// when cause is nil.
func (c *ErrorContext) Wrap(cause error) error {
	if cause == nil {
		return nil
	}
	return &ActionableError{
		Issue:       c.issue,
		Operation:   c.operation,
		Resource:    c.resource,
		Suggestions: slices.Clone(c.suggestions),
		Cause:       cause,
	}
}

// IssueOf returns the Issue of the outermost tagged *ActionableError in err's
// chain, or zero when there is none.
func IssueOf(err error) Id {
	for err != nil {
		var ae *ActionableError
		if !errors.As(err, &ae) {
			return 0
		}
		if ae.Issue != 0 {
			return ae.Issue
		}
		err = ae.Cause
	}
	return 0
}

func (e *ActionableError) Error() string {
	var msg strings.Builder
	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)
	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}
	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}
	return msg.String()
}

func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format renders the message followed by one bullet per suggestion. With
// verbose set the cause chain is listed as well, one numbered line per link.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder
	msg.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n")
		for _, s := range e.Suggestions {
			msg.WriteString("\n  • ")
			msg.WriteString(s)
		}
	}

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nError chain:")
		depth := 1
		for err := e.Cause; err != nil; err = errors.Unwrap(err) {
			fmt.Fprintf(&msg, "\n  %d. %s", depth, err.Error())
			depth++
		}
	}

	return msg.String()
}
