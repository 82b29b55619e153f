// SPDX-License-Identifier: MPL-2.0

package service

import (
	"errors"
	"go/token"
	"strings"
)

// ValidateName checks that name is one or more Go identifiers joined by
// dots, e.g. "console.Handler" or "acme.ui.Handler". Keywords are rejected
// in every segment. It returns *InvalidNameError on failure.
func ValidateName(name string) error {
	if name == "" {
		return &InvalidNameError{Value: name, Reason: "name is empty"}
	}
	for _, seg := range strings.Split(name, ".") {
		switch {
		case seg == "":
			return &InvalidNameError{Value: name, Reason: "empty segment"}
		case token.IsKeyword(seg):
			return &InvalidNameError{Value: name, Reason: "segment " + seg + " is a keyword"}
		case !token.IsIdentifier(seg):
			return &InvalidNameError{Value: name, Reason: "segment " + seg + " is not an identifier"}
		}
	}
	return nil
}

// ValidateOverride checks an override name before any discovery. The empty
// string means no override and is accepted. Failures are *InvalidOverrideError.
func ValidateOverride(name string) error {
	if name == "" {
		return nil
	}
	err := ValidateName(name)
	if err == nil {
		return nil
	}
	reason := err.Error()
	var nameErr *InvalidNameError
	if errors.As(err, &nameErr) {
		reason = nameErr.Reason
	}
	return &InvalidOverrideError{Override: name, Reason: reason}
}
