// Copyright 2024 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errkind defines the closed set of errors the compiler can
// raise, each a go-errors.v1 Kind constructed with New.
package errkind

import (
	"github.com/pkg/errors"
	goerrors "gopkg.in/src-d/go-errors.v1"
)

// Unimplemented is raised for a plan or scalar construct outside the
// supported subset. Always fatal.
var Unimplemented = goerrors.NewKind("unimplemented: %s")

// Translation is raised when the input plan is well-formed but
// violates a compiler invariant (wrong operand count, row index out
// of range, ...). Always fatal.
var Translation = goerrors.NewKind("translation error: %s")

// UnsupportedPromotion is raised when reduceType finds no common type
// for a binary operation. Always fatal.
var UnsupportedPromotion = goerrors.NewKind("no common type for %s and %s")

// DuplicateDefinition is raised when a CREATE VIEW re-declares an
// already-used name. Reported as a diagnostic; the caller is expected
// to drop the redefinition rather than propagate the error upward.
var DuplicateDefinition = goerrors.NewKind("%s is already defined")

// TypeMismatch is raised when a declared output type disagrees with
// the computed type after casts have been tried. Always fatal.
var TypeMismatch = goerrors.NewKind("declared type %s does not match computed type %s")

// Fatal wraps an error raised by one of the fatal kinds above with a
// stack trace captured where Fatal is called, keeping the original
// message intact for callers matching on the Kind.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(err)
}

// IsDuplicateDefinition reports whether err is (or wraps) a
// DuplicateDefinition diagnostic, the only non-fatal kind in the
// taxonomy.
func IsDuplicateDefinition(err error) bool {
	return kindIs(DuplicateDefinition, err)
}

// IsUnimplemented reports whether err is (or wraps) an Unimplemented
// error.
func IsUnimplemented(err error) bool {
	return kindIs(Unimplemented, err)
}

// kindIs reports whether err, or any error in its Unwrap chain (such as
// the WithStack wrapper Fatal adds), is of kind k.
func kindIs(k *goerrors.Kind, err error) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if k.Is(err) {
			return true
		}
	}
	return false
}
