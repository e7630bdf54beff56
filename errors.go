// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Error taxonomy shared by every component of the analysis core.
package metrisca

import (
	"errors"
	"fmt"
)

// ErrorKind enumerates the fail-fast error categories every fallible
// operation in the core returns.
type ErrorKind int

const (
	InvalidHeader ErrorKind = iota
	FileNotFound
	InvalidDataType
	InvalidCommand
	InvalidArgument
	UnsupportedOperation
	InvalidData
	UnknownPlugin
	MissingArgument
	IoFailure
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidHeader:
		return "invalid file header"
	case FileNotFound:
		return "file not found"
	case InvalidDataType:
		return "invalid data type"
	case InvalidCommand:
		return "invalid command"
	case InvalidArgument:
		return "invalid argument"
	case UnsupportedOperation:
		return "unsupported operation"
	case InvalidData:
		return "invalid data"
	case UnknownPlugin:
		return "unknown plugin"
	case MissingArgument:
		return "missing argument"
	case IoFailure:
		return "I/O failure"
	default:
		return "unknown error"
	}
}

// Error is the typed error value returned by every fallible core operation.
// It wraps an optional underlying cause the way the teacher wraps USB/memory
// failures ("ControlOut AddressBlock failed: %v").
type Error struct {
	Kind    ErrorKind
	Context string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		if e.Context != "" {
			return fmt.Sprintf("%s: %s: %v", e.Context, e.Kind, e.Cause)
		}
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s: %s", e.Context, e.Kind)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match on the error kind alone.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// NewError builds a new Error of the given kind with no context or cause.
func NewError(kind ErrorKind) *Error {
	return &Error{Kind: kind}
}

// Errorf builds a new Error of the given kind with a formatted context.
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Context: fmt.Sprintf(format, args...)}
}

// Wrap attaches a context message and an underlying cause to an error kind.
func Wrap(kind ErrorKind, context string, cause error) *Error {
	return &Error{Kind: kind, Context: context, Cause: cause}
}

// KindOf extracts the ErrorKind from err, if err is (or wraps) a *Error.
// The ok return is false for errors that did not originate in this package.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
