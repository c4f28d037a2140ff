/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package argv

import (
	"errors"
	"fmt"
)

// Kind enumerates every way a parse can fail. The set is closed; combinators
// and grammars reuse these kinds rather than inventing new error types, so
// callers can switch over a Failure exhaustively.
type Kind uint8

const (
	// KindEndOfInput means a token was required and none remained.
	KindEndOfInput Kind = iota
	// KindMismatch means the next token did not equal the expected literal.
	KindMismatch
	// KindCoercion means the next token could not be read as the target type.
	KindCoercion
	// KindCustom carries a grammar-supplied message.
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindEndOfInput:
		return "end-of-input"
	case KindMismatch:
		return "mismatch"
	case KindCoercion:
		return "coercion"
	case KindCustom:
		return "custom"
	}
	return "invalid"
}

// Failure is the error produced by every parser in this package. It is a
// plain value; combinators pass it through unchanged unless they absorb the
// failure outright (Optional, Fallback, Many, Alternative).
type Failure struct {
	Kind Kind

	// Expected holds the literal for KindMismatch, or the target type name
	// for KindCoercion.
	Expected string
	// Actual is the offending token, when there was one.
	Actual string
	// Message is only set for KindCustom.
	Message string
}

func (f *Failure) Error() string {
	switch f.Kind {
	case KindEndOfInput:
		return "unexpected end of input"
	case KindMismatch:
		return fmt.Sprintf("expected %q, got %q", f.Expected, f.Actual)
	case KindCoercion:
		return fmt.Sprintf("%q is not %s", f.Actual, f.Expected)
	case KindCustom:
		return f.Message
	}
	return "parse failure"
}

// EndOfInput reports that a token was required and the vector was empty.
func EndOfInput() error {
	return &Failure{Kind: KindEndOfInput}
}

// Mismatch reports that the token under examination was not the one the
// grammar called for.
func Mismatch(expected, actual string) error {
	return &Failure{Kind: KindMismatch, Expected: expected, Actual: actual}
}

// Coercion reports that a token could not be interpreted as the target type.
// The target reads as an indefinite noun phrase ("an integer", "a device
// udid") so the rendered message stays a sentence.
func Coercion(target, actual string) error {
	return &Failure{Kind: KindCoercion, Expected: target, Actual: actual}
}

// Customf builds a free-form failure.
func Customf(format string, args ...interface{}) error {
	return &Failure{Kind: KindCustom, Message: fmt.Sprintf(format, args...)}
}

// AsFailure unwraps err to the Failure this package produced, if any.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
