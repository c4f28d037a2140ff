/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 * Copyright (c) 2023, Gideon Williams <gideon@gideonw.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package argv is a combinator library over argument vectors. A grammar is
// assembled from small parsers, each consuming zero or more tokens off the
// front of a []string, and driven in a single synchronous pass, producing
// either a typed value plus the unconsumed suffix, or a Failure.
//
// Parsers are immutable values. Constructing one consumes nothing, and the
// same parser may be driven against any number of vectors, from any number
// of goroutines, because no state outlives a single Parse call.
package argv

import "strconv"

// Parser consumes tokens from the front of an argument vector and produces a
// value of type T. The description is what diagnostics call the thing this
// parser matches.
type Parser[T any] struct {
	desc string
	step func([]string) ([]string, T, error)
}

// New wraps a step function into a Parser.
//
// The step contract: on success the returned remainder must be a suffix of
// the input vector. A step drops a prefix; it never reorders, duplicates,
// or fabricates tokens. On failure the step's consumption is irrelevant;
// any combinator that survives a failure rewinds to its own input.
func New[T any](desc string, step func([]string) ([]string, T, error)) Parser[T] {
	return Parser[T]{desc: desc, step: step}
}

// Parse drives the parser against tokens exactly once and returns the
// outcome unchanged: the unconsumed suffix and the value, or a Failure.
func (p Parser[T]) Parse(tokens []string) ([]string, T, error) {
	return p.step(tokens)
}

// Description returns what diagnostics call this parser.
func (p Parser[T]) Description() string {
	return p.desc
}

// Describe returns a copy of p carrying a new description. Behavior is
// unchanged.
func (p Parser[T]) Describe(desc string) Parser[T] {
	p.desc = desc
	return p
}

// Single consumes exactly one token and classifies it. An empty vector is an
// end-of-input failure; a classify error is passed through unchanged and
// nothing is consumed.
func Single[T any](desc string, classify func(string) (T, error)) Parser[T] {
	return New(desc, func(tokens []string) ([]string, T, error) {
		var zero T
		if len(tokens) == 0 {
			return tokens, zero, EndOfInput()
		}
		v, err := classify(tokens[0])
		if err != nil {
			return tokens, zero, err
		}
		return tokens[1:], v, nil
	})
}

// Any consumes the next token as-is.
func Any() Parser[string] {
	return Single("any token", func(tok string) (string, error) {
		return tok, nil
	})
}

// Literal consumes the next token when it equals lit exactly, producing
// value. Anything else is a mismatch.
func Literal[T any](lit string, value T) Parser[T] {
	return Single(lit, func(tok string) (T, error) {
		var zero T
		if tok != lit {
			return zero, Mismatch(lit, tok)
		}
		return value, nil
	})
}

// Flag matches name, producing true. When the next token is anything else,
// or there is none, it produces false and consumes nothing.
func Flag(name string) Parser[bool] {
	return Fallback(Literal(name, true), false).Describe(name)
}

// Int consumes the next token as a base-10 integer.
func Int() Parser[int] {
	return Single("an integer", func(tok string) (int, error) {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return 0, Coercion("an integer", tok)
		}
		return n, nil
	})
}
