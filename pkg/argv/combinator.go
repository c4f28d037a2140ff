/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package argv

import (
	"strings"
	"sync"
)

// Map transforms a parser's value on success. Failures pass through
// unchanged.
func Map[A, B any](p Parser[A], f func(A) B) Parser[B] {
	return New(p.desc, func(tokens []string) ([]string, B, error) {
		rest, a, err := p.step(tokens)
		if err != nil {
			var zero B
			return tokens, zero, err
		}
		return rest, f(a), nil
	})
}

// Convert is Map for transforms that can reject their input. A transform
// error becomes the outcome of the parse, and nothing is consumed.
func Convert[A, B any](p Parser[A], f func(A) (B, error)) Parser[B] {
	return New(p.desc, func(tokens []string) ([]string, B, error) {
		var zero B
		rest, a, err := p.step(tokens)
		if err != nil {
			return tokens, zero, err
		}
		b, err := f(a)
		if err != nil {
			return tokens, zero, err
		}
		return rest, b, nil
	})
}

// Bind sequences two parses: it runs p, feeds the value to f, and runs the
// parser f returns against p's remainder. Every other sequencing combinator
// in this package is built on Bind.
func Bind[A, B any](p Parser[A], f func(A) Parser[B]) Parser[B] {
	return New(p.desc, func(tokens []string) ([]string, B, error) {
		rest, a, err := p.step(tokens)
		if err != nil {
			var zero B
			return tokens, zero, err
		}
		return f(a).step(rest)
	})
}

// Then runs first, discards its value, and runs second against the
// remainder. This is the "keyword followed by payload" shape.
func Then[A, B any](first Parser[A], second Parser[B]) Parser[B] {
	return Bind(first, func(A) Parser[B] {
		return second
	})
}

// Seq2 runs two parsers in order and joins their values into one result.
func Seq2[A, B, R any](pa Parser[A], pb Parser[B], join func(A, B) R) Parser[R] {
	return Bind(pa, func(a A) Parser[R] {
		return Map(pb, func(b B) R {
			return join(a, b)
		})
	})
}

// Seq3 runs three parsers in order and joins their values into one result.
func Seq3[A, B, C, R any](pa Parser[A], pb Parser[B], pc Parser[C], join func(A, B, C) R) Parser[R] {
	return Bind(pa, func(a A) Parser[R] {
		return Seq2(pb, pc, func(b B, c C) R {
			return join(a, b, c)
		})
	})
}

// Optional attempts p. On failure it produces nil and hands back the
// caller's vector untouched, no matter how much p consumed before failing;
// from the caller's perspective an optional parse is all-or-nothing.
// Optional never fails.
func Optional[T any](p Parser[T]) Parser[*T] {
	return New(p.desc, func(tokens []string) ([]string, *T, error) {
		rest, v, err := p.step(tokens)
		if err != nil {
			return tokens, nil, nil
		}
		return rest, &v, nil
	})
}

// Fallback is Optional with a concrete default in place of nil.
func Fallback[T any](p Parser[T], def T) Parser[T] {
	return New(p.desc, func(tokens []string) ([]string, T, error) {
		rest, v, err := p.step(tokens)
		if err != nil {
			return tokens, def, nil
		}
		return rest, v, nil
	})
}

// Alternative tries each parser in order against the caller's vector and
// returns the first success. There is no longest-match arbitration: an
// earlier success wins even when a later alternative would have consumed
// more input. When every alternative fails, the result is a single mismatch
// naming everything that was tried.
func Alternative[T any](parsers ...Parser[T]) Parser[T] {
	descs := make([]string, len(parsers))
	for i, p := range parsers {
		descs[i] = p.desc
	}
	desc := "any of [" + strings.Join(descs, ", ") + "]"

	return New(desc, func(tokens []string) ([]string, T, error) {
		for _, p := range parsers {
			rest, v, err := p.step(tokens)
			if err == nil {
				return rest, v, nil
			}
		}
		var zero T
		actual := "end of input"
		if len(tokens) > 0 {
			actual = tokens[0]
		}
		return tokens, zero, Mismatch(desc, actual)
	})
}

// ManyCount repeats p against successively shrinking remainders until an
// attempt fails or the vector runs out, collecting values in order. The
// failure that stops the repetition is swallowed; whether the run stopped on
// a rejected token or exhausted input is not recorded. Fewer than min
// successes is a failure reporting how many were parsed.
//
// A repetition that succeeds without consuming is cut off rather than
// collected; repeating it would never terminate.
func ManyCount[T any](p Parser[T], min int) Parser[[]T] {
	return New(p.desc, func(tokens []string) ([]string, []T, error) {
		var values []T
		remaining := tokens
		for {
			rest, v, err := p.step(remaining)
			if err != nil {
				break
			}
			if len(rest) == len(remaining) {
				break
			}
			values = append(values, v)
			remaining = rest
		}
		if len(values) < min {
			return tokens, nil, Customf("expected %d or more of %s, found %d", min, p.desc, len(values))
		}
		return remaining, values, nil
	})
}

// Many is the zero-or-more form of ManyCount. It never fails.
func Many[T any](p Parser[T]) Parser[[]T] {
	return ManyCount(p, 0)
}

// AlternativeMany collects an unordered run drawn from the given
// alternatives.
func AlternativeMany[T any](parsers ...Parser[T]) Parser[[]T] {
	return Many(Alternative(parsers...))
}

// OptionSet is the constraint for option values that accumulate by union.
// The zero value of an implementation is the empty set.
type OptionSet[T any] interface {
	Union(T) T
}

// Union parses an unordered run of option flags and folds every match into
// one combined value. Two vectors carrying the same flags in different
// orders produce the same result.
func Union[T OptionSet[T]](parsers ...Parser[T]) Parser[T] {
	return Map(AlternativeMany(parsers...), func(opts []T) T {
		var merged T
		for _, o := range opts {
			merged = merged.Union(o)
		}
		return merged
	})
}

// Lazy defers grammar construction until the parser is first driven, which
// lets recursive and mutually-recursive grammars reference one another
// without looping at construction time. The constructed parser is memoized.
func Lazy[T any](construct func() Parser[T]) Parser[T] {
	once := sync.OnceValue(construct)
	return New("deferred", func(tokens []string) ([]string, T, error) {
		return once().step(tokens)
	})
}
