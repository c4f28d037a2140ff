/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package argv

import (
	"sync"
	"testing"
)

func wantFailure(t *testing.T, err error, kind Kind) *Failure {
	t.Helper()

	if err == nil {
		t.Fatalf("wanted a %s failure, got success", kind)
	}
	f, ok := AsFailure(err)
	if !ok {
		t.Fatalf("wanted a Failure, got %T: %v", err, err)
	}
	if f.Kind != kind {
		t.Fatalf("wanted kind %s, got %s (%v)", kind, f.Kind, f)
	}
	return f
}

// wantSuffix checks the no-fabrication invariant: rest must be a suffix of
// the original vector, sharing its backing array.
func wantSuffix(t *testing.T, tokens, rest []string) {
	t.Helper()

	if len(rest) > len(tokens) {
		t.Fatalf("remainder grew: %d tokens in, %d out", len(tokens), len(rest))
	}
	offset := len(tokens) - len(rest)
	for i := range rest {
		if rest[i] != tokens[offset+i] {
			t.Fatalf("remainder is not a suffix: wanted %v at the tail of %v", rest, tokens)
		}
	}
}

func TestLiteral(t *testing.T) {
	boot := Literal("boot", 7)

	rest, v, err := boot.Parse([]string{"boot", "--extra"})
	if err != nil {
		t.Fatal(err)
	}
	if v != 7 {
		t.Errorf("wanted 7, got %d", v)
	}
	if len(rest) != 1 || rest[0] != "--extra" {
		t.Errorf("wanted remainder [--extra], got %v", rest)
	}

	_, _, err = boot.Parse([]string{"launch"})
	f := wantFailure(t, err, KindMismatch)
	if f.Expected != "boot" || f.Actual != "launch" {
		t.Errorf("wanted mismatch boot/launch, got %s/%s", f.Expected, f.Actual)
	}

	_, _, err = boot.Parse(nil)
	wantFailure(t, err, KindEndOfInput)
}

func TestAny(t *testing.T) {
	tokens := []string{"one", "two"}
	rest, v, err := Any().Parse(tokens)
	if err != nil {
		t.Fatal(err)
	}
	if v != "one" {
		t.Errorf("wanted 'one', got %q", v)
	}
	wantSuffix(t, tokens, rest)
	if len(rest) != 1 {
		t.Errorf("wanted 1 remaining token, got %d", len(rest))
	}
}

func TestInt(t *testing.T) {
	rest, v, err := Int().Parse([]string{"42", "rest"})
	if err != nil {
		t.Fatal(err)
	}
	if v != 42 {
		t.Errorf("wanted 42, got %d", v)
	}
	if len(rest) != 1 || rest[0] != "rest" {
		t.Errorf("wanted remainder [rest], got %v", rest)
	}

	tokens := []string{"abc"}
	rest, _, err = Int().Parse(tokens)
	f := wantFailure(t, err, KindCoercion)
	if f.Actual != "abc" {
		t.Errorf("wanted offending token 'abc', got %q", f.Actual)
	}
	if len(rest) != len(tokens) {
		t.Errorf("coercion failure consumed input: %v", rest)
	}
}

func TestFlag(t *testing.T) {
	verbose := Flag("--verbose")

	rest, v, err := verbose.Parse([]string{"--verbose", "x"})
	if err != nil || v != true {
		t.Errorf("wanted (true, nil), got (%v, %v)", v, err)
	}
	if len(rest) != 1 || rest[0] != "x" {
		t.Errorf("wanted remainder [x], got %v", rest)
	}

	rest, v, err = verbose.Parse([]string{"x"})
	if err != nil || v != false {
		t.Errorf("wanted (false, nil), got (%v, %v)", v, err)
	}
	if len(rest) != 1 || rest[0] != "x" {
		t.Errorf("flag absence should consume nothing, got remainder %v", rest)
	}
}

func TestSingleEmptyInput(t *testing.T) {
	p := Single("anything", func(tok string) (string, error) {
		return tok, nil
	})
	_, _, err := p.Parse([]string{})
	wantFailure(t, err, KindEndOfInput)
}

func TestSinglePassesClassifyFailureThrough(t *testing.T) {
	custom := Customf("no good")
	p := Single("picky", func(tok string) (string, error) {
		return "", custom
	})

	tokens := []string{"a", "b"}
	rest, _, err := p.Parse(tokens)
	if err != custom {
		t.Errorf("wanted the classify error unchanged, got %v", err)
	}
	if len(rest) != 2 {
		t.Errorf("failed classify should consume nothing, got remainder %v", rest)
	}
}

func TestDescribe(t *testing.T) {
	p := Literal("boot", true)
	q := p.Describe("the boot keyword")

	if q.Description() != "the boot keyword" {
		t.Errorf("wanted new description, got %q", q.Description())
	}
	if p.Description() != "boot" {
		t.Errorf("Describe mutated the original parser: %q", p.Description())
	}

	// Behavior must be untouched.
	_, v, err := q.Parse([]string{"boot"})
	if err != nil || v != true {
		t.Errorf("describe changed behavior: (%v, %v)", v, err)
	}
}

func TestParserIsReusableConcurrently(t *testing.T) {
	p := Seq2(Literal("boot", "boot"), Int(), func(k string, n int) int {
		return n
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tokens := []string{"boot", "12", "tail"}
			rest, v, err := p.Parse(tokens)
			if err != nil || v != 12 {
				t.Errorf("wanted (12, nil), got (%v, %v)", v, err)
			}
			if len(rest) != 1 || rest[0] != "tail" {
				t.Errorf("wanted remainder [tail], got %v", rest)
			}
		}(i)
	}
	wg.Wait()
}

func TestFailureMessages(t *testing.T) {
	tt := []struct {
		test string
		err  error
		want string
	}{
		{"end of input", EndOfInput(), "unexpected end of input"},
		{"mismatch", Mismatch("boot", "launch"), `expected "boot", got "launch"`},
		{"coercion", Coercion("an integer", "abc"), `"abc" is not an integer`},
		{"custom", Customf("found %d of %d", 1, 3), "found 1 of 3"},
	}

	for _, tc := range tt {
		t.Run(tc.test, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Errorf("wanted %q, got %q", tc.want, got)
			}
		})
	}
}
