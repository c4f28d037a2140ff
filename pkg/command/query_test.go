/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package command

import (
	"testing"

	"github.com/dburkart/marionette/pkg/argv"
	"github.com/dburkart/marionette/pkg/device"
	"github.com/google/uuid"
)

var testUDID = uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")

func TestQueryParser(t *testing.T) {
	p := QueryParser()

	t.Run("udid clause", func(t *testing.T) {
		_, q, err := p.Parse([]string{testUDID.String()})
		if err != nil {
			t.Fatal(err)
		}
		if len(q.UDIDs) != 1 || q.UDIDs[0] != testUDID {
			t.Errorf("wanted one udid, got %+v", q)
		}
	})

	t.Run("state clause", func(t *testing.T) {
		_, q, err := p.Parse([]string{"--state", "booted", "--state", "booting"})
		if err != nil {
			t.Fatal(err)
		}
		if len(q.States) != 2 || q.States[0] != device.StateBooted || q.States[1] != device.StateBooting {
			t.Errorf("wanted two states, got %+v", q)
		}
	})

	t.Run("product clause", func(t *testing.T) {
		_, q, err := p.Parse([]string{"iPhone-8", "iPad-Air"})
		if err != nil {
			t.Fatal(err)
		}
		if len(q.Names) != 2 || q.Names[0] != "iPhone-8" || q.Names[1] != "iPad-Air" {
			t.Errorf("wanted two names, got %+v", q)
		}
	})

	t.Run("all clause", func(t *testing.T) {
		_, q, err := p.Parse([]string{"all"})
		if err != nil {
			t.Fatal(err)
		}
		if len(q.UDIDs) != 0 || len(q.Names) != 0 || len(q.States) != 0 {
			t.Errorf("all should add no criteria, got %+v", q)
		}
	})

	t.Run("clauses mix", func(t *testing.T) {
		rest, q, err := p.Parse([]string{testUDID.String(), "--state", "shutdown", "iPhone-11", "boot"})
		if err != nil {
			t.Fatal(err)
		}
		if len(q.UDIDs) != 1 || len(q.States) != 1 || len(q.Names) != 1 {
			t.Errorf("wanted one criterion of each kind, got %+v", q)
		}
		if len(rest) != 1 || rest[0] != "boot" {
			t.Errorf("wanted remainder [boot], got %v", rest)
		}
	})

	t.Run("no clause is a failure", func(t *testing.T) {
		_, _, err := p.Parse([]string{"boot"})
		if err == nil {
			t.Fatal("a vector with no query clause should not parse as a query")
		}
		if _, ok := argv.AsFailure(err); !ok {
			t.Errorf("wanted a parse failure, got %v", err)
		}
	})

	t.Run("bad state rewinds the clause", func(t *testing.T) {
		// "--state banana" fails mid-clause; the query as a whole must leave
		// the vector untouched for the next grammar.
		tokens := []string{"--state", "banana"}
		rest, _, err := argv.Optional(p).Parse(tokens)
		if err != nil {
			t.Fatal(err)
		}
		if len(rest) != len(tokens) {
			t.Errorf("wanted full rewind, got %v", rest)
		}
	})
}

func TestQueryMatches(t *testing.T) {
	booted := device.Device{UDID: testUDID, Name: "iPhone-8", State: device.StateBooted}
	shutdown := device.Device{UDID: uuid.MustParse("a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11"), Name: "iPad-Air", State: device.StateShutdown}

	tt := []struct {
		test  string
		query Query
		dev   device.Device
		want  bool
	}{
		{"empty query matches everything", Query{}, shutdown, true},
		{"udid match", Query{UDIDs: []uuid.UUID{testUDID}}, booted, true},
		{"udid mismatch", Query{UDIDs: []uuid.UUID{testUDID}}, shutdown, false},
		{"union within a kind", Query{Names: []string{"iPhone-8", "iPad-Air"}}, shutdown, true},
		{
			"intersection across kinds",
			Query{Names: []string{"iPhone-8", "iPad-Air"}, States: []device.State{device.StateBooted}},
			shutdown,
			false,
		},
		{
			"all criteria satisfied",
			Query{UDIDs: []uuid.UUID{testUDID}, Names: []string{"iPhone-8"}, States: []device.State{device.StateBooted}},
			booted,
			true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.test, func(t *testing.T) {
			if got := tc.query.Matches(tc.dev); got != tc.want {
				t.Errorf("wanted %v, got %v", tc.want, got)
			}
		})
	}
}
