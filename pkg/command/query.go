/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package command

import (
	"github.com/dburkart/marionette/pkg/argv"
	"github.com/dburkart/marionette/pkg/device"
	"github.com/google/uuid"
)

// Query selects devices. Criteria of the same kind broaden the selection and
// criteria of different kinds narrow it: a device matches when it satisfies
// at least one entry in every non-empty list.
type Query struct {
	UDIDs  []uuid.UUID
	Names  []string
	States []device.State
}

// Matches reports whether the device satisfies the query. A query with no
// criteria (the bare "all") matches everything.
func (q Query) Matches(d device.Device) bool {
	if len(q.UDIDs) > 0 {
		found := false
		for _, u := range q.UDIDs {
			if u == d.UDID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(q.Names) > 0 {
		found := false
		for _, n := range q.Names {
			if n == d.Name {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(q.States) > 0 {
		found := false
		for _, s := range q.States {
			if s == d.State {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// A queryClause folds one parsed criterion into the query under
// construction.
type queryClause func(Query) Query

func udidToken() argv.Parser[uuid.UUID] {
	return argv.Convert(argv.Any(), func(tok string) (uuid.UUID, error) {
		u, err := uuid.Parse(tok)
		if err != nil {
			return uuid.Nil, argv.Coercion("a udid", tok)
		}
		return u, nil
	}).Describe("a udid")
}

func stateToken() argv.Parser[device.State] {
	return argv.Convert(argv.Any(), func(tok string) (device.State, error) {
		s, err := device.StateFromString(tok)
		if err != nil {
			return device.StateUnknown, argv.Coercion("a device state", tok)
		}
		return s, nil
	}).Describe("a device state")
}

func productToken() argv.Parser[device.Product] {
	return argv.Convert(argv.Any(), func(tok string) (device.Product, error) {
		p, ok := device.ProductNamed(tok)
		if !ok {
			return device.Product{}, argv.Coercion("a product name", tok)
		}
		return p, nil
	}).Describe("a product name")
}

// QueryParser returns the device query grammar.
//
// Grammar:
//
//	query = query-clause { query-clause }
//	query-clause = udid | "--state" state | product | "all"
//
// A udid is checked before a product name, so a token that parses as both
// reads as a udid. The bare "all" clause matches every device.
func QueryParser() argv.Parser[Query] {
	clause := argv.Alternative(
		argv.Map(argv.Then(argv.Literal("--state", "--state"), stateToken()), func(s device.State) queryClause {
			return func(q Query) Query {
				q.States = append(q.States, s)
				return q
			}
		}),
		argv.Map(udidToken(), func(u uuid.UUID) queryClause {
			return func(q Query) Query {
				q.UDIDs = append(q.UDIDs, u)
				return q
			}
		}),
		argv.Literal("all", queryClause(func(q Query) Query { return q })),
		argv.Map(productToken(), func(p device.Product) queryClause {
			return func(q Query) Query {
				q.Names = append(q.Names, p.Name)
				return q
			}
		}),
	)

	return argv.Map(argv.ManyCount(clause, 1), func(clauses []queryClause) Query {
		var q Query
		for _, c := range clauses {
			q = c(q)
		}
		return q
	}).Describe("a device query")
}
