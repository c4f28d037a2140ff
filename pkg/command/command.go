/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package command

import (
	"strings"

	"github.com/dburkart/marionette/pkg/argv"
	"github.com/dburkart/marionette/pkg/format"
)

// Command is one fully parsed invocation. Query and Format are nil when the
// vector didn't carry them; defaults are applied later, not invented here.
type Command struct {
	Configuration Configuration
	Query         *Query
	Format        *format.Format
	Action        Action
}

// Parser returns the whole command grammar.
//
// Grammar:
//
//	command = configuration [ query ] [ format ] action
//
// The query is attempted before the format, so a vector that could open
// either way reads as a query.
func Parser() argv.Parser[Command] {
	return argv.Bind(ConfigurationParser(), func(c Configuration) argv.Parser[Command] {
		return argv.Seq3(
			argv.Optional(QueryParser()),
			argv.Optional(format.Parser()),
			ActionParser(),
			func(q *Query, f *format.Format, a Action) Command {
				return Command{Configuration: c, Query: q, Format: f, Action: a}
			},
		)
	}).Describe("a command")
}

// Parse drives the command grammar over a full vector. Tokens left over
// after the action are an error, not a second command.
func Parse(tokens []string) (Command, error) {
	rest, cmd, err := Parser().Parse(tokens)
	if err != nil {
		return Command{}, err
	}
	if len(rest) > 0 {
		return Command{}, argv.Customf("unrecognized trailing arguments: %s", strings.Join(rest, " "))
	}
	return cmd, nil
}
