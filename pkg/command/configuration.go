/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package command assembles the full command-line grammar out of the argv
// combinators: a leading configuration, an optional device query, an
// optional output format, and exactly one action.
package command

import (
	"os"
	"path/filepath"

	"github.com/dburkart/marionette/pkg/argv"
)

// Options are configuration switches that accumulate by union, so they may
// appear in any order.
type Options uint8

const (
	OptionKillStale Options = 1 << iota
	OptionIgnoreMissing
)

func (o Options) Union(other Options) Options {
	return o | other
}

func (o Options) Has(flag Options) bool {
	return o&flag != 0
}

// Configuration is everything a command establishes before naming devices or
// an action.
type Configuration struct {
	DebugLogging bool
	Set          string
	Options      Options
}

// DefaultSetPath is where the device set lives when --set is absent.
func DefaultSetPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./devices"
	}
	return filepath.Join(home, ".marionette", "devices")
}

// ConfigurationParser returns the configuration grammar.
//
// Grammar:
//
//	configuration = [ "--debug-logging" ] [ "--set" path ] { option }
//	option = "--kill-stale" | "--ignore-missing"
//
// Every piece is optional, so the parser always succeeds; an empty vector
// parses to the defaults.
func ConfigurationParser() argv.Parser[Configuration] {
	return argv.Seq3(
		argv.Flag("--debug-logging"),
		argv.Fallback(argv.Then(argv.Literal("--set", "--set"), argv.Any()), DefaultSetPath()),
		argv.Union(
			argv.Literal("--kill-stale", OptionKillStale),
			argv.Literal("--ignore-missing", OptionIgnoreMissing),
		),
		func(debug bool, set string, options Options) Configuration {
			return Configuration{DebugLogging: debug, Set: set, Options: options}
		},
	).Describe("a configuration")
}
