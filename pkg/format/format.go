/*
 * Copyright (c) 2023, Gideon Williams gideon@gideonw.com
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package format decides how matched devices are printed. A Format is parsed
// off the argument vector by the same combinator grammar that parses
// everything else, then handed to a Writer that renders report rows in the
// chosen style.
package format

import (
	"github.com/dburkart/marionette/pkg/argv"
)

// Style selects the renderer.
type Style uint8

const (
	Text Style = iota
	Table
	CSV
	JSON
)

func (s Style) String() string {
	switch s {
	case Table:
		return "table"
	case CSV:
		return "csv"
	case JSON:
		return "json"
	}
	return "text"
}

// Field names one column of device output.
type Field string

const (
	FieldUDID   Field = "udid"
	FieldName   Field = "name"
	FieldOS     Field = "os"
	FieldState  Field = "state"
	FieldArch   Field = "arch"
	FieldUptime Field = "uptime"
)

// Format is a rendering style plus the columns to emit, in order.
type Format struct {
	Style  Style
	Fields []Field
}

// DefaultFields returns the columns used when a format names a style but no
// fields.
func DefaultFields() []Field {
	return []Field{FieldUDID, FieldName, FieldOS, FieldState}
}

// DefaultFormat returns the format used when the vector carries no format
// terms at all.
func DefaultFormat() Format {
	return Format{Style: Text, Fields: DefaultFields()}
}

// A term folds one parsed flag into the format under construction.
type term func(Format) Format

func styleTerm(s Style) term {
	return func(f Format) Format {
		f.Style = s
		return f
	}
}

func fieldTerm(field Field) term {
	return func(f Format) Format {
		for _, existing := range f.Fields {
			if existing == field {
				return f
			}
		}
		f.Fields = append(f.Fields, field)
		return f
	}
}

// Parser returns the format grammar.
//
// Grammar:
//
//	format = format-term { format-term }
//	format-term = "--table" | "--csv" | "--json" |
//	              "--udid" | "--name" | "--os" | "--state" | "--arch" | "--uptime"
//
// Terms fold left to right. A later style replaces an earlier one; field
// order is kept and duplicates are dropped. A format with no field terms
// renders the default columns.
func Parser() argv.Parser[Format] {
	formatTerm := argv.Alternative(
		argv.Literal("--table", styleTerm(Table)),
		argv.Literal("--csv", styleTerm(CSV)),
		argv.Literal("--json", styleTerm(JSON)),
		argv.Literal("--udid", fieldTerm(FieldUDID)),
		argv.Literal("--name", fieldTerm(FieldName)),
		argv.Literal("--os", fieldTerm(FieldOS)),
		argv.Literal("--state", fieldTerm(FieldState)),
		argv.Literal("--arch", fieldTerm(FieldArch)),
		argv.Literal("--uptime", fieldTerm(FieldUptime)),
	)

	folded := argv.Map(argv.ManyCount(formatTerm, 1), func(terms []term) Format {
		f := Format{Style: Text}
		for _, t := range terms {
			f = t(f)
		}
		if len(f.Fields) == 0 {
			f.Fields = DefaultFields()
		}
		return f
	})

	return folded.Describe("a format")
}
