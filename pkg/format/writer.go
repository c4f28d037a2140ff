/*
 * Copyright (c) 2023, Gideon Williams gideon@gideonw.com
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package format

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Printable is anything renderable as rows of columns.
type Printable interface {
	Headers() []string
	Values() [][]string
}

type Writer interface {
	Write(v Printable)
}

type TextWriter struct {
	w io.Writer
}

type TableWriter struct {
	w io.Writer
}

type CSVWriter struct {
	w io.Writer
}

type JSONWriter struct {
	w io.Writer
}

// NewWriter returns the renderer for the format's style.
func NewWriter(w io.Writer, f Format) Writer {
	switch f.Style {
	case Table:
		return TableWriter{
			w,
		}
	case CSV:
		return CSVWriter{
			w,
		}
	case JSON:
		return JSONWriter{
			w,
		}
	}
	return TextWriter{
		w,
	}
}

// Write emits one pipe-separated line per row.
func (w TextWriter) Write(v Printable) {
	for _, row := range v.Values() {
		fmt.Fprintln(w.w, strings.Join(row, " | "))
	}
}

func (w TableWriter) Write(v Printable) {
	table := tablewriter.NewWriter(w.w)
	table.SetHeader(v.Headers())
	table.AppendBulk(v.Values())
	table.Render()
}

func (w CSVWriter) Write(v Printable) {
	wtr := csv.NewWriter(w.w)
	wtr.Write(v.Headers())
	wtr.WriteAll(v.Values())
}

func (w JSONWriter) Write(v Printable) {
	enc := json.NewEncoder(w.w)
	enc.Encode(v)
}
