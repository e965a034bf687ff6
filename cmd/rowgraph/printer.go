// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/canonical/rowgraph"
)

const indentStep = "  "

// printer writes records as an indented tree. Each collection is a header
// line followed by one line per record, with the record's own collections
// nested beneath it.
type printer struct {
	out   io.Writer
	table *color.Color
	field *color.Color
	null  *color.Color
}

func newPrinter(out io.Writer) *printer {
	return &printer{
		out:   out,
		table: color.New(color.FgCyan, color.Bold),
		field: color.New(color.Faint),
		null:  color.New(color.FgYellow),
	}
}

func (p *printer) records(name string, records []*rowgraph.Record, indent string) {
	fmt.Fprintf(p.out, "%s%s (%d)\n", indent, p.table.Sprint(name), len(records))
	for _, r := range records {
		p.record(r, indent+indentStep)
	}
}

func (p *printer) record(r *rowgraph.Record, indent string) {
	layout := r.Layout()
	fields := layout.Fields()
	parts := make([]string, len(fields))
	for i, f := range fields {
		v := r.At(i)
		s := v.String()
		if v.IsNull() {
			s = p.null.Sprint(s)
		}
		parts[i] = p.field.Sprint(f.Name+"=") + s
	}
	fmt.Fprintf(p.out, "%s%s\n", indent, strings.Join(parts, " "))

	for _, name := range layout.Collections() {
		children, _ := r.Children(name)
		p.records(name, children, indent+indentStep)
	}
}
