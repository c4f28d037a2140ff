/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package command

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dburkart/marionette/pkg/format"
)

// Defaults are the rc-file values a command falls back to when its own
// vector omits them.
type Defaults struct {
	Configuration *Configuration
	Format        *format.Format
}

// DefaultRCPath is where per-user defaults live when no rc path is given.
func DefaultRCPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".marionetterc"
	}
	return filepath.Join(home, ".marionetterc")
}

// LoadDefaults reads an rc file. Each line is tokenized on whitespace and
// must parse, on its own, as either a format or a configuration; later lines
// of the same kind win. Blank lines and lines starting with # are skipped.
// A missing file is an empty set of defaults.
func LoadDefaults(path string) (Defaults, error) {
	var d Defaults

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return d, nil
	}
	if err != nil {
		return d, err
	}
	defer file.Close()

	lineNo := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		tokens := strings.Fields(line)

		if rest, f, err := format.Parser().Parse(tokens); err == nil && len(rest) == 0 {
			d.Format = &f
			continue
		}

		if rest, c, err := ConfigurationParser().Parse(tokens); err == nil && len(rest) == 0 {
			d.Configuration = &c
			continue
		}

		return Defaults{}, fmt.Errorf("%s:%d: line is neither a format nor a configuration: %q", path, lineNo, line)
	}

	return d, scanner.Err()
}

// Apply fills a parsed command's gaps from the defaults. Values the vector
// carried stay as parsed; boolean and set-valued configuration accumulates.
func (d Defaults) Apply(cmd Command) Command {
	if cmd.Format == nil && d.Format != nil {
		f := *d.Format
		cmd.Format = &f
	}

	if d.Configuration != nil {
		if !cmd.Configuration.DebugLogging {
			cmd.Configuration.DebugLogging = d.Configuration.DebugLogging
		}
		if cmd.Configuration.Set == DefaultSetPath() && d.Configuration.Set != "" {
			cmd.Configuration.Set = d.Configuration.Set
		}
		cmd.Configuration.Options = cmd.Configuration.Options.Union(d.Configuration.Options)
	}

	return cmd
}
