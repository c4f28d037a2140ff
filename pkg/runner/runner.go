/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package runner executes parsed commands against a device set and shapes
// the outcome into printable reports.
package runner

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dburkart/marionette/pkg/command"
	"github.com/dburkart/marionette/pkg/device"
	"github.com/dburkart/marionette/pkg/format"
	"github.com/dburkart/marionette/pkg/history"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// HistoryFile is the history log's name inside a device set directory.
const HistoryFile = "history.log"

// Report is the outcome of one command: rows of columns, ready for any of
// the format writers.
type Report struct {
	Action  string     `json:"action"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func (r *Report) Headers() []string  { return r.Columns }
func (r *Report) Values() [][]string { return r.Rows }

// Runner executes commands against one open device set.
type Runner struct {
	log  zerolog.Logger
	set  *device.Set
	hist *history.Log
}

func New(log zerolog.Logger, set *device.Set, hist *history.Log) *Runner {
	return &Runner{log: log, set: set, hist: hist}
}

// record appends to the history log. A history failure is logged, not
// returned; the action it describes already happened.
func (r *Runner) record(udid uuid.UUID, action, detail string) {
	err := r.hist.Append(history.Event{UDID: udid, Action: action, Detail: detail})
	if err != nil {
		r.log.Error().Err(err).Str("action", action).Msg("failed to append history")
	}
}

// targets resolves a command's query. Actions that read the set fall back to
// every device; actions that change it must name their devices, and an empty
// match is an error unless --ignore-missing was given.
func (r *Runner) targets(cmd command.Command, defaultAll bool) ([]device.Device, error) {
	if cmd.Query == nil {
		if defaultAll {
			return r.set.List(), nil
		}
		return nil, errors.Errorf("the %s action needs a device query", cmd.Action.Name())
	}

	matched := r.set.Match(cmd.Query.Matches)
	if len(matched) == 0 && !defaultAll && !cmd.Configuration.Options.Has(command.OptionIgnoreMissing) {
		return nil, errors.New("no devices match the query")
	}
	return matched, nil
}

// ActiveFormat is the format a command renders with: its own, or the
// default.
func ActiveFormat(cmd command.Command) format.Format {
	if cmd.Format != nil {
		return *cmd.Format
	}
	return format.DefaultFormat()
}

func fieldHeaders(f format.Format) []string {
	headers := make([]string, 0, len(f.Fields))
	for _, field := range f.Fields {
		headers = append(headers, string(field))
	}
	return headers
}

func fieldValue(d device.Device, field format.Field) string {
	switch field {
	case format.FieldUDID:
		return d.UDID.String()
	case format.FieldName:
		return d.Name
	case format.FieldOS:
		return d.OS
	case format.FieldState:
		return d.State.String()
	case format.FieldArch:
		return d.Arch
	case format.FieldUptime:
		if d.State != device.StateBooted || d.BootedAt.IsZero() {
			return "-"
		}
		return strings.TrimSpace(humanize.RelTime(d.BootedAt, time.Now(), "", ""))
	}
	return ""
}

func deviceRow(d device.Device, f format.Format) []string {
	row := make([]string, 0, len(f.Fields))
	for _, field := range f.Fields {
		row = append(row, fieldValue(d, field))
	}
	return row
}

func bootDetail(a command.Boot) string {
	var parts []string
	if a.Scale != 0 {
		parts = append(parts, fmt.Sprintf("scale %d", a.Scale))
	}
	if a.Locale != "" {
		parts = append(parts, "locale "+a.Locale)
	}
	if a.Options.Has(command.BootDirectLaunch) {
		parts = append(parts, "direct-launch")
	}
	if a.Options.Has(command.BootConnectBridge) {
		parts = append(parts, "connect-bridge")
	}
	return strings.Join(parts, " ")
}

// Run applies a parsed command to the set and reports what happened. The
// query is resolved once, up front; an error on any matched device aborts
// the run.
func (r *Runner) Run(cmd command.Command) (*Report, error) {
	f := ActiveFormat(cmd)
	report := &Report{Action: cmd.Action.Name()}

	switch action := cmd.Action.(type) {
	case command.List:
		devices, err := r.targets(cmd, true)
		if err != nil {
			return nil, err
		}
		report.Columns = fieldHeaders(f)
		for _, d := range devices {
			report.Rows = append(report.Rows, deviceRow(d, f))
		}

	case command.Create:
		d, err := r.set.Create(action.Product, action.OS)
		if err != nil {
			return nil, errors.Wrap(err, "create")
		}
		r.record(d.UDID, "create", d.Name+" "+d.OS)
		report.Columns = fieldHeaders(f)
		report.Rows = [][]string{deviceRow(d, f)}

	case command.Boot:
		devices, err := r.targets(cmd, false)
		if err != nil {
			return nil, err
		}
		report.Columns = fieldHeaders(f)
		for _, d := range devices {
			if err := r.set.Boot(d.UDID, action.Scale, action.Locale); err != nil {
				return nil, errors.Wrap(err, "boot")
			}
			r.record(d.UDID, "boot", bootDetail(action))
			if err := r.appendDeviceRow(report, d.UDID, f); err != nil {
				return nil, err
			}
		}

	case command.Shutdown:
		devices, err := r.targets(cmd, false)
		if err != nil {
			return nil, err
		}
		report.Columns = fieldHeaders(f)
		for _, d := range devices {
			if err := r.set.Shutdown(d.UDID); err != nil {
				return nil, errors.Wrap(err, "shutdown")
			}
			r.record(d.UDID, "shutdown", "")
			if err := r.appendDeviceRow(report, d.UDID, f); err != nil {
				return nil, err
			}
		}

	case command.Erase:
		devices, err := r.targets(cmd, false)
		if err != nil {
			return nil, err
		}
		report.Columns = fieldHeaders(f)
		for _, d := range devices {
			if err := r.set.Erase(d.UDID); err != nil {
				return nil, errors.Wrap(err, "erase")
			}
			r.record(d.UDID, "erase", "")
			if err := r.appendDeviceRow(report, d.UDID, f); err != nil {
				return nil, err
			}
		}

	case command.Delete:
		devices, err := r.targets(cmd, false)
		if err != nil {
			return nil, err
		}
		report.Columns = fieldHeaders(f)
		for _, d := range devices {
			if err := r.set.Delete(d.UDID); err != nil {
				return nil, errors.Wrap(err, "delete")
			}
			r.record(d.UDID, "delete", d.Name)
			report.Rows = append(report.Rows, deviceRow(d, f))
		}

	case command.Install:
		devices, err := r.targets(cmd, false)
		if err != nil {
			return nil, err
		}
		report.Columns = []string{"udid", "bundle", "path"}
		for _, d := range devices {
			app, err := r.set.Install(d.UDID, action.Path)
			if err != nil {
				return nil, errors.Wrap(err, "install")
			}
			r.record(d.UDID, "install", app.BundleID)
			report.Rows = append(report.Rows, []string{d.UDID.String(), app.BundleID, app.Path})
		}

	case command.Uninstall:
		devices, err := r.targets(cmd, false)
		if err != nil {
			return nil, err
		}
		report.Columns = []string{"udid", "bundle"}
		for _, d := range devices {
			if err := r.set.Uninstall(d.UDID, action.Bundle); err != nil {
				return nil, errors.Wrap(err, "uninstall")
			}
			r.record(d.UDID, "uninstall", action.Bundle)
			report.Rows = append(report.Rows, []string{d.UDID.String(), action.Bundle})
		}

	case command.Launch:
		devices, err := r.targets(cmd, false)
		if err != nil {
			return nil, err
		}
		report.Columns = []string{"udid", "bundle", "pid"}
		for _, d := range devices {
			pid, err := r.set.Launch(d.UDID, action.Bundle)
			if err != nil {
				return nil, errors.Wrap(err, "launch")
			}
			detail := fmt.Sprintf("%s pid %d", action.Bundle, pid)
			if action.WaitForDebugger {
				detail += " wait-for-debugger"
			}
			if len(action.Args) > 0 {
				detail += " args " + strings.Join(action.Args, " ")
			}
			r.record(d.UDID, "launch", detail)
			report.Rows = append(report.Rows, []string{d.UDID.String(), action.Bundle, strconv.Itoa(pid)})
		}

	case command.Terminate:
		devices, err := r.targets(cmd, false)
		if err != nil {
			return nil, err
		}
		report.Columns = []string{"udid", "bundle", "pid"}
		for _, d := range devices {
			pid, err := r.set.Terminate(d.UDID, action.Bundle)
			if err != nil {
				return nil, errors.Wrap(err, "terminate")
			}
			r.record(d.UDID, "terminate", fmt.Sprintf("%s pid %d", action.Bundle, pid))
			report.Rows = append(report.Rows, []string{d.UDID.String(), action.Bundle, strconv.Itoa(pid)})
		}

	case command.Open:
		devices, err := r.targets(cmd, false)
		if err != nil {
			return nil, err
		}
		report.Columns = []string{"udid", "url"}
		for _, d := range devices {
			if err := r.set.OpenURL(d.UDID, action.URL); err != nil {
				return nil, errors.Wrap(err, "open")
			}
			r.record(d.UDID, "open", action.URL)
			report.Rows = append(report.Rows, []string{d.UDID.String(), action.URL})
		}

	case command.Approve:
		devices, err := r.targets(cmd, false)
		if err != nil {
			return nil, err
		}
		services := action.Services.Names()
		report.Columns = []string{"udid", "bundle", "services"}
		for _, d := range devices {
			for _, bundle := range action.Bundles {
				if err := r.set.Approve(d.UDID, bundle, services); err != nil {
					return nil, errors.Wrap(err, "approve")
				}
				r.record(d.UDID, "approve", bundle+" "+strings.Join(services, ","))
				report.Rows = append(report.Rows, []string{d.UDID.String(), bundle, strings.Join(services, ",")})
			}
		}

	case command.Diagnose:
		devices, err := r.targets(cmd, true)
		if err != nil {
			return nil, err
		}
		report.Columns = []string{"time", "udid", "action", "detail"}
		for _, d := range devices {
			detail := fmt.Sprintf("%s %s %s %s", d.Name, d.OS, d.Arch, d.State)
			report.Rows = append(report.Rows, []string{humanize.Time(d.CreatedAt), d.UDID.String(), "created", detail})

			events, err := r.hist.Recent(d.UDID, 10)
			if err != nil {
				return nil, errors.Wrap(err, "reading history")
			}
			for _, e := range events {
				report.Rows = append(report.Rows, []string{humanize.Time(e.Time), e.UDID.String(), e.Action, e.Detail})
			}
		}

	default:
		return nil, errors.Errorf("unhandled action %s", cmd.Action.Name())
	}

	return report, nil
}

// appendDeviceRow re-fetches a device after a state change so the row shows
// where it landed.
func (r *Runner) appendDeviceRow(report *Report, udid uuid.UUID, f format.Format) error {
	d, err := r.set.Device(udid)
	if err != nil {
		return errors.Wrap(err, "refreshing device")
	}
	report.Rows = append(report.Rows, deviceRow(d, f))
	return nil
}

// Render writes a report through the format's writer.
func Render(rep *Report, f format.Format) string {
	var b strings.Builder
	format.NewWriter(&b, f).Write(rep)
	return b.String()
}

// RunVector is the one-shot path: it parses a vector, opens the device set
// the configuration names, executes, and renders. Every invocation sees the
// set as it is on disk right now.
func RunVector(log zerolog.Logger, tokens []string, defaults command.Defaults) (string, error) {
	cmd, err := command.Parse(tokens)
	if err != nil {
		return "", err
	}
	cmd = defaults.Apply(cmd)

	if cmd.Configuration.DebugLogging {
		log = log.Level(zerolog.DebugLevel)
	}

	set, err := device.Open(log, cmd.Configuration.Set, cmd.Configuration.Options.Has(command.OptionKillStale))
	if err != nil {
		return "", errors.Wrap(err, "opening device set")
	}
	hist := &history.Log{Path: filepath.Join(cmd.Configuration.Set, HistoryFile)}

	rep, err := New(log, set, hist).Run(cmd)
	if err != nil {
		return "", err
	}
	return Render(rep, ActiveFormat(cmd)), nil
}
