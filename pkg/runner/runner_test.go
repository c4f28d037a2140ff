/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package runner

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/andreyvit/diff"
	"github.com/dburkart/marionette/pkg/command"
	"github.com/dburkart/marionette/pkg/device"
	"github.com/dburkart/marionette/pkg/format"
	"github.com/dburkart/marionette/pkg/history"
	"github.com/rs/zerolog"
)

func testRunner(t *testing.T) (*Runner, *device.Set) {
	t.Helper()
	dir := t.TempDir()
	set, err := device.Open(zerolog.Nop(), dir, false)
	if err != nil {
		t.Fatal(err)
	}
	hist := &history.Log{Path: filepath.Join(dir, HistoryFile)}
	return New(zerolog.Nop(), set, hist), set
}

func parse(t *testing.T, tokens ...string) command.Command {
	t.Helper()
	cmd, err := command.Parse(tokens)
	if err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestRunList(t *testing.T) {
	r, set := testRunner(t)

	phone, _ := device.ProductNamed("iPhone-8")
	pad, _ := device.ProductNamed("iPad-Air")
	if _, err := set.Create(phone, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := set.Create(pad, ""); err != nil {
		t.Fatal(err)
	}

	rep, err := r.Run(parse(t, "list"))
	if err != nil {
		t.Fatal(err)
	}

	if rep.Action != "list" {
		t.Errorf("wanted action list, got %q", rep.Action)
	}
	want := []string{"udid", "name", "os", "state"}
	if strings.Join(rep.Columns, ",") != strings.Join(want, ",") {
		t.Errorf("wanted the default columns %v, got %v", want, rep.Columns)
	}
	if len(rep.Rows) != 2 {
		t.Fatalf("wanted 2 rows, got %d", len(rep.Rows))
	}
	if rep.Rows[0][1] != "iPhone-8" || rep.Rows[1][1] != "iPad-Air" {
		t.Errorf("wanted devices oldest first, got %v", rep.Rows)
	}
}

func TestRunCreate(t *testing.T) {
	r, set := testRunner(t)

	rep, err := r.Run(parse(t, "create", "iPhone-11", "iOS-12.4"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Rows) != 1 {
		t.Fatalf("wanted one row, got %v", rep.Rows)
	}
	if rep.Rows[0][2] != "iOS-12.4" {
		t.Errorf("wanted the explicit os in the report, got %v", rep.Rows[0])
	}

	if len(set.List()) != 1 {
		t.Error("create should have landed in the set")
	}
}

func TestRunBootByProduct(t *testing.T) {
	r, set := testRunner(t)

	phone, _ := device.ProductNamed("iPhone-8")
	pad, _ := device.ProductNamed("iPad-Air")
	if _, err := set.Create(phone, ""); err != nil {
		t.Fatal(err)
	}
	other, err := set.Create(pad, "")
	if err != nil {
		t.Fatal(err)
	}

	rep, err := r.Run(parse(t, "iPhone-8", "boot", "--scale", "75"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Rows) != 1 {
		t.Fatalf("wanted one booted device, got %v", rep.Rows)
	}
	if rep.Rows[0][3] != "booted" {
		t.Errorf("wanted the row to show the new state, got %v", rep.Rows[0])
	}

	untouched, err := set.Device(other.UDID)
	if err != nil {
		t.Fatal(err)
	}
	if untouched.State != device.StateShutdown {
		t.Errorf("the unmatched device should be untouched, got %v", untouched.State)
	}
}

func TestMutatingActionNeedsQuery(t *testing.T) {
	r, _ := testRunner(t)

	_, err := r.Run(parse(t, "boot"))
	if err == nil || !strings.Contains(err.Error(), "needs a device query") {
		t.Errorf("wanted a query-required error, got %v", err)
	}
}

func TestEmptyMatch(t *testing.T) {
	r, _ := testRunner(t)

	_, err := r.Run(parse(t, "iPhone-8", "boot"))
	if err == nil || !strings.Contains(err.Error(), "no devices match") {
		t.Errorf("wanted an empty-match error, got %v", err)
	}

	rep, err := r.Run(parse(t, "--ignore-missing", "iPhone-8", "boot"))
	if err != nil {
		t.Fatalf("ignore-missing should make an empty match a no-op, got %v", err)
	}
	if len(rep.Rows) != 0 {
		t.Errorf("wanted an empty report, got %v", rep.Rows)
	}
}

func TestRunAppFlow(t *testing.T) {
	r, set := testRunner(t)

	phone, _ := device.ProductNamed("iPhone-8")
	d, err := set.Create(phone, "")
	if err != nil {
		t.Fatal(err)
	}
	udid := d.UDID.String()

	if _, err := r.Run(parse(t, udid, "boot")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(parse(t, udid, "install", "/tmp/com.example.maps.app")); err != nil {
		t.Fatal(err)
	}

	rep, err := r.Run(parse(t, udid, "launch", "com.example.maps", "--wait-for-debugger"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Rows) != 1 || rep.Rows[0][1] != "com.example.maps" {
		t.Fatalf("launch report looks wrong: %v", rep.Rows)
	}
	pid := rep.Rows[0][2]

	rep, err = r.Run(parse(t, udid, "terminate", "com.example.maps"))
	if err != nil {
		t.Fatal(err)
	}
	if rep.Rows[0][2] != pid {
		t.Errorf("terminate should report the launched pid %s, got %v", pid, rep.Rows[0])
	}

	rep, err = r.Run(parse(t, udid, "approve", "--photos", "com.example.maps"))
	if err != nil {
		t.Fatal(err)
	}
	if rep.Rows[0][2] != "photos" {
		t.Errorf("wanted the granted services in the report, got %v", rep.Rows[0])
	}
}

func TestRunDiagnose(t *testing.T) {
	r, set := testRunner(t)

	phone, _ := device.ProductNamed("iPhone-8")
	d, err := set.Create(phone, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(parse(t, d.UDID.String(), "boot")); err != nil {
		t.Fatal(err)
	}

	rep, err := r.Run(parse(t, "diagnose"))
	if err != nil {
		t.Fatal(err)
	}

	var actions []string
	for _, row := range rep.Rows {
		actions = append(actions, row[2])
	}
	joined := strings.Join(actions, ",")
	if !strings.Contains(joined, "created") || !strings.Contains(joined, "boot") {
		t.Errorf("wanted the creation detail and the boot event, got %v", actions)
	}
}

func TestRender(t *testing.T) {
	r, set := testRunner(t)

	phone, _ := device.ProductNamed("iPhone-8")
	d, err := set.Create(phone, "")
	if err != nil {
		t.Fatal(err)
	}

	cmd := parse(t, "--csv", "--udid", "--name", "list")
	rep, err := r.Run(cmd)
	if err != nil {
		t.Fatal(err)
	}
	out := Render(rep, ActiveFormat(cmd))

	expected := "udid,name\n" + d.UDID.String() + ",iPhone-8"
	if a, e := strings.TrimSpace(out), expected; a != e {
		t.Errorf("Expectation not met:\n%s", diff.LineDiff(e, a))
	}
}

func TestActiveFormat(t *testing.T) {
	bare := parse(t, "list")
	f := ActiveFormat(bare)
	if f.Style != format.Text || len(f.Fields) != 4 {
		t.Errorf("wanted the default format, got %+v", f)
	}

	tabled := parse(t, "--table", "--udid", "list")
	f = ActiveFormat(tabled)
	if f.Style != format.Table || len(f.Fields) != 1 {
		t.Errorf("wanted the parsed format, got %+v", f)
	}
}

func TestRunVector(t *testing.T) {
	dir := t.TempDir()

	out, err := RunVector(zerolog.Nop(), []string{"--set", dir, "--csv", "--name", "create", "iPhone-8"}, command.Defaults{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "iPhone-8") {
		t.Errorf("wanted the created device in the output, got %q", out)
	}

	// A second invocation opens the same set from disk.
	out, err = RunVector(zerolog.Nop(), []string{"--set", dir, "--csv", "--name", "--state", "list"}, command.Defaults{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "iPhone-8,shutdown") {
		t.Errorf("wanted the device to survive between invocations, got %q", out)
	}
}
