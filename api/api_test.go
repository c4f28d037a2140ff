/*
 * Copyright (c) 2022-2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package marionette_test

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andreyvit/diff"
	marionette "github.com/dburkart/marionette/api"
	"github.com/dburkart/marionette/pkg/command"
	"github.com/dburkart/marionette/pkg/device"
	"github.com/dburkart/marionette/pkg/history"
	"github.com/dburkart/marionette/pkg/runner"
	"github.com/dburkart/marionette/pkg/server"
	"github.com/rs/zerolog"
)

func TestLocalClient(t *testing.T) {
	set := t.TempDir()

	client, err := marionette.NewClient(zerolog.Nop(), set, command.Defaults{})
	if err != nil {
		t.Fatalf("wanted a client, got %v", err)
	}
	defer client.Close()

	if _, err := client.Run("create iPhone-8"); err != nil {
		t.Fatalf("wanted a created device, got %v", err)
	}

	out, err := client.Run("--csv --name --os list")
	if err != nil {
		t.Fatalf("wanted a listing, got %v", err)
	}
	if a, e := strings.TrimSpace(out), "name,os\niPhone-8,iOS-13.2"; a != e {
		t.Errorf("Expectation not met:\n%s", diff.LineDiff(e, a))
	}
}

func TestLocalClientSetOnLineWins(t *testing.T) {
	home := t.TempDir()
	elsewhere := t.TempDir()

	client, err := marionette.NewClient(zerolog.Nop(), home, command.Defaults{})
	if err != nil {
		t.Fatalf("wanted a client, got %v", err)
	}
	defer client.Close()

	if _, err := client.Run(fmt.Sprintf("--set %s create iPad-Air", elsewhere)); err != nil {
		t.Fatalf("wanted a created device, got %v", err)
	}

	out, err := client.Run("--csv --name list")
	if err != nil {
		t.Fatalf("wanted a listing, got %v", err)
	}
	if strings.Contains(out, "iPad-Air") {
		t.Errorf("the device landed in the client's set, not the line's: %s", out)
	}

	out, err = client.Run(fmt.Sprintf("--set %s --csv --name list", elsewhere))
	if err != nil {
		t.Fatalf("wanted a listing, got %v", err)
	}
	if !strings.Contains(out, "iPad-Air") {
		t.Errorf("wanted iPad-Air in the line's set, got: %s", out)
	}
}

func TestLocalClientBadLine(t *testing.T) {
	client, err := marionette.NewClient(zerolog.Nop(), t.TempDir(), command.Defaults{})
	if err != nil {
		t.Fatalf("wanted a client, got %v", err)
	}
	defer client.Close()

	if _, err := client.Run(`create "iPhone-8`); err == nil {
		t.Error("wanted an unbalanced quote error, got none")
	}
	if _, err := client.Run("dance"); err == nil {
		t.Error("wanted an unknown action error, got none")
	}
}

func TestRemoteClient(t *testing.T) {
	setPath := t.TempDir()
	set, err := device.Open(zerolog.Nop(), setPath, false)
	if err != nil {
		t.Fatalf("wanted a device set, got %v", err)
	}
	hist := &history.Log{Path: filepath.Join(setPath, runner.HistoryFile)}

	srv := server.New(zerolog.Nop(), set, hist, command.Defaults{}, 0, 0)
	sock, err := net.ListenTCP("tcp4", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("wanted a listener, got %v", err)
	}
	t.Cleanup(func() { sock.Close() })
	go srv.Serve(sock)

	client, err := marionette.NewClient(zerolog.Nop(), fmt.Sprintf("marionette://%s", sock.Addr()), command.Defaults{})
	if err != nil {
		t.Fatalf("wanted a client, got %v", err)
	}
	defer client.Close()

	if _, err := client.Run("create TV-4K"); err != nil {
		t.Fatalf("wanted a created device, got %v", err)
	}

	out, err := client.Run("--csv --name --state list")
	if err != nil {
		t.Fatalf("wanted a listing, got %v", err)
	}
	if a, e := strings.TrimSpace(out), "name,state\nTV-4K,shutdown"; a != e {
		t.Errorf("Expectation not met:\n%s", diff.LineDiff(e, a))
	}

	if _, err := client.Run("boot"); err == nil {
		t.Error("wanted a query-required error, got none")
	}
}

func TestNewClientRejectsBadScheme(t *testing.T) {
	if _, err := marionette.NewClient(zerolog.Nop(), "tcp://localhost:8400", command.Defaults{}); err == nil {
		t.Error("wanted a scheme error, got none")
	}
}
