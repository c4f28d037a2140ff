/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package device models a set of simulated devices persisted on disk. A
// device is an inventory record with lifecycle semantics; nothing here
// manages real OS processes.
package device

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a device. Creating, booting, and
// shutting-down are transitional; a device found in one of them at open time
// was abandoned by a previous run.
type State uint8

const (
	StateUnknown State = iota
	StateCreating
	StateShutdown
	StateBooting
	StateBooted
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateCreating:
		return "creating"
	case StateShutdown:
		return "shutdown"
	case StateBooting:
		return "booting"
	case StateBooted:
		return "booted"
	case StateShuttingDown:
		return "shutting-down"
	}
	return "unknown"
}

// StateFromString maps a state name back to its State. Unknown names are an
// error so that grammars can surface the offending token.
func StateFromString(s string) (State, error) {
	for _, state := range []State{StateCreating, StateShutdown, StateBooting, StateBooted, StateShuttingDown} {
		if state.String() == s {
			return state, nil
		}
	}
	return StateUnknown, fmt.Errorf("unknown device state %q", s)
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	state, err := StateFromString(string(text))
	if err != nil {
		return err
	}
	*s = state
	return nil
}

// Transitional reports whether the state is one a crashed run can strand a
// device in.
func (s State) Transitional() bool {
	return s == StateCreating || s == StateBooting || s == StateShuttingDown
}

// App is one installed application.
type App struct {
	BundleID    string    `json:"bundle_id"`
	Path        string    `json:"path"`
	InstalledAt time.Time `json:"installed_at"`
}

// Device is the persisted record for one simulated device. Mutations go
// through Set so that every change lands in the device's device.json.
type Device struct {
	UDID      uuid.UUID           `json:"udid"`
	Name      string              `json:"name"`
	OS        string              `json:"os"`
	Arch      string              `json:"arch"`
	State     State               `json:"state"`
	CreatedAt time.Time           `json:"created_at"`
	BootedAt  time.Time           `json:"booted_at,omitempty"`
	Locale    string              `json:"locale,omitempty"`
	Scale     int                 `json:"scale,omitempty"`
	Apps      map[string]App      `json:"apps,omitempty"`
	Processes map[string]int      `json:"processes,omitempty"`
	Approvals map[string][]string `json:"approvals,omitempty"`
}

// Uptime is how long the device has been booted, or zero when it isn't.
func (d Device) Uptime() time.Duration {
	if d.State != StateBooted || d.BootedAt.IsZero() {
		return 0
	}
	return time.Since(d.BootedAt)
}

// Product is a device model the set knows how to create.
type Product struct {
	Name      string
	DefaultOS string
	Arch      string
}

// Products is the closed table of creatable models. Names are single tokens
// on purpose; the query grammar matches them directly off the vector.
var Products = []Product{
	{"iPhone-8", "iOS-13.2", "x86_64"},
	{"iPhone-11", "iOS-13.2", "x86_64"},
	{"iPhone-SE", "iOS-14.5", "arm64"},
	{"iPad-Air", "iOS-14.5", "arm64"},
	{"iPad-Pro", "iOS-15.0", "arm64"},
	{"TV-4K", "tvOS-15.0", "arm64"},
	{"Watch-S7", "watchOS-8.0", "arm64"},
}

// ProductNamed looks a product up by its token.
func ProductNamed(name string) (Product, bool) {
	for _, p := range Products {
		if p.Name == name {
			return p, true
		}
	}
	return Product{}, false
}
