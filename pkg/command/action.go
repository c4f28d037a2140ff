/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package command

import (
	"net/url"

	"github.com/dburkart/marionette/pkg/argv"
	"github.com/dburkart/marionette/pkg/device"
)

// Action is one verb applied to the devices a command selects. The concrete
// type carries the verb's payload; runners type-switch on it.
type Action interface {
	Name() string
}

// BootOptions tune how a device comes up.
type BootOptions uint8

const (
	BootDirectLaunch BootOptions = 1 << iota
	BootConnectBridge
)

func (b BootOptions) Union(other BootOptions) BootOptions {
	return b | other
}

func (b BootOptions) Has(flag BootOptions) bool {
	return b&flag != 0
}

// ServiceSet names the privacy services an approval grants.
type ServiceSet uint8

const (
	ServiceLocation ServiceSet = 1 << iota
	ServicePhotos
	ServiceContacts
)

func (s ServiceSet) Union(other ServiceSet) ServiceSet {
	return s | other
}

// Names expands the set into service names for the device layer.
func (s ServiceSet) Names() []string {
	var names []string
	if s&ServiceLocation != 0 {
		names = append(names, "location")
	}
	if s&ServicePhotos != 0 {
		names = append(names, "photos")
	}
	if s&ServiceContacts != 0 {
		names = append(names, "contacts")
	}
	return names
}

type List struct{}

type Create struct {
	Product device.Product
	OS      string // empty means the product default
}

type Boot struct {
	Scale   int // 0 means unset
	Locale  string
	Options BootOptions
}

type Shutdown struct{}

type Erase struct{}

type Delete struct{}

type Install struct {
	Path string
}

type Uninstall struct {
	Bundle string
}

type Launch struct {
	Bundle          string
	WaitForDebugger bool
	Args            []string
}

type Terminate struct {
	Bundle string
}

type Open struct {
	URL string
}

type Approve struct {
	Services ServiceSet
	Bundles  []string
}

type Diagnose struct{}

func (List) Name() string      { return "list" }
func (Create) Name() string    { return "create" }
func (Boot) Name() string      { return "boot" }
func (Shutdown) Name() string  { return "shutdown" }
func (Erase) Name() string     { return "erase" }
func (Delete) Name() string    { return "delete" }
func (Install) Name() string   { return "install" }
func (Uninstall) Name() string { return "uninstall" }
func (Launch) Name() string    { return "launch" }
func (Terminate) Name() string { return "terminate" }
func (Open) Name() string      { return "open" }
func (Approve) Name() string   { return "approve" }
func (Diagnose) Name() string  { return "diagnose" }

// ActionNames lists every verb the grammar accepts, in grammar order.
func ActionNames() []string {
	return []string{
		"list", "create", "boot", "shutdown", "erase", "delete",
		"install", "uninstall", "launch", "terminate", "open",
		"approve", "diagnose",
	}
}

func keyword(name string) argv.Parser[string] {
	return argv.Literal(name, name)
}

func listParser() argv.Parser[Action] {
	return argv.Literal("list", Action(List{}))
}

// Grammar:
//
//	create = "create" product [ os ]
func createParser() argv.Parser[Action] {
	payload := argv.Seq2(productToken(), argv.Optional(argv.Any()), func(product device.Product, os *string) Action {
		a := Create{Product: product}
		if os != nil {
			a.OS = *os
		}
		return a
	})
	return argv.Then(keyword("create"), payload).Describe("create")
}

// Grammar:
//
//	boot = "boot" [ "--scale" int ] [ "--locale" locale ] { boot-option }
//	boot-option = "--direct-launch" | "--connect-bridge"
func bootParser() argv.Parser[Action] {
	payload := argv.Seq3(
		argv.Fallback(argv.Then(keyword("--scale"), argv.Int()), 0),
		argv.Fallback(argv.Then(keyword("--locale"), argv.Any()), ""),
		argv.Union(
			argv.Literal("--direct-launch", BootDirectLaunch),
			argv.Literal("--connect-bridge", BootConnectBridge),
		),
		func(scale int, locale string, options BootOptions) Action {
			return Boot{Scale: scale, Locale: locale, Options: options}
		},
	)
	return argv.Then(keyword("boot"), payload).Describe("boot")
}

func shutdownParser() argv.Parser[Action] {
	return argv.Literal("shutdown", Action(Shutdown{}))
}

func eraseParser() argv.Parser[Action] {
	return argv.Literal("erase", Action(Erase{}))
}

func deleteParser() argv.Parser[Action] {
	return argv.Literal("delete", Action(Delete{}))
}

// Grammar:
//
//	install = "install" path
func installParser() argv.Parser[Action] {
	payload := argv.Map(argv.Any(), func(path string) Action {
		return Install{Path: path}
	})
	return argv.Then(keyword("install"), payload).Describe("install")
}

// Grammar:
//
//	uninstall = "uninstall" bundle-id
func uninstallParser() argv.Parser[Action] {
	payload := argv.Map(argv.Any(), func(bundle string) Action {
		return Uninstall{Bundle: bundle}
	})
	return argv.Then(keyword("uninstall"), payload).Describe("uninstall")
}

// Grammar:
//
//	launch = "launch" bundle-id [ "--wait-for-debugger" ] { arg }
//
// Trailing args belong to the launched application, so launch owns the rest
// of the vector.
func launchParser() argv.Parser[Action] {
	payload := argv.Seq3(
		argv.Any(),
		argv.Flag("--wait-for-debugger"),
		argv.Many(argv.Any()),
		func(bundle string, wait bool, args []string) Action {
			return Launch{Bundle: bundle, WaitForDebugger: wait, Args: args}
		},
	)
	return argv.Then(keyword("launch"), payload).Describe("launch")
}

// Grammar:
//
//	terminate = "terminate" bundle-id
func terminateParser() argv.Parser[Action] {
	payload := argv.Map(argv.Any(), func(bundle string) Action {
		return Terminate{Bundle: bundle}
	})
	return argv.Then(keyword("terminate"), payload).Describe("terminate")
}

// Grammar:
//
//	open = "open" url
func openParser() argv.Parser[Action] {
	payload := argv.Convert(argv.Any(), func(tok string) (Action, error) {
		if _, err := url.ParseRequestURI(tok); err != nil {
			return nil, argv.Coercion("a url", tok)
		}
		return Open{URL: tok}, nil
	})
	return argv.Then(keyword("open"), payload).Describe("open")
}

// Grammar:
//
//	approve = "approve" { service } bundle-id { bundle-id }
//	service = "--location" | "--photos" | "--contacts"
//
// With no service named, approve grants location.
func approveParser() argv.Parser[Action] {
	payload := argv.Seq2(
		argv.Union(
			argv.Literal("--location", ServiceLocation),
			argv.Literal("--photos", ServicePhotos),
			argv.Literal("--contacts", ServiceContacts),
		),
		argv.ManyCount(argv.Any(), 1),
		func(services ServiceSet, bundles []string) Action {
			if services == 0 {
				services = ServiceLocation
			}
			return Approve{Services: services, Bundles: bundles}
		},
	)
	return argv.Then(keyword("approve"), payload).Describe("approve")
}

func diagnoseParser() argv.Parser[Action] {
	return argv.Literal("diagnose", Action(Diagnose{}))
}

// ActionParser returns the action grammar: the first verb whose sub-grammar
// accepts the vector wins.
func ActionParser() argv.Parser[Action] {
	return argv.Alternative(
		listParser(),
		createParser(),
		bootParser(),
		shutdownParser(),
		eraseParser(),
		deleteParser(),
		installParser(),
		uninstallParser(),
		launchParser(),
		terminateParser(),
		openParser(),
		approveParser(),
		diagnoseParser(),
	).Describe("an action")
}
