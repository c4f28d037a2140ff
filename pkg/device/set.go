/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package device

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound     = errors.New("no such device")
	ErrNotInstalled = errors.New("application is not installed")
	ErrNotRunning   = errors.New("application is not running")
	ErrRunning      = errors.New("application is already running")
)

// Set is an on-disk collection of devices. Every device lives in its own
// directory under Path as a device.json, rewritten on each mutation.
type Set struct {
	Path string

	// Private fields

	mu      sync.Mutex
	devices map[uuid.UUID]*Device
	nextPID int
	log     zerolog.Logger
}

// Open loads the device set rooted at path, creating the directory when it
// doesn't exist. With killStale, devices stranded in a transitional state by
// a previous run are forced back to shutdown; without it they are loaded as
// found.
func Open(log zerolog.Logger, path string, killStale bool) (*Set, error) {
	fileinfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0700); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	} else if !fileinfo.IsDir() {
		return nil, fmt.Errorf("supplied path is not a directory")
	}

	s := &Set{
		Path:    path,
		devices: make(map[uuid.UUID]*Device),
		nextPID: 1000,
		log:     log,
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		record := filepath.Join(path, entry.Name(), "device.json")
		contents, err := os.ReadFile(record)
		if err != nil {
			log.Warn().Str("path", record).Err(err).Msg("skipping unreadable device record")
			continue
		}

		var d Device
		if err := json.Unmarshal(contents, &d); err != nil {
			log.Warn().Str("path", record).Err(err).Msg("skipping corrupt device record")
			continue
		}

		if d.State.Transitional() {
			if killStale {
				log.Info().Str("udid", d.UDID.String()).Str("state", d.State.String()).Msg("killing stale device")
				d.State = StateShutdown
				d.BootedAt = time.Time{}
				d.Processes = nil
				if err := s.saveInternal(&d); err != nil {
					return nil, err
				}
			} else {
				log.Warn().Str("udid", d.UDID.String()).Str("state", d.State.String()).Msg("device is stale, pass --kill-stale to reset it")
			}
		}

		for _, pid := range d.Processes {
			if pid >= s.nextPID {
				s.nextPID = pid + 1
			}
		}

		s.devices[d.UDID] = &d
		log.Debug().Str("udid", d.UDID.String()).Str("name", d.Name).Msg("loaded device")
	}

	return s, nil
}

// findInternal resolves a UDID to the live record. Callers hold mu.
func (s *Set) findInternal(udid uuid.UUID) (*Device, error) {
	d, ok := s.devices[udid]
	if !ok {
		return nil, fmt.Errorf("%s: %w", udid, ErrNotFound)
	}
	return d, nil
}

// saveInternal rewrites a device's record. The write goes to a temp file
// first so a crash never leaves a half-written device.json. Callers hold mu
// (or, during Open, have exclusive access).
func (s *Set) saveInternal(d *Device) error {
	dir := filepath.Join(s.Path, d.UDID.String())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	contents, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := filepath.Join(dir, "device.json.tmp")
	if err := os.WriteFile(tmpPath, contents, 0600); err != nil {
		return err
	}

	return os.Rename(tmpPath, filepath.Join(dir, "device.json"))
}

func transitionError(d *Device, verb string) error {
	return fmt.Errorf("%s: cannot %s a %s device", d.UDID, verb, d.State)
}

// clone deep-copies the record so callers never alias the live maps.
func clone(d *Device) Device {
	c := *d
	c.Apps = maps.Clone(d.Apps)
	c.Processes = maps.Clone(d.Processes)
	c.Approvals = maps.Clone(d.Approvals)
	return c
}

//-- Public Interfaces

// Create adds a new device for the given product. An empty osVersion falls
// back to the product default. The device passes through creating on disk
// before settling at shutdown.
func (s *Set) Create(product Product, osVersion string) (Device, error) {
	if osVersion == "" {
		osVersion = product.DefaultOS
	}

	d := &Device{
		UDID:      uuid.New(),
		Name:      product.Name,
		OS:        osVersion,
		Arch:      product.Arch,
		State:     StateCreating,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveInternal(d); err != nil {
		return Device{}, err
	}

	d.State = StateShutdown
	if err := s.saveInternal(d); err != nil {
		return Device{}, err
	}

	s.devices[d.UDID] = d
	s.log.Info().Str("udid", d.UDID.String()).Str("name", d.Name).Str("os", d.OS).Msg("created device")

	return clone(d), nil
}

// Boot takes a shutdown device to booted. A non-zero scale or locale is
// recorded on the device before it finishes booting.
func (s *Set) Boot(udid uuid.UUID, scale int, locale string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.findInternal(udid)
	if err != nil {
		return err
	}
	if d.State != StateShutdown {
		return transitionError(d, "boot")
	}

	d.State = StateBooting
	if err := s.saveInternal(d); err != nil {
		return err
	}

	if scale != 0 {
		d.Scale = scale
	}
	if locale != "" {
		d.Locale = locale
	}
	d.State = StateBooted
	d.BootedAt = time.Now()
	s.log.Info().Str("udid", udid.String()).Msg("booted device")

	return s.saveInternal(d)
}

// Shutdown takes a booted (or stuck booting) device back to shutdown,
// dropping any running processes.
func (s *Set) Shutdown(udid uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.findInternal(udid)
	if err != nil {
		return err
	}
	if d.State != StateBooted && d.State != StateBooting {
		return transitionError(d, "shut down")
	}

	d.State = StateShuttingDown
	if err := s.saveInternal(d); err != nil {
		return err
	}

	d.State = StateShutdown
	d.BootedAt = time.Time{}
	d.Processes = nil
	s.log.Info().Str("udid", udid.String()).Msg("shut down device")

	return s.saveInternal(d)
}

// Erase resets a shutdown device to its just-created contents.
func (s *Set) Erase(udid uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.findInternal(udid)
	if err != nil {
		return err
	}
	if d.State != StateShutdown {
		return transitionError(d, "erase")
	}

	d.Apps = nil
	d.Processes = nil
	d.Approvals = nil
	d.Locale = ""
	d.Scale = 0
	s.log.Info().Str("udid", udid.String()).Msg("erased device")

	return s.saveInternal(d)
}

// Delete removes a shutdown device and its directory.
func (s *Set) Delete(udid uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.findInternal(udid)
	if err != nil {
		return err
	}
	if d.State != StateShutdown {
		return transitionError(d, "delete")
	}

	if err := os.RemoveAll(filepath.Join(s.Path, udid.String())); err != nil {
		return err
	}
	delete(s.devices, udid)
	s.log.Info().Str("udid", udid.String()).Msg("deleted device")

	return nil
}

// Install records an application bundle on a booted device. The bundle id is
// the bundle's file name without its extension.
func (s *Set) Install(udid uuid.UUID, path string) (App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.findInternal(udid)
	if err != nil {
		return App{}, err
	}
	if d.State != StateBooted {
		return App{}, transitionError(d, "install on")
	}

	base := filepath.Base(path)
	app := App{
		BundleID:    strings.TrimSuffix(base, filepath.Ext(base)),
		Path:        path,
		InstalledAt: time.Now(),
	}

	if d.Apps == nil {
		d.Apps = make(map[string]App)
	}
	d.Apps[app.BundleID] = app
	s.log.Info().Str("udid", udid.String()).Str("bundle", app.BundleID).Msg("installed application")

	return app, s.saveInternal(d)
}

// Uninstall removes an installed application, terminating it first if it is
// running.
func (s *Set) Uninstall(udid uuid.UUID, bundle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.findInternal(udid)
	if err != nil {
		return err
	}
	if d.State != StateBooted {
		return transitionError(d, "uninstall from")
	}
	if _, ok := d.Apps[bundle]; !ok {
		return fmt.Errorf("%s: %w", bundle, ErrNotInstalled)
	}

	delete(d.Apps, bundle)
	delete(d.Processes, bundle)
	delete(d.Approvals, bundle)
	s.log.Info().Str("udid", udid.String()).Str("bundle", bundle).Msg("uninstalled application")

	return s.saveInternal(d)
}

// Launch starts an installed application on a booted device and returns its
// pid. Pids are set-scoped and monotonic.
func (s *Set) Launch(udid uuid.UUID, bundle string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.findInternal(udid)
	if err != nil {
		return 0, err
	}
	if d.State != StateBooted {
		return 0, transitionError(d, "launch on")
	}
	if _, ok := d.Apps[bundle]; !ok {
		return 0, fmt.Errorf("%s: %w", bundle, ErrNotInstalled)
	}
	if _, ok := d.Processes[bundle]; ok {
		return 0, fmt.Errorf("%s: %w", bundle, ErrRunning)
	}

	pid := s.nextPID
	s.nextPID++

	if d.Processes == nil {
		d.Processes = make(map[string]int)
	}
	d.Processes[bundle] = pid
	s.log.Info().Str("udid", udid.String()).Str("bundle", bundle).Int("pid", pid).Msg("launched application")

	return pid, s.saveInternal(d)
}

// Terminate stops a running application.
func (s *Set) Terminate(udid uuid.UUID, bundle string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.findInternal(udid)
	if err != nil {
		return 0, err
	}
	if d.State != StateBooted {
		return 0, transitionError(d, "terminate on")
	}
	pid, ok := d.Processes[bundle]
	if !ok {
		return 0, fmt.Errorf("%s: %w", bundle, ErrNotRunning)
	}

	delete(d.Processes, bundle)
	s.log.Info().Str("udid", udid.String()).Str("bundle", bundle).Int("pid", pid).Msg("terminated application")

	return pid, s.saveInternal(d)
}

// Approve grants services to a bundle id on the device. Approvals survive
// reboots but not erases, and the device may be in any settled state.
func (s *Set) Approve(udid uuid.UUID, bundle string, services []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.findInternal(udid)
	if err != nil {
		return err
	}

	if d.Approvals == nil {
		d.Approvals = make(map[string][]string)
	}

	granted := d.Approvals[bundle]
	for _, service := range services {
		found := false
		for _, existing := range granted {
			if existing == service {
				found = true
				break
			}
		}
		if !found {
			granted = append(granted, service)
		}
	}
	sort.Strings(granted)
	d.Approvals[bundle] = granted
	s.log.Info().Str("udid", udid.String()).Str("bundle", bundle).Strs("services", services).Msg("approved services")

	return s.saveInternal(d)
}

// OpenURL validates that the device can receive a URL. The open itself is an
// event, not a state change.
func (s *Set) OpenURL(udid uuid.UUID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.findInternal(udid)
	if err != nil {
		return err
	}
	if d.State != StateBooted {
		return transitionError(d, "open a url on")
	}

	s.log.Info().Str("udid", udid.String()).Str("url", url).Msg("opened url")
	return nil
}

// Device returns a copy of one device's record.
func (s *Set) Device(udid uuid.UUID) (Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.findInternal(udid)
	if err != nil {
		return Device{}, err
	}
	return clone(d), nil
}

// List returns copies of every device, oldest first.
func (s *Set) List() []Device {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices := make([]Device, 0, len(s.devices))
	for _, d := range s.devices {
		devices = append(devices, clone(d))
	}
	sort.Slice(devices, func(i, j int) bool {
		if devices[i].CreatedAt.Equal(devices[j].CreatedAt) {
			return devices[i].UDID.String() < devices[j].UDID.String()
		}
		return devices[i].CreatedAt.Before(devices[j].CreatedAt)
	})

	return devices
}

// Match returns the devices the predicate keeps, oldest first.
func (s *Set) Match(pred func(Device) bool) []Device {
	var matched []Device
	for _, d := range s.List() {
		if pred(d) {
			matched = append(matched, d)
		}
	}
	return matched
}
