/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package history is the append-only event log for a device set. Every
// mutating action lands here as one record per line, so the log is greppable
// on disk and replayable in order.
package history

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/gob"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Event is one recorded action against one device.
type Event struct {
	Time   time.Time
	UDID   uuid.UUID
	Action string
	Detail string
}

// Log appends to and replays a single history file. The file is opened per
// call, so a Log value is freely copyable and safe to construct inline.
type Log struct {
	Path string
}

// Append writes one event to the end of the log. A zero Time is stamped with
// the current time.
func (l *Log) Append(e Event) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	var encoded bytes.Buffer
	enc := gob.NewEncoder(&encoded)
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("encoding history event: %w", err)
	}

	file, err := os.OpenFile(l.Path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(base64.StdEncoding.EncodeToString(encoded.Bytes()) + "\n")
	return err
}

// Replay decodes every event in order, handing each to visit. Returning
// false stops the replay early. A missing log file replays as empty.
func (l *Log) Replay(visit func(Event) bool) error {
	file, err := os.OpenFile(l.Path, os.O_RDONLY|os.O_CREATE, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		raw, err := base64.StdEncoding.DecodeString(scanner.Text())
		if err != nil {
			return fmt.Errorf("corrupt history record: %w", err)
		}

		var e Event
		dec := gob.NewDecoder(bytes.NewBuffer(raw))
		if err := dec.Decode(&e); err != nil {
			return fmt.Errorf("corrupt history record: %w", err)
		}

		if !visit(e) {
			return nil
		}
	}

	return scanner.Err()
}

// Recent returns the last n events for a device, oldest first. A nil UDID
// matches every device.
func (l *Log) Recent(udid uuid.UUID, n int) ([]Event, error) {
	var events []Event
	err := l.Replay(func(e Event) bool {
		if udid != uuid.Nil && e.UDID != udid {
			return true
		}
		events = append(events, e)
		if len(events) > n {
			events = events[1:]
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
