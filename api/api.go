/*
 * Copyright (c) 2022-2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package marionette

import (
	"github.com/dburkart/marionette/pkg/command"
	"github.com/dburkart/marionette/pkg/proto"
	"github.com/rs/zerolog"
)

// NewClient creates a new Client which can be used to run command lines
// against a device set. A local connection string runs each line in
// process against the set it names; a remote one sends lines to a
// command server, where the server's own set and defaults govern.
// The client is thread safe, but only holds one connection at a time.
// For a client pool, use NewClientPool instead.
func NewClient(log zerolog.Logger, connstr string, defaults command.Defaults) (Client, error) {
	client, err := NewClientPool(log, connstr, defaults, 1)
	if err != nil {
		return nil, err
	}

	return client, nil
}

// NewClientPool creates a new Client which holds a pool of net.Conn
// resources open to a remote command server. This is useful for driving
// many devices from concurrent goroutines.
func NewClientPool(log zerolog.Logger, connstr string, defaults command.Defaults, size uint) (Client, error) {
	target, err := proto.ParseConnectionString(connstr)
	if err != nil {
		return nil, err
	}

	if target.Local {
		client := &LocalClient{log: log, defaults: defaults}
		if err := client.open(target); err != nil {
			return nil, err
		}
		return client, nil
	}

	client := &RemoteClient{log: log}
	if err := client.open(target, size); err != nil {
		return nil, err
	}
	return client, nil
}
