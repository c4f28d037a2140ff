/*
 * Copyright (c) 2022, Gideon Williams <gideon@gideonw.com>
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package proto

import (
	"errors"
	"fmt"
	"net/url"
)

var Protocol = "marionette"

type ConnectionString struct {
	Local   bool
	Address string
	Set     string
}

// ParseConnectionString takes a connection string and parses it into the
// parts the application needs to make a connection. A local connection
// string names a device set directory; a remote one names a command server.
// An empty set path means the caller's default set.
//
// Formats:
//
//	./path/to/local/set
//	file://./path/to/local/set
//	marionette://<host:port>
func ParseConnectionString(connStr string) (ConnectionString, error) {
	ret := ConnectionString{
		Local:   true,
		Address: "local",
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return ConnectionString{}, err
	}

	// Handle the local case
	if u.Scheme == "" || u.Scheme == "file" {
		ret.Set = u.Path
		return ret, nil
	}

	if u.Scheme == Protocol {
		ret.Local = false
		ret.Address = u.Host
		if u.Path != "" && u.Path != "/" {
			return ConnectionString{}, errors.New(fmt.Sprintf("unexpected path %s, the server picks the set", u.Path))
		}
		return ret, nil
	}

	return ConnectionString{}, errors.New(fmt.Sprintf("unrecognized scheme: %s", u.Scheme))
}
