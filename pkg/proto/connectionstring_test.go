/*
 * Copyright (c) 2022, Gideon Williams gideon@gideonw.com
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package proto

import "testing"

func TestParseConnectionString(t *testing.T) {
	tt := []struct {
		test    string
		connStr string
		addr    string
		local   bool
		set     string
	}{
		{
			"Test empty conn string",
			"",
			"local",
			true,
			"",
		},
		{
			"Test local file scheme",
			"file:///var/devices",
			"local",
			true,
			"/var/devices",
		},
		{
			"Test local set no scheme",
			"./local/devices",
			"local",
			true,
			"./local/devices",
		},
		{
			"Test host no trailing slash",
			"marionette://localhost:8400",
			"localhost:8400",
			false,
			"",
		},
		{
			"Test host trailing slash",
			"marionette://localhost:8400/",
			"localhost:8400",
			false,
			"",
		},
		{
			"Test no proto bare word",
			"local",
			"local",
			true,
			"local",
		},
	}

	_, err := ParseConnectionString("marioneette:///zx")
	if err == nil {
		t.Error("marioneette:///zx should have caused an error")
	}

	_, err = ParseConnectionString("tcp:///zx")
	if err == nil {
		t.Error("tcp:///zx should have caused an error")
	}

	_, err = ParseConnectionString("marionette://localhost:8400/extra")
	if err == nil {
		t.Error("a path on a remote connection string should have caused an error")
	}

	for _, tc := range tt {
		t.Run(tc.test, func(t *testing.T) {
			connStr, err := ParseConnectionString(tc.connStr)
			if err != nil {
				t.Error(err)
			}
			if connStr.Address != tc.addr {
				t.Errorf("Address mismatch: %s != %s", connStr.Address, tc.addr)
			}
			if connStr.Local != tc.local {
				t.Error("local mismatch")
			}
			if connStr.Set != tc.set {
				t.Errorf("set mismatch: %s != %s", connStr.Set, tc.set)
			}
		})
	}
}
