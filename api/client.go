/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package marionette

type Client interface {
	Run(line string) (string, error)
	Close() error
}
