/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package marionette

import (
	"github.com/dburkart/marionette/pkg/command"
	"github.com/dburkart/marionette/pkg/proto"
	"github.com/dburkart/marionette/pkg/runner"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"
)

// A LocalClient runs each command line in process against a device set
// on disk. Every line opens the set fresh, so successive calls compose
// the way separate CLI runs do.
type LocalClient struct {
	log      zerolog.Logger
	target   proto.ConnectionString
	defaults command.Defaults
}

func (client *LocalClient) open(target proto.ConnectionString) error {
	client.target = target

	// The connection string's set outranks the rc file, but a --set on
	// the line itself still wins.
	if target.Set != "" {
		cfg := command.Configuration{Set: target.Set}
		if client.defaults.Configuration != nil {
			cfg = *client.defaults.Configuration
			cfg.Set = target.Set
		}
		client.defaults.Configuration = &cfg
	}

	return nil
}

func (client *LocalClient) Close() error {
	return nil
}

func (client *LocalClient) Run(line string) (string, error) {
	tokens, err := shellquote.Split(line)
	if err != nil {
		return "", err
	}

	return runner.RunVector(client.log, tokens, client.defaults)
}
