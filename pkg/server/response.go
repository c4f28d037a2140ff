/*
 * Copyright (c) 2022, Gideon Williams <gideon@gideonw.com>
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"bufio"
	"net"
	"time"

	"github.com/dburkart/marionette/pkg/command"
	"github.com/dburkart/marionette/pkg/proto"
	"github.com/dburkart/marionette/pkg/runner"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"
)

type conn struct {
	log zerolog.Logger
	c   *net.TCPConn

	metrics  MetricsStore
	runner   *runner.Runner
	defaults command.Defaults
}

func newConn(log zerolog.Logger, metrics MetricsStore, r *runner.Runner, defaults command.Defaults) *conn {
	return &conn{
		log:      log,
		metrics:  metrics,
		runner:   r,
		defaults: defaults,
	}
}

func (c *conn) Handle(conn *net.TCPConn) {
	c.c = conn

	scanner := bufio.NewScanner(c.c)
	for {
		scan := scanner.Scan()
		if !scan {
			if scanner.Err() != nil {
				c.log.Error().Err(scanner.Err()).Msg("error reading from the conn")
			}
			c.c.Close()
			return
		}

		line := scanner.Text()
		c.log.Info().Int("read", len(line)).Msg("read from conn")

		c.respond(c.run(line))
	}
}

// run executes one line against the device set. The returned error is
// what the client sees, so it must stand on its own.
func (c *conn) run(line string) (string, error) {
	start := time.Now()

	tokens, err := shellquote.Split(line)
	if err != nil {
		c.metrics.IncParseFailure()
		return "", err
	}

	cmd, err := command.Parse(tokens)
	if err != nil {
		c.metrics.IncParseFailure()
		return "", err
	}
	cmd = c.defaults.Apply(cmd)

	rep, err := c.runner.Run(cmd)
	if err != nil {
		return "", err
	}

	c.metrics.IncCommand(cmd.Action.Name())
	c.metrics.ObserveResponseNS(cmd.Action.Name(), time.Since(start).Nanoseconds())

	return runner.Render(rep, runner.ActiveFormat(cmd)), nil
}

func (c *conn) respond(body string, err error) {
	resp := proto.Response{OK: true, Body: body}
	if err != nil {
		resp = proto.Response{Body: err.Error()}
	}

	n, werr := proto.WriteResponse(c.c, resp)
	if werr != nil {
		c.log.Error().Err(werr).Msg("unable to write response")
	}
	c.log.Trace().Int("wrote", n).Msg("wrote response")
}
