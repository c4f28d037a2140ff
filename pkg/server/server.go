/*
 * Copyright (c) 2022, Gideon Williams <gideon@gideonw.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"fmt"
	"net"
	"net/http"

	"github.com/dburkart/marionette/pkg/command"
	"github.com/dburkart/marionette/pkg/device"
	"github.com/dburkart/marionette/pkg/history"
	"github.com/dburkart/marionette/pkg/runner"
	"github.com/rs/zerolog"
)

type Server struct {
	log     zerolog.Logger
	metrics MetricsStore

	runner   *runner.Runner
	defaults command.Defaults

	commandPort int
	metricsPort int
}

// New wires a server around an already-open device set. The set and
// history the server was started with are authoritative: --set and
// --kill-stale on an incoming line are ignored.
func New(log zerolog.Logger, set *device.Set, hist *history.Log, defaults command.Defaults, commandPort, metricsPort int) *Server {
	metrics := NewMetricsStore()
	metrics.RegisterCollector(NewSetStatsCollector(set))

	return &Server{
		log,
		metrics,
		runner.New(log, set, hist),
		defaults,
		commandPort,
		metricsPort,
	}
}

func (s *Server) ServeCommands() {
	sock, err := net.ListenTCP("tcp4", &net.TCPAddr{Port: s.commandPort})
	if err != nil {
		s.log.Error().Err(err).Int("port", s.commandPort).Msg("unable to listen on command port")
		return
	}
	s.log.Info().Int("command-port", s.commandPort).Msg("listening for client connections")

	s.Serve(sock)
}

// Serve accepts client connections on sock until the listener closes.
func (s *Server) Serve(sock *net.TCPListener) {
	for {
		client, err := sock.AcceptTCP()
		if err != nil {
			s.log.Error().Err(err).Msg("unable to accept connection on command socket")
			return
		}
		s.metrics.IncClientConnection()

		c := newConn(s.log, s.metrics, s.runner, s.defaults)
		go c.Handle(client)
	}
}

func (s *Server) ServeMetrics() {
	s.log.Info().Int("port", s.metricsPort).Msg("/metrics endpoint started")
	http.Handle("/metrics", s.metrics.Handler())
	http.ListenAndServe(fmt.Sprintf(":%d", s.metricsPort), nil)
}
