/*
 * Copyright (c) 2022, Gideon Williams <gideon@gideonw.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsStore interface {
	Registry() *prometheus.Registry
	RegisterCollector(c prometheus.Collector)
	Handler() http.Handler

	// Collection
	IncClientConnection()
	IncCommand(action string)
	IncParseFailure()
	ObserveResponseNS(action string, t int64)
}

type metricsStore struct {
	registry          *prometheus.Registry
	ClientConnections prometheus.Counter
	Commands          *prometheus.CounterVec
	ParseFailures     prometheus.Counter
	ResponseNS        *prometheus.HistogramVec
}

var ActionLabel = "action"

func NewMetricsStore() MetricsStore {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(
			collectors.WithGoCollectorRuntimeMetrics(collectors.MetricsAll),
		),
	)

	buckets := []float64{}
	for i := 1; i < 20; i++ {
		buckets = append(buckets, float64(2*i*int(time.Millisecond)))
	}

	factory := promauto.With(reg)
	return &metricsStore{
		registry: reg,
		ClientConnections: factory.NewCounter(prometheus.CounterOpts{
			Name: "marionette_client_connections",
			Help: "The total number of client connections",
		}),
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marionette_commands",
			Help: "Command counts for the marionette actions",
		}, []string{ActionLabel}),
		ParseFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "marionette_parse_failures",
			Help: "The total number of lines rejected by the command grammar",
		}),
		ResponseNS: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marionette_response_ns",
			Help:    "Response times on commands run against the device set",
			Buckets: buckets,
		}, []string{ActionLabel}),
	}
}

func (ms *metricsStore) Registry() *prometheus.Registry {
	return ms.registry
}

func (ms *metricsStore) RegisterCollector(c prometheus.Collector) {
	ms.registry.MustRegister(c)
}

func (ms *metricsStore) Handler() http.Handler {
	return promhttp.HandlerFor(ms.Registry(), promhttp.HandlerOpts{Registry: ms.Registry()})
}

func (ms *metricsStore) IncClientConnection() {
	ms.ClientConnections.Inc()
}

func (ms *metricsStore) IncCommand(action string) {
	ms.Commands.With(prometheus.Labels{ActionLabel: action}).Inc()
}

func (ms *metricsStore) IncParseFailure() {
	ms.ParseFailures.Inc()
}

func (ms *metricsStore) ObserveResponseNS(action string, t int64) {
	ms.ResponseNS.
		With(prometheus.Labels{ActionLabel: action}).
		Observe(float64(t))
}
