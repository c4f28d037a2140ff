/*
 * Copyright (c) 2022, Gideon Williams gideon@gideonw.com
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"github.com/dburkart/marionette/pkg/device"
	"github.com/prometheus/client_golang/prometheus"
)

type setStatsCollector struct {
	set *device.Set

	devices      *prometheus.Desc
	applications *prometheus.Desc
	processes    *prometheus.Desc
}

func NewSetStatsCollector(set *device.Set) prometheus.Collector {
	return &setStatsCollector{
		set: set,
		devices: prometheus.NewDesc(
			"marionette_devices",
			"Number of devices in the set, by state.",
			[]string{"state"}, nil,
		),
		applications: prometheus.NewDesc(
			"marionette_applications",
			"Number of installed applications across the set.",
			nil, nil,
		),
		processes: prometheus.NewDesc(
			"marionette_processes",
			"Number of running processes across the set.",
			nil, nil,
		),
	}
}

// Describe implements Collector.
func (c *setStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.devices
	ch <- c.applications
	ch <- c.processes
}

// Collect implements Collector.
func (c *setStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.set.Stats()
	for state, count := range stats.ByState {
		ch <- prometheus.MustNewConstMetric(c.devices, prometheus.GaugeValue, float64(count), state.String())
	}
	ch <- prometheus.MustNewConstMetric(c.applications, prometheus.GaugeValue, float64(stats.Applications))
	ch <- prometheus.MustNewConstMetric(c.processes, prometheus.GaugeValue, float64(stats.Processes))
}
