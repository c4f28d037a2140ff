/*
 * Copyright (c) 2023, Gideon Williams <gideon@gideonw.com>
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package device

// Stats is a point-in-time summary of a set, cheap enough to sample on
// every metrics scrape.
type Stats struct {
	Devices      int
	ByState      map[State]int
	Applications int
	Processes    int
}

func (s *Set) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Devices: len(s.devices),
		ByState: make(map[State]int),
	}
	for _, d := range s.devices {
		stats.ByState[d.State]++
		stats.Applications += len(d.Apps)
		stats.Processes += len(d.Processes)
	}
	return stats
}
