// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	log "github.com/sirupsen/logrus"
)

// Status selects entries by load state, values can be combined.
type Status int

// Entry states understood by Count
const (
	Loaded Status = 1 << iota
	NotLoaded

	AnyStatus = Loaded | NotLoaded
)

// Statistics is a snapshot of the pool contents.
type Statistics struct {
	NotLoaded int `json:"notLoaded"`
	Loaded    int `json:"loaded"`
	Locked    int `json:"locked"`
	Total     int `json:"total"`
}

// Count returns the number of entries matching the status mask.
func (p *Pool) Count(status Status) int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	var amount int
	for _, e := range p.entries {
		if status&Loaded != 0 && e.resource != nil {
			amount++
		}
		if status&NotLoaded != 0 && e.resource == nil {
			amount++
		}
	}
	return amount
}

// Statistics counts entries by state. Locked entries are loaded
// and still held by at least one consumer.
func (p *Pool) Statistics() Statistics {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	stats := Statistics{Total: len(p.entries)}
	for _, e := range p.entries {
		if e.resource == nil {
			stats.NotLoaded++
			continue
		}
		stats.Loaded++
		if e.resource.RefCount() > 0 {
			stats.Locked++
		}
	}
	return stats
}

// LogStatistics writes the current statistics to the pool logger.
func (p *Pool) LogStatistics() {
	stats := p.Statistics()
	p.logger().WithFields(log.Fields{
		"notLoaded": stats.NotLoaded,
		"loaded":    stats.Loaded,
		"locked":    stats.Locked,
		"total":     stats.Total,
	}).Info("pool statistics")
}
