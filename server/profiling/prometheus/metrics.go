/*
 * Copyright 2025 The Collabboard Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package prometheus provides a Prometheus metrics exporter.
package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/collabboard/collabboard/api/types/events"
	"github.com/collabboard/collabboard/internal/version"
)

const (
	namespace   = "collabboard"
	eventLabel  = "event"
	reasonLabel = "reason"
)

// Metrics manages the metric information that Collabboard is trying to
// measure.
type Metrics struct {
	registry *prometheus.Registry

	serverVersion *prometheus.GaugeVec

	relayConnections          prometheus.Gauge
	relaySessions             prometheus.Gauge
	relayEventsTotal          *prometheus.CounterVec
	relayEventPayloadBytes    *prometheus.CounterVec
	relayDroppedChannelsTotal *prometheus.CounterVec
	relayRejectedFramesTotal  *prometheus.CounterVec
}

// NewMetrics creates a new instance of Metrics.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	metrics := &Metrics{
		registry: reg,
		serverVersion: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "version",
			Help:      "Which version is running. 1 for 'server_version' label with current version.",
		}, []string{"server_version"}),
		relayConnections: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "connections",
			Help:      "The number of open relay channels.",
		}),
		relaySessions: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "sessions",
			Help:      "1 while a session has at least one member, 0 otherwise.",
		}),
		relayEventsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "events_total",
			Help:      "The total count of events relayed to other members.",
		}, []string{eventLabel}),
		relayEventPayloadBytes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "event_payload_bytes_total",
			Help:      "The total bytes of relayed event payloads.",
		}, []string{eventLabel}),
		relayDroppedChannelsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "dropped_channels_total",
			Help:      "The total count of channels removed because delivery to them failed.",
		}, []string{reasonLabel}),
		relayRejectedFramesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "rejected_frames_total",
			Help:      "The total count of inbound frames that were not relayed.",
		}, []string{reasonLabel}),
	}

	metrics.serverVersion.With(prometheus.Labels{
		"server_version": version.Version,
	}).Set(1)

	return metrics, nil
}

// AddRelayConnections adds the number of open relay channels.
func (m *Metrics) AddRelayConnections() {
	m.relayConnections.Inc()
}

// RemoveRelayConnections removes the number of open relay channels.
func (m *Metrics) RemoveRelayConnections() {
	m.relayConnections.Dec()
}

// SetRelaySessionActive records whether a session is in progress.
func (m *Metrics) SetRelaySessionActive(active bool) {
	if active {
		m.relaySessions.Set(1)
		return
	}
	m.relaySessions.Set(0)
}

// AddRelayEvent adds a relayed event and the bytes of its payload.
func (m *Metrics) AddRelayEvent(eventType events.Type, bytes int) {
	m.relayEventsTotal.With(prometheus.Labels{
		eventLabel: string(eventType),
	}).Inc()

	m.relayEventPayloadBytes.With(prometheus.Labels{
		eventLabel: string(eventType),
	}).Add(float64(bytes))
}

// AddDroppedChannel adds a channel removed from the session for the given
// reason.
func (m *Metrics) AddDroppedChannel(reason string) {
	m.relayDroppedChannelsTotal.With(prometheus.Labels{
		reasonLabel: reason,
	}).Inc()
}

// AddRejectedFrame adds an inbound frame that was not relayed.
func (m *Metrics) AddRejectedFrame(reason string) {
	m.relayRejectedFramesTotal.With(prometheus.Labels{
		reasonLabel: reason,
	}).Inc()
}

// Registry returns the registry of this metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
