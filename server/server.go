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

// Package server provides the Collabboard server which is the main entry point
// of the relay. The server is responsible for starting the relay server and
// the profiling server.
package server

import (
	"context"
	"net"
	gosync "sync"

	"github.com/collabboard/collabboard/server/backend"
	"github.com/collabboard/collabboard/server/logging"
	"github.com/collabboard/collabboard/server/profiling"
	"github.com/collabboard/collabboard/server/profiling/prometheus"
	"github.com/collabboard/collabboard/server/relay"
)

// Collabboard is a server of Collabboard.
// The server accepts participants' channels and rebroadcasts every event a
// participant emits to all the others in the session.
type Collabboard struct {
	lock gosync.Mutex

	conf            *Config
	backend         *backend.Backend
	relayServer     *relay.Server
	profilingServer *profiling.Server

	shutdown   bool
	shutdownCh chan struct{}
}

// New creates a new instance of Collabboard.
func New(conf *Config) (*Collabboard, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	metrics, err := prometheus.NewMetrics()
	if err != nil {
		return nil, err
	}

	be, err := backend.New(conf.Backend, conf.Redis, metrics)
	if err != nil {
		return nil, err
	}

	var profilingServer *profiling.Server
	if conf.Profiling != nil {
		profilingServer = profiling.NewServer(conf.Profiling, metrics)
	}

	return &Collabboard{
		conf:            conf,
		backend:         be,
		relayServer:     relay.NewServer(conf.Relay, be),
		profilingServer: profilingServer,
		shutdownCh:      make(chan struct{}),
	}, nil
}

// Start starts the server by opening the relay port.
func (r *Collabboard) Start() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.backend.Start(context.Background()); err != nil {
		return err
	}

	if r.profilingServer != nil {
		if err := r.profilingServer.Start(); err != nil {
			return err
		}
	}

	return r.relayServer.Start()
}

// Shutdown shuts down this Collabboard server.
func (r *Collabboard) Shutdown(graceful bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.shutdown {
		return nil
	}

	r.relayServer.Shutdown(graceful)
	if r.profilingServer != nil {
		r.profilingServer.Shutdown(graceful)
	}

	if err := r.backend.Shutdown(); err != nil {
		return err
	}

	logging.DefaultLogger().Infof("collabboard stopped")
	close(r.shutdownCh)
	r.shutdown = true
	return nil
}

// ShutdownCh returns the shutdown channel.
func (r *Collabboard) ShutdownCh() <-chan struct{} {
	return r.shutdownCh
}

// RelayAddr returns the address participants connect to. Once started it
// reflects the port actually bound.
func (r *Collabboard) RelayAddr() string {
	if addr := r.relayServer.Addr(); addr != "" {
		if _, port, err := net.SplitHostPort(addr); err == nil {
			return net.JoinHostPort("localhost", port)
		}
	}

	return r.conf.RelayAddr()
}

// Members returns the number of channels in the session. It is used for
// testing.
func (r *Collabboard) Members() int {
	return r.backend.PubSub.Len()
}
