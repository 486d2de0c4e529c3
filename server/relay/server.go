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

// Package relay provides the WebSocket transport of the session relay. Every
// connection becomes one relay channel: a member of the session whose events
// are rebroadcast to every other member.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/collabboard/collabboard/api/types"
	"github.com/collabboard/collabboard/server/backend"
	"github.com/collabboard/collabboard/server/logging"
)

const (
	// PathChannel is the path a participant opens its relay channel on.
	PathChannel = "/ws"

	// PathHealth is the liveness probe path.
	PathHealth = "/healthz"

	// PathVersion reports the version of the running server.
	PathVersion = "/version"
)

// Server is the relay server that accepts participants' channels.
type Server struct {
	conf       *Config
	be         *backend.Backend
	router     *mux.Router
	upgrader   websocket.Upgrader
	httpServer *http.Server
	listener   net.Listener

	relayCtx    context.Context
	relayCancel context.CancelFunc

	mu       sync.Mutex
	closing  bool
	channels sync.WaitGroup
}

// NewServer creates a new instance of Server.
func NewServer(conf *Config, be *backend.Backend) *Server {
	relayCtx, relayCancel := context.WithCancel(context.Background())

	s := &Server{
		conf:        conf,
		be:          be,
		router:      mux.NewRouter(),
		relayCtx:    relayCtx,
		relayCancel: relayCancel,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return conf.allowOrigin(r.Header.Get("Origin"))
		},
	}

	s.router.Use(loggingMiddleware)
	s.router.Methods(http.MethodGet).Path(PathChannel).HandlerFunc(s.serveChannel)
	s.router.Methods(http.MethodGet).Path(PathHealth).HandlerFunc(serveHealth)
	s.router.Methods(http.MethodGet).Path(PathVersion).HandlerFunc(serveVersion)
	s.httpServer = &http.Server{Handler: s.router}

	return s
}

// Handler returns the HTTP handler of this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts this server by opening the relay port.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.conf.Port))
	if err != nil {
		logging.DefaultLogger().Error(err)
		return err
	}
	s.listener = lis

	go func() {
		logging.DefaultLogger().Infof("serving relay on %s", lis.Addr())

		if err := s.httpServer.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
			logging.DefaultLogger().Error(err)
		}
	}()

	return nil
}

// Addr returns the address the relay listens on, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown shuts down this server. Open channels are closed; a graceful
// shutdown waits until each of them has left the session.
func (s *Server) Shutdown(graceful bool) {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	s.relayCancel()

	if graceful {
		if err := s.httpServer.Shutdown(context.Background()); err != nil {
			logging.DefaultLogger().Errorf("HTTP server Shutdown: %v", err)
		}
		s.channels.Wait()
		return
	}

	if err := s.httpServer.Close(); err != nil {
		logging.DefaultLogger().Errorf("HTTP server close: %v", err)
	}
}

// serveChannel upgrades the request and runs the relay channel until either
// side ends it.
func (s *Server) serveChannel(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		http.Error(w, "relay is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.channels.Add(1)
	s.mu.Unlock()
	defer s.channels.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied with an HTTP error.
		logging.DefaultLogger().Debugf("upgrade %s: %v", r.RemoteAddr, err)
		return
	}

	newChannel(s.conf, s.be, conn).run(s.relayCtx)
}

func serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func serveVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(types.CurrentVersionDetail()); err != nil {
		logging.DefaultLogger().Errorf("encode version: %v", err)
	}
}

// loggingMiddleware logs every request handled by the relay. Channel
// requests are logged when the channel ends.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		logging.DefaultLogger().Debugf(
			"HTTP: %s %s => %d (%s)",
			r.Method,
			r.URL.Path,
			m.Code,
			m.Duration,
		)
	})
}
