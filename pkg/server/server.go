// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package server serves the local host address over HTTP.
package server

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/yeetrun/hostaddr/pkg/localaddr"
)

// FailurePolicy selects what GET / does when address resolution fails.
type FailurePolicy string

const (
	// PolicyUnavailable responds 503 with a short message.
	PolicyUnavailable FailurePolicy = "unavailable"
	// PolicyLegacy faults on the missing address and lets the recovery
	// middleware answer with a bare 500.
	PolicyLegacy FailurePolicy = "legacy"
)

// Valid reports whether p is a known policy.
func (p FailurePolicy) Valid() bool {
	switch p {
	case PolicyUnavailable, PolicyLegacy:
		return true
	}
	return false
}

const (
	requestIDHeader   = "X-Request-Id"
	unavailableBody   = "address resolution failed"
	diagnosticPrefix  = "Your current IP address : "
	defaultPolicy     = PolicyUnavailable
	textPlainMimeType = "text/plain; charset=utf-8"
)

// Config is the configuration for a Server.
type Config struct {
	// Resolver resolves the local address. If nil, a localaddr.System is used.
	Resolver localaddr.Resolver
	// Policy defaults to PolicyUnavailable.
	Policy FailurePolicy
	// Stdout receives one diagnostic line per request. Defaults to os.Stdout.
	Stdout io.Writer
	// Logf logs failures. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// Server answers GET / with the local host address.
type Server struct {
	resolver localaddr.Resolver
	policy   FailurePolicy
	stdout   io.Writer
	logf     func(format string, args ...any)
}

// New returns a Server for cfg.
func New(cfg Config) *Server {
	s := &Server{
		resolver: cfg.Resolver,
		policy:   cfg.Policy,
		stdout:   cfg.Stdout,
		logf:     cfg.Logf,
	}
	if s.resolver == nil {
		s.resolver = &localaddr.System{}
	}
	if s.policy == "" {
		s.policy = defaultPolicy
	}
	if s.stdout == nil {
		s.stdout = os.Stdout
	}
	if s.logf == nil {
		s.logf = log.Printf
	}
	return s
}

// Handler returns the routing table wrapped in the request middleware.
// Only GET / is routed; everything else gets the mux's 404 or 405.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.serveAddr)
	return s.withRequestID(s.recoverer(mux))
}

func (s *Server) serveAddr(w http.ResponseWriter, r *http.Request) {
	var addr *localaddr.Addr
	a, err := s.resolver.Resolve(r.Context())
	if err != nil {
		fmt.Fprintf(s.stdout, "%sunavailable (%v)\n", diagnosticPrefix, err)
		if s.policy == PolicyUnavailable {
			s.logf("[%s] address resolution failed: %v", requestID(w), err)
			http.Error(w, unavailableBody, http.StatusServiceUnavailable)
			return
		}
		s.logf("[%s] address resolution failed: %v\n%s", requestID(w), err, debug.Stack())
	} else {
		addr = &a
		fmt.Fprintf(s.stdout, "%s%s\n", diagnosticPrefix, addr)
	}

	// Under PolicyLegacy addr is nil here on failure and this faults.
	body := addr.String()
	w.Header().Set("Content-Type", textPlainMimeType)
	io.WriteString(w, body)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(requestIDHeader, uuid.NewString())
		next.ServeHTTP(w, r)
	})
}

// recoverer turns a handler panic into an empty 500 response.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logf("[%s] panic serving %s %s: %v\n%s", requestID(w), r.Method, r.URL.Path, rec, debug.Stack())
			w.WriteHeader(http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}

func requestID(w http.ResponseWriter) string {
	return w.Header().Get(requestIDHeader)
}
