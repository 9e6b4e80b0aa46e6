// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package localaddr resolves the network address of the local host.
package localaddr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
)

// ErrUnknownHost is returned when the local hostname cannot be resolved to an
// address.
var ErrUnknownHost = errors.New("unknown host")

// Addr is the resolved address of the local host.
type Addr struct {
	Hostname string
	IP       netip.Addr
}

// String returns the address as "hostname/ip".
func (a Addr) String() string {
	return a.Hostname + "/" + a.IP.Unmap().String()
}

// A Resolver reports the address of the local host.
type Resolver interface {
	Resolve(context.Context) (Addr, error)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(context.Context) (Addr, error)

func (f ResolverFunc) Resolve(ctx context.Context) (Addr, error) {
	return f(ctx)
}

// System resolves the OS hostname through the system name service.
// The zero value is ready to use.
type System struct {
	// Hostname returns the local hostname. If nil, os.Hostname is used.
	Hostname func() (string, error)
	// LookupNetIP resolves a host. If nil, net.DefaultResolver is used.
	LookupNetIP func(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Resolve returns the first address the name service reports for the
// local hostname. Loopback addresses are not skipped.
func (s *System) Resolve(ctx context.Context) (Addr, error) {
	hostnameFn := s.Hostname
	if hostnameFn == nil {
		hostnameFn = os.Hostname
	}
	lookup := s.LookupNetIP
	if lookup == nil {
		lookup = net.DefaultResolver.LookupNetIP
	}

	host, err := hostnameFn()
	if err != nil {
		return Addr{}, fmt.Errorf("%w: failed to get hostname: %v", ErrUnknownHost, err)
	}
	if host == "" {
		return Addr{}, fmt.Errorf("%w: empty hostname", ErrUnknownHost)
	}
	ips, err := lookup(ctx, "ip", host)
	if err != nil {
		return Addr{}, fmt.Errorf("%w: %s: %v", ErrUnknownHost, host, err)
	}
	if len(ips) == 0 {
		return Addr{}, fmt.Errorf("%w: %s: no addresses", ErrUnknownHost, host)
	}
	return Addr{Hostname: host, IP: ips[0].Unmap()}, nil
}
