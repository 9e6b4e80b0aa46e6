// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package localaddr

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddrString(t *testing.T) {
	tests := []struct {
		name string
		addr Addr
		want string
	}{
		{"ipv4", Addr{Hostname: "box", IP: netip.MustParseAddr("192.168.1.5")}, "box/192.168.1.5"},
		{"ipv6", Addr{Hostname: "box", IP: netip.MustParseAddr("fe80::1")}, "box/fe80::1"},
		{"mapped", Addr{Hostname: "box", IP: netip.MustParseAddr("::ffff:10.0.0.1")}, "box/10.0.0.1"},
		{"nameless", Addr{IP: netip.MustParseAddr("10.0.0.1")}, "/10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.addr.String(); got != tt.want {
				t.Fatalf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSystemResolveFirstAddress(t *testing.T) {
	var gotHost, gotNetwork string
	s := &System{
		Hostname: func() (string, error) { return "box", nil },
		LookupNetIP: func(_ context.Context, network, host string) ([]netip.Addr, error) {
			gotNetwork, gotHost = network, host
			return []netip.Addr{
				netip.MustParseAddr("127.0.1.1"),
				netip.MustParseAddr("192.168.1.5"),
			}, nil
		},
	}
	addr, err := s.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if gotHost != "box" || gotNetwork != "ip" {
		t.Fatalf("lookup(%q, %q), want lookup(%q, %q)", gotNetwork, gotHost, "ip", "box")
	}
	want := Addr{Hostname: "box", IP: netip.MustParseAddr("127.0.1.1")}
	if diff := cmp.Diff(want, addr, cmp.Comparer(func(a, b netip.Addr) bool { return a == b })); diff != "" {
		t.Fatalf("Resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestSystemResolveErrors(t *testing.T) {
	okHost := func() (string, error) { return "box", nil }
	tests := []struct {
		name     string
		hostname func() (string, error)
		lookup   func(context.Context, string, string) ([]netip.Addr, error)
	}{
		{
			name:     "hostname error",
			hostname: func() (string, error) { return "", errors.New("boom") },
		},
		{
			name:     "empty hostname",
			hostname: func() (string, error) { return "", nil },
		},
		{
			name:     "lookup error",
			hostname: okHost,
			lookup: func(context.Context, string, string) ([]netip.Addr, error) {
				return nil, errors.New("no such host")
			},
		},
		{
			name:     "no addresses",
			hostname: okHost,
			lookup: func(context.Context, string, string) ([]netip.Addr, error) {
				return nil, nil
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := tt.lookup
			if lookup == nil {
				lookup = func(context.Context, string, string) ([]netip.Addr, error) {
					t.Fatal("lookup should not be called")
					return nil, nil
				}
			}
			s := &System{Hostname: tt.hostname, LookupNetIP: lookup}
			_, err := s.Resolve(context.Background())
			if !errors.Is(err, ErrUnknownHost) {
				t.Fatalf("Resolve error = %v, want ErrUnknownHost", err)
			}
		})
	}
}

func TestResolverFunc(t *testing.T) {
	want := Addr{Hostname: "h", IP: netip.MustParseAddr("10.1.2.3")}
	var r Resolver = ResolverFunc(func(context.Context) (Addr, error) { return want, nil })
	got, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != want {
		t.Fatalf("Resolve = %v, want %v", got, want)
	}
}

func TestParseIPv4Addrs(t *testing.T) {
	out := `1: lo    inet 127.0.0.1/8 scope host lo\       valid_lft forever preferred_lft forever
2: eth0    inet 192.168.1.5/24 brd 192.168.1.255 scope global eth0\       valid_lft forever preferred_lft forever
2: eth0    inet 192.168.1.5/24 brd 192.168.1.255 scope global secondary eth0
3: wg0    inet bogus/32 scope global wg0
garbage

4: docker0    inet 172.17.0.1/16 brd 172.17.255.255 scope global docker0
`
	got := dedupNonLoopback(ParseIPv4Addrs(out))
	want := []IfaceIP{
		{Interface: "eth0", IP: netip.MustParseAddr("192.168.1.5")},
		{Interface: "docker0", IP: netip.MustParseAddr("172.17.0.1")},
	}
	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b netip.Addr) bool { return a == b })); diff != "" {
		t.Fatalf("ParseIPv4Addrs mismatch (-want +got):\n%s", diff)
	}
}
