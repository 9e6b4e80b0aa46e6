// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package localaddr

import (
	"context"
	"fmt"
	"net/netip"
	"os/exec"
	"strings"
)

// IfaceIP is an IPv4 address assigned to a network interface.
type IfaceIP struct {
	Interface string
	IP        netip.Addr
}

// ParseIPv4Addrs parses the output of `ip -o -4 addr show`. Lines without an
// inet field or with an unparsable address are skipped.
func ParseIPv4Addrs(text string) []IfaceIP {
	lines := strings.Split(text, "\n")
	ips := make([]IfaceIP, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		iface := fields[1]
		raw := ""
		for i := 0; i < len(fields)-1; i++ {
			if fields[i] == "inet" {
				raw = fields[i+1]
				break
			}
		}
		raw, _, _ = strings.Cut(raw, "/")
		ip, err := netip.ParseAddr(raw)
		if err != nil || !ip.Is4() {
			continue
		}
		ips = append(ips, IfaceIP{Interface: iface, IP: ip})
	}
	return ips
}

// ListIPv4 returns the non-loopback IPv4 addresses of the local interfaces,
// without duplicates, in the order the ip tool reports them.
func ListIPv4(ctx context.Context) ([]IfaceIP, error) {
	bs, err := exec.CommandContext(ctx, "ip", "-o", "-4", "addr", "show").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return dedupNonLoopback(ParseIPv4Addrs(string(bs))), nil
}

func dedupNonLoopback(raw []IfaceIP) []IfaceIP {
	seen := make(map[IfaceIP]struct{}, len(raw))
	ips := make([]IfaceIP, 0, len(raw))
	for _, entry := range raw {
		if entry.IP.IsLoopback() {
			continue
		}
		if _, ok := seen[entry]; ok {
			continue
		}
		seen[entry] = struct{}{}
		ips = append(ips, entry)
	}
	return ips
}
