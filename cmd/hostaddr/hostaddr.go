// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/shayne/yargs"
	"github.com/yeetrun/hostaddr/pkg/localaddr"
	"github.com/yeetrun/hostaddr/pkg/version"
	"golang.org/x/term"
)

type globalFlagsParsed struct{}

var isTerminalFn = term.IsTerminal

func main() {
	handlers := map[string]yargs.SubcommandHandler{
		"serve":   handleServe,
		"lookup":  handleLookup,
		"addrs":   handleAddrs,
		"version": handleVersion,
	}
	if err := yargs.RunSubcommands(context.Background(), os.Args[1:], buildHelpConfig(), globalFlagsParsed{}, handlers); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildHelpConfig() yargs.HelpConfig {
	return yargs.HelpConfig{
		Command: yargs.CommandInfo{
			Name:        "hostaddr",
			Description: "Serve the local host address over HTTP.",
			Examples: []string{
				"hostaddr serve",
				"hostaddr serve --listen=127.0.0.1:9000 --failure-policy=legacy",
				"hostaddr serve --config=/etc/hostaddr.toml --tsnet-host=hostaddr",
				"hostaddr lookup",
			},
		},
		SubCommands: map[string]yargs.SubCommandInfo{
			"serve": {
				Name:        "serve",
				Description: "Answer GET / with the local host address",
				Usage:       "[--config=PATH] [--listen=ADDR] [--failure-policy=unavailable|legacy] [--tsnet-host=HOST]",
			},
			"lookup": {
				Name:        "lookup",
				Description: "Resolve and print the local host address once",
			},
			"addrs": {
				Name:        "addrs",
				Description: "List the non-loopback IPv4 addresses of the local interfaces",
			},
			"version": {
				Name:        "version",
				Description: "Print the build version",
			},
		},
	}
}

// stripCommand drops the subcommand name the router passes through.
func stripCommand(args []string, name string) []string {
	if len(args) > 0 && args[0] == name {
		return args[1:]
	}
	return args
}

func handleVersion(_ context.Context, _ []string) error {
	fmt.Println(version.Version())
	return nil
}

func handleLookup(ctx context.Context, args []string) error {
	if _, err := yargs.ParseFlags[globalFlagsParsed](stripCommand(args, "lookup")); err != nil {
		return err
	}
	return printLookup(ctx, os.Stdout, &localaddr.System{})
}

func printLookup(ctx context.Context, w io.Writer, r localaddr.Resolver) error {
	addr, err := r.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("address resolution failed: %w", err)
	}
	c := color.New(color.FgGreen, color.Bold)
	if f, ok := w.(*os.File); !ok || !isTerminalFn(int(f.Fd())) {
		c.DisableColor()
	}
	c.Fprintln(w, addr.String())
	return nil
}

func handleAddrs(ctx context.Context, args []string) error {
	if _, err := yargs.ParseFlags[globalFlagsParsed](stripCommand(args, "addrs")); err != nil {
		return err
	}
	ips, err := localaddr.ListIPv4(ctx)
	if err != nil {
		return err
	}
	return printAddrs(os.Stdout, ips)
}

func printAddrs(w io.Writer, ips []localaddr.IfaceIP) error {
	if len(ips) == 0 {
		return errors.New("no non-loopback IPv4 addresses found")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, ip := range ips {
		fmt.Fprintf(tw, "%s\t%s\n", ip.Interface, ip.IP)
	}
	return tw.Flush()
}
