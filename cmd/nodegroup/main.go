// Package main is the entry point for the nodegroup CLI.
//
// nodegroup provisions and tears down tagged groups of EC2 instances. A
// group shares one key pair and one security group, created on first use
// and deleted when the last node of the group is destroyed.
//
// Commands: run, destroy, nodes.
//
// For detailed usage information, run:
//
//	nodegroup --help
package main

import (
	"fmt"
	"os"

	"github.com/myorg/nodegroup/cmd/nodegroup/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
