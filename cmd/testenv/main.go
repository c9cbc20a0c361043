// Package main is the entry point for the testenv CLI.
//
// testenv provisions ephemeral Kubernetes environments for exercising the
// SONiC change agent: it creates a local minikube cluster, builds and loads
// the agent images, deploys the redis dependency and the agent DaemonSet,
// and manages NetworkDevice resources against the running agent.
//
// Commands: setup, deploy, device, status, logs, cleanup, imageserver.
//
// For detailed usage information, run:
//
//	testenv --help
package main

import (
	"fmt"
	"os"

	"github.com/sonic-net/sonic-testenv/cmd/testenv/commands"
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
