// Package handlers implements the business logic for CLI commands.
//
// Handlers load the configuration, construct the environment controller
// against the real control plane, and drive its lifecycle operations.
// Construction goes through factory variables so tests can inject fakes.
package handlers

import (
	"context"

	"github.com/sonic-net/sonic-testenv/internal/config"
	"github.com/sonic-net/sonic-testenv/internal/controlplane"
	"github.com/sonic-net/sonic-testenv/internal/deploy"
	"github.com/sonic-net/sonic-testenv/internal/device"
	"github.com/sonic-net/sonic-testenv/internal/env"
	"github.com/sonic-net/sonic-testenv/internal/imagebuild"
	"github.com/sonic-net/sonic-testenv/internal/logdump"
)

// environment is the slice of env.Controller the handlers drive.
type environment interface {
	Setup(ctx context.Context, skipBuild bool) error
	AttachRunning(ctx context.Context) error
	Redeploy(ctx context.Context, rebuild bool) error
	CreateDevice(ctx context.Context, name string, overrides map[string]string) (device.Handle, error)
	CollectLogs(ctx context.Context, testName string) (string, error)
	Status(ctx context.Context) (string, error)
	Teardown(ctx context.Context) ([]error, error)
}

// Factory function variables - can be replaced in tests.
var (
	// loadConfig loads the effective configuration.
	loadConfig = config.Load

	// newEnvironment wires the controller against the real minikube
	// control plane.
	newEnvironment = func(cfg *config.Config) environment {
		cp := controlplane.NewMinikube(cfg.ClusterName, cfg.KubernetesVersion)
		return env.NewController(
			cfg,
			cp,
			imagebuild.NewBuilder(nil),
			deploy.NewOrchestrator(cp),
			device.NewRegistry(cp, cfg.Namespace),
			logdump.NewCollector(cp, cfg.LogDir),
		)
	}
)
