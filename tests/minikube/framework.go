//go:build minikube

// Package minikube provides integration tests against a local minikube
// cluster. The suite drives the real environment controller end to end:
// cluster creation, agent deployment, device resources, and teardown.
package minikube

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/sonic-net/sonic-testenv/internal/config"
	"github.com/sonic-net/sonic-testenv/internal/controlplane"
	"github.com/sonic-net/sonic-testenv/internal/deploy"
	"github.com/sonic-net/sonic-testenv/internal/device"
	"github.com/sonic-net/sonic-testenv/internal/env"
	"github.com/sonic-net/sonic-testenv/internal/imagebuild"
	"github.com/sonic-net/sonic-testenv/internal/logdump"
)

const setupTimeout = 15 * time.Minute

// Framework manages the environment lifecycle for the suite.
type Framework struct {
	Config     *config.Config
	Controller *env.Controller
	CP         *controlplane.Minikube

	ready bool
}

// NewFramework creates a test framework instance. Configuration comes from
// the defaults plus the usual environment variables, with a dedicated
// cluster name so the suite never collides with a dev environment.
func NewFramework() *Framework {
	cfg, err := config.Load("")
	if err != nil {
		cfg = config.Default()
	}
	cfg.ClusterName = "sonic-testenv-e2e"

	cp := controlplane.NewMinikube(cfg.ClusterName, cfg.KubernetesVersion)
	controller := env.NewController(
		cfg,
		cp,
		imagebuild.NewBuilder(nil),
		deploy.NewOrchestrator(cp),
		device.NewRegistry(cp, cfg.Namespace),
		logdump.NewCollector(cp, cfg.LogDir),
	)

	return &Framework{Config: cfg, Controller: controller, CP: cp}
}

// Setup checks prerequisites and brings the full environment up.
func (f *Framework) Setup() error {
	if err := f.checkPrerequisites(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	if err := f.Controller.Setup(ctx, f.Config.SkipBuild); err != nil {
		return fmt.Errorf("environment setup: %w", err)
	}
	f.ready = true
	return nil
}

// Teardown deletes the environment unless KEEP_CLUSTER is set.
func (f *Framework) Teardown() {
	if !f.ready {
		return
	}
	if os.Getenv("KEEP_CLUSTER") != "" {
		fmt.Printf("\nCluster preserved: %s\n", f.Config.ClusterName)
		fmt.Printf("  Delete: minikube delete -p %s\n", f.Config.ClusterName)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	warnings, err := f.Controller.Teardown(ctx)
	if err != nil {
		fmt.Printf("Teardown: %v\n", err)
	}
	for _, w := range warnings {
		fmt.Printf("Teardown warning: %v\n", w)
	}
}

func (f *Framework) checkPrerequisites() error {
	if _, err := exec.LookPath("minikube"); err != nil {
		return fmt.Errorf("minikube not found: install from https://minikube.sigs.k8s.io")
	}
	if err := exec.Command("docker", "info").Run(); err != nil {
		return fmt.Errorf("docker not running")
	}
	return nil
}
