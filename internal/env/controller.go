// Package env composes the cluster, image, deployment, device, and log
// components into a single test-session lifecycle.
package env

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sonic-net/sonic-testenv/internal/config"
	"github.com/sonic-net/sonic-testenv/internal/controlplane"
	"github.com/sonic-net/sonic-testenv/internal/device"
	"github.com/sonic-net/sonic-testenv/internal/imagebuild"
)

// Environment is the aggregate session state: one per test session, mutated
// by every orchestration call, destroyed at session end unless the reuse
// flag preserves the cluster.
type Environment struct {
	ClusterName string
	AgentImage  string
	GNOIImage   string
	Phase       Phase
}

// imageBuilder is the slice of imagebuild.Builder the controller needs.
type imageBuilder interface {
	EnsureAll(ctx context.Context, specs ...imagebuild.ImageSpec) error
	Remove(ctx context.Context, name string) error
}

// deployer is the slice of deploy.Orchestrator the controller needs.
type deployer interface {
	DeployRedis(ctx context.Context) error
	DeployAgent(ctx context.Context, agentImage, gnoiImage string, dryRun bool) error
	Undeploy(ctx context.Context) []error
}

// deviceRegistry is the slice of device.Registry the controller needs.
type deviceRegistry interface {
	Create(ctx context.Context, name string, overrides map[string]string) (device.Handle, error)
	Delete(ctx context.Context, name string) error
	CleanupAll(ctx context.Context) []error
	Handles() []device.Handle
}

// logCollector is the slice of logdump.Collector the controller needs.
type logCollector interface {
	Collect(ctx context.Context, testName string) (string, error)
}

// Controller drives the environment through its lifecycle phases. All
// orchestration is synchronous and single-threaded; each phase blocks until
// its bounded wait resolves.
type Controller struct {
	cfg *config.Config
	cp  controlplane.ControlPlane

	builder   imageBuilder
	deployer  deployer
	registry  deviceRegistry
	collector logCollector

	env Environment
}

// NewController wires a controller from configuration with production
// components.
func NewController(cfg *config.Config, cp controlplane.ControlPlane, builder imageBuilder, dep deployer, registry deviceRegistry, collector logCollector) *Controller {
	return &Controller{
		cfg:       cfg,
		cp:        cp,
		builder:   builder,
		deployer:  dep,
		registry:  registry,
		collector: collector,
		env: Environment{
			ClusterName: cfg.ClusterName,
			AgentImage:  cfg.AgentImage,
			GNOIImage:   cfg.GNOIImage,
			Phase:       Uninitialized,
		},
	}
}

// Env returns a copy of the current aggregate state.
func (c *Controller) Env() Environment {
	return c.env
}

// require gates an operation on an allowed phase set. The phase is left
// unchanged on failures anywhere, so a failed phase halts forward progress
// until an explicit teardown.
func (c *Controller) require(op string, allowed ...Phase) error {
	for _, p := range allowed {
		if c.env.Phase == p {
			return nil
		}
	}
	return &PhaseError{Op: op, Phase: c.env.Phase}
}

// SetupCluster provisions the cluster, or adopts a running one when the
// reuse flag is set.
func (c *Controller) SetupCluster(ctx context.Context) error {
	if err := c.require("setup cluster", Uninitialized); err != nil {
		return err
	}

	if c.cfg.ReuseEnv && c.cp.ClusterRunning(ctx) {
		log.Printf("Reusing running cluster %s", c.env.ClusterName)
		c.env.Phase = ClusterReady
		return nil
	}

	if err := c.cp.CreateCluster(ctx); err != nil {
		return &SetupError{Stage: "cluster", Err: err}
	}
	c.env.Phase = ClusterReady
	return nil
}

// BuildImages ensures the agent image and the gnoi-light helper image exist.
func (c *Controller) BuildImages(ctx context.Context, skipIfExists bool) error {
	if err := c.require("build images", ClusterReady); err != nil {
		return err
	}

	err := c.builder.EnsureAll(ctx,
		imagebuild.ImageSpec{
			Name:         c.env.AgentImage,
			Dockerfile:   c.cfg.AgentDockerfile,
			ContextDir:   c.cfg.BuildContext,
			SkipIfExists: skipIfExists,
		},
		imagebuild.ImageSpec{
			Name:         c.env.GNOIImage,
			Dockerfile:   c.cfg.GNOIDockerfile,
			ContextDir:   c.cfg.BuildContext,
			SkipIfExists: skipIfExists,
		},
	)
	if err != nil {
		return &SetupError{Stage: "images", Err: err}
	}
	c.env.Phase = ImagesReady
	return nil
}

// DeployDependency deploys and configures redis.
func (c *Controller) DeployDependency(ctx context.Context) error {
	if err := c.require("deploy dependency", ImagesReady); err != nil {
		return err
	}
	if err := c.deployer.DeployRedis(ctx); err != nil {
		return err
	}
	c.env.Phase = DependencyReady
	return nil
}

// DeployController deploys the agent under test and waits for compound
// readiness.
func (c *Controller) DeployController(ctx context.Context) error {
	if err := c.require("deploy controller", DependencyReady); err != nil {
		return err
	}
	if err := c.deployer.DeployAgent(ctx, c.env.AgentImage, c.env.GNOIImage, c.cfg.DryRun); err != nil {
		return err
	}
	c.env.Phase = ControllerReady
	return nil
}

// Setup runs the full forward chain: cluster, images, dependency, controller.
func (c *Controller) Setup(ctx context.Context, skipBuild bool) error {
	if err := c.SetupCluster(ctx); err != nil {
		return err
	}
	if err := c.BuildImages(ctx, skipBuild); err != nil {
		return err
	}
	if err := c.DeployDependency(ctx); err != nil {
		return err
	}
	return c.DeployController(ctx)
}

// Redeploy refreshes the images as needed and rolls the agent out again.
// Valid once the environment is steady, where the dependency is already in
// place. The phase is unchanged.
func (c *Controller) Redeploy(ctx context.Context, rebuild bool) error {
	if err := c.require("redeploy", ControllerReady, Steady); err != nil {
		return err
	}

	err := c.builder.EnsureAll(ctx,
		imagebuild.ImageSpec{
			Name:         c.env.AgentImage,
			Dockerfile:   c.cfg.AgentDockerfile,
			ContextDir:   c.cfg.BuildContext,
			SkipIfExists: !rebuild,
		},
		imagebuild.ImageSpec{
			Name:         c.env.GNOIImage,
			Dockerfile:   c.cfg.GNOIDockerfile,
			ContextDir:   c.cfg.BuildContext,
			SkipIfExists: !rebuild,
		},
	)
	if err != nil {
		return &SetupError{Stage: "images", Err: err}
	}

	return c.deployer.DeployAgent(ctx, c.env.AgentImage, c.env.GNOIImage, c.cfg.DryRun)
}

// AttachRunning adopts an environment that a previous process set up. CLI
// invocations are separate processes, so lifecycle state is re-derived from
// the cluster rather than persisted.
func (c *Controller) AttachRunning(ctx context.Context) error {
	if err := c.require("attach", Uninitialized); err != nil {
		return err
	}
	if !c.cp.ClusterRunning(ctx) {
		return fmt.Errorf("cluster %s is not running; run setup first", c.env.ClusterName)
	}
	c.env.Phase = Steady
	return nil
}

// CreateDevice creates a NetworkDevice and enters the steady phase.
func (c *Controller) CreateDevice(ctx context.Context, name string, overrides map[string]string) (device.Handle, error) {
	if err := c.require("create device", ControllerReady, Steady); err != nil {
		return device.Handle{}, err
	}
	handle, err := c.registry.Create(ctx, name, overrides)
	if err != nil {
		return device.Handle{}, err
	}
	c.env.Phase = Steady
	return handle, nil
}

// DeleteDevice removes a single NetworkDevice. The phase stays Steady.
func (c *Controller) DeleteDevice(ctx context.Context, name string) error {
	if err := c.require("delete device", ControllerReady, Steady); err != nil {
		return err
	}
	return c.registry.Delete(ctx, name)
}

// CollectLogs snapshots pod logs for a named test run.
func (c *Controller) CollectLogs(ctx context.Context, testName string) (string, error) {
	if err := c.require("collect logs", ClusterReady, ImagesReady, DependencyReady, ControllerReady, Steady); err != nil {
		return "", err
	}
	return c.collector.Collect(ctx, testName)
}

// Status composes a human-readable environment report.
func (c *Controller) Status(ctx context.Context) (string, error) {
	if err := c.require("status", Uninitialized, ClusterReady, ImagesReady, DependencyReady, ControllerReady, Steady); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Environment status (cluster: %s)\n", c.env.ClusterName)

	if !c.cp.ClusterRunning(ctx) {
		b.WriteString("Cluster: not running\n")
		return b.String(), nil
	}
	b.WriteString("Cluster: running\n")

	if pods, err := c.cp.Kubectl(ctx, "get", "pods", "-o", "wide"); err == nil {
		b.WriteString("\nPods:\n" + pods)
	}

	devices, err := c.cp.Kubectl(ctx, "get", "networkdevices", "-o", "wide")
	if err == nil && strings.TrimSpace(devices) != "" {
		b.WriteString("\nNetworkDevices:\n" + devices)
	} else {
		b.WriteString("\nNetworkDevices: none\n")
	}

	return b.String(), nil
}

// Teardown reclaims everything in reverse order of setup: devices, agent and
// redis, cluster, local images. Each step is best-effort; failures are
// returned as warnings and never stop the pass. The environment ends in the
// terminal Destroyed phase.
func (c *Controller) Teardown(ctx context.Context) ([]error, error) {
	if c.env.Phase == Destroyed {
		return nil, &PhaseError{Op: "teardown", Phase: Destroyed}
	}
	c.env.Phase = TearingDown
	log.Printf("Tearing down test environment %s...", c.env.ClusterName)

	var warnings []error
	warnings = append(warnings, c.registry.CleanupAll(ctx)...)
	warnings = append(warnings, c.deployer.Undeploy(ctx)...)

	if c.cfg.ReuseEnv {
		log.Printf("Cluster %s preserved (reuse enabled)", c.env.ClusterName)
	} else {
		if err := c.cp.DeleteCluster(ctx); err != nil {
			warnings = append(warnings, err)
		}
		if err := c.builder.Remove(ctx, c.env.AgentImage); err != nil {
			warnings = append(warnings, err)
		}
	}

	c.env.Phase = Destroyed
	return warnings, nil
}
