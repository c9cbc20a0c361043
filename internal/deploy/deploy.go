// Package deploy materializes the agent and its redis dependency into the
// cluster and certifies their readiness before returning control.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sonic-net/sonic-testenv/internal/controlplane"
	"github.com/sonic-net/sonic-testenv/internal/poll"
)

// ReadyMarker is the log line the agent emits once its informer cache is
// synchronized. Pod phase alone does not prove the controller is serving, so
// agent readiness requires this marker in recent logs as well. The string is
// a versioned contract with the agent's logging; bump it together with the
// agent.
const ReadyMarker = "Cache synced successfully"

const (
	agentName     = "sonic-change-agent"
	agentSelector = "app=sonic-change-agent"
	redisSelector = "app=redis"
	crdName       = "networkdevices.sonic.k8s.io"
)

// redisConfigCommands seed the CONFIG_DB schema the agent reads at startup.
// The node IP is substituted for %s. Ordering matters: the agent resolves the
// apiserver entry before the gNMI entry.
var redisConfigCommands = []string{
	`redis-cli -n 4 HSET 'KUBERNETES_MASTER|SERVER' ip '%s' port '8443' insecure 'False' disable 'False'`,
	`redis-cli -n 4 HSET 'GNMI|gnmi' port '8080' client_auth 'false'`,
}

// DeployError reports a workload that failed to deploy or become ready.
type DeployError struct {
	Workload string
	Err      error
}

func (e *DeployError) Error() string {
	return fmt.Sprintf("deploy %s: %v", e.Workload, e.Err)
}

func (e *DeployError) Unwrap() error {
	return e.Err
}

// ConfigError reports a post-deploy configuration command that failed. The
// whole deployment step aborts at the first failed command; no partial
// configuration is left to limp along.
type ConfigError struct {
	Command string
	Output  string
}

func (e *ConfigError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("configuration command failed: %s", e.Command)
	}
	return fmt.Sprintf("configuration command failed: %s: %s", e.Command, out)
}

// Orchestrator deploys workloads through the control plane.
type Orchestrator struct {
	cp controlplane.ControlPlane

	// pollOpts are appended to every readiness wait; tests replace the
	// timer source here.
	pollOpts []poll.Option
}

// NewOrchestrator creates an Orchestrator bound to a control plane.
func NewOrchestrator(cp controlplane.ControlPlane, pollOpts ...poll.Option) *Orchestrator {
	return &Orchestrator{cp: cp, pollOpts: pollOpts}
}

// applyRendered writes a rendered manifest to a transient file, applies it,
// and removes the file on every exit path.
func (o *Orchestrator) applyRendered(ctx context.Context, name string, manifest []byte) error {
	f, err := os.CreateTemp("", name+"-*.yaml")
	if err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	defer func() { _ = os.Remove(f.Name()) }()

	if _, err := f.Write(manifest); err != nil {
		_ = f.Close()
		return fmt.Errorf("render %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	return o.cp.ApplyFile(ctx, f.Name())
}

// DeployRedis deploys redis, waits for its pod to run, and seeds CONFIG_DB.
func (o *Orchestrator) DeployRedis(ctx context.Context) error {
	log.Printf("Deploying redis...")

	manifest, err := redisManifest()
	if err != nil {
		return &DeployError{Workload: "redis", Err: err}
	}
	if err := o.applyRendered(ctx, "redis", manifest); err != nil {
		return &DeployError{Workload: "redis", Err: err}
	}

	opts := append([]poll.Option{poll.WithInterval(5 * time.Second), poll.WithMaxAttempts(12)}, o.pollOpts...)
	_, err = poll.Await(ctx, "redis pod running",
		o.podPhases(redisSelector),
		func(out string) bool { return strings.Contains(out, "Running") },
		opts...)
	if err != nil {
		return &DeployError{Workload: "redis", Err: err}
	}

	if err := o.configureRedis(ctx); err != nil {
		return &DeployError{Workload: "redis", Err: err}
	}

	log.Printf("Redis deployed and configured")
	return nil
}

// configureRedis seeds CONFIG_DB in database 4 through exec. Any single
// command failure aborts immediately.
func (o *Orchestrator) configureRedis(ctx context.Context) error {
	ip, err := o.cp.NodeIP(ctx)
	if err != nil {
		return fmt.Errorf("resolve node IP: %w", err)
	}
	log.Printf("Seeding CONFIG_DB with node IP %s", ip)

	for _, tmpl := range redisConfigCommands {
		cmd := tmpl
		if strings.Contains(tmpl, "%s") {
			cmd = fmt.Sprintf(tmpl, ip)
		}
		if out, err := o.cp.Exec(ctx, "deployment/redis", cmd); err != nil {
			return &ConfigError{Command: cmd, Output: out}
		}
	}
	return nil
}

// DeployAgent loads the images, installs the CRD and RBAC, rolls out the
// agent daemonset, and waits for compound readiness: pod running and the
// cache-sync marker present in recent logs within the same observation round.
func (o *Orchestrator) DeployAgent(ctx context.Context, agentImage, gnoiImage string, dryRun bool) error {
	log.Printf("Deploying %s (images: %s, %s)...", agentName, agentImage, gnoiImage)

	for _, image := range []string{agentImage, gnoiImage} {
		if err := o.cp.LoadImage(ctx, image); err != nil {
			return &DeployError{Workload: agentName, Err: err}
		}
	}

	crd, err := readManifest("crd.yaml")
	if err != nil {
		return &DeployError{Workload: agentName, Err: err}
	}
	if err := o.applyRendered(ctx, "crd", crd); err != nil {
		return &DeployError{Workload: agentName, Err: err}
	}

	opts := append([]poll.Option{poll.WithInterval(5 * time.Second), poll.WithMaxAttempts(12)}, o.pollOpts...)
	_, err = poll.Await(ctx, "networkdevice CRD established",
		func(ctx context.Context) (string, error) {
			out, err := o.cp.Kubectl(ctx, "get", "crd", crdName)
			if err != nil {
				// Not yet registered; keep polling.
				return "", nil
			}
			return out, nil
		},
		func(out string) bool { return strings.Contains(out, crdName) },
		opts...)
	if err != nil {
		return &DeployError{Workload: agentName, Err: err}
	}

	rbac, err := readManifest("rbac.yaml")
	if err != nil {
		return &DeployError{Workload: agentName, Err: err}
	}
	if err := o.applyRendered(ctx, "rbac", rbac); err != nil {
		return &DeployError{Workload: agentName, Err: err}
	}

	daemonset, err := renderDaemonSet(agentImage)
	if err != nil {
		return &DeployError{Workload: agentName, Err: err}
	}
	if err := o.applyRendered(ctx, "daemonset", daemonset); err != nil {
		return &DeployError{Workload: agentName, Err: err}
	}

	// The manifest defaults DRY_RUN to true; pin it explicitly so the
	// requested mode always wins over a previously patched daemonset.
	dryRunEnv := fmt.Sprintf("DRY_RUN=%t", dryRun)
	if _, err := o.cp.Kubectl(ctx, "set", "env", "daemonset/"+agentName, dryRunEnv); err != nil {
		return &DeployError{Workload: agentName, Err: err}
	}

	agentOpts := append([]poll.Option{poll.WithInterval(5 * time.Second), poll.WithMaxAttempts(24)}, o.pollOpts...)
	_, err = poll.Await(ctx, "agent ready",
		func(ctx context.Context) (string, error) {
			phases, err := o.podPhases(agentSelector)(ctx)
			if err != nil {
				return "", err
			}
			if !strings.Contains(phases, "Running") {
				return phases, nil
			}
			logs, err := o.cp.Logs(ctx, "daemonset/"+agentName, 20)
			if err != nil {
				// The rollout may be mid-restart; count as not ready.
				return phases, nil
			}
			return phases + "\n" + logs, nil
		},
		func(out string) bool {
			return strings.Contains(out, "Running") && strings.Contains(out, ReadyMarker)
		},
		agentOpts...)
	if err != nil {
		return &DeployError{Workload: agentName, Err: err}
	}

	log.Printf("%s deployed and ready", agentName)
	return nil
}

// podPhases observes the pod listing for a label selector. A failing listing
// is treated as a not-ready observation, not a hard error, because the
// scheduler may not have created pods yet.
func (o *Orchestrator) podPhases(selector string) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		out, err := o.cp.Kubectl(ctx, "get", "pods", "-l", selector)
		if err != nil {
			return "", nil
		}
		return out, nil
	}
}

// Undeploy removes the agent daemonset and the redis deployment, agent first.
// Failures are collected, not fatal.
func (o *Orchestrator) Undeploy(ctx context.Context) []error {
	var warnings []error
	if err := o.cp.Delete(ctx, "daemonset", agentName); err != nil {
		warnings = append(warnings, fmt.Errorf("delete daemonset %s: %w", agentName, err))
	}
	if err := o.cp.Delete(ctx, "deployment", "redis"); err != nil {
		warnings = append(warnings, fmt.Errorf("delete deployment redis: %w", err))
	}
	return warnings
}

// IsTimeout reports whether err is a readiness timeout, as opposed to a
// control-plane command failure.
func IsTimeout(err error) bool {
	var timeout *poll.TimeoutError
	return errors.As(err, &timeout)
}
