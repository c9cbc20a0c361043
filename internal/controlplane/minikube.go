package controlplane

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"

	"github.com/sonic-net/sonic-testenv/internal/poll"
)

// Minikube drives a docker-driver minikube profile.
type Minikube struct {
	Profile           string
	KubernetesVersion string

	// pollOpts tune the node-readiness wait; tests shrink the interval.
	pollOpts []poll.Option

	// run executes a command and returns combined output. Replaced in tests.
	run func(ctx context.Context, name string, args ...string) (string, error)
}

// NewMinikube creates a control plane bound to the given profile.
func NewMinikube(profile, kubernetesVersion string) *Minikube {
	return &Minikube{
		Profile:           profile,
		KubernetesVersion: kubernetesVersion,
		run:               runCommand,
	}
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	// #nosec G204 -- arguments are fixed tool invocations, not user input
	cmd := exec.CommandContext(ctx, name, args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return out.String(), &CommandError{Args: append([]string{name}, args...), Output: out.String(), Err: err}
	}
	return out.String(), nil
}

func (m *Minikube) minikube(ctx context.Context, args ...string) (string, error) {
	return m.run(ctx, "minikube", append(args, "--profile", m.Profile)...)
}

// Kubectl runs kubectl through minikube so no kubeconfig management is needed.
func (m *Minikube) Kubectl(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"kubectl", "--profile", m.Profile, "--"}, args...)
	return m.run(ctx, "minikube", full...)
}

// CreateCluster deletes any stale profile, starts a fresh cluster, and waits
// for the node to report Ready.
func (m *Minikube) CreateCluster(ctx context.Context) error {
	log.Printf("Deleting any existing cluster %s...", m.Profile)
	_, _ = m.minikube(ctx, "delete")

	log.Printf("Creating minikube cluster %s...", m.Profile)
	if _, err := m.minikube(ctx, "start", "--driver=docker", "--kubernetes-version="+m.KubernetesVersion); err != nil {
		return fmt.Errorf("create cluster %s: %w", m.Profile, err)
	}

	opts := append([]poll.Option{poll.WithInterval(5 * time.Second), poll.WithMaxAttempts(30)}, m.pollOpts...)
	_, err := poll.Await(ctx, "cluster node ready",
		func(ctx context.Context) (string, error) {
			out, err := m.Kubectl(ctx, "get", "nodes")
			if err != nil {
				// The apiserver flaps while the cluster boots; treat
				// failed probes as not-ready observations.
				return "", nil
			}
			return out, nil
		},
		func(out string) bool { return strings.Contains(out, "Ready") },
		opts...)
	if err != nil {
		return fmt.Errorf("cluster %s: %w", m.Profile, err)
	}

	log.Printf("Cluster %s is ready", m.Profile)
	return nil
}

// DeleteCluster removes the minikube profile.
func (m *Minikube) DeleteCluster(ctx context.Context) error {
	if _, err := m.minikube(ctx, "delete"); err != nil {
		return fmt.Errorf("delete cluster %s: %w", m.Profile, err)
	}
	return nil
}

// ClusterRunning reports whether the profile responds to minikube status.
func (m *Minikube) ClusterRunning(ctx context.Context) bool {
	_, err := m.minikube(ctx, "status")
	return err == nil
}

// LoadImage pushes a local docker image into the cluster runtime.
func (m *Minikube) LoadImage(ctx context.Context, image string) error {
	if _, err := m.minikube(ctx, "image", "load", image); err != nil {
		return fmt.Errorf("load image %s: %w", image, err)
	}
	return nil
}

// ApplyFile applies a manifest file.
func (m *Minikube) ApplyFile(ctx context.Context, path string) error {
	if _, err := m.Kubectl(ctx, "apply", "-f", path); err != nil {
		return err
	}
	return nil
}

// ApplyManifest applies manifest bytes through kubectl's stdin.
func (m *Minikube) ApplyManifest(ctx context.Context, manifest []byte) error {
	args := []string{"kubectl", "--profile", m.Profile, "--", "apply", "-f", "-"}
	// #nosec G204 -- fixed tool invocation
	cmd := exec.CommandContext(ctx, "minikube", args...)
	cmd.Stdin = bytes.NewReader(manifest)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return &CommandError{Args: append([]string{"minikube"}, args...), Output: out.String(), Err: err}
	}
	return nil
}

// Delete removes a resource, tolerating its absence.
func (m *Minikube) Delete(ctx context.Context, kind, name string) error {
	_, err := m.Kubectl(ctx, "delete", kind, name, "--ignore-not-found=true")
	return err
}

// Exec runs a shell command inside the target workload.
func (m *Minikube) Exec(ctx context.Context, target, shellCmd string) (string, error) {
	return m.Kubectl(ctx, "exec", target, "--", "sh", "-c", shellCmd)
}

// Logs fetches recent log text from the target workload.
func (m *Minikube) Logs(ctx context.Context, target string, tail int) (string, error) {
	return m.Kubectl(ctx, "logs", target, fmt.Sprintf("--tail=%d", tail))
}

// PodList enumerates all pods across namespaces the default context can see.
func (m *Minikube) PodList(ctx context.Context) (*corev1.PodList, error) {
	out, err := m.Kubectl(ctx, "get", "pods", "-o", "json")
	if err != nil {
		return nil, err
	}

	var pods corev1.PodList
	if err := json.Unmarshal([]byte(out), &pods); err != nil {
		return nil, fmt.Errorf("parse pod list: %w", err)
	}
	return &pods, nil
}

// NodeIP returns the first address of the first node.
func (m *Minikube) NodeIP(ctx context.Context) (string, error) {
	out, err := m.Kubectl(ctx, "get", "nodes", "-o", "jsonpath={.items[0].status.addresses[0].address}")
	if err != nil {
		return "", err
	}
	ip := strings.TrimSpace(out)
	if ip == "" {
		return "", fmt.Errorf("node address not reported")
	}
	return ip, nil
}
