// Package controlplane drives the test cluster through the minikube and
// kubectl command-line tools.
//
// The orchestrator never interprets structured control-plane output beyond
// substring and field checks; every call yields captured text plus an error
// that is nil exactly when the underlying command succeeded.
package controlplane

import (
	"context"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
)

// ControlPlane is the boundary to the cluster tooling. The production
// implementation shells out to minikube; tests substitute a Fake.
type ControlPlane interface {
	// CreateCluster provisions the cluster and blocks until its node
	// reports Ready. Any pre-existing cluster with the same profile is
	// deleted first.
	CreateCluster(ctx context.Context) error

	// DeleteCluster removes the cluster. Deleting an absent cluster is
	// not an error.
	DeleteCluster(ctx context.Context) error

	// ClusterRunning reports whether the cluster profile is up.
	ClusterRunning(ctx context.Context) bool

	// LoadImage pushes a locally built image into the cluster runtime.
	LoadImage(ctx context.Context, image string) error

	// Kubectl runs an arbitrary kubectl command against the cluster and
	// returns its stdout.
	Kubectl(ctx context.Context, args ...string) (string, error)

	// ApplyFile applies a manifest file.
	ApplyFile(ctx context.Context, path string) error

	// ApplyManifest applies manifest bytes via stdin.
	ApplyManifest(ctx context.Context, manifest []byte) error

	// Delete removes a resource, ignoring not-found.
	Delete(ctx context.Context, kind, name string) error

	// Exec runs a shell command inside a workload's container.
	Exec(ctx context.Context, target, shellCmd string) (string, error)

	// Logs fetches recent log text from a workload.
	Logs(ctx context.Context, target string, tail int) (string, error)

	// PodList enumerates all pods visible in the cluster.
	PodList(ctx context.Context) (*corev1.PodList, error)

	// NodeIP returns the address of the first cluster node.
	NodeIP(ctx context.Context) (string, error)
}

// CommandError captures a failed control-plane command together with its
// combined output, so callers can surface the diagnostic text verbatim.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("%s: %v", strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", strings.Join(e.Args, " "), e.Err, out)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
