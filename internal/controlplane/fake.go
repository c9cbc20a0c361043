package controlplane

import (
	"context"
	"strings"
	"sync"

	corev1 "k8s.io/api/core/v1"
)

// Fake is a scriptable in-memory ControlPlane shared by the orchestrator
// packages' tests. Unset function fields succeed with empty output. Every
// invocation is recorded so tests can assert exact call sequences.
type Fake struct {
	mu    sync.Mutex
	calls []string

	CreateClusterFn func(ctx context.Context) error
	DeleteClusterFn func(ctx context.Context) error
	ClusterUp       bool
	LoadImageFn     func(ctx context.Context, image string) error
	KubectlFn       func(ctx context.Context, args ...string) (string, error)
	ApplyFileFn     func(ctx context.Context, path string) error
	ApplyManifestFn func(ctx context.Context, manifest []byte) error
	DeleteFn        func(ctx context.Context, kind, name string) error
	ExecFn          func(ctx context.Context, target, shellCmd string) (string, error)
	LogsFn          func(ctx context.Context, target string, tail int) (string, error)
	PodListFn       func(ctx context.Context) (*corev1.PodList, error)
	NodeIPFn        func(ctx context.Context) (string, error)

	// Manifests accumulates every manifest passed to ApplyManifest.
	Manifests [][]byte
}

var _ ControlPlane = (*Fake)(nil)

func (f *Fake) record(parts ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, strings.Join(parts, " "))
}

// Calls returns a copy of the recorded invocations in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount counts recorded invocations whose first token matches op.
func (f *Fake) CallCount(op string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == op || strings.HasPrefix(c, op+" ") {
			n++
		}
	}
	return n
}

func (f *Fake) CreateCluster(ctx context.Context) error {
	f.record("create-cluster")
	if f.CreateClusterFn != nil {
		return f.CreateClusterFn(ctx)
	}
	return nil
}

func (f *Fake) DeleteCluster(ctx context.Context) error {
	f.record("delete-cluster")
	if f.DeleteClusterFn != nil {
		return f.DeleteClusterFn(ctx)
	}
	return nil
}

func (f *Fake) ClusterRunning(context.Context) bool {
	f.record("cluster-running")
	return f.ClusterUp
}

func (f *Fake) LoadImage(ctx context.Context, image string) error {
	f.record("load-image", image)
	if f.LoadImageFn != nil {
		return f.LoadImageFn(ctx, image)
	}
	return nil
}

func (f *Fake) Kubectl(ctx context.Context, args ...string) (string, error) {
	f.record(append([]string{"kubectl"}, args...)...)
	if f.KubectlFn != nil {
		return f.KubectlFn(ctx, args...)
	}
	return "", nil
}

func (f *Fake) ApplyFile(ctx context.Context, path string) error {
	f.record("apply-file", path)
	if f.ApplyFileFn != nil {
		return f.ApplyFileFn(ctx, path)
	}
	return nil
}

func (f *Fake) ApplyManifest(ctx context.Context, manifest []byte) error {
	f.record("apply-manifest")
	f.mu.Lock()
	f.Manifests = append(f.Manifests, append([]byte(nil), manifest...))
	f.mu.Unlock()
	if f.ApplyManifestFn != nil {
		return f.ApplyManifestFn(ctx, manifest)
	}
	return nil
}

func (f *Fake) Delete(ctx context.Context, kind, name string) error {
	f.record("delete", kind, name)
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, kind, name)
	}
	return nil
}

func (f *Fake) Exec(ctx context.Context, target, shellCmd string) (string, error) {
	f.record("exec", target, shellCmd)
	if f.ExecFn != nil {
		return f.ExecFn(ctx, target, shellCmd)
	}
	return "", nil
}

func (f *Fake) Logs(ctx context.Context, target string, tail int) (string, error) {
	f.record("logs", target)
	if f.LogsFn != nil {
		return f.LogsFn(ctx, target, tail)
	}
	return "", nil
}

func (f *Fake) PodList(ctx context.Context) (*corev1.PodList, error) {
	f.record("pod-list")
	if f.PodListFn != nil {
		return f.PodListFn(ctx)
	}
	return &corev1.PodList{}, nil
}

func (f *Fake) NodeIP(ctx context.Context) (string, error) {
	f.record("node-ip")
	if f.NodeIPFn != nil {
		return f.NodeIPFn(ctx)
	}
	return "192.168.49.2", nil
}
