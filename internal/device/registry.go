// Package device tracks the NetworkDevice custom resources created during a
// test session so teardown can delete exactly what was created.
package device

import (
	"context"
	"fmt"
	"log"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"github.com/sonic-net/sonic-testenv/internal/controlplane"
)

// Handle identifies a created custom resource for registry-driven cleanup.
type Handle struct {
	Kind      string
	Namespace string
	Name      string
}

// CreateError reports a failed resource creation with the control plane's
// diagnostic text.
type CreateError struct {
	Name string
	Err  error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("create networkdevice %s: %v", e.Name, e.Err)
}

func (e *CreateError) Unwrap() error {
	return e.Err
}

// defaultSpec is the baseline NetworkDevice spec. Caller overrides win
// per-field; defaults only fill what the caller left unset.
var defaultSpec = map[string]string{
	"type":            "leafRouter",
	"osVersion":       "202505.01",
	"firmwareProfile": "SONiC-Test-Profile",
	"operation":       "OSUpgrade",
	"operationAction": "PreloadImage",
}

// networkDevice is the manifest shape applied to the cluster.
type networkDevice struct {
	APIVersion string            `json:"apiVersion"`
	Kind       string            `json:"kind"`
	Metadata   metav1.ObjectMeta `json:"metadata"`
	Spec       map[string]string `json:"spec"`
}

// Registry is the authoritative record of devices created in this session.
// Handles are appended only on successful creation and the cleanup pass
// iterates exactly the current contents in creation order.
type Registry struct {
	cp        controlplane.ControlPlane
	namespace string
	handles   []Handle
}

// NewRegistry creates an empty registry bound to a control plane.
func NewRegistry(cp controlplane.ControlPlane, namespace string) *Registry {
	return &Registry{cp: cp, namespace: namespace}
}

// Create applies a NetworkDevice manifest built from the default spec merged
// with the caller's overrides and records its handle on success.
func (r *Registry) Create(ctx context.Context, name string, overrides map[string]string) (Handle, error) {
	spec := make(map[string]string, len(defaultSpec)+len(overrides))
	for k, v := range defaultSpec {
		spec[k] = v
	}
	for k, v := range overrides {
		if v != "" {
			spec[k] = v
		}
	}

	manifest, err := yaml.Marshal(networkDevice{
		APIVersion: "sonic.k8s.io/v1",
		Kind:       "NetworkDevice",
		Metadata:   metav1.ObjectMeta{Name: name, Namespace: r.namespace},
		Spec:       spec,
	})
	if err != nil {
		return Handle{}, &CreateError{Name: name, Err: err}
	}

	if err := r.cp.ApplyManifest(ctx, manifest); err != nil {
		return Handle{}, &CreateError{Name: name, Err: err}
	}

	handle := Handle{Kind: "networkdevice", Namespace: r.namespace, Name: name}
	r.handles = append(r.handles, handle)
	log.Printf("Created NetworkDevice %s", name)
	return handle, nil
}

// Delete removes a single device and drops its handle from the registry.
func (r *Registry) Delete(ctx context.Context, name string) error {
	if err := r.cp.Delete(ctx, "networkdevice", name); err != nil {
		return fmt.Errorf("delete networkdevice %s: %w", name, err)
	}
	for i, h := range r.handles {
		if h.Name == name {
			r.handles = append(r.handles[:i], r.handles[i+1:]...)
			break
		}
	}
	return nil
}

// CleanupAll deletes every registered device in creation order. Individual
// delete failures are returned as warnings and do not stop the pass. The
// registry is cleared unconditionally afterwards so failed deletes cannot
// accumulate across sessions.
func (r *Registry) CleanupAll(ctx context.Context) []error {
	var warnings []error
	for _, h := range r.handles {
		if err := r.cp.Delete(ctx, h.Kind, h.Name); err != nil {
			warnings = append(warnings, fmt.Errorf("cleanup %s %s: %w", h.Kind, h.Name, err))
			continue
		}
		log.Printf("Deleted %s %s", h.Kind, h.Name)
	}
	r.handles = nil
	return warnings
}

// Handles returns a copy of the current registry contents.
func (r *Registry) Handles() []Handle {
	return append([]Handle(nil), r.handles...)
}

// Names returns the registered device names joined for display.
func (r *Registry) Names() string {
	names := make([]string, len(r.handles))
	for i, h := range r.handles {
		names[i] = h.Name
	}
	return strings.Join(names, ", ")
}
