package deploy

import (
	"bytes"
	"embed"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"
)

//go:embed manifests/*.yaml
var manifestsFS embed.FS

// imagePlaceholder is the image token substituted in the daemonset manifest.
// The token must appear exactly once; substitution is exact-match so no other
// occurrence of a similar reference can be altered by accident.
const imagePlaceholder = "sonic-change-agent:latest"

func readManifest(name string) ([]byte, error) {
	data, err := manifestsFS.ReadFile("manifests/" + name)
	if err != nil {
		return nil, fmt.Errorf("embedded manifest %s: %w", name, err)
	}
	return data, nil
}

// renderDaemonSet produces the agent daemonset manifest with the resolved
// image reference in place of the placeholder token.
func renderDaemonSet(image string) ([]byte, error) {
	raw, err := readManifest("daemonset.yaml")
	if err != nil {
		return nil, err
	}

	token := []byte(imagePlaceholder)
	if n := bytes.Count(raw, token); n != 1 {
		return nil, fmt.Errorf("daemonset manifest: expected exactly one %q token, found %d", imagePlaceholder, n)
	}
	return bytes.ReplaceAll(raw, token, []byte(image)), nil
}

// redisManifest renders the redis deployment used as the agent's CONFIG_DB
// store. hostNetwork keeps redis reachable from the agent's host-network pod.
func redisManifest() ([]byte, error) {
	replicas := int32(1)
	dep := appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: metav1.ObjectMeta{
			Name:   "redis",
			Labels: map[string]string{"app": "redis"},
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: map[string]string{"app": "redis"}},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: map[string]string{"app": "redis"}},
				Spec: corev1.PodSpec{
					HostNetwork: true,
					Containers: []corev1.Container{{
						Name:    "redis",
						Image:   "redis:7-alpine",
						Ports:   []corev1.ContainerPort{{ContainerPort: 6379}},
						Command: []string{"redis-server", "--save", "", "--appendonly", "no"},
					}},
				},
			},
		},
	}

	data, err := yaml.Marshal(dep)
	if err != nil {
		return nil, fmt.Errorf("render redis manifest: %w", err)
	}
	return data, nil
}
