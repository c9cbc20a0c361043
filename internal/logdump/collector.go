// Package logdump snapshots pod logs into per-test directories for offline
// inspection after a run.
package logdump

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sonic-net/sonic-testenv/internal/controlplane"
)

const headerSeparator = 60

// Collector writes one log file per pod under a directory keyed by test name
// and capture timestamp. Collection is deliberately forgiving: it must never
// fail the test run that triggered it.
type Collector struct {
	cp      controlplane.ControlPlane
	baseDir string

	// now is replaceable in tests for stable directory names.
	now func() time.Time
}

// NewCollector creates a Collector writing under baseDir.
func NewCollector(cp controlplane.ControlPlane, baseDir string) *Collector {
	return &Collector{cp: cp, baseDir: baseDir, now: time.Now}
}

// Collect snapshots the combined-container logs of every visible pod into a
// fresh directory and returns its path. Pods whose log fetch fails are
// skipped with a warning.
func (c *Collector) Collect(ctx context.Context, testName string) (string, error) {
	stamp := c.now().Format("20060102_150405")
	dir := filepath.Join(c.baseDir, fmt.Sprintf("%s_%s", testName, stamp))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}

	log.Printf("Collecting logs to %s", dir)

	pods, err := c.cp.PodList(ctx)
	if err != nil {
		log.Printf("Warning: failed to list pods: %v", err)
		return dir, nil
	}

	for _, pod := range pods.Items {
		namespace := pod.Namespace
		if namespace == "" {
			namespace = "default"
		}

		text, err := c.cp.Kubectl(ctx, "logs", pod.Name, "-n", namespace, "--all-containers=true")
		if err != nil {
			log.Printf("Warning: failed to get logs from %s: %v", pod.Name, err)
			continue
		}

		if err := c.writeSnapshot(dir, pod.Name, namespace, text); err != nil {
			log.Printf("Warning: failed to write logs for %s: %v", pod.Name, err)
		}
	}

	return dir, nil
}

// writeSnapshot writes one pod's log file: a fixed four-line header followed
// by the raw log text.
func (c *Collector) writeSnapshot(dir, podName, namespace, text string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Pod: %s\n", podName)
	fmt.Fprintf(&b, "Namespace: %s\n", namespace)
	fmt.Fprintf(&b, "Collected: %s\n", c.now().Format(time.RFC3339))
	b.WriteString(strings.Repeat("=", headerSeparator) + "\n")
	b.WriteString(text)

	return os.WriteFile(filepath.Join(dir, podName+".log"), []byte(b.String()), 0o644)
}
