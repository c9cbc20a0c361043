// Package imagebuild ensures the container images needed by the test
// environment exist locally before they are loaded into the cluster.
package imagebuild

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

// CommandRunner executes an external command and returns combined output.
// Tests substitute a counting fake so the no-build path is verifiable.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ImageSpec names an image and how to build it.
type ImageSpec struct {
	Name         string
	Dockerfile   string
	ContextDir   string
	SkipIfExists bool
}

// BuildError reports a failed or impossible image build with the captured
// build output.
type BuildError struct {
	Image  string
	Output string
	Err    error
}

func (e *BuildError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("build image %s: %v", e.Image, e.Err)
	}
	return fmt.Sprintf("build image %s: %v: %s", e.Image, e.Err, out)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Builder builds docker images idempotently.
type Builder struct {
	runner CommandRunner
}

// NewBuilder creates a Builder. A nil runner uses the docker CLI.
func NewBuilder(runner CommandRunner) *Builder {
	if runner == nil {
		runner = dockerRunner{}
	}
	return &Builder{runner: runner}
}

// EnsureImage makes the image available locally. With SkipIfExists set, an
// existing image short-circuits without invoking a build. Builds are always
// full builds; no incremental caching is assumed.
func (b *Builder) EnsureImage(ctx context.Context, spec ImageSpec) error {
	if spec.SkipIfExists && b.Exists(ctx, spec.Name) {
		log.Printf("Using existing image: %s", spec.Name)
		return nil
	}

	if _, err := os.Stat(spec.Dockerfile); err != nil {
		return &BuildError{Image: spec.Name, Err: fmt.Errorf("dockerfile %s: %w", spec.Dockerfile, err)}
	}

	log.Printf("Building image %s from %s...", spec.Name, spec.Dockerfile)
	out, err := b.runner.Run(ctx, "docker", "build", "-f", spec.Dockerfile, "-t", spec.Name, spec.ContextDir)
	if err != nil {
		return &BuildError{Image: spec.Name, Output: out, Err: err}
	}
	return nil
}

// EnsureAll ensures every image in order, stopping at the first failure.
func (b *Builder) EnsureAll(ctx context.Context, specs ...ImageSpec) error {
	for _, spec := range specs {
		if err := b.EnsureImage(ctx, spec); err != nil {
			return err
		}
	}
	return nil
}

// Exists probes the local image store.
func (b *Builder) Exists(ctx context.Context, name string) bool {
	_, err := b.runner.Run(ctx, "docker", "inspect", name)
	return err == nil
}

// Remove deletes a local image. Absence is not an error.
func (b *Builder) Remove(ctx context.Context, name string) error {
	if !b.Exists(ctx, name) {
		return nil
	}
	if out, err := b.runner.Run(ctx, "docker", "rmi", name); err != nil {
		return fmt.Errorf("remove image %s: %w: %s", name, err, strings.TrimSpace(out))
	}
	return nil
}

// dockerRunner shells out to the docker CLI.
type dockerRunner struct{}

func (dockerRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	return runCombined(ctx, name, args...)
}
