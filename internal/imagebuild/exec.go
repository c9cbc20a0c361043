package imagebuild

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

func runCombined(ctx context.Context, name string, args ...string) (string, error) {
	// #nosec G204 -- fixed docker invocations
	cmd := exec.CommandContext(ctx, name, args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("%s: %w", name, err)
	}
	return out.String(), nil
}
