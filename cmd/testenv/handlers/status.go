package handlers

import (
	"context"
	"fmt"
)

// Status prints the state of the cluster, its pods, and device resources.
func Status(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	report, err := newEnvironment(cfg).Status(ctx)
	if err != nil {
		return err
	}

	fmt.Print(report)
	return nil
}
