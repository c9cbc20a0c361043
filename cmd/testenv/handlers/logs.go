package handlers

import (
	"context"
	"fmt"
)

// Logs collects pod logs from the running environment into a timestamped
// directory named after the given run.
func Logs(ctx context.Context, configPath, name string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	e := newEnvironment(cfg)
	if err := e.AttachRunning(ctx); err != nil {
		return err
	}

	dir, err := e.CollectLogs(ctx, name)
	if err != nil {
		return fmt.Errorf("log collection failed: %w", err)
	}

	fmt.Printf("Logs collected to %s\n", dir)
	return nil
}
