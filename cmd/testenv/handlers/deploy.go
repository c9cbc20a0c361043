package handlers

import (
	"context"
	"fmt"
	"log"
)

// Deploy rolls the agent out again into a running environment.
func Deploy(ctx context.Context, configPath string, rebuild bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	e := newEnvironment(cfg)
	if err := e.AttachRunning(ctx); err != nil {
		return err
	}

	log.Printf("Redeploying agent into %s (rebuild=%t)...", cfg.ClusterName, rebuild)
	if err := e.Redeploy(ctx, rebuild); err != nil {
		return fmt.Errorf("deploy failed: %w", err)
	}

	fmt.Println("Agent redeployed and ready")
	return nil
}
