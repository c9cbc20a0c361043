package handlers

import (
	"context"
	"fmt"
	"log"
)

// Setup brings the full environment up: cluster, images, redis, agent.
//
// The skipBuild flag is combined with the SKIP_DOCKER_BUILD environment
// variable; either one skips builds for images that already exist.
func Setup(ctx context.Context, configPath string, skipBuild bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if skipBuild {
		cfg.SkipBuild = true
	}

	log.Printf("Setting up test environment %s...", cfg.ClusterName)

	e := newEnvironment(cfg)
	if err := e.Setup(ctx, cfg.SkipBuild); err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	fmt.Printf("Environment %s is ready\n", cfg.ClusterName)
	fmt.Println("Next: create a device with 'testenv device <name>'")
	return nil
}
