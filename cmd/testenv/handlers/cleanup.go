package handlers

import (
	"context"
	"fmt"
	"log"
)

// Cleanup tears the environment down. Individual step failures are printed
// as warnings; cleanup itself only fails when teardown cannot run at all.
func Cleanup(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log.Printf("Cleaning up test environment %s...", cfg.ClusterName)

	warnings, err := newEnvironment(cfg).Teardown(ctx)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Printf("Warning: %v", w)
	}

	fmt.Printf("Environment %s cleaned up (%d warnings)\n", cfg.ClusterName, len(warnings))
	return nil
}
