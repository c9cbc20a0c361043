package handlers

import (
	"context"
	"fmt"
)

// Device creates a NetworkDevice resource in the running environment.
//
// Empty override values are dropped so the registry's defaults apply.
func Device(ctx context.Context, configPath, name string, overrides map[string]string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	spec := make(map[string]string, len(overrides))
	for k, v := range overrides {
		if v != "" {
			spec[k] = v
		}
	}

	e := newEnvironment(cfg)
	if err := e.AttachRunning(ctx); err != nil {
		return err
	}

	handle, err := e.CreateDevice(ctx, name, spec)
	if err != nil {
		return fmt.Errorf("create device failed: %w", err)
	}

	fmt.Printf("Created %s %s/%s\n", handle.Kind, handle.Namespace, handle.Name)
	return nil
}
