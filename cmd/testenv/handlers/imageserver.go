package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sonic-net/sonic-testenv/internal/imageserver"
)

// firmwareServer is the slice of imageserver.Server the handler needs.
type firmwareServer interface {
	Start() error
	Stop() error
	Addr() string
	ListFiles() []string
	URLFor(filename string) string
}

// newImageServer creates the firmware server - can be replaced in tests.
var newImageServer = func(port int) firmwareServer {
	return imageserver.New(port)
}

// ImageServer serves the synthetic firmware catalog until the context is
// cancelled or an interrupt arrives.
func ImageServer(ctx context.Context, port int) error {
	srv := newImageServer(port)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("image server failed to start: %w", err)
	}
	defer srv.Stop()

	fmt.Printf("Serving firmware images on %s\n", srv.Addr())
	for _, f := range srv.ListFiles() {
		fmt.Printf("  %s\n", srv.URLFor(f))
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case <-ctx.Done():
	case <-sig:
	}
	return srv.Stop()
}
