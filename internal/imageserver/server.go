// Package imageserver runs a deterministic stand-in for the firmware image
// distribution endpoint, so transfer-path tests never depend on a real
// upstream.
package imageserver

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// pathPrefix mirrors the production image distribution layout.
const pathPrefix = "images"

// catalog lists the synthetic firmware files, named after production
// vendor/version conventions.
var catalog = []string{
	"sonic-mellanox-20241212.01.bin",
	"sonic-mellanox-20241215.02.bin",
	"sonic-mellanox-202505.01.bin",
	"sonic-aboot-broadcom-20250510.18.swi",
	"sonic-aboot-broadcom-20241201.05.swi",
	"sonic-cisco-20241201.05.bin",
	"sonic-cisco-20241210.10.bin",
	"sonic-arista-20241205.03.bin",
}

// fileContent generates the deterministic payload for a filename: the same
// name always yields the same bytes, run after run.
func fileContent(name string) []byte {
	line := fmt.Sprintf("DUMMY_FIRMWARE_FILE:%s\n", name)
	return []byte(strings.Repeat(line, 100))
}

// Server serves the synthetic catalog over HTTP from an isolated temporary
// directory. Start and Stop are idempotent; requests are handled on a
// background goroutine so the orchestration thread stays free.
type Server struct {
	mu sync.Mutex

	port     int
	tempDir  string
	listener net.Listener
	srv      *http.Server
	done     chan struct{}
}

// New creates a stopped server for the given port. Port 0 binds an ephemeral
// port on Start.
func New(port int) *Server {
	return &Server{port: port}
}

// Start materializes the catalog and binds the listener. Calling Start on a
// running server is a no-op.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	tempDir, err := os.MkdirTemp("", "sonic-images-*")
	if err != nil {
		return fmt.Errorf("stage image directory: %w", err)
	}

	imageDir := filepath.Join(tempDir, pathPrefix)
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		_ = os.RemoveAll(tempDir)
		return fmt.Errorf("stage image directory: %w", err)
	}
	for _, name := range catalog {
		if err := os.WriteFile(filepath.Join(imageDir, name), fileContent(name), 0o644); err != nil {
			_ = os.RemoveAll(tempDir)
			return fmt.Errorf("write synthetic file %s: %w", name, err)
		}
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		_ = os.RemoveAll(tempDir)
		return fmt.Errorf("bind image server: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/"+pathPrefix+"/", http.StripPrefix("/"+pathPrefix+"/", http.FileServer(http.Dir(imageDir))))

	s.tempDir = tempDir
	s.listener = listener
	s.done = make(chan struct{})
	s.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		// Keep accept-loop noise out of test output.
		ErrorLog: log.New(io.Discard, "", 0),
	}

	go func(srv *http.Server, l net.Listener, done chan struct{}) {
		_ = srv.Serve(l)
		close(done)
	}(s.srv, listener, s.done)

	log.Printf("Image server serving %d files on %s", len(catalog), s.URLFor(""))
	return nil
}

// Stop shuts the listener down, waits for the serving goroutine, and removes
// the staged files. Safe to call repeatedly and before any Start.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = s.srv.Shutdown(ctx)
		cancel()

		select {
		case <-s.done:
		case <-time.After(5 * time.Second):
		}
		s.srv = nil
		s.listener = nil
		s.done = nil
	}

	if s.tempDir != "" {
		if err := os.RemoveAll(s.tempDir); err != nil {
			s.tempDir = ""
			return fmt.Errorf("remove staged files: %w", err)
		}
		s.tempDir = ""
	}
	return nil
}

// URLFor composes the download URL for a catalog filename. It is a pure
// computation and never requires the server to be running, so tests can
// pre-compute expected URLs.
func (s *Server) URLFor(filename string) string {
	return fmt.Sprintf("http://localhost:%d/%s/%s", s.port, pathPrefix, filename)
}

// Addr returns the bound listener address, or empty when stopped. With port
// 0 this is the only way to learn the real port.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ListFiles returns the catalog directory contents in sorted order, or nil
// when the server has never been started.
func (s *Server) ListFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tempDir == "" {
		return nil
	}

	entries, err := os.ReadDir(filepath.Join(s.tempDir, pathPrefix))
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}
