// Package config provides URL configuration management for the Hatch CLI.
//
// This package handles dynamic URL resolution for production and development
// environments, reading port configuration from .env files when in dev mode.
// It also supports auto-detection of a locally running backend.
package config

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// ProdBackendURL is the production backend API URL.
	ProdBackendURL = "https://api.hatch.dev"

	// ProdAppURL is the production web app URL.
	ProdAppURL = "https://app.hatch.dev"

	// DefaultBackendPort is the fallback port if backend/.env is not found.
	DefaultBackendPort = "8000"

	// portCheckTimeout is the timeout for checking if a port is open.
	portCheckTimeout = 100 * time.Millisecond
)

// commonBackendPorts are the ports to try when auto-detecting the backend.
// Order matters - most common ports first.
var commonBackendPorts = []string{"8000", "8001", "8080", "3000"}

// findMonorepoRoot searches upward from the current directory to find the
// monorepo root, identified by having a backend/ directory.
func findMonorepoRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "backend")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// readPortFromEnv reads the PORT value from an .env file.
func readPortFromEnv(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "PORT=") {
			return strings.TrimPrefix(line, "PORT=")
		}
	}
	return ""
}

// GetBackendPort reads the PORT from backend/.env.
// Falls back to DefaultBackendPort if the file is not found.
func GetBackendPort() string {
	if port := os.Getenv("HATCH_BACKEND_PORT"); port != "" {
		return port
	}

	root := findMonorepoRoot()
	if root == "" {
		return DefaultBackendPort
	}
	envPath := filepath.Join(root, "backend", ".env")
	if port := readPortFromEnv(envPath); port != "" {
		return port
	}
	return DefaultBackendPort
}

// GetBackendPortWithAutoDetect reads the PORT from backend/.env, and if no
// server is running on that port, tries common alternative ports.
func GetBackendPortWithAutoDetect() string {
	if port := os.Getenv("HATCH_BACKEND_PORT"); port != "" {
		return port
	}

	configuredPort := GetBackendPort()

	if isPortOpen("localhost", configuredPort) {
		return configuredPort
	}

	for _, port := range commonBackendPorts {
		if port != configuredPort && isPortOpen("localhost", port) {
			return port
		}
	}

	// Fall back to configured port even if not responding
	// (let the actual request fail with a clear error)
	return configuredPort
}

// isPortOpen checks if a TCP port is open on the given host.
func isPortOpen(host, port string) bool {
	address := net.JoinHostPort(host, port)
	conn, err := net.DialTimeout("tcp", address, portCheckTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// GetBackendURL returns the backend API URL based on the dev mode setting.
// HATCH_BACKEND_URL overrides everything; in dev mode, auto-detection finds
// a locally running backend.
func GetBackendURL(devMode bool) string {
	if url := os.Getenv("HATCH_BACKEND_URL"); url != "" {
		return strings.TrimRight(url, "/")
	}
	if devMode {
		return fmt.Sprintf("http://localhost:%s", GetBackendPortWithAutoDetect())
	}
	return ProdBackendURL
}

// GetAppURL returns the web app URL based on the dev mode setting.
func GetAppURL(devMode bool) string {
	if url := os.Getenv("HATCH_APP_URL"); url != "" {
		return strings.TrimRight(url, "/")
	}
	if devMode {
		return fmt.Sprintf("http://localhost:%s", GetBackendPortWithAutoDetect())
	}
	return ProdAppURL
}
