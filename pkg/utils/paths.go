package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appName = "shoebox"

// DataDir returns the per-user directory shoebox keeps its library in.
func DataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(homeDir, "AppData", "Roaming", appName)
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", appName)
	default:
		return filepath.Join(homeDir, ".local", "share", appName)
	}
}

// DefaultLibraryPath is where a backend of the given kind lives when no path
// is configured.
func DefaultLibraryPath(kind string) string {
	switch strings.ToLower(kind) {
	case "badger":
		return filepath.Join(DataDir(), "library.badger")
	case "file":
		return filepath.Join(DataDir(), "library.json")
	default:
		return filepath.Join(DataDir(), "shoebox.db")
	}
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory to expand path '%s': %w", path, err)
	}
	return filepath.Join(homeDir, path[2:]), nil
}

// ResolveLibraryPath turns the configured path (or the default for kind) into
// an absolute path and makes sure its parent directory exists.
func ResolveLibraryPath(kind, providedPath string) (string, error) {
	targetPath := providedPath
	if targetPath == "" {
		targetPath = DefaultLibraryPath(kind)
	}
	if targetPath == ":memory:" {
		return targetPath, nil
	}

	targetPath, err := ExpandHome(targetPath)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", targetPath, err)
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory '%s' for library: %w", dir, err)
	}
	return absPath, nil
}
