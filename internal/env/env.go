// Package env locates the per-user directories xsltpkg works in.
package env

import (
	"os"
	"path/filepath"
)

// WorkDir returns the per-user xsltpkg directory.
func WorkDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, ".xsltpkg"), nil
}

// WorkspaceDir returns the default workspace, creating it if needed.
func WorkspaceDir() (string, error) {
	dir, err := WorkDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "workspace")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
