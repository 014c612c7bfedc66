package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetTreewalkHome returns the treewalk state directory.
// Priority order:
//  1. TREEWALK_HOME environment variable (if set)
//  2. .treewalk in the nearest ancestor that already has one
//  3. .treewalk in the current working directory
//
// The directory is created if it doesn't exist.
func GetTreewalkHome() (string, error) {
	if home := os.Getenv("TREEWALK_HOME"); home != "" {
		if err := os.MkdirAll(home, 0755); err != nil {
			return "", fmt.Errorf("create treewalk home directory: %w", err)
		}
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	if existing := findExistingHome(cwd); existing != "" {
		return existing, nil
	}

	home := filepath.Join(cwd, ".treewalk")
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create treewalk home directory: %w", err)
	}
	return home, nil
}

// findExistingHome walks up from dir looking for a .treewalk directory.
func findExistingHome(dir string) string {
	current := dir
	for {
		candidate := filepath.Join(current, ".treewalk")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

// GetHistoryDBPath returns the default history database path:
// $TREEWALK_HOME/history.db
func GetHistoryDBPath() (string, error) {
	home, err := GetTreewalkHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "history.db"), nil
}
