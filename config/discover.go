package config

import (
	"os"
	"path/filepath"
)

// Discover walks upward from startPath looking for the closest file named
// in ConfigFileNames, in priority order. startPath may name a file or a
// directory; a file's own directory is where the walk begins. Returns ""
// if no config file is found by the time the walk reaches the filesystem
// root.
func Discover(startPath string) string {
	abs, err := filepath.Abs(startPath)
	if err != nil {
		return ""
	}

	dir := abs
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		dir = filepath.Dir(abs)
	}

	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
