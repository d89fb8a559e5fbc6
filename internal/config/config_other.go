//go:build !windows

package config

import "os"

// DefaultLogDirectory returns the directory named by AALOG_DIR
func DefaultLogDirectory() string {
	return os.Getenv(LogDirectoryEnv)
}
