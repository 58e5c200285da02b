// Package config manages hybridmount configuration and filesystem paths.
//
// All persistent data lives under a single root directory (default
// /data/adb/meta-hybrid) holding config.toml, the per-module mount mode
// settings and the state of the last mount run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultRoot is where hybridmount keeps its files on a device.
	DefaultRoot = "/data/adb/meta-hybrid"

	// RootEnv overrides DefaultRoot.
	RootEnv = "HYBRID_MOUNT_ROOT"
)

// Paths contains all the filesystem paths used by hybridmount.
type Paths struct {
	// Root is the base directory for all hybridmount data
	Root string

	// Config is the path to config.toml
	Config string

	// Settings is the path to the per-module mount mode table
	Settings string

	// State is the path to the runtime state written after each mount run
	State string
}

// DefaultPaths returns the default paths for hybridmount.
// Paths can be overridden with environment variables:
// - HYBRID_MOUNT_ROOT: Override the root directory
func DefaultPaths() *Paths {
	root := os.Getenv(RootEnv)
	if root == "" {
		root = DefaultRoot
	}
	return PathsAt(root)
}

// PathsAt returns the paths rooted at root.
func PathsAt(root string) *Paths {
	return &Paths{
		Root:     root,
		Config:   filepath.Join(root, "config.toml"),
		Settings: filepath.Join(root, "module_settings.json"),
		State:    filepath.Join(root, "state.json"),
	}
}

// EnsureDirectories creates the root directory if it doesn't exist.
func (p *Paths) EnsureDirectories() error {
	if err := os.MkdirAll(p.Root, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.Root, err)
	}
	return nil
}
