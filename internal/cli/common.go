package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hybridmount/hybridmount/internal/clock"
	"github.com/hybridmount/hybridmount/internal/config"
	"github.com/hybridmount/hybridmount/internal/engine"
	"github.com/hybridmount/hybridmount/internal/fsops"
	"github.com/hybridmount/hybridmount/internal/logging"
	"github.com/hybridmount/hybridmount/internal/mount"
	"github.com/hybridmount/hybridmount/internal/state"
	"github.com/hybridmount/hybridmount/internal/tempdir"
)

// loadConfig resolves the data paths and reads the effective configuration.
func loadConfig() (*config.Paths, *config.Config, error) {
	paths := config.DefaultPaths()

	path := configPath
	if path == "" {
		path = paths.Config
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.Verbose = true
	}
	return paths, cfg, nil
}

// newEngine creates a new engine with real implementations of all
// dependencies. The returned closer releases the log file.
func newEngine() (*engine.Engine, io.Closer, error) {
	paths, cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	if err := paths.EnsureDirectories(); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	logger, closer, err := logging.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	fs := fsops.NewRealFS()
	sys := mount.NewSyscalls()
	overlay := mount.NewOverlayFS(fs, sys, cfg.MountSource)
	hymo := mount.NewHymoFS(fs, mount.DefaultHymoControl)
	magic := mount.NewMagicMount(fs, sys, logger, cfg.MountRoot)
	staging := tempdir.NewManager(fs, sys, logger)
	stateStore := state.NewFileStateStore(fs, paths.State)

	eng := engine.New(fs, overlay, hymo, magic, staging, stateStore, clock.RealClock{}, logger, cfg, paths)
	return eng, closer, nil
}

// outputJSON writes a value as indented JSON.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
