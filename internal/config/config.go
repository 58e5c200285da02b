package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultModuleDir is where the root manager installs modules.
	DefaultModuleDir = "/data/adb/modules"

	// DefaultMountSource is the device name shown for every mount we create.
	DefaultMountSource = "KSU"

	// DefaultMountRoot is the directory partitions are resolved against.
	DefaultMountRoot = "/"

	// EnvPrefix prefixes every environment override, e.g. HYBRID_MOUNT_VERBOSE.
	EnvPrefix = "HYBRID_MOUNT_"
)

// BuiltinPartitions are the partition directories every scan looks for.
var BuiltinPartitions = []string{"system", "vendor", "product", "system_ext", "odm", "oem"}

// Config is the contents of config.toml after environment overrides.
type Config struct {
	ModuleDir     string   `toml:"moduledir" json:"moduledir" env:"MODULEDIR"`
	TempDir       string   `toml:"tempdir,omitempty" json:"tempdir,omitempty" env:"TEMPDIR"`
	MountSource   string   `toml:"mountsource" json:"mountsource" env:"MOUNTSOURCE"`
	Verbose       bool     `toml:"verbose" json:"verbose" env:"VERBOSE"`
	LogFile       string   `toml:"logfile,omitempty" json:"logfile,omitempty" env:"LOGFILE"`
	Partitions    []string `toml:"partitions" json:"partitions" env:"PARTITIONS" envSeparator:","`
	DisableUmount bool     `toml:"disable_umount" json:"disable_umount" env:"DISABLE_UMOUNT"`
	MountRoot     string   `toml:"mount_root,omitempty" json:"mount_root,omitempty" env:"MOUNT_ROOT"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		ModuleDir:   DefaultModuleDir,
		MountSource: DefaultMountSource,
		Partitions:  []string{},
		MountRoot:   DefaultMountRoot,
	}
}

// Load reads config.toml at path and applies HYBRID_MOUNT_* environment
// overrides. A missing file yields the defaults; keys absent from the file
// keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.ModuleDir == "" {
		c.ModuleDir = DefaultModuleDir
	}
	if c.MountSource == "" {
		c.MountSource = DefaultMountSource
	}
	if c.MountRoot == "" {
		c.MountRoot = DefaultMountRoot
	}
	if c.Partitions == nil {
		c.Partitions = []string{}
	}
}

// RecognizedPartitions returns the built-in partitions followed by any
// extra ones from the config, without duplicates and in first-seen order.
func (c *Config) RecognizedPartitions() []string {
	seen := make(map[string]struct{}, len(BuiltinPartitions)+len(c.Partitions))
	out := make([]string, 0, len(BuiltinPartitions)+len(c.Partitions))
	for _, list := range [][]string{BuiltinPartitions, c.Partitions} {
		for _, p := range list {
			if p == "" {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// MarshalTOML renders the configuration as config.toml content.
func (c *Config) MarshalTOML() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}
