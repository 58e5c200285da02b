// Package integration exercises the full mount pipeline against a scratch
// device tree, with the real mount techniques wired to a recording syscall
// layer.
package integration

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hybridmount/hybridmount/internal/clock"
	"github.com/hybridmount/hybridmount/internal/config"
	"github.com/hybridmount/hybridmount/internal/engine"
	"github.com/hybridmount/hybridmount/internal/fsops"
	"github.com/hybridmount/hybridmount/internal/mount"
	"github.com/hybridmount/hybridmount/internal/state"
	"github.com/hybridmount/hybridmount/internal/tempdir"
)

// recordingSyscalls implements mount.Syscalls without touching the kernel.
type recordingSyscalls struct {
	mu          sync.Mutex
	overlays    map[string]string
	binds       map[string]string
	tmpfs       []string
	unmounts    []string
	failOverlay map[string]error
}

func newRecordingSyscalls() *recordingSyscalls {
	return &recordingSyscalls{
		overlays:    make(map[string]string),
		binds:       make(map[string]string),
		failOverlay: make(map[string]error),
	}
}

func (r *recordingSyscalls) MountOverlay(source, target, options string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failOverlay[target]; err != nil {
		return err
	}
	r.overlays[target] = options
	return nil
}

func (r *recordingSyscalls) Bind(source, target string, recursive bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.binds[target] = source
	return nil
}

func (r *recordingSyscalls) MountTmpfs(source, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tmpfs = append(r.tmpfs, target)
	return nil
}

func (r *recordingSyscalls) Unmount(target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unmounts = append(r.unmounts, target)
	return nil
}

// device is a scratch Android-like layout.
type device struct {
	t       *testing.T
	base    string
	root    string
	modules string
	control string
	paths   *config.Paths
	cfg     *config.Config
	sys     *recordingSyscalls
	clock   *clock.FakeClock
}

func newDevice(t *testing.T) *device {
	t.Helper()
	base := t.TempDir()
	d := &device{
		t:       t,
		base:    base,
		root:    filepath.Join(base, "root"),
		modules: filepath.Join(base, "data", "adb", "modules"),
		control: filepath.Join(base, "dev", "hymo_ctl"),
		paths:   config.PathsAt(filepath.Join(base, "data", "adb", "meta-hybrid")),
		sys:     newRecordingSyscalls(),
		clock:   clock.NewFakeClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
	}

	d.file("root/system/bin/sh", "sh")
	d.file("root/vendor/etc/audio.conf", "stock")
	d.file("root/product/app/.keep", "")
	d.mkdir("data/adb/modules")

	d.cfg = config.Default()
	d.cfg.ModuleDir = d.modules
	d.cfg.MountRoot = d.root
	d.cfg.MountSource = "hybridmount-test"
	d.cfg.TempDir = filepath.Join(base, "stage")
	return d
}

func (d *device) mkdir(rel string) {
	d.t.Helper()
	if err := os.MkdirAll(filepath.Join(d.base, rel), 0755); err != nil {
		d.t.Fatalf("failed to create %s: %v", rel, err)
	}
}

func (d *device) file(rel, content string) {
	d.t.Helper()
	path := filepath.Join(d.base, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		d.t.Fatalf("failed to create parent of %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		d.t.Fatalf("failed to write %s: %v", rel, err)
	}
}

// install creates a module with the given files, relative to the module
// directory.
func (d *device) install(id string, files ...string) string {
	d.t.Helper()
	d.file(filepath.Join("data/adb/modules", id, "module.prop"), fmt.Sprintf("id=%s\nname=%s\n", id, id))
	for _, f := range files {
		d.file(filepath.Join("data/adb/modules", id, f), id)
	}
	return filepath.Join(d.modules, id)
}

func (d *device) enableHymo() {
	d.file("dev/hymo_ctl", "")
}

func (d *device) engine() *engine.Engine {
	fs := fsops.NewRealFS()
	logger := log.New(io.Discard)
	return engine.New(
		fs,
		mount.NewOverlayFS(fs, d.sys, d.cfg.MountSource),
		mount.NewHymoFS(fs, d.control),
		mount.NewMagicMount(fs, d.sys, logger, d.cfg.MountRoot),
		tempdir.NewManager(fs, d.sys, logger),
		state.NewFileStateStore(fs, d.paths.State),
		d.clock,
		logger,
		d.cfg,
		d.paths,
	)
}

func (d *device) live(rel string) string {
	return filepath.Join(d.root, rel)
}
