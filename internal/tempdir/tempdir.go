// Package tempdir picks, prepares and tears down the staging directory
// used by magic mount.
package tempdir

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/hybridmount/hybridmount/internal/fsops"
)

// workdirName is created inside the selected candidate.
const workdirName = ".workdir"

// Fallback is used when no candidate directory is writable.
const Fallback = "/dev/.hybrid_mount"

// DefaultCandidates are probed in order. They live on filesystems that are
// usually writable early in boot and invisible to apps.
var DefaultCandidates = []string{"/debug_ramdisk", "/patch_hw", "/oem", "/root", "/sbin"}

// Unmounter detaches a mount point.
type Unmounter interface {
	Unmount(target string) error
}

// Manager selects and manages staging directories.
type Manager struct {
	fs         fsops.FS
	sys        Unmounter
	logger     *log.Logger
	candidates []string
	writable   func(string) bool
}

// NewManager creates a Manager probing DefaultCandidates.
func NewManager(fs fsops.FS, sys Unmounter, logger *log.Logger) *Manager {
	return &Manager{
		fs:         fs,
		sys:        sys,
		logger:     logger,
		candidates: DefaultCandidates,
		writable:   isWritable,
	}
}

// Select returns the staging directory inside the first writable
// candidate, or Fallback.
func (m *Manager) Select() string {
	for _, c := range m.candidates {
		if m.fs.IsDir(c) && m.writable(c) {
			return filepath.Join(c, workdirName)
		}
	}
	return Fallback
}

// Ensure creates dir if it does not exist.
func (m *Manager) Ensure(dir string) error {
	if err := m.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory %s: %w", dir, err)
	}
	return nil
}

// Cleanup detaches anything mounted on dir and removes it. Failures are
// logged at debug level only.
func (m *Manager) Cleanup(dir string) {
	if m.sys != nil {
		if err := m.sys.Unmount(dir); err != nil {
			m.logger.Debug("staging unmount", "dir", dir, "err", err)
		}
	}
	if err := m.fs.RemoveAll(dir); err != nil {
		m.logger.Debug("staging removal", "dir", dir, "err", err)
	}
}
