package mount

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/hybridmount/hybridmount/internal/fsops"
)

// ReplaceMarker inside a module directory hides the live directory's
// original contents instead of merging with them.
const ReplaceMarker = ".replace"

type nodeKind int

const (
	kindFile nodeKind = iota
	kindDir
	kindSymlink
)

// node is one entry of the merged view of every module's partition tree.
type node struct {
	kind     nodeKind
	source   string
	replace  bool
	children map[string]*node
}

func newDirNode(source string) *node {
	return &node{kind: kindDir, source: source, children: make(map[string]*node)}
}

func (n *node) sortedChildren() []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MagicMount bind-mounts module files over live partitions one by one.
type MagicMount struct {
	fs     fsops.FS
	sys    Syscalls
	logger *log.Logger
	root   string
}

// NewMagicMount creates a MagicMount that resolves partitions under root.
func NewMagicMount(fs fsops.FS, sys Syscalls, logger *log.Logger, root string) *MagicMount {
	if root == "" {
		root = "/"
	}
	return &MagicMount{fs: fs, sys: sys, logger: logger, root: root}
}

// magicRun carries the per-call options through the recursive walk.
type magicRun struct {
	stale         map[string]bool
	disableUmount bool
}

// MountPartitions merges the partition trees of moduleRoots (processed in
// order, later roots overriding earlier ones) and mounts the result.
// Partitions marked in success are skipped for that module, so only the
// remainder is mounted. stagingDir receives a tmpfs holding mirrored
// directories; the caller owns its cleanup.
func (m *MagicMount) MountPartitions(stagingDir string, moduleRoots []string, mountSource string, partitions []string, success SuccessMap, disableUmount bool) error {
	trees := make(map[string]*node)
	for _, root := range moduleRoots {
		for _, part := range partitions {
			if success.Covered(root, part) {
				m.logger.Debug("partition already mounted, skipping", "module", filepath.Base(root), "partition", part)
				continue
			}
			dir := filepath.Join(root, part)
			if !m.fs.IsDir(dir) {
				continue
			}
			tree, ok := trees[part]
			if !ok {
				tree = newDirNode(dir)
				trees[part] = tree
			}
			if err := m.collect(tree, dir); err != nil {
				return fmt.Errorf("failed to read %s: %w", dir, err)
			}
		}
	}

	if len(trees) == 0 {
		m.logger.Debug("magic mount has nothing to do")
		return nil
	}

	if err := m.sys.MountTmpfs(mountSource, stagingDir); err != nil {
		return fmt.Errorf("failed to prepare staging area: %w", err)
	}

	run := &magicRun{disableUmount: disableUmount}
	if !disableUmount {
		run.stale = mountsBySource(m.fs, mountSource, "")
	}

	var errs []error
	for _, part := range partitions {
		tree, ok := trees[part]
		if !ok {
			continue
		}
		livePath := filepath.Join(m.root, part)
		if !m.fs.IsDir(livePath) {
			m.logger.Warn("partition does not exist, skipping magic mount", "partition", part)
			continue
		}
		m.logger.Info("magic mounting partition", "partition", part)
		if err := m.mountDir(run, tree, livePath, filepath.Join(stagingDir, part)); err != nil {
			errs = append(errs, fmt.Errorf("partition %s: %w", part, err))
		}
	}
	return errors.Join(errs...)
}

// collect merges the module directory dir into n.
func (m *MagicMount) collect(n *node, dir string) error {
	if ok, _ := m.fs.Exists(filepath.Join(dir, ReplaceMarker)); ok {
		n.replace = true
	}

	entries, err := m.fs.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == ReplaceMarker {
			continue
		}
		path := filepath.Join(dir, name)
		info, err := m.fs.Lstat(path)
		if err != nil {
			return err
		}

		kind := kindFile
		switch {
		case info.IsDir():
			kind = kindDir
		case info.Mode()&os.ModeSymlink != 0:
			kind = kindSymlink
		}

		child, ok := n.children[name]
		if !ok || child.kind != kind {
			child = &node{kind: kind}
			if kind == kindDir {
				child.children = make(map[string]*node)
			}
			n.children[name] = child
		}
		child.source = path

		if kind == kindDir {
			if err := m.collect(child, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// needsMirror reports whether the live directory must be replaced by a
// staged copy: entries are added, change type, are symlinks, or the module
// asked to replace the directory.
func (m *MagicMount) needsMirror(n *node, livePath string) bool {
	if n.replace {
		return true
	}
	for name, child := range n.children {
		if child.kind == kindSymlink {
			return true
		}
		info, err := m.fs.Lstat(filepath.Join(livePath, name))
		if err != nil {
			return true
		}
		if info.IsDir() != (child.kind == kindDir) || info.Mode()&os.ModeSymlink != 0 {
			return true
		}
	}
	return false
}

// mountDir mounts n over livePath, binding files in place when the
// directory layout is unchanged and mirroring it otherwise.
func (m *MagicMount) mountDir(run *magicRun, n *node, livePath, stagePath string) error {
	if m.needsMirror(n, livePath) {
		if err := m.mirror(n, livePath, stagePath); err != nil {
			return err
		}
		return m.bind(run, stagePath, livePath, false)
	}

	for _, name := range n.sortedChildren() {
		child := n.children[name]
		liveChild := filepath.Join(livePath, name)
		if child.kind == kindDir {
			if err := m.mountDir(run, child, liveChild, filepath.Join(stagePath, name)); err != nil {
				return err
			}
			continue
		}
		if err := m.bind(run, child.source, liveChild, false); err != nil {
			return err
		}
	}
	return nil
}

// mirror recreates livePath under stagePath with n merged on top.
func (m *MagicMount) mirror(n *node, livePath, stagePath string) error {
	if err := m.fs.MkdirAll(stagePath, m.dirPerm(livePath, n.source)); err != nil {
		return fmt.Errorf("failed to create mirror %s: %w", stagePath, err)
	}

	if !n.replace && m.fs.IsDir(livePath) {
		entries, err := m.fs.ReadDir(livePath)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", livePath, err)
		}
		for _, entry := range entries {
			if _, overridden := n.children[entry.Name()]; overridden {
				continue
			}
			if err := m.mirrorEntry(filepath.Join(livePath, entry.Name()), filepath.Join(stagePath, entry.Name())); err != nil {
				return err
			}
		}
	}

	for _, name := range n.sortedChildren() {
		child := n.children[name]
		liveChild := filepath.Join(livePath, name)
		stageChild := filepath.Join(stagePath, name)

		switch child.kind {
		case kindDir:
			if err := m.mirror(child, liveChild, stageChild); err != nil {
				return err
			}
		case kindSymlink:
			if err := m.copySymlink(child.source, stageChild); err != nil {
				return err
			}
		case kindFile:
			if err := m.placeholderBind(child.source, stageChild, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// mirrorEntry makes an untouched live entry visible inside the mirror.
func (m *MagicMount) mirrorEntry(livePath, stagePath string) error {
	info, err := m.fs.Lstat(livePath)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", livePath, err)
	}
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return m.copySymlink(livePath, stagePath)
	case info.IsDir():
		if err := m.fs.MkdirAll(stagePath, info.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to create %s: %w", stagePath, err)
		}
		return m.sys.Bind(livePath, stagePath, true)
	default:
		return m.placeholderBind(livePath, stagePath, false)
	}
}

func (m *MagicMount) placeholderBind(source, stagePath string, recursive bool) error {
	if err := m.fs.WriteFile(stagePath, nil, 0644); err != nil {
		return fmt.Errorf("failed to create placeholder %s: %w", stagePath, err)
	}
	return m.sys.Bind(source, stagePath, recursive)
}

func (m *MagicMount) copySymlink(source, stagePath string) error {
	dest, err := m.fs.Readlink(source)
	if err != nil {
		return fmt.Errorf("failed to read link %s: %w", source, err)
	}
	if err := m.fs.Symlink(dest, stagePath); err != nil {
		return fmt.Errorf("failed to create link %s: %w", stagePath, err)
	}
	return nil
}

func (m *MagicMount) bind(run *magicRun, source, target string, recursive bool) error {
	if !run.disableUmount && run.stale[target] {
		if err := m.sys.Unmount(target); err != nil {
			m.logger.Warn("failed to detach previous mount", "target", target, "err", err)
		}
	}
	m.logger.Debug("bind", "source", source, "target", target)
	return m.sys.Bind(source, target, recursive)
}

func (m *MagicMount) dirPerm(livePath, moduleDir string) os.FileMode {
	if info, err := m.fs.Stat(livePath); err == nil {
		return info.Mode().Perm()
	}
	if info, err := m.fs.Stat(moduleDir); err == nil {
		return info.Mode().Perm()
	}
	return 0755
}
