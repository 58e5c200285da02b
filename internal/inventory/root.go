package inventory

import (
	"path/filepath"

	"github.com/hybridmount/hybridmount/internal/fsops"
)

// minSearchPathLen stops the upward walk before it reaches paths such as
// "/data/adb" where a stray module.prop would be meaningless.
const minSearchPathLen = 10

// FindModuleRoot walks upward from path looking for a directory that holds
// module.prop. When none is found it falls back to the immediate parent of
// path.
func FindModuleRoot(fs fsops.FS, path string) string {
	path = filepath.Clean(path)
	current := path
	for {
		if ok, _ := fs.Exists(filepath.Join(current, ModulePropFile)); ok {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
		if len(current) < minSearchPathLen {
			break
		}
	}
	return filepath.Dir(path)
}

// ModuleID returns the id of the module that owns path.
func ModuleID(fs fsops.FS, path string) string {
	root := FindModuleRoot(fs, path)
	if root == "/" || root == "." {
		return ""
	}
	return filepath.Base(root)
}
