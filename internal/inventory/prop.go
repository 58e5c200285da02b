package inventory

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hybridmount/hybridmount/internal/fsops"
)

// Prop holds the descriptive fields of module.prop.
type Prop struct {
	ID          string `json:"-"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	VersionCode string `json:"version_code,omitempty"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

// ReadProp parses <moduleDir>/module.prop. Lines are key=value; unknown
// keys, comments and lines without '=' are ignored.
func ReadProp(fs fsops.FS, moduleDir string) (Prop, error) {
	var prop Prop

	data, err := fs.ReadFile(filepath.Join(moduleDir, ModulePropFile))
	if err != nil {
		return prop, fmt.Errorf("failed to read %s: %w", ModulePropFile, err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "id":
			prop.ID = value
		case "name":
			prop.Name = value
		case "version":
			prop.Version = value
		case "versionCode":
			prop.VersionCode = value
		case "author":
			prop.Author = value
		case "description":
			prop.Description = value
		}
	}
	if err := scanner.Err(); err != nil {
		return prop, fmt.Errorf("failed to parse %s: %w", ModulePropFile, err)
	}
	return prop, nil
}
