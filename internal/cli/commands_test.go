package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hybridmount/hybridmount/internal/config"
)

// testEnv points every hybridmount path at a scratch directory.
type testEnv struct {
	root    string
	modules string
	data    string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	base := t.TempDir()
	env := &testEnv{
		root:    filepath.Join(base, "root"),
		modules: filepath.Join(base, "modules"),
		data:    filepath.Join(base, "meta-hybrid"),
	}
	for _, dir := range []string{filepath.Join(env.root, "system"), env.modules} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	t.Setenv(config.RootEnv, env.data)
	t.Setenv(config.EnvPrefix+"MODULEDIR", env.modules)
	t.Setenv(config.EnvPrefix+"MOUNT_ROOT", env.root)
	t.Setenv(config.EnvPrefix+"LOGFILE", "")
	return env
}

func (env *testEnv) module(t *testing.T, id string, partitions ...string) {
	t.Helper()
	dir := filepath.Join(env.modules, id)
	for _, part := range partitions {
		if err := os.MkdirAll(filepath.Join(dir, part, "bin"), 0755); err != nil {
			t.Fatalf("failed to create module: %v", err)
		}
	}
	prop := "id=" + id + "\nname=Module " + id + "\nversion=v1.0\n"
	if err := os.WriteFile(filepath.Join(dir, "module.prop"), []byte(prop), 0644); err != nil {
		t.Fatalf("failed to write module.prop: %v", err)
	}
}

// resetFlags restores every flag to its default so runs do not leak into
// each other through the shared command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes the root command with args and returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	err := rootCmd.Execute()
	return out.String(), err
}

func TestModeCommands(t *testing.T) {
	setupTestEnv(t)

	if _, err := runCLI(t, "mode", "set", "zygisk", "magic"); err != nil {
		t.Fatalf("mode set error = %v", err)
	}
	if _, err := runCLI(t, "mode", "set", "zygisk", "vendor", "HYMO"); err != nil {
		t.Fatalf("mode set partition error = %v", err)
	}

	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"zygisk"}, want: "magic"},
		{args: []string{"zygisk", "vendor"}, want: "hymo"},
		{args: []string{"zygisk", "system"}, want: "magic"},
		{args: []string{"unknown"}, want: "auto"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, "/"), func(t *testing.T) {
			out, err := runCLI(t, append([]string{"mode", "get", "--json"}, tt.args...)...)
			if err != nil {
				t.Fatalf("mode get error = %v", err)
			}
			var got modeOutput
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("invalid JSON %q: %v", out, err)
			}
			if got.Mode.String() != tt.want {
				t.Errorf("mode = %v, want %s", got.Mode, tt.want)
			}
		})
	}
}

func TestModeSetCommand_Invalid(t *testing.T) {
	setupTestEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown mode", args: []string{"mode", "set", "m", "ignore"}},
		{name: "unknown partition", args: []string{"mode", "set", "m", "cache", "magic"}},
		{name: "missing mode", args: []string{"mode", "set", "m"}},
		{name: "unsafe id", args: []string{"mode", "set", "../m", "magic"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCLI(t, tt.args...); err == nil {
				t.Errorf("expected error for %v", tt.args)
			}
		})
	}
}

func TestModulesCommand(t *testing.T) {
	env := setupTestEnv(t)

	out, err := runCLI(t, "modules")
	if err != nil {
		t.Fatalf("modules error = %v", err)
	}
	if !strings.Contains(out, "No modules found") {
		t.Errorf("expected empty state, got %q", out)
	}

	env.module(t, "10-alpha", "system")
	env.module(t, "20-beta", "system", "vendor")

	out, err = runCLI(t, "modules", "--json")
	if err != nil {
		t.Fatalf("modules --json error = %v", err)
	}
	var infos []struct {
		ID         string   `json:"id"`
		Name       string   `json:"name"`
		Mode       string   `json:"mode"`
		Partitions []string `json:"partitions"`
	}
	if err := json.Unmarshal([]byte(out), &infos); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(infos) != 2 || infos[0].ID != "20-beta" {
		t.Fatalf("unexpected modules %+v", infos)
	}
	if infos[0].Name != "Module 20-beta" || infos[0].Mode != "auto" || len(infos[0].Partitions) != 2 {
		t.Errorf("unexpected module info %+v", infos[0])
	}

	out, err = runCLI(t, "ls")
	if err != nil {
		t.Fatalf("ls error = %v", err)
	}
	if !strings.Contains(out, "10-alpha") || !strings.Contains(out, "PARTITIONS") {
		t.Errorf("expected table output, got %q", out)
	}
}

func TestMountCommand_DryRun(t *testing.T) {
	env := setupTestEnv(t)
	env.module(t, "10-alpha", "system")
	env.module(t, "20-beta", "system")

	out, err := runCLI(t, "mount", "--dry-run", "--json")
	if err != nil {
		t.Fatalf("mount --dry-run error = %v", err)
	}

	var result struct {
		Plan struct {
			OverlayTargets map[string][]string `json:"overlay_targets"`
		} `json:"plan"`
		Result *json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	layers := result.Plan.OverlayTargets["system"]
	if len(layers) != 2 || !strings.HasSuffix(layers[0], filepath.Join("20-beta", "system")) {
		t.Errorf("unexpected system layers %v", layers)
	}
	if result.Result != nil {
		t.Error("dry run must not report an execution result")
	}

	out, err = runCLI(t, "mount", "--dry-run")
	if err != nil {
		t.Fatalf("mount --dry-run error = %v", err)
	}
	if !strings.Contains(out, "Mount plan") || !strings.Contains(out, "overlay system") {
		t.Errorf("unexpected plan output %q", out)
	}
}

func TestStatusCommand_NoRun(t *testing.T) {
	setupTestEnv(t)

	out, err := runCLI(t, "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "No mount run recorded") {
		t.Errorf("unexpected output %q", out)
	}

	out, err = runCLI(t, "status", "--json")
	if err != nil {
		t.Fatalf("status --json error = %v", err)
	}
	if strings.TrimSpace(out) != "{}" {
		t.Errorf("expected empty JSON object, got %q", out)
	}
}

func TestStatusCommand_RecordedRun(t *testing.T) {
	env := setupTestEnv(t)
	state := `{"timestamp":"2024-05-01T08:00:00Z","mount_source":"KSU","overlay_modules":["a"],"magic_modules":["b"],"hymo_modules":[],"active_partitions":["system"]}`
	if err := os.MkdirAll(env.data, 0755); err != nil {
		t.Fatalf("failed to create data dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(env.data, "state.json"), []byte(state), 0644); err != nil {
		t.Fatalf("failed to write state: %v", err)
	}

	out, err := runCLI(t, "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	for _, want := range []string{"Overlay: a", "Magic: b", "HymoFS: none", "2 modules"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestStatusCommand_NothingMounted(t *testing.T) {
	env := setupTestEnv(t)
	state := `{"timestamp":"2024-05-01T08:00:00Z","mount_source":"KSU","overlay_modules":[],"magic_modules":[],"hymo_modules":[],"active_partitions":[]}`
	if err := os.MkdirAll(env.data, 0755); err != nil {
		t.Fatalf("failed to create data dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(env.data, "state.json"), []byte(state), 0644); err != nil {
		t.Fatalf("failed to write state: %v", err)
	}

	out, err := runCLI(t, "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "The last run mounted no modules") {
		t.Errorf("expected warning for empty run:\n%s", out)
	}
}

func TestImportCommand(t *testing.T) {
	setupTestEnv(t)
	list := filepath.Join(t.TempDir(), "modules.json")
	if err := os.WriteFile(list, []byte(`[{"id":"a","config":{"default_mode":"hymo"}}]`), 0644); err != nil {
		t.Fatalf("failed to write list: %v", err)
	}

	out, err := runCLI(t, "import", list)
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	if !strings.Contains(out, "Imported 1 module") {
		t.Errorf("unexpected output %q", out)
	}

	out, err = runCLI(t, "mode", "get", "a")
	if err != nil {
		t.Fatalf("mode get error = %v", err)
	}
	if !strings.Contains(out, "hymo") {
		t.Errorf("expected imported mode, got %q", out)
	}

	if _, err := runCLI(t, "import"); err == nil {
		t.Error("expected error without file argument")
	}
}

func TestConfigShowCommand(t *testing.T) {
	env := setupTestEnv(t)
	t.Setenv(config.EnvPrefix+"MOUNTSOURCE", "magisk")

	out, err := runCLI(t, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(out, "moduledir") || !strings.Contains(out, env.modules) {
		t.Errorf("expected module dir in TOML output, got %q", out)
	}

	out, err = runCLI(t, "config", "show", "--json")
	if err != nil {
		t.Fatalf("config show --json error = %v", err)
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if cfg.MountSource != "magisk" {
		t.Errorf("mount source = %q, want env override", cfg.MountSource)
	}
}

func TestConfigFlag(t *testing.T) {
	setupTestEnv(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("partitions = [\"my_product\"]\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	out, err := runCLI(t, "config", "show", "--json", "--config", path)
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(cfg.Partitions) != 1 || cfg.Partitions[0] != "my_product" {
		t.Errorf("partitions = %v", cfg.Partitions)
	}
}

func TestCommandHelp(t *testing.T) {
	commands := []string{"mount", "status", "modules", "mode", "import", "config"}

	for _, cmd := range commands {
		t.Run(cmd, func(t *testing.T) {
			out, err := runCLI(t, cmd, "--help")
			if err != nil {
				t.Errorf("Execute() for %s --help error = %v", cmd, err)
			}
			if out == "" {
				t.Errorf("expected help output for %s, got empty", cmd)
			}
		})
	}
}

func TestCompletionCommand(t *testing.T) {
	out, err := runCLI(t, "completion", "bash")
	if err != nil {
		t.Fatalf("completion error = %v", err)
	}
	if !strings.Contains(out, "hybridmount") {
		t.Error("expected completion script to mention hybridmount")
	}
}
