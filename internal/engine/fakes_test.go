package engine

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hybridmount/hybridmount/internal/clock"
	"github.com/hybridmount/hybridmount/internal/config"
	"github.com/hybridmount/hybridmount/internal/fsops"
	"github.com/hybridmount/hybridmount/internal/mount"
	"github.com/hybridmount/hybridmount/internal/planner"
	"github.com/hybridmount/hybridmount/internal/state"
)

type fakeOverlay struct {
	mu    sync.Mutex
	calls map[string][]string
	fail  map[string]error
}

func newFakeOverlay() *fakeOverlay {
	return &fakeOverlay{calls: make(map[string][]string), fail: make(map[string]error)}
}

func (f *fakeOverlay) MountOverlay(target string, lowerdirs []string, upperdir, workdir string, disableUmount bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[target] = append([]string(nil), lowerdirs...)
	return f.fail[target]
}

type fakeHymo struct {
	available bool
	cleared   bool
	clearErr  error
	injected  []planner.Target
	fail      map[string]error
}

func (f *fakeHymo) IsAvailable() bool { return f.available }

func (f *fakeHymo) Clear() error {
	f.cleared = true
	return f.clearErr
}

func (f *fakeHymo) InjectDirectory(target, source string) error {
	f.injected = append(f.injected, planner.Target{Source: source, Target: target})
	return f.fail[source]
}

type fakeMagic struct {
	called     bool
	staging    string
	roots      []string
	partitions []string
	success    mount.SuccessMap
	err        error
}

func (f *fakeMagic) MountPartitions(stagingDir string, moduleRoots []string, mountSource string, partitions []string, success mount.SuccessMap, disableUmount bool) error {
	f.called = true
	f.staging = stagingDir
	f.roots = moduleRoots
	f.partitions = partitions
	f.success = success
	return f.err
}

type fakeStaging struct {
	selected  string
	selects   int
	ensured   []string
	cleaned   []string
	ensureErr error
}

func (f *fakeStaging) Select() string {
	f.selects++
	return f.selected
}

func (f *fakeStaging) Ensure(dir string) error {
	f.ensured = append(f.ensured, dir)
	return f.ensureErr
}

func (f *fakeStaging) Cleanup(dir string) {
	f.cleaned = append(f.cleaned, dir)
}

type memStateStore struct {
	state *state.RuntimeState
}

func (m *memStateStore) Load() (*state.RuntimeState, error) {
	if m.state == nil {
		return nil, os.ErrNotExist
	}
	return m.state, nil
}

func (m *memStateStore) Save(s *state.RuntimeState) error {
	m.state = s
	return nil
}

// testEnv is a scratch device: a mount root with live partitions, a
// module directory and a data directory.
type testEnv struct {
	t       *testing.T
	root    string
	modules string
	paths   *config.Paths
	cfg     *config.Config

	overlay *fakeOverlay
	hymo    *fakeHymo
	magic   *fakeMagic
	staging *fakeStaging
	states  *memStateStore
	clock   *clock.FakeClock
}

func newTestEnv(t *testing.T, livePartitions ...string) *testEnv {
	t.Helper()
	base := t.TempDir()
	env := &testEnv{
		t:       t,
		root:    filepath.Join(base, "root"),
		modules: filepath.Join(base, "modules"),
		paths:   config.PathsAt(filepath.Join(base, "meta-hybrid")),
		overlay: newFakeOverlay(),
		hymo:    &fakeHymo{fail: make(map[string]error)},
		magic:   &fakeMagic{},
		staging: &fakeStaging{selected: filepath.Join(base, "stage")},
		states:  &memStateStore{},
		clock:   clock.NewFakeClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)),
	}
	for _, part := range livePartitions {
		env.mkdir(filepath.Join(env.root, part))
	}
	env.mkdir(env.modules)

	env.cfg = config.Default()
	env.cfg.ModuleDir = env.modules
	env.cfg.MountRoot = env.root
	return env
}

func (env *testEnv) mkdir(path string) {
	env.t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		env.t.Fatalf("failed to create %s: %v", path, err)
	}
}

// module installs a module providing the given partitions as directories.
func (env *testEnv) module(id string, partitions ...string) string {
	env.t.Helper()
	dir := filepath.Join(env.modules, id)
	env.mkdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "module.prop"), []byte("id="+id+"\nname="+id+"\n"), 0644); err != nil {
		env.t.Fatalf("failed to write module.prop: %v", err)
	}
	for _, part := range partitions {
		env.mkdir(filepath.Join(dir, part, "etc"))
	}
	return dir
}

func (env *testEnv) engine() *Engine {
	return New(
		fsops.NewRealFS(),
		env.overlay,
		env.hymo,
		env.magic,
		env.staging,
		env.states,
		env.clock,
		log.New(io.Discard),
		env.cfg,
		env.paths,
	)
}

func (env *testEnv) live(partition string) string {
	return filepath.Join(env.root, partition)
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
