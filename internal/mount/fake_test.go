package mount

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/hybridmount/hybridmount/internal/fsops"
)

// call is one recorded Syscalls invocation.
type call struct {
	Op      string
	Source  string
	Target  string
	Options string
}

func (c call) String() string {
	return fmt.Sprintf("%s %s -> %s %s", c.Op, c.Source, c.Target, c.Options)
}

// fakeSyscalls records every call and fails those listed in failOn.
type fakeSyscalls struct {
	mu     sync.Mutex
	calls  []call
	failOn map[string]error
}

func newFakeSyscalls() *fakeSyscalls {
	return &fakeSyscalls{failOn: make(map[string]error)}
}

func (f *fakeSyscalls) record(c call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if err, ok := f.failOn[c.Op+":"+c.Target]; ok {
		return err
	}
	return f.failOn[c.Op]
}

func (f *fakeSyscalls) MountOverlay(source, target, options string) error {
	return f.record(call{Op: "overlay", Source: source, Target: target, Options: options})
}

func (f *fakeSyscalls) Bind(source, target string, recursive bool) error {
	op := "bind"
	if recursive {
		op = "rbind"
	}
	return f.record(call{Op: op, Source: source, Target: target})
}

func (f *fakeSyscalls) MountTmpfs(source, target string) error {
	return f.record(call{Op: "tmpfs", Source: source, Target: target})
}

func (f *fakeSyscalls) Unmount(target string) error {
	return f.record(call{Op: "umount", Target: target})
}

func (f *fakeSyscalls) ops(op string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// mountTableFS serves a canned mount table in place of /proc/self/mountinfo.
type mountTableFS struct {
	fsops.FS
	table string
}

func (m *mountTableFS) ReadFile(path string) ([]byte, error) {
	if path == procMountInfo {
		return []byte(m.table), nil
	}
	return m.FS.ReadFile(path)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// mountRecord is one row of a canned mount table.
type mountRecord struct {
	source string
	target string
	fstype string
}

// mountInfoTable renders records in /proc/self/mountinfo format, escaping
// spaces in mount points the way the kernel does.
func mountInfoTable(records ...mountRecord) string {
	var b strings.Builder
	for i, r := range records {
		id := i + 20
		fmt.Fprintf(&b, "%d 1 0:%d / %s ro,relatime shared:%d - %s %s ro\n",
			id, id, strings.ReplaceAll(r.target, " ", `\040`), i+1, r.fstype, r.source)
	}
	return b.String()
}

// requireMountInfo skips tests that depend on reading the mount table.
func requireMountInfo(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("mount table parsing is only available on linux")
	}
}
