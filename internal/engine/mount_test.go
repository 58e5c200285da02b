package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestMount_RecordsState(t *testing.T) {
	env := newTestEnv(t, "system", "vendor")
	env.module("a", "system")
	env.module("b", "vendor")
	env.cfg.MountSource = "magisk"
	e := env.engine()

	if _, err := e.Status(context.Background()); !errors.Is(err, ErrStateMissing) {
		t.Fatalf("expected ErrStateMissing before first run, got %v", err)
	}

	res, err := e.Mount(context.Background(), &MountRequest{})
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if res.State == nil {
		t.Fatal("expected runtime state")
	}

	st, err := e.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !st.Timestamp.Equal(env.clock.Now()) {
		t.Errorf("timestamp = %v, want %v", st.Timestamp, env.clock.Now())
	}
	if st.MountSource != "magisk" {
		t.Errorf("mount source = %q", st.MountSource)
	}
	if !reflect.DeepEqual(st.OverlayModules, []string{"a", "b"}) {
		t.Errorf("overlay modules = %v", st.OverlayModules)
	}
	if !reflect.DeepEqual(st.ActivePartitions, []string{"system", "vendor"}) {
		t.Errorf("active partitions = %v", st.ActivePartitions)
	}
}

func TestMount_DryRun(t *testing.T) {
	env := newTestEnv(t, "system")
	env.module("a", "system")

	res, err := env.engine().Mount(context.Background(), &MountRequest{DryRun: true})
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if res.Result != nil || res.State != nil {
		t.Error("dry run must not execute")
	}
	if len(env.overlay.calls) != 0 {
		t.Errorf("dry run issued mounts: %v", env.overlay.calls)
	}
	if env.states.state != nil {
		t.Error("dry run must not record state")
	}
	if len(res.Plan.OverlayTargets["system"]) != 1 {
		t.Errorf("unexpected plan %+v", res.Plan)
	}
}

func TestMount_SkipsDisabledModules(t *testing.T) {
	env := newTestEnv(t, "system")
	env.module("a", "system")
	disabled := env.module("b", "system")
	env.mkdir(disabled + "/disable")

	res, err := env.engine().Mount(context.Background(), &MountRequest{})
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if !reflect.DeepEqual(res.Result.OverlayModuleIDs, []string{"a"}) {
		t.Errorf("overlay ids = %v", res.Result.OverlayModuleIDs)
	}
}
