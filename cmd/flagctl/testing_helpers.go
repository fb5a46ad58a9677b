package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joshuapare/flagkit/internal/layout"
	"github.com/joshuapare/flagkit/internal/remote"
	"github.com/joshuapare/flagkit/internal/remote/remotetest"
	"github.com/joshuapare/flagkit/pkg/fflags"
)

const (
	testImageBase = 0x1_4000_0000
	testImageSize = 0x4000
	testCodeOff   = 0x310
	testSlotOff   = 0x2400
)

// testTarget is an in-memory client with a small registry.
type testTarget struct {
	mem *remotetest.Memory
	reg *remotetest.Registry
	dir string
}

// u32 returns the low 32 bits stored for a flag.
func (tg *testTarget) u32(name string) uint32 {
	return uint32(tg.mem.PeekU64(tg.reg.Values[name]))
}

// useTestTarget resets the global flags and routes openSession to a
// synthetic target. The offset cache lives in a temp dir.
func useTestTarget(t *testing.T) *testTarget {
	t.Helper()
	resetFlags(t)

	mem := remotetest.New()
	reg := remotetest.BuildRegistry(mem, 0xF, []remotetest.Flag{
		{Name: "DebugGraphicsPreferVulkan", Kind: layout.KindFlag},
		{Name: "TaskSchedulerTargetFps", Kind: layout.KindInteger, Int: 60},
		{Name: "Network", Kind: layout.KindLog, Int: 1},
		{Name: "CrashUploadUrl", Kind: layout.KindString, Str: "https://a", Capacity: 31},
	})
	remotetest.BuildImage(mem, fflags.DefaultProcess, testImageBase, testImageSize, testCodeOff, testSlotOff, reg.Singleton)

	prev := openSession
	openSession = func(ctx context.Context, opts fflags.Options) (*fflags.Session, error) {
		return fflags.NewSession(mem, opts), nil
	}
	t.Cleanup(func() { openSession = prev })

	return &testTarget{mem: mem, reg: reg, dir: filepath.Dir(cachePath)}
}

// resetFlags restores every command flag to its default.
func resetFlags(t *testing.T) {
	t.Helper()
	dir := t.TempDir()

	verbose, quiet, jsonOut = false, false, false
	processName = fflags.DefaultProcess
	moduleName = ""
	cachePath = filepath.Join(dir, "address.json")
	signatureText = ""
	attachInterval = remote.DefaultAttachInterval
	pollInterval = time.Millisecond
	fingerprint, debugPrivilege = false, false

	applyPrune, applyKeep = false, false
	listFilter, listValues = "", false
	resolveRescan = false
	scanImage, scanBase, scanFlat = "", 0, false
	hashMask = 0
}

// writeMapping writes a mapping document into the target's temp dir.
func writeMapping(t *testing.T, tg *testTarget, doc string) string {
	t.Helper()
	path := filepath.Join(tg.dir, "fflags.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write mapping: %v", err)
	}
	return path
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return buf.String(), fnErr
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) {
	t.Helper()
	var result any
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("output is not valid JSON: %v\nOutput: %s", err, output)
	}
}
