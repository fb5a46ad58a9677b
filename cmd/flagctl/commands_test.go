package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/flagkit/internal/resolve"
	"github.com/joshuapare/flagkit/pkg/fflags"
)

func TestHashCommand(t *testing.T) {
	resetFlags(t)
	hashMask = 0xFF

	out, err := captureOutput(t, func() error { return runHash("FFlagfoobar") })
	require.NoError(t, err)
	assert.Equal(t, "0x85944171f73967e8\nbucket: 232\n", out)
}

func TestHashCommandJSON(t *testing.T) {
	resetFlags(t)
	jsonOut = true

	out, err := captureOutput(t, func() error { return runHash("DFIntfoobar") })
	require.NoError(t, err)
	assertJSON(t, out)
	assert.Contains(t, out, `"name": "foobar"`)
	assert.Contains(t, out, `"kind": "integer"`)
	assert.NotContains(t, out, "bucket")
}

func TestScanImageCommand(t *testing.T) {
	resetFlags(t)

	code := []byte{0x48, 0x83, 0xEC, 0x38, 0x48, 0x8B, 0x0D, 1, 2, 3, 4, 0x4C, 0x8D, 0x05}
	data := make([]byte, 0x200)
	copy(data[0x40:], code)
	copy(data[0x120:], code)
	scanImage = filepath.Join(t.TempDir(), "client.bin")
	require.NoError(t, os.WriteFile(scanImage, data, 0o644))
	scanFlat = true
	scanBase = 0x10000

	out, err := captureOutput(t, func() error {
		return runScan(context.Background(), "48 83 EC 38 48 8B 0D ?? ?? ?? ?? 4C 8D 05")
	})
	require.NoError(t, err)
	assert.Equal(t, "0x40\n0x120\n", out)
}

func TestScanCommandLive(t *testing.T) {
	useTestTarget(t)
	jsonOut = true

	out, err := captureOutput(t, func() error {
		return runScan(context.Background(), resolve.SingletonSignature.String())
	})
	require.NoError(t, err)

	var got scanJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"0x310"}, got.Matches)
	assert.Equal(t, fflags.DefaultProcess, got.Module)
}

func TestScanCommandBadSignature(t *testing.T) {
	resetFlags(t)
	err := runScan(context.Background(), "48 zz")
	assert.Error(t, err)
}

func TestResolveCommand(t *testing.T) {
	useTestTarget(t)

	out, err := captureOutput(t, func() error { return runResolve(context.Background()) })
	require.NoError(t, err)
	assert.Contains(t, out, "source:  pattern")
	assert.Contains(t, out, "offset:  0x2400")

	data, err := os.ReadFile(cachePath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"singleton": 9216}`, string(data))

	out, err = captureOutput(t, func() error { return runResolve(context.Background()) })
	require.NoError(t, err)
	assert.Contains(t, out, "source:  cache")

	resolveRescan = true
	out, err = captureOutput(t, func() error { return runResolve(context.Background()) })
	require.NoError(t, err)
	assert.Contains(t, out, "source:  pattern")
}

func TestBadSignatureFlag(t *testing.T) {
	useTestTarget(t)
	signatureText = "48 GG"

	err := runResolve(context.Background())
	assert.ErrorContains(t, err, "--signature")
}

func TestGetCommand(t *testing.T) {
	useTestTarget(t)

	out, err := captureOutput(t, func() error { return runGet(context.Background(), "FIntTaskSchedulerTargetFps") })
	require.NoError(t, err)
	assert.Equal(t, "FIntTaskSchedulerTargetFps = 60\n", out)

	out, err = captureOutput(t, func() error { return runGet(context.Background(), "DFStringCrashUploadUrl") })
	require.NoError(t, err)
	assert.Equal(t, "DFStringCrashUploadUrl = https://a\n", out)

	_, err = captureOutput(t, func() error { return runGet(context.Background(), "FFlagNope") })
	assert.ErrorIs(t, err, fflags.ErrFlagNotFound)
}

func TestGetCommandJSON(t *testing.T) {
	useTestTarget(t)
	jsonOut = true

	out, err := captureOutput(t, func() error { return runGet(context.Background(), "FLogNetwork") })
	require.NoError(t, err)

	var got flagJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Network", got.Name)
	assert.Equal(t, "log", got.Kind)
	assert.Equal(t, "1", got.Value)
}

func TestSetCommand(t *testing.T) {
	tg := useTestTarget(t)
	ctx := context.Background()

	out, err := captureOutput(t, func() error { return runSet(ctx, "FIntTaskSchedulerTargetFps", "144") })
	require.NoError(t, err)
	assert.Equal(t, "FIntTaskSchedulerTargetFps = 144\n", out)
	assert.Equal(t, uint32(144), tg.u32("TaskSchedulerTargetFps"))

	_, err = captureOutput(t, func() error { return runSet(ctx, "FFlagDebugGraphicsPreferVulkan", "true") })
	require.NoError(t, err)
	assert.Equal(t, uint32(1), tg.u32("DebugGraphicsPreferVulkan"))

	_, err = captureOutput(t, func() error { return runSet(ctx, "FLogNetwork", "warning") })
	require.NoError(t, err)
	assert.Equal(t, uint32(4), tg.u32("Network"))

	_, err = captureOutput(t, func() error { return runSet(ctx, "FStringCrashUploadUrl", "https://b/upload") })
	require.NoError(t, err)
	out, err = captureOutput(t, func() error { return runGet(ctx, "FStringCrashUploadUrl") })
	require.NoError(t, err)
	assert.Equal(t, "FStringCrashUploadUrl = https://b/upload\n", out)
}

func TestSetCommandFailures(t *testing.T) {
	tg := useTestTarget(t)
	ctx := context.Background()

	_, err := captureOutput(t, func() error { return runSet(ctx, "FIntTaskSchedulerTargetFps", "fast") })
	assert.ErrorIs(t, err, fflags.ErrInvalidValue)
	assert.Equal(t, uint32(60), tg.u32("TaskSchedulerTargetFps"))

	_, err = captureOutput(t, func() error { return runSet(ctx, "FFlagMissing", "true") })
	assert.ErrorIs(t, err, fflags.ErrFlagNotFound)
}

func TestParseArg(t *testing.T) {
	tests := []struct {
		arg  string
		want any
	}{
		{"true", true},
		{"false", false},
		{"144", json.Number("144")},
		{"-1", json.Number("-1")},
		{`"quoted"`, "quoted"},
		{"verbose", "verbose"},
		{"60fps", "60fps"},
		{"null", "null"},
		{"[1]", "[1]"},
		{"1 2", "1 2"},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			assert.Equal(t, tt.want, parseArg(tt.arg))
		})
	}
}

func TestListCommand(t *testing.T) {
	useTestTarget(t)

	out, err := captureOutput(t, func() error { return runList(context.Background()) })
	require.NoError(t, err)
	assert.Equal(t, "CrashUploadUrl\nDebugGraphicsPreferVulkan\nNetwork\nTaskSchedulerTargetFps\n", out)

	listFilter = "VULKAN"
	listValues = true
	out, err = captureOutput(t, func() error { return runList(context.Background()) })
	require.NoError(t, err)
	assert.Equal(t, "DebugGraphicsPreferVulkan\tflag\tfalse\n", out)
}

func TestApplyCommandPrune(t *testing.T) {
	tg := useTestTarget(t)
	path := writeMapping(t, tg, `{
		"FFlagDebugGraphicsPreferVulkan": true,
		"DFIntTaskSchedulerTargetFps": 240,
		"FLogNetwork": "info",
		"FFlagRemovedLongAgo": true,
		"FIntAlsoRemoved": 3
	}`)
	applyPrune = true
	prev := confirm
	confirm = func(context.Context, string, []string) (bool, error) {
		t.Fatal("prompted despite --prune")
		return false, nil
	}
	t.Cleanup(func() { confirm = prev })

	out, err := captureOutput(t, func() error { return runApply(context.Background(), path) })
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 3 of 5 flag(s)")
	assert.Contains(t, out, "FFlagRemovedLongAgo")
	assert.Contains(t, out, "Removed 2 flag(s)")

	assert.Equal(t, uint32(1), tg.u32("DebugGraphicsPreferVulkan"))
	assert.Equal(t, uint32(240), tg.u32("TaskSchedulerTargetFps"))
	assert.Equal(t, uint32(6), tg.u32("Network"))

	m, err := fflags.LoadMapping(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"DFIntTaskSchedulerTargetFps", "FFlagDebugGraphicsPreferVulkan", "FLogNetwork"}, m.Keys())
}

func TestApplyCommandPromptDeclined(t *testing.T) {
	tg := useTestTarget(t)
	doc := `{"FFlagGone": true, "FIntTaskSchedulerTargetFps": 30}`
	path := writeMapping(t, tg, doc)

	var asked []string
	prev := confirm
	confirm = func(_ context.Context, _ string, items []string) (bool, error) {
		asked = items
		return false, nil
	}
	t.Cleanup(func() { confirm = prev })

	_, err := captureOutput(t, func() error { return runApply(context.Background(), path) })
	require.NoError(t, err)
	assert.Equal(t, []string{"FFlagGone"}, asked)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc, string(data), "mapping untouched")
}

func TestApplyCommandJSON(t *testing.T) {
	tg := useTestTarget(t)
	path := writeMapping(t, tg, `{"FFlagGone": true, "FIntTaskSchedulerTargetFps": 30}`)
	jsonOut = true

	prev := confirm
	confirm = func(context.Context, string, []string) (bool, error) {
		t.Fatal("prompted in JSON mode")
		return false, nil
	}
	t.Cleanup(func() { confirm = prev })

	out, err := captureOutput(t, func() error { return runApply(context.Background(), path) })
	require.NoError(t, err)

	var got []resultJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "not found", got[0].Status)
	assert.Equal(t, "set", got[1].Status)
	assert.Equal(t, "30", got[1].Value)
}

func TestApplyCommandConflictingFlags(t *testing.T) {
	useTestTarget(t)
	applyPrune, applyKeep = true, true
	assert.Error(t, runApply(context.Background(), "unused.json"))
}

func TestApplyCommandMissingMapping(t *testing.T) {
	tg := useTestTarget(t)
	err := runApply(context.Background(), filepath.Join(tg.dir, "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestVersionMatchesRootFlag(t *testing.T) {
	resetFlags(t)
	assert.Equal(t, version, rootCmd.Version)

	out, err := captureOutput(t, runVersion)
	require.NoError(t, err)
	assert.Contains(t, out, "flagctl "+rootCmd.Version+"\n")
}
