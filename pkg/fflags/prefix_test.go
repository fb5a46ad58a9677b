package fflags

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joshuapare/flagkit/internal/layout"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		key  string
		name string
		kind layout.ValueKind
	}{
		{"DFStringCrashUploadUrl", "CrashUploadUrl", layout.KindString},
		{"DFFlagDebugRender", "DebugRender", layout.KindFlag},
		{"DFIntTaskSchedulerTargetFps", "TaskSchedulerTargetFps", layout.KindInteger},
		{"DFLogNetwork", "Network", layout.KindLog},
		{"FStringVoiceUrl", "VoiceUrl", layout.KindString},
		{"FFlagEnableThing", "EnableThing", layout.KindFlag},
		{"FIntFRMMinGrassDistance", "FRMMinGrassDistance", layout.KindInteger},
		{"FLogGraphics", "Graphics", layout.KindLog},
		{"SomethingElse", "SomethingElse", layout.KindInteger},
		{"FFlag", "", layout.KindFlag},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			name, kind := Classify(tt.key)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.kind, kind)
		})
	}
}
