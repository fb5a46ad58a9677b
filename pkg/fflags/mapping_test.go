package fflags

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMapping(t *testing.T) {
	m, err := ParseMapping([]byte(`{"FFlagA": true, "FIntB": 12, "FStringC": "x"}`))
	require.NoError(t, err)
	assert.Equal(t, true, m["FFlagA"])
	assert.Equal(t, json.Number("12"), m["FIntB"])
	assert.Equal(t, "x", m["FStringC"])
	assert.Equal(t, []string{"FFlagA", "FIntB", "FStringC"}, m.Keys())
}

func TestParseMappingRejectsNonObject(t *testing.T) {
	for _, doc := range []string{`[1,2]`, `null`, `"x"`, `{`} {
		_, err := ParseMapping([]byte(doc))
		assert.Error(t, err, doc)
	}
}

func TestMappingWithout(t *testing.T) {
	m := Mapping{"a": true, "b": true, "c": true}
	out := m.Without("b", "missing")
	assert.Equal(t, Mapping{"a": true, "c": true}, out)
	assert.Len(t, m, 3, "receiver untouched")
}

func TestMappingSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultMappingPath)
	m := Mapping{"FIntB": json.Number("12"), "FFlagA": false}
	require.NoError(t, m.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"FFlagA\": false,\n    \"FIntB\": 12\n}\n", string(data))

	back, err := LoadMapping(path)
	require.NoError(t, err)
	assert.Equal(t, m, back)
}

func TestLoadMappingMissing(t *testing.T) {
	_, err := LoadMapping(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMappingSaveKeepsURLsVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultMappingPath)
	url := "https://example.com/upload?a=1&b=<2>"
	require.NoError(t, Mapping{"FStringCrashUploadUrl": url}.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), url)
	assert.NotContains(t, string(data), `\u0026`)

	back, err := LoadMapping(path)
	require.NoError(t, err)
	assert.Equal(t, url, back["FStringCrashUploadUrl"])
}
